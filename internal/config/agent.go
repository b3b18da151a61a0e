package config

// AgentDefinition describes a subagent announced during initialize.
type AgentDefinition struct {
	Description string   `json:"description" yaml:"description"`
	Prompt      string   `json:"prompt" yaml:"prompt"`
	Tools       []string `json:"tools,omitempty" yaml:"tools,omitempty"`
	Model       *string  `json:"model,omitempty" yaml:"model,omitempty"` // "sonnet", "opus", "haiku", "inherit"
}

// AgentsPayload renders agents for the initialize request. It returns nil
// when there are none.
func AgentsPayload(agents map[string]*AgentDefinition) map[string]any {
	if len(agents) == 0 {
		return nil
	}

	out := make(map[string]any, len(agents))

	for name, a := range agents {
		if a == nil {
			continue
		}

		def := map[string]any{
			"description": a.Description,
			"prompt":      a.Prompt,
		}

		if len(a.Tools) > 0 {
			def["tools"] = a.Tools
		}

		if a.Model != nil {
			def["model"] = *a.Model
		}

		out[name] = def
	}

	return out
}
