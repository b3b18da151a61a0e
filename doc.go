// Package agentctl runs the host side of the agent control protocol: a
// bidirectional, newline-delimited JSON stream between an application and
// an agent process.
//
// The application sends prompts and control requests (interrupt, set_model,
// set_permission_mode, mcp_status, rewind_files) and receives data messages.
// The agent sends control requests back that run application callbacks:
// hook_callback for lifecycle hooks, can_use_tool for permission decisions
// and mcp_message for in-process MCP tool servers. Every callback runs under
// a deadline; the agent may cancel one with control_cancel_request.
//
// # Basic Usage
//
// For a one-shot exchange, use Query with a transport:
//
//	tr := agentctl.NewCommandTransport(log, exec.Command("agent", "--input-format", "stream-json"))
//
//	for msg, err := range agentctl.Query(ctx, "What is 2+2?", agentctl.WithTransport(tr)) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    switch m := msg.(type) {
//	    case *agentctl.AssistantMessage:
//	        for _, block := range m.Content {
//	            if text, ok := block.(*agentctl.TextBlock); ok {
//	                fmt.Println(text.Text)
//	            }
//	        }
//	    case *agentctl.ResultMessage:
//	        fmt.Printf("Completed in %dms\n", m.DurationMs)
//	    }
//	}
//
// # Interactive Sessions
//
// For multi-turn conversations, use NewClient or the WithClient helper:
//
//	err := agentctl.WithClient(ctx, func(c agentctl.Client) error {
//	    if err := c.Query(ctx, "Hello"); err != nil {
//	        return err
//	    }
//	    for msg, err := range c.ReceiveResponse(ctx) {
//	        if err != nil {
//	            return err
//	        }
//	        // process message...
//	    }
//	    return nil
//	},
//	    agentctl.WithTransport(tr),
//	    agentctl.WithCanUseTool(policy),
//	)
//
// # Callbacks
//
// Hooks are registered per event with optional tool-name globs:
//
//	agentctl.WithHooks(map[agentctl.HookEvent][]*agentctl.HookMatcher{
//	    agentctl.HookEventPreToolUse: {{
//	        Matcher: new("Bash"),
//	        Hooks:   []agentctl.HookCallback{blockDangerous},
//	    }},
//	})
//
// A callback's ctx is cancelled when its deadline passes or the agent
// cancels the call. Callbacks that ignore it are abandoned after a grace
// period and the agent gets an error response.
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	client.Start(ctx, agentctl.WithTransport(tr), agentctl.WithLogger(logger))
//
// # Error Handling
//
// Failures are typed:
//
//	if _, err := client.GetMCPStatus(ctx); err != nil {
//	    if ctrlErr, ok := errors.AsType[*agentctl.ControlError](err); ok {
//	        log.Printf("agent rejected %s: %s", ctrlErr.Subtype, ctrlErr.Message)
//	    }
//	    if agentctl.IsTimeout(err) {
//	        log.Print("agent did not answer")
//	    }
//	    if errors.Is(err, agentctl.ErrTransportClosed) {
//	        log.Print("agent went away")
//	    }
//	}
package agentctl
