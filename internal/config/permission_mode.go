package config

import (
	"fmt"

	"github.com/wagiedev/agentctl-go/internal/permission"
)

// NormalizePermissionMode maps legacy permission mode names to current
// values and rejects unknown modes.
//
// Legacy mappings:
//   - "acceptAll" -> "bypassPermissions"
//   - "prompt" -> "default"
func NormalizePermissionMode(mode string) (permission.Mode, error) {
	switch mode {
	case "acceptAll":
		return permission.ModeBypassPermissions, nil
	case "prompt":
		return permission.ModeDefault, nil
	}

	m := permission.Mode(mode)
	if !m.Valid() {
		return "", fmt.Errorf("unknown permission mode %q", mode)
	}

	return m, nil
}
