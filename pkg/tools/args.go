package tools

import (
	"fmt"
	"strconv"
	"strings"
)

// String reads a string argument. Numbers and booleans are formatted.
func String(args map[string]interface{}, name string) (string, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: missing %q", ErrInvalidArgs, name)
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	default:
		return "", fmt.Errorf("%w: %q is %T, want string", ErrInvalidArgs, name, raw)
	}
}

func OptionalString(args map[string]interface{}, name, fallback string) string {
	if s, err := String(args, name); err == nil && s != "" {
		return s
	}
	return fallback
}

// Int reads an integer argument sent as a JSON number or numeric string
func Int(args map[string]interface{}, name string, fallback int) (int, error) {
	raw, ok := args[name]
	if !ok || raw == nil {
		return fallback, nil
	}
	switch v := raw.(type) {
	case float64:
		return int(v), nil
	case int:
		return v, nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not an integer", ErrInvalidArgs, name)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%w: %q is %T, want integer", ErrInvalidArgs, name, raw)
	}
}
