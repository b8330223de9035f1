package authvar

import (
	"fmt"
	"strings"
)

// ConfigError reports an invalid or incomplete option combination. It
// is always raised before any external tool runs; the CLI prints it
// together with the usage text.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// ToolError reports an external tool invocation that failed. Stderr
// carries whatever the tool printed, which is usually the only clue
// openssl gives.
type ToolError struct {
	Tool   string
	Stderr string
	Err    error
}

func (e *ToolError) Error() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, s)
	}
	return fmt.Sprintf("%s: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }
