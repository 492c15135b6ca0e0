package codec

import "fmt"

// ConfigError reports a glyph set, transform or combination the converter
// cannot honour. It is never substituted with a fallback.
type ConfigError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ConfigError) Error() string {
	switch {
	case e.Reason != "" && e.Value != "":
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	case e.Reason != "":
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	default:
		return fmt.Sprintf("unknown %s %q", e.Field, e.Value)
	}
}
