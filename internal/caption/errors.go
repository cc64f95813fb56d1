package caption

import (
	"errors"
	"fmt"

	"github.com/db8labs/db8-agent/internal/llm"
)

// ErrGenerationDisabled is returned when no provider is configured.
var ErrGenerationDisabled = errors.New("caption generation is not configured")

// MalformedResponseError is returned when no JSON object could be recovered
// from the provider text, neither directly nor from its brace span.
type MalformedResponseError struct {
	Text string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed caption response: %v: %.200q", e.Err, e.Text)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// SchemaError is returned when the parsed object lacks a required field or a
// field has the wrong shape.
type SchemaError struct {
	Field  string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("caption schema: field %q %s", e.Field, e.Reason)
}

// Error kinds reported by Kind.
const (
	KindProvider        = "provider_error"
	KindProviderTimeout = "provider_timeout"
	KindMalformed       = "malformed_response"
	KindSchema          = "schema_error"
	KindDisabled        = "generation_disabled"
	KindUnknown         = "unknown"
)

// Kind classifies a generation error into a stable code suitable for storage
// and API responses. Kind(nil) is "".
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var pe *llm.ProviderError
	var me *MalformedResponseError
	var se *SchemaError
	switch {
	case errors.Is(err, ErrGenerationDisabled):
		return KindDisabled
	case errors.As(err, &pe):
		if pe.Timeout() {
			return KindProviderTimeout
		}
		return KindProvider
	case errors.As(err, &me):
		return KindMalformed
	case errors.As(err, &se):
		return KindSchema
	default:
		return KindUnknown
	}
}
