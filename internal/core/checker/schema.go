package checker

import (
	"fmt"
	"strings"

	"github.com/fulmenhq/gofulmen/schema"
)

// verificationSchema describes the online checker's response. Every key is
// required; type and country may be false when the service could not
// determine them.
const verificationSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "required": ["working", "type", "ip", "port", "country", "ind"],
    "properties": {
      "working": {"type": "boolean"},
      "type":    {"type": ["string", "boolean"]},
      "country": {"type": ["string", "boolean"]},
      "ip":      {"type": "string"},
      "port":    {"type": "string"},
      "ind":     {"type": "string"}
    }
  }
}`

// validateVerificationPayload checks payload against verificationSchema.
func validateVerificationPayload(payload []byte) error {
	validator, err := schema.NewValidator([]byte(verificationSchema))
	if err != nil {
		return fmt.Errorf("compile verification schema: %w", err)
	}

	diagnostics, err := validator.ValidateJSON(payload)
	if err != nil {
		return err
	}
	if len(diagnostics) == 0 {
		return nil
	}

	messages := make([]string, 0, len(diagnostics))
	for _, diagnostic := range diagnostics {
		messages = append(messages, diagnostic.Message)
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(messages, "; "))
}
