package channels

import (
	_ "embed"
	"fmt"
	"log"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

//go:embed notifications_schema.json
var notificationsSchemaJSON []byte

var notificationsSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(notificationsSchemaJSON)
	if err != nil {
		// The schema is compiled in; a parse failure is a build defect.
		log.Fatalf("failed to compile notifications schema: %v", err)
	}
	notificationsSchema = schema
}

// validateNotifications validates a channel's notification flags against the
// embedded JSON Schema.
func validateNotifications(flags map[string]interface{}) error {
	result := notificationsSchema.Validate(flags)
	if !result.IsValid() {
		var errorMessages []string
		for field, evalErr := range result.Errors {
			errorMessages = append(errorMessages, fmt.Sprintf("%s: %s", field, evalErr.Error()))
		}
		return fmt.Errorf("notifications validation failed: %s", strings.Join(errorMessages, "; "))
	}
	return nil
}
