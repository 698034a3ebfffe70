package pipeline

import (
	"fmt"
	"regexp"
	"strings"
)

// Placeholder names shared by the built-in templates and the assembler.
const (
	FieldTableName           = "table_name"
	FieldSchema              = "schema"
	FieldColumnDescriptions  = "column_descriptions"
	FieldConversationHistory = "conversation_history"
	FieldQuestion            = "question"
	FieldUserQuery           = "user_query"
	FieldSQL                 = "sql"
	FieldAnswer              = "answer"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_]*)\s*\}\}`)

// MissingFieldError reports a template placeholder with no matching value.
// It means the template and the assembler disagree, which is a deployment
// problem rather than a user one.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("prompt template references unknown field %q", e.Field)
}

// Render substitutes {{name}} placeholders with their values. Values are
// sanitized so injected text can never introduce new placeholders. Unknown
// placeholders fail hard instead of leaking raw markers into a prompt.
func Render(template string, fields map[string]string) (string, error) {
	var missing *MissingFieldError
	out := placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		value, ok := fields[name]
		if !ok {
			if missing == nil {
				missing = &MissingFieldError{Field: name}
			}
			return m
		}
		return sanitizeValue(value)
	})
	if missing != nil {
		return "", missing
	}
	return out, nil
}

// sanitizeValue breaks up placeholder delimiters inside substituted values.
// Idempotent, sanitizing twice changes nothing.
func sanitizeValue(v string) string {
	v = strings.ReplaceAll(v, "{{", "{ {")
	v = strings.ReplaceAll(v, "}}", "} }")
	return v
}
