package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks the rules file using struct tags plus the cross-field
// rule that every entry is either a word replacement or a fixed value,
// never both and never neither.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		return formatValidationErrors(err)
	}

	for name, spec := range c.VariableUpdates {
		hasWord := spec.Word != ""
		hasValue := spec.Value != ""
		switch {
		case hasWord && hasValue:
			return fmt.Errorf("variable_updates.%s: specify word/to OR value, not both", name)
		case !hasWord && !hasValue:
			return fmt.Errorf("variable_updates.%s: specify word/to or value", name)
		case hasWord && spec.To == "":
			return fmt.Errorf("variable_updates.%s: word requires to", name)
		}
	}
	return nil
}

// formatValidationErrors converts validator.ValidationErrors to messages a
// user can act on.
func formatValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		var messages []string
		for _, e := range validationErrors {
			messages = append(messages, fmt.Sprintf("%s: failed %q constraint", e.Namespace(), e.Tag()))
		}
		return errors.New(strings.Join(messages, "; "))
	}
	return err
}
