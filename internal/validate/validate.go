// Package validate wraps go-playground/validator for the request structs
// in internal/domain.
package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Struct checks the struct's validate tags and returns a single error
// naming every failed field, suitable for a 400 response body.
func Struct(data interface{}) error {
	err := validate.Struct(data)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	parts := make([]string, 0, len(verrs))
	for _, ve := range verrs {
		if ve.Param() != "" {
			parts = append(parts, fmt.Sprintf("%s failed %s=%s", ve.StructNamespace(), ve.Tag(), ve.Param()))
			continue
		}
		parts = append(parts, fmt.Sprintf("%s failed %s", ve.StructNamespace(), ve.Tag()))
	}
	return fmt.Errorf("validation: %s", strings.Join(parts, "; "))
}
