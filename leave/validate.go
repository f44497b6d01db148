package leave

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names so messages match what clients sent.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// validateStruct runs tag validation and reports the first failure as a
// *ValidationError.
func (s *Service) validateStruct(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return &ValidationError{Message: err.Error()}
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required", "required_if":
		return &ValidationError{Field: fe.Field(), Message: "is required"}
	case "oneof":
		return &ValidationError{Field: fe.Field(), Message: "must be one of: " + fe.Param()}
	case "max":
		return &ValidationError{Field: fe.Field(), Message: fmt.Sprintf("must be at most %s characters", fe.Param())}
	default:
		return &ValidationError{Field: fe.Field(), Message: "is invalid"}
	}
}
