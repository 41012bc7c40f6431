package ledger

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/homeledger/taxengine/internal/domain/shared"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validatorInstance returns the shared validator, reporting fields by their JSON names.
func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// validateStruct runs struct-tag validation and converts failures to INVALID_INPUT.
func validateStruct(s any) error {
	if err := validatorInstance().Struct(s); err != nil {
		return toDomainError(err)
	}
	return nil
}

func toDomainError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return shared.NewInvalidInputError("%s", err.Error())
	}
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Namespace()+" ("+e.Tag()+")")
	}
	return shared.NewInvalidInputError("validation failed: %s", strings.Join(fields, ", "))
}
