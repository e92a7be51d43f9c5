package service

import (
	"fmt"

	"github.com/cwrk-planet/kcd-platform/internal/errs"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// validateStruct оборачивает ошибки валидатора в errs.ErrValidation
func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrValidation, err)
	}
	return nil
}
