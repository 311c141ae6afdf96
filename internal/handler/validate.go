package handler

import (
	"github.com/go-playground/validator/v10"

	"github.com/greenfields-vn/chomart/internal/domain"
)

// Validator adapts go-playground/validator to echo's Validator interface.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *Validator) Validate(i any) error {
	if err := v.validate.Struct(i); err != nil {
		return domain.WrapError(err, domain.EINVALID, "handler.validate", "Invalid request payload")
	}
	return nil
}
