package handlers

import (
	"agromarket_back_end/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// RegisterValidators adds the custom binding rules used by request structs:
//
//	orderstatus  value is one of models.OrderStatuses
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	return v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
		return models.IsValidOrderStatus(fl.Field().String())
	})
}
