package handler

import (
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/userlink/userlink-server/internal/modules/model"
)

var registerOnce sync.Once

// RegisterValidators adds the custom binding tags used by request structs.
func RegisterValidators() {
	registerOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("msgrole", func(fl validator.FieldLevel) bool {
				return model.ValidRole(fl.Field().String())
			})
		}
	})
}
