package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidation makes binding errors report JSON field names.
func RegisterValidation() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
}

// bindingMessage turns a binding failure into a client-facing message.
func bindingMessage(err error) string {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return "invalid request body"
	}

	messages := make([]string, len(validationErrs))
	for i, fe := range validationErrs {
		switch fe.Tag() {
		case "required", "gt":
			messages[i] = fmt.Sprintf("%s must be a positive integer", fe.Field())
		default:
			messages[i] = fmt.Sprintf("invalid '%s' with value '%v'", fe.Field(), fe.Value())
		}
	}
	return strings.Join(messages, ", ")
}
