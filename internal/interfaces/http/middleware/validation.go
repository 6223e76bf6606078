package middleware

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var channelCodePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// SetupValidator registers custom validation tags on gin's binding validator
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// channelcode: lowercase alphanumeric with dashes, as used in URLs and
	// redis keys
	_ = v.RegisterValidation("channelcode", func(fl validator.FieldLevel) bool {
		return channelCodePattern.MatchString(fl.Field().String())
	})
}
