package validate

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/telbozor/api/internal/domain"
)

// v is the package-level singleton validator. Custom tags are registered in
// init() before the first call to Struct.
var v = validator.New()

func init() {
	mustRegister("storage", func(fl validator.FieldLevel) bool {
		return domain.Storage(fl.Field().String()).Valid()
	})
	mustRegister("condition", func(fl validator.FieldLevel) bool {
		return domain.Condition(fl.Field().String()).Valid()
	})
	mustRegister("city", func(fl validator.FieldLevel) bool {
		return domain.City(fl.Field().String()).Valid()
	})
}

func mustRegister(tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("register validation " + tag + ": " + err.Error())
	}
}

// Struct validates the given struct using its validate tags.
// Returns a human-readable error wrapping domain.ErrBadRequest, or nil.
func Struct(s interface{}) error {
	if err := v.Struct(s); err != nil {
		ve, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		var msgs []string
		for _, fe := range ve {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed '%s'", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), domain.ErrBadRequest)
	}
	return nil
}
