package validate

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Check validates a struct against its validate tags, returning the first
// violation as a plain error
func Check(val any) error {
	err := validate.Struct(val)
	if err == nil {
		return nil
	}

	verrors, ok := err.(validator.ValidationErrors)
	if !ok || len(verrors) < 1 {
		return err
	}

	f := verrors[0]
	return errors.New("invalid field " + f.Field() + ": failed " + f.Tag() + " check")
}
