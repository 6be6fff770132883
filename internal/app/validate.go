package app

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"smartstay/internal/domain"
)

var validate = validator.New()

// check validates v and maps failures to domain.ErrInvalid with a readable message.
func check(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
		}
		return fmt.Errorf("invalid %s: %w", strings.Join(fields, ", "), domain.ErrInvalid)
	}
	return fmt.Errorf("%v: %w", err, domain.ErrInvalid)
}
