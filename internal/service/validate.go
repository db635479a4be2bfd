package service

import (
	"errors"
	"fmt"
	"strings"

	"table-booking/internal/model"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRequest checks struct tags and converts failures into invalid_payload.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewDomainError(model.ErrCodeInvalidPayload, err.Error())
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
	}

	return model.NewDomainError(model.ErrCodeInvalidPayload, "Invalid fields: "+strings.Join(fields, ", "))
}
