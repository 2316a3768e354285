package narrative

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"fuelcast/internal/errors"
	"fuelcast/pkg/contracts/domain"
)

// Request is everything the narrative needs about one forecast run.
type Request struct {
	Outlet   string                 `json:"outlet" validate:"required"`
	FuelType string                 `json:"fuel_type" validate:"required"`
	Periods  int                    `json:"periods" validate:"gt=0"`
	Forecast *domain.ForecastResult `json:"-" validate:"required"`

	// Dropped counts the long-format rows discarded during reshaping.
	Dropped int `json:"dropped" validate:"gte=0"`
}

var validate = validator.New()

// Validate checks the request fields and that the forecast carries data.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, formatFieldError(fe))
			}
			return errors.NewValidationError("invalid narrative request: " + strings.Join(msgs, "; "))
		}
		return errors.NewValidationError("invalid narrative request: " + err.Error())
	}

	if len(r.Forecast.Full) == 0 || len(r.Forecast.Input) == 0 {
		return errors.NewEmptyInputError("narrative request has an empty forecast")
	}
	return nil
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
	}
}
