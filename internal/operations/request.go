package operations

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"fuelcast/internal/errors"
)

// RunRequest describes one invocation of the pipeline
type RunRequest struct {
	InputPath string `json:"input_path" validate:"required"`
	Sheet     string `json:"sheet,omitempty"`
	FuelType  string `json:"fuel_type" validate:"required"`
	Outlet    string `json:"outlet,omitempty"`
	Periods   int    `json:"periods" validate:"gt=0"`
	Narrative bool   `json:"narrative"`
	// OutputDir overrides the configured reports directory.
	OutputDir string `json:"output_dir,omitempty"`
}

var validate = validator.New()

// Validate checks the request. Single runs also need an outlet.
func (r RunRequest) Validate(mode string) error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
			}
			return errors.NewValidationError("invalid run request: " + strings.Join(fields, ", "))
		}
		return errors.NewValidationError("invalid run request: " + err.Error())
	}

	if mode == ModeSingle && strings.TrimSpace(r.Outlet) == "" {
		return errors.NewValidationError("invalid run request: Outlet (required)")
	}
	return nil
}
