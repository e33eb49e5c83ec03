package validation

import (
	"math"

	validatorv10 "github.com/go-playground/validator/v10"
)

// New returns a configured validator with custom struct-level validation registered.
func New() *validatorv10.Validate {
	v := validatorv10.New()

	// half-step quantities: 0.5, 1, 1.5, ...
	v.RegisterStructValidation(updateQuantityStructValidation, UpdateQuantityRequest{})

	return v
}

func updateQuantityStructValidation(sl validatorv10.StructLevel) {
	req := sl.Current().Interface().(UpdateQuantityRequest)

	steps := req.Quantity * 2
	if math.Abs(steps-math.Round(steps)) > 1e-9 {
		sl.ReportError(req.Quantity, "quantity", "Quantity", "half_step", "")
	}
}
