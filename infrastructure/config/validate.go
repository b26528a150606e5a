package config

import "fmt"

// ValidationError names the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidatePort rejects ports outside 1..65535.
func ValidatePort(field string, port int) error {
	if port < 1 || port > 65535 {
		return &ValidationError{Field: field, Message: "must be between 1 and 65535"}
	}
	return nil
}

// ValidatePositive rejects zero and negative values.
func ValidatePositive[N ~int | ~int64 | ~float64](field string, v N) error {
	if v <= 0 {
		return &ValidationError{Field: field, Message: "must be greater than zero"}
	}
	return nil
}

// ValidateUnitInterval rejects values outside [lo, 1] where lo is
// inclusive when inclusiveLow is set.
func ValidateUnitInterval(field string, v float64, inclusiveLow bool) error {
	if v > 1 || v < 0 || (!inclusiveLow && v == 0) {
		bound := "(0, 1]"
		if inclusiveLow {
			bound = "[0, 1]"
		}
		return &ValidationError{Field: field, Message: "must be within " + bound}
	}
	return nil
}
