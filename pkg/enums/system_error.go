package enums

import "fmt"

// SystemError is the kind of blocking overlay raised on a kiosk.
type SystemError string

const (
	SystemErrorNetwork     SystemError = "network"
	SystemErrorMaintenance SystemError = "maintenance"
	SystemErrorGeneral     SystemError = "general"
)

// RetryAfterSeconds is the countdown shown on the network error overlay.
const RetryAfterSeconds = 30

var validSystemErrors = []SystemError{
	SystemErrorNetwork,
	SystemErrorMaintenance,
	SystemErrorGeneral,
}

// String implements fmt.Stringer.
func (s SystemError) String() string {
	return string(s)
}

// IsValid reports whether the value is a known SystemError.
func (s SystemError) IsValid() bool {
	for _, candidate := range validSystemErrors {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSystemError converts raw input into a SystemError.
func ParseSystemError(value string) (SystemError, error) {
	for _, candidate := range validSystemErrors {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid system error %q", value)
}

// AutoRetry reports whether the overlay counts down to an automatic retry.
func (s SystemError) AutoRetry() bool {
	return s == SystemErrorNetwork
}
