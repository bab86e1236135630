package enums

import "fmt"

// Screen identifies the kiosk flow step currently shown.
type Screen string

const (
	ScreenWelcome      Screen = "welcome"
	ScreenOrderType    Screen = "order-type"
	ScreenMain         Screen = "main"
	ScreenCustomize    Screen = "customize"
	ScreenCart         Screen = "cart"
	ScreenCustomerData Screen = "customer-data"
)

var validScreens = []Screen{
	ScreenWelcome,
	ScreenOrderType,
	ScreenMain,
	ScreenCustomize,
	ScreenCart,
	ScreenCustomerData,
}

// String implements fmt.Stringer.
func (s Screen) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Screen.
func (s Screen) IsValid() bool {
	for _, candidate := range validScreens {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseScreen converts raw input into a Screen.
func ParseScreen(value string) (Screen, error) {
	for _, candidate := range validScreens {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid screen %q", value)
}
