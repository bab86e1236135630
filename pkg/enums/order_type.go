package enums

import "fmt"

// OrderType describes how the customer will receive the order.
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine-in"
	OrderTypeTakeaway OrderType = "takeaway"
)

var validOrderTypes = []OrderType{
	OrderTypeDineIn,
	OrderTypeTakeaway,
}

// String implements fmt.Stringer.
func (o OrderType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderType.
func (o OrderType) IsValid() bool {
	for _, candidate := range validOrderTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderType converts raw input into a OrderType.
func ParseOrderType(value string) (OrderType, error) {
	for _, candidate := range validOrderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order type %q", value)
}

// Label returns the customer facing name shown on the kiosk.
func (o OrderType) Label() string {
	switch o {
	case OrderTypeDineIn:
		return "Comer no Local"
	case OrderTypeTakeaway:
		return "Levar para Viagem"
	}
	return ""
}
