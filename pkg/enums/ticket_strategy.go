package enums

import "fmt"

// TicketStrategy selects how confirmation ticket codes are derived from the clock.
type TicketStrategy string

const (
	TicketStrategySequential   TicketStrategy = "sequential"
	TicketStrategyAlphanumeric TicketStrategy = "alphanumeric"
	TicketStrategyByCategory   TicketStrategy = "by-category"
	TicketStrategySimpleClock  TicketStrategy = "simple-clock"
)

var validTicketStrategys = []TicketStrategy{
	TicketStrategySequential,
	TicketStrategyAlphanumeric,
	TicketStrategyByCategory,
	TicketStrategySimpleClock,
}

// String implements fmt.Stringer.
func (t TicketStrategy) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TicketStrategy.
func (t TicketStrategy) IsValid() bool {
	for _, candidate := range validTicketStrategys {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTicketStrategy converts raw input into a TicketStrategy.
func ParseTicketStrategy(value string) (TicketStrategy, error) {
	for _, candidate := range validTicketStrategys {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid ticket strategy %q", value)
}
