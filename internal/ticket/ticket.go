// Package ticket derives the short code shown to a customer on the
// confirmation screen. Codes are a function of the wall clock only; they are a
// courtesy display value and are not unique across kiosks or days.
package ticket

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/totem-backend/pkg/enums"
)

const (
	minutesPerDay = 1440
	modulus       = 999
	fallbackLabel = "X"
)

// categoryLetters maps menu category names to the by-category prefix.
var categoryLetters = map[string]string{
	"lanches":         "L",
	"bebidas":         "B",
	"sobremesas":      "S",
	"acompanhamentos": "A",
	"promoções":       "P",
	"mais vendidos":   "M",
}

// Sequential returns ((dayOfYear*1440 + minuteOfDay) mod 999) + 1, zero padded.
func Sequential(now time.Time) string {
	minuteOfDay := now.Hour()*60 + now.Minute()
	n := (now.YearDay()*minutesPerDay+minuteOfDay)%modulus + 1
	return fmt.Sprintf("%03d", n)
}

// Alphanumeric prefixes the seconds-of-hour number with a letter for the hour.
func Alphanumeric(now time.Time) string {
	letter := rune('A' + now.Hour()%26)
	return string(letter) + secondsNumber(now)
}

// ByCategory prefixes the seconds-of-hour number with the category letter.
func ByCategory(now time.Time, category string) string {
	return CategoryLetter(category) + secondsNumber(now)
}

// SimpleClock renders HHMM plus the last digit of the seconds.
func SimpleClock(now time.Time) string {
	return fmt.Sprintf("%02d%02d%d", now.Hour(), now.Minute(), now.Second()%10)
}

// CategoryLetter resolves the prefix letter for a category name.
func CategoryLetter(category string) string {
	if letter, ok := categoryLetters[strings.ToLower(strings.TrimSpace(category))]; ok {
		return letter
	}
	return fallbackLabel
}

func secondsNumber(now time.Time) string {
	n := (now.Minute()*60+now.Second())%modulus + 1
	return fmt.Sprintf("%03d", n)
}

// Generator binds one strategy to a clock and a timezone.
type Generator struct {
	strategy enums.TicketStrategy
	loc      *time.Location
	now      func() time.Time
}

// NewGenerator builds a generator; an empty strategy selects sequential codes.
func NewGenerator(strategy string, loc *time.Location, now func() time.Time) (*Generator, error) {
	if strings.TrimSpace(strategy) == "" {
		strategy = enums.TicketStrategySequential.String()
	}
	parsed, err := enums.ParseTicketStrategy(strings.ToLower(strings.TrimSpace(strategy)))
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{strategy: parsed, loc: loc, now: now}, nil
}

func (g *Generator) Strategy() enums.TicketStrategy {
	return g.strategy
}

// Next produces a code for the current instant. category is only consulted by
// the by-category strategy and is usually the category of the first cart line.
func (g *Generator) Next(category string) string {
	now := g.now().In(g.loc)
	switch g.strategy {
	case enums.TicketStrategyAlphanumeric:
		return Alphanumeric(now)
	case enums.TicketStrategyByCategory:
		return ByCategory(now, category)
	case enums.TicketStrategySimpleClock:
		return SimpleClock(now)
	default:
		return Sequential(now)
	}
}
