package session

import (
	"regexp"
	"sort"
	"sync"
	"time"

	pkgerrors "github.com/angelmondragon/totem-backend/pkg/errors"
)

var kioskIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// Registry owns one machine per kiosk served by this process.
type Registry struct {
	mu       sync.Mutex
	machines map[string]*Machine
	limits   Limits
	now      func() time.Time
}

func NewRegistry(limits Limits, now func() time.Time) *Registry {
	if limits.MaxKiosks <= 0 {
		limits.MaxKiosks = DefaultLimits.MaxKiosks
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{
		machines: make(map[string]*Machine),
		limits:   limits,
		now:      now,
	}
}

// ValidKioskID reports whether id may name a kiosk.
func ValidKioskID(id string) bool {
	return kioskIDPattern.MatchString(id)
}

// Machine returns the kiosk's machine, creating it on first use while the
// registry is below MaxKiosks.
func (r *Registry) Machine(kioskID string) (*Machine, error) {
	if !ValidKioskID(kioskID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid kiosk id")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.machines[kioskID]; ok {
		return m, nil
	}
	if len(r.machines) >= r.limits.MaxKiosks {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit, "kiosk limit reached").
			WithDetails(map[string]any{"max_kiosks": r.limits.MaxKiosks})
	}
	m := NewMachine(r.limits, r.now)
	r.machines[kioskID] = m
	return m, nil
}

// Kiosks lists the kiosk ids with a live machine.
func (r *Registry) Kiosks() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.machines))
	for id := range r.machines {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Sweep resets every session idle for at least idle and drops machines that
// sat empty on the welcome screen for as long. It returns the kiosks of each.
func (r *Registry) Sweep(idle time.Duration) (reset, evicted []string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	reset, evicted = []string{}, []string{}
	for id, m := range r.machines {
		switch {
		case m.ResetIfIdle(idle):
			reset = append(reset, id)
		case m.retireIfDormant(idle):
			delete(r.machines, id)
			evicted = append(evicted, id)
		}
	}
	sort.Strings(reset)
	sort.Strings(evicted)
	return reset, evicted
}
