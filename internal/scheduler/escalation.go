package scheduler

import "github.com/ykvlv/coach-bot/internal/domain"

const (
	escalationMinSends = 10
	escalationMinRate  = 0.3
	escalationWindow   = 20
)

// Tracker keeps a rolling responded/sent ratio per reminder kind and rotates
// the tone of a kind the user keeps ignoring. It is owned by one user's state
// and not safe for concurrent use on its own.
type Tracker struct {
	outcomes  map[domain.ReminderKind][]bool
	rotations map[domain.ReminderKind]int
}

func NewTracker() *Tracker {
	return &Tracker{
		outcomes:  make(map[domain.ReminderKind][]bool),
		rotations: make(map[domain.ReminderKind]int),
	}
}

// Record adds the outcome of one sent reminder.
func (t *Tracker) Record(kind domain.ReminderKind, responded bool) {
	w := append(t.outcomes[kind], responded)
	if len(w) > escalationWindow {
		w = w[len(w)-escalationWindow:]
	}
	t.outcomes[kind] = w

	if len(w) >= escalationMinSends && t.rate(kind) < escalationMinRate {
		t.rotations[kind]++
		t.outcomes[kind] = nil
	}
}

// Rate is the responded share of the rolling window, 1 when empty.
func (t *Tracker) rate(kind domain.ReminderKind) float64 {
	w := t.outcomes[kind]
	if len(w) == 0 {
		return 1
	}
	n := 0
	for _, ok := range w {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(w))
}

// Rotations returns a copy of the tone rotation counts.
func (t *Tracker) Rotations() map[domain.ReminderKind]int {
	out := make(map[domain.ReminderKind]int, len(t.rotations))
	for k, v := range t.rotations {
		out[k] = v
	}
	return out
}

// pendingFire is a sent reminder waiting for the user to act on it.
type pendingFire struct {
	day   string
	water int
}

// answered reports whether today's check-in shows the reminder was acted on.
func answered(kind domain.ReminderKind, pf pendingFire, today *domain.CheckIn) bool {
	switch kind {
	case domain.KindMorning:
		return today.HasWeight()
	case domain.KindEvening:
		return today.HasSteps()
	case domain.KindHydration:
		return today.Water() > pf.water
	}
	return false
}
