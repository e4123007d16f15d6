package payment

import (
	"sync"
	"time"
)

// Alerts keeps at most one outstanding payment failure notice. A notice
// clears itself after the window; notices emitted while one is showing are
// dropped.
type Alerts struct {
	mu      sync.Mutex
	window  time.Duration
	current string
	until   time.Time
	now     func() time.Time
}

func NewAlerts(window time.Duration) *Alerts {
	if window <= 0 {
		window = 3 * time.Second
	}
	return &Alerts{window: window, now: time.Now}
}

// Emit shows msg unless another notice is still outstanding. It reports
// whether msg was shown.
func (a *Alerts) Emit(msg string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	now := a.now()
	if a.current != "" && now.Before(a.until) {
		return false
	}
	a.current = msg
	a.until = now.Add(a.window)
	return true
}

// Current returns the outstanding notice, or "" once it has expired.
func (a *Alerts) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != "" && !a.now().Before(a.until) {
		a.current = ""
	}
	return a.current
}
