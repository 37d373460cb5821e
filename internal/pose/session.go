package pose

import "sync"

// PublishEvery is the number of frames between published updates (one
// second at 30 fps).
const PublishEvery = 30

// Session tracks a live pose stream and publishes smoothed metrics.
type Session struct {
	tracker *Tracker

	mu       sync.Mutex
	smoothed Metrics
	pending  int
}

// NewSession returns a Session with empty history.
func NewSession() *Session {
	return &Session{tracker: NewTracker()}
}

// Push records f. Every PublishEvery frames it returns the new smoothed
// metrics and true.
func (s *Session) Push(f Frame) (Metrics, bool) {
	s.tracker.Add(f)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending++
	if s.pending < PublishEvery {
		return s.smoothed, false
	}
	s.pending = 0
	s.smoothed = Smooth(s.smoothed, s.tracker.Metrics())
	return s.smoothed, true
}

// Final folds any frames since the last publish into the smoothed value and
// returns it. A session with no frames returns ok=false.
func (s *Session) Final() (Metrics, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tracker.Frames() == 0 {
		return Metrics{}, false
	}
	if s.pending > 0 || s.smoothed.Samples == 0 {
		s.smoothed = Smooth(s.smoothed, s.tracker.Metrics())
		s.pending = 0
	}
	return s.smoothed, true
}

// Data is the poseData field of an analysis request: either client-computed
// metrics or raw frames to evaluate server-side.
type Data struct {
	Metrics *Metrics `json:"metrics,omitempty"`
	Frames  []Frame  `json:"frames,omitempty"`
}

// Evaluate returns the body-language metrics carried by d. ok is false
// when d holds neither metrics nor frames.
func (d *Data) Evaluate() (Metrics, bool) {
	if d == nil {
		return Metrics{}, false
	}
	if len(d.Frames) > 0 {
		s := NewSession()
		for _, f := range d.Frames {
			s.Push(f)
		}
		return s.Final()
	}
	if d.Metrics != nil {
		return d.Metrics.Sanitize(), true
	}
	return Metrics{}, false
}
