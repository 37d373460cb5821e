package pose

import (
	"math"
	"sync"
)

const (
	landmarkWindow   = 30
	poseWindow       = 90
	movementWindow   = 30
	minPostureKeys   = 16
	minStability     = 10
	gestureShare     = 0.05
	stabilityFactor  = 20000
	neutralBodyScore = 50
)

// optimalGestureRate is one gesture event per 90 frames (~3 s at 30 fps).
const optimalGestureRate = 1.0 / poseWindow

type point struct{ x, y float64 }

// Tracker holds the rolling windows for one recording. It is safe for
// concurrent use.
type Tracker struct {
	mu        sync.Mutex
	landmarks map[string][]point // normalized to [0,1], ≤ landmarkWindow each
	frames    []Frame            // ≤ poseWindow
	gestures  []bool             // parallel to frames
	total     int
}

// NewTracker returns an empty Tracker.
func NewTracker() *Tracker {
	return &Tracker{landmarks: make(map[string][]point)}
}

// Add records one frame.
func (t *Tracker) Add(f Frame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, h := f.size()
	for _, k := range f.Keypoints {
		if k.Score <= TrackingThreshold {
			continue
		}
		hist := append(t.landmarks[k.Name], point{k.X / w, k.Y / h})
		if len(hist) > landmarkWindow {
			hist = hist[len(hist)-landmarkWindow:]
		}
		t.landmarks[k.Name] = hist
	}

	event := false
	if n := len(t.frames); n > 0 {
		event = gestureBetween(t.frames[n-1], f, w)
	}
	t.frames = append(t.frames, f)
	t.gestures = append(t.gestures, event)
	if len(t.frames) > poseWindow {
		t.frames = t.frames[len(t.frames)-poseWindow:]
		t.gestures = t.gestures[len(t.gestures)-poseWindow:]
	}
	t.total++
}

// Frames returns the total number of frames recorded.
func (t *Tracker) Frames() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// Metrics computes the raw (unsmoothed) scores from the current windows.
// An empty tracker yields the zero value.
func (t *Tracker) Metrics() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.total == 0 {
		return Metrics{}
	}

	m := Metrics{
		Posture:          postureScore(t.frames[len(t.frames)-1]),
		Stability:        t.stabilityScore(),
		Gestures:         t.gestureScore(),
		Movement:         t.movementScore(),
		FacialExpression: facialExpressionPlaceholder,
		EyeContact:       eyeContactPlaceholder,
		Samples:          t.total,
	}
	m.Overall = clamp(float64(m.Posture+m.Stability+m.Gestures+m.Movement) / 4)
	return m
}

// postureScore rates shoulder and hip levelness plus spine verticality.
func postureScore(f Frame) int {
	if len(f.Keypoints) < minPostureKeys {
		return neutralBodyScore
	}
	var kp [5]Keypoint
	for i, name := range primaryLandmarks {
		k, ok := f.find(name, GeometryThreshold)
		if !ok {
			return neutralBodyScore
		}
		kp[i] = k
	}
	nose, ls, rs, lh, rh := kp[0], kp[1], kp[2], kp[3], kp[4]

	shoulders := straightness(ls.Y-rs.Y, ls.X-rs.X)
	hips := straightness(lh.Y-rh.Y, lh.X-rh.X)
	hipMidX, hipMidY := (lh.X+rh.X)/2, (lh.Y+rh.Y)/2
	spine := straightness(nose.X-hipMidX, nose.Y-hipMidY)

	return clamp(100 * (0.3*shoulders + 0.3*hips + 0.4*spine))
}

// straightness maps the ratio off/along to [0,1]; 1 means perfectly aligned.
func straightness(off, along float64) float64 {
	along = math.Abs(along)
	if along == 0 {
		return 0
	}
	return math.Max(0, 1-math.Abs(off)/along)
}

func (t *Tracker) stabilityScore() int {
	var sum float64
	n := 0
	for _, name := range primaryLandmarks {
		hist := t.landmarks[name]
		if len(hist) <= minStability {
			continue
		}
		sum += variance(hist)
		n++
	}
	if n == 0 {
		return neutralBodyScore
	}
	return clamp(100 - (sum/float64(n))*stabilityFactor)
}

func variance(pts []point) float64 {
	var mx, my float64
	for _, p := range pts {
		mx += p.x
		my += p.y
	}
	n := float64(len(pts))
	mx /= n
	my /= n
	var v float64
	for _, p := range pts {
		v += (p.x-mx)*(p.x-mx) + (p.y-my)*(p.y-my)
	}
	return v / n
}

func (t *Tracker) gestureScore() int {
	if len(t.frames) < 2 {
		return neutralBodyScore
	}
	events := 0
	for _, g := range t.gestures {
		if g {
			events++
		}
	}
	rate := float64(events) / float64(len(t.frames))
	return gestureRateScore(rate / optimalGestureRate)
}

// gestureRateScore rewards ratios between 1x and 2x the optimal rate and
// penalizes both sides.
func gestureRateScore(ratio float64) int {
	switch {
	case ratio <= 1:
		return clamp(40 + 60*ratio)
	case ratio <= 2:
		return 100
	default:
		return clamp(math.Max(40, 100-60*(ratio-2)))
	}
}

func (t *Tracker) movementScore() int {
	start := max(0, len(t.gestures)-movementWindow)
	events := 0
	for _, g := range t.gestures[start:] {
		if g {
			events++
		}
	}
	return clamp(math.Min(100, float64(events)*100/3))
}

// gestureBetween reports whether either wrist moved more than 5% of the
// frame width between prev and cur.
func gestureBetween(prev, cur Frame, width float64) bool {
	for _, name := range []string{LeftWrist, RightWrist} {
		a, ok := prev.find(name, TrackingThreshold)
		if !ok {
			continue
		}
		b, ok := cur.find(name, TrackingThreshold)
		if !ok {
			continue
		}
		if math.Hypot(b.X-a.X, b.Y-a.Y) > gestureShare*width {
			return true
		}
	}
	return false
}
