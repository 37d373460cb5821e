package pose

import "math"

// Placeholder scores for signals the keypoint model cannot observe.
const (
	facialExpressionPlaceholder = 70
	eyeContactPlaceholder       = 70
)

// Metrics are body-language scores in [0, 100].
type Metrics struct {
	Overall          int `json:"overall"`
	Posture          int `json:"posture"`
	Stability        int `json:"stability"`
	Gestures         int `json:"gestures"`
	FacialExpression int `json:"facialExpression"`
	EyeContact       int `json:"eyeContact"`
	Movement         int `json:"movement"`
	// Samples is the number of frames that contributed.
	Samples int `json:"samples"`
}

// Smooth blends raw into prev with weight 0.7 on prev. A zero prev (no
// samples yet) returns raw unchanged.
func Smooth(prev, raw Metrics) Metrics {
	if prev.Samples == 0 {
		return raw
	}
	ema := func(p, r int) int {
		return clamp(0.7*float64(p) + 0.3*float64(r))
	}
	return Metrics{
		Overall:          ema(prev.Overall, raw.Overall),
		Posture:          ema(prev.Posture, raw.Posture),
		Stability:        ema(prev.Stability, raw.Stability),
		Gestures:         ema(prev.Gestures, raw.Gestures),
		FacialExpression: ema(prev.FacialExpression, raw.FacialExpression),
		EyeContact:       ema(prev.EyeContact, raw.EyeContact),
		Movement:         ema(prev.Movement, raw.Movement),
		Samples:          raw.Samples,
	}
}

// Sanitize clamps every score to [0, 100]. Used for client-computed metrics.
func (m Metrics) Sanitize() Metrics {
	c := func(v int) int { return clamp(float64(v)) }
	return Metrics{
		Overall:          c(m.Overall),
		Posture:          c(m.Posture),
		Stability:        c(m.Stability),
		Gestures:         c(m.Gestures),
		FacialExpression: c(m.FacialExpression),
		EyeContact:       c(m.EyeContact),
		Movement:         c(m.Movement),
		Samples:          max(m.Samples, 0),
	}
}

// Insights returns short coaching notes for m.
func Insights(m Metrics) []string {
	var out []string
	switch {
	case m.Posture >= 80:
		out = append(out, "Your posture was upright and balanced.")
	case m.Posture < 60:
		out = append(out, "Straighten your posture: keep shoulders level and stand tall.")
	}
	if m.Stability < 60 {
		out = append(out, "You swayed or shifted often; plant your feet to look more grounded.")
	}
	switch {
	case m.Gestures >= 80:
		out = append(out, "Your hand gestures supported your message well.")
	case m.Gestures < 60:
		out = append(out, "Use deliberate hand gestures to emphasize key points.")
	}
	if len(out) == 0 {
		out = append(out, "Your body language was steady throughout.")
	}
	return out
}

func clamp(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	r := math.Round(v)
	switch {
	case r < 0:
		return 0
	case r > 100:
		return 100
	}
	return int(r)
}
