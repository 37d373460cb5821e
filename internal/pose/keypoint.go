// Package pose turns streams of body keypoints into body-language scores.
//
// A [Tracker] keeps the rolling windows for one recording (30 samples per
// landmark, 90 frames of pose history) and computes raw metrics on demand.
// [Smooth] is the pure exponential moving average applied to each published
// update; the caller owns the previous value. A [Session] combines both for a
// live stream and publishes once per second of frames.
package pose

// Landmark names as emitted by MoveNet / PoseNet.
const (
	Nose          = "nose"
	LeftEye       = "left_eye"
	RightEye      = "right_eye"
	LeftEar       = "left_ear"
	RightEar      = "right_ear"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// Score thresholds. Geometry (posture) only trusts confident keypoints;
// tracking statistics accept weaker ones.
const (
	GeometryThreshold = 0.5
	TrackingThreshold = 0.2
)

// primaryLandmarks drive posture and stability.
var primaryLandmarks = []string{Nose, LeftShoulder, RightShoulder, LeftHip, RightHip}

// Default canvas used when a frame does not report its size.
const (
	defaultWidth  = 640
	defaultHeight = 480
)

// Keypoint is one detected body landmark in canvas pixels.
type Keypoint struct {
	Name  string  `json:"name"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Score float64 `json:"score"`
}

// Frame is the set of keypoints detected in one video frame.
type Frame struct {
	Keypoints []Keypoint `json:"keypoints"`
	Width     float64    `json:"width,omitempty"`
	Height    float64    `json:"height,omitempty"`
	// Timestamp is milliseconds since the start of the recording. Unused by
	// the metrics, kept for clients that replay frames.
	Timestamp float64 `json:"timestamp,omitempty"`
}

func (f Frame) size() (w, h float64) {
	w, h = f.Width, f.Height
	if w <= 0 {
		w = defaultWidth
	}
	if h <= 0 {
		h = defaultHeight
	}
	return w, h
}

// find returns the named keypoint if present with a score above min.
func (f Frame) find(name string, min float64) (Keypoint, bool) {
	for _, k := range f.Keypoints {
		if k.Name == name && k.Score > min {
			return k, true
		}
	}
	return Keypoint{}, false
}
