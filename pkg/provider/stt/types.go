package stt

// Segment is one timestamped piece of a transcription. Start and End are
// offsets in seconds from the beginning of the clip.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Result is the outcome of a single Transcribe call.
type Result struct {
	// Text is the full transcription.
	Text string `json:"transcription"`

	// Segments holds the timed pieces in order. May be empty when the
	// backend does not report timestamps.
	Segments []Segment `json:"segments"`

	// Language is the detected or requested language code, if known.
	Language string `json:"language,omitempty"`

	// Duration is the clip length in seconds as reported by the backend, or
	// the end of the last segment.
	Duration float64 `json:"duration"`
}
