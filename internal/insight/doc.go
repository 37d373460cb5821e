// Package insight adapts an [llm.Provider] into the AI-backed scorers used by
// the coaching pipeline.
//
//   - [Scorer] implements analysis.InsightProvider: coherence, engagement and
//     readability plus a handful of short insights.
//   - [Analyzer] performs a tier's scoring call: structure, confidence and
//     body-language scores with insights.
//   - [Analyzer.Synthesize] writes the summary and action items from the
//     composed scores.
//
// Every call asks for a single JSON object. Markdown code fences are
// stripped before decoding and responses that still cannot be parsed are
// reported as [ErrMalformedResponse]. Provider errors are wrapped with %w,
// so llm.ErrQuotaExceeded stays detectable with errors.Is.
//
// [llm.Provider]: github.com/MrWong99/podium/pkg/provider/llm.Provider
package insight
