// Package analysis implements Podium's deterministic speech analyzers.
//
// Everything here is a pure function of its inputs except the language
// composite, which may consult an [InsightProvider] for coherence, engagement
// and readability. Analyzers never return errors: on bad or empty input they
// produce documented neutral or zero results so that the coach pipeline can
// always compose a score.
//
// The [Local] analyzer is the last tier of the provider fallback chain. It
// reuses the lexical, marker, structure and confidence heuristics with fixed
// weights and templated feedback and never calls a remote provider.
package analysis
