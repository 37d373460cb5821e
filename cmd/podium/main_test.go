package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/podium/internal/coach"
	"github.com/MrWong99/podium/internal/config"
)

const speech = "Good morning everyone. Today I want to share three lessons about teamwork. " +
	"First, trust is built through small promises kept. Second, clear roles prevent wasted effort. " +
	"Finally, celebrating progress keeps people motivated. In conclusion, great teams are made, not found."

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != "podium "+version {
		t.Errorf("output = %q", out)
	}
}

func TestAnalyze_Offline(t *testing.T) {
	transcript := writeFile(t, "talk.txt", speech)
	posePath := writeFile(t, "pose.json", `{"metrics":{"overall":82,"posture":90,"stability":80,"gestures":75,"facialExpression":70,"eyeContact":85,"movement":80}}`)

	out, err := execute(t, "", "analyze", "--offline", "--transcript", transcript, "--duration", "45", "--pose", posePath)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	var res coach.CompositeAnalysis
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode output: %v\n%s", err, out)
	}
	if res.Provider != coach.ProviderFallback {
		t.Errorf("provider = %q, want %q", res.Provider, coach.ProviderFallback)
	}
	if res.BodyLanguage.Metrics == nil || res.BodyLanguage.Metrics.Posture != 90 {
		t.Errorf("body metrics = %+v, want the pose file's metrics", res.BodyLanguage.Metrics)
	}
	if res.OverallScore <= 0 || res.OverallScore > 100 {
		t.Errorf("overall score = %d", res.OverallScore)
	}
}

func TestAnalyze_Stdin(t *testing.T) {
	out, err := execute(t, speech, "analyze", "--offline", "--transcript", "-", "--duration", "30")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, `"overallScore"`) {
		t.Errorf("output missing overallScore: %s", out)
	}
}

func TestAnalyze_Errors(t *testing.T) {
	transcript := writeFile(t, "talk.txt", speech)
	badPose := writeFile(t, "pose.json", "{not json")

	tests := []struct {
		name string
		args []string
	}{
		{"missing flags", []string{"analyze", "--offline"}},
		{"zero duration", []string{"analyze", "--offline", "--transcript", transcript, "--duration", "0"}},
		{"missing transcript file", []string{"analyze", "--offline", "--transcript", filepath.Join(t.TempDir(), "nope.txt"), "--duration", "10"}},
		{"bad pose file", []string{"analyze", "--offline", "--transcript", transcript, "--duration", "10", "--pose", badPose}},
		{"missing config", []string{"analyze", "--config", filepath.Join(t.TempDir(), "none.yaml"), "--transcript", transcript, "--duration", "10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := execute(t, "", tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestBuildProviders(t *testing.T) {
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, config.DefaultProviderTimeout)

	cfg := config.Default()
	cfg.Providers.Primary = config.ProviderEntry{Name: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"}
	cfg.Providers.Secondary = config.ProviderEntry{Name: "not-a-provider"}
	cfg.Providers.STT = []config.ProviderEntry{
		{Name: "whisper", BaseURL: "http://localhost:9000", Options: map[string]any{"sample_rate": 16000}},
		{Name: "deepgram", APIKey: "dg-test"},
	}

	ps, err := buildProviders(cfg, reg)
	if err != nil {
		t.Fatalf("buildProviders: %v", err)
	}
	if ps.Primary == nil {
		t.Error("primary not created")
	}
	if ps.Secondary != nil {
		t.Error("unknown secondary should be skipped")
	}
	if ps.STT == nil {
		t.Error("stt chain not created")
	}
}

func TestStartupSummary(t *testing.T) {
	var buf bytes.Buffer
	cfg := config.Default()
	cfg.Providers.Primary = config.ProviderEntry{Name: "openai", Model: "gpt-4o-mini-2024-07-18"}
	printStartupSummary(&buf, cfg)

	out := buf.String()
	for _, want := range []string{"Podium startup summary", "openai / gpt-4o", "(not configured)", "memory"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, out)
		}
	}
}
