package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/podium/internal/app"
	"github.com/MrWong99/podium/internal/coach"
	"github.com/MrWong99/podium/internal/config"
	"github.com/MrWong99/podium/internal/pose"
)

type analyzeFlags struct {
	configPath string
	transcript string
	duration   float64
	posePath   string
	offline    bool
}

func newAnalyzeCmd() *cobra.Command {
	var f analyzeFlags
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score one speech and print the analysis as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAnalyze(cmd, f)
		},
	}
	cmd.Flags().StringVar(&f.configPath, "config", "config.yaml", "configuration file providing the AI providers")
	cmd.Flags().StringVar(&f.transcript, "transcript", "", `transcript file, "-" reads stdin`)
	cmd.Flags().Float64Var(&f.duration, "duration", 0, "recording length in seconds")
	cmd.Flags().StringVar(&f.posePath, "pose", "", "optional JSON file with pose metrics or frames")
	cmd.Flags().BoolVar(&f.offline, "offline", false, "skip AI providers and use the local analyzer only")
	_ = cmd.MarkFlagRequired("transcript")
	_ = cmd.MarkFlagRequired("duration")
	return cmd
}

func runAnalyze(cmd *cobra.Command, f analyzeFlags) error {
	text, err := readTranscript(cmd.InOrStdin(), f.transcript)
	if err != nil {
		return err
	}
	req := coach.Request{Transcript: text, Duration: f.duration}
	if f.posePath != "" {
		if req.Pose, err = readPose(f.posePath); err != nil {
			return err
		}
	}

	orch, err := analyzeCoach(f)
	if err != nil {
		return err
	}

	res, err := orch.Analyze(cmd.Context(), req)
	if errors.Is(err, coach.ErrInvalidInput) {
		return err
	}
	// A failed analysis still carries a printable result.
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if encErr := enc.Encode(res); encErr != nil {
		return encErr
	}
	return err
}

// analyzeCoach builds an orchestrator with the configured providers, or a
// local-only one when offline.
func analyzeCoach(f analyzeFlags) (*coach.Orchestrator, error) {
	if f.offline {
		return coach.New(), nil
	}
	cfg, err := loadConfig(f.configPath)
	if err != nil {
		return nil, err
	}
	reg := config.NewRegistry()
	registerBuiltinProviders(reg, cfg.Providers.Timeout)
	providers, err := buildProviders(cfg, reg)
	if err != nil {
		return nil, err
	}
	return app.NewCoach(cfg, providers, nil), nil
}

func readTranscript(stdin io.Reader, path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read transcript: %w", err)
	}
	return string(data), nil
}

func readPose(path string) (*pose.Data, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pose data: %w", err)
	}
	var d pose.Data
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse pose data %q: %w", path, err)
	}
	return &d, nil
}
