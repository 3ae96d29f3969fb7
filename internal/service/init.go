package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"storyreel/config"
	"storyreel/internal/media"
	"storyreel/internal/storage"
	"storyreel/internal/studio"
	"storyreel/internal/taskrunner"
	"storyreel/internal/types"
	"storyreel/log"
	"storyreel/pkg/gemini"
	"storyreel/pkg/openai"
)

// DurationProber reads the length of an uploaded narration file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// Service wires the project session to the upload store, the metadata probe
// and the external narration analyzer.
type Service struct {
	Session  *studio.Session
	Store    *storage.FileStore
	Prober   DurationProber
	Analyzer types.NarrationAnalyzer

	runner          *taskrunner.Runner
	analysisTimeout time.Duration
}

func NewService() (*Service, error) {
	store, err := storage.NewFileStore()
	if err != nil {
		return nil, fmt.Errorf("failed to prepare upload store: %w", err)
	}

	analyzer, err := newAnalyzer()
	if err != nil {
		return nil, err
	}

	prober := media.NewProber(storage.FfprobePath, time.Duration(config.Conf.Media.ProbeTimeoutSecond)*time.Second)
	timeout := time.Duration(config.Conf.Analysis.RequestTimeoutSecond) * time.Second
	return NewServiceWith(store, prober, analyzer, timeout, taskrunner.DefaultConfig()), nil
}

// NewServiceWith wires explicit collaborators, bypassing config. Tests use it
// to substitute the prober and the analyzer.
func NewServiceWith(store *storage.FileStore, prober DurationProber, analyzer types.NarrationAnalyzer, analysisTimeout time.Duration, runnerCfg taskrunner.Config) *Service {
	svc := &Service{
		Session:         studio.NewSession(),
		Store:           store,
		Prober:          prober,
		Analyzer:        analyzer,
		analysisTimeout: analysisTimeout,
	}
	svc.startRunner(runnerCfg)
	return svc
}

func newAnalyzer() (types.NarrationAnalyzer, error) {
	provider := strings.ToLower(strings.TrimSpace(config.Conf.Analysis.Provider))
	timeout := time.Duration(config.Conf.Analysis.RequestTimeoutSecond) * time.Second

	switch provider {
	case "gemini":
		cfg := config.Conf.Analysis.Gemini
		log.GetLogger().Info("using gemini narration analyzer", zap.String("model", cfg.Model))
		return gemini.NewClient(cfg.BaseURL, cfg.APIKey, cfg.Model, timeout), nil
	case "openai":
		cfg := config.Conf.Analysis.OpenAI
		log.GetLogger().Info("using openai narration analyzer",
			zap.String("whisper_model", cfg.WhisperModel),
			zap.String("chat_model", cfg.ChatModel))
		return openai.NewClient(cfg.BaseURL, cfg.APIKey, cfg.WhisperModel, cfg.ChatModel), nil
	default:
		return nil, fmt.Errorf("unknown analysis provider: %q", config.Conf.Analysis.Provider)
	}
}

// startRunner attaches the in-process worker that executes analysis jobs.
// Split out so tests can build a Service by hand and still get a runner.
func (s *Service) startRunner(cfg taskrunner.Config) {
	s.runner = taskrunner.New(s.runAnalysis, cfg)
	s.runner.OnPanic(func(payload taskrunner.AnalysisPayload, _ any) {
		s.Session.FailAnalysis(payload.Generation, "Narration analysis failed unexpectedly")
	})
}

// Close stops the analysis workers. Jobs already running finish; their
// results still pass through the generation guard.
func (s *Service) Close() {
	if s.runner != nil {
		s.runner.Close()
	}
}
