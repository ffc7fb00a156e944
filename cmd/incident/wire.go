package main

import (
	"context"
	"fmt"

	"incident-report-go/internal/audio"
	"incident-report-go/internal/config"
	"incident-report-go/internal/extractor"
	"incident-report-go/internal/logger"
	"incident-report-go/internal/pipeline"
	"incident-report-go/internal/readiness"
	"incident-report-go/internal/transcription"
)

// buildPipeline constructs every collaborator once; nothing is package-level state.
func buildPipeline(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pipeline.Pipeline, error) {
	transcriber, err := newTranscriber(cfg, log)
	if err != nil {
		return nil, err
	}
	llm, err := newCompleter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return pipeline.New(pipeline.Deps{
		Converter:   audio.NewConverter(cfg.FFmpegPath, cfg.AudioBitrate, cfg.ConversionDir, log),
		Transcriber: transcriber,
		Extractor: extractor.New(llm, extractor.Options{
			MaxAttempts: cfg.ExtractMaxAttempts,
			RetryDelay:  cfg.ExtractRetryDelay,
			Log:         log,
		}),
		Readiness: readiness.Options{
			Timeout:      cfg.ReadyTimeout,
			PollInterval: cfg.ReadyPollInterval,
		},
		InputExtension: cfg.InputExtension,
		Log:            log,
	}), nil
}

func newTranscriber(cfg *config.Config, log *logger.Logger) (transcription.Transcriber, error) {
	if cfg.MockTranscribe {
		log.Info("mock transcription mode ON")
		return transcription.Mock{}, nil
	}
	switch cfg.Transcriber {
	case config.TranscriberWhisperCLI:
		return transcription.NewWhisperCLI(cfg.WhisperPath, cfg.WhisperModel, cfg.SourceLanguage, log), nil
	case config.TranscriberOpenAI:
		return transcription.NewAPITranslator(cfg.TranscribeAPIKey, cfg.TranscribeBaseURL, cfg.TranscribeModel, cfg.SourceLanguage, log), nil
	}
	return nil, fmt.Errorf("unknown transcriber %q", cfg.Transcriber)
}

func newCompleter(ctx context.Context, cfg *config.Config) (extractor.Completer, error) {
	if cfg.MockLLM {
		return extractor.Mock{}, nil
	}
	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		return extractor.NewOpenAICompleter(cfg.LLMAPIKey, cfg.LLMBaseURL, cfg.LLMModel, cfg.LLMTemperature, cfg.LLMMaxTokens), nil
	case config.ProviderGemini:
		gc, err := extractor.NewGeminiCompleter(ctx, cfg.LLMAPIKey, "", cfg.GeminiModel, cfg.LLMTemperature, cfg.LLMMaxTokens)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return gc, nil
	}
	return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
}
