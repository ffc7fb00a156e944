package transcription

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"incident-report-go/internal/logger"
)

// APITranslator calls an OpenAI-compatible /audio/translations endpoint.
type APITranslator struct {
	client   openai.Client
	model    string
	language string
	log      *logger.Logger
}

func NewAPITranslator(apiKey, baseURL, model, language string, log *logger.Logger) *APITranslator {
	if log == nil {
		log = logger.Nop()
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &APITranslator{
		client:   openai.NewClient(opts...),
		model:    model,
		language: language,
		log:      log.Component("transcription.api"),
	}
}

func (a *APITranslator) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranslationNewParams{
		File:  f,
		Model: openai.AudioModel(a.model),
	}
	// Translation endpoints take no language field; the hint rides in the prompt.
	if a.language != "" {
		params.Prompt = openai.String("Spoken language: " + a.language + ".")
	}

	a.log.WithField("audio", audioPath).WithField("model", a.model).Info("transcribing")
	tr, err := a.client.Audio.Translations.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("translation request: %w", err)
	}
	return tr.Text, nil
}
