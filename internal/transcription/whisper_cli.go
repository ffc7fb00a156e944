package transcription

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"incident-report-go/internal/command"
	"incident-report-go/internal/logger"
)

// WhisperCLI runs the openai-whisper command line tool in translate mode.
type WhisperCLI struct {
	Path     string
	Model    string
	Language string
	Runner   command.Runner
	Log      *logger.Logger

	mkdirTemp func(dir, pattern string) (string, error)
}

func NewWhisperCLI(path, model, language string, log *logger.Logger) *WhisperCLI {
	if log == nil {
		log = logger.Nop()
	}
	return &WhisperCLI{
		Path:      path,
		Model:     model,
		Language:  language,
		Runner:    command.ExecRunner{},
		Log:       log.Component("transcription.whisper"),
		mkdirTemp: os.MkdirTemp,
	}
}

func (w *WhisperCLI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	mkdirTemp := w.mkdirTemp
	if mkdirTemp == nil {
		mkdirTemp = os.MkdirTemp
	}
	outDir, err := mkdirTemp("", "whisper-*")
	if err != nil {
		return "", fmt.Errorf("create whisper output dir: %w", err)
	}
	defer os.RemoveAll(outDir)

	args := BuildWhisperArgs(audioPath, w.Model, w.Language, outDir)
	w.Log.WithField("audio", audioPath).WithField("model", w.Model).Info("transcribing")

	res, err := w.Runner.Run(ctx, w.Path, args...)
	if err != nil {
		return "", &ToolError{Command: w.Path, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}

	txt := filepath.Join(outDir, strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))+".txt")
	data, err := os.ReadFile(txt)
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}
	return string(data), nil
}

// BuildWhisperArgs builds a single blocking translate run with a source-language hint.
func BuildWhisperArgs(audioPath, model, language, outDir string) []string {
	args := []string{
		audioPath,
		"--model", model,
		"--task", "translate",
	}
	if lang := strings.TrimSpace(language); lang != "" && !strings.EqualFold(lang, "auto") {
		args = append(args, "--language", lang)
	}
	return append(args,
		"--fp16", "False",
		"--output_format", "txt",
		"--output_dir", outDir,
		"--verbose", "False",
	)
}
