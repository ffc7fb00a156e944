// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"incident-report-go/internal/audio"
	"incident-report-go/internal/extractor"
	"incident-report-go/internal/logger"
	"incident-report-go/internal/readiness"
	"incident-report-go/internal/transcription"
	"incident-report-go/internal/types"
)

const (
	StageValidate   = "validate"
	StageReadiness  = "readiness"
	StageConvert    = "convert"
	StageTranscribe = "transcribe"
	StageExtract    = "extract"
)

// Converter produces the intermediate audio file for a container.
type Converter interface {
	ToMP3(ctx context.Context, inputPath string) (string, error)
}

// Extractor turns a transcript into a report.
type Extractor interface {
	Extract(ctx context.Context, transcript string) (types.IncidentReport, error)
}

// Deps is everything a run needs, built once by the caller.
type Deps struct {
	Converter      Converter
	Transcriber    transcription.Transcriber
	Extractor      Extractor
	Readiness      readiness.Options
	InputExtension string
	Log            *logger.Logger
}

type Pipeline struct {
	deps Deps
}

func New(deps Deps) *Pipeline {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.InputExtension == "" {
		deps.InputExtension = ".mkv"
	}
	return &Pipeline{deps: deps}
}

// Process runs readiness -> conversion -> transcription -> extraction for one
// file. It never panics and never returns a partial report.
func (p *Pipeline) Process(ctx context.Context, inputPath string) (res types.Result) {
	log := p.deps.Log.WithRun(inputPath).Component("pipeline")
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("pipeline panicked")
			res = types.Failure(types.KindCritical, "", fmt.Errorf("Critical failure: %v", r))
		}
		entry := log.WithField("duration_ms", time.Since(start).Milliseconds())
		if res.Err != nil {
			entry.WithField("kind", res.Err.Kind).WithField("stage", res.Err.Stage).Warn(res.Err.Error())
			return
		}
		entry.Info("incident report ready")
	}()

	transcript, failure := p.transcribe(ctx, inputPath, log)
	if failure != nil {
		return types.Result{Err: failure}
	}

	report, err := p.deps.Extractor.Extract(ctx, transcript)
	if err != nil {
		return fail(StageExtract, err)
	}
	return types.Success(report.Normalize())
}

// Transcript runs every stage up to transcription and returns the text.
func (p *Pipeline) Transcript(ctx context.Context, inputPath string) (text string, failure *types.Error) {
	log := p.deps.Log.WithRun(inputPath).Component("pipeline")
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("pipeline panicked")
			text, failure = "", &types.Error{Kind: types.KindCritical, Err: fmt.Errorf("Critical failure: %v", r)}
		}
	}()
	return p.transcribe(ctx, inputPath, log)
}

func (p *Pipeline) transcribe(ctx context.Context, inputPath string, log *logger.Logger) (string, *types.Error) {
	if !strings.EqualFold(filepath.Ext(inputPath), p.deps.InputExtension) {
		return "", fail(StageValidate, invalidFormat(p.deps.InputExtension)).Err
	}

	opts := p.deps.Readiness
	opts.Log = log
	if err := readiness.WaitForStable(ctx, inputPath, opts); err != nil {
		return "", fail(StageReadiness, err).Err
	}
	log.Info("input file stable")

	audioPath, err := p.deps.Converter.ToMP3(ctx, inputPath)
	if err != nil {
		return "", fail(StageConvert, err).Err
	}

	text, err := transcription.Run(ctx, p.deps.Transcriber, audioPath)
	if err != nil {
		return "", fail(StageTranscribe, err).Err
	}
	log.WithField("transcript_len", len(text)).Info("transcription complete")
	return text, nil
}

// ErrInvalidFormat is wrapped when the input has the wrong extension.
var ErrInvalidFormat = errors.New("Invalid file format")

func invalidFormat(ext string) error {
	return fmt.Errorf("%w. Only %s files are supported", ErrInvalidFormat, strings.ToUpper(strings.TrimPrefix(ext, ".")))
}

func fail(stage string, err error) types.Result {
	return types.Failure(classify(stage, err), stage, err)
}

// classify maps stage errors onto the public error kinds.
func classify(stage string, err error) types.ErrorKind {
	var (
		convErr  *audio.ConversionError
		parseErr *extractor.ParseError
		reqErr   *extractor.RequestError
	)
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return types.KindCanceled
	case errors.Is(err, ErrInvalidFormat):
		return types.KindInvalidFormat
	case errors.Is(err, readiness.ErrNotStable):
		return types.KindFileNotStable
	case errors.As(err, &convErr):
		return types.KindConversionFailed
	case errors.Is(err, transcription.ErrAudioMissing), errors.Is(err, transcription.ErrEmptyAudio):
		return types.KindTranscriptionInput
	case errors.Is(err, transcription.ErrEmptyTranscript):
		return types.KindEmptyTranscript
	case errors.As(err, &parseErr):
		return types.KindParseFailed
	case errors.As(err, &reqErr):
		return types.KindLLMRequestFailed
	}

	switch stage {
	case StageConvert:
		return types.KindConversionFailed
	case StageTranscribe:
		return types.KindTranscriptionFailed
	case StageExtract:
		return types.KindLLMRequestFailed
	default:
		return types.KindCritical
	}
}
