package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"

	"incident-report-go/internal/logger"
	"incident-report-go/internal/types"
)

// Completer sends one prompt to a language model and returns its raw text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// RequestError wraps a failed model call. It is not retried by Extract.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return "llm request failed: " + e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// Extractor turns transcripts into incident reports.
type Extractor struct {
	llm         Completer
	maxAttempts int
	retryDelay  time.Duration
	log         *logger.Logger
}

type Options struct {
	// MaxAttempts counts the first call; values below 1 mean 1.
	MaxAttempts int
	RetryDelay  time.Duration
	Log         *logger.Logger
}

func New(llm Completer, opts Options) *Extractor {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Log == nil {
		opts.Log = logger.Nop()
	}
	return &Extractor{
		llm:         llm,
		maxAttempts: opts.MaxAttempts,
		retryDelay:  opts.RetryDelay,
		log:         opts.Log.Component("extractor"),
	}
}

// Extract renders the prompt, calls the model and parses its answer. Only parse
// failures are retried, with a fixed delay and no jitter.
func (e *Extractor) Extract(ctx context.Context, transcript string) (types.IncidentReport, error) {
	prompt := BuildPrompt(transcript)
	e.log.WithField("prompt_len", len(prompt)).Debug("extracting incident report")

	var (
		report  types.IncidentReport
		attempt int
	)
	op := func() error {
		attempt++
		raw, err := e.llm.Complete(ctx, prompt)
		if err != nil {
			return backoff.Permanent(&RequestError{Err: err})
		}
		e.log.WithField("attempt", attempt).Debug("llm raw:\n" + raw)

		r, err := ParseReport(raw)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Attempts = attempt
			}
			return err
		}
		report = r
		return nil
	}
	notify := func(err error, wait time.Duration) {
		e.log.WithError(err).WithField("wait", wait).Warn(fmt.Sprintf("retry %d/%d - parsing failed", attempt, e.maxAttempts))
	}

	b := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(e.retryDelay), uint64(e.maxAttempts-1)),
		ctx,
	)
	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return types.IncidentReport{}, err
	}

	e.log.WithField("attempts", attempt).WithField("issue_type", report.IssueType).Info("parsed incident report")
	return report, nil
}
