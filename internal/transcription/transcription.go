package transcription

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrAudioMissing and ErrEmptyAudio reject the input before the model runs.
	ErrAudioMissing = errors.New("audio file not found")
	ErrEmptyAudio   = errors.New("empty audio file provided")
	// ErrEmptyTranscript means the model returned only whitespace.
	ErrEmptyTranscript = errors.New("Empty transcription result")
)

// Transcriber turns an audio file into English text, translating from the
// configured source language.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// ToolError is a failed speech-model subprocess.
type ToolError struct {
	Command  string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return fmt.Sprintf("%s transcription failed: %s", e.Command, msg)
}

func (e *ToolError) Unwrap() error { return e.Err }

// CheckAudio fails when audioPath is missing or empty.
func CheckAudio(audioPath string) error {
	info, err := os.Stat(audioPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrAudioMissing, audioPath)
		}
		return fmt.Errorf("stat audio: %w", err)
	}
	if info.Size() == 0 {
		return ErrEmptyAudio
	}
	return nil
}

// Run validates the audio file, calls t once and returns the trimmed text.
func Run(ctx context.Context, t Transcriber, audioPath string) (string, error) {
	if err := CheckAudio(audioPath); err != nil {
		return "", err
	}
	text, err := t.Transcribe(ctx, audioPath)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyTranscript
	}
	return text, nil
}

// Mock returns a fixed transcript. Enabled with USE_MOCK_TRANSCRIBE=true.
type Mock struct {
	Text string
}

const mockTranscript = "MOCK TRANSCRIPT: My PNR is AB12CD. My suitcase did not arrive at the baggage claim and it has my medicines, please help quickly."

func (m Mock) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if m.Text != "" {
		return m.Text, nil
	}
	return mockTranscript, nil
}
