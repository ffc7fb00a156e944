package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"incident-report-go/internal/command"
	"incident-report-go/internal/logger"
)

// ConversionError carries ffmpeg's diagnostics for a failed conversion.
type ConversionError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ConversionError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	return "ffmpeg conversion failed: " + msg
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Converter strips video from a container and writes an MP3 next to it.
type Converter struct {
	FFmpegPath string
	Bitrate    string
	// OutputDir is the subdirectory name created beside the input file.
	OutputDir string
	Runner    command.Runner
	Log       *logger.Logger
}

// NewConverter returns a converter with the production defaults.
func NewConverter(ffmpegPath, bitrate, outputDir string, log *logger.Logger) *Converter {
	if log == nil {
		log = logger.Nop()
	}
	return &Converter{
		FFmpegPath: ffmpegPath,
		Bitrate:    bitrate,
		OutputDir:  outputDir,
		Runner:     command.ExecRunner{},
		Log:        log.Component("audio"),
	}
}

// OutputPath is where ToMP3 writes the audio for inputPath.
func (c *Converter) OutputPath(inputPath string) string {
	inputPath = filepath.Clean(inputPath)
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	return filepath.Join(filepath.Dir(inputPath), c.OutputDir, base+".mp3")
}

// ToMP3 converts inputPath and returns the MP3 path. An existing MP3 is overwritten.
func (c *Converter) ToMP3(ctx context.Context, inputPath string) (string, error) {
	out := c.OutputPath(inputPath)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", fmt.Errorf("create conversion dir: %w", err)
	}

	args := BuildFFmpegArgs(filepath.Clean(inputPath), out, c.Bitrate)
	log := c.Log.WithField("output", out)
	log.Debug("running ffmpeg")

	res, err := c.Runner.Run(ctx, c.FFmpegPath, args...)
	if err != nil {
		log.WithField("exit_code", res.ExitCode).WithField("stderr", res.Stderr).Warn("ffmpeg failed")
		return "", &ConversionError{Args: args, ExitCode: res.ExitCode, Stderr: res.Stderr, Err: err}
	}
	if _, err := os.Stat(out); err != nil {
		return "", &ConversionError{Args: args, Stderr: "ffmpeg completed but output file is missing", Err: err}
	}

	log.Info("audio extracted")
	return out, nil
}

// BuildFFmpegArgs: overwrite, drop video, MP3 at a fixed bitrate, errors only.
func BuildFFmpegArgs(inputPath, outPath, bitrate string) []string {
	return []string{
		"-y",
		"-i", inputPath,
		"-vn",
		"-acodec", "libmp3lame",
		"-b:a", bitrate,
		"-loglevel", "error",
		outPath,
	}
}
