package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"incident-report-go/internal/config"
	"incident-report-go/internal/export"
	"incident-report-go/internal/logger"
	"incident-report-go/internal/types"
)

const usage = "Usage: incident <path_to_mkv_file>"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

type flags struct {
	envFile        string
	logLevel       string
	timeout        time.Duration
	xlsxPath       string
	transcriptOnly bool
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var f flags
	code := 0

	cmd := &cobra.Command{
		Use:           "incident [flags] <input.mkv>",
		Short:         "Turn a recorded complaint into a structured incident report",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			code = execute(cmd.Context(), f, args, stdout, stderr)
			return nil
		},
	}
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	cmd.SetOut(stderr)
	cmd.SetErr(stderr)
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file to load before reading the environment")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error (overrides LOG_LEVEL)")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "how long to wait for the input file to stop growing (overrides READY_TIMEOUT)")
	cmd.Flags().StringVar(&f.xlsxPath, "xlsx", "", "also write the report as a one-row .xlsx ticket")
	cmd.Flags().BoolVar(&f.transcriptOnly, "transcript-only", false, "stop after transcription and print the transcript")

	if err := cmd.ExecuteContext(ctx); err != nil {
		printJSON(stdout, types.ErrorBody{Error: err.Error()})
		return 1
	}
	return code
}

func execute(ctx context.Context, f flags, args []string, stdout, stderr io.Writer) int {
	if len(args) != 1 {
		printJSON(stdout, types.ErrorBody{Error: usage})
		return 1
	}
	input := args[0]

	cfg, err := config.Load(config.Overrides{EnvFile: f.envFile, LogLevel: f.logLevel, ReadyTimeout: f.timeout})
	if err != nil {
		printJSON(stdout, types.Criticalf("%v", err))
		return 1
	}
	log := logger.NewWith(cfg.Environment, cfg.LogLevel, stderr)
	log.WithField("service", "incident-report-go").Debug("starting")

	p, err := buildPipeline(ctx, cfg, log)
	if err != nil {
		log.WithError(err).Error("setup failed")
		printJSON(stdout, types.Criticalf("%v", err))
		return 1
	}

	if f.transcriptOnly {
		text, failure := p.Transcript(ctx, input)
		if failure != nil {
			printJSON(stdout, types.Result{Err: failure})
			return 0
		}
		printJSON(stdout, struct {
			Transcript string `json:"transcript"`
		}{text})
		return 0
	}

	res := p.Process(ctx, input)
	printJSON(stdout, res)

	if f.xlsxPath != "" && res.OK() {
		row := export.Row{Source: input, CreatedAt: time.Now(), Report: *res.Report}
		if err := export.WriteXLSX(f.xlsxPath, row); err != nil {
			log.WithError(err).Error("xlsx export failed")
			return 1
		}
		log.WithField("path", f.xlsxPath).Info("ticket exported")
	}
	return 0
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(w, "{\"error\": %q}\n", "Critical failure: "+err.Error())
	}
}
