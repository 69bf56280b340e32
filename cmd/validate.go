package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/prism-mfg/prism-cli/internal/model"
	"github.com/prism-mfg/prism-cli/internal/report"
)

// batchFlags are shared by validate and enhance.
type batchFlags struct {
	input       string
	reportPath  string
	format      string
	concurrency int
	failOnError bool
	strict      bool
	progress    bool
}

func (f *batchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.input, "input", "", "input dataset (.json, .jsonl, .csv, .xlsx)")
	cmd.Flags().StringVar(&f.reportPath, "report", "", "report path (default: text summary on stdout)")
	cmd.Flags().StringVar(&f.format, "format", "", "report format: json, text or xlsx")
	cmd.Flags().IntVar(&f.concurrency, "concurrency", 0, "max records processed concurrently")
	cmd.Flags().BoolVar(&f.failOnError, "fail-on-error", false, "exit non-zero when any record fails")
	cmd.Flags().BoolVar(&f.strict, "strict", false, "treat physics inconsistencies as failures")
	cmd.Flags().BoolVar(&f.progress, "progress", false, "print progress to stderr")
}

// resolve merges flags over the loaded config.
func (f *batchFlags) resolve(cmd *cobra.Command, op model.Operation) (pipelineOptions, error) {
	po := pipelineOptions{
		Operation:   op,
		Input:       f.input,
		Report:      f.reportPath,
		Concurrency: cfg.Batch.Concurrency,
		FailOnError: cfg.Batch.FailOnError || f.failOnError,
		Strict:      f.strict,
		Progress:    f.progress,
	}
	if po.Input == "" {
		po.Input = cfg.Paths.Input
	}
	if po.Report == "" {
		po.Report = cfg.Paths.Report
	}
	if cmd.Flags().Changed("concurrency") {
		// Keep config validation in line with the override.
		cfg.Batch.Concurrency = f.concurrency
		po.Concurrency = f.concurrency
	}

	format := cfg.Report.Format
	if cmd.Flags().Changed("format") {
		format = f.format
	}
	rf, err := report.ParseFormat(format)
	if err != nil {
		return po, err
	}
	po.Format = rf

	if po.Input == "" {
		return po, errMissingInput
	}
	return po, nil
}

var validateFlags batchFlags

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate material records against the schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		po, err := validateFlags.resolve(cmd, model.OperationValidate)
		if err != nil {
			return err
		}

		env, err := initPipeline(ctx, "validate")
		if err != nil {
			return err
		}
		defer env.Close()

		_, err = runPipeline(ctx, env, po, os.Stdout)
		return err
	},
}

func init() {
	validateFlags.register(validateCmd)
	rootCmd.AddCommand(validateCmd)
}
