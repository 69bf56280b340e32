package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/prism-mfg/prism-cli/internal/model"
)

var errMissingInput = eris.New("no input: pass --input or set paths.input")

var (
	enhanceFlags  batchFlags
	enhanceOutput string
	enhanceCorpus string
)

var enhanceCmd = &cobra.Command{
	Use:   "enhance",
	Short: "Fill missing parameters and validate the result",
	Long:  "Fills missing required and recommended parameters from similar materials, physics derivations and literature defaults, then validates the enhanced records.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		po, err := enhanceFlags.resolve(cmd, model.OperationEnhance)
		if err != nil {
			return err
		}
		po.Output = enhanceOutput
		if po.Output == "" {
			po.Output = defaultOutputPath(cfg.Paths.OutputDir, po.Input)
		}
		po.Corpus = enhanceCorpus
		if po.Corpus == "" {
			po.Corpus = cfg.Paths.Corpus
		}

		env, err := initPipeline(ctx, "enhance")
		if err != nil {
			return err
		}
		defer env.Close()

		_, err = runPipeline(ctx, env, po, os.Stdout)
		return err
	},
}

func init() {
	enhanceFlags.register(enhanceCmd)
	enhanceCmd.Flags().StringVar(&enhanceOutput, "output", "", "enhanced dataset path (default: <output_dir>/<input>.enhanced.json)")
	enhanceCmd.Flags().StringVar(&enhanceCorpus, "corpus", "", "reference dataset for interpolation (default: the input)")
	rootCmd.AddCommand(enhanceCmd)
}
