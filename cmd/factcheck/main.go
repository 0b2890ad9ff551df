package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Gbollysearch7/Hallucination-Agent/internal/config"
	"github.com/Gbollysearch7/Hallucination-Agent/internal/logging"
)

var (
	envFile  string
	logLevel string
	devLogs  bool

	logger *zap.Logger
	cfg    *config.Config

	rootCmd = &cobra.Command{
		Use:   "factcheck",
		Short: "Detect hallucinations by checking the claims in a text against web sources",
		Long: `factcheck extracts the verifiable claims from a piece of text, searches
the web for evidence on each one and asks an LLM to judge every claim
against that evidence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logLevel
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			l, err := logging.New(level, devLogs)
			if err != nil {
				return err
			}
			logger = l
			cfg = config.Load(logger, envFile)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file to load")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default $LOG_LEVEL or info)")
	rootCmd.PersistentFlags().BoolVar(&devLogs, "dev", false, "human-readable console logs")

	rootCmd.AddCommand(serveCmd, checkCmd, scanCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
