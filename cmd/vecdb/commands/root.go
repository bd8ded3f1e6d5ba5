package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/haivivi/vecdb/pkg/cli"
)

var (
	// Global flags
	cfgFile      string
	contextName  string
	formatOutput string
	outputFile   string
	verbose      bool

	// Global configuration (loaded on first use)
	globalConfig *cli.Config

	logger = slog.New(slog.DiscardHandler)
)

var rootCmd = &cobra.Command{
	Use:   "vecdb",
	Short: "Local vector index CLI",
	Long: `vecdb - embed documents and search them by cosine similarity.

Each context names where the index is stored (a local JSON file, a badger
database or an S3 bucket) and which embedder turns text into vectors
(hashing, openai, dashscope or gemini). Without any context, vecdb stores
the index under ~/.vecdb/data/default with the offline hashing embedder.

Configuration is stored in ~/.vecdb/config.yaml and supports multiple
contexts, similar to kubectl's context management.

Examples:
  # Set up a context backed by badger with OpenAI embeddings
  vecdb config add-context notes --backend badger --provider openai

  # Add documents and search them
  vecdb add "Go channels are typed conduits" --meta '{"lang":"en"}'
  vecdb search "how do goroutines communicate" -k 3

  # Narrow the candidates with a jq expression
  vecdb search "channels" --filter '.metadata.lang == "en"' --format json`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cli.ParseFormat(formatOutput); err != nil {
			return err
		}
		logger = newLogger(cmd.ErrOrStderr(), verbose)
		return nil
	},
}

// Execute runs the root command. An interrupt cancels the running
// command's context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.vecdb/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&contextName, "context", "c", "", "context name to use")
	rootCmd.PersistentFlags().StringVar(&formatOutput, "format", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVarP(&outputFile, "output", "o", "", "output file (default: stdout)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// newLogger logs warnings and errors to w, and everything with verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// getConfig loads the configuration on first use.
func getConfig() (*cli.Config, error) {
	if globalConfig == nil {
		cfg, err := cli.LoadConfig(cfgFile)
		if err != nil {
			return nil, fmt.Errorf("config not available: %w", err)
		}
		globalConfig = cfg
	}
	return globalConfig, nil
}

// getContext returns the context selected by -c, the current one, or the
// default local context.
func getContext() (*cli.Context, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	ctx, err := cfg.ResolveContext(contextName)
	if err != nil {
		return nil, fmt.Errorf("%w; see 'vecdb config list-contexts'", err)
	}
	if err := ctx.Validate(); err != nil {
		return nil, fmt.Errorf("context %q: %w", ctx.Name, err)
	}
	return ctx, nil
}

// outputResult writes result in the --format format to -o or the command's
// output.
func outputResult(cmd *cobra.Command, result any) error {
	format, err := cli.ParseFormat(formatOutput)
	if err != nil {
		return err
	}
	return outputAs(cmd, format, result)
}

func outputAs(cmd *cobra.Command, format cli.OutputFormat, result any) error {
	opts := cli.OutputOptions{Format: format, File: outputFile}
	if outputFile == "" {
		opts.Writer = cmd.OutOrStdout()
	}
	return cli.Output(result, opts)
}
