package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haivivi/vecdb/pkg/cli"
	"github.com/haivivi/vecdb/pkg/embed"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage CLI configuration",
	Long: `Manage CLI configuration and contexts.

A context names a storage backend and an embedder. Commands use the current
context unless -c selects another one.

Configuration is stored in ~/.vecdb/config.yaml`,
}

var addContext struct {
	backend, path, dir      string
	maxSizeMB               float64
	noAutoSave, debug       bool
	provider, model, apiKey string
	baseURL                 string
	dimension               int
	metadataSchema          string
	s3                      cli.S3Storage
}

var configAddContextCmd = &cobra.Command{
	Use:   "add-context <name>",
	Short: "Add a new context",
	Long: `Add a new context with the specified name. The first context added
becomes the current one.

API keys left out are read from OPENAI_API_KEY, DASHSCOPE_API_KEY or
GEMINI_API_KEY when the index is opened.

Examples:
  vecdb config add-context local
  vecdb config add-context notes --backend badger --provider openai --dimension 512
  vecdb config add-context strict --metadata-schema '{"type":"object","required":["lang"]}'
  vecdb config add-context shared --backend s3 --s3-bucket vectors --s3-prefix team \
    --s3-endpoint http://localhost:9000 --s3-path-style --provider gemini`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		name := args[0]
		if _, exists := cfg.Contexts[name]; exists {
			return fmt.Errorf("context %q already exists", name)
		}

		a := addContext
		ctx := &cli.Context{
			Storage: cli.Storage{Backend: a.backend, Path: a.path, Dir: a.dir},
			Embedder: embed.Config{
				Provider:  a.provider,
				Model:     a.model,
				APIKey:    a.apiKey,
				BaseURL:   a.baseURL,
				Dimension: a.dimension,
			},
			MaxFileSizeMB:   a.maxSizeMB,
			DisableAutoSave: a.noAutoSave,
			Debug:           a.debug,
		}
		if a.metadataSchema != "" {
			if err := json.Unmarshal([]byte(a.metadataSchema), &ctx.MetadataSchema); err != nil {
				return fmt.Errorf("--metadata-schema must be a JSON object: %w", err)
			}
		}
		if a.s3 != (cli.S3Storage{}) {
			s3 := a.s3
			ctx.Storage.S3 = &s3
		}
		if err := cfg.AddContext(name, ctx); err != nil {
			return err
		}

		cli.PrintSuccess(cmd.OutOrStdout(), "Context %q added", name)
		return nil
	},
}

var configDeleteContextCmd = &cobra.Command{
	Use:   "delete-context <name>",
	Short: "Delete a context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.DeleteContext(args[0]); err != nil {
			return err
		}

		cli.PrintSuccess(cmd.OutOrStdout(), "Context %q deleted", args[0])
		return nil
	},
}

var configUseContextCmd = &cobra.Command{
	Use:   "use-context <name>",
	Short: "Set the current context",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if err := cfg.UseContext(args[0]); err != nil {
			return err
		}

		cli.PrintSuccess(cmd.OutOrStdout(), "Switched to context %q", args[0])
		return nil
	},
}

var configGetContextCmd = &cobra.Command{
	Use:   "get-context",
	Short: "Display the current context",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if cfg.CurrentContext == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No current context set")
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), cfg.CurrentContext)
		return nil
	},
}

type contextList struct {
	current  string
	contexts []*cli.Context
}

func (l contextList) Table() ([]string, [][]string) {
	rows := make([][]string, len(l.contexts))
	for i, c := range l.contexts {
		mark := ""
		if c.Name == l.current {
			mark = "*"
		}
		provider := c.Embedder.Provider
		if provider == "" {
			provider = embed.ProviderHashing
		}
		rows[i] = []string{mark, c.Name, c.Backend(), provider, cli.Truncate(c.Storage.Path, 40)}
	}
	return []string{"CURRENT", "NAME", "BACKEND", "EMBEDDER", "PATH"}, rows
}

var configListContextsCmd = &cobra.Command{
	Use:     "list-contexts",
	Aliases: []string{"get-contexts"},
	Short:   "List all contexts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		if len(cfg.Contexts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No contexts configured")
			return nil
		}

		list := contextList{current: cfg.CurrentContext}
		for _, name := range cfg.ListContexts() {
			list.contexts = append(list.contexts, cfg.Contexts[name].Masked())
		}
		if formatOutput != string(cli.FormatTable) {
			return outputResult(cmd, list.contexts)
		}
		return outputResult(cmd, list)
	},
}

var configViewCmd = &cobra.Command{
	Use:   "view [name]",
	Short: "Show a context with secrets masked",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := getConfig()
		if err != nil {
			return err
		}
		name := contextName
		if len(args) == 1 {
			name = args[0]
		}
		ctx, err := cfg.ResolveContext(name)
		if err != nil {
			return err
		}
		format, err := cli.ParseFormat(formatOutput)
		if err != nil {
			return err
		}
		if format == cli.FormatTable {
			format = cli.FormatYAML
		}
		return outputAs(cmd, format, ctx.Masked())
	},
}

func init() {
	f := configAddContextCmd.Flags()
	f.StringVar(&addContext.backend, "backend", cli.BackendFile, "storage backend: file, badger, s3")
	f.StringVar(&addContext.path, "path", "", "snapshot name inside the backend (default vectors.json)")
	f.StringVar(&addContext.dir, "dir", "", "directory for the file and badger backends")
	f.Float64Var(&addContext.maxSizeMB, "max-file-size", 0, "snapshot size bound in MB (0 for the backend default)")
	f.BoolVar(&addContext.noAutoSave, "no-auto-save", false, "save only when a command finishes")
	f.BoolVar(&addContext.debug, "debug", false, "log evictions and saves")
	f.StringVar(&addContext.provider, "provider", embed.ProviderHashing, "embedder: hashing, openai, dashscope, gemini")
	f.StringVar(&addContext.model, "model", "", "embedding model (provider default if empty)")
	f.StringVar(&addContext.apiKey, "api-key", "", "embedder API key")
	f.StringVar(&addContext.baseURL, "base-url", "", "embedder API base URL")
	f.IntVar(&addContext.dimension, "dimension", 0, "vector dimension (provider default if 0)")
	f.StringVar(&addContext.metadataSchema, "metadata-schema", "", "JSON Schema that added metadata must satisfy")
	f.StringVar(&addContext.s3.Bucket, "s3-bucket", "", "S3 bucket")
	f.StringVar(&addContext.s3.Prefix, "s3-prefix", "", "S3 key prefix")
	f.StringVar(&addContext.s3.Region, "s3-region", "", "S3 region")
	f.StringVar(&addContext.s3.Endpoint, "s3-endpoint", "", "S3-compatible endpoint URL")
	f.StringVar(&addContext.s3.AccessKeyID, "s3-access-key-id", "", "S3 access key ID")
	f.StringVar(&addContext.s3.SecretAccessKey, "s3-secret-access-key", "", "S3 secret access key")
	f.BoolVar(&addContext.s3.UsePathStyle, "s3-path-style", false, "use path-style S3 addressing")

	configCmd.AddCommand(configAddContextCmd)
	configCmd.AddCommand(configDeleteContextCmd)
	configCmd.AddCommand(configUseContextCmd)
	configCmd.AddCommand(configGetContextCmd)
	configCmd.AddCommand(configListContextsCmd)
	configCmd.AddCommand(configViewCmd)
	rootCmd.AddCommand(configCmd)
}
