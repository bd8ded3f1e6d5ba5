package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/vecdb/pkg/cli"
	"github.com/haivivi/vecdb/pkg/vecindex"
)

type documentList []vecindex.Document[Metadata]

func (l documentList) Table() ([]string, [][]string) {
	rows := make([][]string, len(l))
	for i, d := range l {
		rows[i] = []string{strconv.Itoa(i + 1), cli.Truncate(d.Content, 60), formatMetadata(d.Metadata)}
	}
	return []string{"#", "CONTENT", "METADATA"}, rows
}

var getCmd = &cobra.Command{
	Use:   "get <content>",
	Short: "Show one stored document with its vector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var doc vecindex.VectorDocument[Metadata]
		var ok bool
		err := withSession(cmd.Context(), func(s *session) error {
			doc, ok = s.index.Get(args[0])
			return nil
		})
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("document %q not found", args[0])
		}
		return outputResult(cmd, doc)
	},
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored documents, oldest first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var docs documentList
		err := withSession(cmd.Context(), func(s *session) error {
			docs = s.index.GetAll()
			return nil
		})
		if err != nil {
			return err
		}
		if docs == nil {
			docs = documentList{}
		}
		return outputResult(cmd, docs)
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd.Context(), func(s *session) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), s.index.Count())
			return err
		})
	},
}

// indexInfo describes the opened index.
type indexInfo struct {
	Context     string `json:"context" yaml:"context"`
	Backend     string `json:"backend" yaml:"backend"`
	Location    string `json:"location" yaml:"location"`
	StoragePath string `json:"storage_path" yaml:"storage_path"`
	MaxSize     string `json:"max_size" yaml:"max_size"`
	AutoSave    bool   `json:"auto_save" yaml:"auto_save"`
	Embedder    string `json:"embedder" yaml:"embedder"`
	Dimension   int    `json:"dimension" yaml:"dimension"`
	Documents   int    `json:"documents" yaml:"documents"`
}

func (i indexInfo) Table() ([]string, [][]string) {
	return []string{"FIELD", "VALUE"}, [][]string{
		{"context", i.Context},
		{"backend", i.Backend},
		{"location", i.Location},
		{"storage path", i.StoragePath},
		{"max size", i.MaxSize},
		{"auto save", strconv.FormatBool(i.AutoSave)},
		{"embedder", i.Embedder},
		{"dimension", strconv.Itoa(i.Dimension)},
		{"documents", strconv.Itoa(i.Documents)},
	}
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where the current index lives",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var info indexInfo
		err := withSession(cmd.Context(), func(s *session) error {
			provider := s.ctx.Embedder.Provider
			if provider == "" {
				provider = "hashing"
			}
			info = indexInfo{
				Context:     s.ctx.Name,
				Backend:     s.ctx.Backend(),
				Location:    s.location,
				StoragePath: s.index.StoragePath(),
				MaxSize:     cli.FormatMB(s.limits.Clamp(s.ctx.MaxFileSizeMB)),
				AutoSave:    !s.ctx.DisableAutoSave,
				Embedder:    provider,
				Dimension:   s.embedder.Dimension(),
				Documents:   s.index.Count(),
			}
			return nil
		})
		if err != nil {
			return err
		}
		return outputResult(cmd, info)
	},
}

func init() {
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(infoCmd)
}
