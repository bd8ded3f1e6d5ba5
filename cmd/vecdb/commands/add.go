package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/vecdb/pkg/cli"
	"github.com/haivivi/vecdb/pkg/metaschema"
	"github.com/haivivi/vecdb/pkg/vecindex"
)

var (
	addMeta string
	addFile string
)

// inputDocument is one entry of an add --file input.
type inputDocument struct {
	Content  string   `json:"content" yaml:"content"`
	Metadata Metadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// addedDocuments is the add command's result.
type addedDocuments []vecindex.VectorDocument[Metadata]

func (a addedDocuments) Table() ([]string, [][]string) {
	rows := make([][]string, len(a))
	for i, d := range a {
		rows[i] = []string{
			cli.Truncate(d.Content, 60),
			strconv.Itoa(len(d.Vector)),
			formatMetadata(d.Metadata),
		}
	}
	return []string{"CONTENT", "DIM", "METADATA"}, rows
}

var addCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Embed and store documents",
	Long: `Embed and store documents. Each argument is one document; --meta
attaches the same JSON object to all of them.

Adding a document whose content is already stored replaces its vector and
metadata but keeps its position.

A file of documents can be given with --file (YAML or JSON, "-" for stdin):

  - content: Go channels are typed conduits
    metadata: {lang: en, stars: 5}
  - content: Goroutines are lightweight threads

Examples:
  vecdb add "first note" "second note"
  vecdb add "a tagged note" --meta '{"tags":["go"],"stars":4}'
  vecdb add --file docs.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		docs, err := collectDocuments(args)
		if err != nil {
			return err
		}
		if err := checkMetadata(docs); err != nil {
			return err
		}

		var added addedDocuments
		err = withSession(cmd.Context(), func(s *session) error {
			res, err := s.index.AddDocuments(cmd.Context(), docs)
			added = res
			if err != nil {
				return fmt.Errorf("added %d of %d documents: %w", len(res), len(docs), err)
			}
			return nil
		})
		if len(added) > 0 {
			if outErr := outputResult(cmd, added); outErr != nil {
				return errors.Join(err, outErr)
			}
		}
		return err
	},
}

func init() {
	addCmd.Flags().StringVar(&addMeta, "meta", "", "metadata as a JSON object, applied to every argument")
	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "YAML or JSON file of documents, - for stdin")
	rootCmd.AddCommand(addCmd)
}

func collectDocuments(args []string) ([]vecindex.Document[Metadata], error) {
	var docs []vecindex.Document[Metadata]

	if addFile != "" {
		var input []inputDocument
		if err := cli.LoadInput(addFile, &input); err != nil {
			return nil, err
		}
		for i, d := range input {
			if d.Content == "" {
				return nil, fmt.Errorf("%s: document %d has no content", addFile, i)
			}
			docs = append(docs, vecindex.NewDocument(d.Content, d.Metadata))
		}
	}

	var meta Metadata
	if addMeta != "" {
		if err := json.Unmarshal([]byte(addMeta), &meta); err != nil {
			return nil, fmt.Errorf("--meta must be a JSON object: %w", err)
		}
	}
	for _, text := range args {
		if text == "" {
			return nil, errors.New("document content must not be empty")
		}
		docs = append(docs, vecindex.NewDocument(text, meta))
	}

	if len(docs) == 0 {
		return nil, errors.New("nothing to add: pass text arguments or --file")
	}
	return docs, nil
}

// checkMetadata validates docs against the context's metadata schema before
// anything is embedded.
func checkMetadata(docs []vecindex.Document[Metadata]) error {
	cctx, err := getContext()
	if err != nil {
		return err
	}
	schema, err := cctx.Schema()
	if err != nil || schema == nil {
		return err
	}
	return metaschema.ValidateDocuments(schema, docs)
}

func formatMetadata(m Metadata) string {
	if len(m) == 0 {
		return ""
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Sprint(m)
	}
	return cli.Truncate(string(data), 60)
}
