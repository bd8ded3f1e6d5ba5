package commands

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/haivivi/vecdb/pkg/cli"
	"github.com/haivivi/vecdb/pkg/jqfilter"
	"github.com/haivivi/vecdb/pkg/vecindex"
)

var (
	searchK      int
	searchFilter string
)

type searchResults []vecindex.SearchResult[Metadata]

func (r searchResults) Table() ([]string, [][]string) {
	rows := make([][]string, len(r))
	for i, res := range r {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			cli.FormatScore(res.Score),
			cli.Truncate(res.Content, 60),
			formatMetadata(res.Metadata),
		}
	}
	return []string{"#", "SCORE", "CONTENT", "METADATA"}, rows
}

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Rank stored documents against a query",
	Long: `Embed the query and return the k stored documents most similar to it,
best first. Scores are cosine similarities in [-1, 1].

--filter takes a jq expression evaluated against each candidate as
{"content": ..., "metadata": ...}; only candidates for which it yields a
truthy value are ranked.

Examples:
  vecdb search "goroutines" -k 2
  vecdb search "goroutines" --filter '.metadata.stars >= 4'
  vecdb search "goroutines" --filter '.metadata.tags | index("go")' --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var filter vecindex.Filter[Metadata]
		if searchFilter != "" {
			expr, err := jqfilter.Compile(searchFilter)
			if err != nil {
				return err
			}
			filter = jqfilter.Filter[Metadata](expr, func(doc vecindex.Document[Metadata], err error) {
				logger.Debug("filter failed", "content", doc.Content, "error", err)
			})
		}

		var results searchResults
		err := withSession(cmd.Context(), func(s *session) error {
			res, err := s.index.SimilaritySearch(cmd.Context(), args[0], searchK, filter)
			results = res
			return err
		})
		if err != nil {
			return err
		}
		if results == nil {
			results = searchResults{}
		}
		return outputResult(cmd, results)
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchK, "k", "k", vecindex.DefaultK, "number of results")
	searchCmd.Flags().StringVar(&searchFilter, "filter", "", "jq expression selecting candidates")
	rootCmd.AddCommand(searchCmd)
}
