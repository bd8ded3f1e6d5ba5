// Package cli provides the configuration and output helpers behind the
// vecdb command.
//
// Configuration is stored in ~/.vecdb/config.yaml as a set of named
// contexts, similar to kubectl. Each context names a storage backend and
// an embedder:
//
//	current_context: notes
//	contexts:
//	  notes:
//	    storage:
//	      backend: badger
//	      path: notes.json
//	    embedder:
//	      provider: openai
//	      model: text-embedding-3-small
//
// Results are printed as tables, YAML or JSON:
//
//	cli.Output(result, cli.OutputOptions{Format: cli.FormatJSON})
package cli
