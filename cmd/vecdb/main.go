// Package main provides the vecdb CLI.
//
// Usage:
//
//	vecdb [flags] <command> [args]
//
// Commands:
//
//	add      Embed and store documents
//	search   Rank stored documents against a query
//	get      Show one stored document
//	list     List stored documents in insertion order
//	count    Print the number of stored documents
//	remove   Remove documents by content
//	clear    Remove every document
//	info     Show where the current index lives
//	config   Manage contexts
//	version  Show version information
//
// Configuration:
//
//	The CLI stores configuration in ~/.vecdb/config.yaml.
//	Use 'vecdb config' commands to manage contexts.
package main

import (
	"os"

	"github.com/haivivi/vecdb/cmd/vecdb/commands"
	"github.com/haivivi/vecdb/pkg/cli"
)

func main() {
	if err := commands.Execute(); err != nil {
		cli.PrintError("%v", err)
		os.Exit(1)
	}
}
