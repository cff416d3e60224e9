package main

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/avigneault/groundwork/internal/facts"
)

func newFactsCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "facts",
		Short: "Show the host facts available to catalog conditions and templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			gathered := facts.Gather().Map()

			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(gathered)
			}

			keys := make([]string, 0, len(gathered))
			for key := range gathered {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %v\n", key, gathered[key])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output facts as JSON")

	return cmd
}
