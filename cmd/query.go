// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"io"

	"github.com/molecula/unbounded/ctl"
	"github.com/spf13/cobra"
)

func newQueryCommand(stdin io.Reader, stdout, stderr io.Writer, cfg *ctl.Config) *cobra.Command {
	querier := ctl.NewQueryCommand(stdin, stdout, stderr)
	querier.Config = cfg
	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Query a database.",
		Long: `
Runs a query and prints the records, one JSON document per line.

	unbounded query -d people --match '{"city":"Austin"}'
	unbounded query -d people --where 'function(o, min) { return o.age >= min; }' --bind 21 \
		--sort 'function(o) { return [o.age, o.name]; }' --reverse true --limit 10

With --async the task is printed instead; pass it to "unbounded wait".
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return querier.Run(cmd.Context())
		},
	}
	flags := queryCmd.Flags()
	flags.StringVarP(&querier.Database, "database", "d", "", "Database to query.")
	flags.StringVar(&querier.Match, "match", "", "JSON object records must match.")
	flags.StringVar(&querier.Where, "where", "", "Source of the predicate selecting records.")
	flags.StringSliceVar(&querier.Bind, "bind", nil, "Arguments passed to the predicate, as JSON.")
	flags.StringVar(&querier.Sort, "sort", "", "Source of the function returning the sort key.")
	flags.BoolSliceVar(&querier.Reverse, "reverse", nil, "Direction of each sort key position.")
	flags.IntVar(&querier.Limit, "limit", 0, "Maximum number of records.")
	flags.BoolVar(&querier.Async, "async", false, "Print the task instead of waiting for it.")

	return queryCmd
}
