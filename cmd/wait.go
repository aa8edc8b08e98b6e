// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"io"

	"github.com/molecula/unbounded/ctl"
	"github.com/spf13/cobra"
)

func newWaitCommand(stdin io.Reader, stdout, stderr io.Writer, cfg *ctl.Config) *cobra.Command {
	waiter := ctl.NewWaitCommand(stdin, stdout, stderr)
	waiter.Config = cfg
	waitCmd := &cobra.Command{
		Use:   "wait",
		Short: "Wait for a task and print its records.",
		Long: `
Waits for a task printed by "unbounded query --async" and, for queries,
prints the records, one JSON document per line.

	unbounded query -d people --async | unbounded wait
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return waiter.Run(cmd.Context())
		},
	}
	waitCmd.Flags().StringVarP(&waiter.Task, "task", "t", "-", "Task as JSON; \"-\" reads it from stdin.")

	return waitCmd
}
