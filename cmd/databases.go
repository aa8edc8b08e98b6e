// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"io"

	"github.com/molecula/unbounded/ctl"
	"github.com/spf13/cobra"
)

func newDatabasesCommand(stdin io.Reader, stdout, stderr io.Writer, cfg *ctl.Config) *cobra.Command {
	lister := ctl.NewDatabasesCommand(stdin, stdout, stderr)
	lister.Config = cfg
	return &cobra.Command{
		Use:   "databases",
		Short: "List the databases of the account.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return lister.Run(cmd.Context())
		},
	}
}
