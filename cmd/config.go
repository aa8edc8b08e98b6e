// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"context"
	"io"

	"github.com/molecula/unbounded/ctl"
	"github.com/spf13/cobra"
)

func newConfigCommand(stdin io.Reader, stdout, stderr io.Writer, cfg *ctl.Config) *cobra.Command {
	conf := ctl.NewConfigCommand(stdin, stdout, stderr)
	conf.Config = cfg
	confCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the current configuration.",
		Long: `config prints the configuration after applying flags, the
environment and the configuration file, with the password masked.
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return conf.Run(context.Background())
		},
	}

	return confCmd
}
