// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"io"

	"github.com/molecula/unbounded/ctl"
	"github.com/spf13/cobra"
)

func newUploadCommand(stdin io.Reader, stdout, stderr io.Writer, cfg *ctl.Config) *cobra.Command {
	uploader := ctl.NewUploadCommand(stdin, stdout, stderr)
	uploader.Config = cfg
	uploadCmd := &cobra.Command{
		Use:   "upload [FILE...]",
		Short: "Insert newline-delimited JSON records.",
		Long: `
Inserts the records of each FILE, one JSON document per line, in requests
no larger than --request-limit. Reads stdin when no FILE is given or FILE
is "-".
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			uploader.Paths = args
			return uploader.Run(cmd.Context())
		},
	}
	flags := uploadCmd.Flags()
	flags.StringVarP(&uploader.Database, "database", "d", "", "Database to insert into.")
	flags.StringVar(&uploader.Exists, "exists", "", "Source of the function handling records which are already stored.")

	return uploadCmd
}
