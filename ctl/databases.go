// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// DatabasesCommand lists the databases of the account.
type DatabasesCommand struct {
	Config *Config

	*CmdIO
}

// NewDatabasesCommand returns a new instance of DatabasesCommand.
func NewDatabasesCommand(stdin io.Reader, stdout, stderr io.Writer) *DatabasesCommand {
	return &DatabasesCommand{
		Config: NewConfig(),
		CmdIO:  NewCmdIO(stdin, stdout, stderr),
	}
}

// Run prints the listing as indented JSON.
func (cmd *DatabasesCommand) Run(ctx context.Context) error {
	c, done, err := connect(cmd.CmdIO, cmd.Config)
	if err != nil {
		return err
	}
	defer done()

	list, err := c.ListDatabases(ctx)
	if err != nil {
		return errors.Wrap(err, "listing databases")
	}
	enc := json.NewEncoder(cmd.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(list)
}
