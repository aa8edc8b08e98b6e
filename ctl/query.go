// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/molecula/unbounded/client"
	"github.com/pkg/errors"
)

// QueryCommand runs a query and prints the records, one JSON document per
// line. With Async set it prints the task instead.
type QueryCommand struct {
	Config *Config

	Database string

	// Match is a JSON object; Where is the source of a predicate called
	// with each record followed by Bind.
	Match string
	Where string
	Bind  []string

	// Sort is the source of a function returning each record's sort key.
	Sort    string
	Reverse []bool
	Limit   int

	Async bool

	*CmdIO
}

// NewQueryCommand returns a new instance of QueryCommand.
func NewQueryCommand(stdin io.Reader, stdout, stderr io.Writer) *QueryCommand {
	return &QueryCommand{
		Config: NewConfig(),
		CmdIO:  NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the query.
func (cmd *QueryCommand) Run(ctx context.Context) error {
	if err := requireDatabase(cmd.Database); err != nil {
		return err
	}
	if len(cmd.Bind) > 0 && cmd.Where == "" {
		return fmt.Errorf("%w: bind arguments need a where function", UsageError)
	}

	c, done, err := connect(cmd.CmdIO, cmd.Config)
	if err != nil {
		return err
	}
	defer done()

	db := c.Database(cmd.Database)
	if cmd.Async {
		if db, err = db.Async(); err != nil {
			return err
		}
	}

	q := db.NewQuery()
	if cmd.Match != "" {
		var match interface{}
		if err := json.Unmarshal([]byte(cmd.Match), &match); err != nil {
			return fmt.Errorf("%w: parsing match: %v", UsageError, err)
		}
		q.Match(match)
	}
	if cmd.Where != "" {
		q.Where(client.Func(cmd.Where))
		if len(cmd.Bind) > 0 {
			q.Bind(parseArgs(cmd.Bind)...)
		}
	}
	if cmd.Sort != "" {
		q.Sort(client.Sort{Code: client.Func(cmd.Sort), Reverse: cmd.Reverse})
	}
	if cmd.Limit > 0 {
		q.Limit(cmd.Limit)
	}

	res, err := q.Send(ctx)
	if err != nil {
		return errors.Wrap(err, "running query")
	}
	if res.Task != nil {
		return json.NewEncoder(cmd.Stdout).Encode(res.Task)
	}
	cmd.Logger().Debugf("query returned %d records", len(res.Records))
	return writeRecords(cmd.Stdout, res.Records)
}
