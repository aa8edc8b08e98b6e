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

// WaitCommand waits for a task printed by an asynchronous command and
// prints the records of a query task.
type WaitCommand struct {
	Config *Config

	// Task is the JSON task; read from stdin when empty or "-".
	Task string

	*CmdIO
}

// NewWaitCommand returns a new instance of WaitCommand.
func NewWaitCommand(stdin io.Reader, stdout, stderr io.Writer) *WaitCommand {
	return &WaitCommand{
		Config: NewConfig(),
		CmdIO:  NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the wait.
func (cmd *WaitCommand) Run(ctx context.Context) error {
	var task client.Task
	var err error
	if cmd.Task == "" || cmd.Task == "-" {
		err = json.NewDecoder(cmd.Stdin).Decode(&task)
	} else {
		err = json.Unmarshal([]byte(cmd.Task), &task)
	}
	if err != nil {
		return fmt.Errorf("%w: parsing task: %v", UsageError, err)
	}
	if task.ID == "" || task.Database == "" {
		return fmt.Errorf("%w: task needs an id and a database", UsageError)
	}

	c, done, err := connect(cmd.CmdIO, cmd.Config)
	if err != nil {
		return err
	}
	defer done()

	fr, err := c.Wait(ctx, &task)
	if err != nil {
		return errors.Wrapf(err, "waiting for task %s", task.ID)
	}
	if task.Command != client.CommandQuery {
		cmd.Logger().Infof("task %s (%s) complete", task.ID, task.Command)
		return nil
	}
	records, err := fr.Fetch(ctx)
	if err != nil {
		return errors.Wrapf(err, "fetching results of task %s", task.ID)
	}
	return writeRecords(cmd.Stdout, records)
}
