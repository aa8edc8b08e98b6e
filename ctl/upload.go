// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/molecula/unbounded/client"
	"github.com/pkg/errors"
)

// UploadCommand inserts newline-delimited JSON records, batching them to
// the request limit.
type UploadCommand struct {
	Config *Config

	Database string

	// Exists is the source of the function deciding what happens to
	// records which are already stored.
	Exists string

	// Files to read; stdin when empty or "-".
	Paths []string

	*CmdIO
}

// NewUploadCommand returns a new instance of UploadCommand.
func NewUploadCommand(stdin io.Reader, stdout, stderr io.Writer) *UploadCommand {
	return &UploadCommand{
		Config: NewConfig(),
		CmdIO:  NewCmdIO(stdin, stdout, stderr),
	}
}

// Run executes the upload.
func (cmd *UploadCommand) Run(ctx context.Context) error {
	if err := requireDatabase(cmd.Database); err != nil {
		return err
	}

	c, done, err := connect(cmd.CmdIO, cmd.Config)
	if err != nil {
		return err
	}
	defer done()

	var exists client.Function
	if cmd.Exists != "" {
		exists = client.Func(cmd.Exists)
	}
	up, err := c.Database(cmd.Database).StartUpload(exists, nil)
	if err != nil {
		return errors.Wrap(err, "starting upload")
	}

	paths := cmd.Paths
	if len(paths) == 0 {
		paths = []string{"-"}
	}
	var n int
	for _, path := range paths {
		added, err := cmd.uploadFile(ctx, up, path)
		n += added
		if err != nil {
			return errors.Wrapf(err, "uploading %s", path)
		}
	}
	if err := up.Finish(ctx); err != nil {
		return errors.Wrap(err, "finishing upload")
	}
	cmd.Logger().Infof("uploaded %d records to %s", n, cmd.Database)
	return nil
}

func (cmd *UploadCommand) uploadFile(ctx context.Context, up *client.Uploader, path string) (int, error) {
	var r io.Reader = cmd.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		r = f
	}

	scanner := bufio.NewScanner(r)
	maxLine := cmd.Config.RequestLimit + 1
	if maxLine < 64*1024 {
		maxLine = 64 * 1024
	}
	scanner.Buffer(make([]byte, 0, 64*1024), maxLine)
	var n, line int
	for scanner.Scan() {
		line++
		data := bytes.TrimSpace(scanner.Bytes())
		if len(data) == 0 {
			continue
		}
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var record interface{}
		if err := dec.Decode(&record); err != nil {
			return n, errors.Wrapf(err, "line %d", line)
		}
		if err := up.Add(ctx, record); err != nil {
			return n, errors.Wrapf(err, "line %d", line)
		}
		n++
	}
	return n, scanner.Err()
}
