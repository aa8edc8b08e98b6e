// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/molecula/unbounded/client"
	"github.com/pkg/errors"
)

// connect applies the logging configuration to cmdIO and creates a client.
// done closes the log file, if any.
func connect(cmdIO *CmdIO, cfg *Config) (c *client.Client, done func(), err error) {
	log, closer, err := cfg.Logger(cmdIO.Stderr)
	if err != nil {
		return nil, nil, err
	}
	cmdIO.SetLogger(log)
	done = func() { _ = closer.Close() }

	c, err = cfg.Client(log)
	if err != nil {
		done()
		return nil, nil, errors.Wrap(err, "creating client")
	}
	return c, done, nil
}

// requireDatabase returns a usage error when no database was named.
func requireDatabase(name string) error {
	if name == "" {
		return fmt.Errorf("%w: a database is required", UsageError)
	}
	return nil
}

// parseArgs reads each argument as JSON, falling back to the plain string.
func parseArgs(args []string) []interface{} {
	out := make([]interface{}, len(args))
	for i, a := range args {
		var v interface{}
		if err := json.Unmarshal([]byte(a), &v); err != nil {
			v = a
		}
		out[i] = v
	}
	return out
}

// writeRecords writes one JSON document per line.
func writeRecords(w io.Writer, records []interface{}) error {
	enc := json.NewEncoder(w)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return errors.Wrap(err, "writing record")
		}
	}
	return nil
}
