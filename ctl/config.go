// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package ctl

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/molecula/unbounded/client"
	"github.com/molecula/unbounded/logger"
	"github.com/molecula/unbounded/toml"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// Config is the configuration shared by every command. Its TOML keys are
// the flag names, so a config file may set any flag.
type Config struct {
	URL      string `toml:"url"`
	Region   string `toml:"region"`
	Username string `toml:"username"`
	Password string `toml:"password"`

	Retries          int           `toml:"retries"`
	FileRetries      int           `toml:"file-retries"`
	FileConcurrency  int           `toml:"file-concurrency"`
	RequestLimit     int           `toml:"request-limit"`
	PollInterval     toml.Duration `toml:"poll-interval"`
	Timeout          toml.Duration `toml:"timeout"`
	DatabaseSessions bool          `toml:"database-sessions"`

	Verbose bool   `toml:"verbose"`
	LogPath string `toml:"log-path"`
}

// NewConfig returns the default configuration.
func NewConfig() *Config {
	return &Config{
		Retries:         2,
		FileRetries:     client.DefaultFileRetries,
		FileConcurrency: client.DefaultFileConcurrency,
		RequestLimit:    client.DefaultRequestLimit,
		Timeout:         toml.Duration(300 * time.Second),
	}
}

// SetConfigFlags registers a flag for every field of cfg, with the current
// values as defaults.
func SetConfigFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.StringVar(&cfg.URL, "url", cfg.URL, "Service URL; overrides the region.")
	flags.StringVarP(&cfg.Region, "region", "r", cfg.Region, "Service region, e.g. aws-us-east-2.")
	flags.StringVarP(&cfg.Username, "username", "u", cfg.Username, "Account name.")
	flags.StringVarP(&cfg.Password, "password", "p", cfg.Password, "Account password.")
	flags.IntVar(&cfg.Retries, "retries", cfg.Retries, "Retries of failed API requests.")
	flags.IntVar(&cfg.FileRetries, "file-retries", cfg.FileRetries, "Retries of each result file.")
	flags.IntVar(&cfg.FileConcurrency, "file-concurrency", cfg.FileConcurrency, "Result files fetched at once.")
	flags.IntVar(&cfg.RequestLimit, "request-limit", cfg.RequestLimit, "Largest request body in bytes.")
	flags.Var(&cfg.PollInterval, "poll-interval", "Minimum time between task status requests.")
	flags.Var(&cfg.Timeout, "timeout", "Timeout of a single HTTP exchange.")
	flags.BoolVar(&cfg.DatabaseSessions, "database-sessions", cfg.DatabaseSessions, "Use a token per database.")
	flags.BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Enable debug logging.")
	flags.StringVar(&cfg.LogPath, "log-path", cfg.LogPath, "Log file; stderr when empty.")
}

// Logger returns the logger cfg asks for, writing to stderr unless a log
// path is set. The returned closer must be closed once the command is done.
func (cfg *Config) Logger(stderr io.Writer) (logger.Logger, io.Closer, error) {
	var w io.Writer = stderr
	var closer io.Closer = nopCloser{}
	if cfg.LogPath != "" {
		fw, err := logger.NewFileWriter(cfg.LogPath)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening log file")
		}
		w, closer = fw, fw
	}
	if cfg.Verbose {
		return logger.NewVerboseLogger(w), closer, nil
	}
	return logger.NewStandardLogger(w), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Client creates a client from cfg.
func (cfg *Config) Client(log logger.Logger) (*client.Client, error) {
	if cfg.URL == "" && cfg.Region == "" {
		return nil, fmt.Errorf("%w: a region or URL is required", UsageError)
	}
	return client.NewClient(
		client.OptClientURL(cfg.URL),
		client.OptClientRegion(cfg.Region),
		client.OptClientCredentials(cfg.Username, cfg.Password),
		client.OptClientRetries(cfg.Retries),
		client.OptClientFileRetries(cfg.FileRetries),
		client.OptClientFileConcurrency(cfg.FileConcurrency),
		client.OptClientRequestLimit(cfg.RequestLimit),
		client.OptClientPollInterval(time.Duration(cfg.PollInterval)),
		client.OptClientSocketTimeout(time.Duration(cfg.Timeout)),
		client.OptClientDatabaseSessions(cfg.DatabaseSessions),
		client.OptClientLogger(log),
	)
}

// ConfigCommand represents a command for printing the effective config.
type ConfigCommand struct {
	*CmdIO
	Config *Config
}

// NewConfigCommand returns a new instance of ConfigCommand.
func NewConfigCommand(stdin io.Reader, stdout, stderr io.Writer) *ConfigCommand {
	return &ConfigCommand{
		CmdIO: NewCmdIO(stdin, stdout, stderr),
	}
}

// Run prints out the config, with the password masked.
func (cmd *ConfigCommand) Run(_ context.Context) error {
	cfg := *cmd.Config
	if cfg.Password != "" {
		cfg.Password = "********"
	}
	buf, err := tomlMarshal(cfg)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.Stdout, string(buf))
	return nil
}
