// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/molecula/unbounded/client"
	"github.com/molecula/unbounded/ctl"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix prefixes the environment variable of every flag, e.g.
// UNBOUNDED_REGION or UNBOUNDED_POLL_INTERVAL.
const envPrefix = "UNBOUNDED"

func NewRootCommand(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cfg := ctl.NewConfig()
	rc := &cobra.Command{
		Use:   "unbounded",
		Short: "Command line client for the Unbounded document database.",
		Long: `Command line client for the Unbounded document database.

Every flag may also be given in the environment, upper cased with dashes
replaced by underscores and prefixed with ` + envPrefix + `_, or in a TOML
configuration file named with --config. Flags take precedence over the
environment, which takes precedence over the file.

Version ` + client.Version + "\n",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v := viper.New()
			err := setAllConfig(v, cmd.Flags())
			if err != nil {
				return err
			}

			// return "dry run" error if "dry-run" flag is set
			ret, err := cmd.Flags().GetBool("dry-run")
			if err != nil {
				return fmt.Errorf("problem getting dry-run flag: %v", err)
			}
			if ret {
				if cmd.Parent() != nil {
					return fmt.Errorf("dry run")
				}
			}

			return nil
		},
	}
	rc.PersistentFlags().Bool("dry-run", false, "stop before executing")
	_ = rc.PersistentFlags().MarkHidden("dry-run")
	rc.PersistentFlags().StringP("config", "c", "", "Configuration file to read from.")
	ctl.SetConfigFlags(rc.PersistentFlags(), cfg)

	rc.AddCommand(newConfigCommand(stdin, stdout, stderr, cfg))
	rc.AddCommand(newDatabasesCommand(stdin, stdout, stderr, cfg))
	rc.AddCommand(newGenerateConfigCommand(stdin, stdout, stderr))
	rc.AddCommand(newQueryCommand(stdin, stdout, stderr, cfg))
	rc.AddCommand(newUploadCommand(stdin, stdout, stderr, cfg))
	rc.AddCommand(newWaitCommand(stdin, stdout, stderr, cfg))

	rc.SetOut(stdout)
	rc.SetErr(stderr)
	return rc
}

// setAllConfig resolves every flag in flags from, in priority order, the
// command line, the environment and the TOML file named by the config flag.
// Flags hold pointers to their destinations, so the command configuration
// is filled in place.
//
// Environment variables are the flag names upper cased with dashes replaced
// by underscores, prefixed with envPrefix and an underscore.
func setAllConfig(v *viper.Viper, flags *pflag.FlagSet) error {
	if err := v.BindPFlags(flags); err != nil {
		return err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config"); path != "" {
		if err := readConfigFile(v, flags, path); err != nil {
			return err
		}
	}

	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		// Setting a slice flag a second time would append to it.
		if err != nil || f.Changed {
			return
		}
		err = f.Value.Set(flagValue(v, f))
	})
	return err
}

// readConfigFile merges the file at path into v. Keys which do not name a
// flag are rejected.
func readConfigFile(v *viper.Viper, flags *pflag.FlagSet, path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("error reading configuration file '%s': %v", path, err)
	}
	for _, key := range v.AllKeys() {
		if flags.Lookup(key) == nil {
			return fmt.Errorf("invalid option in configuration file: %v", key)
		}
	}
	return nil
}

// flagValue returns the text viper resolved for f. Slices read from a file
// are real slices, which GetString renders empty, and an unset slice flag
// other than a string or int slice comes back as "[]".
func flagValue(v *viper.Viper, f *pflag.Flag) string {
	if !strings.HasSuffix(f.Value.Type(), "Slice") {
		return v.GetString(f.Name)
	}
	s := strings.Join(v.GetStringSlice(f.Name), ",")
	if s == "[]" {
		return ""
	}
	return s
}
