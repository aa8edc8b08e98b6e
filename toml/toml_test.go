// Copyright 2022 Molecula Corp. (DBA FeatureBase).
// SPDX-License-Identifier: Apache-2.0
package toml_test

import (
	"testing"
	"time"

	"github.com/molecula/unbounded/toml"
	gotoml "github.com/pelletier/go-toml"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type config struct {
	Interval toml.Duration `toml:"interval"`
}

func TestDurationTOML(t *testing.T) {
	buf, err := gotoml.Marshal(config{Interval: toml.Duration(90 * time.Second)})
	require.NoError(t, err)
	assert.Contains(t, string(buf), `interval = "1m30s"`)

	var c config
	require.NoError(t, gotoml.Unmarshal([]byte(`interval = "250ms"`), &c))
	assert.Equal(t, toml.Duration(250*time.Millisecond), c.Interval)
}

func TestDurationFlag(t *testing.T) {
	var d toml.Duration
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Var(&d, "poll", "")
	require.NoError(t, fs.Parse([]string{"--poll", "2s"}))
	assert.Equal(t, toml.Duration(2*time.Second), d)
	assert.Equal(t, "duration", fs.Lookup("poll").Value.Type())

	require.NoError(t, d.Set(""))
	assert.Equal(t, toml.Duration(0), d)
	assert.Error(t, d.Set("soon"))
}
