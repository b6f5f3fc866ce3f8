package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseDirFlagNamesItsDefault(t *testing.T) {
	f := rootCmd.PersistentFlags().Lookup("base-dir")
	require.NotNil(t, f)
	assert.Contains(t, f.Usage, "first file's directory")
	assert.Contains(t, f.Usage, "not the working directory")
}

func TestFlagsBoundToConfig(t *testing.T) {
	require.NoError(t, rootCmd.PersistentFlags().Set("strict", "true"))
	t.Cleanup(func() { rootCmd.PersistentFlags().Set("strict", "false") })
	assert.True(t, v.GetBool("strict"))
}
