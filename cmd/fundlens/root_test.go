package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}

	expected := []string{"migrate", "ingest", "normalize", "resolve", "status"}
	for _, name := range expected {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "fundlens", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestIngestCommand_HasSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range ingestCmd.Commands() {
		names[c.Name()] = true
	}

	assert.True(t, names["fec"])
	assert.True(t, names["md"])
}

func TestIngestFECCommand_Flags(t *testing.T) {
	flag := ingestFECCmd.Flags().Lookup("committee")
	require.NotNil(t, flag, "ingest fec should have --committee flag")

	cycle := ingestFECCmd.Flags().Lookup("cycle")
	require.NotNil(t, cycle, "ingest fec should have --cycle flag")
	assert.Equal(t, "2024", cycle.DefValue)
}

func TestIngestMDCommand_Flags(t *testing.T) {
	flag := ingestMDCmd.Flags().Lookup("type")
	require.NotNil(t, flag, "ingest md should have --type flag")
	assert.Equal(t, "all", flag.DefValue)

	year := ingestMDCmd.Flags().Lookup("year")
	require.NotNil(t, year, "ingest md should have --year flag")
}

func TestNormalizeCommand_Flags(t *testing.T) {
	flag := normalizeCmd.Flags().Lookup("source")
	require.NotNil(t, flag, "normalize should have --source flag")
	assert.Equal(t, "all", flag.DefValue)
}
