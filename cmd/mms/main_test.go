package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/njchilds90/mms/driver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"generate", "sin-x", "--set", "g11=2 + 0.01*x", "--verify"})
	require.NoError(t, rootCmd.Execute())

	lines := strings.Split(out.String(), "\n")
	require.Greater(t, len(lines), 3)
	assert.Equal(t, "solution = sin(pi*x)", lines[0])
	assert.Equal(t, "input = -(0.01*x + 2)*pi*pi*sin(pi*x) + 0.01*cos(pi*x)*pi", lines[1])
	assert.Equal(t, "[mesh]", lines[2])
	assert.Contains(t, out.String(), "\ng11 = 0.01*x + 2\n")
}

func TestGenerateFormats(t *testing.T) {
	sc, err := driver.GetScenario("sin-x")
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, generate(sc, "yaml", &out))
	assert.Contains(t, out.String(), "input: ")
	assert.Contains(t, out.String(), "-pi*pi*sin(pi*x)")
	assert.Contains(t, out.String(), "scenario: sin-x\n")

	assert.Error(t, generate(sc, "xml", &out))
}

func TestListings(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, listScenarios(&out))
	for _, name := range driver.ScenarioNames() {
		assert.Contains(t, out.String(), name)
	}

	out.Reset()
	require.NoError(t, listGeometries(&out))
	assert.Contains(t, out.String(), "simple-tokamak")
	assert.Contains(t, out.String(), "slab")
}

func TestProfileFlushedOnError(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Cleanup(func() { profileMode = "" })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"generate", "no-such-scenario", "--profile", "cpu"})
	require.Error(t, run())
	assert.Nil(t, prof)

	info, err := os.Stat(filepath.Join(".", "cpu.pprof"))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
