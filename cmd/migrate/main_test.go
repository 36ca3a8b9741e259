package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_List(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run([]string{"list"}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "000001", lines[0])
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		argv []string
	}{
		{"no command", nil},
		{"unknown command", []string{"rollback"}},
		{"unknown flag", []string{"-dsn", "x", "up"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := run(tt.argv, &bytes.Buffer{})
			assert.ErrorIs(t, err, errUsage)
		})
	}
}

func TestIntArg(t *testing.T) {
	n, err := intArg([]string{"-2"}, "step count")
	require.NoError(t, err)
	assert.Equal(t, -2, n)

	_, err = intArg(nil, "version")
	assert.ErrorIs(t, err, errUsage)

	_, err = intArg([]string{"two"}, "version")
	assert.ErrorIs(t, err, errUsage)
}

func TestCommands_UsageLines(t *testing.T) {
	var buf bytes.Buffer
	printUsage(&buf)
	for name, cmd := range commands {
		assert.Contains(t, buf.String(), cmd.usage, name)
	}
}
