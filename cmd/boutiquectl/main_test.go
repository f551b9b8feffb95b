package main

import (
	"bytes"
	"strings"
	"testing"

	"boutique/internal/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestHashPasswordFromStdin(t *testing.T) {
	out, err := run(t, "s3cret\n", "hash-password")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	_, err := run(t, "\n", "hash-password")
	assert.ErrorContains(t, err, "must not be empty")
}

func TestSummaryOnEmptyMemoryBackend(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("MEMORY_SEED_FILE", "")

	out, err := run(t, "", "summary", "--format", "yaml")
	require.NoError(t, err)
	assert.Equal(t, "months: []\n", out)
}

func TestSummaryUnknownFormat(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	_, err := run(t, "", "summary", "--format", "csv")
	assert.ErrorContains(t, err, `unknown format "csv"`)
}

func TestWriteYAML(t *testing.T) {
	rows := []core.MonthSummary{{
		Period:   core.Period{Year: 2024, Month: 3},
		Income:   core.Rupees(1800),
		Expenses: core.Rupees(2500),
		Balance:  core.Money{Paise: -70000},
	}}
	var buf bytes.Buffer
	require.NoError(t, writeYAML(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, "period: 2024-03")
	assert.Contains(t, out, `income: "1800.00"`)
	assert.Contains(t, out, `balance: "-700.00"`)
}

func TestWriteTable(t *testing.T) {
	rows := []core.MonthSummary{{Period: core.Period{Year: 2024, Month: 3}, Income: core.Rupees(1200)}}
	var buf bytes.Buffer
	require.NoError(t, writeTable(&buf, rows))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "₹1,200.00")
}
