package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

// useFileJournal points the CLI at a fresh file journal.
func useFileJournal(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("TJ_JOURNAL_TYPE", "file")
	t.Setenv("TJ_JOURNAL_DIR", dir)
	t.Setenv("TJ_LOG_LEVEL", "error")
	return dir
}

var idPattern = regexp.MustCompile(`:ID: (\S+)`)

func tradeID(t *testing.T, out string) string {
	t.Helper()

	m := idPattern.FindStringSubmatch(out)
	require.Len(t, m, 2, "no id in %q", out)
	return m[1]
}

func TestCalc(t *testing.T) {
	useFileJournal(t)

	out, err := run(t, "calc", "--entry", "1.1050", "--stop", "1.1000", "--tp", "1.1150", "--risk", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Instrument:      EUR_USD")
	assert.Contains(t, out, "Stop distance:   50 pips")
	assert.Contains(t, out, "Lot size:        0.20")
	assert.Contains(t, out, "Expected profit: 200.00")
	assert.Contains(t, out, "Reward/risk:     2.00")
}

func TestCalcJPYWithoutTarget(t *testing.T) {
	useFileJournal(t)

	out, err := run(t, "calc", "-i", "usdjpy", "--entry", "150.25", "--stop", "149.75", "--risk", "50")
	require.NoError(t, err)
	assert.Contains(t, out, "Instrument:      USD_JPY")
	assert.Contains(t, out, "Lot size:        0.10")
	assert.Contains(t, out, "Expected profit: -")
}

func TestCalcConfiguredPipValue(t *testing.T) {
	useFileJournal(t)
	t.Setenv("TJ_SIZING_PIP_VALUE_PER_LOT", "5")

	out, err := run(t, "calc", "--entry", "1.1050", "--stop", "1.1000", "--risk", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "Lot size:        0.40")
}

func TestCalcWarnings(t *testing.T) {
	useFileJournal(t)
	t.Setenv("TJ_SIZING_MIN_RR", "3")

	out, err := run(t, "calc", "--entry", "1.1050", "--stop", "1.1000", "--tp", "1.1150", "--risk", "100")
	require.NoError(t, err)
	assert.Contains(t, out, "! RR_TOO_LOW: RR 2.00 below minimum 3.00")
}

func TestCalcErrors(t *testing.T) {
	useFileJournal(t)

	_, err := run(t, "calc", "--stop", "1.1000", "--risk", "100")
	assert.ErrorContains(t, err, "entry_price is required")

	_, err = run(t, "calc", "--entry", "abc", "--stop", "1.1000", "--risk", "100")
	assert.ErrorContains(t, err, "entry_price is not a number")

	_, err = run(t, "calc", "--entry", "1.1", "--stop", "1.0", "--risk", "-5")
	assert.ErrorContains(t, err, "invalid input")
}

func TestJournalLifecycle(t *testing.T) {
	useFileJournal(t)

	out, err := run(t, "--scope", "alice", "journal", "add",
		"--pair", "EUR/USD", "--entry", "1.1050", "--stop", "1.1000", "--tp", "1.1150", "--risk", "100",
		"--observation", "london open breakout", "--pre-attachment", "charts/pre.png")
	require.NoError(t, err)
	assert.Contains(t, out, "** TODO Trade: EUR_USD")
	assert.Contains(t, out, ":LOT_SIZE: 0.20")
	id := tradeID(t, out)

	out, err = run(t, "--scope", "alice", "journal", "list", "--filter", "incomplete")
	require.NoError(t, err)
	assert.Contains(t, out, id)

	// scopes do not see each other
	out, err = run(t, "--scope", "bob", "journal", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no trades")

	out, err = run(t, "--scope", "alice", "journal", "close", id, "--result", "win", "--post-attachment", "charts/post.png")
	require.NoError(t, err)
	assert.Contains(t, out, "** DONE Trade: EUR_USD")
	assert.Contains(t, out, ":RESULT: win")
	assert.Contains(t, out, "london open breakout", "observation untouched")
	assert.Contains(t, out, "[[file:charts/post.png]]")

	out, err = run(t, "--scope", "alice", "journal", "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "Wins:          1")
	assert.Contains(t, out, "Win rate:      100.0%")

	exportPath := filepath.Join(t.TempDir(), "trades.csv")
	out, err = run(t, "--scope", "alice", "journal", "export", "--format", "csv", "-o", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported 1 trades")
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
	assert.Contains(t, string(data), id)

	out, err = run(t, "--scope", "alice", "journal", "delete", id)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted")

	_, err = run(t, "--scope", "alice", "journal", "get", id)
	assert.ErrorContains(t, err, "trade not found")
}

func TestJournalSQLiteBackend(t *testing.T) {
	useFileJournal(t)
	dbPath := filepath.Join(t.TempDir(), "journal.db")
	t.Setenv("TJ_JOURNAL_TYPE", "sqlite")
	t.Setenv("TJ_JOURNAL_DB_PATH", dbPath)

	out, err := run(t, "journal", "add", "-i", "GBP_USD", "--entry", "1.2700", "--stop", "1.2650", "--risk", "50", "--result", "loss")
	require.NoError(t, err)
	id := tradeID(t, out)

	out, err = run(t, "journal", "get", id)
	require.NoError(t, err)
	assert.Contains(t, out, ":RESULT: loss")

	out, err = run(t, "journal", "export", "--format", "org", "--filter", "complete")
	require.NoError(t, err)
	assert.Contains(t, out, "** DONE Trade: GBP_USD")

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestJournalBadFlags(t *testing.T) {
	useFileJournal(t)

	_, err := run(t, "journal", "list", "--filter", "open")
	assert.ErrorContains(t, err, "unknown filter")

	_, err = run(t, "journal", "export", "--format", "xlsx")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, "journal", "close", "missing", "--result", "jackpot")
	assert.ErrorContains(t, err, "unknown result")

	_, err = run(t, "journal", "close", "missing", "--result", "win")
	assert.ErrorContains(t, err, "trade not found")
}

func TestJournalExportWriteFailure(t *testing.T) {
	useFileJournal(t)
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("no /dev/full")
	}

	_, err := run(t, "journal", "add", "--entry", "1.1050", "--stop", "1.1000", "--risk", "100")
	require.NoError(t, err)

	out, err := run(t, "journal", "export", "--format", "csv", "-o", "/dev/full")
	assert.Error(t, err)
	assert.NotContains(t, out, "Exported")

	_, err = run(t, "journal", "export", "-o", filepath.Join(t.TempDir(), "missing", "trades.csv"))
	assert.ErrorContains(t, err, "create output")
}

func TestWriteExportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trades.org")
	require.NoError(t, writeExportFile(path, "org", nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\n", string(data))
}

func TestConfigInitAndValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tj.yaml")

	out, err := run(t, "config", "init", "-o", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	out, err = run(t, "config", "validate", "-f", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration valid")
	assert.Contains(t, out, "Journal: file (./journal)")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("journal:\n  type: mongo\n"), 0644))
	_, err = run(t, "config", "validate", "-f", bad)
	assert.ErrorContains(t, err, "validation failed")
}

func TestConfigFileFlag(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tj.yaml")
	cfg := "journal:\n  type: file\n  dir: " + filepath.Join(dir, "j") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0644))

	_, err := run(t, "-c", path, "journal", "add", "--entry", "1.1", "--stop", "1.09", "--risk", "10")
	require.NoError(t, err)

	entries, err := os.ReadDir(filepath.Join(dir, "j"))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tradejournal version "+version)
}
