package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumerag/internal/presenter"
)

// run executes the root command with a temp config pointing at testdata.
func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	askTop, askJSON, askMeta, askOut = 0, false, false, ""
	unitsJSON, verbose, jsonLogs = false, false, false

	record, err := filepath.Abs(filepath.Join("testdata", "resume.json"))
	require.NoError(t, err)
	dir := t.TempDir()
	document := filepath.Join(dir, "resume.pdf")
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(
		"record:\n  path: "+record+"\n  document: "+document+"\nembedder:\n  type: hash\n"), 0o644))
	require.NoError(t, os.WriteFile(document, []byte("%PDF-1.4"), 0o644))

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))
	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCommandsRegistered(t *testing.T) {
	names := make([]string, 0)
	for _, c := range rootCmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"ask", "units", "tui", "serve", "version"} {
		assert.Contains(t, names, want)
	}
	assert.Equal(t, "resumerag", rootCmd.Use)
	assert.NotNil(t, askCmd.Flags().Lookup("top"))
	assert.NotNil(t, rootCmd.PersistentFlags().Lookup("config"))
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "resumerag version dev\n", out)
}

func TestAsk(t *testing.T) {
	out, _, err := run(t, "", "ask", "Led", "migration", "to", "AWS", "-k", "2", "--meta")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out, "Most Relevant Answer\nSenior Engineer at Acme: Achievement: Led migration to AWS."), out)
	assert.Contains(t, out, "company: Acme")
	assert.Contains(t, out, "Related Match 1")
	assert.NotContains(t, out, "Related Match 2")
}

func TestAsk_JSON(t *testing.T) {
	out, _, err := run(t, "", "ask", "--json", "billing pipeline")
	require.NoError(t, err)

	var ans presenter.Answer
	require.NoError(t, json.Unmarshal([]byte(out), &ans))
	assert.Equal(t, "billing pipeline", ans.Query)
	require.NotNil(t, ans.Primary)
	assert.Len(t, ans.Related, 2)
}

func TestAsk_DownloadCopiesDocument(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "jane.pdf")

	out, _, err := run(t, "", "ask", "download your resume", "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "Resume saved to "+dest)
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestAsk_DownloadWithoutOut(t *testing.T) {
	out, _, err := run(t, "", "ask", "CV please")
	require.NoError(t, err)
	assert.Contains(t, out, "Resume document: ")
}

func TestAsk_RequiresQuestion(t *testing.T) {
	_, _, err := run(t, "", "ask")
	assert.Error(t, err)
}

func TestUnits(t *testing.T) {
	out, _, err := run(t, "", "units")
	require.NoError(t, err)

	assert.Contains(t, out, "5 units (embedder=hash, dimension=256)")
	assert.Contains(t, out, "[0] overview")
	assert.Contains(t, out, "[4] project")
}

func TestUnits_JSON(t *testing.T) {
	out, _, err := run(t, "", "units", "--json")
	require.NoError(t, err)

	var views []presenter.UnitView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 5)
	assert.Equal(t, "skills", views[3].Kind)
}

func TestRoot_LineMode(t *testing.T) {
	prev := stdinIsTerminal
	stdinIsTerminal = func() bool { return false }
	defer func() { stdinIsTerminal = prev }()

	out, _, err := run(t, "Led migration to AWS\n\nresume\n")
	require.NoError(t, err)

	assert.Contains(t, out, "Q: Led migration to AWS\nMost Relevant Answer\n")
	assert.Contains(t, out, "---\nQ: resume\nResume document: ")
	assert.Equal(t, 2, strings.Count(out, "Q: "))
}

func TestBadConfig(t *testing.T) {
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("embedder:\n  type: nope\n"), 0o644))
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs([]string{"--config", cfgFile, "version"})

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load config")
}
