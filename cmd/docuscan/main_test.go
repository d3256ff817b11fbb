package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirillkom/docuscan/internal/core/classification"
	"github.com/kirillkom/docuscan/internal/core/domain"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("DOCUSCAN_CONFIG", "")

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "docuscan dev\n", out)
}

func TestClassifyCommandReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notice.txt")
	text := "URGENT: the defendant was arrested and charged with felony assault. " +
		"The prosecutor requests an emergency hearing before the court tomorrow."
	require.NoError(t, os.WriteFile(path, []byte(text), 0o600))

	out, err := runCLI(t, "", "classify", path, "--compact")
	require.NoError(t, err)

	var result domain.ClassificationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, domain.CaseTypeCriminal, result.CaseType)
	assert.Equal(t, domain.UrgencyCritical, result.Urgency)
	assert.NotEmpty(t, result.Summary)
}

func TestClassifyCommandReadsStdinWithHints(t *testing.T) {
	out, err := runCLI(t, "Notes from the weekly call attached.", "classify", "--case-type", "tax", "--client", "Jane Roe")
	require.NoError(t, err)

	var result domain.ClassificationResult
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, domain.CaseTypeTax, result.CaseType)
	assert.Contains(t, result.ClientNames, "Jane Roe")
}

func TestClassifyCommandExplainIncludesScores(t *testing.T) {
	text := "The defendant was arrested and charged with felony assault by the prosecutor."
	out, err := runCLI(t, text, "classify", "--explain", "--compact")
	require.NoError(t, err)

	var payload struct {
		Result      domain.ClassificationResult `json:"result"`
		Explanation classification.Explanation  `json:"explanation"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, domain.CaseTypeCriminal, payload.Result.CaseType)
	require.NotEmpty(t, payload.Explanation.CaseTypes)
	assert.Equal(t, domain.CaseTypeCriminal, payload.Explanation.CaseTypes[0].CaseType)
	assert.Positive(t, payload.Explanation.CaseTypes[0].Score)
}

func TestClassifyCommandRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o600))

	_, err := runCLI(t, "", "classify", path)
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrUnsupportedFormat))
}

func TestClassifyCommandRejectsInvalidHint(t *testing.T) {
	_, err := runCLI(t, "text", "classify", "--urgency", "someday")
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))
}

func TestClassifyCommandRejectsMissingLexicon(t *testing.T) {
	_, err := runCLI(t, "text", "classify", "--lexicon", filepath.Join(t.TempDir(), "typo.yaml"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.ErrInvalidInput))
}

func TestLexiconCommandPrintsYAML(t *testing.T) {
	out, err := runCLI(t, "", "lexicon")
	require.NoError(t, err)
	assert.Contains(t, out, "case_types:")
	assert.Contains(t, out, "criminal:")
	assert.Contains(t, out, "urgency:")
}
