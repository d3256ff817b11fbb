package classification

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kirillkom/docuscan/internal/core/domain"
)

func TestDefaultLexiconCoversEveryCaseTypeButOther(t *testing.T) {
	lex := DefaultLexicon()

	got := make(map[domain.CaseType]bool)
	for _, entry := range lex.CaseTypes() {
		require.NotEmpty(t, entry.Keywords)
		got[entry.CaseType] = true
	}
	for _, ct := range domain.CaseTypes() {
		require.Equal(t, ct != domain.CaseTypeOther, got[ct], ct)
	}
	require.True(t, lex.IsClientStopword("the court"))
	require.True(t, lex.IsGenericTag("lawyer"))
	require.True(t, lex.IsStopword("the"))
}

func TestLexiconAccessorsReturnCopies(t *testing.T) {
	lex := DefaultLexicon()
	entries := lex.CaseTypes()
	entries[0].Keywords[0] = "mutated"

	require.NotEqual(t, "mutated", lex.CaseTypes()[0].Keywords[0])
}

func TestLoadLexiconYAMLOverridesCategories(t *testing.T) {
	doc := `
case_types:
  Tax: ["Levy", "levy", " garnishment "]
urgency:
  low: ["someday"]
client_stoplist: ["registrar"]
`
	lex, err := LoadLexiconYAML(strings.NewReader(doc), DefaultLexiconSpec())
	require.NoError(t, err)

	for _, entry := range lex.CaseTypes() {
		if entry.CaseType == domain.CaseTypeTax {
			require.Equal(t, []string{"levy", "garnishment"}, entry.Keywords)
		}
	}
	urgency := lex.Urgency()
	require.Equal(t, domain.UrgencyLow, urgency[len(urgency)-1].Level)
	require.Equal(t, []string{"someday"}, urgency[len(urgency)-1].Keywords)
	require.True(t, lex.IsClientStopword("registrar"))
	require.False(t, lex.IsClientStopword("court"))
	require.True(t, lex.IsStopword("the"))
}

func TestLoadLexiconYAMLRejectsUnknownCategory(t *testing.T) {
	_, err := LoadLexiconYAML(strings.NewReader("case_types:\n  maritime: [ship]\n"), DefaultLexiconSpec())
	require.Error(t, err)
	require.True(t, domain.IsKind(err, domain.ErrInvalidInput))
}

func TestLoadLexiconFile(t *testing.T) {
	lex, err := LoadLexiconFile("")
	require.NoError(t, err)
	require.Same(t, DefaultLexicon(), lex)

	_, err = LoadLexiconFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.True(t, domain.IsKind(err, domain.ErrInvalidInput))
	require.ErrorIs(t, err, os.ErrNotExist)

	out, err := MarshalLexiconYAML(DefaultLexicon())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "lexicon.yaml")
	require.NoError(t, os.WriteFile(path, out, 0o600))

	loaded, err := LoadLexiconFile(path)
	require.NoError(t, err)
	require.Equal(t, DefaultLexicon().CaseTypes(), loaded.CaseTypes())
	require.True(t, bytes.Contains(out, []byte("statute of limitations")))
}
