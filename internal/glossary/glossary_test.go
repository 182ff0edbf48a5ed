package glossary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_MissingTerm(t *testing.T) {
	g := FromPairs("lessee", "బాడిగెదారు")

	issues := Validate("The lessee shall pay.", "అద్దెదారు చెల్లించాలి.", g)

	require.Len(t, issues, 1)
	assert.Equal(t, "Term 'lessee' found in English but Telugu equivalent 'బాడిగెదారు' not found in translation.", issues[0])
}

func TestValidate_TermPresent(t *testing.T) {
	g := FromPairs("lessee", "బాడిగెదారు")

	issues := Validate("The lessee shall pay.", "బాడిగెదారు చెల్లించాలి.", g)

	assert.Empty(t, issues)
	assert.Equal(t, NoIssues, Render(issues))
}

func TestValidate_CaseInsensitiveSource(t *testing.T) {
	g := FromPairs("Lessee", "బాడిగెదారు")

	issues := Validate("THE LESSEE SHALL PAY.", "చెల్లించాలి.", g)

	assert.Len(t, issues, 1)
}

func TestValidate_SubstringMatch(t *testing.T) {
	// "lessee" is contained in "lessees"; the check is a plain substring test.
	g := FromPairs("lessee", "బాడిగెదారు")

	assert.Len(t, Validate("All lessees shall pay.", "అందరూ చెల్లించాలి.", g), 1)
}

func TestValidate_TermAbsentFromSource(t *testing.T) {
	g := FromPairs("lessor", "అద్దెకిచ్చువారు")

	assert.Empty(t, Validate("The lessee shall pay.", "బాడిగెదారు చెల్లించాలి.", g))
}

func TestValidate_OrderFollowsGlossary(t *testing.T) {
	g := FromPairs(
		"tenant", "అద్దెదారు",
		"agreement", "ఒప్పందం",
		"lessor", "అద్దెకిచ్చువారు",
	)

	issues := Validate("The lessor and the tenant signed the agreement.", "సంతకం చేశారు.", g)

	require.Len(t, issues, 3)
	assert.Contains(t, issues[0], "'tenant'")
	assert.Contains(t, issues[1], "'agreement'")
	assert.Contains(t, issues[2], "'lessor'")
	assert.Equal(t, issues[0]+"\n"+issues[1]+"\n"+issues[2], Render(issues))
}

func TestValidate_EmptyGlossary(t *testing.T) {
	assert.Empty(t, Validate("The lessee shall pay.", "x", New()))
	assert.Empty(t, Validate("The lessee shall pay.", "x", nil))
}

func TestLoad_MissingFile(t *testing.T) {
	g, err := Load(filepath.Join(t.TempDir(), "glossary.json"))

	require.NoError(t, err)
	assert.Equal(t, 0, g.Len())
}

func TestLoad_PreservesOrder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.json")
	content := `{"tenant": "అద్దెదారు", "agreement": "ఒప్పందం", "lessee": "బాడిగెదారు"}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	g, err := Load(path)
	require.NoError(t, err)

	var keys []string
	g.Each(func(en, _ string) { keys = append(keys, en) })
	assert.Equal(t, []string{"tenant", "agreement", "lessee"}, keys)

	out, err := json.Marshal(g)
	require.NoError(t, err)
	assert.JSONEq(t, content, string(out))
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glossary.json")
	require.NoError(t, os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestMerge_ExistingWins(t *testing.T) {
	g := FromPairs("lessee", "బాడిగెదారు")

	g.Merge("lessee", "కౌలుదారు")
	g.Merge("lessor", "అద్దెకిచ్చువారు")

	got := map[string]string{}
	g.Each(func(en, te string) { got[en] = te })
	assert.Equal(t, "బాడిగెదారు", got["lessee"])
	assert.Equal(t, "అద్దెకిచ్చువారు", got["lessor"])
	assert.Equal(t, 2, g.Len())
}

func TestSet_IgnoresBlank(t *testing.T) {
	g := New()
	g.Set(" ", "x")
	g.Set("x", "")
	assert.Equal(t, 0, g.Len())
}
