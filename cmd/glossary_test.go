package cmd

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/valpere/lexitran/internal/glossary"
)

func TestImportGlossary_KeepsFileOrder(t *testing.T) {
	g := glossary.FromPairs("lessee", "బాడిగెదారు", "lessor", "కౌలుదారు")

	var got []string
	n, err := importGlossary(context.Background(), g, func(_ context.Context, en, te string) error {
		got = append(got, en+"="+te)
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"lessee=బాడిగెదారు", "lessor=కౌలుదారు"}, got)
}

func TestImportGlossary_StopsOnError(t *testing.T) {
	g := glossary.FromPairs("lessee", "బాడిగెదారు", "lessor", "కౌలుదారు")

	calls := 0
	n, err := importGlossary(context.Background(), g, func(context.Context, string, string) error {
		calls++
		return errors.New("disk full")
	})

	assert.ErrorContains(t, err, "lessee")
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, calls)
}
