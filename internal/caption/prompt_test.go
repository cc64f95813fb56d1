package caption

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jardins() Attributes {
	return Attributes{
		PropertyType:     "apartamento",
		PropertyStandard: "luxo",
		City:             "São Paulo",
		Neighborhood:     "Jardins",
		InvestmentValue:  "R$ 2.500.000",
		BuiltAreaM2:      180,
		Highlights:       "varanda gourmet, 3 suítes",
	}
}

func TestBuildPrompt_ContainsListingData(t *testing.T) {
	p := BuildPrompt(jardins())

	assert.Contains(t, p, "Jardins")
	assert.Contains(t, p, "São Paulo")
	assert.Contains(t, p, "180")
	assert.Contains(t, p, "R$ 2.500.000")
	assert.Contains(t, p, "varanda gourmet, 3 suítes")
	assert.Contains(t, p, string(TagApartmentLuxury))
	assert.Contains(t, p, ToneDirective(TagApartmentLuxury))
	assert.Contains(t, p, "sem blocos de código markdown")
	assert.NotContains(t, p, "Descrição original")
}

func TestBuildPrompt_Deterministic(t *testing.T) {
	assert.Equal(t, BuildPrompt(jardins()), BuildPrompt(jardins()))
}

func TestBuildPrompt_DescriptionFallback(t *testing.T) {
	a := jardins()
	a.Highlights = "   "
	a.OriginalDescription = "Apartamento reformado com vista."

	p := BuildPrompt(a)
	assert.Contains(t, p, "Diferenciais: não informados")
	assert.Contains(t, p, "Descrição original: Apartamento reformado com vista.")
}

func TestBuildPrompt_HighlightsWinOverDescription(t *testing.T) {
	a := jardins()
	a.OriginalDescription = "texto antigo"

	assert.NotContains(t, BuildPrompt(a), "texto antigo")
}

func TestFormatArea(t *testing.T) {
	assert.Equal(t, "180", FormatArea(180))
	assert.Equal(t, "72.5", FormatArea(72.5))
	assert.Equal(t, "0.01", FormatArea(0.01))
}

func TestNewBuilder_CustomTemplate(t *testing.T) {
	b, err := NewBuilder("{{.Tag}}|{{.City}}|{{.Area}}")
	require.NoError(t, err)

	tag, p := b.Build(jardins())
	assert.Equal(t, TagApartmentLuxury, tag)
	assert.Equal(t, "APARTMENT_LUXURY|São Paulo|180", p)
}

func TestNewBuilder_EmptyUsesDefault(t *testing.T) {
	b, err := NewBuilder("  ")
	require.NoError(t, err)

	_, p := b.Build(jardins())
	assert.Equal(t, BuildPrompt(jardins()), p)
}

func TestNewBuilder_InvalidTemplate(t *testing.T) {
	_, err := NewBuilder("{{.City")
	assert.Error(t, err)
}

func TestBuilder_ExecFailureFallsBackToDefault(t *testing.T) {
	b, err := NewBuilder("{{.NoSuchField}}")
	require.NoError(t, err)

	_, p := b.Build(jardins())
	assert.True(t, strings.Contains(p, "Jardins"), "prompt = %q", p)
	assert.Equal(t, BuildPrompt(jardins()), p)
}
