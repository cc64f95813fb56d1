package caption

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_StrictObject(t *testing.T) {
	g, err := Parse(`{"title":"A","caption":"B","bullets":["x","y"],"cta":"C","hashtags":["#a","#b"]}`)
	require.NoError(t, err)
	assert.Equal(t, &GeneratedCaption{
		Title:    "A",
		Caption:  "B",
		Bullets:  []string{"x", "y"},
		CTA:      "C",
		Hashtags: []string{"#a", "#b"},
	}, g)
}

func TestParse_FencedObject(t *testing.T) {
	text := "Aqui está:\n```json\n{\"title\":\"A\",\"caption\":\"B\",\"bullets\":[\"x\"],\"cta\":\"C\",\"hashtags\":[\"#a\"]}\n```\nObrigado!"
	g, err := Parse(text)
	require.NoError(t, err)
	assert.Equal(t, "A", g.Title)
	assert.Equal(t, []string{"#a"}, g.Hashtags)
}

func TestParse_BareStringListFields(t *testing.T) {
	g, err := Parse(`{"title":"A","caption":"B","bullets":"x","cta":"C","hashtags":"#a"}`)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, g.Bullets)
	assert.Equal(t, []string{"#a"}, g.Hashtags)
}

func TestParse_SchemaErrors(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field string
	}{
		{"missing cta", `{"title":"A","caption":"B","bullets":["x"],"hashtags":["#a"]}`, "cta"},
		{"null title", `{"title":null,"caption":"B","bullets":["x"],"cta":"C","hashtags":["#a"]}`, "title"},
		{"numeric caption", `{"title":"A","caption":7,"bullets":["x"],"cta":"C","hashtags":["#a"]}`, "caption"},
		{"object hashtags", `{"title":"A","caption":"B","bullets":["x"],"cta":"C","hashtags":{"a":1}}`, "hashtags"},
		{"mixed bullets", `{"title":"A","caption":"B","bullets":["x",1],"cta":"C","hashtags":["#a"]}`, "bullets"},
		{"empty object", `{}`, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Parse(tt.text)
			assert.Nil(t, g)
			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.field, se.Field)
			assert.Equal(t, KindSchema, Kind(err))
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := map[string]string{
		"prose":         "Desculpe, não consigo ajudar.",
		"empty":         "",
		"broken span":   "{title: A}",
		"reversed":      "} nada {",
		"json null":     "null",
		"json array":    `["a"]`,
		"truncated obj": `{"title":"A","caption":`,
	}
	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			g, err := Parse(text)
			assert.Nil(t, g)
			var me *MalformedResponseError
			require.ErrorAs(t, err, &me)
			assert.Equal(t, text, me.Text)
			assert.Equal(t, KindMalformed, Kind(err))
		})
	}
}

func TestSalvageObject(t *testing.T) {
	span, ok := SalvageObject(`xx {"a":{"b":1}} yy`)
	require.True(t, ok)
	assert.Equal(t, `{"a":{"b":1}}`, span)

	_, ok = SalvageObject("no braces")
	assert.False(t, ok)
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, KindDisabled, Kind(ErrGenerationDisabled))
	assert.Equal(t, KindUnknown, Kind(errors.New("boom")))
}
