package caption

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// tokenAliases maps normalized spelling variants onto canonical tokens.
// Values must themselves be canonical so NormalizeToken stays idempotent.
var tokenAliases = map[string]string{
	// property_type
	"apto":          "apartamento",
	"ap":            "apartamento",
	"apartamentos":  "apartamento",
	"casas":         "casa",
	"lancamentos":   "lancamento",
	"terrenos":      "terreno",
	"lote":          "terreno",
	"oportunidades": "oportunidade",

	// property_standard
	"media":       "medio",
	"alto padrao": "luxo",
	"luxuoso":     "luxo",
	"luxuosa":     "luxo",
	"baixa":       "baixo",
	"economico":   "baixo",
	"economica":   "baixo",
}

// NormalizeToken canonicalizes a category token: diacritics are stripped,
// surrounding whitespace is trimmed, inner whitespace runs collapse to one
// space, letters are lowered and known variants are mapped to their canonical
// spelling. NormalizeToken(NormalizeToken(s)) == NormalizeToken(s).
func NormalizeToken(s string) string {
	// Marks go before the whitespace collapse; a lone mark between spaces
	// must not leave a double space.
	s = stripDiacritics(s)
	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToLower(s)
	if canon, ok := tokenAliases[s]; ok {
		return canon
	}
	return s
}

// stripDiacritics removes combining marks after canonical decomposition, so
// "lançamento" and "lancamento" compare equal.
func stripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
