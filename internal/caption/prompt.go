package caption

import (
	"bytes"
	_ "embed"
	"strconv"
	"strings"
	"text/template"
)

//go:embed prompt.tmpl
var defaultPromptTemplate string

var defaultTemplate = template.Must(template.New("prompt").Parse(defaultPromptTemplate))

// Attributes are the listing fields a prompt is built from.
type Attributes struct {
	PropertyType        string
	PropertyStandard    string
	City                string
	Neighborhood        string
	InvestmentValue     string
	BuiltAreaM2         float64
	Highlights          string
	OriginalDescription string
}

// PromptData holds the variables available in the prompt template.
type PromptData struct {
	Tag              Tag
	Tone             string
	PropertyType     string
	PropertyStandard string
	City             string
	Neighborhood     string
	InvestmentValue  string
	Area             string
	Highlights       string
	Description      string
}

var tones = map[Tag]string{
	TagApartmentLuxury: "Sofisticado e exclusivo. Valorize privacidade, acabamento de alto padrão, localização nobre e estilo de vida. Linguagem elegante, sem exageros.",
	TagApartmentMid:    "Acolhedor e equilibrado. Destaque conforto, praticidade do dia a dia e o bom custo-benefício para famílias e jovens profissionais.",
	TagApartmentEntry:  "Direto e acessível. Enfatize o preço justo, a praticidade e a oportunidade de sair do aluguel ou conquistar o primeiro imóvel.",
	TagHouseLuxury:     "Exclusivo e aspiracional. Valorize espaço, privacidade, lazer completo e o prestígio do endereço.",
	TagHouseMid:        "Familiar e confortável. Destaque espaço para a família, quintal, segurança e qualidade de vida no bairro.",
	TagHouseEntry:      "Simples e acessível. Enfatize o valor acessível, a praticidade e a conquista da casa própria.",
	TagNewDevelopment:  "Visionário. Destaque a valorização futura, a modernidade do projeto e a escassez de unidades, sem prometer rentabilidade.",
	TagLand:            "Objetivo e estratégico. Destaque o potencial construtivo e de investimento, sem fazer promessas sobre zoneamento, aprovações ou documentação.",
	TagOpportunity:     "Urgente e persuasivo. Transmita senso de oportunidade e decisão rápida, sem inventar descontos, condições ou prazos.",
	TagGeneric:         "Profissional e informativo. Apresente o imóvel de forma clara e atraente, equilibrando emoção e informação.",
}

// ToneDirective returns the tone paragraph embedded in prompts for tag.
func ToneDirective(tag Tag) string {
	if t, ok := tones[tag]; ok {
		return t
	}
	return tones[TagGeneric]
}

// FormatArea renders an area with the shortest exact decimal form.
func FormatArea(m2 float64) string {
	return strconv.FormatFloat(m2, 'f', -1, 64)
}

// Builder renders prompts. The zero value is not usable; use NewBuilder.
type Builder struct {
	tmpl *template.Template
}

// NewBuilder returns a Builder using customTemplate, or the embedded default
// when customTemplate is empty. A template that does not parse is an error.
func NewBuilder(customTemplate string) (*Builder, error) {
	if strings.TrimSpace(customTemplate) == "" {
		return &Builder{tmpl: defaultTemplate}, nil
	}
	tmpl, err := template.New("prompt").Option("missingkey=error").Parse(customTemplate)
	if err != nil {
		return nil, err
	}
	return &Builder{tmpl: tmpl}, nil
}

// Data computes the template variables for a.
func Data(a Attributes) PromptData {
	tag := SelectTemplate(a.PropertyType, a.PropertyStandard)
	d := PromptData{
		Tag:              tag,
		Tone:             ToneDirective(tag),
		PropertyType:     NormalizeToken(a.PropertyType),
		PropertyStandard: NormalizeToken(a.PropertyStandard),
		City:             a.City,
		Neighborhood:     a.Neighborhood,
		InvestmentValue:  a.InvestmentValue,
		Area:             FormatArea(a.BuiltAreaM2),
		Highlights:       strings.TrimSpace(a.Highlights),
	}
	if d.Highlights == "" {
		d.Description = strings.TrimSpace(a.OriginalDescription)
	}
	return d
}

// Build returns the selected tag and the prompt for a. It never fails: if a
// custom template cannot be executed for this input the embedded default is
// used instead.
func (b *Builder) Build(a Attributes) (Tag, string) {
	d := Data(a)
	var buf bytes.Buffer
	if err := b.tmpl.Execute(&buf, d); err != nil {
		buf.Reset()
		_ = defaultTemplate.Execute(&buf, d)
	}
	return d.Tag, buf.String()
}

// BuildPrompt renders the embedded default prompt for a.
func BuildPrompt(a Attributes) string {
	_, p := defaultBuilder.Build(a)
	return p
}

var defaultBuilder = &Builder{tmpl: defaultTemplate}
