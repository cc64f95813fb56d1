package caption

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db8labs/db8-agent/internal/llm"
)

type fakeProvider struct {
	text    string
	err     error
	prompts []string
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func TestGenerator_Generate(t *testing.T) {
	p := &fakeProvider{text: `{"title":"T","caption":"caption","bullets":["b"],"cta":"Agende","hashtags":["#tag1","#tag2"]}`}
	g := NewGenerator(p)

	out, err := g.Generate(context.Background(), BuildPrompt(jardins()))
	require.NoError(t, err)
	assert.Equal(t, "caption\n\n#tag1 #tag2", out.Display())
	assert.Equal(t, "Agende", out.CTA)
	require.Len(t, p.prompts, 1)
	assert.Contains(t, p.prompts[0], "Jardins")
}

func TestGenerator_ProviderErrorPassesThrough(t *testing.T) {
	perr := &llm.ProviderError{Provider: "fake", StatusCode: http.StatusInternalServerError, Body: "boom"}
	g := NewGenerator(&fakeProvider{err: perr})

	out, err := g.Generate(context.Background(), "x")
	assert.Nil(t, out)
	var got *llm.ProviderError
	require.True(t, errors.As(err, &got))
	assert.Same(t, perr, got)
	assert.Equal(t, KindProvider, Kind(err))
}

func TestGenerator_TimeoutKind(t *testing.T) {
	g := NewGenerator(&fakeProvider{err: &llm.ProviderError{Provider: "fake", Err: context.DeadlineExceeded}})

	_, err := g.Generate(context.Background(), "x")
	assert.Equal(t, KindProviderTimeout, Kind(err))
}

func TestGenerator_MalformedReply(t *testing.T) {
	g := NewGenerator(&fakeProvider{text: "not json"})

	_, err := g.Generate(context.Background(), "x")
	assert.Equal(t, KindMalformed, Kind(err))
}

func TestGenerator_Disabled(t *testing.T) {
	g := NewGenerator(nil)
	assert.False(t, g.Enabled())
	assert.Equal(t, "", g.ProviderName())

	_, err := g.Generate(context.Background(), "x")
	assert.ErrorIs(t, err, ErrGenerationDisabled)

	var nilGen *Generator
	assert.False(t, nilGen.Enabled())
}

func TestDisplay_NoHashtags(t *testing.T) {
	g := &GeneratedCaption{Caption: "só o texto"}
	assert.Equal(t, "só o texto", g.Display())
}
