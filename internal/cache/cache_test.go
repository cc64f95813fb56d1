package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/db8labs/db8-agent/internal/caption"
)

type memBackend struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
	err  error
}

func newMem() *memBackend {
	return &memBackend{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memBackend) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return "", m.err
	}
	v, ok := m.data[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (m *memBackend) Set(_ context.Context, key, val string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.data[key] = val
	m.ttls[key] = ttl
	return nil
}

func (m *memBackend) Ping(context.Context) error { return m.err }
func (m *memBackend) Close() error               { return nil }

func TestKey(t *testing.T) {
	scope := Scope{Provider: "primary", Model: "gpt-4o-mini", SystemPrompt: "sys", Temperature: 0.7, MaxTokens: 1024}
	k := Key(scope, "prompt")
	assert.Equal(t, k, Key(scope, "prompt"))
	assert.NotEqual(t, k, Key(scope, "prompt "))
	assert.Len(t, k, len("caption:")+64)

	changes := map[string]func(*Scope){
		"provider":      func(s *Scope) { s.Provider = "secondary" },
		"model":         func(s *Scope) { s.Model = "gpt-4o" },
		"system prompt": func(s *Scope) { s.SystemPrompt = "outro" },
		"temperature":   func(s *Scope) { s.Temperature = 0.2 },
		"max tokens":    func(s *Scope) { s.MaxTokens = 512 },
	}
	for name, change := range changes {
		changed := scope
		change(&changed)
		assert.NotEqual(t, k, Key(changed, "prompt"), name)
	}
}

func TestCaptionCache_PutGet(t *testing.T) {
	mem := newMem()
	c := &CaptionCache{b: mem, ttl: time.Hour}
	ctx := context.Background()

	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)

	want := &caption.GeneratedCaption{Title: "A", Caption: "B", Bullets: []string{"x"}, CTA: "C", Hashtags: []string{"#a"}}
	c.Put(ctx, "k", want)
	assert.Equal(t, time.Hour, mem.ttls["k"])

	got, ok := c.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestCaptionCache_ErrorsAreMisses(t *testing.T) {
	mem := newMem()
	c := &CaptionCache{b: mem, ttl: time.Minute}
	ctx := context.Background()

	mem.data["corrupt"] = "{not json"
	_, ok := c.Get(ctx, "corrupt")
	assert.False(t, ok)

	mem.err = errors.New("connection refused")
	_, ok = c.Get(ctx, "k")
	assert.False(t, ok)
	c.Put(ctx, "k", &caption.GeneratedCaption{Title: "A"})
	assert.Error(t, c.Ping(ctx))
}

func TestCaptionCache_NilIsDisabled(t *testing.T) {
	var c *CaptionCache
	ctx := context.Background()

	c.Put(ctx, "k", &caption.GeneratedCaption{})
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
	assert.NoError(t, c.Ping(ctx))
	assert.NoError(t, c.Close())
}
