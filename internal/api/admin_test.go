package api_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/db8labs/db8-agent/internal/api"
	"github.com/db8labs/db8-agent/internal/llm"
	"github.com/db8labs/db8-agent/internal/store"
)

func TestRegenerateFailed(t *testing.T) {
	env := newTestEnv(t)
	seedProperty(t, env)
	env.Gen.fail(&llm.ProviderError{Provider: "stub", Err: errors.New("connection reset")})
	seedProperty(t, env)
	seedProperty(t, env)

	env.Gen.fail(nil)
	rr := env.do(t, http.MethodPost, "/admin/regenerate-failed", nil)
	wantStatus(t, rr, http.StatusOK)

	var resp api.BatchResponse
	decode(t, rr, &resp)
	if resp.Attempted != 2 || resp.Succeeded != 2 || resp.Failed != 0 {
		t.Errorf("unexpected batch result: %+v", resp)
	}

	var failed api.PropertyListResponse
	decode(t, env.do(t, http.MethodGet, "/properties?status="+store.StatusError, nil), &failed)
	if len(failed.Properties) != 0 {
		t.Errorf("expected no failed listings left, got %d", len(failed.Properties))
	}
}
