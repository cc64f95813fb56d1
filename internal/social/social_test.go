package social

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPublisher(baseURL string) *Publisher {
	p := New(baseURL, "17841400000", "token-abc")
	p.http.RetryWaitMin = time.Millisecond
	p.http.RetryWaitMax = 5 * time.Millisecond
	return p
}

func TestPublish_TwoStepFlow(t *testing.T) {
	var steps []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "token-abc", r.PostForm.Get("access_token"))
		steps = append(steps, r.URL.Path)

		switch r.URL.Path {
		case "/17841400000/media":
			assert.Equal(t, "https://img.example.com/1.jpg", r.PostForm.Get("image_url"))
			assert.Equal(t, "legenda\n\n#a", r.PostForm.Get("caption"))
			_, _ = w.Write([]byte(`{"id":"container-1"}`))
		case "/17841400000/media_publish":
			assert.Equal(t, "container-1", r.PostForm.Get("creation_id"))
			_, _ = w.Write([]byte(`{"id":"post-9"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	id, err := newTestPublisher(srv.URL).Publish(context.Background(), "https://img.example.com/1.jpg", "legenda\n\n#a")
	require.NoError(t, err)
	assert.Equal(t, "post-9", id)
	assert.Equal(t, []string{"/17841400000/media", "/17841400000/media_publish"}, steps)
}

func TestPublish_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"x"}`))
	}))
	defer srv.Close()

	id, err := newTestPublisher(srv.URL).Publish(context.Background(), "https://img/1.jpg", "c")
	require.NoError(t, err)
	assert.Equal(t, "x", id)
	assert.EqualValues(t, 4, calls.Load()) // 2 failures + media + media_publish
}

func TestPublish_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	}))
	defer srv.Close()

	_, err := newTestPublisher(srv.URL).Publish(context.Background(), "https://img/1.jpg", "c")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "media", apiErr.Step)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Invalid OAuth")
	assert.EqualValues(t, 1, calls.Load())
}

func TestPublish_ExhaustedRetriesReportLastStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("bad gateway"))
	}))
	defer srv.Close()

	_, err := newTestPublisher(srv.URL).Publish(context.Background(), "https://img/1.jpg", "c")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestPublish_MissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestPublisher(srv.URL).Publish(context.Background(), "https://img/1.jpg", "c")
	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestPublish_NoImage(t *testing.T) {
	_, err := New("http://unused", "1", "t").Publish(context.Background(), "", "c")
	assert.True(t, errors.Is(err, ErrNoImage))
}
