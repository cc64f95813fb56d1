package llm

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultOpenAIModel   = "gpt-4o-mini"
)

type openaiProvider struct {
	client openai.Client
	model  string
	opts   Options
}

func newOpenAIProvider(opts Options) *openaiProvider {
	model := opts.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	client := openai.NewClient(
		option.WithAPIKey(opts.APIKey),
		option.WithBaseURL(strings.TrimRight(baseURL, "/")+"/"),
		option.WithHTTPClient(&http.Client{}),
		// Retry policy belongs to the caller.
		option.WithMaxRetries(0),
	)
	return &openaiProvider{client: client, model: model, opts: opts}
}

func (o *openaiProvider) Name() string { return ProviderPrimary }

func (o *openaiProvider) params(prompt string) openai.ChatCompletionNewParams {
	var messages []openai.ChatCompletionMessageParamUnion
	if o.opts.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(o.opts.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(prompt))

	p := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    messages,
		Temperature: openai.Float(o.opts.Temperature),
	}
	if o.opts.MaxTokens > 0 {
		p.MaxTokens = openai.Int(int64(o.opts.MaxTokens))
	}
	return p
}

func (o *openaiProvider) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.opts.Timeout)
	defer cancel()

	// The SDK only surfaces *openai.Error for bodies shaped like an API error;
	// keep the raw status and body of any non-2xx reply for diagnostics.
	var failed rawFailure
	resp, err := o.client.Chat.Completions.New(ctx, o.params(prompt), option.WithMiddleware(failed.capture))
	if err != nil {
		pe := &ProviderError{Provider: o.Name(), StatusCode: failed.status, Body: failed.body, Err: err}
		var apiErr *openai.Error
		if errors.As(err, &apiErr) && pe.StatusCode == 0 {
			pe.StatusCode = apiErr.StatusCode
			pe.Body = apiErr.RawJSON()
		}
		return "", pe
	}

	if len(resp.Choices) == 0 {
		return "", &ProviderError{Provider: o.Name(), StatusCode: http.StatusOK, Body: resp.RawJSON(), Err: errors.New("empty response from openai")}
	}
	return resp.Choices[0].Message.Content, nil
}

type rawFailure struct {
	status int
	body   string
}

func (f *rawFailure) capture(req *http.Request, next option.MiddlewareNext) (*http.Response, error) {
	res, err := next(req)
	if err != nil || (res.StatusCode >= 200 && res.StatusCode <= 299) {
		return res, err
	}
	b, readErr := io.ReadAll(res.Body)
	_ = res.Body.Close()
	res.Body = io.NopCloser(bytes.NewReader(b))
	f.status = res.StatusCode
	if readErr == nil {
		f.body = string(b)
	}
	return res, nil
}
