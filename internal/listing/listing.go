// Package listing orchestrates listing creation, caption generation and
// publishing on top of the stores, the caption generator, an optional caption
// cache and an optional social mirror.
package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/db8labs/db8-agent/internal/cache"
	"github.com/db8labs/db8-agent/internal/caption"
	"github.com/db8labs/db8-agent/internal/metrics"
	"github.com/db8labs/db8-agent/internal/store"
)

// Generator produces captions from prompts.
type Generator interface {
	Enabled() bool
	ProviderName() string
	Generate(ctx context.Context, prompt string) (*caption.GeneratedCaption, error)
}

// Cache memoizes generated captions by key.
type Cache interface {
	Get(ctx context.Context, key string) (*caption.GeneratedCaption, bool)
	Put(ctx context.Context, key string, g *caption.GeneratedCaption)
}

// SocialPublisher mirrors a published listing and returns the post id.
type SocialPublisher interface {
	Publish(ctx context.Context, imageURL, caption string) (string, error)
}

// Options carries the optional collaborators of a Service.
type Options struct {
	Builder     *caption.Builder
	Cache       Cache
	Social      SocialPublisher
	Concurrency int
	RPS         float64

	// Model, SystemPrompt, Temperature and MaxTokens scope cached captions.
	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int
}

type Service struct {
	props       store.PropertyStoreIface
	gen         Generator
	builder     *caption.Builder
	cache       Cache
	social      SocialPublisher
	scope       cache.Scope
	concurrency int
	limiter     *rate.Limiter
}

func New(props store.PropertyStoreIface, gen Generator, opts Options) *Service {
	s := &Service{
		props:   props,
		gen:     gen,
		builder: opts.Builder,
		cache:   opts.Cache,
		social:  opts.Social,
		scope: cache.Scope{
			Model:        opts.Model,
			SystemPrompt: opts.SystemPrompt,
			Temperature:  opts.Temperature,
			MaxTokens:    opts.MaxTokens,
		},
		concurrency: opts.Concurrency,
	}
	if s.builder == nil {
		s.builder, _ = caption.NewBuilder("")
	}
	if s.concurrency < 1 {
		s.concurrency = 1
	}
	if opts.RPS > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(opts.RPS), 1)
	}
	return s
}

// Input is a listing as submitted.
type Input struct {
	Title            string
	Description      string
	Images           []string
	PropertyType     string
	PropertyStandard string
	City             string
	Neighborhood     string
	InvestmentValue  string
	BuiltAreaM2      float64
	Highlights       string
}

func (in Input) attributes() caption.Attributes {
	return caption.Attributes{
		PropertyType:        in.PropertyType,
		PropertyStandard:    in.PropertyStandard,
		City:                in.City,
		Neighborhood:        in.Neighborhood,
		InvestmentValue:     in.InvestmentValue,
		BuiltAreaM2:         in.BuiltAreaM2,
		Highlights:          in.Highlights,
		OriginalDescription: in.Description,
	}
}

// AttributesOf rebuilds the prompt attributes of a stored listing.
func AttributesOf(p *store.Property) caption.Attributes {
	return caption.Attributes{
		PropertyType:        p.PropertyType,
		PropertyStandard:    p.PropertyStandard,
		City:                p.City,
		Neighborhood:        p.Neighborhood,
		InvestmentValue:     p.InvestmentValue,
		BuiltAreaM2:         p.BuiltAreaM2,
		Highlights:          p.Highlights,
		OriginalDescription: p.Description,
	}
}

// Result is a listing together with its generated caption, if any.
type Result struct {
	Property *store.Property
	Caption  *caption.GeneratedCaption
	// GenerationError is the error kind when generation failed.
	GenerationError string
}

// Create stores a new listing for ownerID. A generation failure does not fail
// the request: the listing is stored with status error and the raw
// description as its caption.
func (s *Service) Create(ctx context.Context, ownerID string, in Input) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	tag, prompt := s.builder.Build(in.attributes())

	np := store.NewProperty{
		OwnerID:          ownerID,
		Title:            strings.TrimSpace(in.Title),
		Description:      in.Description,
		Images:           in.Images,
		PropertyType:     in.PropertyType,
		PropertyStandard: in.PropertyStandard,
		City:             in.City,
		Neighborhood:     in.Neighborhood,
		InvestmentValue:  in.InvestmentValue,
		BuiltAreaM2:      in.BuiltAreaM2,
		Highlights:       in.Highlights,
		TemplateTag:      string(tag),
		Status:           store.StatusPending,
	}

	g, _, genErr := s.generate(ctx, prompt, true)
	if genErr != nil {
		kind := caption.Kind(genErr)
		logger.Warn().Err(genErr).Str("kind", kind).Str("tag", string(tag)).Msg("caption generation failed; storing listing without caption")
		np.Status = store.StatusError
		np.GenerationError = kind
		np.CaptionFinal = in.Description
	} else {
		raw, err := json.Marshal(g)
		if err != nil {
			return nil, fmt.Errorf("encode caption: %w", err)
		}
		captionJSON := string(raw)
		np.CaptionAI = &captionJSON
		np.CaptionFinal = g.Display()
		if np.Title == "" {
			np.Title = g.Title
		}
	}

	p, err := s.props.Create(ctx, np)
	if err != nil {
		return nil, err
	}
	logger.Info().Str("property_id", p.ID).Str("status", p.Status).Str("tag", p.TemplateTag).Msg("listing created")
	return &Result{Property: p, Caption: g, GenerationError: np.GenerationError}, nil
}

// Regenerate generates a fresh caption for a stored listing, bypassing the
// cache read. On failure the listing is marked error, its previous caption is
// kept, and the generation error is returned alongside the updated listing.
// Without a provider it returns ErrGenerationDisabled and leaves the listing
// untouched.
func (s *Service) Regenerate(ctx context.Context, id string) (*Result, error) {
	p, err := s.props.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.gen == nil || !s.gen.Enabled() {
		return nil, caption.ErrGenerationDisabled
	}
	tag, prompt := s.builder.Build(AttributesOf(p))

	g, _, genErr := s.generate(ctx, prompt, false)
	if genErr != nil {
		kind := caption.Kind(genErr)
		zerolog.Ctx(ctx).Warn().Err(genErr).Str("property_id", id).Str("kind", kind).Msg("caption regeneration failed")
		updated, err := s.props.MarkGenerationError(ctx, id, string(tag), kind)
		if err != nil {
			return nil, errors.Join(genErr, err)
		}
		return &Result{Property: updated, GenerationError: kind}, genErr
	}

	raw, err := json.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("encode caption: %w", err)
	}
	updated, err := s.props.SetCaption(ctx, id, store.CaptionUpdate{
		CaptionAI:    string(raw),
		CaptionFinal: g.Display(),
		TemplateTag:  string(tag),
	})
	if err != nil {
		return nil, err
	}
	return &Result{Property: updated, Caption: g}, nil
}

// PublishResult reports a publish and its optional social mirror.
type PublishResult struct {
	Property     *store.Property
	User         *store.User
	SocialPostID string
	SocialError  string
}

// Publish approves a listing and charges the owner, then mirrors it to the
// social account when one is configured. A mirror failure is logged and
// reported but never undoes the publish.
func (s *Service) Publish(ctx context.Context, id, userID string) (*PublishResult, error) {
	logger := zerolog.Ctx(ctx)
	u, err := s.props.Publish(ctx, id, userID)
	switch {
	case err == nil:
		metrics.PublishesTotal.WithLabelValues("ok").Inc()
	case errors.Is(err, store.ErrNoCredits):
		metrics.PublishesTotal.WithLabelValues("no_credits").Inc()
		return nil, err
	case errors.Is(err, store.ErrAlreadyPublished):
		metrics.PublishesTotal.WithLabelValues("already_published").Inc()
		return nil, err
	default:
		metrics.PublishesTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	p, err := s.props.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &PublishResult{Property: p, User: u}
	logger.Info().Str("property_id", id).Int("credits_remaining", u.CreditsRemaining).Msg("listing published")

	if s.social == nil {
		return res, nil
	}
	var image string
	if len(p.Images) > 0 {
		image = p.Images[0]
	}
	postID, err := s.social.Publish(ctx, image, p.CaptionFinal)
	if err != nil {
		metrics.SocialPostsTotal.WithLabelValues("error").Inc()
		logger.Error().Err(err).Str("property_id", id).Msg("social mirror failed")
		res.SocialError = err.Error()
		return res, nil
	}
	metrics.SocialPostsTotal.WithLabelValues("ok").Inc()
	if err := s.props.SetSocialPostID(ctx, id, postID); err != nil {
		logger.Error().Err(err).Str("property_id", id).Str("post_id", postID).Msg("store social post id")
	} else {
		p.SocialPostID = postID
	}
	res.SocialPostID = postID
	return res, nil
}

// BatchResult counts a RegenerateFailed run.
type BatchResult struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// RegenerateFailed retries generation for every listing in status error,
// with bounded concurrency and paced provider calls. Individual failures are
// counted, not returned; only cancellation stops the batch early.
func (s *Service) RegenerateFailed(ctx context.Context) (BatchResult, error) {
	failed, err := s.props.List(ctx, store.PropertyFilter{Status: store.StatusError})
	if err != nil {
		return BatchResult{}, err
	}

	var ok, bad atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, p := range failed {
		g.Go(func() error {
			if s.limiter != nil {
				if err := s.limiter.Wait(gctx); err != nil {
					return err
				}
			}
			if _, err := s.Regenerate(gctx, p.ID); err != nil {
				bad.Add(1)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	err = g.Wait()

	res := BatchResult{Attempted: int(ok.Load() + bad.Load()), Succeeded: int(ok.Load()), Failed: int(bad.Load())}
	zerolog.Ctx(ctx).Info().Int("attempted", res.Attempted).Int("succeeded", res.Succeeded).Int("failed", res.Failed).Msg("regenerated failed listings")
	return res, err
}

// Preview is a generation that is not persisted.
type Preview struct {
	Tag     caption.Tag
	Prompt  string
	Caption *caption.GeneratedCaption
	Cached  bool
}

// Preview builds the prompt for attrs and generates a caption without
// storing anything. The prompt and tag are returned even when generation
// fails.
func (s *Service) Preview(ctx context.Context, attrs caption.Attributes) (*Preview, error) {
	tag, prompt := s.builder.Build(attrs)
	g, cached, err := s.generate(ctx, prompt, true)
	return &Preview{Tag: tag, Prompt: prompt, Caption: g, Cached: cached}, err
}

func (s *Service) generate(ctx context.Context, prompt string, readCache bool) (*caption.GeneratedCaption, bool, error) {
	if s.gen == nil || !s.gen.Enabled() {
		return nil, false, caption.ErrGenerationDisabled
	}
	scope := s.scope
	scope.Provider = s.gen.ProviderName()
	key := cache.Key(scope, prompt)
	if readCache && s.cache != nil {
		if g, ok := s.cache.Get(ctx, key); ok {
			return g, true, nil
		}
	}
	g, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, false, err
	}
	if s.cache != nil {
		s.cache.Put(ctx, key, g)
	}
	return g, false, nil
}
