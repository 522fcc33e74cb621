// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package pipeline turns a content item into a finished article. Work runs
// in four stages, strictly in order: research (SERP, videos, semantic
// keywords), outline, writing (sections then FAQs), and finishing (quality
// gates, internal links, references, images).
//
// Cancellation is cooperative. The caller's stop predicate is checked
// before every stage and before every section or FAQ call; once it
// reports true no further provider calls are made and Run returns
// ErrStopped.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"contentforge/internal/ai"
	"contentforge/internal/cache"
	"contentforge/internal/jsonrepair"
	"contentforge/internal/links"
	"contentforge/internal/markdown"
	"contentforge/internal/models"
	"contentforge/internal/quality"
	"contentforge/internal/slug"
)

// Stage names one step of the pipeline.
type Stage string

const (
	StageResearch  Stage = "research"
	StageOutline   Stage = "outline"
	StageWriting   Stage = "writing"
	StageFinishing Stage = "finishing"
)

// ErrStopped is returned when the stop predicate fired.
var ErrStopped = errors.New("pipeline: stopped")

// StageError records the stage a run failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// TopicFlaggedError reports a topic rejected by moderation.
type TopicFlaggedError struct {
	Categories []string
}

func (e *TopicFlaggedError) Error() string {
	return "topic flagged by moderation: " + strings.Join(e.Categories, ", ")
}

// Searcher sources SERP data and videos.
type Searcher interface {
	Configured() bool
	Search(ctx context.Context, query string) ([]models.SearchResult, error)
	UniqueVideos(ctx context.Context, queries []string, limit int) ([]models.VideoRef, error)
}

// Imager draws images, falling back across providers.
type Imager interface {
	SupportsImageGeneration() bool
	GenerateImage(ctx context.Context, prompt string) ([]byte, string, error)
}

// Moderator screens topics before generation.
type Moderator interface {
	CheckPrompt(ctx context.Context, text string) (*ai.ModerationResult, error)
}

// ImageStore persists generated images and returns a public URL. Without
// one, images are embedded as data URIs until publishing uploads them.
type ImageStore interface {
	PutImage(ctx context.Context, data []byte, contentType string) (string, error)
}

// Deps are the collaborators a Pipeline calls. Generator is required;
// every other field is optional.
type Deps struct {
	Generator ai.TextGenerator
	Gateway   *ai.Gateway
	Search    Searcher
	Images    Imager
	Moderator Moderator
	Archive   ImageStore
	Cache     cache.Store
	// VideoQueries phrases the video searches for a topic.
	VideoQueries func(topic string) []string
}

// Options are the tunables built from configuration.
type Options struct {
	Limits           quality.Limits
	MinInternalLinks int
	Videos           int
	References       int
}

// DefaultOptions returns the editorial defaults.
func DefaultOptions() Options {
	return Options{Limits: quality.DefaultLimits, MinInternalLinks: 8, Videos: 2, References: 8}
}

// Pipeline generates articles. It is safe for concurrent use; all
// per-item state lives on the stack of Run.
type Pipeline struct {
	deps Deps
	opts Options
}

// New creates a pipeline.
func New(deps Deps, opts Options) *Pipeline {
	if deps.Gateway == nil {
		deps.Gateway = ai.NewGateway()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewMemoryStore(cache.DefaultTTL)
	}
	if deps.VideoQueries == nil {
		deps.VideoQueries = func(topic string) []string { return []string{topic, topic + " tutorial"} }
	}
	return &Pipeline{deps: deps, opts: opts}
}

// Request is one generation run.
type Request struct {
	Item models.ContentItem
	// Pages are the link targets. They are read-only for the run.
	Pages []links.Page
	// Stopped is the cancellation token. Nil never stops.
	Stopped func() bool
	// Progress receives human-readable status text. Nil discards it.
	Progress func(text string)
}

func (r *Request) stopped() bool {
	return r.Stopped != nil && r.Stopped()
}

func (r *Request) progress(format string, args ...any) {
	if r.Progress != nil {
		r.Progress(fmt.Sprintf(format, args...))
	}
}

// outlinePlan is the stage 2 material that is not part of the artifact.
type outlinePlan struct {
	headings   []string
	takeaways  []string
	faqs       []string
	conclusion string
}

// Run generates the article for req.Item. On a word-count failure the
// assembled content is returned alongside a *quality.ContentTooShortError
// so it can be kept for review. Every other failure returns a nil
// artifact.
func (p *Pipeline) Run(ctx context.Context, req Request) (*models.GeneratedContent, error) {
	item := req.Item
	log := slog.With("item", item.ID)

	if p.deps.Moderator != nil {
		res, err := ai.Invoke(ctx, p.deps.Gateway, func(ctx context.Context) (*ai.ModerationResult, error) {
			return p.deps.Moderator.CheckPrompt(ctx, item.Title)
		})
		if err != nil {
			log.Warn("moderation check failed, continuing", "error", err)
		} else if !res.Safe {
			return nil, &StageError{Stage: StageResearch, Err: &TopicFlaggedError{Categories: res.Categories}}
		}
	}

	if req.stopped() {
		return nil, ErrStopped
	}
	req.progress("Researching keywords")
	r := p.research(ctx, item.Title)
	if err := ctx.Err(); err != nil {
		return nil, &StageError{Stage: StageResearch, Err: err}
	}

	if req.stopped() {
		return nil, ErrStopped
	}
	req.progress("Planning outline")
	gc, plan, err := p.outline(ctx, item, r, req.Pages)
	if err != nil {
		return nil, &StageError{Stage: StageOutline, Err: err}
	}
	log.Info("outline ready", "sections", len(plan.headings), "faqs", len(plan.faqs))

	if req.stopped() {
		return nil, ErrStopped
	}
	content, err := p.write(ctx, &req, gc, plan, r)
	if err != nil {
		if errors.Is(err, ErrStopped) {
			return nil, err
		}
		return nil, &StageError{Stage: StageWriting, Err: err}
	}
	gc.Content = content

	if req.stopped() {
		return nil, ErrStopped
	}
	req.progress("Finishing")
	if err := p.finish(ctx, item, gc, r, req.Pages); err != nil {
		var short *quality.ContentTooShortError
		if errors.As(err, &short) {
			gc.Content = short.Content
			gc.WordCount = short.Words
			return gc, &StageError{Stage: StageFinishing, Err: err}
		}
		return nil, &StageError{Stage: StageFinishing, Err: err}
	}
	log.Info("article generated", "words", gc.WordCount, "human_score", gc.HumanScore)
	return gc, nil
}

// research runs stage 1. Every part of it is optional enrichment, so
// failures are logged and the stage yields whatever succeeded.
func (p *Pipeline) research(ctx context.Context, title string) research {
	var r research

	if s := p.deps.Search; s != nil && s.Configured() {
		serpKey := cache.Key("serp", title)
		if !cache.GetJSON(ctx, p.deps.Cache, serpKey, &r.serp) {
			results, err := s.Search(ctx, title)
			if err != nil {
				slog.Warn("serp lookup failed", "title", title, "error", err)
			} else {
				r.serp = results
				cache.SetJSON(ctx, p.deps.Cache, serpKey, results)
			}
		}

		videoKey := cache.Key("videos", title)
		if !cache.GetJSON(ctx, p.deps.Cache, videoKey, &r.videos) {
			videos, err := s.UniqueVideos(ctx, p.deps.VideoQueries(title), p.opts.Videos)
			if err != nil {
				slog.Warn("video lookup failed", "title", title, "error", err)
			} else {
				r.videos = videos
				cache.SetJSON(ctx, p.deps.Cache, videoKey, videos)
			}
		}
	}

	kwKey := cache.Key("keywords", title)
	if !cache.GetJSON(ctx, p.deps.Cache, kwKey, &r.keywords) {
		text, err := p.deps.Gateway.Generate(ctx, p.deps.Generator, keywordsSystemPrompt, keywordsPrompt(title), ai.GenerateOptions{JSON: true})
		if err != nil {
			slog.Warn("semantic keyword lookup failed", "title", title, "error", err)
			return r
		}
		var out struct {
			Keywords []string `json:"keywords"`
		}
		if err := jsonrepair.Decode(text, &out); err != nil {
			slog.Warn("semantic keywords unparseable", "title", title, "error", err)
			return r
		}
		r.keywords = out.Keywords
		cache.SetJSON(ctx, p.deps.Cache, kwKey, out.Keywords)
	}
	return r
}

// outline runs stage 2.
func (p *Pipeline) outline(ctx context.Context, item models.ContentItem, r research, pages []links.Page) (*models.GeneratedContent, outlinePlan, error) {
	text, err := p.deps.Gateway.Generate(ctx, p.deps.Generator, outlineSystemPrompt, outlinePrompt(item, r, pages), ai.GenerateOptions{JSON: true})
	if err != nil {
		return nil, outlinePlan{}, err
	}

	var raw map[string]any
	if err := jsonrepair.Decode(text, &raw); err != nil {
		slog.Error("outline response unparseable", "item", item.ID, "raw", truncateRunes(text, 2000))
		return nil, outlinePlan{}, err
	}

	gc := Normalize(raw, item.Title)
	if item.IsRewrite() {
		if s := slug.FromURL(item.OriginalURL); s != "" {
			gc.Slug = s
		}
	}
	for _, k := range r.keywords {
		if !containsFold(gc.SemanticKeywords, k) {
			gc.SemanticKeywords = append(gc.SemanticKeywords, k)
		}
	}

	plan := outlinePlan{
		headings:   stringList(raw["outline"]),
		takeaways:  stringList(raw["keyTakeaways"]),
		faqs:       stringList(raw["faqs"]),
		conclusion: firstString(raw, "conclusion"),
	}
	if len(plan.headings) == 0 {
		return nil, outlinePlan{}, errors.New("outline has no section headings")
	}
	return gc, plan, nil
}

// write runs stage 3 and returns the assembled HTML, still carrying link,
// image and reference placeholders.
func (p *Pipeline) write(ctx context.Context, req *Request, gc *models.GeneratedContent, plan outlinePlan, r research) (string, error) {
	sections := make([]string, 0, len(plan.headings))
	for i, heading := range plan.headings {
		if req.stopped() {
			return "", ErrStopped
		}
		req.progress("Writing section %d/%d", i+1, len(plan.headings))
		body, err := p.fragment(ctx, sectionSystemPrompt, sectionPrompt(gc, heading, i, len(plan.headings), r, req.Pages))
		if err != nil {
			return "", fmt.Errorf("section %d %q: %w", i+1, heading, err)
		}
		sections = append(sections, stripLeadingHeading(body))
	}

	answers := make([]string, 0, len(plan.faqs))
	for i, q := range plan.faqs {
		if req.stopped() {
			return "", ErrStopped
		}
		req.progress("Answering FAQ %d/%d", i+1, len(plan.faqs))
		answer, err := p.fragment(ctx, faqSystemPrompt, faqPrompt(gc, q))
		if err != nil {
			return "", fmt.Errorf("faq %d: %w", i+1, err)
		}
		answers = append(answers, answer)
	}

	return assemble(gc, plan, sections, answers, r.videos), nil
}

func (p *Pipeline) fragment(ctx context.Context, system, user string) (string, error) {
	text, err := p.deps.Gateway.Generate(ctx, p.deps.Generator, system, user, ai.GenerateOptions{})
	if err != nil {
		return "", err
	}
	return markdown.Normalize(text)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}
