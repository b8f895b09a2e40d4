// Package catalog loads the learning content manifest and lesson/quiz files
// from the content store. Every fetch or decode failure is absorbed and
// replaced by placeholder content; nothing here returns an error to callers.
package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/pai-finlit/internal/platform/metrics"
)

const (
	defaultFetchTimeout = 10 * time.Second
	maxContentBytes     = 4 << 20
	prefetchLimit       = 4
)

// ErrHTMLResponse is reported when the content store answers a JSON request
// with an HTML page. Static hosts with SPA fallback routing serve index.html
// with a 200 status for missing assets.
var ErrHTMLResponse = errors.New("content store returned HTML instead of JSON")

// ErrContentTooLarge is reported when a content file exceeds the read limit.
var ErrContentTooLarge = errors.New("content file too large")

// Loader fetches and caches content from the content store.
type Loader struct {
	baseURL string
	client  *http.Client
	cache   ManifestCache
}

// Option configures a Loader.
type Option func(*Loader)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Loader) {
		l.client = client
	}
}

// WithCache replaces the default in-memory manifest cache.
func WithCache(cache ManifestCache) Option {
	return func(l *Loader) {
		l.cache = cache
	}
}

// NewLoader creates a loader for the content store served at baseURL.
func NewLoader(baseURL string, opts ...Option) *Loader {
	l := &Loader{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultFetchTimeout},
		cache:   NewMemoryCache(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadManifest returns the cached manifest, fetching it on first use. When
// the fetch fails the fallback manifest is returned and nothing is cached, so
// the next call tries the content store again.
func (l *Loader) LoadManifest(ctx context.Context) Manifest {
	if m, ok := l.cache.Get(ctx); ok {
		metrics.ManifestCache.WithLabelValues("hit").Inc()
		return m
	}
	metrics.ManifestCache.WithLabelValues("miss").Inc()

	path := ResolveContentPath(manifestFile)
	body, err := l.fetch(ctx, path)
	if err != nil {
		slog.Warn("manifest fetch failed, using fallback", "path", path, "error", err)
		metrics.ContentFetches.WithLabelValues("manifest", "fallback").Inc()
		return FallbackManifest()
	}

	m, err := parseManifest(body)
	if err != nil {
		slog.Warn("manifest decode failed, using fallback", "path", path, "error", err)
		metrics.ContentFetches.WithLabelValues("manifest", "fallback").Inc()
		return FallbackManifest()
	}
	metrics.ContentFetches.WithLabelValues("manifest", "ok").Inc()

	if res := ValidateManifestSchema(body); !res.IsValid {
		slog.Warn("manifest does not match schema", "errors", res.Errors)
	}

	l.cache.Set(ctx, m)
	slog.Info("manifest loaded", "modules", len(m.Modules), "version", m.Version)
	return m
}

// Modules returns every module in the manifest, in manifest order.
func (l *Loader) Modules(ctx context.Context) []Module {
	return l.LoadManifest(ctx).Modules
}

// Module returns the first module whose ID matches.
func (l *Loader) Module(ctx context.Context, id string) (Module, bool) {
	for _, m := range l.Modules(ctx) {
		if m.ID == id {
			return m, true
		}
	}
	return Module{}, false
}

// Lesson returns lesson metadata and content for a lesson within a module.
func (l *Loader) Lesson(ctx context.Context, moduleID, lessonID string) (Lesson, bool) {
	m, ok := l.Module(ctx, moduleID)
	if !ok {
		return Lesson{}, false
	}
	info, ok := m.LessonByID(lessonID)
	if !ok {
		return Lesson{}, false
	}
	return Lesson{
		Info:    info,
		Content: l.LoadLessonContent(ctx, ResolveContentPath(info.ContentFile)),
	}, true
}

// Quiz returns quiz metadata and content for a module.
func (l *Loader) Quiz(ctx context.Context, moduleID string) (Quiz, bool) {
	m, ok := l.Module(ctx, moduleID)
	if !ok || m.Quiz == nil {
		return Quiz{}, false
	}
	return Quiz{
		Info:    *m.Quiz,
		Content: l.LoadQuizContent(ctx, ResolveContentPath(m.Quiz.ContentFile)),
	}, true
}

// LoadLessonContent fetches a lesson file at an already-resolved path.
func (l *Loader) LoadLessonContent(ctx context.Context, path string) LessonContent {
	var c LessonContent
	if err := l.fetchJSON(ctx, path, &c); err != nil {
		slog.Warn("lesson content unavailable, using fallback", "path", path, "error", err)
		metrics.ContentFetches.WithLabelValues("lesson", "fallback").Inc()
		return FallbackLesson(path)
	}
	metrics.ContentFetches.WithLabelValues("lesson", "ok").Inc()
	if c.Sections == nil {
		c.Sections = []Section{}
	}
	return c
}

// LoadQuizContent fetches a quiz file at an already-resolved path.
func (l *Loader) LoadQuizContent(ctx context.Context, path string) QuizContent {
	var c QuizContent
	if err := l.fetchJSON(ctx, path, &c); err != nil {
		slog.Warn("quiz content unavailable, using fallback", "path", path, "error", err)
		metrics.ContentFetches.WithLabelValues("quiz", "fallback").Inc()
		return FallbackQuiz(path)
	}
	metrics.ContentFetches.WithLabelValues("quiz", "ok").Inc()
	if c.Questions == nil {
		c.Questions = []Question{}
	}
	return c
}

// PrefetchModule loads every lesson and the quiz of a module concurrently.
// Lessons are returned in module order.
func (l *Loader) PrefetchModule(ctx context.Context, moduleID string) ([]Lesson, *Quiz, bool) {
	m, ok := l.Module(ctx, moduleID)
	if !ok {
		return nil, nil, false
	}

	lessons := make([]Lesson, len(m.Lessons))
	var quiz *Quiz

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(prefetchLimit)
	for i, info := range m.Lessons {
		g.Go(func() error {
			lessons[i] = Lesson{
				Info:    info,
				Content: l.LoadLessonContent(gctx, ResolveContentPath(info.ContentFile)),
			}
			return nil
		})
	}
	if m.Quiz != nil {
		info := *m.Quiz
		g.Go(func() error {
			quiz = &Quiz{
				Info:    info,
				Content: l.LoadQuizContent(gctx, ResolveContentPath(info.ContentFile)),
			}
			return nil
		})
	}
	_ = g.Wait()

	return lessons, quiz, true
}

// DiscoverModules returns display metadata for every module.
func (l *Loader) DiscoverModules(ctx context.Context) []ModuleMetadata {
	modules := l.Modules(ctx)
	out := make([]ModuleMetadata, 0, len(modules))
	for _, m := range modules {
		out = append(out, m.Metadata())
	}
	return out
}

// ClearCache drops the cached manifest so the next LoadManifest refetches.
func (l *Loader) ClearCache(ctx context.Context) {
	l.cache.Clear(ctx)
	slog.Info("manifest cache cleared")
}

// HealthCheck verifies the content store serves the manifest.
func (l *Loader) HealthCheck(ctx context.Context) error {
	_, err := l.fetch(ctx, ResolveContentPath(manifestFile))
	return err
}

// rawManifest defers module decoding so one malformed module does not
// discard the rest of the catalog.
type rawManifest struct {
	Modules     []json.RawMessage `json:"modules"`
	GeneratedAt string            `json:"generatedAt"`
	Version     string            `json:"version"`
}

// parseManifest decodes a manifest module by module. Modules that fail to
// decode are logged and skipped; modules that decode but break the module
// contract are served and flagged in the log.
func parseManifest(body []byte) (Manifest, error) {
	var raw rawManifest
	if err := json.Unmarshal(body, &raw); err != nil {
		return Manifest{}, err
	}

	m := Manifest{
		Modules:     make([]Module, 0, len(raw.Modules)),
		GeneratedAt: raw.GeneratedAt,
		Version:     raw.Version,
	}
	for i, data := range raw.Modules {
		var mod Module
		if err := json.Unmarshal(data, &mod); err != nil {
			slog.Warn("skipping undecodable module", "index", i, "error", err)
			metrics.ContentFetches.WithLabelValues("module", "skipped").Inc()
			continue
		}
		if res := ValidateModuleJSON(data); !res.IsValid {
			slog.Warn("module is structurally invalid", "module_id", mod.ID, "errors", res.Errors)
		}
		m.Modules = append(m.Modules, mod)
	}
	return m, nil
}

func (l *Loader) fetchJSON(ctx context.Context, path string, v any) error {
	body, err := l.fetch(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decoding %s: %w", path, err)
	}
	return nil
}

func (l *Loader) fetch(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/"+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetching %s: status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxContentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(body) > maxContentBytes {
		return nil, fmt.Errorf("fetching %s: %w", path, ErrContentTooLarge)
	}
	if err := checkJSONBody(resp.Header.Get("Content-Type"), body); err != nil {
		return nil, fmt.Errorf("fetching %s: %w", path, err)
	}
	return body, nil
}

// checkJSONBody rejects HTML responses. The Content-Type header is trusted
// when present; the body sniff covers hosts that label everything as
// text/plain or omit the header.
func checkJSONBody(contentType string, body []byte) error {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && mediaType == "text/html" {
			return ErrHTMLResponse
		}
	}
	trimmed := bytes.TrimLeft(body, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '<' {
		return ErrHTMLResponse
	}
	return nil
}
