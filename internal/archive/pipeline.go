package archive

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"glowficdl/internal/chaptercache"
	"glowficdl/internal/config"
	"glowficdl/internal/epub"
	"glowficdl/internal/glowfic"
	"glowficdl/internal/images"
	"glowficdl/internal/links"
	"glowficdl/internal/logging"
	"glowficdl/internal/render"
	"glowficdl/internal/services"
)

// Options customizes a run. The zero value is usable.
type Options struct {
	Logger   *slog.Logger
	Progress Progress
	// HTTPClient overrides the client used for origin and avatar requests.
	HTTPClient *http.Client
	// Now supplies the modification time of books without chapters.
	Now func() time.Time
}

func (o Options) progress() Progress {
	if o.Progress == nil {
		return nopProgress{}
	}
	return o.Progress
}

func (o Options) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now().UTC()
}

// Result summarizes a finished run.
type Result struct {
	CorrelationID    string
	Title            string
	Path             string
	Bytes            int64
	Chapters         int
	CachedChapters   int
	Sections         int
	Posts            int
	Authors          []string
	ImagesDownloaded int
	ImagesFailed     int
	InternalLinks    int
	ExternalLinks    int
	LastUpdate       time.Time
	Elapsed          time.Duration
}

type run struct {
	cfg      *config.Config
	opts     Options
	client   *glowfic.Client
	progress Progress
	result   *Result
}

// Run downloads the thread, board or board section at location and writes
// it as an EPUB into the configured output directory.
func Run(ctx context.Context, cfg *config.Config, location string, opts Options) (*Result, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, services.Wrap(services.ErrValidation, StageDiscover, "", "location is required", nil)
	}

	started := time.Now()
	ctx, release, err := begin(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	defer release()

	store, closeStore := openCache(ctx, cfg, opts.Logger)
	defer closeStore()

	client, err := NewClient(cfg, opts.Logger, store, opts.HTTPClient)
	if err != nil {
		return nil, err
	}

	rid, _ := services.RequestIDFromContext(ctx)
	r := &run{
		cfg:      cfg,
		opts:     opts,
		client:   client,
		progress: opts.progress(),
		result:   &Result{CorrelationID: rid},
	}
	if err := r.execute(ctx, location); err != nil {
		logging.WithContext(ctx, opts.Logger).Error("download failed",
			logging.String(logging.FieldEventType, "download_failed"),
			logging.String("location", location),
			logging.Error(err),
		)
		return nil, err
	}
	r.result.Elapsed = time.Since(started)
	logging.WithContext(ctx, opts.Logger).Info("book written",
		logging.String(logging.FieldEventType, "download_complete"),
		logging.String("path", r.result.Path),
		logging.Int("chapters", r.result.Chapters),
		logging.Int("sections", r.result.Sections),
		logging.Int("posts", r.result.Posts),
		logging.Int("images", r.result.ImagesDownloaded),
		logging.Int64("bytes", r.result.Bytes),
		logging.Duration("elapsed", r.result.Elapsed),
	)
	return r.result, nil
}

// Discover resolves location into its chapter list without downloading
// anything else.
func Discover(ctx context.Context, cfg *config.Config, location string, opts Options) (*glowfic.BookSpec, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return nil, services.Wrap(services.ErrValidation, StageDiscover, "", "location is required", nil)
	}
	ctx, release, err := begin(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	defer release()

	client, err := NewClient(cfg, opts.Logger, nil, opts.HTTPClient)
	if err != nil {
		return nil, err
	}
	r := &run{cfg: cfg, opts: opts, client: client, progress: opts.progress(), result: &Result{}}
	return r.discover(ctx, location)
}

// begin prepares directories, takes the run lock and tags ctx with a fresh
// correlation id.
func begin(ctx context.Context, cfg *config.Config, opts Options) (context.Context, func(), error) {
	if cfg == nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "", "", "configuration is required", nil)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "", "prepare directories", "", err)
	}
	lock, err := acquireLock(cfg.LockPath())
	if err != nil {
		return nil, nil, services.Wrap(services.ErrTransient, "", "lock", "", err)
	}
	ctx = services.WithRequestID(ctx, uuid.NewString())
	release := func() {
		if err := lock.release(); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, opts.Logger), "failed to release run lock", "lock_release_failed",
				logging.String("lock", lock.path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "the lock is dropped when the process exits"),
			)
		}
	}
	return ctx, release, nil
}

// openCache opens the chapter cache when enabled. A cache that cannot be
// opened only costs the speedup, so the run continues without it.
func openCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (glowfic.ChapterStore, func()) {
	if !cfg.Cache.Enabled {
		return nil, func() {}
	}
	cache, err := chaptercache.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, logger), "chapter cache unavailable", "chapter_cache_open_failed",
			logging.String("path", cfg.Cache.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the cache file or set cache.enabled = false"),
			logging.String(logging.FieldImpact, "every chapter will be fetched from the site"),
		)
		return nil, func() {}
	}
	return cache, func() { _ = cache.Close() }
}

func (r *run) stage(ctx context.Context, name string) (context.Context, *slog.Logger) {
	ctx = services.WithStage(ctx, name)
	logger := logging.WithContext(ctx, logging.NewComponentLogger(r.opts.Logger, "archive"))
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	return ctx, logger
}

func (r *run) execute(ctx context.Context, location string) error {
	spec, err := r.discover(ctx, location)
	if err != nil {
		return err
	}
	r.result.Title = BookTitle(spec.Title)
	r.result.Chapters = len(spec.Chapters)
	r.result.LastUpdate = spec.LastUpdate()

	pages, err := r.fetch(ctx, spec)
	if err != nil {
		return err
	}
	chapters, reg, authors, err := r.render(ctx, pages)
	if err != nil {
		return err
	}
	layout, err := r.link(ctx, chapters)
	if err != nil {
		return err
	}
	assets, err := r.images(ctx, reg)
	if err != nil {
		return err
	}
	return r.assemble(ctx, location, spec, chapters, layout, authors, assets)
}

func (r *run) discover(ctx context.Context, location string) (*glowfic.BookSpec, error) {
	ctx, logger := r.stage(ctx, StageDiscover)
	r.progress.Begin(StageDiscover, -1)
	defer r.progress.End()

	spec, err := r.client.Discover(ctx, location)
	if err != nil {
		return nil, classify(StageDiscover, "discover "+location, err)
	}
	r.progress.Step()
	logger.Info("chapters discovered",
		logging.String("title", spec.Title),
		logging.Int("chapters", len(spec.Chapters)),
	)
	return spec, nil
}

func (r *run) fetch(ctx context.Context, spec *glowfic.BookSpec) ([]*glowfic.ChapterPage, error) {
	ctx, logger := r.stage(ctx, StageFetch)
	r.progress.Begin(StageFetch, len(spec.Chapters))
	defer r.progress.End()

	pages := make([]*glowfic.ChapterPage, len(spec.Chapters))
	var cached atomic.Int32
	g, gctx := errgroup.WithContext(ctx)
	for i, loc := range spec.Chapters {
		g.Go(func() error {
			page, err := r.client.FetchChapter(services.WithChapter(gctx, i+1), loc)
			if err != nil {
				return fmt.Errorf("chapter %d (%s): %w", i+1, loc.URL, err)
			}
			if page.Cached {
				cached.Add(1)
			}
			pages[i] = page
			r.progress.Step()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, classify(StageFetch, "fetch chapters", err)
	}

	r.result.CachedChapters = int(cached.Load())
	logger.Info("chapters fetched",
		logging.Int("chapters", len(pages)),
		logging.Int("cached", r.result.CachedChapters),
	)
	return pages, nil
}

func (r *run) render(ctx context.Context, pages []*glowfic.ChapterPage) ([]render.Chapter, *images.Registry, *render.AuthorSet, error) {
	ctx, logger := r.stage(ctx, StageRender)
	r.progress.Begin(StageRender, len(pages))
	defer r.progress.End()

	reg := images.NewRegistry()
	for i, page := range pages {
		if err := render.RegisterIcons(page.Posts, reg); err != nil {
			return nil, nil, nil, classify(StageRender, fmt.Sprintf("register avatars of chapter %d", i+1), err)
		}
	}
	reg.Seal()

	authors := render.NewAuthorSet()
	renderer := render.NewRenderer(reg, authors)
	chapters := make([]render.Chapter, len(pages))
	for i, page := range pages {
		chapter, err := renderer.RenderChapter(page, r.cfg.Book.SectionSizeLimit)
		if err != nil {
			return nil, nil, nil, classify(StageRender, fmt.Sprintf("render chapter %d (%s)", i+1, page.Location.URL), err)
		}
		chapters[i] = chapter
		r.result.Posts += len(page.Posts)
		r.result.Sections += len(chapter.Sections)
		r.progress.Step()
		logging.WithContext(services.WithChapter(ctx, i+1), logger).Debug("chapter rendered",
			logging.String("title", chapter.Title),
			logging.Int("posts", len(page.Posts)),
			logging.Int("sections", len(chapter.Sections)),
		)
	}
	r.result.Authors = authors.Names()
	logger.Info("chapters rendered",
		logging.Int("sections", r.result.Sections),
		logging.Int("posts", r.result.Posts),
		logging.Int("authors", len(r.result.Authors)),
		logging.Int("images", reg.Len()),
	)
	return chapters, reg, authors, nil
}

func (r *run) link(ctx context.Context, chapters []render.Chapter) (epub.Layout, error) {
	_, logger := r.stage(ctx, StageLinks)

	layout, err := epub.NameSections(chapters)
	if err != nil {
		return epub.Layout{}, classify(StageLinks, "name sections", err)
	}
	idx := links.BuildIndex(r.client.BaseURL(), chapters, layout.Hrefs())
	stats := links.Rewrite(chapters, idx)
	r.result.InternalLinks = stats.Internal
	r.result.ExternalLinks = stats.External
	logger.Info("links rewritten",
		logging.Int("indexed_posts", idx.Len()),
		logging.Int("internal", stats.Internal),
		logging.Int("external", stats.External),
	)
	return layout, nil
}

func (r *run) images(ctx context.Context, reg *images.Registry) ([]images.Asset, error) {
	ctx, logger := r.stage(ctx, StageImages)
	r.progress.Begin(StageImages, reg.Len())
	defer r.progress.End()

	downloader := images.NewDownloader(logging.WithContext(ctx, r.opts.Logger),
		images.WithHTTPClient(r.opts.HTTPClient),
		images.WithTimeout(r.cfg.ImageTimeout()),
		images.WithBaseURL(r.client.BaseURL()),
		images.WithUserAgent(r.cfg.Origin.UserAgent),
	)
	downloader.OnDone = func(images.Entry, error) { r.progress.Step() }

	assets, err := downloader.Download(ctx, reg)
	if err != nil {
		return nil, classify(StageImages, "download avatars", err)
	}
	r.result.ImagesDownloaded = len(assets)
	r.result.ImagesFailed = reg.Len() - len(assets)
	logger.Info("avatars downloaded",
		logging.Int("downloaded", r.result.ImagesDownloaded),
		logging.Int("failed", r.result.ImagesFailed),
	)
	return assets, nil
}

func (r *run) assemble(ctx context.Context, location string, spec *glowfic.BookSpec, chapters []render.Chapter, layout epub.Layout, authors *render.AuthorSet, assets []images.Asset) error {
	_, logger := r.stage(ctx, StageAssemble)
	r.progress.Begin(StageAssemble, -1)
	defer r.progress.End()

	modified := spec.LastUpdate()
	if modified.IsZero() {
		modified = r.opts.now()
	}
	meta := epub.Metadata{
		Identifier: BookIdentifier(location),
		Title:      BookTitle(spec.Title),
		Language:   r.cfg.Book.Language,
		Authors:    authors.Names(),
		Modified:   modified,
	}
	book, err := epub.Assemble(meta, chapters, layout, assets)
	if err != nil {
		return classify(StageAssemble, "serialize sections", err)
	}

	name, err := OutputName(spec.Title)
	if err != nil {
		return services.Wrap(services.ErrValidation, StageAssemble, "output name", spec.Title, err)
	}
	target := filepath.Join(r.cfg.Paths.OutputDir, name)
	written, err := book.WriteFile(target)
	if err != nil {
		return classify(StageAssemble, "write "+target, err)
	}
	r.progress.Step()

	r.result.Path = target
	r.result.Bytes = written
	logger.Debug("book assembled",
		logging.String("path", target),
		logging.Int("documents", book.SectionCount()),
		logging.Int64("bytes", written),
	)
	return nil
}
