package tsumego

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	domain "tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
	"tsumego_exe/internal/metrics"
)

type CollectionStore interface {
	List(ctx context.Context) ([]domain.Collection, error)
	GetBySlug(ctx context.Context, slug string) (domain.Collection, error)
	GetTsumego(ctx context.Context, slug, tsumegoSlug string) (domain.Collection, domain.Tsumego, error)
}

type AnalysisCache interface {
	Get(ctx context.Context, slug string, position domain.Position) (*domain.AnalysisResult, bool, error)
	Put(ctx context.Context, slug string, position domain.Position, result domain.AnalysisResult) error
}

// Analyzer runs AnalyzeState for a collection, in process or on the analysis service.
type Analyzer interface {
	Serves(slug string) bool
	Analyze(ctx context.Context, slug string, position domain.Position) (domain.AnalysisResult, error)
}

type TsumegoUseCase struct {
	log               *zap.SugaredLogger
	store             CollectionStore
	cache             AnalysisCache
	analyzer          Analyzer
	verifyParallelism int

	widthsMu sync.RWMutex
	widths   map[string]bool
}

// NewTsumegoUseCase builds the use case. cache may be nil.
func NewTsumegoUseCase(log *zap.SugaredLogger, store CollectionStore, cache AnalysisCache, analyzer Analyzer, verifyParallelism int) *TsumegoUseCase {
	if verifyParallelism < 1 {
		verifyParallelism = 1
	}
	return &TsumegoUseCase{
		log:               log,
		store:             store,
		cache:             cache,
		analyzer:          analyzer,
		verifyParallelism: verifyParallelism,
		widths:            make(map[string]bool),
	}
}

func (t *TsumegoUseCase) Collections(ctx context.Context) (domain.CollectionsResponse, error) {
	collections, err := t.store.List(ctx)
	if err != nil {
		return domain.CollectionsResponse{}, err
	}
	resp := domain.CollectionsResponse{Collections: make([]domain.CollectionSummary, 0, len(collections))}
	for _, c := range collections {
		if !t.analyzer.Serves(c.Slug) {
			continue
		}
		resp.Collections = append(resp.Collections, domain.CollectionSummary{Slug: c.Slug, Title: c.Title})
	}
	return resp, nil
}

func (t *TsumegoUseCase) collection(ctx context.Context, slug string) (domain.Collection, error) {
	if !t.analyzer.Serves(slug) {
		return domain.Collection{}, fmt.Errorf("%w: %s", errors.ErrCollectionNotFound, slug)
	}
	collection, err := t.store.GetBySlug(ctx, slug)
	if err != nil {
		return collection, err
	}
	t.widthsMu.Lock()
	t.widths[slug] = collection.Wide
	t.widthsMu.Unlock()
	return collection, nil
}

func (t *TsumegoUseCase) Collection(ctx context.Context, slug string) (domain.CollectionResponse, error) {
	collection, err := t.collection(ctx, slug)
	if err != nil {
		return domain.CollectionResponse{}, err
	}
	resp := domain.CollectionResponse{
		Title:    collection.Title,
		Root:     collection.Root,
		Tsumegos: make([]domain.TsumegoSummary, 0, len(collection.Tsumegos)),
	}
	for _, ts := range collection.Tsumegos {
		resp.Tsumegos = append(resp.Tsumegos, domain.TsumegoSummary{Slug: ts.Slug, Subtitle: ts.Subtitle})
	}
	return resp, nil
}

func (t *TsumegoUseCase) Tsumego(ctx context.Context, slug, tsumegoSlug string) (domain.TsumegoResponse, error) {
	if !t.analyzer.Serves(slug) {
		return domain.TsumegoResponse{}, fmt.Errorf("%w: %s", errors.ErrCollectionNotFound, slug)
	}
	collection, ts, err := t.store.GetTsumego(ctx, slug, tsumegoSlug)
	if err != nil {
		return domain.TsumegoResponse{}, err
	}
	return domain.TsumegoResponse{
		Title:     collection.Title,
		Subtitle:  ts.Subtitle,
		State:     ts.State,
		BotToPlay: ts.BotToPlay,
	}, nil
}

func (t *TsumegoUseCase) wide(ctx context.Context, slug string) (bool, error) {
	t.widthsMu.RLock()
	wide, ok := t.widths[slug]
	t.widthsMu.RUnlock()
	if ok {
		return wide, nil
	}
	collection, err := t.collection(ctx, slug)
	if err != nil {
		return false, err
	}
	return collection.Wide, nil
}

// Analyze decodes state with the collection's board width and reports every legal move.
func (t *TsumegoUseCase) Analyze(ctx context.Context, slug string, state domain.PositionJSON) (domain.AnalysisResult, error) {
	wide, err := t.wide(ctx, slug)
	if err != nil {
		return domain.AnalysisResult{}, err
	}
	if err = state.Validate(wide); err != nil {
		return domain.AnalysisResult{}, err
	}
	return t.analyzePosition(ctx, slug, state.Decode(wide))
}

func (t *TsumegoUseCase) analyzePosition(ctx context.Context, slug string, position domain.Position) (domain.AnalysisResult, error) {
	if t.cache != nil {
		cached, ok, err := t.cache.Get(ctx, slug, position)
		switch {
		case err != nil:
			metrics.CacheError()
			t.log.Warnf("analysis cache get %s: %v", slug, err)
		case ok:
			metrics.CacheHit()
			return *cached, nil
		default:
			metrics.CacheMiss()
		}
	}

	started := time.Now()
	result, err := t.analyzer.Analyze(ctx, slug, position)
	metrics.ObserveAnalysis(slug, started, err)
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	if t.cache != nil {
		if err = t.cache.Put(ctx, slug, position, result); err != nil {
			metrics.CacheError()
			t.log.Warnf("analysis cache put %s: %v", slug, err)
		}
	}
	return result, nil
}

// VerifyCollection analyses every tsumego with a recorded value and reports those whose
// solved bound differs from it.
func (t *TsumegoUseCase) VerifyCollection(ctx context.Context, slug string) (domain.VerificationReport, error) {
	collection, err := t.collection(ctx, slug)
	if err != nil {
		return domain.VerificationReport{}, err
	}

	actual := make([]*domain.Bound, len(collection.Tsumegos))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.verifyParallelism)
	for i, ts := range collection.Tsumegos {
		if ts.Value == nil {
			continue
		}
		i, ts := i, ts
		g.Go(func() error {
			if err := ts.State.Validate(collection.Wide); err != nil {
				return fmt.Errorf("tsumego %s: %w", ts.Slug, err)
			}
			result, err := t.analyzePosition(gctx, slug, ts.State.Decode(collection.Wide))
			if err != nil {
				return fmt.Errorf("tsumego %s: %w", ts.Slug, err)
			}
			actual[i] = &domain.Bound{Low: result.Low, High: result.High}
			return nil
		})
	}
	if err = g.Wait(); err != nil {
		return domain.VerificationReport{}, err
	}

	report := domain.VerificationReport{
		Collection: slug,
		Mismatches: make([]domain.VerificationMismatch, 0),
	}
	for i, ts := range collection.Tsumegos {
		if actual[i] == nil {
			continue
		}
		report.Checked++
		if *actual[i] != *ts.Value {
			report.Mismatches = append(report.Mismatches, domain.VerificationMismatch{
				Slug:     ts.Slug,
				Expected: *ts.Value,
				Actual:   *actual[i],
			})
		}
	}
	if len(report.Mismatches) > 0 {
		metrics.VerificationMismatches(slug, len(report.Mismatches))
		t.log.Warnf("collection %s: %d of %d tsumegos do not match their recorded value", slug, len(report.Mismatches), report.Checked)
	}
	return report, nil
}
