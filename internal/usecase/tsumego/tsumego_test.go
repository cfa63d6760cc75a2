package tsumego

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domain "tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
	"tsumego_exe/internal/repository"
)

func rows(player uint64) domain.PositionJSON {
	return domain.PositionJSON{
		VisualArea:  []uint64{511, 511},
		LogicalArea: []uint64{511, 511},
		Player:      []uint64{player},
	}
}

func dual(low, high float64) *domain.DualBound {
	b := domain.Bound{Low: low, High: high}
	return &domain.DualBound{Plain: b, Forcing: b}
}

func sampleGraph(t *testing.T) *repository.SolvedGraph {
	t.Helper()
	six := 6.0
	g, err := repository.BuildSolvedGraph(repository.GraphFile{
		Slug:  "sample",
		Moves: []domain.Coordinate{{X: 0, Y: 0}, {X: 1, Y: 0}},
		Nodes: []repository.GraphFileNode{
			{State: rows(1), Value: dual(0, 6), Edges: []repository.GraphFileEdge{
				{Move: 0, Result: domain.Normal, Child: 1},
				{Move: 1, Result: domain.Normal, Child: 2},
			}},
			{State: rows(2), Value: dual(-6, -6), Edges: []repository.GraphFileEdge{
				{Move: 1, Result: domain.TakeTarget, Child: 3, Score: &six},
			}},
			{State: rows(3), Value: dual(2, 0)},
			{State: rows(4)},
		},
	})
	require.NoError(t, err)
	return g
}

func sampleCollections() []domain.Collection {
	return []domain.Collection{
		{
			Slug:  "sample",
			Title: "Sample",
			Root:  rows(1),
			Tsumegos: []domain.Tsumego{
				{Slug: "root", Subtitle: "Black to play", State: rows(1), Value: &domain.Bound{Low: 0, High: 6}},
				{Slug: "after-a", Subtitle: "White to play", State: rows(2), Value: &domain.Bound{Low: 0, High: 0}, BotToPlay: true},
				{Slug: "unverified", State: rows(3)},
			},
		},
		{Slug: "ungraphed", Title: "No graph yet"},
	}
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]domain.AnalysisResult
	gets    int
	hits    int
	getErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]domain.AnalysisResult)}
}

func (c *fakeCache) Get(_ context.Context, slug string, position domain.Position) (*domain.AnalysisResult, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.entries[slug+position.HexKey()]
	if !ok {
		return nil, false, nil
	}
	c.hits++
	return &r, true, nil
}

func (c *fakeCache) Put(_ context.Context, slug string, position domain.Position, result domain.AnalysisResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[slug+position.HexKey()] = result
	return nil
}

func newTestUseCase(t *testing.T, cache AnalysisCache) *TsumegoUseCase {
	t.Helper()
	analyzer, err := NewLocalAnalyzer(sampleGraph(t))
	require.NoError(t, err)
	store := repository.NewMemoryCollectionStorage(sampleCollections()...)
	return NewTsumegoUseCase(zap.NewNop().Sugar(), store, cache, analyzer, 2)
}

func TestCollectionsOnlyListsGraphedCollections(t *testing.T) {
	uc := newTestUseCase(t, nil)

	resp, err := uc.Collections(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.CollectionSummary{{Slug: "sample", Title: "Sample"}}, resp.Collections)

	_, err = uc.Collection(context.Background(), "ungraphed")
	assert.ErrorIs(t, err, errors.ErrCollectionNotFound)
}

func TestCollectionAndTsumego(t *testing.T) {
	uc := newTestUseCase(t, nil)
	ctx := context.Background()

	col, err := uc.Collection(ctx, "sample")
	require.NoError(t, err)
	assert.Equal(t, "Sample", col.Title)
	assert.Equal(t, rows(1), col.Root)
	require.Len(t, col.Tsumegos, 3)
	assert.Equal(t, domain.TsumegoSummary{Slug: "after-a", Subtitle: "White to play"}, col.Tsumegos[1])

	ts, err := uc.Tsumego(ctx, "sample", "after-a")
	require.NoError(t, err)
	assert.Equal(t, domain.TsumegoResponse{Title: "Sample", Subtitle: "White to play", State: rows(2), BotToPlay: true}, ts)

	_, err = uc.Tsumego(ctx, "sample", "missing")
	assert.ErrorIs(t, err, errors.ErrTsumegoNotFound)
	_, err = uc.Tsumego(ctx, "ungraphed", "root")
	assert.ErrorIs(t, err, errors.ErrCollectionNotFound)
}

func TestAnalyzeUsesCache(t *testing.T) {
	cache := newFakeCache()
	uc := newTestUseCase(t, cache)
	ctx := context.Background()

	first, err := uc.Analyze(ctx, "sample", rows(1))
	require.NoError(t, err)
	assert.Equal(t, 0.0, first.Low)
	assert.Equal(t, 6.0, first.High)
	assert.Equal(t, []domain.Coordinate{{X: 1, Y: 0}}, first.LowPrincipal)

	second, err := uc.Analyze(ctx, "sample", rows(1))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2, cache.gets)
	assert.Equal(t, 1, cache.hits)
}

func TestAnalyzeCacheFailureFallsBack(t *testing.T) {
	cache := newFakeCache()
	cache.getErr = fmt.Errorf("connection refused")
	uc := newTestUseCase(t, cache)

	result, err := uc.Analyze(context.Background(), "sample", rows(1))
	require.NoError(t, err)
	assert.Len(t, result.Moves, 2)
}

func TestAnalyzeErrors(t *testing.T) {
	uc := newTestUseCase(t, nil)
	ctx := context.Background()

	_, err := uc.Analyze(ctx, "ungraphed", rows(1))
	assert.ErrorIs(t, err, errors.ErrCollectionNotFound)

	_, err = uc.Analyze(ctx, "sample", domain.PositionJSON{Player: []uint64{1024}})
	assert.ErrorIs(t, err, errors.ErrMalformedPosition)

	_, err = uc.Analyze(ctx, "sample", rows(7))
	assert.ErrorIs(t, err, errors.ErrValueNotFound)
}

func TestVerifyCollection(t *testing.T) {
	uc := newTestUseCase(t, newFakeCache())

	report, err := uc.VerifyCollection(context.Background(), "sample")
	require.NoError(t, err)
	assert.Equal(t, "sample", report.Collection)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, []domain.VerificationMismatch{{
		Slug:     "after-a",
		Expected: domain.Bound{Low: 0, High: 0},
		Actual:   domain.Bound{Low: -6, High: -6},
	}}, report.Mismatches)

	_, err = uc.VerifyCollection(context.Background(), "ungraphed")
	assert.ErrorIs(t, err, errors.ErrCollectionNotFound)
}

func TestLocalAnalyzerRejectsDuplicatesAndWidth(t *testing.T) {
	g := sampleGraph(t)
	_, err := NewLocalAnalyzer(g, g)
	assert.Error(t, err)

	analyzer, err := NewLocalAnalyzer(g)
	require.NoError(t, err)
	wide := g.Root()
	wide.Wide = true
	_, err = analyzer.Analyze(context.Background(), "sample", wide)
	assert.ErrorIs(t, err, errors.ErrMalformedPosition)

	s, ok := analyzer.Session("sample")
	require.True(t, ok)
	assert.Equal(t, g.Root(), s.Root())
}
