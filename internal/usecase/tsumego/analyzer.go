package tsumego

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domain "tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
	"tsumego_exe/internal/usecase/analysis"
	analysisProto "tsumego_exe/microservices/proto"
)

// NamedGraph is a solved graph that knows its collection.
type NamedGraph interface {
	analysis.Graph
	Slug() string
}

// LocalAnalyzer analyses positions in process, one session per collection.
type LocalAnalyzer struct {
	sessions map[string]*analysis.Session
}

func NewLocalAnalyzer(graphs ...NamedGraph) (*LocalAnalyzer, error) {
	sessions := make(map[string]*analysis.Session, len(graphs))
	for _, g := range graphs {
		if _, dup := sessions[g.Slug()]; dup {
			return nil, fmt.Errorf("duplicate graph for collection %s", g.Slug())
		}
		s, err := analysis.NewGraphSession(g)
		if err != nil {
			return nil, fmt.Errorf("collection %s: %w", g.Slug(), err)
		}
		sessions[g.Slug()] = s
	}
	return &LocalAnalyzer{sessions: sessions}, nil
}

func (l *LocalAnalyzer) Serves(slug string) bool {
	_, ok := l.sessions[slug]
	return ok
}

func (l *LocalAnalyzer) Session(slug string) (*analysis.Session, bool) {
	s, ok := l.sessions[slug]
	return s, ok
}

func (l *LocalAnalyzer) Analyze(ctx context.Context, slug string, position domain.Position) (domain.AnalysisResult, error) {
	s, ok := l.sessions[slug]
	if !ok {
		return domain.AnalysisResult{}, fmt.Errorf("%w: %s", errors.ErrCollectionNotFound, slug)
	}
	if position.Wide != s.Wide() {
		return domain.AnalysisResult{}, fmt.Errorf("%w: board width differs from collection %s", errors.ErrMalformedPosition, slug)
	}
	return analysis.AnalyzeState(s, position)
}

// RemoteAnalyzer forwards analyses to the analysis service.
type RemoteAnalyzer struct {
	log    *zap.SugaredLogger
	client analysisProto.AnalysisServiceClient
}

func NewRemoteAnalyzer(log *zap.SugaredLogger, client analysisProto.AnalysisServiceClient) *RemoteAnalyzer {
	return &RemoteAnalyzer{
		log:    log,
		client: client,
	}
}

// Serves is always true; the service answers NotFound for collections it has no graph for.
func (r *RemoteAnalyzer) Serves(string) bool {
	return true
}

func (r *RemoteAnalyzer) Analyze(ctx context.Context, slug string, position domain.Position) (domain.AnalysisResult, error) {
	requestID := uuid.New().String()
	req, err := analysisProto.NewAnalyzeRequest(analysisProto.AnalyzeRequest{
		Collection: slug,
		Wide:       position.Wide,
		State:      position.JSON(),
		RequestID:  requestID,
	})
	if err != nil {
		return domain.AnalysisResult{}, err
	}

	resp, err := r.client.Analyze(ctx, req)
	if err != nil {
		r.log.Errorw("remote analysis failed", "collection", slug, "requestId", requestID, "error", err)
		return domain.AnalysisResult{}, analysisProto.StatusToError(err)
	}
	return analysisProto.ParseAnalyzeResponse(resp)
}
