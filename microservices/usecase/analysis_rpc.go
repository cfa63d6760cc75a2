package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"

	"tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
	"tsumego_exe/internal/metrics"
	analysisRPC "tsumego_exe/microservices/proto"
)

type Analyzer interface {
	Analyze(ctx context.Context, slug string, position tsumego.Position) (tsumego.AnalysisResult, error)
}

type AnalysisUseCase struct {
	log      *zap.SugaredLogger
	analyzer Analyzer
	analysisRPC.UnimplementedAnalysisServiceServer
}

func NewAnalysisUseCase(log *zap.SugaredLogger, analyzer Analyzer) *AnalysisUseCase {
	return &AnalysisUseCase{
		log:      log,
		analyzer: analyzer,
	}
}

func (a *AnalysisUseCase) Analyze(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	req, err := analysisRPC.ParseAnalyzeRequest(in)
	if err != nil {
		return nil, analysisRPC.ErrorToStatus(fmt.Errorf("%w: %v", errors.ErrMalformedPosition, err))
	}
	if err = req.State.Validate(req.Wide); err != nil {
		return nil, analysisRPC.ErrorToStatus(err)
	}

	started := time.Now()
	result, err := a.analyzer.Analyze(ctx, req.Collection, req.State.Decode(req.Wide))
	metrics.ObserveAnalysis(req.Collection, started, err)
	if err != nil {
		a.log.Warnw("analysis failed", "collection", req.Collection, "requestId", req.RequestID, "error", err)
		return nil, analysisRPC.ErrorToStatus(err)
	}
	a.log.Debugw("analysis done", "collection", req.Collection, "requestId", req.RequestID, "moves", len(result.Moves))

	return analysisRPC.NewAnalyzeResponse(result)
}
