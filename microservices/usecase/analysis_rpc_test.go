package usecase

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"tsumego_exe/internal/domain/tsumego"
	"tsumego_exe/internal/errors"
	"tsumego_exe/internal/repository"
	tsumegoUC "tsumego_exe/internal/usecase/tsumego"
	analysisRPC "tsumego_exe/microservices/proto"
)

func rows(player uint64) tsumego.PositionJSON {
	return tsumego.PositionJSON{
		VisualArea:  []uint64{511, 511},
		LogicalArea: []uint64{511, 511},
		Player:      []uint64{player},
	}
}

func startAnalysisService(t *testing.T) (*tsumegoUC.LocalAnalyzer, analysisRPC.AnalysisServiceClient) {
	t.Helper()
	bound := tsumego.DualBound{Plain: tsumego.Bound{Low: 0, High: 0.5}, Forcing: tsumego.Bound{Low: 0, High: 0.5}}
	child := tsumego.DualBound{Plain: tsumego.Bound{Low: -0.5, High: 0}, Forcing: tsumego.Bound{Low: -0.5, High: 0}}
	g, err := repository.BuildSolvedGraph(repository.GraphFile{
		Slug:  "sample",
		Moves: []tsumego.Coordinate{{X: 2, Y: 1}, {X: -1, Y: -1}},
		Nodes: []repository.GraphFileNode{
			{State: rows(1), Value: &bound, Edges: []repository.GraphFileEdge{{Move: 0, Result: tsumego.Normal, Child: 1}}},
			{State: rows(2), Value: &child},
		},
	})
	require.NoError(t, err)
	analyzer, err := tsumegoUC.NewLocalAnalyzer(g)
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	server := grpc.NewServer()
	analysisRPC.RegisterAnalysisServiceServer(server, NewAnalysisUseCase(zap.NewNop().Sugar(), analyzer))
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return analyzer, analysisRPC.NewAnalysisServiceClient(conn)
}

func TestRemoteAnalysisMatchesLocal(t *testing.T) {
	local, client := startAnalysisService(t)
	remote := tsumegoUC.NewRemoteAnalyzer(zap.NewNop().Sugar(), client)
	ctx := context.Background()
	position := rows(1).Decode(false)

	want, err := local.Analyze(ctx, "sample", position)
	require.NoError(t, err)
	got, err := remote.Analyze(ctx, "sample", position)
	require.NoError(t, err)

	assert.Equal(t, want, got)
	assert.Equal(t, 0.5, got.High)
	assert.Equal(t, []tsumego.Coordinate{{X: 2, Y: 1}}, got.ForcingMoves)
}

func TestRemoteAnalysisErrors(t *testing.T) {
	_, client := startAnalysisService(t)
	remote := tsumegoUC.NewRemoteAnalyzer(zap.NewNop().Sugar(), client)
	ctx := context.Background()

	_, err := remote.Analyze(ctx, "unknown", rows(1).Decode(false))
	assert.ErrorIs(t, err, errors.ErrCollectionNotFound)

	_, err = remote.Analyze(ctx, "sample", rows(3).Decode(false))
	assert.ErrorIs(t, err, errors.ErrValueNotFound)

	_, err = remote.Analyze(ctx, "sample", rows(1).Decode(true))
	assert.ErrorIs(t, err, errors.ErrMalformedPosition)
}
