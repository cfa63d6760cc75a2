package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"google.golang.org/grpc"

	"tsumego_exe/internal/adapters"
	"tsumego_exe/internal/bootstrap"
	"tsumego_exe/internal/repository"
	tsumegoUC "tsumego_exe/internal/usecase/tsumego"
	analysisRPC "tsumego_exe/microservices/proto"
	"tsumego_exe/microservices/usecase"
)

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	badgerAdapter := adapters.NewAdapterBadger(cfg, logger)
	if err = badgerAdapter.Init(ctx); err != nil {
		logger.Fatal("Failed to initialize Badger", zap.Error(err))
	}
	defer badgerAdapter.Close(ctx)

	graphs, err := repository.LoadGraphs(ctx, logger, cfg.GraphDir, repository.NewGraphBadgerStore(badgerAdapter.DB))
	if err != nil {
		logger.Fatal("Failed to load solved graphs", zap.Error(err))
	}
	named := make([]tsumegoUC.NamedGraph, 0, len(graphs))
	for _, g := range graphs {
		named = append(named, g)
	}
	analyzer, err := tsumegoUC.NewLocalAnalyzer(named...)
	if err != nil {
		logger.Fatal("Failed to build analysis sessions", zap.Error(err))
	}

	lis, err := net.Listen("tcp", ":"+cfg.AnalysisGrpcPort)
	if err != nil {
		logger.Fatal("Failed to listen", zap.Error(err))
	}

	server := grpc.NewServer()
	analysisRPC.RegisterAnalysisServiceServer(server, usecase.NewAnalysisUseCase(logger, analyzer))

	go func() {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		<-sigs
		logger.Info("Received shutdown signal")
		server.GracefulStop()
	}()

	logger.Infof("Analysis service with %d collections is running on port %s", len(graphs), cfg.AnalysisGrpcPort)
	if err = server.Serve(lis); err != nil {
		logger.Fatal("Failed to serve", zap.Error(err))
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	return logger.Sugar()
}
