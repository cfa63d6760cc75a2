package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"tsumego_exe/internal/adapters"
	"tsumego_exe/internal/bootstrap"
	tsumegoDelivery "tsumego_exe/internal/delivery/tsumego"
	ownMiddleware "tsumego_exe/internal/middleware"
	"tsumego_exe/internal/repository"
	tsumegoUC "tsumego_exe/internal/usecase/tsumego"
	analysisProto "tsumego_exe/microservices/proto"
)

type mainDeliveryHandler struct {
	tsumego *tsumegoDelivery.TsumegoHandler
}

type dataBaseAdapters struct {
	redisAdapter  *adapters.AdapterRedis
	mongoAdapter  *adapters.AdapterMongo
	badgerAdapter *adapters.AdapterBadger
}

func main() {
	logger := NewLogger()
	cfg, err := bootstrap.Setup(".env")
	if err != nil {
		logger.Error("Failed to setup configuration", zap.Error(err))
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go handleShutdown(cancel, logger)

	databaseAdapters := initDatabaseAdapters(ctx, logger, cfg)
	defer databaseAdapters.close(context.Background())

	analyzer, closeAnalyzer := initAnalyzer(ctx, logger, cfg, databaseAdapters.badgerAdapter)
	defer closeAnalyzer()

	r := chi.NewRouter()
	handlers := initializeDeliveryHandlers(ctx, cfg, logger, analyzer, databaseAdapters)
	handlers.Router(r, cfg.IsLocalCors)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Infof("Server is running on port %s", cfg.ServerPort)
	if err = server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}

func NewLogger() *zap.SugaredLogger {
	logger, err := zap.NewProduction()
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	return logger.Sugar()
}

func (h *mainDeliveryHandler) Router(r *chi.Mux, isLocalCors bool) {
	if isLocalCors {
		r.Use(ownMiddleware.CORS)
	}
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	h.tsumego.Register(r)
	r.Handle("/metrics", promhttp.Handler())
}

// initDatabaseAdapters connects the configured stores. MongoDB and Redis are optional:
// without MONGO_URI collections come from COLLECTIONS_FILE, without REDIS_URL nothing is cached.
func initDatabaseAdapters(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config) *dataBaseAdapters {
	result := &dataBaseAdapters{}

	if cfg.MongoUri != "" {
		result.mongoAdapter = adapters.NewAdapterMongo(cfg, log)
		if err := result.mongoAdapter.Init(ctx); err != nil {
			log.Fatal("Failed to initialize MongoDB", zap.Error(err))
		}
	}

	if cfg.RedisUrl != "" {
		result.redisAdapter = adapters.NewAdapterRedis(cfg, log)
		if err := result.redisAdapter.Init(ctx); err != nil {
			log.Fatal("Failed to initialize Redis", zap.Error(err))
		}
	}

	result.badgerAdapter = adapters.NewAdapterBadger(cfg, log)
	if err := result.badgerAdapter.Init(ctx); err != nil {
		log.Fatal("Failed to initialize Badger", zap.Error(err))
	}

	log.Info("Database adapters initialized")
	return result
}

func (d *dataBaseAdapters) close(ctx context.Context) {
	if d.mongoAdapter != nil {
		_ = d.mongoAdapter.Close(ctx)
	}
	if d.redisAdapter != nil {
		_ = d.redisAdapter.Close(ctx)
	}
	_ = d.badgerAdapter.Close(ctx)
}

// initAnalyzer uses the analysis service when ANALYSIS_GRPC_ADDR is set and local graphs otherwise.
func initAnalyzer(ctx context.Context, log *zap.SugaredLogger, cfg *bootstrap.Config, badgerAdapter *adapters.AdapterBadger) (tsumegoUC.Analyzer, func()) {
	if cfg.AnalysisGrpcAddr != "" {
		conn, err := grpc.NewClient(cfg.AnalysisGrpcAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
		if err != nil {
			log.Fatal("Failed to dial analysis service", zap.Error(err))
		}
		log.Infof("Analyses are forwarded to %s", cfg.AnalysisGrpcAddr)
		return tsumegoUC.NewRemoteAnalyzer(log, analysisProto.NewAnalysisServiceClient(conn)), func() { _ = conn.Close() }
	}

	graphs, err := repository.LoadGraphs(ctx, log, cfg.GraphDir, repository.NewGraphBadgerStore(badgerAdapter.DB))
	if err != nil {
		log.Fatal("Failed to load solved graphs", zap.Error(err))
	}
	named := make([]tsumegoUC.NamedGraph, 0, len(graphs))
	for _, g := range graphs {
		named = append(named, g)
	}
	analyzer, err := tsumegoUC.NewLocalAnalyzer(named...)
	if err != nil {
		log.Fatal("Failed to build analysis sessions", zap.Error(err))
	}
	log.Infof("%d collections ready for analysis", len(graphs))
	return analyzer, func() {}
}

func initializeDeliveryHandlers(
	ctx context.Context,
	cfg *bootstrap.Config,
	log *zap.SugaredLogger,
	analyzer tsumegoUC.Analyzer,
	databaseAdapters *dataBaseAdapters,
) *mainDeliveryHandler {
	var store tsumegoUC.CollectionStore
	if databaseAdapters.mongoAdapter != nil {
		store = repository.NewCollectionStorage(log, databaseAdapters.mongoAdapter.Database)
	} else {
		collections, err := repository.LoadCollectionsYAML(cfg.CollectionsFile)
		if err != nil {
			log.Fatal("Failed to load collections", zap.Error(err))
		}
		store = repository.NewMemoryCollectionStorage(collections...)
	}

	var cache tsumegoUC.AnalysisCache
	if databaseAdapters.redisAdapter != nil {
		cache = repository.NewAnalysisCache(databaseAdapters.redisAdapter.GetClient(), cfg.AnalysisCacheTTL)
	}

	useCase := tsumegoUC.NewTsumegoUseCase(log, store, cache, analyzer, cfg.VerifyParallelism)
	return &mainDeliveryHandler{
		tsumego: tsumegoDelivery.NewTsumegoHandler(log, useCase),
	}
}

func handleShutdown(cancelFunc context.CancelFunc, log *zap.SugaredLogger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	log.Info("Received shutdown signal")
	cancelFunc()
}
