package adapters

import (
	"context"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"tsumego_exe/internal/bootstrap"
)

type AdapterBadger struct {
	DB  *badger.DB
	cfg *bootstrap.Config
	log *zap.SugaredLogger
}

func NewAdapterBadger(cfg *bootstrap.Config, log *zap.SugaredLogger) *AdapterBadger {
	return &AdapterBadger{
		cfg: cfg,
		log: log,
	}
}

// Init opens the graph database at BADGER_PATH, or an in-memory one when the path is empty.
func (a *AdapterBadger) Init(ctx context.Context) error {
	var opts badger.Options
	if a.cfg.BadgerPath == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(a.cfg.BadgerPath, 0750); err != nil {
			return fmt.Errorf("create badger directory %s: %w", a.cfg.BadgerPath, err)
		}
		opts = badger.DefaultOptions(a.cfg.BadgerPath)
	}
	opts = opts.WithNumVersionsToKeep(1)
	if a.log != nil {
		opts = opts.WithLogger(&badgerLogger{log: a.log})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("open badger database: %w", err)
	}
	a.DB = db

	if a.log != nil {
		a.log.Infof("badger opened at %q", a.cfg.BadgerPath)
	}
	return nil
}

func (a *AdapterBadger) Close(ctx context.Context) error {
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}

type badgerLogger struct {
	log *zap.SugaredLogger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Errorf(format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warnf(format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debugf(format, args...)
}
