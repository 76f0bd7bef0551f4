package main

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"fellowmatch/config"
	"fellowmatch/infra/journal"
	"fellowmatch/infra/metrics"
	"fellowmatch/infra/outbox"
	"fellowmatch/infra/sequence"
	"fellowmatch/infra/store"
	"fellowmatch/infra/store/pebblestore"
	"fellowmatch/infra/store/sqlstore"
	"fellowmatch/service"
	"fellowmatch/snapshot"
)

// app owns every resource the engine holds open.
type app struct {
	store   store.Store
	journal *journal.Journal
	outbox  *outbox.Outbox
	metrics *metrics.Metrics
	svc     *service.MatchService
	log     *zap.Logger
}

func openStore(c config.StoreConfig) (store.Store, error) {
	switch c.Driver {
	case config.DriverSQLite:
		return sqlstore.Open(c.SQLitePath)
	default:
		return pebblestore.Open(c.PebbleDir)
	}
}

// openApp replays the journal before anything else so sequence numbers
// continue where the last process stopped.
func openApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	seq := sequence.New(0)
	if _, err := service.ReplayJournal(cfg.Journal.Dir, seq, log, nil); err != nil {
		return nil, err
	}

	a := &app{log: log}
	var err error

	// ---------------- Store ----------------

	if a.store, err = openStore(cfg.Store); err != nil {
		return nil, errors.Wrapf(err, "open %s store", cfg.Store.Driver)
	}

	// ---------------- Journal ----------------

	a.journal, err = journal.Open(journal.Config{
		Dir:             cfg.Journal.Dir,
		SegmentSize:     cfg.Journal.SegmentSize,
		SyncEveryAppend: cfg.Journal.SyncEveryAppend,
	})
	if err != nil {
		a.Close()
		return nil, err
	}

	// ---------------- Outbox ----------------

	if a.outbox, err = outbox.Open(cfg.Outbox.Dir); err != nil {
		a.Close()
		return nil, err
	}

	// ---------------- Service ----------------

	a.metrics = metrics.New()
	a.svc = service.NewMatchService(
		a.store,
		a.journal,
		a.outbox,
		&snapshot.Writer{Dir: cfg.Snapshots.Dir},
		seq,
		log,
	)
	a.svc.SetObserver(a.metrics)
	return a, nil
}

func (a *app) Close() {
	if a.outbox != nil {
		if err := a.outbox.Close(); err != nil {
			a.log.Warn("close outbox", zap.Error(err))
		}
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			a.log.Warn("close journal", zap.Error(err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("close store", zap.Error(err))
		}
	}
}
