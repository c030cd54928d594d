package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rflorenc/intune-workbench/internal/models"
)

// LoadResult is one aggregation run: the combined data plus the reason each
// degraded collection came back empty.
type LoadResult = models.Snapshot

// CollectionLoader is the set of per-kind loaders the Aggregator fans out to.
type CollectionLoader interface {
	Profiles(ctx context.Context) ([]models.Profile, error)
	Scripts(ctx context.Context) ([]models.Script, error)
	Compliance(ctx context.Context) ([]models.CompliancePolicy, error)
	Apps(ctx context.Context) ([]models.App, error)
}

// Aggregator runs every collection loader concurrently and isolates failures
// per collection.
type Aggregator struct {
	loaders CollectionLoader
	log     *zap.Logger
	now     func() time.Time
}

// NewAggregator creates an Aggregator over the given loaders.
func NewAggregator(loaders CollectionLoader, log *zap.Logger) *Aggregator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Aggregator{loaders: loaders, log: log, now: time.Now}
}

// LoadAll loads all four collections and waits for every one to settle. A
// failing collection degrades to empty and is recorded in Failures; LoadAll
// itself never fails. progress may be nil and must be safe for concurrent use.
func (a *Aggregator) LoadAll(ctx context.Context, progress func(string)) LoadResult {
	if progress == nil {
		progress = func(string) {}
	}
	data := models.NewAllData()
	failures := map[models.Kind]string{}
	var mu sync.Mutex

	g := new(errgroup.Group)
	run := func(kind models.Kind, load func() (int, error)) {
		g.Go(func() error {
			progress(fmt.Sprintf("Loading %s...", kind.Label()))
			n, err := load()
			if err != nil {
				a.log.Warn("collection degraded to empty", zap.String("kind", string(kind)), zap.Error(err))
				progress(fmt.Sprintf("WARNING: %s unavailable: %v", kind.Label(), err))
				mu.Lock()
				failures[kind] = err.Error()
				mu.Unlock()
				return nil
			}
			progress(fmt.Sprintf("Loaded %d %s", n, kind.Label()))
			return nil
		})
	}

	// Each goroutine writes only its own collection field.
	run(models.KindProfile, func() (int, error) {
		items, err := a.loaders.Profiles(ctx)
		if err == nil {
			data.Profiles = nonNil(items)
		}
		return len(items), err
	})
	run(models.KindScript, func() (int, error) {
		items, err := a.loaders.Scripts(ctx)
		if err == nil {
			data.Scripts = nonNil(items)
		}
		return len(items), err
	})
	run(models.KindCompliance, func() (int, error) {
		items, err := a.loaders.Compliance(ctx)
		if err == nil {
			data.Compliance = nonNil(items)
		}
		return len(items), err
	})
	run(models.KindApp, func() (int, error) {
		items, err := a.loaders.Apps(ctx)
		if err == nil {
			data.Apps = nonNil(items)
		}
		return len(items), err
	})
	_ = g.Wait()

	if len(failures) == 0 {
		failures = nil
	}
	a.log.Info("tenant data loaded",
		zap.Int("profiles", len(data.Profiles)),
		zap.Int("scripts", len(data.Scripts)),
		zap.Int("compliance", len(data.Compliance)),
		zap.Int("apps", len(data.Apps)),
		zap.Int("degraded", len(failures)))
	return LoadResult{Data: data, Failures: failures, LoadedAt: a.now()}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
