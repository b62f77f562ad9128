package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chainsight/measures/pkg/dataset"
	"github.com/chainsight/measures/pkg/filter"
	"github.com/chainsight/measures/pkg/measures"
	"github.com/chainsight/measures/pkg/observability"
)

// Executor drives batch evaluation of measures against an execution context,
// respecting dependency order. It holds no per-run state: each batch call
// owns its own memoization table, so concurrent calls are isolated. The
// registry reference may be swapped at runtime (definition reload); each
// batch snapshots it on entry.
type Executor struct {
	mu       sync.RWMutex
	registry *measures.Registry

	datasets dataset.Client
	log      logrus.FieldLogger
	now      func() time.Time
}

// NewExecutor creates an executor over a finalized registry and a dataset client
func NewExecutor(registry *measures.Registry, datasets dataset.Client, log logrus.FieldLogger) *Executor {
	return &Executor{
		registry: registry,
		datasets: datasets,
		log:      log.WithField("component", "engine"),
		now:      time.Now,
	}
}

// evaluation is the state of one batch call: the context, caller filters and
// the memoization table keyed by (measure key, context fingerprint).
type evaluation struct {
	exec        *Executor
	registry    *measures.Registry
	mctx        *Context
	extra       *filter.Logic
	fingerprint string
	memo        map[string]float64
	failed      map[string]error
	log         logrus.FieldLogger
}

// ExecuteMeasure evaluates one measure against the context
func (e *Executor) ExecuteMeasure(ctx context.Context, key string, extraFilters *filter.Logic, mctx *Context) (float64, error) {
	results, err := e.ExecuteBatch(ctx, []string{key}, extraFilters, mctx)
	if err != nil {
		return 0, err
	}

	return results[key], nil
}

// ExecuteBatch evaluates the requested measures and their full transitive
// dependency closure, level by level. Shared dependencies are computed once
// per call. The returned map holds only the requested keys; a failed measure
// fails its dependents but siblings without that dependency still complete.
func (e *Executor) ExecuteBatch(ctx context.Context, keys []string, extraFilters *filter.Logic, mctx *Context) (map[string]float64, error) {
	if err := mctx.Validate(); err != nil {
		return nil, err
	}

	registry := e.Registry()

	graph, err := registry.BuildDependencyGraph(keys)
	if err != nil {
		observability.BatchesTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	order, err := measures.TopologicalSort(graph)
	if err != nil {
		observability.BatchesTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	levels := measures.GroupByLevel(graph, order)
	observability.BatchSize.Observe(float64(len(order)))

	runID := uuid.NewString()
	ev := &evaluation{
		exec:        e,
		registry:    registry,
		mctx:        mctx,
		extra:       extraFilters,
		fingerprint: mctx.Fingerprint(),
		memo:        make(map[string]float64, len(order)),
		failed:      make(map[string]error),
		log:         e.log.WithField("run", runID),
	}

	ev.log.WithField("requested", len(keys)).
		WithField("resolved", len(order)).
		WithField("levels", len(levels)).
		Debug("Starting batch evaluation")

	for _, level := range levels {
		for _, key := range level {
			if depErr := ev.failedDependency(graph, key); depErr != nil {
				ev.failed[key] = depErr
				continue
			}

			if _, evalErr := ev.evaluateMeasure(ctx, key); evalErr != nil {
				ev.log.WithError(evalErr).WithField("measure", key).Error("Measure evaluation failed")
			}
		}
	}

	results := make(map[string]float64, len(keys))
	var errs []error
	for _, key := range keys {
		if failErr, ok := ev.failed[key]; ok {
			errs = append(errs, failErr)
			continue
		}
		results[key] = ev.memo[ev.memoKey(key)]
	}

	if len(errs) > 0 {
		observability.BatchesTotal.WithLabelValues("failed").Inc()
		return results, errors.Join(errs...)
	}

	observability.BatchesTotal.WithLabelValues("success").Inc()

	return results, nil
}

// Registry exposes the current registry for introspection surfaces
func (e *Executor) Registry() *measures.Registry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.registry
}

// ReplaceRegistry swaps the registry, typically after a definition reload.
// In-flight batches keep the snapshot they started with.
func (e *Executor) ReplaceRegistry(registry *measures.Registry) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.registry = registry
}

func (ev *evaluation) memoKey(measureKey string) string {
	return measureKey + "||" + ev.fingerprint
}

// failedDependency reports the first failed direct dependency of a measure
func (ev *evaluation) failedDependency(graph measures.Graph, key string) error {
	for _, dep := range graph[key] {
		if depErr, ok := ev.failed[dep]; ok {
			return fmt.Errorf("measure %s: %w: %s: %w", key, ErrDependencyFailed, dep, depErr)
		}
	}

	return nil
}

// evaluateMeasure resolves every component of one measure and folds them.
// Results are memoized for the duration of the batch call; measure-typed
// sources recurse through here, so shared dependencies are computed once.
func (ev *evaluation) evaluateMeasure(ctx context.Context, key string) (float64, error) {
	if value, ok := ev.memo[ev.memoKey(key)]; ok {
		observability.EvaluationsTotal.WithLabelValues(key, "memoized").Inc()
		return value, nil
	}
	if failErr, ok := ev.failed[key]; ok {
		return 0, failErr
	}

	m, err := ev.registry.Get(key)
	if err != nil {
		ev.failed[key] = err
		return 0, err
	}

	started := time.Now()

	components := m.OrderedComponents()
	values := make([]float64, len(components))
	for i := range components {
		value, resolveErr := ev.resolveComponent(ctx, m, &components[i])
		if resolveErr != nil {
			observability.EvaluationsTotal.WithLabelValues(key, "failed").Inc()
			ev.failed[key] = resolveErr
			return 0, resolveErr
		}
		values[i] = value
	}

	result := compose(components, values)
	ev.memo[ev.memoKey(key)] = result

	observability.EvaluationsTotal.WithLabelValues(key, "success").Inc()
	observability.EvaluationDuration.WithLabelValues(key).Observe(time.Since(started).Seconds())

	ev.log.WithField("measure", key).
		WithField("result", result).
		Debug("Measure evaluated")

	return result, nil
}
