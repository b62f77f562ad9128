package measures

import (
	"fmt"
	"sort"

	"github.com/heimdalr/dag"
)

// Graph maps a measure key to the sorted set of measure keys it directly
// depends on. Every referenced key is also present as a vertex.
type Graph map[string][]string

// Keys returns the graph's vertices, sorted
func (g Graph) Keys() []string {
	keys := make([]string, 0, len(g))
	for key := range g {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	return keys
}

// BuildDependencyGraph collects the transitive closure of measure references
// starting from the requested keys, including references nested in
// conditional branches. A self-reference or cycle is a fatal configuration
// error, detected here before any evaluation begins.
func (r *Registry) BuildDependencyGraph(keys []string) (Graph, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	graph := make(Graph)

	queue := make([]string, 0, len(keys))
	queue = append(queue, keys...)

	for len(queue) > 0 {
		key := queue[0]
		queue = queue[1:]

		if _, done := graph[key]; done {
			continue
		}

		m, ok := r.measures[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMeasureNotFound, key)
		}

		deps := m.Dependencies()
		graph[key] = deps

		for _, dep := range deps {
			if _, known := r.measures[dep]; !known {
				return nil, fmt.Errorf("%w: %s references %s", ErrUnknownDependency, key, dep)
			}
			if _, done := graph[dep]; !done {
				queue = append(queue, dep)
			}
		}
	}

	if err := checkAcyclic(graph); err != nil {
		return nil, err
	}

	return graph, nil
}

// checkAcyclic rejects self-references and cycles. The heimdalr DAG refuses
// any edge that would close a loop, so a failed AddEdge is the detection.
func checkAcyclic(graph Graph) error {
	d := dag.NewDAG()

	for key := range graph {
		if err := d.AddVertexByID(key, key); err != nil {
			return fmt.Errorf("failed to add vertex %s: %w", key, err)
		}
	}

	for key, deps := range graph {
		for _, dep := range deps {
			if err := d.AddEdge(dep, key); err != nil {
				return fmt.Errorf("%w: %s -> %s: %v", ErrCircularDependency, dep, key, err)
			}
		}
	}

	return nil
}

// TopologicalSort orders the graph so every measure appears after all of its
// dependencies. Ties are broken by lexical key order, making the result
// deterministic for a given graph.
func TopologicalSort(graph Graph) ([]string, error) {
	remaining := make(map[string]int, len(graph))
	dependents := make(map[string][]string, len(graph))

	for key, deps := range graph {
		remaining[key] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], key)
		}
	}

	var ready []string
	for key, n := range remaining {
		if n == 0 {
			ready = append(ready, key)
		}
	}
	sort.Strings(ready)

	order := make([]string, 0, len(graph))
	for len(ready) > 0 {
		key := ready[0]
		ready = ready[1:]
		order = append(order, key)

		var released []string
		for _, dependent := range dependents[key] {
			remaining[dependent]--
			if remaining[dependent] == 0 {
				released = append(released, dependent)
			}
		}

		if len(released) > 0 {
			ready = append(ready, released...)
			sort.Strings(ready)
		}
	}

	if len(order) != len(graph) {
		return nil, fmt.Errorf("%w: %d of %d measures unorderable", ErrCircularDependency, len(graph)-len(order), len(graph))
	}

	return order, nil
}

// GroupByLevel partitions a topological order into levels: level 0 has no
// dependencies, level n depends only on measures in levels below n. Measures
// within one level are independent of each other and may be evaluated
// concurrently.
func GroupByLevel(graph Graph, order []string) [][]string {
	levelOf := make(map[string]int, len(order))

	maxLevel := 0
	for _, key := range order {
		level := 0
		for _, dep := range graph[key] {
			if depLevel, ok := levelOf[dep]; ok && depLevel+1 > level {
				level = depLevel + 1
			}
		}
		levelOf[key] = level
		if level > maxLevel {
			maxLevel = level
		}
	}

	levels := make([][]string, maxLevel+1)
	for _, key := range order {
		level := levelOf[key]
		levels[level] = append(levels[level], key)
	}
	for _, level := range levels {
		sort.Strings(level)
	}

	return levels
}
