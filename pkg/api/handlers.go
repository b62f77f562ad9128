package api

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/chainsight/measures/pkg/engine"
	"github.com/chainsight/measures/pkg/filter"
	"github.com/chainsight/measures/pkg/measures"
)

// Server implements the diagnostic API handlers. The registry is read
// through the executor so definition reloads are picked up immediately.
type Server struct {
	executor *engine.Executor
	log      logrus.FieldLogger
}

// NewServer creates the API handler set
func NewServer(executor *engine.Executor, log logrus.FieldLogger) *Server {
	return &Server{
		executor: executor,
		log:      log.WithField("component", "api.handlers"),
	}
}

// registerRoutes attaches all handlers to the given router group
func (s *Server) registerRoutes(router fiber.Router) {
	router.Get("/measures", s.listMeasures)
	router.Get("/measures/:key", s.getMeasure)
	router.Get("/graph", s.getGraph)
	router.Post("/evaluate", s.evaluate)
}

// measureSummary is the list-view shape of a measure
type measureSummary struct {
	Key          string             `json:"key"`
	Name         string             `json:"name"`
	Description  string             `json:"description,omitempty"`
	Components   int                `json:"components"`
	Dependencies []string           `json:"dependencies"`
	Metadata     *measures.Metadata `json:"metadata,omitempty"`
}

func (s *Server) listMeasures(c fiber.Ctx) error {
	all := s.executor.Registry().GetAll()

	summaries := make([]measureSummary, 0, len(all))
	for _, m := range all {
		summaries = append(summaries, measureSummary{
			Key:          m.Key,
			Name:         m.Name,
			Description:  m.Description,
			Components:   len(m.Components),
			Dependencies: m.Dependencies(),
			Metadata:     m.Metadata,
		})
	}

	return c.JSON(fiber.Map{"measures": summaries})
}

func (s *Server) getMeasure(c fiber.Ctx) error {
	m, err := s.executor.Registry().Get(c.Params("key"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}

	return c.JSON(m)
}

// graphResponse exposes the dependency graph, its deterministic order and
// level grouping for diagnostic tooling
type graphResponse struct {
	Graph  measures.Graph `json:"graph"`
	Order  []string       `json:"order"`
	Levels [][]string     `json:"levels"`
}

func (s *Server) getGraph(c fiber.Ctx) error {
	registry := s.executor.Registry()

	graph, err := registry.BuildDependencyGraph(registry.Keys())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	order, err := measures.TopologicalSort(graph)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(graphResponse{
		Graph:  graph,
		Order:  order,
		Levels: measures.GroupByLevel(graph, order),
	})
}

// evaluateRequest is the body of POST /evaluate
type evaluateRequest struct {
	Keys    []string       `json:"keys"`
	Context engine.Context `json:"context"`
	Filters *filter.Logic  `json:"filters,omitempty"`
}

type evaluateResponse struct {
	Results map[string]float64 `json:"results"`
}

func (s *Server) evaluate(c fiber.Ctx) error {
	var req evaluateRequest
	if err := c.Bind().Body(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if len(req.Keys) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "at least one measure key is required")
	}

	results, err := s.executor.ExecuteBatch(c.Context(), req.Keys, req.Filters, &req.Context)
	if err != nil {
		switch {
		case errors.Is(err, measures.ErrMeasureNotFound):
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		case errors.Is(err, engine.ErrNilContext), errors.Is(err, engine.ErrPeriodRequired):
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		default:
			s.log.WithError(err).Warn("Batch evaluation failed")
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
	}

	return c.JSON(evaluateResponse{Results: results})
}
