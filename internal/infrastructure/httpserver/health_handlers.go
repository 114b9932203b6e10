package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 2 * time.Second

type dependencyHealth struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

// healthCheck runs every registered checker concurrently under one deadline, so a
// hung dependency costs the timeout once. Any failure reports degraded with 503.
func (s *Server) healthCheck(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	results := make([]dependencyHealth, len(s.healthCheckers))
	var g errgroup.Group
	for i, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		g.Go(func() error {
			start := time.Now()
			err := hc.Check(ctx)
			results[i] = dependencyHealth{Status: "healthy", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				results[i].Status, results[i].Error = "unhealthy", err.Error()
			}
			return nil
		})
	}
	_ = g.Wait()

	deps := make(map[string]dependencyHealth, len(results))
	overall := "healthy"
	for i, hc := range s.healthCheckers {
		if hc == nil {
			continue
		}
		deps[hc.Name()] = results[i]
		if results[i].Status != "healthy" {
			overall = "degraded"
			s.logger.WithFields(logrus.Fields{"dependency": hc.Name(), "error": results[i].Error}).Warn("health check failed")
		}
	}
	health := map[string]any{
		"status":       overall,
		"timestamp":    time.Now().UTC().Format(time.RFC3339),
		"version":      "1.0.0",
		"service":      "accesscontrol",
		"dependencies": deps,
	}
	code := http.StatusOK
	if overall != "healthy" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, health)
}
