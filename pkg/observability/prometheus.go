// Package observability provides metrics for the measure engine
package observability

import (
	"errors"
	"net/http"
	"sync"
	"time"

	//nolint:gosec // only exposed if pprofAddr config is set
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

//nolint:gochecknoglobals // Singleton pattern for metrics and pprof servers
var (
	metricsServerInstance *http.Server
	once                  sync.Once

	pprofServerInstance *http.Server
	pprofOnce           sync.Once
)

// StartMetricsServer starts a Prometheus metrics server if it hasn't been started already.
func StartMetricsServer(addr string) {
	once.Do(func() {
		if metricsServerInstance != nil {
			return
		}

		sm := http.NewServeMux()
		sm.Handle("/metrics", promhttp.Handler())

		metricsServerInstance = &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 15 * time.Second,
			Handler:           sm,
		}

		go func() {
			logrus.Infof("Starting metrics server on %s", addr)

			if err := metricsServerInstance.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Fatal("Failed to start metrics server")
			}
		}()
	})
}

// StartPProfServer starts a pprof server if it hasn't been started already.
// The default mux carries the pprof handlers via the net/http/pprof import.
func StartPProfServer(addr string) {
	pprofOnce.Do(func() {
		if pprofServerInstance != nil {
			return
		}

		pprofServerInstance = &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 15 * time.Second,
			Handler:           http.DefaultServeMux,
		}

		go func() {
			logrus.Infof("Starting pprof server on %s", addr)

			if err := pprofServerInstance.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logrus.WithError(err).Error("Failed to start pprof server")
			}
		}()
	})
}
