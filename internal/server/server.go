/*
Copyright 2024 The Clair authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	ctrl "sigs.k8s.io/controller-runtime"
)

// Server is the operator's introspection HTTP server: health, metrics
// and the read-only resource view, assembled on one gin engine.
type Server struct {
	engine *gin.Engine
	addr   string
}

// New assembles the introspection server. Any of the components may be
// nil; their routes are simply not installed.
func New(addr string, health *HealthChecker, metrics *MetricsServer, lister *ClairLister) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	if health != nil {
		engine.GET("/healthz", health.HealthzHandler)
		engine.GET("/readyz", health.ReadyzHandler)
	}
	if metrics != nil {
		engine.GET("/metrics", metrics.MetricsHandler)
		engine.GET("/metrics/status", metrics.StatusHandler)
	}
	if lister != nil {
		api := engine.Group("/api/v1")
		api.GET("/clairs", lister.ListHandler)
		api.GET("/clairs/:namespace/:name", lister.GetHandler)
	}

	return &Server{engine: engine, addr: addr}
}

// Engine exposes the underlying gin engine, mainly for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Start runs the server until the context is canceled, then drains it.
// It satisfies manager.Runnable so the manager supervises its lifecycle.
func (s *Server) Start(ctx context.Context) error {
	log := ctrl.Log.WithName("introspection-server")

	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	log.Info("Introspection server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
