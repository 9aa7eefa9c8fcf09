package status

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"swingbot/internal/state"
)

// Server exposes read-only views of the running bot.
type Server struct {
	addr   string
	store  *state.Store
	router *gin.Engine
}

func New(addr string, store *state.Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{addr: addr, store: store, router: gin.New()}
	s.router.Use(gin.Recovery())
	s.router.GET("/healthz", s.health)
	s.router.GET("/status", s.status)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(c *gin.Context) {
	snapshot := s.store.Snapshot()
	c.JSON(http.StatusOK, gin.H{
		"status":               "ok",
		"phase":                snapshot.Phase,
		"consecutive_failures": snapshot.ConsecutiveFailures,
	})
}

func (s *Server) status(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.Snapshot())
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("status server listening", "addr", s.addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
