// Package dashboard serves a read-only JSON view of hunt progress for ops
// tooling and curious solvers.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pwolcott/huntmaster/internal/reconcile"
	"github.com/pwolcott/huntmaster/internal/store"
)

// StartOpts holds configuration for the dashboard server.
type StartOpts struct {
	Store *store.Store
	Rec   *reconcile.Reconciler // optional; nil hides /api/status detail
	Port  int
	Out   io.Writer
}

// Start launches the dashboard HTTP server. It blocks until ctx is
// cancelled, then shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.Store == nil {
		return fmt.Errorf("dashboard: store is required")
	}
	if opts.Port <= 0 {
		opts.Port = 8080
	}

	router := NewRouter(opts.Store, opts.Rec)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "Dashboard running at http://localhost:%d\n", opts.Port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}

// NewRouter builds the gin router with all API routes registered. Split out
// from Start so tests can drive it without a listener.
func NewRouter(s *store.Store, rec *reconcile.Reconciler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/api/guilds", handleGuilds(s))
	router.GET("/api/guilds/:id/hunts", handleHunts(s))
	router.GET("/api/guilds/:id/puzzles", handlePuzzles(s))
	router.GET("/api/status", handleStatus(rec))
	return router
}

func handleGuilds(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := GuildSummary(s)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func handleHunts(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := HuntSummary(s, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func handlePuzzles(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		rows, err := PuzzleSummary(s, c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	}
}

func handleStatus(rec *reconcile.Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rec == nil {
			c.JSON(http.StatusOK, gin.H{"running": false})
			return
		}
		c.JSON(http.StatusOK, rec.Status())
	}
}
