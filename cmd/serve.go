package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoatlas/poifetch/internal/area"
	"github.com/geoatlas/poifetch/internal/progress"
	"github.com/geoatlas/poifetch/internal/tags"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve points of interest over HTTP",
	Long:  "Starts a read-mostly HTTP API: region and type listings, plus a fetch endpoint that serves from the day cache and falls through to the Overpass API on a miss.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(progress.Log{})
		if err != nil {
			return err
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(e),
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(e *env) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/api/regions", func(w http.ResponseWriter, _ *http.Request) {
		type regionInfo struct {
			Name     string       `json:"name"`
			Bounds   [4]float64   `json:"bounds"`
			Subareas [][4]float64 `json:"subareas"`
		}
		var regions []regionInfo
		for _, name := range e.Catalog.Names() {
			region, err := e.Catalog.Lookup(name)
			if err != nil {
				continue
			}
			info := regionInfo{Name: region.Name, Bounds: region.Bounds.Array()}
			for _, sub := range region.Subareas {
				info.Subareas = append(info.Subareas, sub.Array())
			}
			regions = append(regions, info)
		}
		writeJSON(w, http.StatusOK, regions)
	})

	r.Get("/api/types", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, tags.Known())
	})

	r.Get("/api/pois/{region}/{type}", func(w http.ResponseWriter, req *http.Request) {
		regionName := chi.URLParam(req, "region")
		locationType := chi.URLParam(req, "type")

		result, err := e.Orchestrator.Fetch(req.Context(), locationType, regionName)
		if err != nil {
			var unknown *area.UnknownRegionError
			if errors.As(err, &unknown) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": unknown.Error()})
				return
			}
			zap.L().Error("fetch failed",
				zap.String("type", locationType),
				zap.String("region", regionName),
				zap.Error(err),
			)
			writeJSON(w, http.StatusBadGateway, map[string]string{"error": "fetch failed"})
			return
		}

		writeJSON(w, http.StatusOK, result)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
