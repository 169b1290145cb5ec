package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"

	"github.com/hairizuan-noorazman/demo-recorder/history"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the run catalog and output files over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			db, err := history.Open(cfg.GetString("history.path"))
			if err != nil {
				return err
			}
			store := history.NewSQLiteStore(db, log)

			outputDir := cfg.GetString("record.output_dir")
			router := mux.NewRouter()
			router.HandleFunc("/health", healthHandler).Methods("GET")
			router.HandleFunc("/api/runs", listRunsHandler(store)).Methods("GET")
			router.HandleFunc("/api/runs/{id}", getRunHandler(store)).Methods("GET")
			router.PathPrefix("/output/").Handler(
				http.StripPrefix("/output/", http.FileServer(http.Dir(outputDir))))

			addr := fmt.Sprintf("%s:%d", cfg.GetString("serve.host"), cfg.GetInt("serve.port"))
			server := &http.Server{
				Addr:         addr,
				Handler:      router,
				ReadTimeout:  15 * time.Second,
				WriteTimeout: 15 * time.Second,
			}

			go func() {
				log.Info(ctx, "server listening", map[string]interface{}{
					"address":    addr,
					"output_dir": outputDir,
				})
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error(ctx, "server error", map[string]interface{}{
						"error": err.Error(),
					})
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
			<-quit

			log.Info(ctx, "shutting down server", nil)
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func listRunsHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 {
				limit = n
			}
		}
		offset := 0
		if raw := r.URL.Query().Get("offset"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
				offset = n
			}
		}

		runs, err := store.List(r.Context(), limit, offset)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list runs"})
			return
		}
		total, err := store.Count(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to count runs"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"runs":  runs,
			"total": total,
		})
	}
}

func getRunHandler(store history.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(mux.Vars(r)["id"])
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid run id"})
			return
		}

		run, err := store.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, history.ErrRunNotFound) {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get run"})
			return
		}

		writeJSON(w, http.StatusOK, run)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
