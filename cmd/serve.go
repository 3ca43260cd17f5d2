package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/leadops-cli/internal/board"
	"github.com/sells-group/leadops-cli/internal/discovery"
	"github.com/sells-group/leadops-cli/internal/heat"
	"github.com/sells-group/leadops-cli/internal/model"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the board REST server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initBoard(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: newRouter(env.Board),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// leadView is the wire shape for a lead, with heat classified at
// response time.
type leadView struct {
	model.Lead
	Heat model.Heat `json:"heat"`
}

func toView(l model.Lead, now time.Time) leadView {
	return leadView{Lead: l, Heat: heat.Classify(&l, now)}
}

// newRouter builds the REST surface over a board.
func newRouter(b *board.Board) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":           "ok",
			"persist_degraded": b.LastSaveErr() != nil,
		})
	})

	r.Get("/leads", func(w http.ResponseWriter, req *http.Request) {
		now := time.Now()
		var views []leadView

		if p := req.URL.Query().Get("phase"); p != "" {
			phase := model.Phase(p)
			if !phase.Valid() {
				writeError(w, http.StatusBadRequest, eris.Errorf("unknown phase: %s", p))
				return
			}
			for l := range b.ByPhase(phase) {
				views = append(views, toView(l, now))
			}
		} else {
			for _, l := range b.List() {
				views = append(views, toView(l, now))
			}
		}

		writeJSON(w, http.StatusOK, map[string]any{"leads": views})
	})

	r.Post("/leads", func(w http.ResponseWriter, req *http.Request) {
		data, err := readBody(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		result, err := discovery.ParseBatch(data)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}

		inserted := b.InsertMany(req.Context(), result.Leads)
		now := time.Now()
		views := make([]leadView, 0, len(inserted))
		for _, l := range inserted {
			views = append(views, toView(l, now))
		}

		writeJSON(w, http.StatusCreated, map[string]any{
			"leads":    views,
			"rejected": result.Rejected,
		})
	})

	r.Patch("/leads/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, ok := leadID(w, req)
		if !ok {
			return
		}

		var patch board.Patch
		if err := json.NewDecoder(req.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode patch"))
			return
		}

		lead, err := b.UpdateLead(req.Context(), id, patch)
		if err != nil {
			writeLeadErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toView(lead, time.Now()))
	})

	r.Post("/leads/{id}/advance", func(w http.ResponseWriter, req *http.Request) {
		id, ok := leadID(w, req)
		if !ok {
			return
		}

		lead, err := b.Advance(req.Context(), id)
		if err != nil {
			writeLeadErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toView(lead, time.Now()))
	})

	r.Post("/leads/{id}/assign", func(w http.ResponseWriter, req *http.Request) {
		id, ok := leadID(w, req)
		if !ok {
			return
		}

		var body struct {
			Phase string `json:"phase"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode body"))
			return
		}
		phase := model.Phase(body.Phase)
		if !phase.Valid() {
			writeError(w, http.StatusBadRequest, eris.Errorf("unknown phase: %s", body.Phase))
			return
		}

		lead, err := b.AssignPhase(req.Context(), id, phase)
		if err != nil {
			writeLeadErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toView(lead, time.Now()))
	})

	r.Post("/leads/{id}/outcome", func(w http.ResponseWriter, req *http.Request) {
		id, ok := leadID(w, req)
		if !ok {
			return
		}

		var body struct {
			Result    string  `json:"result"`
			DealValue float64 `json:"deal_value"`
			Reason    string  `json:"reason"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode body"))
			return
		}

		var lead model.Lead
		var err error
		switch body.Result {
		case "won":
			lead, err = b.RecordWon(req.Context(), id, body.DealValue)
		case "lost":
			if body.Reason == "" {
				writeError(w, http.StatusBadRequest, eris.New("reason is required for a lost outcome"))
				return
			}
			lead, err = b.RecordLost(req.Context(), id, body.Reason)
		default:
			writeError(w, http.StatusBadRequest, eris.Errorf("result must be won or lost, got %q", body.Result))
			return
		}
		if err != nil {
			writeLeadErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toView(lead, time.Now()))
	})

	r.Post("/leads/reorder", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			SourceID int64 `json:"source_id"`
			TargetID int64 `json:"target_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode body"))
			return
		}

		if err := b.Reorder(req.Context(), body.SourceID, body.TargetID); err != nil {
			writeLeadErr(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}

func leadID(w http.ResponseWriter, req *http.Request) (int64, bool) {
	id, err := parseLeadID(chi.URLParam(req, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}

func readBody(req *http.Request) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(req.Body, 4<<20))
	if err != nil {
		return nil, eris.Wrap(err, "read request body")
	}
	return data, nil
}

// writeLeadErr maps domain sentinels onto HTTP status codes.
func writeLeadErr(w http.ResponseWriter, err error) {
	switch {
	case eris.Is(err, model.ErrLeadNotFound):
		writeError(w, http.StatusNotFound, err)
	case eris.Is(err, model.ErrTerminalLead), eris.Is(err, model.ErrStaleStrategy):
		writeError(w, http.StatusConflict, err)
	case eris.Is(err, model.ErrInvalidPhase):
		writeError(w, http.StatusBadRequest, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
