package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"

	"github.com/strommix/strommix/internal/asset"
	"github.com/strommix/strommix/internal/auth"
	"github.com/strommix/strommix/internal/collab"
	"github.com/strommix/strommix/internal/config"
	"github.com/strommix/strommix/internal/export"
	mw "github.com/strommix/strommix/internal/middleware"
	"github.com/strommix/strommix/internal/series"
	"github.com/strommix/strommix/internal/session"
	"github.com/strommix/strommix/internal/store"
	"github.com/strommix/strommix/internal/typeid"
)

// liveScenes adapts the session service to the collaboration hub.
type liveScenes struct {
	*session.Service
}

func (l liveScenes) Commit(sessionID string) error {
	_, err := l.Service.Commit(sessionID, nil)
	return err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level()})))

	palette, err := config.LoadPalette(cfg.PaletteFile)
	if err != nil {
		slog.Error("load palette", "error", err)
		os.Exit(1)
	}
	loc, err := cfg.Location()
	if err != nil {
		slog.Error("load timezone", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Snapshot store: postgres when configured, otherwise in memory
	var snapshots store.Store = store.NewMemory()
	if cfg.DatabaseURL != "" {
		pool, err := store.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		pg := store.NewPostgres(pool)
		if err := pg.Migrate(ctx); err != nil {
			slog.Error("migrate database", "error", err)
			os.Exit(1)
		}
		snapshots = pg
	}

	icons := asset.NewLibrary(cfg.AssetDir)
	iconSet, err := icons.Icons(palette.Icons)
	if err != nil {
		slog.Warn("load icons", "error", err)
	}

	provider := &series.FileProvider{Path: cfg.DataFile, Location: loc}
	split := series.ColumnSplit{Balance: palette.Balance, Aggregate: palette.Aggregate}

	sessionService := session.NewService(provider, split.Transform, snapshots, session.Options{
		Layout:        palette.Canvas,
		Theme:         palette.Theme(),
		OverlayColumn: palette.Overlay.Column,
		DefaultOrder:  palette.DefaultOrder,
		Icons:         iconSet,
		FetchTimeout:  cfg.FetchTimeout,
		MaxDays:       7,
		Location:      loc,
	})
	sessionHandler := session.NewHandler(sessionService)

	authService := auth.NewService(cfg.JWTSecret, cfg.TokenTTL)
	authHandler := auth.NewHandler(authService, sessionService.Create)

	exportHandler := export.NewHandler(sessionHandler.ExportSource, export.RasterOptions{MaxWidth: cfg.ExportMaxWidth})
	exportHandler.StatusOf = session.HTTPStatus

	hub := collab.NewHub(liveScenes{sessionService})
	go hub.Run()

	// Drop sessions whose tokens have expired
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := sessionService.Prune(cfg.TokenTTL); n > 0 {
					slog.Info("sessions pruned", "count", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	r := mux.NewRouter()

	// Global middleware
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS(cfg.Origins()))

	// Public routes
	r.HandleFunc("/sessions", authHandler.CreateSession).Methods("POST", "OPTIONS")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	r.HandleFunc("/power", sessionHandler.Power).Methods("GET")
	r.PathPrefix("/assets/").Handler(icons.Serve()).Methods("GET")

	// Session routes
	api := r.PathPrefix("/api/session").Subrouter()
	api.Use(authService.AuthMiddleware)

	api.HandleFunc("", sessionHandler.Get).Methods("GET")
	api.HandleFunc("/load", sessionHandler.Load).Methods("POST")
	api.HandleFunc("/selection", sessionHandler.Select).Methods("PUT")
	api.HandleFunc("/toggles", sessionHandler.SetToggles).Methods("PUT")
	api.HandleFunc("/scene", sessionHandler.Scene).Methods("GET")
	api.HandleFunc("/scene", sessionHandler.Commit).Methods("PUT")
	api.HandleFunc("/objects/{objectId}/transform", sessionHandler.Transform).Methods("POST")
	api.HandleFunc("/export.svg", exportHandler.ExportSVG).Methods("GET")
	api.HandleFunc("/export.png", exportHandler.ExportPNG).Methods("GET")
	api.HandleFunc("/chart.{format}", sessionHandler.Chart).Methods("GET")
	api.HandleFunc("/snapshots", sessionHandler.SaveSnapshot).Methods("POST")
	api.HandleFunc("/snapshots", sessionHandler.ListSnapshots).Methods("GET")
	api.HandleFunc("/snapshots/{snapshotId}/restore", sessionHandler.RestoreSnapshot).Methods("POST")

	// WebSocket endpoint
	r.HandleFunc("/ws/session", func(w http.ResponseWriter, r *http.Request) {
		handleWebSocket(w, r, hub, authService, cfg.Origins())
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down server")

		// Stop hub first to commit live edits
		hub.Stop()
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		srv.Shutdown(shutdownCtx)
	}()

	slog.Info("server starting", "addr", addr, "data", cfg.DataFile, "icons", len(iconSet))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func handleWebSocket(w http.ResponseWriter, r *http.Request, hub *collab.Hub, authSvc *auth.Service, origins []string) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	sessionID, err := authSvc.ValidateToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: originPatterns(origins),
	})
	if err != nil {
		slog.Error("websocket accept", "error", err)
		return
	}

	client := collab.NewClient(hub, conn, sessionID, typeid.NewClientID())

	hub.Register(client)

	ctx := r.Context()
	go client.WritePump(ctx)
	client.ReadPump(ctx)
}

// originPatterns strips schemes; websocket origin patterns match hosts.
func originPatterns(origins []string) []string {
	out := make([]string, 0, len(origins))
	for _, o := range origins {
		if i := len("https://"); len(o) > i && o[:i] == "https://" {
			o = o[i:]
		} else if i := len("http://"); len(o) > i && o[:i] == "http://" {
			o = o[i:]
		}
		out = append(out, o)
	}
	return out
}
