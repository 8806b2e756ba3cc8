package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/spf13/cobra"

	"daily-planner-bot/internal/analytics"
	"daily-planner-bot/internal/auth"
	"daily-planner-bot/internal/clock"
	"daily-planner-bot/internal/config"
	"daily-planner-bot/internal/conversation"
	"daily-planner-bot/internal/db"
	"daily-planner-bot/internal/planner"
	"daily-planner-bot/internal/tasks"
	"daily-planner-bot/internal/telegram"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(load loader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			code, err := serve(cfg)
			if err != nil {
				return err
			}
			return exitError(code)
		},
	}
}

// exitError turns a non-zero shutdown code into an error for cobra.
func exitError(code int) error {
	if code == 0 {
		return nil
	}
	return fmt.Errorf("shutdown finished with exit code %d", code)
}

// serve blocks until a shutdown signal and returns the process exit code.
func serve(cfg *config.Config) (int, error) {
	if cfg.TelegramToken == "" && cfg.HTTPAddr == "" {
		return 0, errors.New("nothing to run: set TOKEN or HTTP_ADDR")
	}

	database, err := openDB(context.Background(), cfg)
	if err != nil {
		return 0, fmt.Errorf("❌ Failed to connect DB: %w", err)
	}

	c := clock.System{}
	ops := map[string]gfshutdown.Operation{}

	if cfg.TelegramToken != "" {
		p := planner.New(database, conversation.NewMemoryStore(), c, analytics.PlatformTelegram)
		bot := telegram.NewBot(
			telegram.NewClient(cfg.TelegramToken, cfg.TelegramAPIURL),
			p,
			cfg.TelegramPollTimeout,
		)

		pollCtx, stopPolling := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			defer close(done)
			if err := bot.Run(pollCtx); err != nil {
				log.Printf("[ERROR] telegram bot stopped: %v", err)
			}
		}()

		ops["telegram"] = func(ctx context.Context) error {
			stopPolling()
			select {
			case <-done:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	} else {
		log.Println("[WARN] TOKEN is empty, telegram bot disabled")
	}

	if cfg.HTTPAddr != "" {
		if cfg.JWTSecret == "" {
			log.Println("[WARN] JWT_SECRET is empty, every API call will be rejected")
		}
		srv := &http.Server{
			Addr:              cfg.HTTPAddr,
			Handler:           newRouter(database, c, cfg),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("🚀 API server is running on %s", cfg.HTTPAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("[ERROR] http server: %v", err)
			}
		}()

		ops["http-server"] = func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		}
	}

	// база закрывается после остальных: её ждут и бот, и HTTP
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		ops,
	)

	exitCode := <-wait
	if err := database.Close(); err != nil {
		log.Printf("[WARN] database close: %v", err)
	}
	log.Printf("👋 exited with code: %d", exitCode)
	return exitCode, nil
}

func newRouter(database *db.DB, c clock.Clock, cfg *config.Config) http.Handler {
	store := tasks.NewStore(database)
	rollover := tasks.NewRollover(store, c)
	events := analytics.NewRecorder(database)
	stats := analytics.NewAggregator(store, c)

	am := auth.New([]byte(cfg.JWTSecret))

	mux := http.NewServeMux()

	// Health endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.PingContext(r.Context()); err != nil {
			http.Error(w, "db unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	getTasks := am.Wrap(tasks.GetTasksHandler(store, c))
	createTask := am.Wrap(tasks.CreateTaskHandler(store, c, events))
	clearTasks := am.Wrap(tasks.ClearTasksHandler(store, events))

	mux.HandleFunc("/tasks", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			getTasks(w, r)
		case http.MethodPost:
			createTask(w, r)
		case http.MethodDelete:
			clearTasks(w, r)
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/tasks/done", onlyMethod(http.MethodPost, am.Wrap(tasks.MarkDoneHandler(store, events))))
	mux.HandleFunc("/day/close", onlyMethod(http.MethodPost, am.Wrap(tasks.CloseDayHandler(rollover, events))))
	mux.HandleFunc("/stats", onlyMethod(http.MethodGet, am.Wrap(analytics.StatsHandler(stats, events))))
	mux.HandleFunc("/account", onlyMethod(http.MethodDelete, am.Wrap(auth.DeleteAccountHandler(database))))

	// CORS
	co := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	})

	return co.Handler(mux)
}

func onlyMethod(method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != method {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		next(w, r)
	}
}
