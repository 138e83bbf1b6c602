package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"chatbox/internal/config"
	"chatbox/internal/handler"
	"chatbox/internal/repository"
	"chatbox/internal/store"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		slog.Warn(".env file not found, using environment values", "error", err)
	}

	// 環境変数を読み込み
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))

	// ストア接続はバックグラウンドで確立する。失敗してもプロセスは落とさず、
	// /ready が 503 を返し続ける。
	st := store.NewMongo(cfg.MongoURI, cfg.MongoDB, log)
	go func() {
		_ = st.Connect(context.Background())
	}()

	repo := repository.New(st, log, repository.Options{
		RequireUser:   cfg.RequireUser,
		AnonymousUser: cfg.AnonymousUser,
	})

	h := handler.New(repo, st, cfg, log)
	router := h.SetupRouter()

	// CORS対応
	c := cors.New(cors.Options{
		AllowedOrigins: cfg.Origins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	log.Info("server started",
		"port", cfg.ServerPort,
		"database", cfg.MongoDB,
		"metrics", cfg.MetricsEnabled,
	)
	if err := http.ListenAndServe(":"+cfg.ServerPort, c.Handler(router)); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
