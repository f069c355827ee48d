// server/main.go
package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/airchry/Project-Dank/community"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file loaded:", err)
	}
	cfg := community.ConfigFromEnv()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Could not create logger: %v", err)
	}
	defer logger.Sync()

	db, err := community.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("could not initialize database", zap.Error(err))
	}
	defer db.Close()
	if err := db.CreateTables(); err != nil {
		logger.Fatal("could not create tables", zap.Error(err))
	}
	logger.Info("connected to the database")

	videos := community.NewYouTubeClient(cfg.YouTubeAPIKey, cfg.YouTubePlaylistID)
	handlers := community.NewHandlers(db, videos, logger, cfg)

	mux := http.NewServeMux()
	handlers.RegisterRoutes(mux)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontEndURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	svr := &http.Server{
		Addr:    cfg.Addr,
		Handler: c.Handler(handlers.Session.LoadAndSave(mux)),
	}

	logger.Info("starting server", zap.String("addr", cfg.Addr))
	if err := svr.ListenAndServe(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
