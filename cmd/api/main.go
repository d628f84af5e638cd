package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/pulse-stream/pulse-api/internal/application/catalog"
	"github.com/pulse-stream/pulse-api/internal/config"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/dynamo"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/jamendo"
	jwtinfra "github.com/pulse-stream/pulse-api/internal/infrastructure/jwt"
	redisinfra "github.com/pulse-stream/pulse-api/internal/infrastructure/redis"
	s3infra "github.com/pulse-stream/pulse-api/internal/infrastructure/s3"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/smtp"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/sns"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/spotify"
	transporthttp "github.com/pulse-stream/pulse-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// Redis backs two-factor challenges, the catalog cache and the auth
	// middleware's user cache; the service cannot run without it.
	cache := redisinfra.NewCache(cfg)
	if err := cache.Ping(context.Background()); err != nil {
		log.Fatalf("redis unreachable at %s: %v", cfg.RedisAddr, err)
	}

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		log.Fatalf("JWT provider: %v", err)
	}

	// S3 store for uploaded audio, covers and avatars.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer delivers two-factor codes.
	mailer := smtp.NewMailer(cfg)

	// SNS SMS sender (optional — graceful fallback).
	var smsSender sns.SMSSender
	if sender, err := sns.NewSender(cfg); err == nil {
		smsSender = sender
	} else {
		log.Printf("WARN: SNS sender not available: %v", err)
	}

	var provider catalog.Provider
	switch cfg.MusicProvider {
	case "spotify":
		provider = spotify.NewClient(cfg.SpotifyClientID, cfg.SpotifyClientSecret, cfg.SpotifyMarket, cfg.SpotifyPopularPlaylist, cache)
	default:
		provider = jamendo.NewClient(cfg.JamendoClientID)
	}

	deps := &transporthttp.Deps{
		UserRepo:     dynamo.NewUserRepo(dynamoClient, cfg.DynamoTables.Users),
		SessionRepo:  dynamo.NewSessionRepo(dynamoClient, cfg.DynamoTables.Sessions),
		PlaylistRepo: dynamo.NewPlaylistRepo(dynamoClient, cfg.DynamoTables.Playlists),
		SongRepo:     dynamo.NewSongRepo(dynamoClient, cfg.DynamoTables.Songs),
		FavoriteRepo: dynamo.NewFavoriteRepo(dynamoClient, cfg.DynamoTables.Favorites),
		HistoryRepo:  dynamo.NewHistoryRepo(dynamoClient, cfg.DynamoTables.History),
		S3Store:      s3Store,
		Cache:        cache,
		Mailer:       mailer,
		SMSSender:    smsSender,
		JWTProvider:  jwtProvider,
		Catalog:      provider,
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, provider=%s)", cfg.AppPort, cfg.AppEnv, cfg.MusicProvider)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
