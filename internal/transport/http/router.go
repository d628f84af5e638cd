package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"golang.org/x/time/rate"

	"github.com/pulse-stream/pulse-api/internal/application/auth"
	"github.com/pulse-stream/pulse-api/internal/application/catalog"
	"github.com/pulse-stream/pulse-api/internal/application/library"
	"github.com/pulse-stream/pulse-api/internal/application/profile"
	songapp "github.com/pulse-stream/pulse-api/internal/application/song"
	"github.com/pulse-stream/pulse-api/internal/application/twofa"
	"github.com/pulse-stream/pulse-api/internal/config"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/pulse-stream/pulse-api/internal/infrastructure/jwt"
	redisinfra "github.com/pulse-stream/pulse-api/internal/infrastructure/redis"
	s3infra "github.com/pulse-stream/pulse-api/internal/infrastructure/s3"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/smtp"
	"github.com/pulse-stream/pulse-api/internal/infrastructure/sns"
	"github.com/pulse-stream/pulse-api/internal/transport/http/handler"
	appmiddleware "github.com/pulse-stream/pulse-api/internal/transport/http/middleware"
)

// Deps holds all infrastructure dependencies for the router.
type Deps struct {
	UserRepo     *dynamo.UserRepo
	SessionRepo  *dynamo.SessionRepo
	PlaylistRepo *dynamo.PlaylistRepo
	SongRepo     *dynamo.SongRepo
	FavoriteRepo *dynamo.FavoriteRepo
	HistoryRepo  *dynamo.HistoryRepo
	S3Store      *s3infra.Store
	Cache        *redisinfra.Cache
	Mailer       smtp.Mailer
	SMSSender    sns.SMSSender
	JWTProvider  *jwtinfra.Provider
	Catalog      catalog.Provider
}

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider, deps.UserRepo, deps.Cache)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	// Catalog searches fan out to the upstream provider; keep them polite.
	searchRL := appmiddleware.NewRateLimiter(rate.Limit(10), 20)

	twoFactorSvc := twofa.NewService(deps.Cache, deps.UserRepo, deps.Mailer, deps.SMSSender)
	authSvc := auth.NewService(deps.UserRepo, deps.SessionRepo, twoFactorSvc, deps.JWTProvider, deps.Cache, cfg.RefreshTokenDur)
	catalogSvc := catalog.NewService(deps.Catalog, deps.Cache)
	librarySvc := library.NewService(deps.HistoryRepo, deps.FavoriteRepo, deps.PlaylistRepo, deps.Cache)
	songSvc := songapp.NewService(deps.SongRepo, deps.S3Store)
	profileSvc := profile.NewService(deps.UserRepo, deps.S3Store, deps.Cache)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	musicH := handler.NewMusicHandler(catalogSvc)
	libraryH := handler.NewLibraryHandler(librarySvc)
	songH := handler.NewSongHandler(songSvc)
	profileH := handler.NewProfileHandler(profileSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health", healthH.Ping)

		r.With(sensitiveRL.Limit).Post("/auth/register", authH.Register)
		r.With(sensitiveRL.Limit).Post("/auth/login", authH.Login)
		r.With(sensitiveRL.Limit).Post("/auth/verify", authH.Verify)
		r.Post("/auth/refresh", authH.Refresh)

		r.With(searchRL.Limit).Get("/music/search", musicH.Search)
		r.Get("/music/track/{id}", musicH.Track)
		r.Get("/music/popular", musicH.Popular)
		r.Get("/music/albums", musicH.Albums)
		r.Get("/music/albums/{id}", musicH.Album)
		r.Get("/music/tracks", musicH.TracksByIDs)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Post("/auth/logout", authH.Logout)
			r.Post("/auth/password-change", authH.RequestPasswordChange)
			r.Post("/auth/password-change/confirm", authH.ConfirmPasswordChange)

			r.Get("/users/me", profileH.Me)
			r.Put("/users/about", profileH.UpdateAbout)
			r.Post("/users/avatar", profileH.UploadAvatar)
			r.Get("/users/avatar", profileH.Avatar)

			r.Get("/users/history", libraryH.History)
			r.Post("/users/history", libraryH.AddListen)
			r.Get("/users/favorites", libraryH.Favorites)
			r.Post("/users/favorites", libraryH.AddFavorite)
			r.Delete("/users/favorites/{trackID}", libraryH.RemoveFavorite)
			r.Get("/users/playlists", libraryH.Playlists)
			r.Post("/users/playlists", libraryH.CreatePlaylist)
			r.Put("/users/playlists/{id}", libraryH.UpdatePlaylist)
			r.Delete("/users/playlists/{id}", libraryH.DeletePlaylist)

			r.Post("/songs", songH.Upload)
			r.Get("/songs", songH.List)
			r.Delete("/songs/{id}", songH.Delete)
			r.Get("/songs/{id}/stream", songH.Stream)
			r.Get("/songs/{id}/cover", songH.Cover)
		})
	})

	return r
}
