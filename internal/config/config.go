package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	RedisAddr     string
	RedisPassword string

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration
	RefreshTokenDur   time.Duration

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string
	SNSRegion    string

	MusicProvider           string // "jamendo" | "spotify"
	JamendoClientID         string
	SpotifyClientID         string
	SpotifyClientSecret     string
	SpotifyMarket           string
	SpotifyPopularPlaylist  string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users     string
	Sessions  string
	Playlists string
	Songs     string
	Favorites string
	History   string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:     getEnv("DYNAMO_TABLE_USERS", "users"),
			Sessions:  getEnv("DYNAMO_TABLE_SESSIONS", "sessions"),
			Playlists: getEnv("DYNAMO_TABLE_PLAYLISTS", "playlists"),
			Songs:     getEnv("DYNAMO_TABLE_SONGS", "uploaded_songs"),
			Favorites: getEnv("DYNAMO_TABLE_FAVORITES", "favorites"),
			History:   getEnv("DYNAMO_TABLE_HISTORY", "listen_history"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "pulse-media"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         time.Duration(getEnvInt("JWT_EXPIRY_HOURS", 2)) * time.Hour,
		RefreshTokenDur:   time.Duration(getEnvInt("REFRESH_TOKEN_EXPIRY_DAYS", 30)) * 24 * time.Hour,

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "no-reply@pulse.example.com"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),

		MusicProvider:          getEnv("MUSIC_PROVIDER", "jamendo"),
		JamendoClientID:        getEnv("JAMENDO_CLIENT_ID", ""),
		SpotifyClientID:        getEnv("SPOTIFY_CLIENT_ID", ""),
		SpotifyClientSecret:    getEnv("SPOTIFY_CLIENT_SECRET", ""),
		SpotifyMarket:          getEnv("SPOTIFY_MARKET", "IN"),
		SpotifyPopularPlaylist: getEnv("SPOTIFY_POPULAR_PLAYLIST_ID", ""),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
