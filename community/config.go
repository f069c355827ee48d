package community

import "os"

// Config carries everything the handlers read from the environment.
// main loads .env (if present) before calling ConfigFromEnv.
type Config struct {
	Addr                string
	DatabaseURL         string
	FrontEndURL         string
	BaseURL             string
	UploadDir           string
	DiscordClientID     string
	DiscordClientSecret string
	DiscordCallbackURL  string
	YouTubeAPIKey       string
	YouTubePlaylistID   string
}

func ConfigFromEnv() Config {
	return Config{
		Addr:                ":" + envOr("PORT", "3000"),
		DatabaseURL:         os.Getenv("DATABASE_URL"),
		FrontEndURL:         envOr("FRONT_END_URL", "http://localhost:5173"),
		BaseURL:             envOr("BASE_URL", "http://localhost:3000"),
		UploadDir:           envOr("UPLOAD_DIR", "uploads"),
		DiscordClientID:     os.Getenv("DISCORD_CLIENT_ID"),
		DiscordClientSecret: os.Getenv("DISCORD_CLIENT_SECRET"),
		DiscordCallbackURL:  os.Getenv("DISCORD_CALLBACK_URL"),
		YouTubeAPIKey:       os.Getenv("YOUTUBE_API_KEY"),
		YouTubePlaylistID:   os.Getenv("YOUTUBE_PLAYLIST_ID"),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
