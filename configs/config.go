package config

import "os"

type Twitter struct {
	AppKey    string
	AppSecret string
}

type Config struct {
	PostgresURI     string
	RedisURI        string
	SecretKey       string
	SigningSecret   string
	CookieName      string
	CallbackBaseURL string
	IdentityAPIURL  string
	IdentityAPIKey  string
	Twitter         Twitter
	FrontendURL     string
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:     getEnv("POSTGRES_URI", ""),
		RedisURI:        getEnv("REDIS_URI", ""),
		SecretKey:       getEnv("SECRET_KEY", ""),
		SigningSecret:   getEnv("SIGNING_SECRET", ""),
		CookieName:      getEnv("COOKIE_NAME", "socialmatic_session"),
		CallbackBaseURL: getEnv("CALLBACK_BASE_URL", "http://localhost:3000"),
		IdentityAPIURL:  getEnv("IDENTITY_API_URL", ""),
		IdentityAPIKey:  getEnv("IDENTITY_API_KEY", ""),
		Twitter: Twitter{
			AppKey:    getEnv("TWITTER_APP_KEY", ""),
			AppSecret: getEnv("TWITTER_APP_SECRET", ""),
		},
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
