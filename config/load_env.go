package config

import (
	"log/slog"
	"os"

	"github.com/subosito/gotenv"
)

// AppEnv returns APP_ENV, defaulting to "dev".
func AppEnv() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	return env
}

func LoadEnv(env string) {
	envFile := "config/envs/.env." + env
	if err := gotenv.Load(envFile); err != nil {
		slog.Debug("No .env file found, using OS environment",
			slog.String("file", envFile))
	}
}
