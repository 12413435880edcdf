package config

import (
	"errors"
	"io/fs"
	"log/slog"

	"github.com/corray333/backend-labs/coffeeshop/pkg/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// MustInit loads .env into the environment, reads config.yaml and installs
// the default logger. A missing .env is fine when the variables come from
// the container environment.
func MustInit() {
	envErr := godotenv.Load("./.env")
	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		panic("error while loading .env file: " + envErr.Error())
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("/etc/coffeeshop")
	viper.AddConfigPath(".")
	if err := viper.ReadInConfig(); err != nil {
		panic("error while reading config file: " + err.Error())
	}
	SetupLogger()

	if envErr != nil {
		slog.Warn("No .env file found, using process environment")
	}
}

func SetupLogger() {
	handler := logger.NewHandler(nil)
	log := slog.New(handler)
	slog.SetDefault(log)
}
