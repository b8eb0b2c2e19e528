package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/wowmotion/bookingbot/app"
	"github.com/wowmotion/bookingbot/core/buildinfo"
	corecmd "github.com/wowmotion/bookingbot/core/cmd"
	coreconfig "github.com/wowmotion/bookingbot/core/config"
)

func main() {
	// Local development convenience; missing .env is not an error.
	_ = godotenv.Load()

	log.Printf("bookingbot %s (%s, built %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date)

	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yaml",
		LoadConfig:        coreconfig.Load,
		Bootstrap: func(cfg *coreconfig.Config) (corecmd.TelegramApp, error) {
			return app.Bootstrap(cfg)
		},
	})
	if err != nil {
		log.Fatalf("bookingbot: %v", err)
	}
}
