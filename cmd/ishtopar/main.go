package main

import (
	"log"

	"github.com/joho/godotenv"

	corecmd "ishtopar/core/cmd"
	"ishtopar/internal/app"
)

func main() {
	// Missing .env is fine; real deployments set the environment.
	_ = godotenv.Load()

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		LoadConfig:        app.LoadConfigCarrier,
		Bootstrap:         app.Bootstrap,
	})
	if err != nil {
		log.Fatalf("ishtopar: %v", err)
	}
}
