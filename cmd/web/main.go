package main

import (
	"fmt"
	"log"

	"github.com/crimeprep/internal/config"
	"github.com/crimeprep/internal/debug"
	"github.com/crimeprep/internal/web"
)

func main() {
	// Load environment configuration
	if err := config.LoadEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	cfg, err := config.Load(config.GetEnv("CRIMEPREP_CONFIG", ""))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	debug.Setup(cfg.Logging.Level, cfg.Logging.Pretty)

	fmt.Println("=== Chicago Crime Cleaning API ===")

	webConfig := web.FromConfig(cfg)
	webConfig.Features.PrepareEnabled = config.GetEnvBool("ENABLE_PREPARE", true)

	fmt.Printf("Server: http://%s\n", webConfig.Server.Addr())
	fmt.Println("\nFeatures enabled:")
	fmt.Printf("  • Prepare: %v\n", webConfig.Features.PrepareEnabled)
	fmt.Printf("  • Authentication: %v\n", webConfig.Auth.Enabled)
	fmt.Println()

	// Start server
	if err := web.NewServer(webConfig).Start(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
