// Package config provides configuration management for the receipt engine.
//
// It utilizes Viper for loading configuration from environment variables,
// an optional .env file, and struct-tag defaults.
//
// # Configuration Structure
//
// The Config struct is the central repository for all application settings, divided into subsections:
//   - Server: HTTP server settings (port, API key)
//   - Log: Logging level and format
//   - Receipt: Reconciliation engine tunables (wildcard room matching, stream buffer)
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.Port)
package config
