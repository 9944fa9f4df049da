package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/t1000cgm/companion/internal/config"
)

func main() {
	fmt.Println("Checking configuration...")

	if err := godotenv.Load(); err != nil {
		fmt.Printf("Note: no .env file found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Configuration invalid:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("Configuration valid.")
	fmt.Printf("  - Data dir: %s\n", cfg.DataDir)
	if cfg.Redis.Enabled() {
		fmt.Printf("  - Storage: redis (%s:%s)\n", cfg.Redis.Host, cfg.Redis.Port)
	} else {
		fmt.Printf("  - Storage: file\n")
	}
	if cfg.DB.Enabled {
		fmt.Printf("  - Archive: postgres %s@%s:%s/%s\n", cfg.DB.User, cfg.DB.Host, cfg.DB.Port, cfg.DB.DBName)
	} else {
		fmt.Printf("  - Archive: disabled\n")
	}
	if cfg.Telegram.Enabled() {
		fmt.Printf("  - Telegram mirror: enabled (token %s, chat %d)\n", maskToken(cfg.Telegram.Token), cfg.Telegram.ChatID)
	} else {
		fmt.Printf("  - Telegram mirror: disabled\n")
	}
	fmt.Printf("  - Log level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log format: %s\n", cfg.Logger.Format)
}

func maskToken(token string) string {
	if token == "" {
		return "<unset>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
