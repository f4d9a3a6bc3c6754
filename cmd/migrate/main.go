package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/locvowork/hr_onboarding_portal/internal/config"
	"github.com/locvowork/hr_onboarding_portal/internal/database"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
)

func main() {
	action := flag.String("action", database.MigrateUp, "Migration action: up, down, version")
	flag.Parse()

	ctx := context.Background()
	if err := config.LoadEnvConfig(); err != nil {
		log.Fatal(err)
	}
	cfg := config.DefaultEnvConfig
	logger.InitLogging(logger.Options{FilePath: cfg.LOG_FILE_PATH, Level: cfg.LOG_LEVEL, Format: cfg.LOG_FORMAT, Service: "migrate"})

	st, err := database.Migrate(database.Config{
		Host:     cfg.DB_HOST,
		Port:     cfg.DB_PORT,
		User:     cfg.DB_USER,
		Password: cfg.DB_PASSWORD,
		DBName:   cfg.DB_NAME,
		SSLMode:  cfg.DB_SSL_MODE,
	}, *action)
	if err != nil {
		logger.ErrorLog(ctx, "Migration %s failed: %v", *action, err)
		log.Fatal(err)
	}

	if !st.Applied {
		fmt.Println("No migrations applied")
		return
	}
	fmt.Printf("Schema version %d (dirty=%t)\n", st.Version, st.Dirty)
}
