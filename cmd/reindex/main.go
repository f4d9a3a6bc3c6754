package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/locvowork/hr_onboarding_portal/internal/bootstrap"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/service"
)

// reindex rebuilds the Elasticsearch directory from the employee store.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app := bootstrap.NewApp()
	if err := app.InitInfrastructure(ctx); err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	res, err := service.NewReindexService(app.Employees, app.Directory).Reindex(ctx)
	if err != nil {
		logger.ErrorLog(ctx, "Reindex failed: %v", err)
		app.Close()
		os.Exit(1)
	}
	fmt.Printf("Indexed %d, removed %d in %v\n", res.Indexed, res.Removed, res.Duration)
}
