package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/locvowork/hr_onboarding_portal/internal/bootstrap"
	"github.com/locvowork/hr_onboarding_portal/internal/config"
	"github.com/locvowork/hr_onboarding_portal/internal/database"
	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/service"
)

func main() {
	action := flag.String("action", "seed", "Action to perform: seed, clear")
	preset := flag.String("preset", "medium", "Data preset: small, medium, large, xlarge")
	hr := flag.Int("hr", 0, "Number of HR admins (overrides preset)")
	perStage := flag.Int("per-stage", 0, "Number of employees per onboarding stage (overrides preset)")
	yes := flag.Bool("yes", false, "Skip the confirmation prompt for clear")

	flag.Parse()

	ctx := context.Background()

	fmt.Println("🚀 Onboarding Portal Seeder")
	fmt.Println(strings.Repeat("=", 50))

	fmt.Println("📡 Initializing infrastructure...")
	app := bootstrap.NewApp()
	if err := app.InitInfrastructure(ctx); err != nil {
		logger.ErrorLog(ctx, "Failed to initialize infrastructure: %v", err)
		log.Fatal(err)
	}
	defer app.Close()

	if app.DB == nil {
		log.Fatalf("❌ Seeding needs STORE_DRIVER=%s, got %q", config.StoreDriverPostgres, config.DefaultEnvConfig.STORE_DRIVER)
	}

	switch *action {
	case "seed":
		seeder := database.NewDataSeeder(app.Employees, app.Forms, config.DefaultEnvConfig.SEED_DEFAULT_PASSWORD)
		performSeed(ctx, seeder, *preset, *hr, *perStage)
		refreshDirectory(ctx, app)

	case "clear":
		performClear(ctx, app, *yes)

	default:
		fmt.Printf("❌ Unknown action: %s\n", *action)
		flag.PrintDefaults()
		return
	}

	fmt.Println("\n✅ Done!")
}

func performSeed(ctx context.Context, seeder *database.DataSeeder, preset string, hr, perStage int) {
	numHR, numPerStage := database.GetPresetConfig(database.SeedPreset(preset))
	if hr > 0 {
		numHR = hr
	}
	if perStage > 0 {
		numPerStage = perStage
	}
	fmt.Printf("📊 Preset %s: %d HR admins, %d employees per stage\n", preset, numHR, numPerStage)

	res, err := seeder.SeedData(ctx, numHR, numPerStage)
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	fmt.Printf("👥 Created %d HR admins and %d employees\n", res.HR, res.Employees)
	stages := make([]string, 0, len(res.ByStage))
	for stage := range res.ByStage {
		stages = append(stages, string(stage))
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Printf("   %-24s %d\n", stage, res.ByStage[domain.Stage(stage)])
	}
	fmt.Printf("🔑 Super admin: %s\n", database.SuperAdminEmail)
}

// refreshDirectory keeps search in step with the seeded accounts.
func refreshDirectory(ctx context.Context, app *bootstrap.App) {
	if app.Directory == nil {
		return
	}
	res, err := service.NewReindexService(app.Employees, app.Directory).Reindex(ctx)
	if err != nil {
		logger.WarnLog(ctx, "Directory refresh after seeding failed: %v", err)
		return
	}
	fmt.Printf("🔎 Directory refreshed: %d indexed, %d removed\n", res.Indexed, res.Removed)
}

func performClear(ctx context.Context, app *bootstrap.App, yes bool) {
	fmt.Println("⚠️  This will delete every employee, form and document!")
	if !yes {
		fmt.Print("Continue? (yes/no): ")
		var response string
		fmt.Scanln(&response)
		if response != "yes" {
			fmt.Println("Cancelled.")
			return
		}
	}

	if err := database.ClearData(ctx, app.DB); err != nil {
		log.Fatalf("❌ Clear failed: %v", err)
	}
	refreshDirectory(ctx, app)
}
