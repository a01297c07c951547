package main

import (
	"fmt"
	"log"
	"os"

	"github.com/threemeal/threemeal-backend/config"
	"github.com/threemeal/threemeal-backend/internal/app/repository"
	"github.com/threemeal/threemeal-backend/internal/app/service"
	"github.com/threemeal/threemeal-backend/internal/db"
	"github.com/threemeal/threemeal-backend/internal/session"
	"github.com/threemeal/threemeal-backend/pkg/mailer"
)

// Usage: go run ./cmd/seed [zipcodes.xlsx]
//
// Creates the roles and the administrator account from THREEMEAL_ADMIN and
// THREEMEAL_ADMIN_PWD, then optionally imports served zip codes from the
// first column of the spreadsheet's first sheet.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	if err := db.SeedRoles(db.GetDB()); err != nil {
		log.Fatal("Failed to seed roles:", err)
	}

	database := db.GetDB()
	userRepo := repository.NewUserRepository(database)
	roleRepo := repository.NewRoleRepository(database)
	zipService := service.NewZipcodeService(database, repository.NewZipcodeRepository(database), session.NewMemoryStore())
	authService := service.NewAuthService(
		database,
		userRepo,
		roleRepo,
		mailer.New(cfg.Mail),
		session.NewMemoryStore(),
		cfg.JWT.Secret,
		cfg.JWT.AccessTokenExpiry,
	)

	admin, err := authService.EnsureAdmin(cfg.Admin.Email, cfg.Admin.Password)
	if err != nil {
		log.Fatal("Failed to create administrator:", err)
	}
	fmt.Printf("Administrator ready: %s (%s)\n", admin.Email, admin.Nickname)

	if len(os.Args) < 2 {
		return
	}

	filePath := os.Args[1]
	fmt.Printf("Reading XLSX file: %s\n", filePath)
	result, err := readZipcodesFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Valid zip codes: %d\n", len(result.Codes))
	fmt.Printf("  Duplicates: %d\n", result.Duplicates)
	fmt.Printf("  Invalid rows: %d\n", len(result.Invalid))
	for _, row := range result.Invalid {
		fmt.Printf("    %s\n", row)
	}

	if len(result.Codes) == 0 {
		fmt.Println("Nothing to import.")
		return
	}

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	zipcodes, err := zipService.GetOrCreate(result.Codes)
	if err != nil {
		log.Fatal("Failed to import zip codes:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total zip codes available: %d\n", len(zipcodes))
}
