package main

import (
	"fmt"
	"log"

	"github.com/ultimatefaloe/59Minutes-Backend/domain"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/config"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/infrastructure/auth"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/infrastructure/database"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/logger"
	"github.com/ultimatefaloe/59Minutes-Backend/internal/services"
)

// Creates the principal tables and the casbin_rule table, then seeds the
// default policies if none exist.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	lg := logger.New(cfg.LogLevel)

	db, err := database.Open(cfg.DBDriver, cfg.DSN, lg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get underlying sql.DB: %v", err)
	}
	defer sqlDB.Close()

	if err := sqlDB.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run auto-migration: %v", err)
	}
	fmt.Println("✓ AutoMigrate completed successfully")

	for _, role := range domain.Roles() {
		desc, _ := domain.DescriptorFor(role)
		var count int64
		if err := db.Table(desc.Table).Count(&count).Error; err != nil {
			log.Fatalf("Failed to query %s table: %v", desc.Table, err)
		}
		fmt.Printf("✓ %s table accessible (current count: %d)\n", desc.Table, count)
	}

	cas, err := auth.NewCasbinService(db, cfg.CasbinModelPath)
	if err != nil {
		log.Fatalf("Failed to load casbin: %v", err)
	}
	seeded, err := services.NewPolicyService(cas.E).SeedDefaults(services.DefaultPolicies())
	if err != nil {
		log.Fatalf("Failed to seed policies: %v", err)
	}
	fmt.Printf("✓ Casbin policies seeded: %d\n", seeded)
}
