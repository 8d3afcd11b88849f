package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tcardoso/licensedesk/internal/domain"
	"github.com/tcardoso/licensedesk/internal/repository"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load a small sample inventory for evaluation",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		db, err := cfg.InitializeDatabase()
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close()

		if err := seed(cmd.Context(), db); err != nil {
			return err
		}
		fmt.Println("sample inventory loaded")
		return nil
	},
}

func seed(ctx context.Context, db *sql.DB) error {
	cost := func(v float64) *float64 { return &v }

	pools := repository.NewPoolRepository(db)
	assignments := repository.NewAssignmentRepository(db)
	m365Pools := repository.NewM365PoolRepository(db)
	m365Users := repository.NewM365UserRepository(db)
	legacy := repository.NewLegacyLicenseRepository(db)

	endOfYear, err := domain.ParseDate("2026-12-31")
	if err != nil {
		return err
	}

	sophos, err := pools.Save(ctx, domain.LicensePool{
		Type:           domain.TypeSophos,
		Name:           "Sophos Central Endpoint",
		TotalLicenses:  100,
		Cost:           cost(35),
		ExpirationDate: &endOfYear,
		Notes:          "Primary antivirus contract",
	})
	if err != nil {
		return err
	}
	windows, err := pools.Save(ctx, domain.LicensePool{
		Type:          domain.TypeWindows,
		Name:          "Windows 11 Pro Volume",
		TotalLicenses: 40,
		Cost:          cost(180),
	})
	if err != nil {
		return err
	}

	for i, device := range []string{"laptop-001", "laptop-002", "laptop-003"} {
		if _, err := assignments.Save(ctx, domain.LicenseAssignment{
			Type:       domain.TypeSophos,
			PoolID:     sophos.ID,
			DeviceName: device,
			UserEmail:  fmt.Sprintf("user%d@example.com", i+1),
			IsActive:   true,
		}); err != nil {
			return err
		}
	}
	if _, err := assignments.Save(ctx, domain.LicenseAssignment{
		Type:       domain.TypeWindows,
		PoolID:     windows.ID,
		DeviceName: "ws-reception",
		IsActive:   true,
	}); err != nil {
		return err
	}

	business, err := m365Pools.Save(ctx, domain.M365Pool{
		LicenseType:    "Microsoft 365 Business Standard",
		TotalLicenses:  25,
		Cost:           cost(12.5),
		ExpirationDate: &endOfYear,
		Notes:          "Company main licenses",
	})
	if err != nil {
		return err
	}
	exchange, err := m365Pools.Save(ctx, domain.M365Pool{
		LicenseType:    "Exchange Online (Plan 1)",
		TotalLicenses:  10,
		Cost:           cost(4),
		ExpirationDate: &endOfYear,
		Notes:          "Basic mail for external users",
	})
	if err != nil {
		return err
	}

	seedUsers := []domain.M365User{
		{Name: "Joao Silva", Email: "joao.silva@example.com", AssignedLicenses: []string{business.ID}, IsActive: true},
		{Name: "Maria Santos", Email: "maria.santos@example.com", AssignedLicenses: []string{business.ID, exchange.ID}, IsActive: true},
		{Name: "Carlos Ferreira", Email: "carlos.ferreira@example.com", AssignedLicenses: []string{exchange.ID}, IsActive: false},
	}
	for _, u := range seedUsers {
		if _, err := m365Users.Save(ctx, u); err != nil {
			return err
		}
	}

	if _, err := legacy.Save(ctx, domain.LegacyLicense{
		Name:           "SQL Server 2022 Standard",
		IsActive:       true,
		Cost:           cost(3200),
		ExpirationDate: &endOfYear,
		Details: domain.ServerDetails{
			ProductName: "SQL Server",
			Version:     "2022",
			ServerName:  "db-01",
			LicenseKey:  "XXXXX-XXXXX-XXXXX",
		},
	}); err != nil {
		return err
	}
	if _, err := legacy.Save(ctx, domain.LegacyLicense{
		Name:     "Sophos Firewall XGS 2100",
		IsActive: true,
		Cost:     cost(1500),
		Details: domain.SophosDetails{
			ProductType:  "Firewall",
			DeviceCount:  1,
			SerialNumber: "XGS2100-AB12CD",
		},
	}); err != nil {
		return err
	}

	return nil
}
