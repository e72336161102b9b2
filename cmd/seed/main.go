package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func newDataDirFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "data-dir",
		Usage:   "Directory containing seed CSV files",
		Value:   "./data/seeds",
		EnvVars: []string{"SEED_DATA_DIR"},
	}
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Seed the fuel station database with initial data",
		Commands: []*cli.Command{
			{
				Name:   "master",
				Usage:  "Seed master data (stations and tanks)",
				Flags:  []cli.Flag{newDBURLFlag(), newDataDirFlag()},
				Action: runMasterSeeder,
			},
			{
				Name:   "history",
				Usage:  "Seed historical sales and deliveries",
				Flags: []cli.Flag{
					newDBURLFlag(),
					newDataDirFlag(),
					&cli.BoolFlag{
						Name:  "sales-only",
						Usage: "Only seed sales, skip deliveries",
						Value: false,
					},
					&cli.BoolFlag{
						Name:  "deliveries-only",
						Usage: "Only seed deliveries, skip sales",
						Value: false,
					},
				},
				Action: runHistorySeeder,
			},
			{
				Name:  "all",
				Usage: "Seed master data and history",
				Flags: []cli.Flag{newDBURLFlag(), newDataDirFlag()},
				Action: func(c *cli.Context) error {
					if err := runMasterSeeder(c); err != nil {
						return fmt.Errorf("error seeding master data: %w", err)
					}
					if err := runHistorySeeder(c); err != nil {
						return fmt.Errorf("error seeding history: %w", err)
					}
					return nil
				},
			},
			newDownloadCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openDB(c *cli.Context) (*sql.DB, error) {
	db, err := sql.Open("pgx", c.String("db-url"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func runMasterSeeder(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	log.Println("Starting master data seeding...")

	if err := seedSPBUs(ctx, tx, c.String("data-dir")); err != nil {
		return fmt.Errorf("failed to seed spbus: %w", err)
	}
	if err := seedTanks(ctx, tx, c.String("data-dir")); err != nil {
		return fmt.Errorf("failed to seed tanks: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.Println("Master data seeding completed successfully!")
	return nil
}

func runHistorySeeder(c *cli.Context) error {
	db, err := openDB(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	dataDir := c.String("data-dir")

	if !c.Bool("deliveries-only") {
		if err := seedSales(ctx, db, dataDir); err != nil {
			return fmt.Errorf("failed to seed sales: %w", err)
		}
	}
	if !c.Bool("sales-only") {
		if err := seedDeliveries(ctx, db, dataDir); err != nil {
			return fmt.Errorf("failed to seed deliveries: %w", err)
		}
	}

	return nil
}
