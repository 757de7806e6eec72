package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/app"
	"github.com/andresuchdata/eco-inventory/internal/config"
	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/report"
	"github.com/andresuchdata/eco-inventory/internal/repository/postgres"
	"github.com/andresuchdata/eco-inventory/internal/seed"
	"github.com/andresuchdata/eco-inventory/internal/service"
	"github.com/andresuchdata/eco-inventory/internal/storage"
	"github.com/andresuchdata/eco-inventory/pkg/logger"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

type contextKey string

const dbKey contextKey = "db"

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

func initDB(c *cli.Context) error {
	db, err := sqlx.Open("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.PingContext(c.Context); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey, postgres.Wrap(db, config.Load().Database.MaxConcurrentTx))
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFrom(c *cli.Context) (*postgres.DB, error) {
	db, ok := c.Context.Value(dbKey).(*postgres.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not initialized")
	}
	return db, nil
}

// engineFrom builds the rebalancing engine over the command's database.
func engineFrom(c *cli.Context) (*service.RebalanceService, error) {
	db, err := dbFrom(c)
	if err != nil {
		return nil, err
	}
	return app.Build(config.Load(), postgres.NewRepository(db))
}

// objectStorage opens the configured report bucket; reports commands do not
// need a database.
func objectStorage() (storage.ObjectStorage, error) {
	cfg := config.Load()
	if !cfg.Storage.Enabled {
		return nil, service.ErrStorageDisabled
	}
	return storage.NewMinioClient(cfg.Storage)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}
	logger.SetLevel(os.Getenv("LOG_LEVEL"))

	dbCommand := func(cmd *cli.Command) *cli.Command {
		cmd.Flags = append([]cli.Flag{newDBURLFlag()}, cmd.Flags...)
		cmd.Before = initDB
		cmd.After = closeDB
		return cmd
	}

	cliApp := &cli.App{
		Name:  "rebalance",
		Usage: "Operate the inventory rebalancing engine against PostgreSQL",
		Commands: []*cli.Command{
			dbCommand(&cli.Command{
				Name:   "migrate",
				Usage:  "Create the engine tables if they are missing",
				Action: runMigrate,
			}),
			dbCommand(&cli.Command{
				Name:  "seed",
				Usage: "Load the demo store network, catalog and inventory",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:    "seed",
						Usage:   "Random seed for the filler inventory",
						Value:   42,
						EnvVars: []string{"SEED"},
					},
					&cli.BoolFlag{
						Name:  "with-recommendations",
						Usage: "Also store a sample set of pending recommendations",
					},
				},
				Action: runSeed,
			}),
			dbCommand(&cli.Command{
				Name:  "affinity",
				Usage: "Rebuild category affinity for one store or all of them",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "store",
						Usage: "Store ID; all stores when omitted",
					},
				},
				Action: runAffinity,
			}),
			dbCommand(&cli.Command{
				Name:  "optimize",
				Usage: "Refresh affinity and generate transfer recommendations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "report",
						Usage: "Write the recommendation report to this file (CSV, or XLSX for a .xlsx path)",
					},
					&cli.BoolFlag{
						Name:  "upload",
						Usage: "Upload the recommendation report to object storage",
					},
				},
				Action: runOptimize,
			}),
			dbCommand(&cli.Command{
				Name:   "forecast",
				Usage:  "Train the demand model and print next-week forecasts",
				Action: runForecast,
			}),
			dbCommand(&cli.Command{
				Name:  "route",
				Usage: "Route a single online order to a fulfilling store",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "product", Usage: "Product ID", Required: true},
					&cli.IntFlag{Name: "quantity", Usage: "Units to ship", Value: 1},
					&cli.Float64Flag{Name: "lat", Usage: "Customer latitude", Value: domain.DefaultCustomerLat},
					&cli.Float64Flag{Name: "lon", Usage: "Customer longitude", Value: domain.DefaultCustomerLon},
				},
				Action: runRoute,
			}),
			{
				Name:  "reports",
				Usage: "Inspect recommendation reports held in object storage",
				Subcommands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List uploaded reports, newest first",
						Action: runReportsList,
					},
					{
						Name:      "fetch",
						Usage:     "Download the report uploaded for a day",
						ArgsUsage: "<YYYY-MM-DD>",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "out",
								Usage: "Destination file (default recommendations-<day>.csv)",
							},
						},
						Action: runReportsFetch,
					},
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runMigrate(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	if err := postgres.EnsureSchema(c.Context, db); err != nil {
		return err
	}
	log.Println("Schema is up to date")
	return nil
}

func runSeed(c *cli.Context) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	if err := postgres.EnsureSchema(c.Context, db); err != nil {
		return err
	}

	summary, err := seed.Load(c.Context, postgres.NewRepository(db), seed.Options{
		Seed:                c.Int64("seed"),
		WithRecommendations: c.Bool("with-recommendations"),
	})
	if err != nil {
		return fmt.Errorf("seed demo data: %w", err)
	}
	return printJSON(summary)
}

func runAffinity(c *cli.Context) error {
	svc, err := engineFrom(c)
	if err != nil {
		return err
	}

	if c.IsSet("store") {
		scores, err := svc.RebuildAffinity(c.Context, c.Int64("store"))
		if err != nil {
			return err
		}
		return printJSON(scores)
	}

	profiles, err := svc.RebuildAllAffinity(c.Context)
	if err != nil {
		return err
	}
	return printJSON(profiles)
}

func runOptimize(c *cli.Context) error {
	svc, err := engineFrom(c)
	if err != nil {
		return err
	}

	result, err := svc.Refresh(c.Context)
	if err != nil {
		return err
	}
	log.Printf("Generated %d recommendations (%d overstocked records, %d shortages)\n",
		len(result.Recommendations), len(result.Overstock), len(result.Shortages))

	if path := c.String("report"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create report file: %w", err)
		}
		write := svc.WriteReport
		if strings.EqualFold(filepath.Ext(path), ".xlsx") {
			write = svc.WriteSpreadsheet
		}
		if err := write(c.Context, f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		log.Printf("Report written to %s\n", path)
	}

	if c.Bool("upload") {
		key, err := svc.UploadReport(c.Context)
		if err != nil {
			return err
		}
		log.Printf("Report uploaded as %s\n", key)
	}
	return nil
}

func runForecast(c *cli.Context) error {
	svc, err := engineFrom(c)
	if err != nil {
		return err
	}
	if _, err := svc.Retrain(c.Context); err != nil {
		return err
	}
	forecasts, err := svc.Forecasts(c.Context)
	if err != nil {
		return err
	}
	return printJSON(forecasts)
}

func runRoute(c *cli.Context) error {
	svc, err := engineFrom(c)
	if err != nil {
		return err
	}
	fulfillment, err := svc.Route(c.Context, domain.Order{
		ProductID:   c.Int64("product"),
		Quantity:    c.Int("quantity"),
		CustomerLat: c.Float64("lat"),
		CustomerLon: c.Float64("lon"),
	})
	if err != nil {
		return err
	}
	return printJSON(fulfillment)
}

func runReportsList(c *cli.Context) error {
	objects, err := objectStorage()
	if err != nil {
		return err
	}
	reports, err := report.List(c.Context, objects)
	if err != nil {
		return err
	}
	return printJSON(reports)
}

func runReportsFetch(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("fetch expects exactly one day argument, got %d", c.NArg())
	}
	day, err := time.Parse(time.DateOnly, c.Args().First())
	if err != nil {
		return fmt.Errorf("invalid day %q: %w", c.Args().First(), err)
	}

	objects, err := objectStorage()
	if err != nil {
		return err
	}
	out := c.String("out")
	if out == "" {
		out = fmt.Sprintf("recommendations-%s.csv", day.Format(time.DateOnly))
	}
	if err := report.Fetch(c.Context, objects, day, out); err != nil {
		return err
	}
	log.Printf("Report for %s written to %s\n", day.Format(time.DateOnly), out)
	return nil
}
