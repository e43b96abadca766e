package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/anzalajra/gearent/internal/audit"
	"github.com/anzalajra/gearent/internal/clock"
	"github.com/anzalajra/gearent/internal/coa"
	"github.com/anzalajra/gearent/internal/config"
	"github.com/anzalajra/gearent/internal/depreciation"
	depreciationdomain "github.com/anzalajra/gearent/internal/depreciation/domain"
	"github.com/anzalajra/gearent/internal/finance"
	financedomain "github.com/anzalajra/gearent/internal/finance/domain"
	"github.com/anzalajra/gearent/internal/invoice"
	"github.com/anzalajra/gearent/internal/journal"
	"github.com/anzalajra/gearent/internal/migration"
	"github.com/anzalajra/gearent/internal/observability/logger"
	"github.com/anzalajra/gearent/internal/resolution"
	"github.com/anzalajra/gearent/internal/scheduler"
	"github.com/anzalajra/gearent/internal/seed"
	"github.com/anzalajra/gearent/internal/settings"
	"github.com/anzalajra/gearent/internal/tax"
	"github.com/anzalajra/gearent/internal/taxreport"
	"github.com/anzalajra/gearent/pkg/db"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:     "gearent",
		Short:   "Gearent finance core operations",
		Version: version,
	}

	root.AddCommand(
		migrateCmd(),
		seedCmd(),
		syncCmd(),
		workerCmd(),
		depreciationCmd(),
		taxReportCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// appModules is the full service graph shared by every subcommand.
func appModules() fx.Option {
	return fx.Options(
		config.Module,
		logger.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,

		audit.Module,
		coa.Module,
		settings.Module,
		tax.Module,
		resolution.Module,
		journal.Module,
		finance.Module,
		invoice.Module,
		taxreport.Module,
		depreciation.Module,
	)
}

// runWithApp builds the service graph and runs one invocation.
func runWithApp(invoke any) error {
	app := fx.New(
		appModules(),
		fx.NopLogger,
		fx.Invoke(invoke),
	)

	startCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}

	stopCtx, cancelStop := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelStop()
	return app.Stop(stopCtx)
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(func(conn *gorm.DB) error {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				return migration.RunMigrations(sqlDB)
			})
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Apply migrations and seed the chart of accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(func(conn *gorm.DB) error {
				sqlDB, err := conn.DB()
				if err != nil {
					return err
				}
				if err := migration.RunMigrations(sqlDB); err != nil {
					return err
				}
				return seed.EnsureChartOfAccounts(conn)
			})
		},
	}
}

func syncCmd() *cobra.Command {
	var mappingFlags []string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Journal un-synced finance transactions",
		Long: "Reconciles simple-finance transactions against the formal ledger. " +
			"Categories no strategy can resolve are listed; pass operator decisions " +
			"with --mapping \"Category Name=<account id>\".",
		RunE: func(cmd *cobra.Command, args []string) error {
			overrides, err := parseMappings(mappingFlags)
			if err != nil {
				return err
			}

			return runWithApp(func(financeSvc financedomain.Service, resolutionSvc *resolution.Service) error {
				ctx := cmd.Context()

				report, err := financeSvc.SyncAll(ctx, overrides)
				if err != nil {
					return err
				}
				fmt.Printf("sync complete: %d attempted, %d posted\n", report.Attempted, report.Posted)

				unresolved, err := resolutionSvc.UnresolvedCategories(ctx)
				if err != nil {
					return err
				}
				if len(unresolved) > 0 {
					fmt.Printf("%d categories still need mapping:\n", len(unresolved))
					for _, category := range unresolved {
						fmt.Printf("  - %s\n", category)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&mappingFlags, "mapping", nil,
		`manual category mapping, "Category Name=<account id>" (repeatable)`)
	return cmd
}

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the background sync and depreciation worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := fx.New(
				appModules(),
				scheduler.Module,
				fx.NopLogger,
				fx.Invoke(func(*scheduler.Scheduler) {}),
			)
			app.Run()
			return nil
		},
	}
}

func depreciationCmd() *cobra.Command {
	var period string
	var force bool

	run := &cobra.Command{
		Use:   "run",
		Short: "Post the monthly depreciation journal entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(period) == "" {
				return fmt.Errorf("--period is required (YYYY-MM)")
			}
			return runWithApp(func(svc depreciationdomain.Service) error {
				result, err := svc.Run(cmd.Context(), period, force)
				if err != nil {
					return err
				}
				fmt.Printf("depreciation %s: %d assets, total %s\n",
					result.Period, result.ItemsProcessed, result.TotalAmount.StringFixed(2))
				return nil
			})
		},
	}
	run.Flags().StringVar(&period, "period", "", "target month, YYYY-MM")
	run.Flags().BoolVar(&force, "force", false, "delete and recreate an existing run for the period")

	cmd := &cobra.Command{
		Use:   "depreciation",
		Short: "Depreciation batch operations",
	}
	cmd.AddCommand(run)
	return cmd
}

func taxReportCmd() *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "tax-report",
		Short: "Aggregate invoiced PPN over a period",
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := time.Parse("2006-01-02", from)
			if err != nil {
				return fmt.Errorf("--from must be YYYY-MM-DD: %w", err)
			}
			end, err := time.Parse("2006-01-02", to)
			if err != nil {
				return fmt.Errorf("--to must be YYYY-MM-DD: %w", err)
			}

			return runWithApp(func(generator *taxreport.Generator) error {
				report, err := generator.Generate(cmd.Context(), start, end)
				if err != nil {
					return err
				}
				fmt.Printf("period %s - %s\n", from, to)
				fmt.Printf("  invoices:     %d\n", report.Count)
				fmt.Printf("  tax base:     %s\n", report.TotalTaxBase.StringFixed(2))
				fmt.Printf("  PPN payable:  %s\n", report.TotalPPNPayable.StringFixed(2))
				fmt.Printf("  total sales:  %s\n", report.TotalSales.StringFixed(2))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "period start, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "period end, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func parseMappings(flags []string) (map[string]snowflake.ID, error) {
	if len(flags) == 0 {
		return nil, nil
	}
	overrides := make(map[string]snowflake.ID, len(flags))
	for _, flag := range flags {
		idx := strings.LastIndex(flag, "=")
		if idx <= 0 {
			return nil, fmt.Errorf("invalid mapping %q, want \"Category Name=<account id>\"", flag)
		}
		category := strings.TrimSpace(flag[:idx])
		rawID := strings.TrimSpace(flag[idx+1:])
		id, err := strconv.ParseInt(rawID, 10, 64)
		if err != nil || category == "" {
			return nil, fmt.Errorf("invalid mapping %q, want \"Category Name=<account id>\"", flag)
		}
		overrides[category] = snowflake.ID(id)
	}
	return overrides, nil
}
