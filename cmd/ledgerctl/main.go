package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/KotFed0t/fund_portfolio_tracker/config"
	"github.com/KotFed0t/fund_portfolio_tracker/data"
	"github.com/KotFed0t/fund_portfolio_tracker/data/repository/postgres"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/externalApi/quotesApi"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/model"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service/fundService"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service/portfolioService"
	"github.com/KotFed0t/fund_portfolio_tracker/internal/service/transactionService"
	"github.com/KotFed0t/fund_portfolio_tracker/utils"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	app := &cli.App{
		Name:  "ledgerctl",
		Usage: "administer the fund catalog and portfolio ledgers",
		Commands: []*cli.Command{
			migrateCommand(),
			fundCommand(),
			portfolioCommand(),
		},
	}

	if err := app.RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// env bundles what every command needs; close releases the connection.
type env struct {
	cfg *config.Config
	db  *sqlx.DB
}

func connect(cCtx *cli.Context) (*env, error) {
	cfg := config.MustLoad()
	db, err := data.ConnectPostgres(cCtx.Context, cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, db: db}, nil
}

func (e *env) close() {
	_ = e.db.Close()
}

func (e *env) repo() *postgres.Postgres {
	return postgres.NewPostgres(e.cfg, e.db)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply or roll back schema migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "apply all pending migrations",
				Action: func(cCtx *cli.Context) error {
					e, err := connect(cCtx)
					if err != nil {
						return err
					}
					defer e.close()

					if err = data.MigrateUp(e.db, e.cfg.Postgres.MigrationDir); err != nil {
						return err
					}
					return printVersion(e)
				},
			},
			{
				Name:  "down",
				Usage: "roll back migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "number of migrations to roll back"},
				},
				Action: func(cCtx *cli.Context) error {
					steps := cCtx.Int("steps")
					if steps <= 0 {
						return errors.New("--steps must be positive")
					}

					e, err := connect(cCtx)
					if err != nil {
						return err
					}
					defer e.close()

					if err = data.MigrateDown(e.db, e.cfg.Postgres.MigrationDir, steps); err != nil {
						return err
					}
					return printVersion(e)
				},
			},
			{
				Name:  "version",
				Usage: "print the current schema version",
				Action: func(cCtx *cli.Context) error {
					e, err := connect(cCtx)
					if err != nil {
						return err
					}
					defer e.close()
					return printVersion(e)
				},
			},
		},
	}
}

func printVersion(e *env) error {
	version, dirty, err := data.MigrationVersion(e.db, e.cfg.Postgres.MigrationDir)
	if err != nil {
		return err
	}
	fmt.Printf("schema version %d (dirty: %t)\n", version, dirty)
	return nil
}

func fundCommand() *cli.Command {
	return &cli.Command{
		Name:  "fund",
		Usage: "manage the fund catalog",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "register a fund",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Required: true},
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "symbol", Required: true},
					&cli.StringFlag{Name: "price", Required: true},
					&cli.StringFlag{Name: "currency", Value: "USD"},
					&cli.StringFlag{Name: "category", Required: true, Usage: "tech, healthcare, finance, energy, consumer or industrial"},
				},
				Action: addFund,
			},
			{
				Name:      "set-price",
				Usage:     "overwrite the current price of a fund",
				ArgsUsage: "<fundID> <price>",
				Action:    setFundPrice,
			},
			{
				Name:  "list",
				Usage: "list funds",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "category"},
				},
				Action: listFunds,
			},
			{
				Name:  "refresh",
				Usage: "pull current prices from the quotes API once",
				Action: func(cCtx *cli.Context) error {
					e, err := connect(cCtx)
					if err != nil {
						return err
					}
					defer e.close()

					if e.cfg.API.QuotesApi.Url == "" {
						return errors.New("QUOTES_API_URL is not set")
					}
					return fundService.New(e.repo(), quotesApi.New(e.cfg)).RefreshPrices(cCtx.Context)
				},
			},
		},
	}
}

func addFund(cCtx *cli.Context) error {
	price, err := decimal.NewFromString(cCtx.String("price"))
	if err != nil {
		return fmt.Errorf("bad --price: %w", err)
	}
	category, err := model.ParseFundCategory(cCtx.String("category"))
	if err != nil {
		return err
	}

	e, err := connect(cCtx)
	if err != nil {
		return err
	}
	defer e.close()

	fund, err := fundService.New(e.repo(), nil).CreateFund(utils.WithRequestID(cCtx.Context), model.Fund{
		ID:       cCtx.String("id"),
		Name:     cCtx.String("name"),
		Symbol:   cCtx.String("symbol"),
		Price:    price,
		Currency: cCtx.String("currency"),
		Category: category,
	})
	if err != nil {
		return err
	}

	fmt.Printf("created fund %s (%s) at %s %s\n", fund.ID, fund.Symbol, fund.Price.StringFixed(2), fund.Currency)
	return nil
}

func setFundPrice(cCtx *cli.Context) error {
	if cCtx.NArg() != 2 {
		return cli.ShowSubcommandHelp(cCtx)
	}
	price, err := decimal.NewFromString(cCtx.Args().Get(1))
	if err != nil {
		return fmt.Errorf("bad price: %w", err)
	}

	e, err := connect(cCtx)
	if err != nil {
		return err
	}
	defer e.close()

	fund, err := fundService.New(e.repo(), nil).UpdatePrice(utils.WithRequestID(cCtx.Context), cCtx.Args().Get(0), price)
	if err != nil {
		return err
	}

	fmt.Printf("%s now at %s\n", fund.ID, fund.Price.StringFixed(2))
	return nil
}

func listFunds(cCtx *cli.Context) error {
	var category *model.FundCategory
	if raw := cCtx.String("category"); raw != "" {
		parsed, err := model.ParseFundCategory(raw)
		if err != nil {
			return err
		}
		category = &parsed
	}

	e, err := connect(cCtx)
	if err != nil {
		return err
	}
	defer e.close()

	funds, err := fundService.New(e.repo(), nil).ListFunds(utils.WithRequestID(cCtx.Context), category)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSYMBOL\tNAME\tCATEGORY\tPRICE")
	for _, f := range funds {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s %s\n", f.ID, f.Symbol, f.Name, f.Category, f.Price.StringFixed(2), f.Currency)
	}
	return w.Flush()
}

func portfolioCommand() *cli.Command {
	return &cli.Command{
		Name:  "portfolio",
		Usage: "inspect portfolios",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "list portfolios",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Usage: "only portfolios of this user id"},
				},
				Action: listPortfolios,
			},
			{
				Name:      "verify",
				Usage:     "replay the ledger and compare with stored holdings",
				ArgsUsage: "<portfolioID>",
				Action:    verifyPortfolio,
			},
		},
	}
}

func listPortfolios(cCtx *cli.Context) error {
	e, err := connect(cCtx)
	if err != nil {
		return err
	}
	defer e.close()

	ctx := utils.WithRequestID(cCtx.Context)
	srv := portfolioService.New(e.repo())

	portfolios, err := srv.ListPortfolios(ctx, cCtx.String("user"))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSER\tNAME\tHOLDINGS\tVALUE\tRETURN %")
	for _, p := range portfolios {
		value, err := srv.GetPortfolioValue(ctx, p.ID)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n", p.ID, p.UserID, p.Name, len(p.Holdings), value.TotalValue.StringFixed(2), value.ReturnPercentage.StringFixed(2))
	}
	return w.Flush()
}

func verifyPortfolio(cCtx *cli.Context) error {
	if cCtx.NArg() != 1 {
		return cli.ShowSubcommandHelp(cCtx)
	}
	portfolioID := cCtx.Args().First()

	e, err := connect(cCtx)
	if err != nil {
		return err
	}
	defer e.close()

	consistent, replayed, err := transactionService.New(e.repo()).VerifyLedger(utils.WithRequestID(cCtx.Context), portfolioID)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FUND\tQUANTITY\tAVG PRICE")
	for _, h := range replayed {
		fmt.Fprintf(w, "%s\t%s\t%s\n", h.FundID, h.Quantity.String(), h.AveragePurchasePrice.StringFixed(4))
	}
	if err = w.Flush(); err != nil {
		return err
	}

	if !consistent {
		return cli.Exit("stored holdings differ from the ledger replay", 2)
	}
	fmt.Println("ledger is consistent with stored holdings")
	return nil
}
