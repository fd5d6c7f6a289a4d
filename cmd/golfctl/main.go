package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/stitts-dev/golf-prize-engine/internal/golf"
	"github.com/stitts-dev/golf-prize-engine/internal/namematch"
	"github.com/stitts-dev/golf-prize-engine/internal/services"
	"github.com/stitts-dev/golf-prize-engine/internal/standings"
	"github.com/stitts-dev/golf-prize-engine/pkg/config"
	"github.com/stitts-dev/golf-prize-engine/pkg/database"
	"github.com/stitts-dev/golf-prize-engine/pkg/logger"
)

func main() {
	logger.InitLogger("", true)
	if err := newApp().Run(os.Args); err != nil {
		logger.WithService("golfctl").Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "golfctl",
		Usage: "manage payout tables and inspect tournament standings",
		Commands: []*cli.Command{
			validatePayoutsCommand(),
			importPayoutsCommand(),
			standingsCommand(),
		},
	}
}

func tournamentFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "tournament",
		Aliases:  []string{"t"},
		Usage:    "tournament id (uuid)",
		Required: true,
	}
}

func validatePayoutsCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate-payouts",
		Usage:     "check a payout file without touching the database",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("validate-payouts needs exactly one FILE argument", 2)
			}
			entries, err := readPayoutFile(c.Args().First())
			if err != nil {
				return err
			}
			table, err := golf.NewPayoutTable(entries)
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			printPayoutTable(c.App.Writer, table)
			return nil
		},
	}
}

func importPayoutsCommand() *cli.Command {
	return &cli.Command{
		Name:      "import-payouts",
		Usage:     "validate a payout file and replace the tournament's prize distribution",
		ArgsUsage: "FILE",
		Flags:     []cli.Flag{tournamentFlag()},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("import-payouts needs exactly one FILE argument", 2)
			}
			tournamentID, err := uuid.Parse(c.String("tournament"))
			if err != nil {
				return fmt.Errorf("invalid tournament id: %w", err)
			}
			entries, err := readPayoutFile(c.Args().First())
			if err != nil {
				return err
			}

			db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			table, err := services.NewPrizeStore(db).ImportDistribution(c.Context, tournamentID, entries)
			if err != nil {
				return err
			}
			printPayoutTable(c.App.Writer, table)
			fmt.Fprintf(c.App.Writer, "Imported %d paid positions for %s\n", table.PaidPositions(), tournamentID)
			return nil
		},
	}
}

func standingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "standings",
		Usage: "print team standings from the final result or a saved leaderboard snapshot",
		Flags: []cli.Flag{
			tournamentFlag(),
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "reconcile this leaderboard snapshot (JSON) instead of the stored final result",
			},
			&cli.StringFlag{
				Name:    "aliases",
				Usage:   "name alias file",
				EnvVars: []string{"NAME_ALIAS_FILE"},
			},
		},
		Action: func(c *cli.Context) error {
			tournamentID, err := uuid.Parse(c.String("tournament"))
			if err != nil {
				return fmt.Errorf("invalid tournament id: %w", err)
			}

			aliases := namematch.DefaultAliases()
			if path := c.String("aliases"); path != "" {
				if aliases, err = namematch.LoadAliasFile(path); err != nil {
					return err
				}
			}

			db, err := connect()
			if err != nil {
				return err
			}
			defer db.Close()

			result, err := loadReconciliation(c.Context, db, tournamentID, c.String("snapshot"), aliases)
			if err != nil {
				return err
			}
			rosters, err := services.NewRosterStore(db).Rosters(c.Context, tournamentID)
			if err != nil {
				return err
			}

			printStandings(c.App.Writer, standings.Aggregate(rosters, result.PrizesByPlayer()))
			if len(result.Unmatched) > 0 {
				fmt.Fprintf(c.App.Writer, "\n%d unmatched feed players:\n", len(result.Unmatched))
				for _, u := range result.Unmatched {
					fmt.Fprintf(c.App.Writer, "  %s (%s): %s\n", u.Name, u.ExternalID, u.Reason)
				}
			}
			return nil
		},
	}
}

func connect() (*database.DB, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	return database.NewConnection(cfg.DatabaseURL, false)
}

func loadReconciliation(ctx context.Context, db *database.DB, tournamentID uuid.UUID, snapshotPath string, aliases *namematch.AliasTable) (golf.Reconciliation, error) {
	tournaments := services.NewTournamentStore(db)
	if snapshotPath == "" {
		return tournaments.FinalResult(ctx, tournamentID)
	}

	data, err := os.ReadFile(snapshotPath)
	if err != nil {
		return golf.Reconciliation{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snapshot golf.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return golf.Reconciliation{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	snapshot.TournamentID = tournamentID.String()

	payouts, err := services.NewPrizeStore(db).PayoutTable(ctx, tournamentID)
	if err != nil {
		return golf.Reconciliation{}, err
	}
	candidates, err := tournaments.MatchCandidates(ctx)
	if err != nil {
		return golf.Reconciliation{}, err
	}
	return golf.Reconcile(snapshot, payouts, namematch.NewMatcher(candidates, aliases)), nil
}

func printPayoutTable(out io.Writer, table golf.PayoutTable) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "POSITION\tAMOUNT\t")
	for _, entry := range table.Entries() {
		fmt.Fprintf(w, "%d\t%d\t\n", entry.Position, entry.Amount)
	}
	fmt.Fprintf(w, "PURSE\t%d\t\n", table.Purse())
	w.Flush()
}

func printStandings(out io.Writer, teams []standings.TeamStanding) {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RANK\tMEMBER\tLINEUP\tTOTAL")
	for _, team := range teams {
		fmt.Fprintf(w, "%d\t%s\t%t\t%d\n", team.Rank, team.MemberName, team.HasLineup, team.Total)
	}
	w.Flush()
}
