// Command strengthctl bulk-imports athlete spreadsheets into a Strengthboard
// server and prints its leaderboards.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	// Autoloads .env file to supply environment variables
	_ "github.com/joho/godotenv/autoload"

	"github.com/lildude/strengthboard/internal/env"
)

const usage = `usage: strengthctl [-url URL] [-token TOKEN] COMMAND

commands:
  import FILE             import a tab-separated athlete export
  leaderboard [EXERCISE]  print the leaderboard, ranked by total by default
`

var errUsage = errors.New("invalid usage")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintln(os.Stderr, "strengthctl:", err)
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("strengthctl", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() { fmt.Fprint(fs.Output(), usage) }
	server := fs.String("url", env.String("STRENGTHBOARD_URL", "http://localhost:8080"), "server base URL")
	token := fs.String("token", env.String("STRENGTHBOARD_TOKEN", ""), "access token")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	base, err := url.Parse(*server)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return fmt.Errorf("invalid server URL %q", *server)
	}
	api := newAPI(base, *token)

	switch cmd := fs.Arg(0); cmd {
	case "import":
		if fs.NArg() != 2 {
			fs.Usage()
			return errUsage
		}
		return importFile(ctx, api, fs.Arg(1), stdout)
	case "leaderboard":
		exercise := "total"
		if fs.NArg() > 1 {
			exercise = fs.Arg(1)
		}
		return printLeaderboard(ctx, api, exercise, stdout)
	default:
		fs.Usage()
		return errUsage
	}
}

type importResult struct {
	SuccessCount int      `json:"successCount"`
	ErrorCount   int      `json:"errorCount"`
	Errors       []string `json:"errors"`
}

func importFile(ctx context.Context, api *api, path string, stdout io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var res importResult
	if err := api.mutate(ctx, "athlete.importData", string(data), &res); err != nil {
		return fmt.Errorf("importing %s: %w", path, err)
	}

	fmt.Fprintf(stdout, "imported %d athletes, %d failed\n", res.SuccessCount, res.ErrorCount)
	for _, msg := range res.Errors {
		fmt.Fprintln(stdout, "  "+msg)
	}
	if res.ErrorCount > 0 {
		return fmt.Errorf("%d rows failed", res.ErrorCount)
	}
	return nil
}

// leaderboardFields maps exercise names to the JSON field holding them.
var leaderboardFields = map[string]string{
	"total": "total", "squat": "squat", "bench": "bench", "deadlift": "deadlift",
	"ohp": "ohp", "inclineBench": "inclineBench", "rdl": "rdl",
	"revBandBench": "revBandBench", "revBandSquat": "revBandSquat",
	"revBandDl": "revBandDl", "slingshotBench": "slingshotBench",
}

func printLeaderboard(ctx context.Context, api *api, exercise string, stdout io.Writer) error {
	field, ok := leaderboardFields[exercise]
	if !ok {
		return fmt.Errorf("unknown exercise %q", exercise)
	}

	var athletes []map[string]any
	if err := api.query(ctx, "leaderboard.getByExercise", map[string]string{"exercise": exercise}, &athletes); err != nil {
		return fmt.Errorf("fetching leaderboard: %w", err)
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "RANK\tNAME\t%s\n", strings.ToUpper(exercise))
	for i, a := range athletes {
		value := "-"
		if v, ok := a[field].(string); ok {
			value = v
		}
		fmt.Fprintf(tw, "%d\t%v\t%s\n", i+1, a["name"], value)
	}
	return tw.Flush()
}
