package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"acreview/lib/browser"
	"acreview/lib/conference"
	"acreview/lib/openreview"
	"acreview/lib/pagearchive"
	"acreview/lib/report"
	"acreview/lib/serviceutil"
	"acreview/lib/simulate"
	"acreview/lib/submission"
	"acreview/lib/telemetry"
	"acreview/lib/timeout"

	"github.com/spf13/cobra"
)

var (
	confName    *string
	headless    *bool
	skipReviews *bool
	savePages   *bool
	csvPath     *string
	pageTimeout *time.Duration
	driverName  *string
	simulated   *bool
)

func init() {
	flags := scrapeCmd.Flags()
	confName = flags.String("conf", "", "The conference to scrape, defaults to the first one in the config.")
	headless = flags.Bool("headless", false, "Run the browser without a window.")
	skipReviews = flags.Bool("skip-reviews", false, "Only collect titles and ids.")
	savePages = flags.Bool("save-pages", false, "Save every visited page under "+pagearchive.DefaultRoot+"/.")
	csvPath = flags.String("csv", "submissions.csv", "The csv file to write results to.")
	pageTimeout = flags.Duration("timeout", timeout.DefaultDuration, "How long to wait on each page.")
	driverName = flags.String("driver", "", "The browser driver, chrome or http (overrides the config).")
	simulated = flags.Bool("simulate", false, "Output random submissions without opening a browser.")
	rootCmd.AddCommand(scrapeCmd)
}

// pickConference returns the named conference or the first configured one.
func pickConference(loader *conference.Loader, name string) (conference.Conference, error) {
	if name != "" {
		return loader.Get(name)
	}
	names := loader.List()
	if len(names) == 0 {
		return conference.Conference{}, fmt.Errorf("no conferences in %s", loader.Path())
	}
	return loader.Get(names[0])
}

// browserOptions resolves the driver options, flags win over the config.
func browserOptions(cfg conference.Browser, driver string, headless bool, headlessSet bool) browser.Options {
	opts := browser.Options{
		Driver:           cfg.Driver,
		ExecPath:         cfg.ExecPath(),
		WindowSize:       cfg.WindowSize,
		AdditionalArgs:   cfg.AdditionalArgs,
		CloudflareBypass: cfg.CloudflareBypass,
	}
	if driver != "" {
		opts.Driver = driver
	}
	switch {
	case headlessSet:
		opts.Headless = headless
	case cfg.Headless != nil:
		opts.Headless = *cfg.Headless
	}
	return opts
}

func output(subs []submission.Submission) {
	report.RenderTable(os.Stdout, subs)
	if err := report.SaveCSV(*csvPath, subs); err != nil {
		serviceutil.Fatal("failed to save csv", err)
	}
}

func scrape(ctx context.Context, cmd *cobra.Command) ([]submission.Submission, error) {
	loader, err := conference.Load(*configPath)
	if err != nil {
		return nil, err
	}
	conf, err := pickConference(loader, *confName)
	if err != nil {
		return nil, err
	}
	slog.Info("scraping conference", "name", conf.Name, "url", conf.URL)

	creds, err := openreview.CredentialsFromEnv()
	if err != nil {
		return nil, err
	}

	opts := browserOptions(loader.Browser(), *driverName, *headless, cmd.Flags().Changed("headless"))
	driver, err := browser.New(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}
	defer driver.Close()

	var archive *pagearchive.Archive
	if *savePages {
		archive = pagearchive.New(pagearchive.DefaultRoot, time.Now())
	}

	client := openreview.NewClient(driver, conf, openreview.Options{
		SkipReviews: *skipReviews,
		Timeout:     *pageTimeout,
		Archive:     archive,
		Progress:    newProgressBar(os.Stderr),
	})
	if err := client.Login(ctx, creds); err != nil {
		return nil, fmt.Errorf("failed to login: %w", err)
	}
	slog.Info("found submissions", "count", len(client.PaperURLs))

	return client.LoadAll(ctx)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--conf <name>] [--csv <path/to/output.csv>]",
	Short: "Logs into the area chair console and collects the scores of every assigned paper.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		if *simulated {
			subs, err := simulate.Submissions(5)
			if err != nil {
				serviceutil.Fatal("failed to simulate submissions", err)
			}
			output(subs)
			return
		}

		tel, err := telemetry.SetupFromEnv(ctx, "acreview")
		if err != nil {
			slog.Warn("failed to setup telemetry", "err", err)
		}
		defer tel.Shutdown(context.Background())
		if tel.Enabled() {
			telemetry.InstrumentPerfStats(ctx)
		}

		t1 := time.Now()
		subs, err := scrape(ctx, cmd)
		if errors.Is(err, context.Canceled) && len(subs) > 0 {
			slog.Warn("scrape interrupted, writing partial results", "count", len(subs))
		} else if err != nil {
			serviceutil.Fatal("failed to scrape", err)
		}
		slog.Info("scraping time", "seconds", time.Since(t1).Seconds())

		output(subs)
	},
}
