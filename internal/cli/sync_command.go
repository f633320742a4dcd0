package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"yt-feed-sync/internal/config"
	"yt-feed-sync/internal/logger"
	"yt-feed-sync/internal/notify"
	"yt-feed-sync/internal/orchestrator"
	"yt-feed-sync/internal/progress"
	"yt-feed-sync/internal/ytdlp"
)

type syncSourceReport struct {
	Source            string `json:"source"`
	Name              string `json:"name"`
	ScanFailed        bool   `json:"scan_failed,omitempty"`
	Scanned           int    `json:"scanned"`
	SkippedShorts     int    `json:"skipped_shorts"`
	AlreadyDownloaded int    `json:"already_downloaded"`
	Planned           int    `json:"planned"`
	Succeeded         int    `json:"succeeded"`
	Failed            int    `json:"failed"`
}

type syncReport struct {
	FirstRun  bool               `json:"first_run"`
	Planned   int                `json:"planned"`
	Succeeded int                `json:"succeeded"`
	Failed    int                `json:"failed"`
	Sources   []syncSourceReport `json:"sources"`
}

func runSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path (default: ~/.config/yt-feed-sync/config.yaml)")
	parallel := fs.Int("parallel", 0, "max parallel downloads (0 = config value)")
	notifyDesktop := fs.Bool("notify", false, "post a desktop notification when the pass finishes")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *parallel > 0 {
		cfg.Download.MaxParallel = *parallel
	}
	if len(cfg.SourceList()) == 0 {
		return fmt.Errorf("no sources configured (add one with `yt-feed-sync sources add`)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	o := orchestrator.New(cfg, log, ytdlp.ExecInvoker{}, progress.NewSink())

	result, err := o.Sync(ctx)
	if err != nil {
		return err
	}

	report := buildSyncReport(result)
	if *notifyDesktop {
		notify.Send("yt-feed-sync", fmt.Sprintf("%d downloaded, %d failed", report.Succeeded, report.Failed))
	}
	if *jsonOut {
		return printJSON(report)
	}
	printSyncReport(report)
	return nil
}

func buildSyncReport(result *orchestrator.Result) syncReport {
	report := syncReport{
		FirstRun:  result.FirstRun,
		Planned:   result.Planned,
		Succeeded: result.Succeeded,
		Failed:    result.Failed,
	}
	for _, sr := range result.Sources {
		report.Sources = append(report.Sources, syncSourceReport{
			Source:            sr.Source.Key,
			Name:              sr.Source.DisplayName,
			ScanFailed:        sr.ScanFailed,
			Scanned:           sr.Scanned,
			SkippedShorts:     sr.SkippedShorts,
			AlreadyDownloaded: sr.AlreadyDownloaded,
			Planned:           sr.Planned,
			Succeeded:         sr.Succeeded,
			Failed:            sr.Failed,
		})
	}
	return report
}

func printSyncReport(report syncReport) {
	if report.FirstRun {
		fmt.Println("sync: initial population pass")
	}
	for _, sr := range report.Sources {
		switch {
		case sr.ScanFailed:
			fmt.Printf("  %-24s scan failed\n", sr.Name)
		case sr.Planned == 0:
			fmt.Printf("  %-24s up to date (%d scanned, %d shorts, %d known)\n",
				sr.Name, sr.Scanned, sr.SkippedShorts, sr.AlreadyDownloaded)
		default:
			fmt.Printf("  %-24s %d/%d downloaded\n", sr.Name, sr.Succeeded, sr.Planned)
		}
	}
	fmt.Printf("sync: %d planned, %d downloaded, %d failed\n", report.Planned, report.Succeeded, report.Failed)
}
