package cli

import (
	"context"
	"flag"
	"fmt"

	"yt-feed-sync/internal/config"
	"yt-feed-sync/internal/durcache"
	"yt-feed-sync/internal/statestore"
	"yt-feed-sync/internal/ytdlp"
)

type durationReport struct {
	Directory    string  `json:"directory"`
	Files        int     `json:"files"`
	TotalSeconds float64 `json:"total_seconds"`
	Formatted    string  `json:"formatted"`
}

func runDuration(args []string) error {
	fs := flag.NewFlagSet("duration", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	dir := fs.String("dir", "", "directory to measure (default: the video dir)")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	target := *dir
	if target == "" {
		target = cfg.Paths.VideoDir
	}

	paths := statestore.Paths{StateDir: cfg.Paths.StateDir}
	if err := statestore.Mkdir(cfg.Paths.StateDir); err != nil {
		return err
	}
	prober := durcache.NewProber(ytdlp.ExecInvoker{}, durcache.Load(paths.Durations()))

	stats, err := prober.DirectoryDuration(context.Background(), target)
	if err != nil {
		return err
	}

	report := durationReport{
		Directory:    target,
		Files:        stats.FileCount,
		TotalSeconds: stats.TotalSeconds,
		Formatted:    stats.Formatted,
	}
	if *jsonOut {
		return printJSON(report)
	}
	fmt.Printf("%s: %s across %d file(s)\n", report.Directory, report.Formatted, report.Files)
	return nil
}
