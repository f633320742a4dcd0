package cli

import (
	"flag"
	"fmt"
	"sort"

	"yt-feed-sync/internal/config"
	"yt-feed-sync/internal/model"
	"yt-feed-sync/internal/statestore"
)

type statusSourceRow struct {
	Source         string `json:"source"`
	Name           string `json:"name"`
	Downloaded     int    `json:"downloaded"`
	LastDownloadAt string `json:"last_download_at,omitempty"`
}

type statusReport struct {
	FirstRunCompleted bool                `json:"first_run_completed"`
	Sources           []statusSourceRow   `json:"sources"`
	ResumeEntries     int                 `json:"resume_entries"`
	LastDownload      *model.LastDownload `json:"last_download,omitempty"`
}

func runStatus(args []string) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	jsonOut := fs.Bool("json", false, "print JSON output")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	paths := statestore.Paths{StateDir: cfg.Paths.StateDir}

	history, err := statestore.LoadHistory(paths.History(), cfg.Sync.HistoryMaxEntries)
	if err != nil {
		return err
	}
	resume, err := statestore.LoadResume(paths.Resume(), cfg.Download.ResumeRetentionDays)
	if err != nil {
		return err
	}

	report := statusReport{
		FirstRunCompleted: history.FirstRunCompleted(),
		ResumeEntries:     resume.Len(),
	}

	// Configured sources first, then any historical sources no longer in
	// the registry.
	seen := map[string]bool{}
	for _, source := range cfg.SourceList() {
		seen[source.Key] = true
		entry := history.Entry(source.Key)
		report.Sources = append(report.Sources, statusSourceRow{
			Source:         source.Key,
			Name:           source.DisplayName,
			Downloaded:     len(entry.DownloadedItems),
			LastDownloadAt: entry.LastDownloadAt,
		})
	}
	extra := history.SourceKeys()
	sort.Strings(extra)
	for _, key := range extra {
		if seen[key] {
			continue
		}
		entry := history.Entry(key)
		report.Sources = append(report.Sources, statusSourceRow{
			Source:         key,
			Name:           key + " (unsubscribed)",
			Downloaded:     len(entry.DownloadedItems),
			LastDownloadAt: entry.LastDownloadAt,
		})
	}

	if snap, ok := statestore.LoadLastDownload(paths.LastDownload()); ok {
		report.LastDownload = &snap
	}

	if *jsonOut {
		return printJSON(report)
	}

	if report.FirstRunCompleted {
		fmt.Println("status: steady state (initial population done)")
	} else {
		fmt.Println("status: next sync will run the initial population")
	}
	for _, row := range report.Sources {
		last := row.LastDownloadAt
		if last == "" {
			last = "never"
		}
		fmt.Printf("  %-24s %4d downloaded, last %s\n", row.Name, row.Downloaded, last)
	}
	if report.ResumeEntries > 0 {
		fmt.Printf("  %d interrupted download(s) pending resume\n", report.ResumeEntries)
	}
	if report.LastDownload != nil {
		fmt.Printf("  most recent: %s (%s)\n", report.LastDownload.Title, report.LastDownload.SourceName)
	}
	return nil
}
