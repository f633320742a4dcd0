package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"yt-feed-sync/internal/config"
	"yt-feed-sync/internal/ytdlp"
)

type doctorReport struct {
	Dependencies  ytdlp.DependencyReport `json:"dependencies"`
	StateDir      string                 `json:"state_dir"`
	StateWritable bool                   `json:"state_writable"`
	VideoDir      string                 `json:"video_dir"`
	VideoWritable bool                   `json:"video_writable"`
	Sources       int                    `json:"sources"`
	OK            bool                   `json:"ok"`
}

func runDoctor(args []string) error {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
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

	report := doctorReport{
		Dependencies: ytdlp.DependencyStatus(),
		StateDir:     cfg.Paths.StateDir,
		VideoDir:     cfg.Paths.VideoDir,
		Sources:      len(cfg.SourceList()),
	}
	report.StateWritable = dirWritable(cfg.Paths.StateDir)
	report.VideoWritable = dirWritable(cfg.Paths.VideoDir)
	report.OK = report.Dependencies.YTDLPFound && report.StateWritable && report.VideoWritable

	if *jsonOut {
		return printJSON(report)
	}

	printCheck("yt-dlp on PATH", report.Dependencies.YTDLPFound, report.Dependencies.YTDLPPath)
	printCheck("ffmpeg on PATH", report.Dependencies.FFmpegFound, report.Dependencies.FFmpegPath)
	printCheck("ffprobe on PATH", report.Dependencies.FFprobeFound, report.Dependencies.FFprobePath)
	printCheck("state dir writable", report.StateWritable, report.StateDir)
	printCheck("video dir writable", report.VideoWritable, report.VideoDir)
	fmt.Printf("  sources configured: %d\n", report.Sources)

	if !report.OK {
		return fmt.Errorf("doctor found problems")
	}
	fmt.Println("doctor: all checks passed")
	return nil
}

func printCheck(label string, ok bool, detail string) {
	mark := "ok"
	if !ok {
		mark = "MISSING"
	}
	if detail != "" {
		fmt.Printf("  %-22s %-8s %s\n", label, mark, detail)
	} else {
		fmt.Printf("  %-22s %s\n", label, mark)
	}
}

func dirWritable(dir string) bool {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return false
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(filepath.Clean(name))
	return true
}
