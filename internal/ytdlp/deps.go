package ytdlp

import (
	"fmt"
	"os/exec"
)

type DependencyReport struct {
	YTDLPFound   bool   `json:"yt_dlp_found"`
	YTDLPPath    string `json:"yt_dlp_path,omitempty"`
	FFmpegFound  bool   `json:"ffmpeg_found"`
	FFmpegPath   string `json:"ffmpeg_path,omitempty"`
	FFprobeFound bool   `json:"ffprobe_found"`
	FFprobePath  string `json:"ffprobe_path,omitempty"`
}

func DependencyStatus() DependencyReport {
	report := DependencyReport{}
	if path, err := exec.LookPath("yt-dlp"); err == nil {
		report.YTDLPFound = true
		report.YTDLPPath = path
	}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		report.FFmpegFound = true
		report.FFmpegPath = path
	}
	if path, err := exec.LookPath("ffprobe"); err == nil {
		report.FFprobeFound = true
		report.FFprobePath = path
	}
	return report
}

// CheckDependencies fails only when yt-dlp itself is missing. ffmpeg and
// ffprobe degrade features (merging, duration probes) rather than blocking
// the whole run, so their absence is reported by `doctor` instead.
func CheckDependencies() error {
	report := DependencyStatus()
	if !report.YTDLPFound {
		return fmt.Errorf("missing dependency: yt-dlp is not installed or not on PATH")
	}
	return nil
}
