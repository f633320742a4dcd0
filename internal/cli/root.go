package cli

import "fmt"

func Run(args []string) error {
	if len(args) == 0 {
		printRootUsage()
		return nil
	}

	switch args[0] {
	case "sync":
		return runSync(args[1:])
	case "status":
		return runStatus(args[1:])
	case "sources":
		return runSources(args[1:])
	case "manage":
		return runManage(args[1:])
	case "duration":
		return runDuration(args[1:])
	case "doctor":
		return runDoctor(args[1:])
	case "help", "-h", "--help":
		printRootUsage()
		return nil
	default:
		printRootUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func printRootUsage() {
	fmt.Println("yt-feed-sync: incremental feed synchronizer for yt-dlp archives")
	fmt.Println()
	fmt.Println("Quick Start:")
	fmt.Println("  yt-feed-sync sources add --key <handle-or-url> --kind channel")
	fmt.Println("  yt-feed-sync sync")
	fmt.Println("  yt-feed-sync status")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  sync      run one synchronization pass over all sources")
	fmt.Println("  status    archive rollup: history, resume entries, last download")
	fmt.Println("  sources   list/add/remove subscribed channels and playlists")
	fmt.Println("  manage    interactive source editor")
	fmt.Println("  duration  total playable duration of the video library")
	fmt.Println("  doctor    dependency and state-directory preflight checks")
	fmt.Println()
	fmt.Println("Notes:")
	fmt.Println("  - Use --json on commands for machine-readable output")
	fmt.Println("  - Use --config <path> to target a non-default config file")
}
