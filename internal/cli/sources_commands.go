package cli

import (
	"flag"
	"fmt"
	"strings"

	"yt-feed-sync/internal/config"
	"yt-feed-sync/internal/model"
)

func runSources(args []string) error {
	if len(args) == 0 {
		return runSourcesList(nil)
	}
	switch args[0] {
	case "list":
		return runSourcesList(args[1:])
	case "add":
		return runSourcesAdd(args[1:])
	case "remove":
		return runSourcesRemove(args[1:])
	default:
		return fmt.Errorf("unknown sources subcommand %q (expected list, add, or remove)", args[0])
	}
}

func runSourcesList(args []string) error {
	fs := flag.NewFlagSet("sources list", flag.ContinueOnError)
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
	sources := cfg.SourceList()
	if *jsonOut {
		return printJSON(sources)
	}
	if len(sources) == 0 {
		fmt.Println("no sources configured")
		return nil
	}
	for _, s := range sources {
		fmt.Printf("  %-10s %-24s %s\n", s.Kind, s.DisplayName, s.FeedURL())
	}
	return nil
}

func runSourcesAdd(args []string) error {
	fs := flag.NewFlagSet("sources add", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	key := fs.String("key", "", "channel handle or playlist URL")
	name := fs.String("name", "", "display name (default: the key)")
	kind := fs.String("kind", model.KindChannel, "source kind: channel|playlist")
	initialLimit := fs.Int("initial-limit", 0, "items to take on the initial population (0 = config default)")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*key) == "" {
		return fmt.Errorf("--key is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if err := cfg.AddSource(config.SourceConfig{
		Key:          *key,
		Name:         *name,
		Kind:         *kind,
		InitialLimit: *initialLimit,
	}); err != nil {
		return err
	}
	if err := config.Save(cfg, *configPath); err != nil {
		return err
	}
	fmt.Printf("added %s source %q\n", *kind, strings.TrimSpace(*key))
	return nil
}

func runSourcesRemove(args []string) error {
	fs := flag.NewFlagSet("sources remove", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	key := fs.String("key", "", "source key to remove")
	yes := fs.Bool("yes", false, "skip the confirmation prompt")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*key) == "" {
		return fmt.Errorf("--key is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if !*yes {
		ok, err := promptConfirm(fmt.Sprintf("remove source %q? downloaded files are kept. [y/N] ", *key))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("aborted")
			return nil
		}
	}
	if err := cfg.RemoveSource(*key); err != nil {
		return err
	}
	if err := config.Save(cfg, *configPath); err != nil {
		return err
	}
	fmt.Printf("removed source %q\n", strings.TrimSpace(*key))
	return nil
}
