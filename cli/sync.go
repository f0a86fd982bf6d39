// ABOUTME: Cloud sync CLI commands
// ABOUTME: Full sync, push, pull, status, settings, and token management
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/harperreed/dealstash/kvstore"
	"github.com/harperreed/dealstash/store"
	"github.com/harperreed/dealstash/sync"
)

// newEngine builds a sync engine from persisted settings, wiring up every
// provider so the enabled set alone decides which ones participate.
func newEngine(kv kvstore.Store) (*sync.Engine, error) {
	cfg, err := sync.LoadSettings(kv)
	if err != nil {
		return nil, fmt.Errorf("failed to load sync settings: %w", err)
	}

	picker := &sync.TerminalPicker{In: os.Stdin, Out: os.Stdout}
	providers := []sync.Provider{
		sync.NewLocalProvider(kv, nil),
		sync.NewFileProvider(picker, nil),
		sync.NewGistProvider(kv, cfg.GistToken, nil),
	}

	return sync.NewEngine(kv, cfg, providers, nil), nil
}

// SyncNowCommand runs a full bidirectional sync.
func SyncNowCommand(kv kvstore.Store, codes *store.CodeStore, args []string) error {
	fs := flag.NewFlagSet("now", flag.ExitOnError)
	_ = fs.Parse(args)

	engine, err := newEngine(kv)
	if err != nil {
		return err
	}

	local, err := codes.List()
	if err != nil {
		return fmt.Errorf("failed to read local codes: %w", err)
	}

	fmt.Println("Syncing...")
	okSync := engine.PerformFullSync(context.Background(), local, codes.ReplaceAll)
	status := engine.Status()

	if !okSync {
		return fmt.Errorf("sync failed: %s", status.Error)
	}

	if status.Error != "" {
		fmt.Println(warn(status.Error))
	}
	merged, _ := codes.List()
	fmt.Println(ok(fmt.Sprintf("Sync complete: %d code(s)", len(merged))))
	return nil
}

// SyncPushCommand uploads the local codes without merging remote state.
func SyncPushCommand(kv kvstore.Store, codes *store.CodeStore, args []string) error {
	fs := flag.NewFlagSet("push", flag.ExitOnError)
	_ = fs.Parse(args)

	engine, err := newEngine(kv)
	if err != nil {
		return err
	}

	local, err := codes.List()
	if err != nil {
		return fmt.Errorf("failed to read local codes: %w", err)
	}

	if !engine.SyncToCloud(context.Background(), local) {
		return fmt.Errorf("push failed: %s", engine.Status().Error)
	}

	status := engine.Status()
	if status.Error != "" {
		fmt.Println(warn(status.Error))
	}
	fmt.Println(ok(fmt.Sprintf("Pushed %d code(s)", len(local))))
	return nil
}

// SyncPullCommand downloads the freshest remote snapshot and replaces the
// local codes with it.
func SyncPullCommand(kv kvstore.Store, codes *store.CodeStore, args []string) error {
	fs := flag.NewFlagSet("pull", flag.ExitOnError)
	_ = fs.Parse(args)

	engine, err := newEngine(kv)
	if err != nil {
		return err
	}

	payload := engine.SyncFromCloud(context.Background())
	if payload == nil {
		if msg := engine.Status().Error; msg != "" {
			return fmt.Errorf("pull failed: %s", msg)
		}
		fmt.Println("No remote data found")
		return nil
	}

	if err := codes.ReplaceAll(payload.Codes); err != nil {
		return fmt.Errorf("failed to apply remote codes: %w", err)
	}

	fmt.Println(ok(fmt.Sprintf("Pulled %d code(s) from device %s", len(payload.Codes), payload.DeviceID)))
	return nil
}

// SyncStatusCommand shows sync state and the recent event feed.
func SyncStatusCommand(kv kvstore.Store, args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	events := fs.Int("events", 5, "Number of recent events to show")
	_ = fs.Parse(args)

	engine, err := newEngine(kv)
	if err != nil {
		return err
	}

	cfg := engine.Settings()
	status := engine.Status()

	fmt.Println(headerStyle.Render("SYNC STATUS"))
	if status.LastSync != nil {
		fmt.Printf("  Last sync: %s\n", status.LastSync.Local().Format(time.RFC1123))
	} else {
		fmt.Println("  Last sync: never")
	}
	fmt.Printf("  Providers: %s\n", strings.Join(cfg.EnabledProviders, ", "))
	fmt.Printf("  Strategy: %s\n", cfg.ConflictResolution)
	if cfg.AutoSync {
		fmt.Printf("  Auto-sync: every %d minute(s)\n", cfg.SyncIntervalMinutes)
	} else {
		fmt.Println("  Auto-sync: off")
	}
	if cfg.GistToken != "" {
		fmt.Println("  GitHub token: configured")
	} else {
		fmt.Println("  GitHub token: " + mutedStyle.Render("not set"))
	}
	if status.Error != "" {
		fmt.Println("  " + fail(status.Error))
	}

	feed := engine.Events()
	if *events > 0 && len(feed) > 0 {
		if len(feed) > *events {
			feed = feed[len(feed)-*events:]
		}
		fmt.Println()
		fmt.Println(headerStyle.Render("RECENT EVENTS"))
		for _, ev := range feed {
			fmt.Printf("  %s  %-18s %s\n",
				mutedStyle.Render(ev.Timestamp.Local().Format("15:04:05")), ev.Type, ev.Message)
		}
	}
	return nil
}

// SyncSettingsCommand shows or updates sync settings.
func SyncSettingsCommand(kv kvstore.Store, args []string) error {
	fs := flag.NewFlagSet("settings", flag.ExitOnError)
	providers := fs.String("providers", "", "Comma-separated provider ids (local, file, gist)")
	strategy := fs.String("strategy", "", "Conflict strategy (local, remote, merge)")
	auto := fs.String("auto", "", "Enable auto-sync (true/false)")
	interval := fs.Int("interval", 0, "Auto-sync interval in minutes")
	_ = fs.Parse(args)

	engine, err := newEngine(kv)
	if err != nil {
		return err
	}
	cfg := engine.Settings()

	changed := false
	if *providers != "" {
		var ids []string
		for _, id := range strings.Split(*providers, ",") {
			id = strings.TrimSpace(id)
			switch id {
			case "local", "file", "gist":
				ids = append(ids, id)
			default:
				return fmt.Errorf("unknown provider: %s", id)
			}
		}
		cfg.EnabledProviders = ids
		changed = true
	}
	if *strategy != "" {
		switch sync.Strategy(*strategy) {
		case sync.StrategyLocal, sync.StrategyRemote, sync.StrategyMerge:
			cfg.ConflictResolution = sync.Strategy(*strategy)
			changed = true
		default:
			return fmt.Errorf("unknown strategy: %s", *strategy)
		}
	}
	if *auto != "" {
		cfg.AutoSync = *auto == "true" || *auto == "1"
		changed = true
	}
	if *interval > 0 {
		cfg.SyncIntervalMinutes = *interval
		changed = true
	}

	if changed {
		if err := engine.UpdateSettings(&cfg); err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		fmt.Println(ok("Settings saved"))
		return nil
	}

	return SyncStatusCommand(kv, []string{"-events", "0"})
}

// SyncTokenCommand stores the GitHub token for the gist provider, reading
// it without echo.
func SyncTokenCommand(kv kvstore.Store, args []string) error {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	clear := fs.Bool("clear", false, "Remove the stored token")
	_ = fs.Parse(args)

	cfg, err := sync.LoadSettings(kv)
	if err != nil {
		return fmt.Errorf("failed to load sync settings: %w", err)
	}

	if *clear {
		cfg.GistToken = ""
		if err := sync.SaveSettings(kv, cfg); err != nil {
			return err
		}
		fmt.Println(ok("GitHub token removed"))
		return nil
	}

	fmt.Print("GitHub token (input hidden): ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return fmt.Errorf("failed to read token: %w", err)
	}

	token := strings.TrimSpace(string(raw))
	if token == "" {
		return fmt.Errorf("no token entered")
	}

	cfg.GistToken = token
	if err := sync.SaveSettings(kv, cfg); err != nil {
		return err
	}
	fmt.Println(ok("GitHub token saved"))
	return nil
}

// SyncWipeCommand deletes remote copies from all enabled providers.
func SyncWipeCommand(kv kvstore.Store, args []string) error {
	fs := flag.NewFlagSet("wipe", flag.ExitOnError)
	force := fs.Bool("force", false, "Skip confirmation")
	_ = fs.Parse(args)

	if !*force {
		fmt.Print("Delete remote sync data from all enabled providers? (yes/no): ")
		var answer string
		_, _ = fmt.Scanln(&answer)
		if strings.ToLower(strings.TrimSpace(answer)) != "yes" {
			fmt.Println("Aborted")
			return nil
		}
	}

	engine, err := newEngine(kv)
	if err != nil {
		return err
	}

	if err := engine.WipeRemote(context.Background()); err != nil {
		return fmt.Errorf("wipe failed: %w", err)
	}

	fmt.Println(ok("Remote sync data deleted"))
	return nil
}
