// ABOUTME: Entry point for the dealstash CLI
// ABOUTME: Routes codes and sync subcommands over a shared key-value store
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/harperreed/dealstash/cli"
	"github.com/harperreed/dealstash/kvstore"
	"github.com/harperreed/dealstash/store"
)

const version = "0.1.0"

func main() {
	// Global flags
	showVersion := flag.Bool("version", false, "Show version and exit")
	dataPath := flag.String("data-path", "", "Data directory (default: ~/.local/share/dealstash/kv)")

	// Parse global flags but don't fail on unknown (for subcommands)
	_ = flag.CommandLine.Parse(os.Args[1:])

	// Handle version flag
	if *showVersion {
		fmt.Printf("dealstash version %s\n", version)
		os.Exit(0)
	}

	// A .env is optional; env values feed sync settings overrides
	_ = godotenv.Load()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(0)
	}

	command := args[0]
	commandArgs := args[1:]

	path := *dataPath
	if path == "" {
		path = kvstore.DefaultPath()
	}

	kv, err := kvstore.Open(path)
	if err != nil {
		log.Fatalf("Failed to open data store: %v", err)
	}
	defer func() { _ = kv.Close() }()

	codes := store.New(kv)

	switch command {
	case "add":
		run(cli.AddCodeCommand(codes, commandArgs))
	case "list":
		run(cli.ListCodesCommand(codes, commandArgs))
	case "use":
		run(cli.UseCodeCommand(codes, commandArgs))
	case "favorite":
		run(cli.FavoriteCommand(codes, commandArgs))
	case "archive":
		run(cli.ArchiveCommand(codes, commandArgs))
	case "rm":
		run(cli.DeleteCodeCommand(codes, commandArgs))
	case "stats":
		run(cli.StatsCommand(codes, commandArgs))

	case "sync":
		if len(commandArgs) == 0 {
			fmt.Println("Error: sync requires a subcommand")
			printUsage()
			os.Exit(1)
		}

		syncCommand := commandArgs[0]
		syncArgs := commandArgs[1:]

		switch syncCommand {
		case "now":
			run(cli.SyncNowCommand(kv, codes, syncArgs))
		case "push":
			run(cli.SyncPushCommand(kv, codes, syncArgs))
		case "pull":
			run(cli.SyncPullCommand(kv, codes, syncArgs))
		case "status":
			run(cli.SyncStatusCommand(kv, syncArgs))
		case "settings":
			run(cli.SyncSettingsCommand(kv, syncArgs))
		case "token":
			run(cli.SyncTokenCommand(kv, syncArgs))
		case "wipe":
			run(cli.SyncWipeCommand(kv, syncArgs))
		default:
			fmt.Printf("Unknown sync command: %s\n\n", syncCommand)
			printUsage()
			os.Exit(1)
		}

	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func run(err error) {
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func printUsage() {
	fmt.Printf(`dealstash v%s - Discount code tracker with cloud sync

USAGE:
  dealstash [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --data-path <path>     Data directory (default: ~/.local/share/dealstash/kv)

CODE COMMANDS:
  dealstash add             Add a discount code
    --code <code>             Discount code (required)
    --store <name>            Store name (required)
    --discount <value>        Discount, e.g. "20%%" or "€10" (required)
    --category <category>     fashion, electronics, food, travel, entertainment, other
    --price <amount>          Original price, for percentage savings estimates
    --expires <date>          Expiry date (YYYY-MM-DD)
    --description <text>      Free-form description

  dealstash list            List codes
    --category <category>     Filter by category
    --store <name>            Filter by store name
    --favorites               Only favorites
    --all                     Include archived codes

  dealstash use <id>        Record one use of a code
  dealstash favorite <id>   Toggle favorite
  dealstash archive <id>    Toggle archive
  dealstash rm <id>         Delete a code
  dealstash stats           Usage and savings statistics
    --top <n>                 Most-used codes to show (default: 5)

SYNC COMMANDS:
  dealstash sync now        Full bidirectional sync with conflict resolution
  dealstash sync push       Upload local codes
  dealstash sync pull       Download the freshest remote snapshot
  dealstash sync status     Show sync state and recent events
    --events <n>              Recent events to show (default: 5)

  dealstash sync settings   Show or change sync settings
    --providers <ids>         Comma-separated: local, file, gist
    --strategy <name>         Conflict strategy: local, remote, merge
    --auto <bool>             Enable auto-sync
    --interval <minutes>      Auto-sync interval

  dealstash sync token      Store a GitHub token for the gist provider
    --clear                   Remove the stored token

  dealstash sync wipe       Delete remote sync data
    --force                   Skip confirmation

ENVIRONMENT:
  DEALSTASH_GITHUB_TOKEN    Overrides the stored GitHub token
  DEALSTASH_AUTO_SYNC       Overrides the auto-sync setting (true/false)

EXAMPLES:
  # Add a code
  dealstash add --code SAVE20 --store "Acme" --discount "20%%" --price 99.95

  # Record a use by ID prefix
  dealstash use 3f1a2b9c

  # Enable gist sync and run a full sync
  dealstash sync token
  dealstash sync settings --providers local,gist
  dealstash sync now

`, version)
}
