package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/live-labs/tradebutler/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		runServe(ctx, os.Args[2:])
	case "status":
		runStatus(ctx, os.Args[2:])
	case "lock":
		runLock(ctx, os.Args[2:])
	case "unlock":
		runUnlock(ctx, os.Args[2:])
	case "passwd":
		runPasswd(ctx, os.Args[2:])
	case "pin":
		runPin(ctx, os.Args[2:])
	case "forget":
		runForget(ctx, os.Args[2:])
	case "compact":
		runCompact(ctx, os.Args[2:])
	case "help", "-h", "--help":
		if len(os.Args) <= 2 {
			printUsage()
			return
		}
		printCommandHelp(os.Args[2])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (default from TRADEBUTLER_ADDR)")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Serve(ctx, *addr)
}

func runStatus(_ context.Context, args []string) {
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Status()
}

func runLock(_ context.Context, args []string) {
	fs := flag.NewFlagSet("lock", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Lock()
}

func runUnlock(_ context.Context, args []string) {
	fs := flag.NewFlagSet("unlock", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Unlock()
}

func runPasswd(_ context.Context, args []string) {
	fs := flag.NewFlagSet("passwd", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Passwd()
}

func runPin(_ context.Context, args []string) {
	fs := flag.NewFlagSet("pin", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Pin()
}

func runForget(_ context.Context, args []string) {
	fs := flag.NewFlagSet("forget", flag.ExitOnError)
	force := fs.Bool("force", false, "Erase without confirmation")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Forget(*force)
}

func runCompact(_ context.Context, args []string) {
	fs := flag.NewFlagSet("compact", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}

	cmd.Compact()
}

func printUsage() {
	fmt.Println("tradebutler - Local trade journal with a lock screen")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  tradebutler <command> [arguments]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  serve       Run the local API server for the desktop client")
	fmt.Println("  status      Show journal and lock-screen status")
	fmt.Println("  lock        Engage the lock screen")
	fmt.Println("  unlock      Verify the PIN or password and unlock")
	fmt.Println("  pin         Set or change the lock-screen PIN")
	fmt.Println("  passwd      Set or change the lock-screen password")
	fmt.Println("  forget      Erase all data and remove the credential")
	fmt.Println("  compact     Compact the database to reclaim disk space")
	fmt.Println("  help        Show help for a command")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  tradebutler serve                # Start the API server")
	fmt.Println("  tradebutler pin                  # Protect the journal with a PIN")
	fmt.Println("  tradebutler status               # Check journal status")
	fmt.Println()
	fmt.Println("Use 'tradebutler help <command>' for more information about a command.")
}

func printCommandHelp(command string) {
	switch command {
	case "serve":
		fmt.Println("tradebutler serve [--addr host:port]")
		fmt.Println()
		fmt.Println("Runs the local HTTP API the desktop client talks to.")
		fmt.Println("Binds to 127.0.0.1:7895 unless --addr or TRADEBUTLER_ADDR says otherwise.")
		fmt.Println("While the lock screen is engaged, only the unlock and status")
		fmt.Println("endpoints respond; everything else returns 401.")
		fmt.Println()
		fmt.Println("Example:")
		fmt.Println("  tradebutler serve --addr 127.0.0.1:9000")
	case "status":
		fmt.Println("tradebutler status")
		fmt.Println()
		fmt.Println("Shows lock-screen configuration, trade and entry counts,")
		fmt.Println("and the database location and size.")
		fmt.Println()
		fmt.Println("Does not require the PIN or password.")
	case "lock":
		fmt.Println("tradebutler lock")
		fmt.Println()
		fmt.Println("Engages the lock screen. Requires a configured PIN or password.")
	case "unlock":
		fmt.Println("tradebutler unlock")
		fmt.Println()
		fmt.Println("Verifies the PIN or password and clears the lock screen.")
		fmt.Println("A secret stored in the OS keyring is tried before prompting.")
		fmt.Println("The secret can also be supplied via TRADEBUTLER_SECRET.")
	case "pin":
		fmt.Println("tradebutler pin")
		fmt.Println()
		fmt.Println("Sets or changes the lock-screen PIN (exactly 6 digits).")
		fmt.Println("Changing an existing credential requires the current one.")
	case "passwd":
		fmt.Println("tradebutler passwd")
		fmt.Println()
		fmt.Println("Sets or changes the lock-screen password (at least 4 characters).")
		fmt.Println("Changing an existing credential requires the current one.")
	case "forget":
		fmt.Println("tradebutler forget [--force]")
		fmt.Println()
		fmt.Println("Erases all trades, journal entries, and strategies, and removes")
		fmt.Println("the PIN or password. This is the recovery path when the secret")
		fmt.Println("is lost. Asks for confirmation unless --force is given.")
	case "compact":
		fmt.Println("tradebutler compact")
		fmt.Println()
		fmt.Println("Compacts the database file to reclaim unused disk space.")
		fmt.Println()
		fmt.Println("Does not require the PIN or password.")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
	}
}
