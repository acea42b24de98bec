package cmd

import (
	"fmt"
	"os"

	"github.com/live-labs/tradebutler/internal/credential"
	"github.com/live-labs/tradebutler/internal/keyring"
)

// Status shows the current state of the journal database and lock screen
func Status() {
	app := OpenApp()
	defer app.Close()

	kind, err := app.Credentials.CredentialKind()
	if err != nil {
		HandleError(err)
	}
	locked, err := app.Credentials.IsLocked()
	if err != nil {
		HandleError(err)
	}

	switch kind {
	case credential.KindNone:
		fmt.Println("Lock screen: not configured")
	default:
		fmt.Printf("Lock screen: %s\n", kind)
	}
	if locked {
		fmt.Println("State: locked")
	} else {
		fmt.Println("State: unlocked")
	}

	if vaultID, err := app.DB.GetVaultID(); err == nil && keyring.HasSecret(vaultID) {
		fmt.Println("Keyring: secret stored")
	}

	trades, err := app.Journal.ListTrades()
	if err != nil {
		HandleError(err)
	}
	entries, err := app.Journal.ListEntries()
	if err != nil {
		HandleError(err)
	}
	fmt.Printf("\nTrades: %d\n", len(trades))
	fmt.Printf("Journal entries: %d\n", len(entries))

	if path, err := app.Options.DatabasePath(); err == nil {
		if info, err := os.Stat(path); err == nil {
			fmt.Printf("Database: %s (%s)\n", path, formatSize(info.Size()))
		}
	}
}
