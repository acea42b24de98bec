package cmd

import (
	"fmt"

	"github.com/live-labs/tradebutler/internal/keyring"
)

// Forget erases all journal data and removes the stored credential.
// This is the recovery path when the PIN or password is lost.
func Forget(force bool) {
	app := OpenApp()
	defer app.Close()

	if !force {
		fmt.Println("This deletes ALL trades, journal entries, and strategies,")
		fmt.Println("and removes the PIN or password. It cannot be undone.")
		if !Confirm("Continue?") {
			fmt.Println("Aborted")
			return
		}
	}

	// Data goes first. If the wipe fails the credential stays in place
	// so the lock screen keeps guarding whatever is left.
	if err := app.DB.Wipe(); err != nil {
		HandleError(err)
	}
	if err := app.Credentials.Delete(); err != nil {
		HandleError(err)
	}

	if vaultID, err := app.DB.GetVaultID(); err == nil {
		keyring.DeleteSecret(vaultID)
	}

	fmt.Println("All data erased")
}
