package cmd

import (
	"fmt"
)

// Lock engages the lock screen
func Lock() {
	app := OpenApp()
	defer app.Close()

	has, err := app.Credentials.HasCredential()
	if err != nil {
		HandleError(err)
	}
	if !has {
		fmt.Println("No PIN or password configured, nothing to lock")
		fmt.Println("Run 'tradebutler pin' or 'tradebutler passwd' first")
		return
	}

	if err := app.Credentials.SetLocked(true); err != nil {
		HandleError(err)
	}
	fmt.Println("Locked")
}
