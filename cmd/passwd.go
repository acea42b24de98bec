package cmd

import (
	"fmt"

	"github.com/live-labs/tradebutler/internal/credential"
	"github.com/live-labs/tradebutler/internal/crypto"
	"github.com/live-labs/tradebutler/internal/keyring"
)

// Passwd sets or changes the lock-screen password
func Passwd() {
	setCredential(credential.KindPassword, "Enter new password: ")
}

// Pin sets or changes the lock-screen PIN
func Pin() {
	setCredential(credential.KindPIN, "Enter new PIN (6 digits): ")
}

func setCredential(kind credential.Kind, prompt string) {
	app := OpenApp()
	defer app.Close()

	// Changing an existing credential requires the current one
	has, err := app.Credentials.HasCredential()
	if err != nil {
		HandleError(err)
	}
	if has {
		current := GetSecretOrExit("Enter current PIN or password: ")
		ok, err := app.Credentials.Verify(current)
		crypto.ClearBytes(current)
		if err != nil {
			HandleError(err)
		}
		if !ok {
			HandleError(fmt.Errorf("incorrect PIN or password"))
		}
	}

	secret, err := ReadSecretConfirm(prompt)
	if err != nil {
		HandleError(err)
	}
	defer crypto.ClearBytes(secret)

	if err := app.Credentials.Set(secret, kind); err != nil {
		HandleError(err)
	}

	// Keep a stored keyring secret in sync
	if vaultID, err := app.DB.GetVaultID(); err == nil && keyring.HasSecret(vaultID) {
		if err := keyring.SaveSecret(vaultID, string(secret)); err == nil {
			fmt.Println("Keyring updated")
		}
	}

	fmt.Printf("%s set\n", kind)
}
