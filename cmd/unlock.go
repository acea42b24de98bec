package cmd

import (
	"fmt"

	"github.com/live-labs/tradebutler/internal/crypto"
	"github.com/live-labs/tradebutler/internal/keyring"
)

// Unlock verifies the PIN or password and clears the lock screen.
// A secret stored in the OS keyring is tried before prompting.
func Unlock() {
	app := OpenApp()
	defer app.Close()

	has, err := app.Credentials.HasCredential()
	if err != nil {
		HandleError(err)
	}
	if !has {
		fmt.Println("No PIN or password configured")
		return
	}

	vaultID, _ := app.DB.GetVaultID()

	// Try the keyring first
	if vaultID != "" {
		if stored, err := keyring.GetSecret(vaultID); err == nil {
			secret := []byte(stored)
			ok, err := app.Credentials.Verify(secret)
			crypto.ClearBytes(secret)
			if err != nil {
				HandleError(err)
			}
			if ok {
				if err := app.Credentials.SetLocked(false); err != nil {
					HandleError(err)
				}
				fmt.Println("Unlocked (keyring)")
				return
			}
			// Stale keyring entry, fall through to the prompt
			keyring.DeleteSecret(vaultID)
		}
	}

	secret := GetSecretOrExit("Enter PIN or password: ")
	defer crypto.ClearBytes(secret)

	ok, err := app.Credentials.Verify(secret)
	if err != nil {
		HandleError(err)
	}
	if !ok {
		HandleError(fmt.Errorf("incorrect PIN or password"))
	}

	if err := app.Credentials.SetLocked(false); err != nil {
		HandleError(err)
	}
	fmt.Println("Unlocked")

	if vaultID == "" {
		vaultID, err = app.DB.GetOrCreateVaultID()
		if err != nil {
			return
		}
	}
	OfferToSaveSecret(vaultID, secret)
}
