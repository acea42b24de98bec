// Package keyring stores the unlock secret in the OS keyring as an opt-in
// convenience, keyed by the database's vault ID.
package keyring

import (
	"github.com/zalando/go-keyring"
)

const serviceName = "tradebutler"

// SaveSecret stores an unlock secret in the OS keyring
func SaveSecret(vaultID string, secret string) error {
	return keyring.Set(serviceName, vaultID, secret)
}

// GetSecret retrieves an unlock secret from the OS keyring
func GetSecret(vaultID string) (string, error) {
	return keyring.Get(serviceName, vaultID)
}

// DeleteSecret removes an unlock secret from the OS keyring
func DeleteSecret(vaultID string) error {
	return keyring.Delete(serviceName, vaultID)
}

// HasSecret checks if an unlock secret is stored in the keyring
func HasSecret(vaultID string) bool {
	_, err := keyring.Get(serviceName, vaultID)
	return err == nil
}
