package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"golang.org/x/term"

	"github.com/live-labs/tradebutler/internal/crypto"
)

// ReadSecret reads a PIN or password from the terminal without echoing
func ReadSecret(prompt string) ([]byte, error) {
	fmt.Print(prompt)

	secret, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // New line after secret

	if err != nil {
		return nil, fmt.Errorf("failed to read secret: %w", err)
	}

	return secret, nil
}

// ReadSecretConfirm reads a secret twice and ensures the entries match
func ReadSecretConfirm(prompt string) ([]byte, error) {
	first, err := ReadSecret(prompt)
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(first)

	second, err := ReadSecret("Confirm: ")
	if err != nil {
		return nil, err
	}
	defer crypto.ClearBytes(second)

	if !crypto.ConstantTimeCompare(first, second) {
		return nil, fmt.Errorf("entries do not match")
	}

	// Return a copy of the secret
	result := make([]byte, len(first))
	copy(result, first)
	return result, nil
}

// GetSecretFromEnv reads the unlock secret from TRADEBUTLER_SECRET
func GetSecretFromEnv() []byte {
	secret := os.Getenv("TRADEBUTLER_SECRET")
	if secret == "" {
		return nil
	}
	// Return a copy to avoid issues when clearing the bytes
	result := make([]byte, len(secret))
	copy(result, []byte(secret))
	return result
}

// Confirm asks a yes/no question on the terminal and returns the answer
func Confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
