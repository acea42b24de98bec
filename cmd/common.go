package cmd

import (
	"errors"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/live-labs/tradebutler/internal/config"
	"github.com/live-labs/tradebutler/internal/credential"
	"github.com/live-labs/tradebutler/internal/journal"
	"github.com/live-labs/tradebutler/internal/keyring"
	"github.com/live-labs/tradebutler/internal/logger"
	"github.com/live-labs/tradebutler/internal/storage"
)

// App bundles the opened database with the services built on top of it.
type App struct {
	Options     *config.Options
	Log         *zap.Logger
	DB          *storage.Storage
	Credentials *credential.Store
	Journal     *journal.Service
}

// OpenApp loads configuration, opens the database, and wires the services.
// Exits on failure.
func OpenApp() *App {
	opts, err := config.Load()
	if err != nil {
		HandleError(err)
	}

	log, err := logger.New(opts.LogLevel)
	if err != nil {
		HandleError(err)
	}

	path, err := opts.DatabasePath()
	if err != nil {
		HandleError(err)
	}

	db, err := storage.Open(path)
	if err != nil {
		HandleError(err)
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		HandleError(err)
	}

	return &App{
		Options:     opts,
		Log:         log,
		DB:          db,
		Credentials: credential.New(db, log),
		Journal:     journal.NewService(db, log),
	}
}

// Close releases the database and flushes the logger.
func (a *App) Close() {
	a.Log.Sync()
	a.DB.Close()
}

// GetSecret retrieves the unlock secret from the environment or prompts
// the user. The caller is responsible for calling crypto.ClearBytes on
// the returned secret.
func GetSecret(prompt string) ([]byte, error) {
	if secret := GetSecretFromEnv(); secret != nil {
		return secret, nil
	}
	return ReadSecret(prompt)
}

// GetSecretOrExit is like GetSecret but exits on error
func GetSecretOrExit(prompt string) []byte {
	secret, err := GetSecret(prompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return secret
}

// OfferToSaveSecret asks whether to remember a manually entered secret in
// the OS keyring. Declining or a keyring failure is not an error.
func OfferToSaveSecret(vaultID string, secret []byte) {
	if !Confirm("Remember this secret in the OS keyring?") {
		return
	}
	if err := keyring.SaveSecret(vaultID, string(secret)); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Println("Secret saved to keyring")
}

// HandleError handles common errors consistently
func HandleError(err error) {
	switch {
	case errors.Is(err, credential.ErrInvalidPIN):
		fmt.Fprintf(os.Stderr, "Error: PIN must be exactly %d digits\n", credential.PINLength)
	case errors.Is(err, credential.ErrPasswordTooShort):
		fmt.Fprintf(os.Stderr, "Error: password must be at least %d characters\n", credential.PasswordMinLength)
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}

func formatSize(size int64) string {
	switch {
	case size >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(size)/(1<<20))
	case size >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(size)/(1<<10))
	default:
		return fmt.Sprintf("%d B", size)
	}
}
