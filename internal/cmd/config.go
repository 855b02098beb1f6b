package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/connesc/kelftool/keystore"
	"github.com/spf13/viper"
)

const defaultKeyStoreName = "PS2KEYS.dat"

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("keys", "k", "", "path to the key store (default $HOME/"+defaultKeyStoreName+")")
	flags.BoolP("verbose", "v", false, "log processing steps to stderr")

	if err := viper.BindPFlags(flags); err != nil {
		panic(err)
	}
	viper.SetEnvPrefix("kelftool")
	viper.AutomaticEnv()
}

func keyStorePath() (string, error) {
	if path := viper.GetString("keys"); path != "" {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("%w: cannot locate home directory: %v", keystore.ErrOpenFailed, err)
	}
	return filepath.Join(home, defaultKeyStoreName), nil
}

func loadKeyStore() (*keystore.KeyStore, error) {
	path, err := keyStorePath()
	if err != nil {
		return nil, err
	}
	newLogger().Debug("loading key store", "path", path)
	return keystore.Load(path)
}

// mustLoadKeyStore exits the process if the key store cannot be loaded.
func mustLoadKeyStore() *keystore.KeyStore {
	keys, err := loadKeyStore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load key store: %v\n", err)
		os.Exit(exitCode(err))
	}
	return keys
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
