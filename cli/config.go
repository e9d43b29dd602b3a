package cli

import (
	"os"
	"strings"
	"time"

	"github.com/hrashkan/password-manager/vault"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the resolved configuration for one invocation.
type Config struct {
	VaultPath      string
	MasterPassword string
	KDF            vault.KDFParams
	LogLevel       zerolog.Level
	ClipboardClear time.Duration
}

func setDefaults(v *viper.Viper) {
	kdf := vault.DefaultKDFParams()
	v.SetDefault("kdf.time", kdf.Time)
	v.SetDefault("kdf.memory", kdf.Memory)
	v.SetDefault("kdf.threads", kdf.Threads)
	v.SetDefault("log.level", "warn")
	v.SetDefault("clipboard.clear_after", 30*time.Second)
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for key, flag := range map[string]string{
		"vault.path":      "vault",
		"master_password": "master-password",
		"log.level":       "log-level",
	} {
		if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
			return errors.Wrapf(err, "bind flag --%s", flag)
		}
	}
	return nil
}

// loadConfig reads the config file (if any), environment and flags.
// Environment variables use the VAULT_ prefix, e.g. VAULT_MASTER_PASSWORD.
func loadConfig(v *viper.Viper, cfgFile string, verbose bool) (Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(".vault")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("VAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, errors.Wrap(err, "read config")
		}
	}

	cfg := Config{
		VaultPath:      v.GetString("vault.path"),
		MasterPassword: v.GetString("master_password"),
		ClipboardClear: v.GetDuration("clipboard.clear_after"),
	}
	if cfg.VaultPath == "" {
		p, err := DefaultVaultPath()
		if err != nil {
			return Config{}, err
		}
		cfg.VaultPath = p
	}

	threads := v.GetUint32("kdf.threads")
	if threads > 255 {
		return Config{}, errors.Errorf("kdf.threads must be at most 255, got %d", threads)
	}
	cfg.KDF = vault.KDFParams{
		Time:    v.GetUint32("kdf.time"),
		Memory:  v.GetUint32("kdf.memory"),
		Threads: uint8(threads),
	}

	level := v.GetString("log.level")
	if verbose {
		level = "debug"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return Config{}, errors.Wrapf(err, "invalid log level %q", level)
	}
	cfg.LogLevel = lvl
	return cfg, nil
}
