package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/atotto/clipboard"
	"github.com/hrashkan/password-manager/vault"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	v       *viper.Viper
	cfg     Config
	store   *vault.Store
	logger  zerolog.Logger
	secrets *secretReader

	cfgFile string
	verbose bool

	// clip writes to the system clipboard.
	clip func(string) error
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		st := newStyles(os.Stderr)
		fmt.Fprintf(os.Stderr, "%s %s\n", st.fail.Render("✖"), st.fail.Render("Error: "+err.Error()))
		return 1
	}
	return 0
}

func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{v: viper.New(), clip: clipboard.WriteAll})
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "vault",
		Short: "Local encrypted password manager",
		Long: `Keeps named username/password records in a single file encrypted with
AES-256-GCM under a key derived from the master password with Argon2id.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.vault.yaml)")
	pf.String("vault", "", "vault file path (default is $HOME/.go-vault/vault.json)")
	pf.String("master-password", "", "master password, to avoid the prompt (or set VAULT_MASTER_PASSWORD)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	if err := bindFlags(a.v, root); err != nil {
		panic(err)
	}

	root.AddCommand(
		a.initCommand(),
		a.addCommand(),
		a.getCommand(),
		a.deleteCommand(),
		a.listCommand(),
		a.browseCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(a.v, a.cfgFile, a.verbose)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), NoColor: true}).
		Level(cfg.LogLevel).
		With().Timestamp().Logger()
	a.store = vault.NewStore(
		vault.WithKDFParams(cfg.KDF),
		vault.WithLogger(a.logger),
	)
	a.secrets = newSecretReader(cmd.InOrStdin(), cmd.ErrOrStderr())

	if err := disableCoreDumps(); err != nil {
		a.logger.Warn().Err(err).Msg("could not disable core dumps")
	}
	a.logger.Debug().Str("vault", cfg.VaultPath).Msg("configuration loaded")
	return nil
}

// open loads the vault with the master password. The caller must Destroy
// the returned key.
func (a *app) open() (*vault.Collection, *vault.DerivedKey, error) {
	var pw []byte
	if a.cfg.MasterPassword != "" {
		pw = []byte(a.cfg.MasterPassword)
	} else {
		p, err := a.secrets.ReadSecret("Master password: ")
		if err != nil {
			return nil, nil, err
		}
		pw = p
	}
	defer vault.Zero(pw)

	return a.store.LoadOrInit(pw, a.cfg.VaultPath)
}

func (a *app) printOK(w io.Writer, msg string) {
	st := newStyles(w)
	fmt.Fprintln(w, st.ok.Render(msg))
}

func (a *app) printNotFound(w io.Writer) {
	st := newStyles(w)
	fmt.Fprintf(w, "%s %s\n", st.fail.Render("✖"), st.fail.Render("Not found"))
}
