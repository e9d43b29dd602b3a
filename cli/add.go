package cli

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hrashkan/password-manager/vault"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-diceware/diceware"
	"github.com/spf13/cobra"
)

var validate = validator.New()

type addOptions struct {
	username string
	password string
	generate int
	url      string
	notes    string
}

func (a *app) addCommand() *cobra.Command {
	var opts addOptions
	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add or replace an entry by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, key, err := a.open()
			if err != nil {
				return err
			}
			defer key.Destroy()

			r, err := a.buildRecord(cmd, opts)
			if err != nil {
				return err
			}
			if err := validate.Struct(r); err != nil {
				return errors.Wrap(err, "invalid entry")
			}

			replaced := c.Put(args[0], r)
			if err := a.store.Save(key, c, a.cfg.VaultPath); err != nil {
				return err
			}
			a.logger.Debug().Str("name", args[0]).Bool("replaced", replaced).Msg("entry stored")
			a.printOK(cmd.OutOrStdout(), "Saved.")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.username, "username", "", "account username")
	f.StringVar(&opts.password, "password", "", "account password (prompted when omitted)")
	f.IntVar(&opts.generate, "generate", 0, "generate a diceware password of this many words")
	f.StringVar(&opts.url, "url", "", "account URL")
	f.StringVar(&opts.notes, "notes", "", "free-form notes")
	_ = cmd.MarkFlagRequired("username")
	cmd.MarkFlagsMutuallyExclusive("password", "generate")
	return cmd
}

func (a *app) buildRecord(cmd *cobra.Command, opts addOptions) (vault.Record, error) {
	r := vault.Record{
		ID:       uuid.New().String(),
		Username: opts.username,
	}

	switch {
	case cmd.Flags().Changed("password"):
		r.Password = opts.password
	case opts.generate > 0:
		words, err := diceware.Generate(opts.generate)
		if err != nil {
			return r, errors.Wrap(err, "generate password")
		}
		r.Password = strings.Join(words, "-")
	case cmd.Flags().Changed("generate"):
		return r, errors.Errorf("--generate must be positive, got %d", opts.generate)
	default:
		pw, err := a.secrets.ReadSecret("Password: ")
		if err != nil {
			return r, err
		}
		r.Password = string(pw)
		vault.Zero(pw)
	}

	if cmd.Flags().Changed("url") {
		u := opts.url
		r.URL = &u
	}
	if cmd.Flags().Changed("notes") {
		n := opts.notes
		r.Notes = &n
	}
	return r, nil
}
