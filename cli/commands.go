package cli

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a new vault or open an existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, key, err := a.open()
			if err != nil {
				return err
			}
			defer key.Destroy()

			if err := a.store.Save(key, c, a.cfg.VaultPath); err != nil {
				return err
			}
			st := newStyles(cmd.OutOrStdout())
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", st.ok.Render("✔"), st.ok.Render("Vault ready at "+a.cfg.VaultPath))
			return nil
		},
	}
}

func (a *app) getCommand() *cobra.Command {
	var copyPassword bool
	cmd := &cobra.Command{
		Use:   "get NAME",
		Short: "Print an entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, key, err := a.open()
			if err != nil {
				return err
			}
			defer key.Destroy()

			r, ok := c.Get(args[0])
			if !ok {
				a.printNotFound(cmd.ErrOrStderr())
				return nil
			}
			if copyPassword {
				if err := a.clip(r.Password); err != nil {
					return errors.Wrap(err, "copy to clipboard")
				}
				a.printOK(cmd.OutOrStdout(), "Password copied to clipboard.")
				return nil
			}

			out := cmd.OutOrStdout()
			st := newStyles(out)
			fmt.Fprintln(out, st.label.Render("username:"), r.Username)
			fmt.Fprintln(out, st.label.Render("password:"), r.Password)
			if r.URL != nil {
				fmt.Fprintln(out, st.label.Render("url:"), *r.URL)
			}
			if r.Notes != nil {
				fmt.Fprintln(out, st.label.Render("notes:"), *r.Notes)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&copyPassword, "copy", "c", false, "copy the password to the clipboard instead of printing it")
	return cmd
}

func (a *app) deleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete NAME",
		Aliases: []string{"rm"},
		Short:   "Delete an entry",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, key, err := a.open()
			if err != nil {
				return err
			}
			defer key.Destroy()

			if !c.Remove(args[0]) {
				a.printNotFound(cmd.ErrOrStderr())
				return nil
			}
			if err := a.store.Save(key, c, a.cfg.VaultPath); err != nil {
				return err
			}
			a.printOK(cmd.OutOrStdout(), "Deleted.")
			return nil
		},
	}
}

func (a *app) listCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List entry names",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, key, err := a.open()
			if err != nil {
				return err
			}
			defer key.Destroy()

			out := cmd.OutOrStdout()
			st := newStyles(out)
			for _, name := range c.Names() {
				fmt.Fprintln(out, st.label.Render(name))
			}
			return nil
		},
	}
}
