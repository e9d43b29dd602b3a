package cli

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/hrashkan/password-manager/vault"
	"github.com/pkg/errors"
	"golang.org/x/term"
)

// DefaultVaultPath returns ~/.go-vault/vault.json.
func DefaultVaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(err, "locate home directory")
	}
	return filepath.Join(home, ".go-vault", "vault.json"), nil
}

// secretReader reads secrets from a terminal without echo, or one line at
// a time when input is piped.
type secretReader struct {
	in     io.Reader
	prompt io.Writer
	lines  *bufio.Reader
}

func newSecretReader(in io.Reader, prompt io.Writer) *secretReader {
	return &secretReader{in: in, prompt: prompt}
}

func (r *secretReader) ReadSecret(prompt string) ([]byte, error) {
	fmt.Fprint(r.prompt, prompt)
	if f, ok := r.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(r.prompt)
		if err != nil {
			return nil, errors.Wrap(err, "read password")
		}
		return pw, nil
	}

	if r.lines == nil {
		r.lines = bufio.NewReader(r.in)
	}
	line, err := r.lines.ReadBytes('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		return nil, errors.Wrap(err, "read password from stdin")
	}
	fmt.Fprintln(r.prompt)
	out := bytes.TrimRight(line, "\r\n")
	// out aliases line, which is wiped below.
	pw := append([]byte(nil), out...)
	vault.Zero(line)
	return pw, nil
}

type styles struct {
	ok    lipgloss.Style
	fail  lipgloss.Style
	label lipgloss.Style
}

// newStyles renders colour only when w is a terminal.
func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		ok:    r.NewStyle().Foreground(lipgloss.Color("2")),
		fail:  r.NewStyle().Foreground(lipgloss.Color("1")),
		label: r.NewStyle().Foreground(lipgloss.Color("6")),
	}
}
