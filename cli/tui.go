package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/hrashkan/password-manager/vault"
	"github.com/spf13/cobra"
)

type viewState int

const (
	stateTable viewState = iota
	stateShowEntry
	stateFilter
	stateAddEntry
)

// clearClipboardMsg fires after a copy; seq identifies which copy.
type clearClipboardMsg struct{ seq int }

const (
	fieldName = iota
	fieldUsername
	fieldPassword
	fieldURL
	fieldNotes
)

type model struct {
	records  *vault.Collection
	names    []string
	cursor   int
	state    viewState
	filter   textinput.Model
	inputs   []textinput.Model
	selected string
	reveal   bool
	msg      string

	save       func() error
	copy       func(string) error
	clearAfter time.Duration

	copySeq int
	// clipboardDirty is set while a copied password may still be on the clipboard.
	clipboardDirty bool
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	msgStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	selectedStyle = lipgloss.NewStyle().Background(lipgloss.Color("57")).Foreground(lipgloss.Color("0"))
)

func (a *app) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse entries interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, key, err := a.open()
			if err != nil {
				return err
			}
			defer key.Destroy()

			save := func() error { return a.store.Save(key, c, a.cfg.VaultPath) }
			m := newModel(c, save, a.clip, a.cfg.ClipboardClear)
			p := tea.NewProgram(m, tea.WithInput(cmd.InOrStdin()), tea.WithOutput(cmd.OutOrStdout()))
			final, err := p.Run()
			if err != nil {
				return err
			}
			// The clear tick may not have fired before quit.
			if fm, ok := final.(model); ok && fm.clipboardDirty {
				_ = a.clip("")
			}
			return nil
		},
	}
}

func newModel(c *vault.Collection, save func() error, copyFn func(string) error, clearAfter time.Duration) model {
	ti := textinput.New()
	ti.Placeholder = "filter"
	ti.Prompt = "/"
	return model{
		records:    c,
		names:      c.Names(),
		state:      stateTable,
		filter:     ti,
		inputs:     newAddInputs(),
		save:       save,
		copy:       copyFn,
		clearAfter: clearAfter,
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if clr, ok := msg.(clearClipboardMsg); ok {
		// A later copy owns the clipboard now.
		if clr.seq != m.copySeq || !m.clipboardDirty {
			return m, nil
		}
		_ = m.copy("")
		m.clipboardDirty = false
		m.msg = "Clipboard cleared."
		return m, nil
	}
	switch m.state {
	case stateTable:
		return updateTable(m, msg)
	case stateShowEntry:
		return updateShowEntry(m, msg)
	case stateFilter:
		return updateFilter(m, msg)
	case stateAddEntry:
		return updateAddEntry(m, msg)
	default:
		return m, nil
	}
}

func (m model) View() string {
	switch m.state {
	case stateShowEntry:
		return viewShowEntry(m)
	case stateAddEntry:
		return viewAddEntry(m)
	default:
		return viewTable(m)
	}
}

// refresh re-applies the filter and keeps the cursor in range.
func (m *model) refresh() {
	q := strings.ToLower(m.filter.Value())
	m.names = nil
	for _, n := range m.records.Names() {
		if q == "" || strings.Contains(strings.ToLower(n), q) {
			m.names = append(m.names, n)
		}
	}
	if m.cursor >= len(m.names) {
		m.cursor = len(m.names) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m model) current() (string, bool) {
	if len(m.names) == 0 {
		return "", false
	}
	return m.names[m.cursor], true
}

func (m model) copyPassword(name string) (model, tea.Cmd) {
	r, ok := m.records.Get(name)
	if !ok {
		return m, nil
	}
	if err := m.copy(r.Password); err != nil {
		m.msg = "Copy failed: " + err.Error()
		return m, nil
	}
	m.copySeq++
	m.clipboardDirty = true
	m.msg = fmt.Sprintf("Password copied! (clears in %s)", m.clearAfter)
	seq := m.copySeq
	return m, tea.Tick(m.clearAfter, func(time.Time) tea.Msg { return clearClipboardMsg{seq: seq} })
}

// --- Table ---
func updateTable(m model, msg tea.Msg) (model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.names)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "/":
		m.state = stateFilter
		cmd := m.filter.Focus()
		return m, cmd
	case "a":
		m.inputs = newAddInputs()
		m.state = stateAddEntry
		cmd := m.inputs[fieldName].Focus()
		return m, cmd
	case "enter":
		if name, ok := m.current(); ok {
			m.selected = name
			m.reveal = false
			m.state = stateShowEntry
		}
	case "c":
		if name, ok := m.current(); ok {
			return m.copyPassword(name)
		}
	case "d":
		name, ok := m.current()
		if !ok {
			break
		}
		r, _ := m.records.Get(name)
		m.records.Remove(name)
		if err := m.save(); err != nil {
			m.records.Put(name, r)
			m.msg = "Error saving vault: " + err.Error()
		} else {
			m.msg = "Deleted " + name
		}
		m.refresh()
	}
	return m, nil
}

func viewTable(m model) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Vault Entries") + "\n\n")
	if m.state == stateFilter || m.filter.Value() != "" {
		b.WriteString(m.filter.View() + "\n\n")
	}
	for i, name := range m.names {
		r, _ := m.records.Get(name)
		line := fmt.Sprintf("%-30s  %-24s", name, r.Username)
		if i == m.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	if len(m.names) == 0 {
		b.WriteString("(no entries)\n")
	}
	if m.msg != "" {
		b.WriteString("\n" + msgStyle.Render(m.msg) + "\n")
	}
	b.WriteString("\nCommands: j/k=move, /=filter, enter=show, a=add, c=copy, d=delete, q=quit")
	return b.String()
}

// --- Show Entry ---
func updateShowEntry(m model, msg tea.Msg) (model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "esc", "backspace":
		m.state = stateTable
		m.selected = ""
		m.reveal = false
	case "v":
		m.reveal = !m.reveal
	case "c":
		return m.copyPassword(m.selected)
	case "q", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func viewShowEntry(m model) string {
	r, _ := m.records.Get(m.selected)
	secret := "********"
	if m.reveal {
		secret = r.Password
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.selected) + "\n\n")
	fmt.Fprintf(&b, "Username: %s\nPassword: %s\n", r.Username, secret)
	if r.URL != nil {
		fmt.Fprintf(&b, "URL: %s\n", *r.URL)
	}
	if r.Notes != nil {
		fmt.Fprintf(&b, "Notes: %s\n", *r.Notes)
	}
	if m.msg != "" {
		b.WriteString("\n" + msgStyle.Render(m.msg) + "\n")
	}
	b.WriteString("\nPress 'v' to reveal, 'c' to copy, Esc to return")
	return b.String()
}

// --- Filter ---
func updateFilter(m model, msg tea.Msg) (model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			m.filter.Blur()
			m.state = stateTable
			return m, nil
		case "esc":
			m.filter.Blur()
			m.filter.SetValue("")
			m.state = stateTable
			m.refresh()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refresh()
	return m, cmd
}

// --- Add Entry ---
func newAddInputs() []textinput.Model {
	placeholders := []string{"Name", "Username", "Password", "URL (optional)", "Notes (optional)"}
	inputs := make([]textinput.Model, len(placeholders))
	for i, p := range placeholders {
		ti := textinput.New()
		ti.Placeholder = p
		ti.Prompt = ""
		if i == fieldPassword {
			ti.EchoMode = textinput.EchoPassword
			ti.EchoCharacter = '*'
		}
		inputs[i] = ti
	}
	return inputs
}

func updateAddEntry(m model, msg tea.Msg) (model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.state = stateTable
			m.msg = ""
			return m, nil
		case "tab", "down":
			return m, m.focusNext(false)
		case "shift+tab", "up":
			return m, m.focusNext(true)
		case "ctrl+s":
			return saveAddEntry(m)
		case "enter":
			if m.inputs[len(m.inputs)-1].Focused() {
				return saveAddEntry(m)
			}
			return m, m.focusNext(false)
		}
	}

	// Update the focused text input
	for i := range m.inputs {
		if m.inputs[i].Focused() {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// focusNext moves focus to the next or previous input.
func (m *model) focusNext(backward bool) tea.Cmd {
	n := len(m.inputs)
	for i := 0; i < n; i++ {
		if m.inputs[i].Focused() {
			m.inputs[i].Blur()
			if backward {
				return m.inputs[(i-1+n)%n].Focus()
			}
			return m.inputs[(i+1)%n].Focus()
		}
	}
	return m.inputs[0].Focus()
}

// saveAddEntry stores the form as a record. A failed save rolls the
// collection back to what is on disk.
func saveAddEntry(m model) (model, tea.Cmd) {
	name := strings.TrimSpace(m.inputs[fieldName].Value())
	if name == "" {
		m.msg = "Name is required"
		return m, nil
	}
	r := vault.Record{
		ID:       uuid.New().String(),
		Username: m.inputs[fieldUsername].Value(),
		Password: m.inputs[fieldPassword].Value(),
	}
	if u := m.inputs[fieldURL].Value(); u != "" {
		r.URL = &u
	}
	if n := m.inputs[fieldNotes].Value(); n != "" {
		r.Notes = &n
	}
	if err := validate.Struct(r); err != nil {
		m.msg = "Invalid entry: " + err.Error()
		return m, nil
	}

	prev, existed := m.records.Get(name)
	m.records.Put(name, r)
	if err := m.save(); err != nil {
		if existed {
			m.records.Put(name, prev)
		} else {
			m.records.Remove(name)
		}
		m.msg = "Error saving vault: " + err.Error()
	} else {
		m.msg = "Saved " + name
	}

	m.inputs = newAddInputs()
	m.state = stateTable
	m.refresh()
	return m, nil
}

func viewAddEntry(m model) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Add New Entry") + "\n\n")
	for _, ti := range m.inputs {
		fmt.Fprintf(&b, "%s: %s\n", ti.Placeholder, ti.View())
	}
	if m.msg != "" {
		b.WriteString("\n" + msgStyle.Render(m.msg) + "\n")
	}
	b.WriteString("\nTab to move, Enter on the last field to save, Esc to cancel")
	return b.String()
}
