package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"yt-feed-sync/internal/config"
	"yt-feed-sync/internal/model"
)

type manageMode int

const (
	manageModeBrowse manageMode = iota
	manageModeForm
	manageModeDeleteConfirm
)

type manageFormField struct {
	Key      string
	Label    string
	Help     string
	Value    string
	Required bool
}

type manageForm struct {
	Fields []manageFormField
	Index  int
	Input  textinput.Model
	Error  string
}

type manageModel struct {
	configPath string
	cfg        *config.Config
	cursor     int
	width      int
	mode       manageMode
	form       *manageForm

	confirmDeleteKey string
	statusMessage    string
	fatalErr         error
}

type manageLoadedMsg struct {
	cfg *config.Config
	err error
}

type manageSavedMsg struct {
	message string
	err     error
}

var (
	manageTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	manageMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	manageErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	manageOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	managePanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	manageSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
)

func runManage(args []string) error {
	fs := flag.NewFlagSet("manage", flag.ContinueOnError)
	configPath := fs.String("config", "", "config file path")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !stdinIsTTY() {
		return errors.New("manage requires an interactive terminal (TTY)")
	}

	m := manageModel{configPath: strings.TrimSpace(*configPath), mode: manageModeBrowse}
	p := tea.NewProgram(m, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return err
	}
	if fm, ok := finalModel.(manageModel); ok {
		return fm.fatalErr
	}
	return nil
}

func loadConfigCmd(path string) tea.Cmd {
	return func() tea.Msg {
		cfg, err := config.Load(path)
		return manageLoadedMsg{cfg: cfg, err: err}
	}
}

func (m manageModel) saveCmd(message string) tea.Cmd {
	cfg, path := m.cfg, m.configPath
	return func() tea.Msg {
		if err := config.Save(cfg, path); err != nil {
			return manageSavedMsg{err: err}
		}
		return manageSavedMsg{message: message}
	}
}

func (m manageModel) Init() tea.Cmd {
	return loadConfigCmd(m.configPath)
}

func (m manageModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case manageLoadedMsg:
		if msg.err != nil {
			m.fatalErr = msg.err
			return m, tea.Quit
		}
		m.cfg = msg.cfg
		if m.cursor >= len(m.cfg.Sources) {
			m.cursor = max(0, len(m.cfg.Sources)-1)
		}
		return m, nil
	case manageSavedMsg:
		if msg.err != nil {
			if m.form != nil {
				m.form.Error = msg.err.Error()
				return m, nil
			}
			m.statusMessage = "error: " + msg.err.Error()
			return m, nil
		}
		m.mode = manageModeBrowse
		m.form = nil
		m.confirmDeleteKey = ""
		m.statusMessage = msg.message
		return m, loadConfigCmd(m.configPath)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch m.mode {
	case manageModeForm:
		return m.updateForm(keyMsg)
	case manageModeDeleteConfirm:
		return m.updateDeleteConfirm(keyMsg)
	default:
		return m.updateBrowse(keyMsg)
	}
}

func (m manageModel) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cfg != nil && m.cursor < len(m.cfg.Sources)-1 {
			m.cursor++
		}
	case "a":
		m.mode = manageModeForm
		m.form = newSourceForm()
		m.statusMessage = ""
		return m, textinput.Blink
	case "d":
		if m.cfg != nil && len(m.cfg.Sources) > 0 {
			m.confirmDeleteKey = m.cfg.Sources[m.cursor].Key
			m.mode = manageModeDeleteConfirm
			m.statusMessage = ""
		}
	}
	return m, nil
}

func newSourceForm() *manageForm {
	f := &manageForm{
		Fields: []manageFormField{
			{Key: "key", Label: "Key", Help: "channel handle or playlist URL", Required: true},
			{Key: "name", Label: "Display name", Help: "optional, defaults to the key"},
			{Key: "kind", Label: "Kind", Help: "channel or playlist", Value: model.KindChannel, Required: true},
			{Key: "initial_limit", Label: "Initial limit", Help: "items on first population, blank = default"},
		},
		Input: textinput.New(),
	}
	f.Input.Prompt = "> "
	f.Input.SetValue(f.Fields[0].Value)
	f.Input.Focus()
	return f
}

func (m manageModel) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	f := m.form
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.mode = manageModeBrowse
		m.form = nil
		return m, nil
	case "enter":
		f.Fields[f.Index].Value = strings.TrimSpace(f.Input.Value())
		if f.Index < len(f.Fields)-1 {
			f.Index++
			f.Input.SetValue(f.Fields[f.Index].Value)
			f.Input.CursorEnd()
			return m, nil
		}
		return m.submitForm()
	case "shift+tab", "up":
		f.Fields[f.Index].Value = strings.TrimSpace(f.Input.Value())
		if f.Index > 0 {
			f.Index--
			f.Input.SetValue(f.Fields[f.Index].Value)
			f.Input.CursorEnd()
		}
		return m, nil
	}

	var cmd tea.Cmd
	f.Input, cmd = f.Input.Update(msg)
	return m, cmd
}

func (m manageModel) submitForm() (tea.Model, tea.Cmd) {
	f := m.form
	values := map[string]string{}
	for _, field := range f.Fields {
		if field.Required && field.Value == "" {
			f.Error = field.Label + " is required"
			return m, nil
		}
		values[field.Key] = field.Value
	}

	limit := 0
	if raw := values["initial_limit"]; raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			f.Error = "initial limit must be a non-negative number"
			return m, nil
		}
		limit = parsed
	}

	if err := m.cfg.AddSource(config.SourceConfig{
		Key:          values["key"],
		Name:         values["name"],
		Kind:         values["kind"],
		InitialLimit: limit,
	}); err != nil {
		f.Error = err.Error()
		return m, nil
	}
	return m, m.saveCmd(fmt.Sprintf("added source %q", values["key"]))
}

func (m manageModel) updateDeleteConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		if err := m.cfg.RemoveSource(m.confirmDeleteKey); err != nil {
			m.statusMessage = "error: " + err.Error()
			m.mode = manageModeBrowse
			m.confirmDeleteKey = ""
			return m, nil
		}
		return m, m.saveCmd(fmt.Sprintf("removed source %q", m.confirmDeleteKey))
	default:
		m.mode = manageModeBrowse
		m.confirmDeleteKey = ""
		return m, nil
	}
}

func (m manageModel) View() string {
	if m.cfg == nil {
		return manageMutedStyle.Render("loading config...")
	}

	var b strings.Builder
	b.WriteString(manageTitleStyle.Render("yt-feed-sync sources"))
	b.WriteString("\n\n")

	switch m.mode {
	case manageModeForm:
		b.WriteString(m.viewForm())
	case manageModeDeleteConfirm:
		b.WriteString(manageErrorStyle.Render(fmt.Sprintf("delete source %q? downloaded files are kept. (y/N)", m.confirmDeleteKey)))
		b.WriteString("\n")
	default:
		b.WriteString(m.viewBrowse())
	}

	if m.statusMessage != "" {
		b.WriteString("\n")
		b.WriteString(manageOKStyle.Render(m.statusMessage))
		b.WriteString("\n")
	}
	return b.String()
}

func (m manageModel) viewBrowse() string {
	var b strings.Builder
	if len(m.cfg.Sources) == 0 {
		b.WriteString(manageMutedStyle.Render("no sources configured, press 'a' to add one"))
		b.WriteString("\n")
	}
	for i, s := range m.cfg.Sources {
		name := s.Name
		if name == "" {
			name = s.Key
		}
		line := fmt.Sprintf("%-10s %-24s %s", s.Kind, name, s.Key)
		if i == m.cursor {
			line = manageSelStyle.Render(line)
		}
		b.WriteString("  " + line + "\n")
	}
	b.WriteString("\n")
	b.WriteString(manageMutedStyle.Render("up/down: move | a: add | d: delete | q: quit"))
	b.WriteString("\n")
	return b.String()
}

func (m manageModel) viewForm() string {
	f := m.form
	var lines []string
	for i, field := range f.Fields {
		label := fmt.Sprintf("%-14s", field.Label)
		if i == f.Index {
			lines = append(lines, manageSelStyle.Render(label)+" "+f.Input.View())
			lines = append(lines, manageMutedStyle.Render("  "+field.Help))
		} else {
			value := field.Value
			if value == "" {
				value = manageMutedStyle.Render("(empty)")
			}
			lines = append(lines, label+" "+value)
		}
	}
	body := strings.Join(lines, "\n")
	if f.Error != "" {
		body += "\n\n" + manageErrorStyle.Render(f.Error)
	}
	body += "\n\n" + manageMutedStyle.Render("enter: next/save | esc: cancel")
	return managePanelStyle.Render(body) + "\n"
}
