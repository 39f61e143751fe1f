// Package tui provides the interactive terminal UI for scriptdeck.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/scriptdeck/scriptdeck/internal/catalog"
	"github.com/scriptdeck/scriptdeck/internal/envs"
	"github.com/scriptdeck/scriptdeck/internal/history"
	"github.com/scriptdeck/scriptdeck/internal/runner"
	"github.com/scriptdeck/scriptdeck/internal/schema"
	"github.com/scriptdeck/scriptdeck/internal/search"
	"github.com/scriptdeck/scriptdeck/internal/widget"
	"github.com/scriptdeck/scriptdeck/internal/workspace"
)

var (
	// Colors
	primaryColor = lipgloss.Color("#7C3AED")
	successColor = lipgloss.Color("#10B981")
	warningColor = lipgloss.Color("#F59E0B")
	errorColor   = lipgloss.Color("#EF4444")
	mutedColor   = lipgloss.Color("#6B7280")
	fgColor      = lipgloss.Color("#F9FAFB")
	cyanColor    = lipgloss.Color("#06B6D4")

	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true).
			Padding(0, 1)

	itemStyle = lipgloss.NewStyle().
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(successColor)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)

const statusPollInterval = 200 * time.Millisecond

type screenID int

const (
	screenScripts screenID = iota
	screenSearch
	screenEnvs
	screenFields
	screenHistory
	screenRunning
	screenResult
	screenError
)

// preview is a cached schema resolution for one script path.
type preview struct {
	schema *schema.Schema
	err    error
}

// App is the main TUI application model.
type App struct {
	ws     *workspace.Workspace
	index  *search.Index
	runner runner.Runner

	screen screenID
	width  int
	height int

	// script browser
	dir      string
	entries  []catalog.Entry
	cursor   int
	previews map[string]*preview

	// directory status widget
	widgetSeq     int
	widgetData    *widget.Data
	widgetErr     string
	widgetLoading bool

	// environments
	envCfg     *envs.Config
	envFiles   []string
	envCursor  int
	envPreview []envs.Pair
	envMessage string
	envReturn  screenID

	// field form
	formScript string
	formSchema *schema.Schema
	formInputs []textinput.Model
	formFocus  int
	formErr    string

	// running / result
	runningScript string
	result        *history.Entry
	resultOffset  int

	// history
	histEntries []history.Entry
	histCursor  int
	histFocus   bool
	histOffset  int

	// search
	searchInput  textinput.Model
	results      []search.Result
	resultCursor int
	details      *search.Details
	lastStatus   search.Status

	errText   string
	errReturn screenID
}

// New builds the application model. The catalog and history are the
// caller's initial snapshots; the index rebuild is expected to already
// be running.
func New(ws *workspace.Workspace, index *search.Index, run runner.Runner, entries []catalog.Entry, hist []history.Entry) *App {
	si := textinput.New()
	si.Placeholder = "Search scripts"
	si.CharLimit = 128
	si.Width = 48

	cfg, err := envs.Load(ws.EnvsDir())
	if err != nil {
		cfg = &envs.Config{EnvsDir: ws.EnvsDir()}
	}

	return &App{
		ws:          ws,
		index:       index,
		runner:      run,
		dir:         ws.Root(),
		entries:     entries,
		previews:    make(map[string]*preview),
		envCfg:      cfg,
		histEntries: hist,
		searchInput: si,
	}
}

// Run starts the TUI program.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadWidget(), a.pollStatus())
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.searchInput.Width = max(20, msg.Width-8)

	case widgetLoadedMsg:
		// A navigation that happened after this load was issued wins.
		if msg.seq != a.widgetSeq {
			return a, nil
		}
		a.widgetLoading = false
		a.widgetData = msg.data
		a.widgetErr = ""
		if msg.err != nil {
			a.widgetErr = msg.err.Error()
		}

	case statusTickMsg:
		status := a.index.Status()
		if status != a.lastStatus {
			a.lastStatus = status
			if a.screen == screenSearch && status.State == search.Ready {
				a.refreshSearch()
			}
		}
		return a, a.pollStatus()

	case runFinishedMsg:
		a.histEntries = append([]history.Entry{msg.entry}, a.histEntries...)
		a.result = &msg.entry
		a.resultOffset = 0
		a.screen = screenResult
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch a.screen {
	case screenScripts:
		return a.scriptsKey(msg)
	case screenSearch:
		return a.searchKey(msg)
	case screenEnvs:
		return a.envsKey(msg)
	case screenFields:
		return a.fieldsKey(msg)
	case screenHistory:
		return a.historyKey(msg)
	case screenRunning:
		// Nothing to do until the run command reports back.
		return a, nil
	case screenResult:
		return a.resultKey(msg)
	case screenError:
		switch msg.String() {
		case "esc", "enter", "q":
			a.screen = a.errReturn
		}
		return a, nil
	}
	return a, nil
}

func (a *App) scriptsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.entries)-1 {
			a.cursor++
		}
	case "enter":
		if a.cursor >= len(a.entries) {
			return a, nil
		}
		entry := a.entries[a.cursor]
		if entry.Kind == catalog.Directory {
			return a, a.enterDir(entry.Path)
		}
		return a, a.openScript(entry.Path)
	case "esc":
		if a.dir == a.ws.Root() {
			return a, tea.Quit
		}
		return a, a.enterDir(filepath.Dir(a.dir))
	case "left", "backspace":
		if a.dir != a.ws.Root() {
			return a, a.enterDir(filepath.Dir(a.dir))
		}
	case "q":
		return a, tea.Quit
	case "r":
		a.previews = make(map[string]*preview)
		a.reloadEntries()
	case "i":
		a.reloadEnv()
		return a, a.loadWidget()
	case "h":
		a.enterHistory()
	case "e":
		a.enterEnvs(screenScripts)
	case "ctrl+s":
		a.enterSearch()
		return a, textinput.Blink
	}
	return a, nil
}

func (a *App) searchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.searchInput.Blur()
		a.screen = screenScripts
		return a, nil
	case "up":
		if a.resultCursor > 0 {
			a.resultCursor--
			a.loadDetails()
		}
		return a, nil
	case "down":
		if a.resultCursor < len(a.results)-1 {
			a.resultCursor++
			a.loadDetails()
		}
		return a, nil
	case "enter":
		if a.resultCursor < len(a.results) {
			// The index stores workspace-relative paths.
			path := filepath.Join(a.ws.Root(), a.results[a.resultCursor].ScriptPath)
			a.searchInput.Blur()
			return a, a.openScript(path)
		}
		return a, nil
	}
	var cmd tea.Cmd
	before := a.searchInput.Value()
	a.searchInput, cmd = a.searchInput.Update(msg)
	if a.searchInput.Value() != before {
		a.refreshSearch()
	}
	return a, cmd
}

func (a *App) envsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		a.screen = a.envReturn
	case "up", "k":
		if a.envCursor > 0 {
			a.envCursor--
			a.loadEnvPreview()
		}
	case "down", "j":
		if a.envCursor < len(a.envFiles)-1 {
			a.envCursor++
			a.loadEnvPreview()
		}
	case "enter":
		if a.envCursor < len(a.envFiles) {
			name := a.envFiles[a.envCursor]
			if err := envs.SetActive(a.ws.EnvsDir(), name); err != nil {
				a.envMessage = "Error: " + err.Error()
			} else {
				a.envMessage = "Activated " + name
			}
			a.reloadEnv()
		}
	case "d", "c":
		if err := envs.SetActive(a.ws.EnvsDir(), ""); err != nil {
			a.envMessage = "Error: " + err.Error()
		} else {
			a.envMessage = "Environment cleared"
		}
		a.reloadEnv()
	}
	return a, nil
}

func (a *App) fieldsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.screen = screenScripts
		return a, nil
	case "tab", "down":
		a.focusField((a.formFocus + 1) % len(a.formInputs))
		return a, textinput.Blink
	case "shift+tab", "up":
		a.focusField((a.formFocus + len(a.formInputs) - 1) % len(a.formInputs))
		return a, textinput.Blink
	case "enter":
		return a.submitForm()
	}
	var cmd tea.Cmd
	a.formInputs[a.formFocus], cmd = a.formInputs[a.formFocus].Update(msg)
	return a, cmd
}

func (a *App) historyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.histFocus {
		switch msg.String() {
		case "esc", "left", "h":
			a.histFocus = false
		case "up", "k":
			if a.histOffset > 0 {
				a.histOffset--
			}
		case "down", "j":
			a.histOffset++
		case "q":
			a.histFocus = false
			a.screen = screenScripts
		}
		return a, nil
	}
	switch msg.String() {
	case "esc", "q":
		a.screen = screenScripts
	case "up", "k":
		if a.histCursor > 0 {
			a.histCursor--
			a.histOffset = 0
		}
	case "down", "j":
		if a.histCursor < len(a.histEntries)-1 {
			a.histCursor++
			a.histOffset = 0
		}
	case "enter", "right":
		if len(a.histEntries) > 0 {
			a.histFocus = true
		}
	}
	return a, nil
}

func (a *App) resultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		a.screen = screenScripts
	case "h":
		a.enterHistory()
	case "up", "k":
		if a.resultOffset > 0 {
			a.resultOffset--
		}
	case "down", "j":
		a.resultOffset++
	}
	return a, nil
}

// enterDir changes the browse directory, reloads the listing, and
// kicks off a widget load for the new directory.
func (a *App) enterDir(dir string) tea.Cmd {
	a.dir = dir
	a.cursor = 0
	a.reloadEntries()
	return a.loadWidget()
}

func (a *App) reloadEntries() {
	entries, err := catalog.List(a.dir)
	if err != nil {
		a.fail(err.Error(), screenScripts)
		return
	}
	a.entries = entries
	if a.cursor >= len(a.entries) {
		a.cursor = max(0, len(a.entries)-1)
	}
}

func (a *App) reloadEnv() {
	cfg, err := envs.Load(a.ws.EnvsDir())
	if err != nil {
		a.envMessage = "Error: " + err.Error()
		a.envCfg = &envs.Config{EnvsDir: a.ws.EnvsDir()}
		return
	}
	a.envCfg = cfg
}

func (a *App) enterEnvs(from screenID) {
	files, err := envs.List(a.ws.EnvsDir())
	if err != nil {
		a.fail(err.Error(), from)
		return
	}
	a.envReturn = from
	a.envFiles = files
	a.envCursor = 0
	a.envMessage = ""
	a.reloadEnv()
	a.loadEnvPreview()
	a.screen = screenEnvs
}

func (a *App) loadEnvPreview() {
	a.envPreview = nil
	if a.envCursor >= len(a.envFiles) {
		return
	}
	path := filepath.Join(a.ws.EnvsDir(), a.envFiles[a.envCursor])
	pairs, err := envs.Preview(path)
	if err != nil {
		a.envMessage = "Error: " + err.Error()
		return
	}
	a.envPreview = pairs
}

func (a *App) enterHistory() {
	if entries, err := history.Load(a.ws.HistoryDir()); err == nil {
		a.histEntries = entries
	}
	a.histCursor = 0
	a.histFocus = false
	a.histOffset = 0
	a.screen = screenHistory
}

func (a *App) enterSearch() {
	a.searchInput.SetValue("")
	a.searchInput.Focus()
	a.resultCursor = 0
	a.details = nil
	a.screen = screenSearch
	a.refreshSearch()
}

// refreshSearch re-runs the current query. Index errors keep whatever
// results were last shown.
func (a *App) refreshSearch() {
	results, err := a.index.Query(a.searchInput.Value())
	if err != nil {
		return
	}
	a.results = results
	if a.resultCursor >= len(a.results) {
		a.resultCursor = max(0, len(a.results)-1)
	}
	a.loadDetails()
}

func (a *App) loadDetails() {
	a.details = nil
	if a.resultCursor >= len(a.results) {
		return
	}
	details, err := a.index.Details(a.results[a.resultCursor].ScriptPath)
	if err != nil {
		return
	}
	a.details = details
}

// ensurePreview resolves a script's schema once and caches the
// result, error included.
func (a *App) ensurePreview(path string) *preview {
	if pv, ok := a.previews[path]; ok {
		return pv
	}
	pv := &preview{}
	pv.schema, pv.err = resolveFile(path)
	a.previews[path] = pv
	return pv
}

// openScript loads the schema and either starts the run immediately
// or opens the field form. A script with no schema block runs with no
// arguments; a malformed block is an error.
func (a *App) openScript(path string) tea.Cmd {
	pv := a.ensurePreview(path)
	if pv.err != nil {
		if isBlockNotFound(pv.err) {
			return a.startRun(path, nil)
		}
		a.fail(pv.err.Error(), a.screen)
		return nil
	}
	if len(pv.schema.Fields) == 0 {
		return a.startRun(path, nil)
	}
	a.beginForm(path, pv.schema)
	return textinput.Blink
}

// beginForm builds one text input per field, seeded from the active
// environment's defaults by lowercased field name. A field's own
// Default is not pre-filled; normalization applies it when the input
// is left empty.
func (a *App) beginForm(path string, sc *schema.Schema) {
	a.formScript = path
	a.formSchema = sc
	a.formErr = ""
	a.formInputs = make([]textinput.Model, len(sc.Fields))
	for i, field := range sc.Fields {
		ti := textinput.New()
		ti.Placeholder = field.Type
		ti.CharLimit = 512
		ti.Width = 48
		if v, ok := a.envCfg.Defaults[strings.ToLower(field.Name)]; ok {
			ti.SetValue(v)
		}
		a.formInputs[i] = ti
	}
	a.focusField(0)
	a.screen = screenFields
}

func (a *App) focusField(idx int) {
	for i := range a.formInputs {
		if i == idx {
			a.formInputs[i].Focus()
		} else {
			a.formInputs[i].Blur()
		}
	}
	a.formFocus = idx
}

// submitForm normalizes every input in declared order. The first
// failure focuses its field and reports the message; success starts
// the run.
func (a *App) submitForm() (tea.Model, tea.Cmd) {
	inputs := make([]string, len(a.formInputs))
	for i := range a.formInputs {
		inputs[i] = a.formInputs[i].Value()
	}
	args, badField, err := schema.BuildArgs(a.formSchema.Fields, inputs)
	if err != nil {
		a.formErr = fmt.Sprintf("%s: %s", a.formSchema.Fields[badField].Name, err)
		a.focusField(badField)
		return a, textinput.Blink
	}
	a.formErr = ""
	return a, a.startRun(a.formScript, args)
}

// startRun moves to the Running screen and executes the script in a
// command. The finished run is recorded to history best-effort.
func (a *App) startRun(script string, args []string) tea.Cmd {
	a.runningScript = script
	a.screen = screenRunning
	root := a.ws.Root()
	histDir := a.ws.HistoryDir()
	run := a.runner
	return func() tea.Msg {
		out, err := run.Run(context.Background(), script, args)
		var entry history.Entry
		if err != nil {
			entry = history.NewFailure(root, script, args, err.Error())
		} else {
			entry = history.NewSuccess(root, script, args, out)
		}
		_, _ = history.Write(histDir, entry)
		return runFinishedMsg{entry}
	}
}

func (a *App) loadWidget() tea.Cmd {
	a.widgetSeq++
	a.widgetLoading = true
	seq := a.widgetSeq
	dir := a.dir
	return func() tea.Msg {
		data, err := widget.Load(dir)
		return widgetLoadedMsg{seq: seq, data: data, err: err}
	}
}

func (a *App) pollStatus() tea.Cmd {
	return tea.Tick(statusPollInterval, func(time.Time) tea.Msg {
		return statusTickMsg{}
	})
}

func (a *App) fail(text string, returnTo screenID) {
	a.errText = text
	a.errReturn = returnTo
	a.screen = screenError
}

func resolveFile(path string) (*schema.Schema, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return schema.Resolve(string(contents))
}

func isBlockNotFound(err error) bool {
	return errors.Is(err, schema.ErrBlockNotFound)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

type widgetLoadedMsg struct {
	seq  int
	data *widget.Data
	err  error
}

type statusTickMsg struct{}

type runFinishedMsg struct {
	entry history.Entry
}
