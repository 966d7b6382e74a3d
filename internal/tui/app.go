package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"archpm/internal/history"
	"archpm/pkg/manager"
)

// upgradeAllKey is the pending key of a full system upgrade.
const upgradeAllKey = "*"

const (
	promptSearch = "Search: "
	promptFilter = "Filter: "
)

type pollKind int

const (
	pollCheck pollKind = iota
	pollInstalled
	pollUpdates
)

// Messages for async operations
type (
	pollMsg struct {
		kind pollKind
	}

	featuredMsg struct {
		pkgs []manager.PackageInfo
		err  error
	}

	statusMsg struct {
		status map[string]bool
		settle string // pending entry to clear once the status is stored
	}

	installedMsg struct {
		pkgs []manager.PackageInfo
		err  error
	}

	searchMsg struct {
		query   string
		results []manager.PackageInfo
	}

	updatesMsg struct {
		updates []manager.UpdateInfo
		err     error
	}

	historyMsg struct {
		entries []history.Entry
		err     error
	}

	detailsMsg struct {
		name      string
		installed bool
		err       error
	}

	txDoneMsg struct {
		name    string
		op      history.Operation
		err     error
		failure string
	}
)

// App wraps the Model with bubbletea components
type App struct {
	*Model
	spinner   spinner.Model
	textInput textinput.Model
}

// NewApp creates a new TUI application
func NewApp(backend Backend, hist HistorySource, opts Options) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	ti := textinput.New()
	ti.Placeholder = "Type to search..."
	ti.CharLimit = 100
	ti.Width = 40

	return &App{
		Model:     NewModel(backend, hist, opts),
		spinner:   sp,
		textInput: ti,
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	a.SetLoading(true, "Loading featured packages...")
	return tea.Batch(
		a.spinner.Tick,
		a.loadFeatured(),
		a.loadInstalled(),
		a.loadHistory(),
		a.tick(pollCheck),
		a.tick(pollInstalled),
		a.tick(pollUpdates),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetSize(msg.Width, msg.Height)
		a.ready = true

	case tea.KeyMsg:
		return a, a.handleKey(msg)

	case pollMsg:
		cmds = append(cmds, a.tick(msg.kind), a.poll(msg.kind))

	case featuredMsg:
		a.SetLoading(false, "")
		if msg.err != nil {
			a.SetError("Failed to load featured packages.")
			break
		}
		a.featured = msg.pkgs
		cmds = append(cmds, a.checkStatus("", a.checkNames()...))

	case statusMsg:
		for name, installed := range msg.status {
			a.SetStatus(name, installed)
		}
		if msg.settle != "" {
			a.ClearPending(msg.settle)
		}

	case installedMsg:
		if a.loadingMsg == "Loading installed packages..." {
			a.SetLoading(false, "")
		}
		if msg.err != nil {
			a.SetError("Failed to fetch installed packages. Please try again.")
			break
		}
		a.SetInstalled(msg.pkgs)

	case searchMsg:
		if msg.query != a.searchQuery {
			break // superseded
		}
		a.SetLoading(false, "")
		a.searchResults = msg.results
		a.cursors[ViewSearch] = 0
		a.scrolls[ViewSearch] = 0
		if len(msg.results) == 0 {
			a.SetError("No packages found")
		}

	case updatesMsg:
		if a.loadingMsg == "Checking for updates..." {
			a.SetLoading(false, "")
		}
		if msg.err != nil {
			a.SetError("Failed to check for updates. Please try again.")
			break
		}
		a.SetUpdates(msg.updates)

	case historyMsg:
		if msg.err == nil {
			a.historyEntries = msg.entries
		}

	case detailsMsg:
		if msg.err != nil {
			a.SetError(fmt.Sprintf("Failed to check whether %s is installed.", msg.name))
			break
		}
		a.SetStatus(msg.name, msg.installed)

	case txDoneMsg:
		cmds = append(cmds, a.finishTx(msg))

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	return a, tea.Batch(cmds...)
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	if a.showConfirm {
		switch msg.String() {
		case "y", "Y", "enter":
			return a.ConfirmYes()
		case "n", "N", "esc", "q":
			a.ConfirmNo()
		}
		return nil
	}

	if a.inputMode {
		switch msg.Type {
		case tea.KeyEnter:
			return a.finishInput()
		case tea.KeyEsc:
			a.cancelInput()
			return nil
		}
		var cmd tea.Cmd
		a.textInput, cmd = a.textInput.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, a.keys.Quit):
		a.quitting = true
		return tea.Quit

	case key.Matches(msg, a.keys.Help):
		a.ToggleHelp()

	case key.Matches(msg, a.keys.Tab1):
		return a.switchTab(0)
	case key.Matches(msg, a.keys.Tab2):
		return a.switchTab(1)
	case key.Matches(msg, a.keys.Tab3):
		return a.switchTab(2)
	case key.Matches(msg, a.keys.Tab4):
		return a.switchTab(3)
	case key.Matches(msg, a.keys.Tab5):
		return a.switchTab(4)
	case key.Matches(msg, a.keys.Left):
		return a.switchTab((a.activeTab - 1 + len(a.tabs)) % len(a.tabs))
	case key.Matches(msg, a.keys.Right):
		return a.switchTab((a.activeTab + 1) % len(a.tabs))

	case key.Matches(msg, a.keys.Back):
		a.GoBack()
	case key.Matches(msg, a.keys.Cancel):
		a.GoBack()
		a.ClearMessages()

	case key.Matches(msg, a.keys.Up), key.Matches(msg, a.keys.VimUp):
		a.MoveCursor(-1)
	case key.Matches(msg, a.keys.Down), key.Matches(msg, a.keys.VimDown):
		a.MoveCursor(1)
	case key.Matches(msg, a.keys.PageUp):
		a.MoveCursor(-a.VisibleHeight())
	case key.Matches(msg, a.keys.PageDown):
		a.MoveCursor(a.VisibleHeight())
	case key.Matches(msg, a.keys.Home), key.Matches(msg, a.keys.VimTop):
		a.GoToTop()
	case key.Matches(msg, a.keys.End), key.Matches(msg, a.keys.VimBot):
		a.GoToBottom()

	case key.Matches(msg, a.keys.Enter):
		if a.ShowDetails() {
			return a.loadDetails(a.selectedPkg.Name)
		}

	case key.Matches(msg, a.keys.Search):
		switch a.activeView {
		case ViewInstalled:
			a.startInput(promptFilter, a.filterText)
		default:
			a.SetTab(1)
			a.startInput(promptSearch, "")
		}

	case key.Matches(msg, a.keys.Refresh):
		return a.refresh()

	case key.Matches(msg, a.keys.Install):
		if pkg := a.SelectedPackage(); pkg != nil && !a.IsInstalled(pkg.Name) && pkg.Repository != manager.RepoUnknown {
			name := pkg.Name
			a.ShowConfirm(fmt.Sprintf("Install %s?", name), func() tea.Cmd {
				return a.startTx(name, history.OpInstall, func() error { return a.backend.Install(name) },
					fmt.Sprintf("Failed to install %s.", name))
			})
		}

	case key.Matches(msg, a.keys.Uninstall), key.Matches(msg, a.keys.UninstallDeps):
		if pkg := a.SelectedPackage(); pkg != nil && a.IsInstalled(pkg.Name) {
			name := pkg.Name
			remove, title := a.backend.Uninstall, fmt.Sprintf("Remove %s?", name)
			if key.Matches(msg, a.keys.UninstallDeps) {
				remove, title = a.backend.UninstallPackage, fmt.Sprintf("Remove %s and its unneeded dependencies?", name)
			}
			a.ShowConfirm(title, func() tea.Cmd {
				return a.startTx(name, history.OpUninstall, func() error { return remove(name) },
					fmt.Sprintf("Failed to uninstall %s.", name))
			})
		}

	case key.Matches(msg, a.keys.Update):
		if u := a.SelectedUpdate(); u != nil {
			name := u.Name
			a.ShowConfirm(fmt.Sprintf("Update %s to %s?", name, u.NewVersion), func() tea.Cmd {
				return a.startTx(name, history.OpUpdate, func() error { return a.backend.UpdateSinglePkg(name) },
					fmt.Sprintf("Failed to update %s.", name))
			})
		}

	case key.Matches(msg, a.keys.UpdateAll):
		if a.activeView == ViewUpdates && len(a.updates) > 0 {
			a.ShowConfirm(fmt.Sprintf("Update all %d packages?", len(a.updates)), func() tea.Cmd {
				return a.startTx(upgradeAllKey, history.OpUpgrade, a.backend.UpdateAllPkg, "Failed to update packages.")
			})
		}
	}

	return nil
}

// switchTab activates a tab and loads its data right away.
func (a *App) switchTab(index int) tea.Cmd {
	a.SetTab(index)
	switch a.activeView {
	case ViewSearch:
		if a.searchQuery == "" {
			a.startInput(promptSearch, "")
		}
	case ViewInstalled:
		if a.installedPkgs == nil {
			a.SetLoading(true, "Loading installed packages...")
		}
		return a.loadInstalled()
	case ViewUpdates:
		if a.updates == nil {
			a.SetLoading(true, "Checking for updates...")
		}
		return a.loadUpdates()
	case ViewHistory:
		return a.loadHistory()
	}
	return nil
}

func (a *App) refresh() tea.Cmd {
	switch a.activeView {
	case ViewHome:
		return a.loadFeatured()
	case ViewSearch:
		if a.searchQuery != "" {
			return a.search(a.searchQuery)
		}
	case ViewInstalled:
		return a.loadInstalled()
	case ViewUpdates:
		return a.loadUpdates()
	case ViewHistory:
		return a.loadHistory()
	}
	return nil
}

func (a *App) startInput(prompt, value string) {
	a.inputMode = true
	a.inputPrompt = prompt
	a.textInput.SetValue(value)
	a.textInput.CursorEnd()
	a.textInput.Focus()
}

func (a *App) cancelInput() {
	a.inputMode = false
	a.inputPrompt = ""
	a.textInput.Blur()
}

func (a *App) finishInput() tea.Cmd {
	prompt, value := a.inputPrompt, strings.TrimSpace(a.textInput.Value())
	a.cancelInput()

	switch prompt {
	case promptFilter:
		a.SetFilter(value)
	case promptSearch:
		if value == "" {
			return nil
		}
		a.searchQuery = value
		a.ClearMessages()
		a.SetLoading(true, "Searching...")
		return a.search(value)
	}
	return nil
}

// startTx marks name pending and runs fn in the background.
func (a *App) startTx(name string, op history.Operation, fn func() error, failure string) tea.Cmd {
	if !a.MarkPending(name, op) {
		a.SetError(fmt.Sprintf("%s is already being processed.", name))
		return nil
	}
	a.ClearMessages()
	return func() tea.Msg {
		return txDoneMsg{name: name, op: op, err: fn(), failure: failure}
	}
}

func (a *App) finishTx(msg txDoneMsg) tea.Cmd {
	if msg.err != nil {
		a.ClearPending(msg.name)
		a.SetError(msg.failure)
		return a.loadHistory()
	}

	switch msg.op {
	case history.OpInstall:
		a.SetSuccess(fmt.Sprintf("Installed %s", msg.name))
	case history.OpUninstall:
		a.SetSuccess(fmt.Sprintf("Removed %s", msg.name))
	case history.OpUpdate:
		a.ClearPending(msg.name)
		a.SetSuccess(fmt.Sprintf("Updated %s", msg.name))
		return tea.Batch(a.loadUpdates(), a.loadInstalled(), a.loadHistory())
	default:
		a.ClearPending(msg.name)
		a.SetSuccess("System updated")
		return tea.Batch(a.loadUpdates(), a.loadInstalled(), a.loadHistory())
	}

	return tea.Batch(a.checkStatus(msg.name, msg.name), a.loadInstalled(), a.loadHistory())
}

// checkNames returns the packages whose installed badge is polled.
func (a *App) checkNames() []string {
	seen := make(map[string]bool)
	var names []string
	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, pkg := range a.featured {
		if pkg.Repository != manager.RepoUnknown {
			add(pkg.Name)
		}
	}
	for _, name := range a.PendingNames() {
		add(name)
	}
	if a.activeView == ViewDetails && a.selectedPkg != nil {
		add(a.selectedPkg.Name)
	}
	return names
}

// Async commands

func (a *App) tick(kind pollKind) tea.Cmd {
	interval := a.opts.PollCheck
	switch kind {
	case pollInstalled:
		interval = a.opts.PollInstalled
	case pollUpdates:
		interval = a.opts.PollUpdates
	}
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return pollMsg{kind: kind}
	})
}

// poll refreshes the data behind the visible view.
func (a *App) poll(kind pollKind) tea.Cmd {
	switch kind {
	case pollCheck:
		if names := a.checkNames(); len(names) > 0 {
			return a.checkStatus("", names...)
		}
	case pollInstalled:
		if a.activeView == ViewInstalled {
			return a.loadInstalled()
		}
	case pollUpdates:
		if a.activeView == ViewUpdates {
			return a.loadUpdates()
		}
	}
	return nil
}

func (a *App) loadFeatured() tea.Cmd {
	names := append([]string(nil), a.opts.Featured...)
	return func() tea.Msg {
		pkgs, err := a.backend.GetMultiplePackageInfo(names)
		return featuredMsg{pkgs: pkgs, err: err}
	}
}

func (a *App) checkStatus(settle string, names ...string) tea.Cmd {
	if len(names) == 0 {
		return nil
	}
	return func() tea.Msg {
		status := make(map[string]bool, len(names))
		for _, name := range names {
			status[name] = a.backend.CheckPackageInstalled(name)
		}
		return statusMsg{status: status, settle: settle}
	}
}

func (a *App) loadInstalled() tea.Cmd {
	return func() tea.Msg {
		pkgs, err := a.backend.GetInstalledPackages()
		return installedMsg{pkgs: pkgs, err: err}
	}
}

func (a *App) search(query string) tea.Cmd {
	return func() tea.Msg {
		return searchMsg{query: query, results: a.backend.SearchPackage(query)}
	}
}

func (a *App) loadUpdates() tea.Cmd {
	return func() tea.Msg {
		updates, err := a.backend.GetAvailableUpdates()
		return updatesMsg{updates: updates, err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	if a.history == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := a.history.List(historyLimit)
		return historyMsg{entries: entries, err: err}
	}
}

func (a *App) loadDetails(name string) tea.Cmd {
	return func() tea.Msg {
		installed, err := a.backend.SearchLocalPackage(name)
		return detailsMsg{name: name, installed: installed, err: err}
	}
}

// Run starts the TUI application
func Run(backend Backend, hist HistorySource, opts Options) error {
	p := tea.NewProgram(NewApp(backend, hist, opts), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
