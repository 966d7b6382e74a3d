package tui

import (
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"archpm/internal/history"
	"archpm/pkg/manager"
)

// Backend is the subset of the bridge used by the TUI.
type Backend interface {
	CheckPackageInstalled(name string) bool
	SearchLocalPackage(name string) (bool, error)
	SearchPackage(query string) []manager.PackageInfo
	GetInstalledPackages() ([]manager.PackageInfo, error)
	GetMultiplePackageInfo(names []string) ([]manager.PackageInfo, error)
	GetAvailableUpdates() ([]manager.UpdateInfo, error)
	Install(name string) error
	Uninstall(name string) error
	UninstallPackage(name string) error
	UpdateSinglePkg(name string) error
	UpdateAllPkg() error
	HumanReadableSize(size int64) string
}

// HistorySource lists recorded transactions, newest first.
type HistorySource interface {
	List(limit int) ([]history.Entry, error)
}

// Options configures the TUI.
type Options struct {
	Featured []string

	// Poll intervals; zero values use the defaults below.
	PollInstalled time.Duration
	PollCheck     time.Duration
	PollUpdates   time.Duration
}

const (
	defaultPollInstalled = 5 * time.Second
	defaultPollCheck     = 3 * time.Second
	defaultPollUpdates   = 5 * time.Second

	historyLimit = 50
)

// View represents different views in the TUI
type View int

const (
	ViewHome View = iota
	ViewSearch
	ViewInstalled
	ViewUpdates
	ViewHistory
	ViewDetails
	ViewHelp
)

// Tab represents a navigable tab
type Tab struct {
	Name string
	View View
}

// DefaultTabs returns the default tab configuration
func DefaultTabs() []Tab {
	return []Tab{
		{Name: "Home", View: ViewHome},
		{Name: "Search", View: ViewSearch},
		{Name: "Installed", View: ViewInstalled},
		{Name: "Updates", View: ViewUpdates},
		{Name: "History", View: ViewHistory},
	}
}

// Model holds the application state
type Model struct {
	ready    bool
	quitting bool

	width  int
	height int

	// Navigation
	tabs       []Tab
	activeTab  int
	activeView View
	prevView   View

	// Data
	backend  Backend
	history  HistorySource
	opts     Options
	featured []manager.PackageInfo
	// installed state of featured and detail packages by name
	status         map[string]bool
	installedPkgs  []manager.PackageInfo
	searchResults  []manager.PackageInfo
	updates        []manager.UpdateInfo
	historyEntries []history.Entry
	selectedPkg    *manager.PackageInfo

	// Optimistic transaction state, by package name
	pending map[string]history.Operation

	// UI state
	loading     bool
	loadingMsg  string
	errorMsg    string
	successMsg  string
	filterText  string
	searchQuery string
	inputMode   bool
	inputPrompt string

	cursors map[View]int
	scrolls map[View]int

	styles *Styles
	keys   KeyMap

	// Confirmation dialog
	showConfirm   bool
	confirmTitle  string
	confirmAction func() tea.Cmd
}

// NewModel creates a new TUI model
func NewModel(backend Backend, hist HistorySource, opts Options) *Model {
	if opts.PollInstalled <= 0 {
		opts.PollInstalled = defaultPollInstalled
	}
	if opts.PollCheck <= 0 {
		opts.PollCheck = defaultPollCheck
	}
	if opts.PollUpdates <= 0 {
		opts.PollUpdates = defaultPollUpdates
	}

	return &Model{
		tabs:       DefaultTabs(),
		activeView: ViewHome,
		backend:    backend,
		history:    hist,
		opts:       opts,
		status:     make(map[string]bool),
		pending:    make(map[string]history.Operation),
		cursors:    make(map[View]int),
		scrolls:    make(map[View]int),
		styles:     DefaultStyles(),
		keys:       DefaultKeyMap(),
	}
}

// SetSize sets the terminal size
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// ActiveView returns the view being shown.
func (m *Model) ActiveView() View {
	return m.activeView
}

// Cursor returns the cursor position for the current view
func (m *Model) Cursor() int {
	return m.cursors[m.activeView]
}

// SetCursor sets the cursor position for the current view
func (m *Model) SetCursor(pos int) {
	m.cursors[m.activeView] = pos
}

// Scroll returns the scroll offset for the current view
func (m *Model) Scroll() int {
	return m.scrolls[m.activeView]
}

// SetScroll sets the scroll offset for the current view
func (m *Model) SetScroll(offset int) {
	m.scrolls[m.activeView] = offset
}

// VisibleHeight returns the height available for list content
func (m *Model) VisibleHeight() int {
	// header, tabs, title, footer
	h := m.height - 7
	if h < 1 {
		h = 1
	}
	return h
}

// FilteredInstalled returns the installed packages whose name contains the
// filter text, ignoring case.
func (m *Model) FilteredInstalled() []manager.PackageInfo {
	if m.filterText == "" {
		return m.installedPkgs
	}

	filter := strings.ToLower(m.filterText)
	var filtered []manager.PackageInfo
	for _, pkg := range m.installedPkgs {
		if strings.Contains(strings.ToLower(pkg.Name), filter) {
			filtered = append(filtered, pkg)
		}
	}
	return filtered
}

// ListItems returns the packages listed by the current view.
func (m *Model) ListItems() []manager.PackageInfo {
	switch m.activeView {
	case ViewHome:
		return m.featured
	case ViewSearch:
		return m.searchResults
	case ViewInstalled:
		return m.FilteredInstalled()
	}
	return nil
}

// listLen returns the number of rows of the current view.
func (m *Model) listLen() int {
	switch m.activeView {
	case ViewUpdates:
		return len(m.updates)
	case ViewHistory:
		return len(m.historyEntries)
	}
	return len(m.ListItems())
}

// SelectedPackage returns the package under the cursor, or the package
// shown by the details view.
func (m *Model) SelectedPackage() *manager.PackageInfo {
	if m.activeView == ViewDetails {
		return m.selectedPkg
	}
	items := m.ListItems()
	cursor := m.Cursor()
	if cursor >= 0 && cursor < len(items) {
		return &items[cursor]
	}
	return nil
}

// SelectedUpdate returns the update under the cursor.
func (m *Model) SelectedUpdate() *manager.UpdateInfo {
	if m.activeView != ViewUpdates {
		return nil
	}
	cursor := m.Cursor()
	if cursor >= 0 && cursor < len(m.updates) {
		return &m.updates[cursor]
	}
	return nil
}

// MoveCursor moves the cursor by delta, clamping to valid range
func (m *Model) MoveCursor(delta int) {
	n := m.listLen()
	if n == 0 {
		return
	}

	newPos := m.Cursor() + delta
	if newPos < 0 {
		newPos = 0
	}
	if newPos >= n {
		newPos = n - 1
	}
	m.SetCursor(newPos)

	// keep the cursor visible
	visibleHeight := m.VisibleHeight()
	scroll := m.Scroll()
	if newPos < scroll {
		m.SetScroll(newPos)
	} else if newPos >= scroll+visibleHeight {
		m.SetScroll(newPos - visibleHeight + 1)
	}
}

// GoToTop moves cursor to the top
func (m *Model) GoToTop() {
	m.SetCursor(0)
	m.SetScroll(0)
}

// GoToBottom moves cursor to the bottom
func (m *Model) GoToBottom() {
	n := m.listLen()
	if n == 0 {
		return
	}
	m.SetCursor(n - 1)
	if visibleHeight := m.VisibleHeight(); n > visibleHeight {
		m.SetScroll(n - visibleHeight)
	}
}

// clampCursor keeps the cursor of the current view inside the list after
// the list shrank.
func (m *Model) clampCursor() {
	n := m.listLen()
	if m.Cursor() >= n {
		m.SetCursor(max(n-1, 0))
	}
	if m.Scroll() > m.Cursor() {
		m.SetScroll(m.Cursor())
	}
}

// NextTab switches to the next tab
func (m *Model) NextTab() {
	m.SetTab((m.activeTab + 1) % len(m.tabs))
}

// PrevTab switches to the previous tab
func (m *Model) PrevTab() {
	m.SetTab((m.activeTab - 1 + len(m.tabs)) % len(m.tabs))
}

// SetTab switches to a specific tab by index
func (m *Model) SetTab(index int) {
	if index >= 0 && index < len(m.tabs) {
		m.activeTab = index
		m.activeView = m.tabs[m.activeTab].View
	}
}

// ShowDetails shows the details view for the selected package
func (m *Model) ShowDetails() bool {
	pkg := m.SelectedPackage()
	if pkg == nil || m.activeView == ViewDetails {
		return false
	}
	selected := *pkg
	m.selectedPkg = &selected
	m.prevView = m.activeView
	m.activeView = ViewDetails
	return true
}

// ToggleHelp shows or hides the help view.
func (m *Model) ToggleHelp() {
	if m.activeView == ViewHelp {
		m.GoBack()
		return
	}
	m.prevView = m.activeView
	m.activeView = ViewHelp
}

// GoBack returns to the previous view
func (m *Model) GoBack() {
	if m.activeView == ViewDetails || m.activeView == ViewHelp {
		m.activeView = m.prevView
	}
}

// SetLoading sets the loading state
func (m *Model) SetLoading(loading bool, msg string) {
	m.loading = loading
	m.loadingMsg = msg
}

// SetError sets an error message
func (m *Model) SetError(msg string) {
	m.errorMsg = msg
	m.successMsg = ""
}

// SetSuccess sets a success message
func (m *Model) SetSuccess(msg string) {
	m.successMsg = msg
	m.errorMsg = ""
}

// ClearMessages clears all messages
func (m *Model) ClearMessages() {
	m.errorMsg = ""
	m.successMsg = ""
}

// IsInstalled reports the last known installed state of a package.
func (m *Model) IsInstalled(name string) bool {
	if installed, ok := m.status[name]; ok {
		return installed
	}
	for _, pkg := range m.installedPkgs {
		if pkg.Name == name {
			return true
		}
	}
	return false
}

// MarkPending records an in-flight transaction for name. It reports false
// when one is already pending.
func (m *Model) MarkPending(name string, op history.Operation) bool {
	if _, busy := m.pending[name]; busy {
		return false
	}
	m.pending[name] = op
	return true
}

// PendingOp returns the in-flight operation for name, if any.
func (m *Model) PendingOp(name string) (history.Operation, bool) {
	op, ok := m.pending[name]
	return op, ok
}

// ClearPending forgets the in-flight transaction for name.
func (m *Model) ClearPending(name string) {
	delete(m.pending, name)
}

// PendingNames returns the names with an in-flight install or uninstall,
// sorted.
func (m *Model) PendingNames() []string {
	names := make([]string, 0, len(m.pending))
	for name, op := range m.pending {
		if op == history.OpInstall || op == history.OpUninstall {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// SetStatus stores the installed state of name and resolves a pending
// install or uninstall once the state has flipped.
func (m *Model) SetStatus(name string, installed bool) {
	m.status[name] = installed
	switch op, ok := m.pending[name]; {
	case !ok:
	case op == history.OpInstall && installed,
		op == history.OpUninstall && !installed:
		delete(m.pending, name)
	}
}

// SetInstalled replaces the installed package list.
func (m *Model) SetInstalled(pkgs []manager.PackageInfo) {
	m.installedPkgs = pkgs
	installed := make(map[string]bool, len(pkgs))
	for _, pkg := range pkgs {
		installed[pkg.Name] = true
	}
	for name := range m.status {
		m.SetStatus(name, installed[name])
	}
	if m.activeView == ViewInstalled {
		m.clampCursor()
	}
}

// SetUpdates replaces the update list.
func (m *Model) SetUpdates(updates []manager.UpdateInfo) {
	m.updates = updates
	if m.activeView == ViewUpdates {
		m.clampCursor()
	}
}

// TotalDownloadSize sums the download sizes of the listed updates.
func (m *Model) TotalDownloadSize() int64 {
	var total int64
	for _, u := range m.updates {
		total += u.DownloadSize
	}
	return total
}

// SetFilter sets the installed list filter and resets its cursor.
func (m *Model) SetFilter(filter string) {
	m.filterText = strings.TrimSpace(filter)
	m.cursors[ViewInstalled] = 0
	m.scrolls[ViewInstalled] = 0
}

// ShowConfirm shows a confirmation dialog
func (m *Model) ShowConfirm(title string, action func() tea.Cmd) {
	m.showConfirm = true
	m.confirmTitle = title
	m.confirmAction = action
}

// ConfirmYes runs the confirmation action and closes the dialog.
func (m *Model) ConfirmYes() tea.Cmd {
	action := m.confirmAction
	m.ConfirmNo()
	if action == nil {
		return nil
	}
	return action()
}

// ConfirmNo cancels the confirmation
func (m *Model) ConfirmNo() {
	m.showConfirm = false
	m.confirmTitle = ""
	m.confirmAction = nil
}
