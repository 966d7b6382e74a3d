package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"archpm/internal/history"
	"archpm/pkg/manager"
)

// View implements tea.Model
func (a *App) View() string {
	if !a.ready {
		return "Loading..."
	}
	if a.quitting {
		return ""
	}

	if a.showConfirm {
		return a.renderDialog()
	}

	var b strings.Builder
	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(a.renderTabs())
	b.WriteString("\n")
	b.WriteString(a.renderContent())
	b.WriteString(a.renderFooter())
	return b.String()
}

func (a *App) renderHeader() string {
	title := a.styles.Header.Render(" archpm - Arch Linux package manager ")

	var right string
	switch {
	case a.loading:
		right = a.spinner.View() + " " + a.loadingMsg
	case a.errorMsg != "":
		right = a.styles.Error.Render(a.errorMsg)
	case a.successMsg != "":
		right = a.styles.Success.Render(a.successMsg)
	case len(a.pending) > 0:
		right = a.spinner.View() + " " + a.pendingSummary()
	}

	padding := a.width - lipgloss.Width(title) - lipgloss.Width(right) - 2
	if padding < 0 {
		padding = 0
	}
	return title + strings.Repeat(" ", padding) + right
}

func (a *App) pendingSummary() string {
	if _, ok := a.pending[upgradeAllKey]; ok {
		return "Updating system..."
	}
	if len(a.pending) == 1 {
		for name, op := range a.pending {
			return fmt.Sprintf("%s %s...", pendingVerb(op), name)
		}
	}
	return fmt.Sprintf("%d operations in progress...", len(a.pending))
}

func pendingVerb(op history.Operation) string {
	switch op {
	case history.OpInstall:
		return "Installing"
	case history.OpUninstall:
		return "Removing"
	}
	return "Updating"
}

func (a *App) renderTabs() string {
	tabs := make([]string, 0, len(a.tabs))
	for i, tab := range a.tabs {
		style := a.styles.TabInactive
		if i == a.activeTab {
			style = a.styles.TabActive
		}
		tabs = append(tabs, style.Render(fmt.Sprintf("[%d] %s", i+1, tab.Name)))
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Background(ColorBgAlt).
		Padding(0, 1).
		Render(strings.Join(tabs, " "))
}

func (a *App) renderContent() string {
	var content string
	switch a.activeView {
	case ViewHome:
		content = a.renderHomeView()
	case ViewSearch:
		content = a.renderSearchView()
	case ViewInstalled:
		content = a.renderInstalledView()
	case ViewUpdates:
		content = a.renderUpdatesView()
	case ViewHistory:
		content = a.renderHistoryView()
	case ViewDetails:
		content = a.renderDetailsView()
	case ViewHelp:
		content = a.renderHelpView()
	}

	return lipgloss.NewStyle().
		Width(a.width).
		Height(max(a.height-4, 1)).
		Render(content)
}

// visibleRange returns the slice bounds of the rows to render.
func (a *App) visibleRange(n int) (int, int) {
	start := a.Scroll()
	if start > n {
		start = n
	}
	end := start + a.VisibleHeight()
	if end > n {
		end = n
	}
	return start, end
}

func (a *App) cursorMark(i int) string {
	if i == a.Cursor() {
		return a.styles.ListItemSelected.Render("> ")
	}
	return "  "
}

// statusLabel renders the install state of a package, pending state first.
func (a *App) statusLabel(name string) string {
	if op, ok := a.PendingOp(name); ok {
		return a.styles.Warning.Render(pendingVerb(op) + "...")
	}
	if _, ok := a.pending[upgradeAllKey]; ok && a.IsInstalled(name) {
		return a.styles.Warning.Render("Updating...")
	}
	if a.IsInstalled(name) {
		return a.styles.Success.Render("Installed")
	}
	return ""
}

func (a *App) renderPackageRows(pkgs []manager.PackageInfo) string {
	var b strings.Builder
	start, end := a.visibleRange(len(pkgs))
	for i := start; i < end; i++ {
		pkg := pkgs[i]
		name := a.styles.PackageName.Render(fmt.Sprintf("%-28s", pkg.Name))
		version := a.styles.PackageVersion.Render(fmt.Sprintf("%-16s", pkg.Version))
		line := a.cursorMark(i) + name + " " + version + " " + RepoBadge(pkg.Repository)
		if status := a.statusLabel(pkg.Name); status != "" {
			line += " " + status
		}

		room := a.width - lipgloss.Width(line) - 2
		if room > 10 && pkg.Description != "" {
			line += " " + a.styles.PackageDesc.Render(truncate(pkg.Description, room))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderHomeView() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Featured Packages"))
	b.WriteString("\n\n")

	if len(a.featured) == 0 {
		if !a.loading {
			b.WriteString(a.styles.Description.Render("No featured packages configured"))
		}
		return b.String()
	}
	b.WriteString(a.renderPackageRows(a.featured))
	return b.String()
}

func (a *App) renderSearchView() string {
	var b strings.Builder

	switch {
	case a.inputMode && a.inputPrompt == promptSearch:
		b.WriteString(a.styles.InputPrompt.Render(promptSearch))
		b.WriteString(a.textInput.View())
	case a.searchQuery != "":
		b.WriteString(a.styles.Title.Render(fmt.Sprintf("Search results for '%s' (%d)", a.searchQuery, len(a.searchResults))))
	default:
		b.WriteString(a.styles.Title.Render("Search Packages"))
		b.WriteString("  ")
		b.WriteString(a.styles.Description.Render("Press / to search"))
	}
	b.WriteString("\n\n")

	b.WriteString(a.renderPackageRows(a.searchResults))
	return b.String()
}

func (a *App) renderInstalledView() string {
	var b strings.Builder

	pkgs := a.FilteredInstalled()
	if a.inputMode && a.inputPrompt == promptFilter {
		b.WriteString(a.styles.InputPrompt.Render(promptFilter))
		b.WriteString(a.textInput.View())
	} else {
		title := fmt.Sprintf("Installed Packages (%d)", len(pkgs))
		if a.filterText != "" {
			title += fmt.Sprintf(" - Filter: %s", a.filterText)
		}
		b.WriteString(a.styles.Title.Render(title))
	}
	b.WriteString("\n\n")

	if len(pkgs) == 0 {
		if !a.loading {
			b.WriteString(a.styles.Description.Render("No packages found"))
		}
		return b.String()
	}

	start, end := a.visibleRange(len(pkgs))
	for i := start; i < end; i++ {
		pkg := pkgs[i]
		line := fmt.Sprintf("%s%s %s %s %s",
			a.cursorMark(i),
			a.styles.PackageName.Render(fmt.Sprintf("%-32s", pkg.Name)),
			a.styles.PackageVersion.Render(fmt.Sprintf("%-20s", pkg.Version)),
			RepoBadge(pkg.Repository),
			a.styles.Description.Render(pkg.LastUpdated))
		if op, ok := a.PendingOp(pkg.Name); ok {
			line += " " + a.styles.Warning.Render(pendingVerb(op)+"...")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderUpdatesView() string {
	var b strings.Builder

	if len(a.updates) == 0 {
		b.WriteString(a.styles.Title.Render("Available Updates"))
		b.WriteString("\n\n")
		if !a.loading {
			b.WriteString(a.styles.Success.Render("Your system is up to date"))
		}
		return b.String()
	}

	b.WriteString(a.styles.Title.Render(fmt.Sprintf("Available Updates (%d)", len(a.updates))))
	b.WriteString("  ")
	b.WriteString(a.styles.Description.Render("Total download: " + a.backend.HumanReadableSize(a.TotalDownloadSize())))
	b.WriteString("\n\n")

	start, end := a.visibleRange(len(a.updates))
	for i := start; i < end; i++ {
		u := a.updates[i]
		size := "-"
		if u.DownloadSize > 0 {
			size = a.backend.HumanReadableSize(u.DownloadSize)
		}
		line := fmt.Sprintf("%s%s %s -> %s %s %s",
			a.cursorMark(i),
			a.styles.PackageName.Render(fmt.Sprintf("%-28s", u.Name)),
			a.styles.Description.Render(fmt.Sprintf("%-18s", u.OldVersion)),
			a.styles.PackageVersion.Render(fmt.Sprintf("%-18s", u.NewVersion)),
			RepoBadge(u.Repository),
			size)
		if op, ok := a.PendingOp(u.Name); ok {
			line += " " + a.styles.Warning.Render(pendingVerb(op)+"...")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) renderHistoryView() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Operation History"))
	b.WriteString("\n\n")

	if len(a.historyEntries) == 0 {
		b.WriteString(a.styles.Description.Render("No history entries"))
		return b.String()
	}

	start, end := a.visibleRange(len(a.historyEntries))
	for i := start; i < end; i++ {
		entry := a.historyEntries[i]
		status := a.styles.Success.Render("OK")
		if !entry.Success {
			status = a.styles.Error.Render("FAILED")
		}

		pkgs := "(all)"
		if len(entry.Packages) > 0 {
			pkgs = truncate(strings.Join(entry.Packages, ", "), 40)
		}
		fmt.Fprintf(&b, "%s%s  %-10s  %-40s  %-8s %s\n",
			a.cursorMark(i), entry.Timestamp.Format("2006-01-02 15:04"), entry.Operation, pkgs, entry.Source, status)
	}
	return b.String()
}

func (a *App) renderDetailsView() string {
	var b strings.Builder

	pkg := a.selectedPkg
	if pkg == nil {
		b.WriteString(a.styles.Error.Render("No package selected"))
		return b.String()
	}

	b.WriteString(a.styles.Title.Render(pkg.Name))
	b.WriteString(" ")
	b.WriteString(RepoBadge(pkg.Repository))
	b.WriteString(" ")
	b.WriteString(a.styles.PackageVersion.Render(pkg.Version))
	b.WriteString("\n\n")

	if pkg.Description != "" {
		b.WriteString(a.styles.Description.Render(pkg.Description))
		b.WriteString("\n\n")
	}

	field := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "%s %s\n", a.styles.Subtitle.Render(fmt.Sprintf("%-14s", label+":")), value)
	}
	field("Maintainer", pkg.Maintainer)
	if pkg.Orphan {
		field("Maintainer", a.styles.Warning.Render("orphaned"))
	}
	field("Upstream URL", pkg.UpstreamURL)
	field("Last Updated", pkg.LastUpdated)
	if pkg.OutOfDate != "" {
		field("Out of Date", a.styles.Warning.Render(pkg.OutOfDate))
	}

	status := a.statusLabel(pkg.Name)
	if status == "" {
		status = a.styles.Info.Render("Not installed")
	}
	field("Status", status)
	b.WriteString("\n")

	b.WriteString(a.styles.Subtitle.Render(fmt.Sprintf("Dependencies (%d)", len(pkg.DependList))))
	b.WriteString("\n")
	if len(pkg.DependList) == 0 {
		b.WriteString(a.styles.Description.Render("  none"))
		b.WriteString("\n")
	}
	for _, dep := range pkg.DependList {
		b.WriteString("  " + dep + "\n")
	}
	b.WriteString("\n")

	b.WriteString(a.styles.Subtitle.Render("Actions"))
	b.WriteString("\n")
	if _, busy := a.PendingOp(pkg.Name); !busy {
		if a.IsInstalled(pkg.Name) {
			b.WriteString("  [r] Remove package\n")
			b.WriteString("  [R] Remove with unneeded dependencies\n")
		} else if pkg.Repository != manager.RepoUnknown {
			b.WriteString("  [i] Install package\n")
		}
	}
	b.WriteString("  [b] Back\n")

	return b.String()
}

func (a *App) renderHelpView() string {
	var b strings.Builder

	b.WriteString(a.styles.Title.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, group := range a.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			fmt.Fprintf(&b, "  %s %s\n",
				a.styles.HelpKey.Render(fmt.Sprintf("%-10s", h.Key)),
				a.styles.HelpDesc.Render(h.Desc))
		}
		b.WriteString("\n")
	}

	return b.String()
}

func (a *App) renderFooter() string {
	var hints []string

	switch a.activeView {
	case ViewHome, ViewSearch:
		hints = []string{"i:install", "r:remove", "/:search", "enter:details"}
	case ViewInstalled:
		hints = []string{"r:remove", "R:remove+deps", "/:filter", "enter:details"}
	case ViewUpdates:
		hints = []string{"u:update", "U:update all", "ctrl+r:refresh"}
	case ViewDetails:
		hints = []string{"i:install", "r:remove", "b:back"}
	}
	hints = append(hints, "?:help", "q:quit")

	return lipgloss.NewStyle().
		Width(a.width).
		Background(ColorBgAlt).
		Foreground(ColorMuted).
		Padding(0, 1).
		Render(strings.Join(hints, "  "))
}

func (a *App) renderDialog() string {
	dialog := a.styles.Dialog.Render(
		a.styles.DialogTitle.Render(a.confirmTitle) + "\n\n" +
			a.styles.DialogButton.Render("[Y]es") + " " +
			lipgloss.NewStyle().Foreground(ColorMuted).Render("[N]o"),
	)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, dialog,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(ColorBg))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
