package ui

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"archpm/internal/history"
	"archpm/pkg/manager"
)

// Table wraps tabwriter for consistent styling.
type Table struct {
	writer  *tabwriter.Writer
	headers []string
}

// NewTable creates a table that writes to w.
func NewTable(w io.Writer, headers ...string) *Table {
	t := &Table{
		writer:  tabwriter.NewWriter(w, 0, 0, 2, ' ', 0),
		headers: headers,
	}
	if len(headers) > 0 {
		row := make([]string, len(headers))
		for i, h := range headers {
			row[i] = Bold(strings.ToUpper(h))
		}
		fmt.Fprintln(t.writer, strings.Join(row, "\t"))
	}
	return t
}

// AddRow adds a row to the table.
func (t *Table) AddRow(cells ...string) {
	fmt.Fprintln(t.writer, strings.Join(cells, "\t"))
}

// Render flushes the table.
func (t *Table) Render() error {
	return t.writer.Flush()
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// PrintPackages prints search results. installed may be nil.
func PrintPackages(w io.Writer, packages []manager.PackageInfo, installed func(name string) bool) error {
	if len(packages) == 0 {
		fmt.Fprintln(w, Muted.Sprint("No packages found"))
		return nil
	}

	t := NewTable(w, "repository", "name", "version", "description")
	for _, pkg := range packages {
		name := PackageName.Sprint(pkg.Name)
		if installed != nil && installed(pkg.Name) {
			name += " " + Installed.Sprint("[installed]")
		}
		t.AddRow(RepoTag(pkg.Repository), name, PackageVersion.Sprint(pkg.Version), Truncate(pkg.Description, 60))
	}
	return t.Render()
}

// PrintInstalled prints installed packages.
func PrintInstalled(w io.Writer, packages []manager.InstalledPackage) error {
	if len(packages) == 0 {
		fmt.Fprintln(w, Muted.Sprint("No packages installed"))
		return nil
	}

	t := NewTable(w, "name", "version", "repository", "last updated")
	for _, pkg := range packages {
		t.AddRow(PackageName.Sprint(pkg.Name), PackageVersion.Sprint(pkg.Version), RepoTag(pkg.Repository), pkg.LastUpdated)
	}
	return t.Render()
}

// PrintUpdates prints available updates followed by the total download
// size, rendered with size.
func PrintUpdates(w io.Writer, updates []manager.UpdateInfo, size func(int64) string) error {
	if len(updates) == 0 {
		fmt.Fprintln(w, Success.Sprint(SymbolSuccess+" System is up to date"))
		return nil
	}

	var total int64
	t := NewTable(w, "name", "current", "new", "repository", "download")
	for _, u := range updates {
		total += u.DownloadSize
		download := "-"
		if u.DownloadSize > 0 {
			download = size(u.DownloadSize)
		}
		t.AddRow(PackageName.Sprint(u.Name), Muted.Sprint(u.OldVersion), PackageVersion.Sprint(u.NewVersion), RepoTag(u.Repository), download)
	}
	if err := t.Render(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d updates, total download %s\n", len(updates), Bold(size(total)))
	return nil
}

// PrintPackageInfo prints detailed package information.
func PrintPackageInfo(w io.Writer, info manager.PackageInfo, installed bool) {
	fmt.Fprintf(w, "%s %s %s\n", PackageName.Sprint(info.Name), PackageVersion.Sprint(info.Version), RepoTag(info.Repository))

	printField(w, "Description", info.Description)
	printField(w, "Maintainer", info.Maintainer)
	printField(w, "Upstream URL", info.UpstreamURL)
	printField(w, "Last Updated", info.LastUpdated)
	if info.OutOfDate != "" {
		printField(w, "Out of Date", Warning.Sprint(info.OutOfDate))
	}
	if info.Orphan {
		printField(w, "Maintainer", Warning.Sprint("orphaned"))
	}
	if len(info.DependList) > 0 {
		printField(w, "Depends On", strings.Join(info.DependList, ", "))
	}

	status := NotInstalled.Sprint("not installed")
	if installed {
		status = Installed.Sprint("installed")
	}
	printField(w, "Status", status)
}

// printField prints a single field, skipping empty values.
func printField(w io.Writer, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(w, "  %-14s %s\n", Cyan(label+":"), value)
}

// PrintHistory prints history entries, newest first.
func PrintHistory(w io.Writer, entries []history.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintln(w, Muted.Sprint("No history entries found"))
		return nil
	}

	t := NewTable(w, "id", "time", "operation", "packages", "source", "status")
	for _, e := range entries {
		status := Green(e.Status())
		if !e.Success {
			status = Red(e.Status())
		}
		t.AddRow(e.ID, Muted.Sprint(e.FormatTime()), Bold(string(e.Operation)), FormatPackages(e.Packages), Cyan(e.Source), status)
	}
	return t.Render()
}

// FormatPackages formats a list of packages for display.
func FormatPackages(packages []string) string {
	switch {
	case len(packages) == 0:
		return "(all)"
	case len(packages) <= 3:
		return strings.Join(packages, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", packages[0], len(packages)-1)
}

// SystemReport is the information shown by the system command.
type SystemReport struct {
	Distribution string `json:"distribution" yaml:"distribution"`
	ArchFamily   bool   `json:"archFamily" yaml:"archFamily"`
	Architecture string `json:"architecture" yaml:"architecture"`
	Desktop      string `json:"desktop" yaml:"desktop"`
	Native       string `json:"native" yaml:"native"`
	AURHelper    string `json:"aurHelper" yaml:"aurHelper"`
	Elevate      string `json:"elevate" yaml:"elevate"`
	CanElevate   bool   `json:"canElevate" yaml:"canElevate"`
	Root         bool   `json:"root" yaml:"root"`
}

// PrintSystemInfo prints system information.
func PrintSystemInfo(w io.Writer, r SystemReport) {
	fmt.Fprintln(w, Header.Sprint("System Information"))

	printField(w, "Distribution", r.Distribution)
	if !r.ArchFamily {
		printField(w, "Warning", Yellow("not an Arch Linux based system"))
	}
	printField(w, "Architecture", r.Architecture)
	printField(w, "Desktop", r.Desktop)

	native := r.Native
	if native == "" {
		native = Red("not found")
	}
	printField(w, "Package Manager", native)

	helper := r.AURHelper
	if helper == "" {
		helper = Yellow("none (AUR installs disabled)")
	}
	printField(w, "AUR Helper", helper)

	elevate := "not needed (root)"
	if !r.Root {
		elevate = r.Elevate
		if elevate == "" {
			elevate = "none"
		}
		if r.CanElevate {
			elevate += " " + Green(SymbolSuccess)
		} else {
			elevate += " " + Red(SymbolError)
		}
	}
	printField(w, "Elevation", elevate)
}
