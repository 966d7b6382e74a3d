package ui

import (
	"errors"
	"fmt"
	"strings"

	"archpm/pkg/manager"

	"github.com/manifoldco/promptui"
)

// Confirm prompts the user for yes/no confirmation.
func Confirm(prompt string, defaultYes bool) (bool, error) {
	label := prompt
	if defaultYes {
		label += " [Y/n]"
	} else {
		label += " [y/N]"
	}

	p := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if defaultYes {
		p.Default = "y"
	}

	result, err := p.Run()
	if err != nil {
		if errors.Is(err, promptui.ErrInterrupt) {
			return false, err
		}
		// promptui reports "n" as ErrAbort
		if errors.Is(err, promptui.ErrAbort) {
			return false, nil
		}
		return defaultYes, nil
	}

	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		return defaultYes, nil
	}

	return result == "y" || result == "yes", nil
}

// SelectPackage prompts the user to pick one of several packages.
func SelectPackage(packages []manager.PackageInfo, prompt string) (*manager.PackageInfo, error) {
	if len(packages) == 0 {
		return nil, fmt.Errorf("no packages to select from")
	}
	if len(packages) == 1 {
		return &packages[0], nil
	}

	templates := &promptui.SelectTemplates{
		Label:    "{{ . }}",
		Active:   "▸ {{ .Name | cyan }} {{ .Version | green }} [{{ .Repository | magenta }}]",
		Inactive: "  {{ .Name }} {{ .Version | faint }} [{{ .Repository | faint }}]",
		Selected: "✓ {{ .Name | cyan }} {{ .Version | green }} [{{ .Repository | magenta }}]",
		Details: `
--------- Package ----------
{{ "Name:" | faint }}	{{ .Name }}
{{ "Version:" | faint }}	{{ .Version }}
{{ "Repository:" | faint }}	{{ .Repository }}
{{ "Description:" | faint }}	{{ .Description }}`,
	}
	if !UseUnicode {
		templates.Active = "> {{ .Name | cyan }} {{ .Version | green }} [{{ .Repository | magenta }}]"
		templates.Selected = "* {{ .Name | cyan }} {{ .Version | green }} [{{ .Repository | magenta }}]"
	}

	searcher := func(input string, index int) bool {
		return strings.Contains(strings.ToLower(packages[index].Name), strings.ToLower(input))
	}

	p := promptui.Select{
		Label:     prompt,
		Items:     packages,
		Templates: templates,
		Size:      10,
		Searcher:  searcher,
	}

	index, _, err := p.Run()
	if err != nil {
		return nil, err
	}

	return &packages[index], nil
}
