package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/chmouel/wtstatus/internal/models"
)

type renderer struct {
	color    bool
	path     lipgloss.Style
	counts   lipgloss.Style
	conflict lipgloss.Style
	base     lipgloss.Style
}

func newRenderer(noColor bool) *renderer {
	return &renderer{
		color:    !noColor && term.IsTerminal(int(os.Stdout.Fd())),
		path:     lipgloss.NewStyle().Bold(true),
		counts:   lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		conflict: lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		base:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

func (r *renderer) render(style lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return style.Render(s)
}

// printUpdate writes one status line for a worktree.
func (r *renderer) printUpdate(path string, s models.StatusSnapshot) {
	var parts []string
	parts = append(parts, r.render(r.path, path))

	if s.Upstream != "" {
		parts = append(parts, r.render(r.counts, fmt.Sprintf("↑%d ↓%d %s", s.Ahead, s.Behind, s.Upstream)))
	}

	if n := len(s.Files); n > 0 {
		parts = append(parts, r.render(r.counts, fmt.Sprintf("%d changed", n)))
	}
	if n := len(s.StagedFiles); n > 0 {
		parts = append(parts, r.render(r.counts, fmt.Sprintf("%d staged", n)))
	}
	if !s.Dirty() {
		parts = append(parts, "clean")
	}

	if s.HasConflicts {
		parts = append(parts, r.render(r.conflict, "conflicts"))
	}
	if s.Operation != models.OpNone {
		parts = append(parts, r.render(r.conflict, fmt.Sprintf("[%s in progress]", s.Operation)))
	}

	if s.BaseRef != "" {
		marker := ""
		if s.RemoteBase {
			marker = "*"
		}
		parts = append(parts, r.render(r.base, fmt.Sprintf("base %s%s ↑%d ↓%d", s.BaseRef, marker, s.BaseAhead, s.BaseBehind)))
	}

	fmt.Println(strings.Join(parts, "  "))
}
