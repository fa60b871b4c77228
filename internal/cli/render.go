package cli

import (
	"fmt"
	"io"
	"strings"

	"tracker-client/internal/domain"
	"tracker-client/internal/usecase"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	mutedStyle  = lipgloss.NewStyle().Faint(true)
	doneStyle   = lipgloss.NewStyle().Strikethrough(true).Faint(true)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

const progressBarWidth = 20

func writeOut(w io.Writer, s string) {
	fmt.Fprintln(w, s)
}

func writeErr(w io.Writer, msg string) {
	fmt.Fprintln(w, errorStyle.Render("error: "+msg))
}

func writeNotice(w io.Writer, msg string) {
	fmt.Fprintln(w, noticeStyle.Render(msg))
}

func renderProjects(w io.Writer, st usecase.ProjectsState) {
	writeOut(w, headerStyle.Render(fmt.Sprintf("Projects of %s (%d)", st.Owner, st.TotalCount)))
	if st.Err != "" {
		writeErr(w, st.Err)
	}
	if st.Empty() {
		writeOut(w, mutedStyle.Render("No projects yet. Create one with `tracker projects create --title ...`"))
		return
	}
	for _, p := range st.Projects {
		line := fmt.Sprintf("%4d  %s", p.ID, p.Title)
		if p.Description != "" {
			line += "  " + mutedStyle.Render(p.Description)
		}
		writeOut(w, line)
	}
}

func renderProjectDetails(w io.Writer, st usecase.ProjectDetailsState) {
	writeOut(w, headerStyle.Render(fmt.Sprintf("Project %d", st.ProjectID)))
	if st.Err != "" {
		writeErr(w, st.Err)
	}
	if !st.Loaded || (st.LastErr != nil && len(st.Tasks) == 0) {
		return
	}
	progress := progressBar(st.ProgressPercent())
	if !st.ProgressKnown {
		progress += mutedStyle.Render(" (unavailable)")
	}
	writeOut(w, progress)
	if st.Empty() {
		writeOut(w, mutedStyle.Render("No tasks yet. Add one with `tracker tasks create --title ...`"))
		return
	}
	for _, t := range st.Tasks {
		writeOut(w, taskLine(t))
	}
}

func taskLine(t domain.Task) string {
	box, title := "[ ]", t.Title
	if t.Completed {
		box, title = "[x]", doneStyle.Render(t.Title)
	}
	line := fmt.Sprintf("%4d  %s %s", t.ID, box, title)
	if t.Deadline != nil {
		line += mutedStyle.Render("  due " + t.Deadline.Format(domain.DateLayout))
	}
	if t.Description != "" {
		line += "  " + mutedStyle.Render(t.Description)
	}
	return line
}

// progressBar renders pct (0..100) as a fixed-width bar followed by the percentage.
func progressBar(pct int) string {
	pct = min(100, max(0, pct))
	filled := pct * progressBarWidth / 100
	bar := barStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", progressBarWidth-filled))
	return fmt.Sprintf("%s %d%%", bar, pct)
}
