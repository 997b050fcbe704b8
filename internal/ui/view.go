package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"crawlwatch/internal/model"
	"crawlwatch/internal/tracker"
	"crawlwatch/internal/util/format"
)

func (m Model) View() string {
	d := m.tracker.Display()

	var b strings.Builder
	b.WriteString(m.viewHeader(d))
	b.WriteString("\n\n")
	if d.Phase == tracker.PhaseIdle {
		b.WriteString(m.styles.Faint.Render("No crawl tracked. Press n to enter a job id."))
	} else {
		b.WriteString(m.styles.Box.Render(m.viewStatus(d)))
	}
	b.WriteString("\n")
	if m.prompting {
		b.WriteString("\n" + m.prompt.View() + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func (m Model) viewHeader(d tracker.Display) string {
	title := "Crawl Status"
	if d.Handle != "" {
		title += " (ID: " + d.Handle + ")"
	}
	switch d.Phase {
	case tracker.PhaseTerminal:
		return m.styles.Success.Render("✓") + " " + m.styles.Title.Render(title)
	case tracker.PhaseRunning:
		return m.styles.Spinner.Render(m.spinner.View()) + " " + m.styles.Title.Render(title)
	default:
		return m.styles.Title.Render(title)
	}
}

func (m Model) viewStatus(d tracker.Display) string {
	bar := fmt.Sprintf("%s %5.1f%%", m.bar.ViewAs(d.ProgressFraction), d.ProgressFraction*100)

	rec := d.Record
	distance, pages := format.Placeholder, format.Placeholder
	started, modified := format.Placeholder, format.Placeholder
	if d.HasRecord {
		distance = fmt.Sprint(rec.Distance)
		pages = fmt.Sprint(rec.NumPages)
		started = format.Millis(rec.StartTimeMillis)
		modified = format.Millis(rec.LastModifiedMillis)
	}

	grid := lipgloss.JoinVertical(lipgloss.Left,
		m.row("Distance:", distance, "Pages visited:", pages),
		m.row("Started:", started, "Last modified:", modified),
		m.row("Elapsed:", d.ElapsedText(), "Remaining:", d.RemainingText()),
	)

	reasonStyle := m.styles.Faint
	if d.IsDone {
		reasonStyle = m.styles.Success
		if d.StopReason == model.ReasonError {
			reasonStyle = m.styles.Error
		}
	}
	lines := []string{
		bar,
		"",
		grid,
		"",
		m.styles.Label.Render("Stop reason:") + reasonStyle.Render(d.StopReasonText),
	}
	if d.ErrorMessage != "" {
		lines = append(lines, m.styles.Error.Render(d.ErrorMessage))
	}
	if d.NotifyError != "" {
		lines = append(lines, m.styles.Warning.Render("stop request failed: "+d.NotifyError))
	}
	return strings.Join(lines, "\n")
}

func (m Model) row(l1, v1, l2, v2 string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.styles.Label.Render(l1), m.styles.Value.Render(v1),
		m.styles.Label.Render(l2), m.styles.Value.Render(v2),
	)
}
