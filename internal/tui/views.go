package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/scriptdeck/scriptdeck/internal/catalog"
	"github.com/scriptdeck/scriptdeck/internal/history"
	"github.com/scriptdeck/scriptdeck/internal/search"
)

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.renderHeader() + "\n")
	b.WriteString(strings.Repeat("─", max(1, a.width)) + "\n")

	contentHeight := a.height - 6
	if contentHeight < 5 {
		contentHeight = 5
	}

	switch a.screen {
	case screenScripts:
		b.WriteString(a.renderScripts(contentHeight))
	case screenSearch:
		b.WriteString(a.renderSearch(contentHeight))
	case screenEnvs:
		b.WriteString(a.renderEnvs(contentHeight))
	case screenFields:
		b.WriteString(a.renderFields(contentHeight))
	case screenHistory:
		b.WriteString(a.renderHistory(contentHeight))
	case screenRunning:
		b.WriteString(fmt.Sprintf("\n  Running %s ...\n", a.ws.Rel(a.runningScript)))
	case screenResult:
		b.WriteString(a.renderResult(contentHeight))
	case screenError:
		b.WriteString("\n  " + errorStyle.Render(a.errText) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(statusBarStyle.Width(max(1, a.width)).Render(a.statusLine()))

	return b.String()
}

func (a *App) renderHeader() string {
	header := titleStyle.Render("SCRIPTDECK")
	header += "  " + mutedStyle.Render(a.ws.Rel(a.dir))
	header += "  " + a.renderIndexStatus()
	if a.envCfg != nil && a.envCfg.Active != "" {
		header += "  " + lipgloss.NewStyle().Foreground(cyanColor).Render("env:"+a.envCfg.Active)
	}
	return header
}

func (a *App) renderIndexStatus() string {
	switch a.lastStatus.State {
	case search.Indexing:
		return lipgloss.NewStyle().Foreground(warningColor).Render("◐ indexing")
	case search.Ready:
		return okStyle.Render(fmt.Sprintf("● %d indexed", a.lastStatus.Count))
	case search.Failed:
		return errorStyle.Render("✗ index: " + a.lastStatus.Message)
	default:
		return mutedStyle.Render("○ index idle")
	}
}

func (a *App) statusLine() string {
	switch a.screen {
	case screenScripts:
		return fmt.Sprintf(" %d entries | ↑↓:nav | Enter:open | Esc/←:up | Ctrl+S:search | e:envs | h:history | r:refresh | q:quit", len(a.entries))
	case screenSearch:
		return " type to filter | ↑↓:nav | Enter:open | Esc:back"
	case screenEnvs:
		return " ↑↓:nav | Enter:activate | d:deactivate | Esc:back"
	case screenFields:
		return " Tab/↓:next | Shift+Tab/↑:prev | Enter:run | Esc:cancel"
	case screenHistory:
		if a.histFocus {
			return " ↑↓:scroll | Esc/←:list | q:scripts"
		}
		return fmt.Sprintf(" %d runs | ↑↓:nav | Enter/→:output | Esc:back", len(a.histEntries))
	case screenRunning:
		return " running..."
	case screenResult:
		return " ↑↓:scroll | h:history | Esc/Enter:back"
	case screenError:
		return " Esc/Enter:dismiss"
	}
	return ""
}

func (a *App) renderScripts(height int) string {
	listWidth := a.width/2 - 2
	if listWidth < 24 {
		listWidth = 24
	}

	var lines []string
	if len(a.entries) == 0 {
		lines = append(lines, mutedStyle.Render("  (empty directory)"))
	}
	for i, entry := range a.entries {
		name := entryLabel(entry)
		name = runewidth.Truncate(name, listWidth-4, "…")
		if i == a.cursor {
			lines = append(lines, selectedStyle.Render("▶ "+name))
		} else {
			lines = append(lines, itemStyle.Render("  "+name))
		}
	}
	lines = window(lines, a.cursor, height)
	list := strings.Join(lines, "\n")

	side := a.renderSidePanel(height)
	return lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(listWidth).Render(list),
		side)
}

// renderSidePanel stacks the schema preview for the selected script
// and the directory's status widget.
func (a *App) renderSidePanel(height int) string {
	var parts []string

	if a.cursor < len(a.entries) && a.entries[a.cursor].Kind == catalog.Script {
		parts = append(parts, panelStyle.Render(a.renderPreview(a.entries[a.cursor].Path)))
	}

	switch {
	case a.widgetLoading:
		parts = append(parts, panelStyle.Render(mutedStyle.Render("status: loading...")))
	case a.widgetErr != "":
		parts = append(parts, panelStyle.Render(errorStyle.Render(a.widgetErr)))
	case a.widgetData != nil:
		var w strings.Builder
		w.WriteString(lipgloss.NewStyle().Bold(true).Render(a.widgetData.Title))
		for _, line := range a.widgetData.Lines {
			w.WriteString("\n" + line)
		}
		parts = append(parts, panelStyle.Render(w.String()))
	}

	if len(parts) == 0 {
		return ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (a *App) renderPreview(path string) string {
	pv := a.ensurePreview(path)
	if pv.err != nil {
		if isBlockNotFound(pv.err) {
			return mutedStyle.Render("no declared inputs")
		}
		return errorStyle.Render(pv.err.Error())
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(pv.schema.Name))
	if pv.schema.Description != "" {
		b.WriteString("\n" + mutedStyle.Render(pv.schema.Description))
	}
	if len(pv.schema.Tags) > 0 {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(cyanColor).Render(strings.Join(pv.schema.Tags, ", ")))
	}
	for _, f := range pv.schema.Fields {
		marker := " "
		if f.Required {
			marker = "*"
		}
		b.WriteString(fmt.Sprintf("\n%s %s (%s)", marker, f.Name, f.Type))
	}
	if len(pv.schema.Outputs) > 0 {
		b.WriteString("\n" + mutedStyle.Render("outputs"))
		for _, o := range pv.schema.Outputs {
			b.WriteString(fmt.Sprintf("\n  %s (%s)", o.Name, o.Type))
		}
	}
	if q := pv.schema.Queue; q != nil {
		b.WriteString("\n" + mutedStyle.Render("queue"))
		if q.Matrix != nil {
			for _, mv := range q.Matrix.Values {
				b.WriteString(fmt.Sprintf("\n  %s: %s", mv.Name, strings.Join(mv.Values, ", ")))
			}
		}
		for _, c := range q.Cases {
			name := c.Name
			if name == "" {
				name = "case"
			}
			var vals []string
			for _, v := range c.Values {
				vals = append(vals, v.Name+"="+v.Value)
			}
			b.WriteString(fmt.Sprintf("\n  %s: %s", name, strings.Join(vals, ", ")))
		}
	}
	return b.String()
}

func (a *App) renderSearch(height int) string {
	var b strings.Builder
	b.WriteString("\n " + a.searchInput.View() + "\n\n")

	if len(a.results) == 0 {
		b.WriteString(mutedStyle.Render("  no matches") + "\n")
		return b.String()
	}

	var lines []string
	for i, r := range a.results {
		label := r.DisplayName
		if r.SchemaError != "" {
			label += " !"
		}
		label += "  " + a.ws.Rel(r.ScriptPath)
		label = runewidth.Truncate(label, max(24, a.width-4), "…")
		if i == a.resultCursor {
			lines = append(lines, selectedStyle.Render("▶ "+label))
		} else {
			lines = append(lines, itemStyle.Render("  "+label))
		}
	}
	lines = window(lines, a.resultCursor, max(3, height-10))
	b.WriteString(strings.Join(lines, "\n"))

	if a.details != nil {
		var d strings.Builder
		d.WriteString(lipgloss.NewStyle().Bold(true).Render(a.details.DisplayName))
		if a.details.Description != "" {
			d.WriteString("\n" + a.details.Description)
		}
		if len(a.details.Tags) > 0 {
			d.WriteString("\n" + lipgloss.NewStyle().Foreground(cyanColor).Render(strings.Join(a.details.Tags, ", ")))
		}
		if a.details.SchemaError != "" {
			d.WriteString("\n" + errorStyle.Render(a.details.SchemaError))
		}
		for _, f := range a.details.Fields {
			marker := " "
			if f.Required {
				marker = "*"
			}
			prompt := f.Prompt
			if prompt == "" {
				prompt = f.Name
			}
			d.WriteString(fmt.Sprintf("\n%s %s (%s)", marker, prompt, f.Kind))
		}
		b.WriteString("\n\n" + panelStyle.Render(d.String()))
	}
	b.WriteString("\n")
	return b.String()
}

func (a *App) renderEnvs(height int) string {
	var b strings.Builder
	b.WriteString("\n  Environments\n\n")

	if len(a.envFiles) == 0 {
		b.WriteString(mutedStyle.Render("  no environment files") + "\n")
	}
	for i, name := range a.envFiles {
		marker := "  "
		if a.envCfg != nil && a.envCfg.Active == name {
			marker = okStyle.Render("● ")
		}
		if i == a.envCursor {
			b.WriteString(selectedStyle.Render("▶ "+name) + "\n")
		} else {
			b.WriteString(itemStyle.Render(marker+name) + "\n")
		}
	}

	if len(a.envPreview) > 0 {
		var p strings.Builder
		for i, pair := range a.envPreview {
			if i > 0 {
				p.WriteString("\n")
			}
			p.WriteString(pair.Key + "=" + pair.Value)
		}
		b.WriteString("\n" + panelStyle.Render(p.String()) + "\n")
	}

	if a.envMessage != "" {
		style := okStyle
		if strings.HasPrefix(a.envMessage, "Error") {
			style = errorStyle
		}
		b.WriteString("\n  " + style.Render(a.envMessage) + "\n")
	}
	return b.String()
}

func (a *App) renderFields(height int) string {
	var b strings.Builder
	b.WriteString("\n  " + lipgloss.NewStyle().Bold(true).Render(a.formSchema.Name) + "\n")
	if a.formSchema.Description != "" {
		b.WriteString("  " + mutedStyle.Render(a.formSchema.Description) + "\n")
	}
	b.WriteString("\n")

	for i, field := range a.formSchema.Fields {
		prompt := field.Prompt
		if prompt == "" {
			prompt = field.Name
		}
		if field.Required {
			prompt += " *"
		}
		label := "  " + prompt
		if i == a.formFocus {
			label = "▶ " + prompt
		}
		b.WriteString(label + "\n")
		b.WriteString("  " + a.formInputs[i].View() + "\n")
		if len(field.Choices) > 0 {
			b.WriteString("  " + helpStyle.Render("choices: "+strings.Join(field.Choices, ", ")) + "\n")
		}
	}

	if a.formErr != "" {
		b.WriteString("\n  " + errorStyle.Render(a.formErr) + "\n")
	}
	return b.String()
}

func (a *App) renderHistory(height int) string {
	var b strings.Builder
	if len(a.histEntries) == 0 {
		b.WriteString("\n" + mutedStyle.Render("  no runs recorded") + "\n")
		return b.String()
	}

	var lines []string
	for i, e := range a.histEntries {
		line := fmt.Sprintf("%s  %s  %s",
			history.FormatTimestamp(e.Timestamp),
			statusBadge(e),
			runewidth.Truncate(e.Script, max(16, a.width/2), "…"))
		if i == a.histCursor && !a.histFocus {
			lines = append(lines, selectedStyle.Render("▶ "+line))
		} else {
			lines = append(lines, itemStyle.Render("  "+line))
		}
	}
	listHeight := max(3, height/2)
	lines = window(lines, a.histCursor, listHeight)
	b.WriteString("\n" + strings.Join(lines, "\n") + "\n")

	entry := a.histEntries[a.histCursor]
	output := history.FormatOutput(&entry)
	paneHeight := max(3, height-listHeight-2)
	a.histOffset = clampOffset(a.histOffset, output, paneHeight)
	pane := scrollText(output, a.histOffset, paneHeight)
	style := panelStyle
	if a.histFocus {
		style = panelStyle.Copy().BorderForeground(primaryColor)
	}
	b.WriteString("\n" + style.Render(pane) + "\n")
	return b.String()
}

func (a *App) renderResult(height int) string {
	var b strings.Builder
	e := a.result
	if e == nil {
		return "\n"
	}

	b.WriteString(fmt.Sprintf("\n  %s  %s\n", statusBadge(*e), e.Script))
	if e.ExitCode != nil {
		b.WriteString(fmt.Sprintf("  exit code: %d\n", *e.ExitCode))
	}

	output := history.FormatOutput(e)
	paneHeight := max(3, height-4)
	a.resultOffset = clampOffset(a.resultOffset, output, paneHeight)
	b.WriteString("\n" + panelStyle.Render(scrollText(output, a.resultOffset, paneHeight)) + "\n")
	return b.String()
}

func statusBadge(e history.Entry) string {
	if e.Success {
		return okStyle.Render("OK")
	}
	return errorStyle.Render("FAIL")
}

func entryLabel(entry catalog.Entry) string {
	name := entry.Path
	if i := strings.LastIndexAny(name, "/\\"); i >= 0 {
		name = name[i+1:]
	}
	if entry.Kind == catalog.Directory {
		return name + "/"
	}
	return name
}

// window trims lines to height rows keeping the cursor visible.
func window(lines []string, cursor, height int) []string {
	if len(lines) <= height {
		return lines
	}
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	end := start + height
	if end > len(lines) {
		end = len(lines)
		start = max(0, end-height)
	}
	return lines[start:end]
}

func scrollText(text string, offset, height int) string {
	lines := strings.Split(text, "\n")
	if offset > len(lines)-1 {
		offset = max(0, len(lines)-1)
	}
	end := offset + height
	if end > len(lines) {
		end = len(lines)
	}
	return strings.Join(lines[offset:end], "\n")
}

func clampOffset(offset int, text string, height int) int {
	lines := strings.Count(text, "\n") + 1
	limit := max(0, lines-height)
	if offset > limit {
		return limit
	}
	if offset < 0 {
		return 0
	}
	return offset
}
