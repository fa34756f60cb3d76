package tui

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/svanoort/script-security-plugin/internal/whitelist"
)

// catalogItem implements list.Item for a single whitelist entry.
type catalogItem struct {
	entry  whitelist.Entry
	status whitelist.AuditStatus
	err    error
}

func (i catalogItem) FilterValue() string { return i.entry.Text }

// Title returns plain text — styling is done in the custom delegate to
// avoid ANSI escape corruption when bubbles/list applies filter
// highlighting.
func (i catalogItem) Title() string { return i.entry.Text }

func (i catalogItem) Description() string {
	desc := i.entry.Kind + "  " + strconv.FormatInt(i.entry.Hits, 10) + " hits"
	if i.err != nil {
		desc += "  " + i.err.Error()
	}
	return desc
}

func (i catalogItem) statusIcon() string {
	switch i.status {
	case whitelist.StatusExists:
		return StyleSuccess.Render("●")
	case whitelist.StatusMissing:
		return StyleWarning.Render("○")
	default:
		return StyleError.Render("✗")
	}
}

// catalogDelegate renders entries with a status marker without leaking
// ANSI escapes into the filter highlight overlay.
type catalogDelegate struct {
	styles list.DefaultItemStyles
}

func newCatalogDelegate() catalogDelegate {
	styles := list.NewDefaultItemStyles()
	styles.SelectedTitle = styles.SelectedTitle.
		Foreground(ColorAccent).
		BorderLeftForeground(ColorAccent)
	styles.SelectedDesc = styles.SelectedDesc.
		Foreground(ColorMuted).
		BorderLeftForeground(ColorAccent)
	return catalogDelegate{styles: styles}
}

func (d catalogDelegate) Height() int                         { return 2 }
func (d catalogDelegate) Spacing() int                        { return 1 }
func (d catalogDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (d catalogDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	ci, ok := item.(catalogItem)
	if !ok {
		return
	}

	title := ci.statusIcon() + " " + StyleBold.Render(ci.entry.Text)
	desc := StyleMuted.Render(ci.Description())

	if index == m.Index() {
		title = d.styles.SelectedTitle.Render("> " + ci.entry.Text)
		desc = d.styles.SelectedDesc.Render("  " + desc)
	} else {
		title = "  " + title
		desc = "  " + desc
	}

	fmt.Fprintf(w, "%s\n%s", title, desc)
}

// model is the bubbletea model for the interactive catalog browser.
type model struct {
	list   list.Model
	width  int
	height int
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height)

	case tea.KeyMsg:
		if msg.String() == "q" && !m.list.SettingFilter() {
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	return m.list.View()
}

// Browse displays the active catalog in an interactive, filterable list,
// with each entry marked by its audit status. Falls back to static
// output in plain mode.
func Browse(entries []whitelist.Entry, results []whitelist.AuditResult) error {
	if IsPlainMode() {
		return RenderPlain(entries, results)
	}

	statuses := indexResults(results)
	items := make([]list.Item, 0, len(entries))
	for _, e := range entries {
		r := statuses[e.Text]
		items = append(items, catalogItem{entry: e, status: r.Status, err: r.Err})
	}

	delegate := newCatalogDelegate()

	l := list.New(items, delegate, 80, 24)
	l.Title = fmt.Sprintf("Whitelist Catalog (%d entries)", len(entries))
	l.Styles.Title = StyleTitle
	l.Styles.FilterPrompt = lipgloss.NewStyle().Foreground(ColorAccent)
	l.Styles.FilterCursor = lipgloss.NewStyle().Foreground(ColorSuccess)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)

	p := tea.NewProgram(model{list: l}, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderPlain displays the catalog as plain text (no interactivity).
func RenderPlain(entries []whitelist.Entry, results []whitelist.AuditResult) error {
	fmt.Printf("Whitelist Catalog (%d entries)\n\n", len(entries))

	statuses := indexResults(results)
	for _, e := range entries {
		r := statuses[e.Text]
		fmt.Printf("  [%-7s] %s\n", r.Status, e.Text)
		if r.Err != nil {
			fmt.Printf("            %v\n", r.Err)
		}
	}
	fmt.Println()
	return nil
}

func indexResults(results []whitelist.AuditResult) map[string]whitelist.AuditResult {
	m := make(map[string]whitelist.AuditResult, len(results))
	for _, r := range results {
		m[r.Signature.String()] = r
	}
	return m
}
