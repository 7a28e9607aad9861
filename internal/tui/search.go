package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"storefront/internal/optimistic"
	"storefront/internal/predictive"
)

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.session.Close()
		m.input.SetValue("")
		m.cursor = 0
		return m, nil
	case "up":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "down":
		if m.cursor < len(m.listings())-1 {
			m.cursor++
		}
		return m, nil
	case "enter":
		return m.addSelected()
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() == before {
		return m, cmd
	}
	m.cursor = 0
	req, ok := m.session.OnInputChange(m.input.Value())
	if !ok {
		return m, cmd
	}
	return m, tea.Batch(cmd, m.scheduleLookup(req))
}

// listings are the selectable products: search hits while a term is active,
// otherwise the catalog.
func (m Model) listings() []listing {
	snap := m.session.Snapshot()
	if strings.TrimSpace(snap.Term) == "" {
		return m.catalog
	}
	out := make([]listing, 0, len(snap.Result.Products))
	for _, p := range snap.Result.Products {
		out = append(out, listing{ID: p.ID, Title: p.Title, Handle: p.Handle, Image: p.Image, Price: p.Price, Available: p.AvailableForSale})
	}
	return out
}

func (m Model) addSelected() (tea.Model, tea.Cmd) {
	items := m.listings()
	if m.cursor < 0 || m.cursor >= len(items) {
		return m, nil
	}
	item := items[m.cursor]
	if !item.Available {
		m.status = item.Title + " is sold out"
		return m, nil
	}
	cmd := m.enqueue(optimistic.Action{
		Kind:  optimistic.LinesAdd,
		Lines: []optimistic.LineInput{{MerchandiseID: item.ID, Quantity: 1, Merchandise: item.merchandise()}},
	})
	return m, cmd
}

func (m Model) searchView() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	snap := m.session.Snapshot()
	term := strings.TrimSpace(snap.Term)
	switch {
	case term == "":
		b.WriteString(m.styles.Heading.Render("Catalog"))
		b.WriteString("\n")
		m.writeListings(&b, m.catalog)
		if len(m.catalog) == 0 {
			b.WriteString(m.styles.Muted.Render("No products yet"))
			b.WriteString("\n")
		}
	case snap.State == predictive.Loading:
		b.WriteString(m.styles.Muted.Render("Searching..."))
		b.WriteString("\n")
	case snap.State == predictive.Idle:
		b.WriteString(m.styles.Muted.Render("Focus to search for " + term))
		b.WriteString("\n")
	case snap.Err != nil:
		b.WriteString(m.styles.Error.Render("Search failed: " + snap.Err.Error()))
		b.WriteString("\n")
	case snap.Result.Total() == 0 && len(snap.Result.Queries) == 0:
		b.WriteString(fmt.Sprintf("No results found for %s\n", term))
	default:
		m.writeResult(&b, snap.Result)
	}
	return b.String()
}

func (m Model) writeResult(b *strings.Builder, r predictive.Result) {
	if len(r.Queries) > 0 {
		b.WriteString(m.styles.Heading.Render("Suggestions"))
		b.WriteString("\n")
		for _, q := range r.Queries {
			b.WriteString("  " + q.Text + "\n")
		}
	}
	if len(r.Products) > 0 {
		b.WriteString(m.styles.Heading.Render("Products"))
		b.WriteString("\n")
		m.writeListings(b, m.listings())
	}
	if len(r.Collections) > 0 {
		b.WriteString(m.styles.Heading.Render("Collections"))
		b.WriteString("\n")
		for _, c := range r.Collections {
			b.WriteString("  " + c.Title + "\n")
		}
	}
	if len(r.Pages) > 0 {
		b.WriteString(m.styles.Heading.Render("Pages"))
		b.WriteString("\n")
		for _, p := range r.Pages {
			b.WriteString("  " + p.Title + "\n")
		}
	}
	if len(r.Articles) > 0 {
		b.WriteString(m.styles.Heading.Render("Articles"))
		b.WriteString("\n")
		for _, a := range r.Articles {
			b.WriteString("  " + a.Title + "\n")
		}
	}
}

func (m Model) writeListings(b *strings.Builder, items []listing) {
	for i, item := range items {
		line := fmt.Sprintf("%s  %s", item.Title, item.Price)
		if !item.Available {
			line += "  (sold out)"
		}
		if i == m.cursor && m.focus == searchPane {
			b.WriteString(m.styles.Selected.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
}
