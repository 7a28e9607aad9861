package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"storefront/internal/domain"
	"storefront/internal/optimistic"
)

func (m Model) handleCartKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	view := m.overlay.View()
	switch msg.String() {
	case "q":
		return m.quit()
	case "up", "k":
		if m.cartCursor > 0 {
			m.cartCursor--
		}
		return m, nil
	case "down", "j":
		if m.cartCursor < len(view.Lines)-1 {
			m.cartCursor++
		}
		return m, nil
	case "+", "=":
		return m.stepLine(view, 1)
	case "-":
		return m.stepLine(view, -1)
	case "x":
		line, ok := m.selectedLine(view)
		if !ok {
			return m, nil
		}
		return m, m.enqueue(optimistic.Action{Kind: optimistic.LinesRemove, LineIDs: []string{line.ID}})
	case "d":
		codes := make([]string, 0, len(view.DiscountCodes))
		for _, dc := range view.DiscountCodes {
			codes = append(codes, dc.Code)
		}
		return m.startEdit(editDiscounts, "Discount codes, comma separated", strings.Join(codes, ", "))
	case "g":
		return m.startEdit(editGiftCard, "Gift card code", "")
	case "G":
		if len(view.AppliedGiftCards) == 0 {
			return m, nil
		}
		ids := make([]string, 0, len(view.AppliedGiftCards))
		for _, gc := range view.AppliedGiftCards {
			ids = append(ids, gc.ID)
		}
		return m, m.enqueue(optimistic.Action{Kind: optimistic.GiftCardCodesRemove, GiftCardIDs: ids})
	case "c":
		for target := range view.Errors {
			m.overlay.DismissError(target)
		}
		m.status = ""
		return m, nil
	}
	return m, nil
}

// selectedLine returns the line under the cursor unless it is awaiting
// confirmation.
func (m *Model) selectedLine(view optimistic.View) (domain.CartLine, bool) {
	if m.cartCursor < 0 || m.cartCursor >= len(view.Lines) {
		return domain.CartLine{}, false
	}
	line := view.Lines[m.cartCursor]
	if line.IsOptimistic {
		m.status = describe(optimistic.ErrLineOptimistic)
		return domain.CartLine{}, false
	}
	return line, true
}

func (m Model) stepLine(view optimistic.View, delta int) (tea.Model, tea.Cmd) {
	line, ok := m.selectedLine(view)
	if !ok {
		return m, nil
	}
	action, err := m.overlay.Step(line.ID, delta)
	if err != nil {
		m.status = describe(err)
		return m, nil
	}
	return m, m.enqueue(action)
}

func (m Model) startEdit(mode editMode, placeholder, value string) (tea.Model, tea.Cmd) {
	m.editing = mode
	m.codeInput.Placeholder = placeholder
	m.codeInput.SetValue(value)
	m.codeInput.CursorEnd()
	return m, m.codeInput.Focus()
}

func (m Model) handleEditKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.stopEdit()
		return m, nil
	case "enter":
		value := m.codeInput.Value()
		mode := m.editing
		m.stopEdit()
		switch mode {
		case editDiscounts:
			return m, m.enqueue(optimistic.Action{Kind: optimistic.DiscountCodesUpdate, DiscountCodes: splitCodes(value)})
		case editGiftCard:
			codes := splitCodes(value)
			if len(codes) == 0 {
				return m, nil
			}
			return m, m.enqueue(optimistic.Action{Kind: optimistic.GiftCardCodesUpdate, GiftCardCodes: codes})
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.codeInput, cmd = m.codeInput.Update(msg)
	return m, cmd
}

func (m *Model) stopEdit() {
	m.editing = editNone
	m.codeInput.Blur()
	m.codeInput.SetValue("")
}

func splitCodes(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if code := strings.TrimSpace(part); code != "" {
			out = append(out, code)
		}
	}
	return out
}

func (m *Model) clampCartCursor() {
	n := len(m.overlay.View().Lines)
	if m.cartCursor >= n {
		m.cartCursor = n - 1
	}
	if m.cartCursor < 0 {
		m.cartCursor = 0
	}
}

func (m Model) cartView() string {
	view := m.overlay.View()
	var b strings.Builder

	b.WriteString(m.styles.Heading.Render("Cart"))
	if view.InFlight > 0 {
		b.WriteString(m.styles.Muted.Render(fmt.Sprintf("  updating (%d)", view.InFlight)))
	}
	b.WriteString("\n")

	shown := map[string]bool{}
	if len(view.Lines) == 0 {
		b.WriteString(m.styles.Muted.Render("Your cart is empty"))
		b.WriteString("\n")
	}
	for i, line := range view.Lines {
		text := fmt.Sprintf("%dx %s  %s", line.Quantity, lineTitle(line), line.Cost.TotalAmount)
		switch {
		case line.IsOptimistic:
			text = m.styles.Optimistic.Render(text + "  (pending)")
		case i == m.cartCursor && m.focus == cartPane:
			text = m.styles.Selected.Render(text + "  [+/-/x]")
		}
		if i == m.cartCursor && m.focus == cartPane {
			b.WriteString("> ")
		} else {
			b.WriteString("  ")
		}
		b.WriteString(text)
		b.WriteString("\n")
		for _, target := range []string{line.ID, line.MerchandiseID} {
			if msg := view.ErrorFor(target); msg != "" && !shown[target] {
				b.WriteString("    " + m.styles.Error.Render(msg) + "\n")
			}
			shown[target] = true
		}
	}

	if len(view.DiscountCodes) > 0 {
		b.WriteString("\nDiscounts: ")
		parts := make([]string, 0, len(view.DiscountCodes))
		for _, dc := range view.DiscountCodes {
			if dc.Applicable {
				parts = append(parts, dc.Code)
			} else {
				parts = append(parts, m.styles.Muted.Render(dc.Code+" (not applicable)"))
			}
		}
		b.WriteString(strings.Join(parts, ", "))
		b.WriteString("\n")
	}
	if msg := view.ErrorFor(optimistic.TargetDiscountCodes); msg != "" {
		b.WriteString(m.styles.Error.Render(msg) + "\n")
	}
	shown[optimistic.TargetDiscountCodes] = true

	for _, gc := range view.AppliedGiftCards {
		b.WriteString(fmt.Sprintf("Gift card ...%s  -%s\n", gc.LastCharacters, gc.AmountUsed))
	}
	if msg := view.ErrorFor(optimistic.TargetGiftCardCodes); msg != "" {
		b.WriteString(m.styles.Error.Render(msg) + "\n")
	}
	shown[optimistic.TargetGiftCardCodes] = true

	// Failed adds of merchandise that never reached the cart.
	for target, msg := range view.Errors {
		if !shown[target] {
			b.WriteString(m.styles.Error.Render(msg) + "\n")
		}
	}

	b.WriteString(fmt.Sprintf("\nSubtotal  %s\nTotal     %s  (%d items)\n", view.Cost.SubtotalAmount, view.Cost.TotalAmount, view.TotalQuantity))
	if view.CheckoutURL != "" {
		b.WriteString(m.styles.Muted.Render("Checkout: "+view.CheckoutURL) + "\n")
	}

	if m.editing != editNone {
		b.WriteString("\n" + m.codeInput.View() + "\n")
	} else if m.focus == cartPane {
		b.WriteString(m.styles.Help.Render("\n+/- quantity · x remove · d discounts · g gift card · G remove gift cards · c clear errors · q quit") + "\n")
	}
	return b.String()
}

func lineTitle(line domain.CartLine) string {
	if line.Merchandise.Title != "" {
		return line.Merchandise.Title
	}
	return line.MerchandiseID
}
