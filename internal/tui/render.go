package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"shopsearch/internal/domain"
	"shopsearch/internal/format"
)

// sourcesShown is how many source numbers the compact badge lists.
const sourcesShown = 3

func (m Model) renderBody() string {
	width := max(16, m.viewport.Width-4)
	body := m.renderState(width)
	if m.showHistory {
		body = joinNonEmpty(m.renderHistory(), body)
	}
	return body
}

func (m Model) renderState(width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	switch st := m.state.(type) {
	case domain.Pending:
		hint := "Finding the perfect products for you..."
		if st.Session.Active() {
			hint = "Analyzing your request with conversation context..."
		}
		return m.spinner.View() + " " + hint
	case domain.Failed:
		return errorStyle.Render("Error: ") + wrap.Render(st.Message)
	case domain.Settled:
		return renderSettled(st, m.cursor, width)
	default:
		return wrap.Render("Ask a skincare question (\"Do I need SPF every day?\") or describe what you need (\"moisturizer for dry skin\").")
	}
}

func renderSettled(st domain.Settled, cursor, width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	var banner string
	if strings.TrimSpace(st.ConversationContext) != "" {
		banner = contextStyle.Render("Building on our conversation") + "\n" +
			wrap.Render("Using insights from our previous discussion to personalize these results.")
	}

	switch r := st.Result.(type) {
	case *domain.Answer:
		answer := sectionStyle.Render("Expert Answer") + "\n" + wrap.Render(r.Text)
		return joinNonEmpty(
			banner,
			answer,
			renderSources(r.SupportingContext, width),
			renderFollowUp(r, width),
			renderProducts("Related Products", "", r.RelatedProducts, cursor, width),
		)
	case *domain.Recommendation:
		var note string
		if strings.TrimSpace(r.Note) != "" {
			note = sectionStyle.Render("Personalized Recommendation") + "\n" + wrap.Render(r.Note)
		}
		list := renderProducts("Recommended Products", "Ranked by relevance to your needs.", r.Products, cursor, width)
		if list == "" {
			list = subtleStyle.Render("No products matched this request.")
		}
		return joinNonEmpty(banner, note, renderFollowUp(r, width), list)
	default:
		return ""
	}
}

func renderSources(ctx []string, width int) string {
	if len(ctx) == 0 {
		return ""
	}
	wrap := lipgloss.NewStyle().Width(width)
	lines := []string{subtleStyle.Render(format.Sources(len(ctx), sourcesShown))}
	for i, c := range ctx {
		lines = append(lines, wrap.Render(fmt.Sprintf("[%d] %s", i+1, strings.TrimSpace(c))))
	}
	return strings.Join(lines, "\n")
}

func renderFollowUp(r domain.SearchResult, width int) string {
	q, ok := r.FollowUp()
	if !ok {
		return ""
	}
	wrap := lipgloss.NewStyle().Width(width)
	return followUpStyle.Render("Let me help you find exactly what you need:") + "\n" +
		wrap.Render(q) + "\n" +
		subtleStyle.Render("ctrl+f to continue the conversation")
}

func renderProducts(title, note string, items []domain.Product, cursor, width int) string {
	if len(items) == 0 {
		return ""
	}
	if cursor < 0 || cursor >= len(items) {
		cursor = 0
	}
	head := sectionStyle.Render(title) + subtleStyle.Render(fmt.Sprintf("  %d products found", len(items)))
	if note != "" {
		head += "\n" + subtleStyle.Render(note)
	}
	pos := subtleStyle.Render(fmt.Sprintf("Product %d/%d", cursor+1, len(items)))
	return head + "\n" + pos + "\n" + renderCard(items[cursor], width)
}

func renderCard(p domain.Product, width int) string {
	wrap := lipgloss.NewStyle().Width(width)
	lines := []string{priceStyle.Render(p.Name)}
	if p.Category != "" {
		lines[0] += "  " + tagStyle.Render("["+p.Category+"]")
	}
	if p.Description != "" {
		lines = append(lines, wrap.Render(p.Description))
	}
	if ingredients := format.Ingredients(p.Ingredients); len(ingredients) > 0 {
		lines = append(lines, subtleStyle.Render("Key ingredients:"))
		for _, ing := range ingredients {
			lines = append(lines, "  • "+ing)
		}
	}
	if tags := format.Tags(p.Tags); len(tags) > 0 {
		rendered := make([]string, len(tags))
		for i, t := range tags {
			rendered[i] = tagStyle.Render("#" + t)
		}
		lines = append(lines, wrap.Render(strings.Join(rendered, " ")))
	}
	lines = append(lines, priceStyle.Render(format.Price(p.Price)))
	return strings.Join(lines, "\n")
}

func (m Model) renderHistory() string {
	turns := m.service.Turns()
	if len(turns) == 0 {
		return subtleStyle.Render("No turns in this session yet.")
	}
	lines := []string{sectionStyle.Render("This session")}
	for i, t := range turns {
		line := fmt.Sprintf("%d. %s  %s", i+1, t.At.Format("15:04"), t.Query)
		if t.Products > 0 {
			line += subtleStyle.Render(fmt.Sprintf("  (%s, %d products)", strings.ToLower(string(t.Kind)), t.Products))
		} else {
			line += subtleStyle.Render(fmt.Sprintf("  (%s)", strings.ToLower(string(t.Kind))))
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
