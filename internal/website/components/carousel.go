package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/ai-on-hyperpod/site/internal/site"
)

// CarouselSlot is the data-slot the carousel re-renders into.
const CarouselSlot = "carousel"

// SelectEvent is the client event a bullet click sends, with the card
// position in lv-value-index.
const SelectEvent = "select"

// CarouselOptions configures the card carousel.
type CarouselOptions struct {
	Cards []site.Card
	// Marks has one flag per card; the true one is highlighted.
	Marks []bool
	URLs  URLResolver
}

// RenderCarousel generates the cards and their navigation bullets. The
// whole block is one slot, so an index change patches both together.
func RenderCarousel(opts CarouselOptions) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf(`<div class="carousel" data-slot="%s" aria-roledescription="carousel">`, CarouselSlot))
	sb.WriteString("\n")

	sb.WriteString(`<div class="carousel-track">`)
	sb.WriteString("\n")
	for i, card := range opts.Cards {
		sb.WriteString(renderCard(card, i, len(opts.Cards), active(opts.Marks, i), opts.URLs))
	}
	sb.WriteString(`</div>`)
	sb.WriteString("\n")

	sb.WriteString(`<div class="carousel-nav">`)
	sb.WriteString("\n")
	for i := range opts.Cards {
		class := "carousel-bullet"
		current := ""
		if active(opts.Marks, i) {
			class += " carousel-bullet--active"
			current = ` aria-current="true"`
		}
		sb.WriteString(fmt.Sprintf(`<button type="button" class="%s" lv-click="%s" lv-value-index="%d" aria-label="Show card %d"%s></button>`,
			class, SelectEvent, i, i+1, current))
		sb.WriteString("\n")
	}
	sb.WriteString(`</div>`)
	sb.WriteString("\n")

	sb.WriteString(`</div>`)
	sb.WriteString("\n")

	return sb.String()
}

func active(marks []bool, i int) bool {
	return i < len(marks) && marks[i]
}

func renderCard(c site.Card, index, total int, isActive bool, urls URLResolver) string {
	class := "carousel-card"
	if isActive {
		class += " carousel-card--active"
	}

	return fmt.Sprintf(`<article class="%s" data-index="%d" aria-label="%d of %d">
<img src="%s" alt="%s" width="120" height="80">
<h4>%s</h4>
<p>%s</p>
<a href="%s" class="carousel-link" target="_blank" rel="noopener noreferrer">Read Article →</a>
</article>
`, class, index, index+1, total,
		html.EscapeString(urls.URLFor(c.Image)),
		html.EscapeString(c.Title),
		html.EscapeString(c.Title),
		html.EscapeString(c.Description),
		html.EscapeString(c.ArticleLink))
}
