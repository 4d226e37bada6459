package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/ai-on-hyperpod/site/internal/site"
)

// FooterOptions configures the footer component.
type FooterOptions struct {
	Groups []site.FooterGroup
	// Copyright is the expanded copyright line
	Copyright string
	// Style is "dark" or "light"
	Style string
	URLs  URLResolver
}

// RenderFooter generates the page footer with one column per group.
func RenderFooter(opts FooterOptions) string {
	var sb strings.Builder

	style := opts.Style
	if style == "" {
		style = "dark"
	}

	sb.WriteString(fmt.Sprintf(`<footer class="footer footer--%s">`, html.EscapeString(style)))
	sb.WriteString("\n")
	sb.WriteString(`<div class="container">`)
	sb.WriteString("\n")

	if len(opts.Groups) > 0 {
		sb.WriteString(`<div class="footer-groups">`)
		sb.WriteString("\n")
		for _, g := range opts.Groups {
			sb.WriteString(`<nav class="footer-group"`)
			sb.WriteString(fmt.Sprintf(` aria-label="%s">`, html.EscapeString(g.Title)))
			sb.WriteString(fmt.Sprintf(`<div class="footer-title">%s</div>`, html.EscapeString(g.Title)))
			for _, l := range g.Items {
				sb.WriteString(renderLink(l, "footer-link", opts.URLs))
			}
			sb.WriteString(`</nav>`)
			sb.WriteString("\n")
		}
		sb.WriteString(`</div>`)
		sb.WriteString("\n")
	}

	if opts.Copyright != "" {
		sb.WriteString(fmt.Sprintf(`<div class="footer-copyright">%s</div>`, html.EscapeString(opts.Copyright)))
		sb.WriteString("\n")
	}

	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</footer>`)
	sb.WriteString("\n")

	return sb.String()
}
