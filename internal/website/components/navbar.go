// Package components renders the homepage sections.
package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/ai-on-hyperpod/site/internal/site"
)

// URLResolver maps site-relative paths and links to served URLs.
// *site.Config implements it.
type URLResolver interface {
	URLFor(path string) string
	LinkURL(l site.Link) string
}

// NavbarOptions configures the navbar component.
type NavbarOptions struct {
	// Title is shown next to the logo
	Title string
	// Logo is the brand image
	Logo site.Logo
	// Items are the left and right navigation entries
	Items []site.NavItem
	URLs  URLResolver
}

// RenderNavbar generates a sticky navigation bar. Dropdowns are
// <details> elements so they open without script.
func RenderNavbar(opts NavbarOptions) string {
	var sb strings.Builder

	sb.WriteString(`<a href="#main-content" class="skip-link">Skip to main content</a>`)
	sb.WriteString("\n")

	sb.WriteString(`<nav class="nav" aria-label="Main navigation">`)
	sb.WriteString("\n")
	sb.WriteString(`<div class="container nav-inner">`)
	sb.WriteString("\n")

	sb.WriteString(fmt.Sprintf(`<a href="%s" class="nav-brand">`, html.EscapeString(opts.URLs.URLFor("/"))))
	if opts.Logo.Src != "" {
		sb.WriteString(fmt.Sprintf(`<img src="%s" alt="%s" width="32" height="32">`,
			html.EscapeString(opts.URLs.URLFor(opts.Logo.Src)),
			html.EscapeString(opts.Logo.Alt)))
	}
	sb.WriteString(`<span>`)
	sb.WriteString(html.EscapeString(opts.Title))
	sb.WriteString(`</span></a>`)
	sb.WriteString("\n")

	var left, right []site.NavItem
	for _, item := range opts.Items {
		if item.Position == "right" {
			right = append(right, item)
		} else {
			left = append(left, item)
		}
	}

	sb.WriteString(`<div class="nav-items">`)
	sb.WriteString("\n")
	for _, item := range left {
		sb.WriteString(renderNavItem(item, opts.URLs))
	}
	sb.WriteString(`</div>`)
	sb.WriteString("\n")

	if len(right) > 0 {
		sb.WriteString(`<div class="nav-items nav-items-right">`)
		sb.WriteString("\n")
		for _, item := range right {
			sb.WriteString(renderNavItem(item, opts.URLs))
		}
		sb.WriteString(`</div>`)
		sb.WriteString("\n")
	}

	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</nav>`)
	sb.WriteString("\n")

	return sb.String()
}

func renderNavItem(item site.NavItem, urls URLResolver) string {
	if !item.IsDropdown() {
		return renderLink(site.Link{Label: item.Label, To: item.To, Href: item.Href}, "nav-link", urls) + "\n"
	}

	var sb strings.Builder
	sb.WriteString(`<details class="dropdown">`)
	sb.WriteString(fmt.Sprintf(`<summary class="nav-link">%s</summary>`, html.EscapeString(item.Label)))
	sb.WriteString(`<div class="dropdown-menu">`)
	for _, l := range item.Items {
		sb.WriteString(renderLink(l, "", urls))
	}
	sb.WriteString(`</div></details>`)
	sb.WriteString("\n")
	return sb.String()
}

// renderLink writes an anchor; external links open in a new tab.
func renderLink(l site.Link, class string, urls URLResolver) string {
	attrs := ""
	if class != "" {
		attrs = fmt.Sprintf(` class="%s"`, class)
	}
	if l.IsExternal() {
		attrs += ` target="_blank" rel="noopener noreferrer"`
	}
	return fmt.Sprintf(`<a href="%s"%s>%s</a>`,
		html.EscapeString(urls.LinkURL(l)), attrs, html.EscapeString(l.Label))
}
