package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/ai-on-hyperpod/site/internal/site"
)

// HeroOptions configures the homepage header.
type HeroOptions struct {
	// Title is the main headline
	Title string
	// Subtitle is the tagline below the title
	Subtitle string
	// Hero holds the call-to-action links and the central image
	Hero site.Hero
	// Aside is pre-rendered HTML for the right column (the carousel)
	Aside string
	URLs  URLResolver
}

// RenderHero generates the header: title, tagline, the actions around the
// central image on the left and the aside on the right.
func RenderHero(opts HeroOptions) string {
	var sb strings.Builder

	sb.WriteString(`<header class="hero hero--primary" aria-labelledby="hero-title">`)
	sb.WriteString("\n")
	sb.WriteString(`<div class="container">`)
	sb.WriteString("\n")
	sb.WriteString(`<div class="hero-layout">`)
	sb.WriteString("\n")

	sb.WriteString(`<div class="hero-left">`)
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf(`<h1 id="hero-title" class="hero__title">%s</h1>`, html.EscapeString(opts.Title)))
	sb.WriteString("\n")
	if opts.Subtitle != "" {
		sb.WriteString(fmt.Sprintf(`<p class="hero__subtitle">%s</p>`, html.EscapeString(opts.Subtitle)))
		sb.WriteString("\n")
	}

	sb.WriteString(`<div class="hero-actions">`)
	sb.WriteString("\n")
	actions := opts.Hero.Actions
	if len(actions) > 0 {
		sb.WriteString(renderHeroButton(actions[0], opts.URLs))
		actions = actions[1:]
	}
	if opts.Hero.Image != "" {
		sb.WriteString(fmt.Sprintf(`<img src="%s" class="hero-image" alt="%s">`,
			html.EscapeString(opts.URLs.URLFor(opts.Hero.Image)),
			html.EscapeString(opts.Hero.ImageAlt)))
		sb.WriteString("\n")
	}
	for _, a := range actions {
		sb.WriteString(renderHeroButton(a, opts.URLs))
	}
	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</div>`)
	sb.WriteString("\n")

	if opts.Aside != "" {
		sb.WriteString(`<div class="hero-right">`)
		sb.WriteString("\n")
		sb.WriteString(opts.Aside)
		sb.WriteString(`</div>`)
		sb.WriteString("\n")
	}

	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</header>`)
	sb.WriteString("\n")

	return sb.String()
}

func renderHeroButton(l site.Link, urls URLResolver) string {
	return renderLink(l, "button button--secondary button--lg button--squared", urls) + "\n"
}
