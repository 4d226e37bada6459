package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/ai-on-hyperpod/site/internal/site"
)

// FeaturesOptions configures the features section.
type FeaturesOptions struct {
	// Features is the list of features to display
	Features []site.Feature
	URLs     URLResolver
}

// RenderFeatures generates a four-column feature grid.
func RenderFeatures(opts FeaturesOptions) string {
	var sb strings.Builder

	sb.WriteString(`<section class="section features" aria-label="Features">`)
	sb.WriteString("\n")
	sb.WriteString(`<div class="container">`)
	sb.WriteString("\n")
	sb.WriteString(`<div class="grid grid-4">`)
	sb.WriteString("\n")

	for _, f := range opts.Features {
		sb.WriteString(renderFeature(f, opts.URLs))
	}

	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</section>`)
	sb.WriteString("\n")

	return sb.String()
}

func renderFeature(f site.Feature, urls URLResolver) string {
	return fmt.Sprintf(`<article class="feature">
<img src="%s" alt="%s" width="150" height="150" loading="lazy">
<h3 class="feature-title">%s</h3>
<p class="feature-desc">%s</p>
</article>
`, html.EscapeString(urls.URLFor(f.Image)), html.EscapeString(f.Alt),
		html.EscapeString(f.Title), html.EscapeString(f.Description))
}
