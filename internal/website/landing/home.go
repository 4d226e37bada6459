// Package landing assembles the homepage from the site document, the
// fixed content and the carousel state.
package landing

import (
	"strings"
	"time"

	"github.com/ai-on-hyperpod/site/internal/site"
	"github.com/ai-on-hyperpod/site/internal/website"
	"github.com/ai-on-hyperpod/site/internal/website/components"
)

// Section headings for the video list.
const (
	VideosTitle    = "Learn with Video Tutorials"
	VideosSubtitle = "Watch these tutorials to master Amazon SageMaker HyperPod"
)

// Options configures one render of the homepage.
type Options struct {
	// Cards are the carousel cards in rotation order
	Cards []site.Card
	// Marks flags the active card, one entry per card
	Marks []bool

	Features []site.Feature
	Videos   []site.Video
	Hero     site.Hero

	// Nonce is the CSP nonce of the request, empty on live re-renders
	Nonce string
	// ScriptURL is the live client script, omitted when empty
	ScriptURL string
	// Now stamps the copyright year
	Now time.Time

	// CustomCSS is additional CSS to include
	CustomCSS string
}

// DefaultOptions returns the compiled-in content with the first card active.
func DefaultOptions() Options {
	cards := site.Cards()
	marks := make([]bool, len(cards))
	if len(marks) > 0 {
		marks[0] = true
	}
	return Options{
		Cards:    cards,
		Marks:    marks,
		Features: site.Features(),
		Videos:   site.Videos(),
		Hero:     site.HomeHero(),
	}
}

// PageConfig derives the document settings from the site document.
func PageConfig(cfg *site.Config) website.PageConfig {
	pc := website.DefaultPageConfig()
	pc.Title = cfg.Title
	pc.SiteName = cfg.Title
	pc.Description = cfg.Description
	pc.URL = cfg.AbsoluteURL("/")
	pc.Keywords = cfg.Keywords()
	pc.Language = cfg.Locale
	pc.ColorMode = cfg.ColorMode.DefaultMode
	if cfg.Image != "" {
		pc.OGImage = cfg.AbsoluteURL(cfg.Image)
	}
	if cfg.Favicon != "" {
		pc.Favicon = cfg.URLFor(cfg.Favicon)
	}
	return pc
}

// RenderHomepage generates the complete homepage document.
func RenderHomepage(cfg *site.Config, opts Options) string {
	var body strings.Builder

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	// Skip link + Navbar
	body.WriteString(components.RenderNavbar(components.NavbarOptions{
		Title: cfg.Navbar.Title,
		Logo:  cfg.Navbar.Logo,
		Items: cfg.Navbar.Items,
		URLs:  cfg,
	}))

	// Header with the carousel on the right
	body.WriteString(components.RenderHero(components.HeroOptions{
		Title:    cfg.Title,
		Subtitle: cfg.Tagline,
		Hero:     opts.Hero,
		Aside: components.RenderCarousel(components.CarouselOptions{
			Cards: opts.Cards,
			Marks: opts.Marks,
			URLs:  cfg,
		}),
		URLs: cfg,
	}))

	body.WriteString(`<main id="main-content">`)
	body.WriteString("\n")

	if len(opts.Features) > 0 {
		body.WriteString(components.RenderFeatures(components.FeaturesOptions{
			Features: opts.Features,
			URLs:     cfg,
		}))
	}

	if len(opts.Videos) > 0 {
		body.WriteString(components.RenderVideos(components.VideosOptions{
			Title:    VideosTitle,
			Subtitle: VideosSubtitle,
			Videos:   opts.Videos,
		}))
	}

	body.WriteString(`</main>`)
	body.WriteString("\n")

	body.WriteString(components.RenderFooter(components.FooterOptions{
		Groups:    cfg.Footer.Links,
		Copyright: cfg.Copyright(now),
		Style:     cfg.Footer.Style,
		URLs:      cfg,
	}))

	pc := PageConfig(cfg)
	pc.Nonce = opts.Nonce
	if opts.ScriptURL != "" {
		pc.Scripts = []string{opts.ScriptURL}
	}

	return website.RenderDocument(pc, opts.CustomCSS, body.String())
}
