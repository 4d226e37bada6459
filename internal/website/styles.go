package website

import (
	"fmt"
	"sort"
	"strings"
)

// Colors is the dark palette, the site default.
var Colors = map[string]string{
	// Backgrounds
	"bg":      "#1B1B1D",
	"bgAlt":   "#242526",
	"bgHover": "#3A3B3C",
	"bgHero":  "#16191F", // squid ink

	// Text
	"text":      "#E3E3E3",
	"textMuted": "#C6C6C7",
	"textDim":   "#9DA1A6",

	// Brand
	"primary":       "#FF9900", // AWS orange
	"primaryBright": "#FFB547",
	"secondary":     "#01A88D", // SageMaker teal
	"link":          "#4DB5FF",

	// Borders
	"border":      "#3A3B3C",
	"borderLight": "#4F5050",
}

// LightColors overrides Colors when data-theme="light".
var LightColors = map[string]string{
	"bg":          "#FFFFFF",
	"bgAlt":       "#F2F3F3",
	"bgHover":     "#E9EBED",
	"text":        "#16191F",
	"textMuted":   "#414750",
	"textDim":     "#545B64",
	"link":        "#0972D3",
	"border":      "#D5DBDB",
	"borderLight": "#AAB7B8",
}

// Typography uses system font stack for instant loading
var FontFamily = `system-ui, -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif`

// StyleOption allows customizing the generated CSS
type StyleOption func(*styleConfig)

type styleConfig struct {
	customColors      map[string]string
	includeReset      bool
	includeAnimations bool
}

// WithCustomColors overrides default dark colors
func WithCustomColors(colors map[string]string) StyleOption {
	return func(cfg *styleConfig) {
		for k, v := range colors {
			cfg.customColors[k] = v
		}
	}
}

// WithReset includes a CSS reset
func WithReset(include bool) StyleOption {
	return func(cfg *styleConfig) {
		cfg.includeReset = include
	}
}

// WithAnimations includes animation definitions
func WithAnimations(include bool) StyleOption {
	return func(cfg *styleConfig) {
		cfg.includeAnimations = include
	}
}

// RenderStyles generates the complete CSS for the site.
func RenderStyles(opts ...StyleOption) string {
	cfg := &styleConfig{
		customColors:      make(map[string]string),
		includeReset:      true,
		includeAnimations: true,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	colors := make(map[string]string)
	for k, v := range Colors {
		colors[k] = v
	}
	for k, v := range cfg.customColors {
		colors[k] = v
	}

	var sb strings.Builder

	if cfg.includeReset {
		sb.WriteString(cssReset())
	}
	sb.WriteString(cssVariables(":root", colors))
	sb.WriteString(cssVariables(`[data-theme="light"]`, LightColors))
	sb.WriteString(cssBase())
	sb.WriteString(cssLayout())
	sb.WriteString(cssNavbar())
	sb.WriteString(cssButtons())
	sb.WriteString(cssHero())
	sb.WriteString(cssCarousel())
	sb.WriteString(cssFeatures())
	sb.WriteString(cssVideos())
	sb.WriteString(cssFooter())
	if cfg.includeAnimations {
		sb.WriteString(cssAnimations())
	}
	sb.WriteString(cssAccessibility())
	sb.WriteString(cssResponsive())

	return sb.String()
}

func cssReset() string {
	return `
*,*::before,*::after{box-sizing:border-box;margin:0;padding:0}
html{-webkit-text-size-adjust:100%;scroll-behavior:smooth}
body{line-height:1.6;-webkit-font-smoothing:antialiased}
img,picture,video,canvas,svg,iframe{display:block;max-width:100%}
input,button,textarea,select{font:inherit}
p,h1,h2,h3,h4{overflow-wrap:break-word}
a{color:inherit;text-decoration:none}
ul,ol{list-style:none}
`
}

// cssVariables emits the palette sorted by name so the output is stable
// between renders.
func cssVariables(selector string, colors map[string]string) string {
	names := make([]string, 0, len(colors))
	for name := range colors {
		names = append(names, name)
	}
	sort.Strings(names)

	vars := make([]string, 0, len(names))
	for _, name := range names {
		vars = append(vars, fmt.Sprintf("--color-%s:%s", name, colors[name]))
	}
	if selector == ":root" {
		vars = append(vars, "--font-sans:"+FontFamily)
	}
	return fmt.Sprintf("%s{%s}\n", selector, strings.Join(vars, ";"))
}

func cssBase() string {
	return `
body{font-family:var(--font-sans);background:var(--color-bg);color:var(--color-text);min-height:100vh}
::selection{background:var(--color-primary);color:#16191F}
h1{font-size:clamp(2rem,5vw,3rem);font-weight:800;line-height:1.15}
h2{font-size:clamp(1.5rem,3vw,2rem);font-weight:700;line-height:1.2}
h3{font-size:1.125rem;font-weight:600;line-height:1.3}
h4{font-size:1rem;font-weight:600}
p{color:var(--color-textMuted)}
p a{color:var(--color-link);text-decoration:underline}
.text-center{text-align:center}
`
}

func cssLayout() string {
	// Mobile-first: base styles for mobile (320px+)
	return `
.container{width:100%;max-width:1200px;margin:0 auto;padding:0 1rem}
.section{padding:2rem 0}
.row{display:flex;flex-direction:column;gap:1.5rem}
.grid{display:grid;gap:1.5rem}
.grid-4{grid-template-columns:1fr}
`
}

func cssNavbar() string {
	return `
.nav{position:sticky;top:0;z-index:100;padding:0.5rem 0;background:var(--color-bgAlt);border-bottom:1px solid var(--color-border)}
.nav-inner{display:flex;align-items:center;justify-content:space-between;gap:0.5rem}
.nav-brand{display:flex;align-items:center;gap:0.5rem;font-weight:700}
.nav-brand img{width:32px;height:32px;border-radius:4px}
.nav-items{display:none;align-items:center;gap:0.25rem;flex:1}
.nav-items-right{justify-content:flex-end;flex:0}
.nav-link{padding:0.5rem 0.75rem;border-radius:0.375rem;font-weight:500;color:var(--color-text)}
.nav-link:hover{color:var(--color-primary)}
.dropdown{position:relative}
.dropdown>summary{list-style:none;cursor:pointer}
.dropdown>summary::-webkit-details-marker{display:none}
.dropdown>summary::after{content:"";display:inline-block;margin-left:0.4rem;border:0.3rem solid transparent;border-top-color:currentColor;vertical-align:middle}
.dropdown-menu{position:absolute;top:100%;left:0;min-width:14rem;padding:0.5rem;background:var(--color-bgAlt);border:1px solid var(--color-border);border-radius:0.5rem;box-shadow:0 8px 24px rgba(0,0,0,0.3)}
.dropdown-menu a{display:block;padding:0.4rem 0.75rem;border-radius:0.25rem;color:var(--color-text)}
.dropdown-menu a:hover{background:var(--color-bgHover)}
`
}

func cssButtons() string {
	// 44px minimum tap target
	return `
.button{display:inline-flex;align-items:center;justify-content:center;padding:0.75rem 1.25rem;font-weight:700;border-radius:0.5rem;min-height:2.75rem;transition:all 0.2s ease;text-align:center}
.button:focus-visible{outline:2px solid var(--color-primary);outline-offset:2px}
.button--secondary{background:#FFFFFF;color:#16191F;border:1px solid #D5DBDB}
.button--secondary:hover{background:#F2F3F3}
.button--lg{padding:1rem 1.75rem;font-size:1.125rem}
.button--squared{border-radius:0.25rem}
`
}

func cssHero() string {
	return `
.hero{padding:2.5rem 0;background:var(--color-bgHero);color:#FFFFFF}
.hero-layout{display:flex;flex-direction:column;gap:2rem}
.hero-left,.hero-right{flex:1;min-width:0}
.hero__title{color:#FFFFFF;margin-bottom:1rem}
.hero__subtitle{color:#D5DBDB;font-size:1.125rem;margin-bottom:1.5rem}
.hero-actions{display:flex;flex-direction:column;align-items:center;gap:1rem}
.hero-image{max-width:280px;border-radius:0.75rem}
`
}

func cssCarousel() string {
	return `
.carousel{display:flex;flex-direction:column;gap:1rem}
.carousel-track{display:flex;flex-direction:column;gap:0.75rem}
.carousel-card{padding:1.25rem;border-radius:0.75rem;background:rgba(255,255,255,0.06);border:1px solid rgba(255,255,255,0.12);opacity:0.55;transition:all 0.3s ease}
.carousel-card--active{opacity:1;border-color:var(--color-primary);box-shadow:0 8px 24px rgba(255,153,0,0.15)}
.carousel-card img{width:120px;height:80px;object-fit:cover;border-radius:0.375rem;margin-bottom:0.75rem}
.carousel-card h4{color:#FFFFFF;margin-bottom:0.5rem}
.carousel-card p{color:#D5DBDB;font-size:0.9rem;margin-bottom:0.75rem}
.carousel-link{color:var(--color-primaryBright);font-weight:600}
.carousel-link:hover{text-decoration:underline}
.carousel-nav{display:flex;justify-content:center;gap:0.5rem}
.carousel-bullet{width:0.75rem;height:0.75rem;padding:0;border-radius:50%;border:none;background:rgba(255,255,255,0.35);cursor:pointer;transition:all 0.2s ease}
.carousel-bullet:hover{background:rgba(255,255,255,0.6)}
.carousel-bullet--active{width:1.75rem;border-radius:0.375rem;background:var(--color-primary)}
`
}

func cssFeatures() string {
	return `
.feature{display:flex;flex-direction:column;align-items:center;text-align:center;padding:1rem}
.feature img{width:150px;height:150px;object-fit:contain;margin-bottom:1rem}
.feature-title{color:var(--color-text);margin-bottom:0.5rem}
.feature-desc{font-size:0.925rem}
`
}

func cssVideos() string {
	return `
.videos-header{margin-bottom:2rem}
.videos-header p{margin-top:0.5rem}
.video-row{display:flex;flex-direction:column;gap:1.5rem;margin-bottom:3rem;align-items:center}
.video-player,.video-text{flex:1;min-width:0;width:100%}
.video-frame{position:relative;padding-bottom:56.25%;height:0;overflow:hidden;border-radius:0.75rem}
.video-frame iframe{position:absolute;top:0;left:0;width:100%;height:100%;border:0}
.video-title{margin-bottom:0.75rem;color:var(--color-text)}
`
}

func cssFooter() string {
	return `
.footer{padding:3rem 0 2rem;background:#303846;color:#EBEDF0}
.footer-groups{display:grid;grid-template-columns:1fr;gap:2rem;margin-bottom:2rem}
.footer-title{font-weight:700;margin-bottom:0.75rem;color:#FFFFFF}
.footer-link{display:block;padding:0.2rem 0;color:#D5DBDB}
.footer-link:hover{color:var(--color-primary)}
.footer-copyright{text-align:center;font-size:0.875rem;color:#D5DBDB}
`
}

func cssAnimations() string {
	return `
@keyframes fadeIn{from{opacity:0;transform:translateY(8px)}to{opacity:1;transform:translateY(0)}}
.carousel-card--active{animation:fadeIn 0.4s ease}
@media(prefers-reduced-motion:reduce){*{animation-duration:0.01ms!important;animation-iteration-count:1!important;transition-duration:0.01ms!important}}
`
}

func cssAccessibility() string {
	return `
.sr-only{position:absolute;width:1px;height:1px;padding:0;margin:-1px;overflow:hidden;clip:rect(0,0,0,0);white-space:nowrap;border:0}
.skip-link{position:absolute;top:-40px;left:0;background:var(--color-primary);color:#16191F;padding:0.5rem 1rem;z-index:1000;transition:top 0.3s;font-weight:600}
.skip-link:focus{top:0}
:focus-visible{outline:2px solid var(--color-primary);outline-offset:2px}
`
}

func cssResponsive() string {
	// Mobile-first: breakpoints use min-width
	return `
@media(min-width:768px){
.container{padding:0 1.5rem}
.section{padding:4rem 0}
.footer-groups{grid-template-columns:repeat(3,1fr)}
.hero-actions{flex-direction:row;justify-content:center}
.video-row{flex-direction:row}
.video-row--reversed{flex-direction:row-reverse}
}
@media(min-width:997px){
.nav-items{display:flex}
.grid-4{grid-template-columns:repeat(4,1fr)}
.hero{padding:4rem 0}
.hero-layout{flex-direction:row;align-items:center}
}
`
}
