// Package website renders the HTML document shell: head metadata, inline
// styles and the page wrapper. Page sections live in components.
//
// Everything is written with strings.Builder and escaped with
// html.EscapeString; there is no template engine and no external CSS.
package website

// PageConfig defines the document-level settings of a page.
type PageConfig struct {
	// Title is the page title (shown in browser tab and search results)
	Title string
	// Description is the meta description for SEO
	Description string
	// URL is the canonical URL of the page
	URL string
	// SiteName is used for og:site_name and JSON-LD
	SiteName string
	// Keywords are SEO keywords for the page
	Keywords []string
	// OGImage is the absolute Open Graph image URL
	OGImage string
	// Language is the page language (default: "en")
	Language string
	// ThemeColor is the mobile browser theme color
	ThemeColor string
	// Favicon is the resolved favicon URL
	Favicon string
	// ColorMode is "dark" or "light" and sets data-theme on <html>
	ColorMode string
	// Nonce is the CSP nonce for inline <style> and <script>
	Nonce string
	// Scripts are external script URLs appended to the body
	Scripts []string
}

// DefaultPageConfig returns a PageConfig with sensible defaults.
func DefaultPageConfig() PageConfig {
	return PageConfig{
		Language:   "en",
		ThemeColor: Colors["primary"],
		ColorMode:  "dark",
	}
}

func (c PageConfig) lang() string {
	if c.Language == "" {
		return "en"
	}
	return c.Language
}

func (c PageConfig) theme() string {
	if c.ColorMode == "light" {
		return "light"
	}
	return "dark"
}

func (c PageConfig) nonceAttr() string {
	if c.Nonce == "" {
		return ""
	}
	return ` nonce="` + c.Nonce + `"`
}
