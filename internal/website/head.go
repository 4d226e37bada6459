package website

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

// RenderHead generates a complete <head> section with SEO, Open Graph, and JSON-LD.
func RenderHead(cfg PageConfig, customCSS string) string {
	var sb strings.Builder

	themeColor := cfg.ThemeColor
	if themeColor == "" {
		themeColor = Colors["primary"]
	}

	sb.WriteString("<head>\n")

	// Essential meta tags
	sb.WriteString(`<meta charset="UTF-8">` + "\n")
	sb.WriteString(`<meta name="viewport" content="width=device-width, initial-scale=1.0">` + "\n")

	sb.WriteString(fmt.Sprintf("<title>%s</title>\n", html.EscapeString(cfg.Title)))

	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="description" content="%s">`+"\n", html.EscapeString(cfg.Description)))
	}
	if len(cfg.Keywords) > 0 {
		sb.WriteString(fmt.Sprintf(`<meta name="keywords" content="%s">`+"\n", html.EscapeString(strings.Join(cfg.Keywords, ", "))))
	}
	if cfg.URL != "" {
		sb.WriteString(fmt.Sprintf(`<link rel="canonical" href="%s">`+"\n", html.EscapeString(cfg.URL)))
	}

	sb.WriteString(fmt.Sprintf(`<meta name="theme-color" content="%s">`+"\n", html.EscapeString(themeColor)))
	sb.WriteString(`<meta name="robots" content="index, follow">` + "\n")

	sb.WriteString(renderOpenGraph(cfg))
	sb.WriteString(renderTwitterCard(cfg))
	sb.WriteString(renderJSONLD(cfg))

	if cfg.Favicon != "" {
		sb.WriteString(fmt.Sprintf(`<link rel="icon" href="%s">`+"\n", html.EscapeString(cfg.Favicon)))
	}

	// Inline CSS
	sb.WriteString("<style" + cfg.nonceAttr() + ">\n")
	sb.WriteString(RenderStyles())
	if customCSS != "" {
		sb.WriteString("\n")
		sb.WriteString(customCSS)
	}
	sb.WriteString("\n</style>\n")

	sb.WriteString("</head>\n")

	return sb.String()
}

func renderOpenGraph(cfg PageConfig) string {
	var sb strings.Builder

	sb.WriteString(`<meta property="og:type" content="website">` + "\n")

	if cfg.Title != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:title" content="%s">`+"\n", html.EscapeString(cfg.Title)))
	}
	if cfg.SiteName != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:site_name" content="%s">`+"\n", html.EscapeString(cfg.SiteName)))
	}
	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:description" content="%s">`+"\n", html.EscapeString(cfg.Description)))
	}
	if cfg.URL != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:url" content="%s">`+"\n", html.EscapeString(cfg.URL)))
	}
	if cfg.OGImage != "" {
		sb.WriteString(fmt.Sprintf(`<meta property="og:image" content="%s">`+"\n", html.EscapeString(cfg.OGImage)))
	}
	sb.WriteString(fmt.Sprintf(`<meta property="og:locale" content="%s">`+"\n", html.EscapeString(cfg.lang())))

	return sb.String()
}

func renderTwitterCard(cfg PageConfig) string {
	var sb strings.Builder

	sb.WriteString(`<meta name="twitter:card" content="summary_large_image">` + "\n")

	if cfg.Title != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="twitter:title" content="%s">`+"\n", html.EscapeString(cfg.Title)))
	}
	if cfg.Description != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="twitter:description" content="%s">`+"\n", html.EscapeString(cfg.Description)))
	}
	if cfg.OGImage != "" {
		sb.WriteString(fmt.Sprintf(`<meta name="twitter:image" content="%s">`+"\n", html.EscapeString(cfg.OGImage)))
	}

	return sb.String()
}

func renderJSONLD(cfg PageConfig) string {
	doc := map[string]string{
		"@context":    "https://schema.org",
		"@type":       "WebSite",
		"name":        cfg.SiteName,
		"headline":    cfg.Title,
		"description": cfg.Description,
		"url":         cfg.URL,
		"inLanguage":  cfg.lang(),
	}
	if doc["name"] == "" {
		doc["name"] = cfg.Title
	}

	// json.Marshal escapes <, > and & so the payload cannot close the tag.
	data, err := json.Marshal(doc)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(`<script type="application/ld+json"%s>%s</script>`+"\n", cfg.nonceAttr(), data)
}

// RenderDocument wraps content in a complete HTML document.
func RenderDocument(cfg PageConfig, customCSS, bodyContent string) string {
	var scripts strings.Builder
	for _, src := range cfg.Scripts {
		scripts.WriteString(fmt.Sprintf(`<script src="%s" defer%s></script>`+"\n", html.EscapeString(src), cfg.nonceAttr()))
	}

	return fmt.Sprintf(`<!DOCTYPE html>
<html lang="%s" data-theme="%s">
%s<body>
%s
%s</body>
</html>`, html.EscapeString(cfg.lang()), cfg.theme(), RenderHead(cfg, customCSS), bodyContent, scripts.String())
}
