package website

import (
	"encoding/xml"
	"fmt"
	"strings"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// RenderSitemap generates a sitemap for absolute page URLs. The first URL
// is treated as the homepage.
func RenderSitemap(locs []string) ([]byte, error) {
	set := urlSet{XMLNS: sitemapNS}
	for i, loc := range locs {
		u := sitemapURL{Loc: loc, ChangeFreq: "weekly", Priority: "0.5"}
		if i == 0 {
			u.Priority = "1.0"
		}
		set.URLs = append(set.URLs, u)
	}

	data, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding sitemap: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// RenderRobots generates robots.txt allowing everything under base and
// pointing crawlers at the sitemap.
func RenderRobots(base, sitemapURL string) string {
	var sb strings.Builder
	sb.WriteString("User-agent: *\n")
	sb.WriteString("Allow: " + base + "\n")
	if sitemapURL != "" {
		sb.WriteString("Sitemap: " + sitemapURL + "\n")
	}
	return sb.String()
}
