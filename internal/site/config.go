// Package site holds the site configuration document and the fixed
// homepage content. The configuration is YAML, embedded by default and
// overridable from a file; the content records are compiled in.
package site

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid site config")

//go:embed site.yaml
var defaultDocument []byte

// Config is the site configuration document.
type Config struct {
	Title            string `yaml:"title"`
	Tagline          string `yaml:"tagline"`
	Description      string `yaml:"description,omitempty"`
	Favicon          string `yaml:"favicon,omitempty"`
	URL              string `yaml:"url"`
	BaseURL          string `yaml:"baseUrl"`
	OrganizationName string `yaml:"organizationName,omitempty"`
	ProjectName      string `yaml:"projectName,omitempty"`
	// TrailingSlash nil leaves internal links as written.
	TrailingSlash    *bool  `yaml:"trailingSlash,omitempty"`
	DeploymentBranch string `yaml:"deploymentBranch,omitempty"`
	OnBrokenLinks    string `yaml:"onBrokenLinks,omitempty"`
	Locale           string `yaml:"locale,omitempty"`

	ColorMode ColorMode `yaml:"colorMode"`
	Metadata  []Meta    `yaml:"metadata,omitempty"`
	Image     string    `yaml:"image,omitempty"`

	Navbar Navbar `yaml:"navbar"`
	Footer Footer `yaml:"footer"`
}

// ColorMode selects the initial theme.
type ColorMode struct {
	DefaultMode string `yaml:"defaultMode"`
}

// Meta is a name/content pair rendered as a <meta> tag.
type Meta struct {
	Name    string `yaml:"name"`
	Content string `yaml:"content"`
}

// Navbar is the top navigation bar.
type Navbar struct {
	Title string    `yaml:"title,omitempty"`
	Logo  Logo      `yaml:"logo"`
	Items []NavItem `yaml:"items"`
}

// Logo is the navbar image.
type Logo struct {
	Alt string `yaml:"alt"`
	Src string `yaml:"src"`
}

// NavItem is a navbar entry: a plain link, or a dropdown of links when
// Type is "dropdown".
type NavItem struct {
	Type     string `yaml:"type,omitempty"`
	Label    string `yaml:"label"`
	To       string `yaml:"to,omitempty"`
	Href     string `yaml:"href,omitempty"`
	Position string `yaml:"position,omitempty"`
	Items    []Link `yaml:"items,omitempty"`
}

// IsDropdown reports whether the item opens a menu.
func (n NavItem) IsDropdown() bool {
	return n.Type == "dropdown"
}

// Link is a labelled destination. To is a path inside the site, Href an
// external URL; exactly one is set.
type Link struct {
	Label string `yaml:"label"`
	To    string `yaml:"to,omitempty"`
	Href  string `yaml:"href,omitempty"`
}

// IsExternal reports whether the link leaves the site.
func (l Link) IsExternal() bool {
	return l.Href != ""
}

// Footer is the page footer.
type Footer struct {
	Style     string        `yaml:"style,omitempty"`
	Links     []FooterGroup `yaml:"links"`
	Copyright string        `yaml:"copyright"`
}

// FooterGroup is a titled column of footer links.
type FooterGroup struct {
	Title string `yaml:"title"`
	Items []Link `yaml:"items"`
}

// Default returns the embedded configuration.
func Default() (*Config, error) {
	return Parse(defaultDocument)
}

// Load reads the configuration at path, or the embedded one when path is
// empty.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading site config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes and validates a configuration document. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func Parse(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parsing site config: %w", err)
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Locale == "" {
		c.Locale = "en"
	}
	if c.ColorMode.DefaultMode == "" {
		c.ColorMode.DefaultMode = "light"
	}
	if c.Navbar.Title == "" {
		c.Navbar.Title = c.Title
	}
	if c.Footer.Style == "" {
		c.Footer.Style = "dark"
	}
	if c.Description == "" {
		c.Description = c.Tagline
	}
}

// Validate reports every problem found, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if strings.TrimSpace(c.Title) == "" {
		fail("title is required")
	}
	if u, err := url.Parse(c.URL); err != nil || !u.IsAbs() || u.Host == "" {
		fail("url %q must be absolute", c.URL)
	}
	if !strings.HasPrefix(c.BaseURL, "/") || !strings.HasSuffix(c.BaseURL, "/") {
		fail("baseUrl %q must start and end with /", c.BaseURL)
	}
	switch c.ColorMode.DefaultMode {
	case "light", "dark":
	default:
		fail("colorMode.defaultMode %q must be light or dark", c.ColorMode.DefaultMode)
	}

	for i, item := range c.Navbar.Items {
		if item.IsDropdown() {
			if len(item.Items) == 0 {
				fail("navbar item %d (%s): dropdown has no items", i, item.Label)
			}
			for j, l := range item.Items {
				if err := checkLink(l); err != "" {
					fail("navbar item %d.%d (%s): %s", i, j, l.Label, err)
				}
			}
			continue
		}
		if err := checkLink(Link{Label: item.Label, To: item.To, Href: item.Href}); err != "" {
			fail("navbar item %d (%s): %s", i, item.Label, err)
		}
	}

	for i, g := range c.Footer.Links {
		for j, l := range g.Items {
			if err := checkLink(l); err != "" {
				fail("footer group %d item %d (%s): %s", i, j, l.Label, err)
			}
		}
	}

	return errors.Join(errs...)
}

func checkLink(l Link) string {
	switch {
	case l.Label == "":
		return "label is required"
	case l.To != "" && l.Href != "":
		return "set either to or href, not both"
	case l.To == "" && l.Href == "":
		return "to or href is required"
	}
	return ""
}

// URLFor resolves a site-relative path against the base URL, the way
// internal links and static assets are addressed. External URLs and
// fragment links pass through unchanged.
func (c *Config) URLFor(path string) string {
	if isExternal(path) || strings.HasPrefix(path, "#") {
		return path
	}

	resolved := path
	if !strings.HasPrefix(path, c.BaseURL) {
		resolved = c.BaseURL + strings.TrimPrefix(path, "/")
	}
	if resolved == c.BaseURL || c.TrailingSlash == nil {
		return resolved
	}

	// Only page paths are normalised; assets keep their extension.
	if hasExtension(resolved) {
		return resolved
	}
	if *c.TrailingSlash {
		if !strings.HasSuffix(resolved, "/") {
			resolved += "/"
		}
		return resolved
	}
	return strings.TrimRight(resolved, "/")
}

// AbsoluteURL is URLFor prefixed with the site origin.
func (c *Config) AbsoluteURL(path string) string {
	resolved := c.URLFor(path)
	if isExternal(resolved) {
		return resolved
	}
	return strings.TrimRight(c.URL, "/") + resolved
}

// LinkURL resolves a configured link.
func (c *Config) LinkURL(l Link) string {
	if l.IsExternal() {
		return l.Href
	}
	return c.URLFor(l.To)
}

// Copyright expands the {year} placeholder.
func (c *Config) Copyright(now time.Time) string {
	return strings.ReplaceAll(c.Footer.Copyright, "{year}", strconv.Itoa(now.Year()))
}

// Keywords splits the keywords metadata entry.
func (c *Config) Keywords() []string {
	var out []string
	for _, m := range c.Metadata {
		if m.Name != "keywords" {
			continue
		}
		for _, k := range strings.Split(m.Content, ",") {
			if k = strings.TrimSpace(k); k != "" {
				out = append(out, k)
			}
		}
	}
	return out
}

// InternalPaths returns every distinct in-site link target from the
// navbar and footer, in document order.
func (c *Config) InternalPaths() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(to string) {
		if to == "" || seen[to] {
			return
		}
		seen[to] = true
		out = append(out, to)
	}

	for _, item := range c.Navbar.Items {
		add(item.To)
		for _, l := range item.Items {
			add(l.To)
		}
	}
	for _, g := range c.Footer.Links {
		for _, l := range g.Items {
			add(l.To)
		}
	}
	return out
}

// YAML encodes the configuration back to a document.
func (c *Config) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(c); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isExternal(path string) bool {
	return strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "//") ||
		strings.HasPrefix(path, "mailto:")
}

func hasExtension(path string) bool {
	last := path[strings.LastIndexByte(path, '/')+1:]
	return strings.Contains(last, ".")
}
