package components

import (
	"fmt"
	"html"
	"strings"

	"github.com/ai-on-hyperpod/site/internal/site"
)

// VideosOptions configures the video tutorials section.
type VideosOptions struct {
	Title    string
	Subtitle string
	Videos   []site.Video
}

// RenderVideos lists embedded videos, alternating the player side by
// position.
func RenderVideos(opts VideosOptions) string {
	var sb strings.Builder

	sb.WriteString(`<section class="section videos" aria-labelledby="videos-title">`)
	sb.WriteString("\n")
	sb.WriteString(`<div class="container">`)
	sb.WriteString("\n")

	if opts.Title != "" {
		sb.WriteString(`<div class="videos-header text-center">`)
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf(`<h2 id="videos-title">%s</h2>`, html.EscapeString(opts.Title)))
		sb.WriteString("\n")
		if opts.Subtitle != "" {
			sb.WriteString(fmt.Sprintf(`<p>%s</p>`, html.EscapeString(opts.Subtitle)))
			sb.WriteString("\n")
		}
		sb.WriteString(`</div>`)
		sb.WriteString("\n")
	}

	for i, v := range opts.Videos {
		sb.WriteString(renderVideo(v, site.Reversed(i)))
	}

	sb.WriteString(`</div>`)
	sb.WriteString("\n")
	sb.WriteString(`</section>`)
	sb.WriteString("\n")

	return sb.String()
}

func renderVideo(v site.Video, reversed bool) string {
	class := "video-row"
	if reversed {
		class += " video-row--reversed"
	}

	learnMore := ""
	if v.LearnMoreURL != "" {
		url := html.EscapeString(v.LearnMoreURL)
		learnMore = fmt.Sprintf(`<br>%s <a href="%s" target="_blank" rel="noopener noreferrer">%s</a>`,
			html.EscapeString(v.LearnMore), url, url)
	}

	return fmt.Sprintf(`<div class="%s" id="%s">
<div class="video-player"><div class="video-frame">
<iframe src="%s" title="%s" loading="lazy" allow="accelerometer; autoplay; clipboard-write; encrypted-media; gyroscope; picture-in-picture" referrerpolicy="strict-origin-when-cross-origin" allowfullscreen></iframe>
</div></div>
<div class="video-text">
<h3 class="video-title">%s</h3>
<p class="video-desc">%s%s</p>
</div>
</div>
`, class, html.EscapeString(v.ID),
		html.EscapeString(v.EmbedURL()), html.EscapeString(v.Title),
		html.EscapeString(v.Title), html.EscapeString(v.Description), learnMore)
}
