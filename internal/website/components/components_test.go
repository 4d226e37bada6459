package components

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ai-on-hyperpod/site/internal/site"
)

func defaultConfig(t *testing.T) *site.Config {
	t.Helper()
	cfg, err := site.Default()
	if err != nil {
		t.Fatalf("site.Default failed: %v", err)
	}
	return cfg
}

func TestRenderCarousel_ExactlyOneActive(t *testing.T) {
	cfg := defaultConfig(t)
	cards := site.Cards()

	for active := range cards {
		marks := make([]bool, len(cards))
		marks[active] = true

		out := RenderCarousel(CarouselOptions{Cards: cards, Marks: marks, URLs: cfg})

		if n := strings.Count(out, "carousel-card--active"); n != 1 {
			t.Errorf("active=%d: expected 1 active card, got %d", active, n)
		}
		if n := strings.Count(out, "carousel-bullet--active"); n != 1 {
			t.Errorf("active=%d: expected 1 active bullet, got %d", active, n)
		}
		want := fmt.Sprintf(`class="carousel-bullet carousel-bullet--active" lv-click="select" lv-value-index="%d" aria-label="Show card %d"`, active, active+1)
		if !strings.Contains(out, want) {
			t.Errorf("active=%d: expected bullet %q", active, want)
		}
		wantCard := fmt.Sprintf(`<article class="carousel-card carousel-card--active" data-index="%d"`, active)
		if !strings.Contains(out, wantCard) {
			t.Errorf("active=%d: expected active card %q", active, wantCard)
		}
	}
}

func TestRenderCarousel_Structure(t *testing.T) {
	cfg := defaultConfig(t)
	cards := site.Cards()

	out := RenderCarousel(CarouselOptions{Cards: cards, Marks: []bool{true, false, false, false}, URLs: cfg})

	if !strings.HasPrefix(out, `<div class="carousel" data-slot="carousel"`) {
		t.Errorf("expected carousel slot root, got %q", out[:60])
	}
	if n := strings.Count(out, `lv-click="select"`); n != len(cards) {
		t.Errorf("expected %d bullets, got %d", len(cards), n)
	}
	for i := 1; i <= len(cards); i++ {
		if !strings.Contains(out, fmt.Sprintf(`aria-label="Show card %d"`, i)) {
			t.Errorf("missing label for card %d", i)
		}
	}
	if n := strings.Count(out, `target="_blank" rel="noopener noreferrer">Read Article →</a>`); n != len(cards) {
		t.Errorf("expected %d article links opening in a new tab, got %d", len(cards), n)
	}
	if !strings.Contains(out, `src="/ai-on-sagemaker-hyperpod/img/99-front-page/whats-news-card-1.png"`) {
		t.Error("card image not resolved against the base URL")
	}
	if !strings.Contains(out, "PyTorch&#39;s Distributed Checkpoint") {
		t.Error("card description not escaped")
	}
}

func TestRenderCarousel_ShortMarks(t *testing.T) {
	cfg := defaultConfig(t)

	out := RenderCarousel(CarouselOptions{Cards: site.Cards(), URLs: cfg})
	if strings.Contains(out, "--active") {
		t.Error("expected no active card without marks")
	}
}

func TestRenderNavbar(t *testing.T) {
	cfg := defaultConfig(t)

	out := RenderNavbar(NavbarOptions{
		Title: cfg.Navbar.Title,
		Logo:  cfg.Navbar.Logo,
		Items: cfg.Navbar.Items,
		URLs:  cfg,
	})

	checks := []string{
		`<a href="#main-content" class="skip-link">`,
		`<a href="/ai-on-sagemaker-hyperpod/" class="nav-brand">`,
		`<img src="/ai-on-sagemaker-hyperpod/img/Amazon-Sagemaker-Icon.jpg" alt="AI on SageMaker HyperPod"`,
		`<a href="/ai-on-sagemaker-hyperpod/docs/Introduction" class="nav-link">Introduction</a>`,
		`<summary class="nav-link">EKS Orchestration</summary>`,
		`<a href="/ai-on-sagemaker-hyperpod/docs/category/inference">Inference</a>`,
		`Tips &amp; Best Practices`,
		`<div class="nav-items nav-items-right">`,
		`<a href="https://github.com/awslabs/ai-on-sagemaker-hyperpod" class="nav-link" target="_blank" rel="noopener noreferrer">GitHub</a>`,
	}
	for _, want := range checks {
		if !strings.Contains(out, want) {
			t.Errorf("expected navbar to contain %q", want)
		}
	}
	if n := strings.Count(out, `<details class="dropdown">`); n != 3 {
		t.Errorf("expected 3 dropdowns, got %d", n)
	}
}

func TestRenderHero(t *testing.T) {
	cfg := defaultConfig(t)

	out := RenderHero(HeroOptions{
		Title:    cfg.Title,
		Subtitle: cfg.Tagline,
		Hero:     site.HomeHero(),
		Aside:    "<aside>carousel</aside>",
		URLs:     cfg,
	})

	eks := strings.Index(out, "Orchestrated by EKS")
	img := strings.Index(out, `class="hero-image"`)
	slurm := strings.Index(out, "Orchestrated by SLURM")
	if eks == -1 || img == -1 || slurm == -1 {
		t.Fatalf("missing hero parts:\n%s", out)
	}
	if !(eks < img && img < slurm) {
		t.Error("expected the image between the two actions")
	}
	if !strings.Contains(out, `href="/ai-on-sagemaker-hyperpod/docs/eks-orchestration/getting-started/initial-cluster-setup"`) {
		t.Error("EKS action not resolved against the base URL")
	}
	if !strings.Contains(out, `<div class="hero-right">`+"\n<aside>carousel</aside>") {
		t.Error("expected aside in the right column")
	}
	if !strings.Contains(out, `<h1 id="hero-title" class="hero__title">AI on SageMaker HyperPod</h1>`) {
		t.Error("missing title")
	}
}

func TestRenderFeatures(t *testing.T) {
	cfg := defaultConfig(t)

	out := RenderFeatures(FeaturesOptions{Features: site.Features(), URLs: cfg})

	if n := strings.Count(out, `<article class="feature">`); n != 4 {
		t.Errorf("expected 4 features, got %d", n)
	}
	if !strings.Contains(out, `<div class="grid grid-4">`) {
		t.Error("expected four-column grid")
	}
	if !strings.Contains(out, `src="/ai-on-sagemaker-hyperpod/img/resilient.png"`) {
		t.Error("feature image not resolved")
	}
	if !strings.Contains(out, "by up to 40%.") {
		t.Error("missing feature description")
	}
}

func TestRenderVideos_AlternatesLayout(t *testing.T) {
	out := RenderVideos(VideosOptions{Title: "Videos", Subtitle: "Watch", Videos: site.Videos()})

	rows := strings.Split(out, `<div class="video-row`)[1:]
	if len(rows) != 3 {
		t.Fatalf("expected 3 video rows, got %d", len(rows))
	}
	for i, row := range rows {
		reversed := strings.HasPrefix(row, ` video-row--reversed"`)
		if reversed != (i%2 == 1) {
			t.Errorf("row %d: reversed=%v", i, reversed)
		}
	}

	if !strings.Contains(out, `<iframe src="https://www.youtube.com/embed/mYiZOYlpoO0" title="Accelerate FM pre-training on Amazon SageMaker HyperPod (Amazon EKS)"`) {
		t.Error("missing first embed")
	}
	if !strings.Contains(out, `Learn more about Amazon SageMaker HyperPod - <a href="https://go.aws/3WwsBA3"`) {
		t.Error("missing learn-more link")
	}
	if !strings.Contains(out, `<h2 id="videos-title">Videos</h2>`) {
		t.Error("missing section title")
	}
}

func TestRenderFooter(t *testing.T) {
	cfg := defaultConfig(t)

	out := RenderFooter(FooterOptions{
		Groups:    cfg.Footer.Links,
		Copyright: "Copyright © 2030 AWS",
		URLs:      cfg,
	})

	if n := strings.Count(out, `<nav class="footer-group"`); n != 3 {
		t.Errorf("expected 3 footer groups, got %d", n)
	}
	if !strings.Contains(out, `<a href="https://repost.aws" class="footer-link" target="_blank" rel="noopener noreferrer">AWS re:Post</a>`) {
		t.Error("missing external footer link")
	}
	if !strings.Contains(out, `<a href="/ai-on-sagemaker-hyperpod/docs/getting-started/orchestrated-by-eks/initial-cluster-setup" class="footer-link">Orchestrated by EKS</a>`) {
		t.Error("missing internal footer link")
	}
	if !strings.Contains(out, "Copyright © 2030 AWS") {
		t.Error("missing copyright")
	}
	if !strings.Contains(out, `footer--dark`) {
		t.Error("expected dark style by default")
	}
}
