package site

import "slices"

// YouTubeEmbedBase is the player URL prefix for embedded videos.
const YouTubeEmbedBase = "https://www.youtube.com/embed/"

// Feature is one entry of the homepage feature grid.
type Feature struct {
	Title       string
	Image       string
	Alt         string
	Description string
}

// Video is an embedded tutorial.
type Video struct {
	ID          string
	Title       string
	VideoID     string
	Description string
	// LearnMore is the text before the link, e.g. "Learn more at:".
	LearnMore    string
	LearnMoreURL string
}

// EmbedURL returns the player URL for the video.
func (v Video) EmbedURL() string {
	return YouTubeEmbedBase + v.VideoID
}

// Reversed reports whether the video at position i puts its description
// before the player. Odd positions alternate the layout.
func Reversed(i int) bool {
	return i%2 == 1
}

// Card is a carousel card announcing a release.
type Card struct {
	Title       string
	Description string
	ArticleLink string
	Image       string
}

// Hero is the homepage header.
type Hero struct {
	Image    string
	ImageAlt string
	// Actions flank the image: the first before it, the rest after.
	Actions []Link
}

var features = []Feature{
	{
		Title: "Remove interruptions with a resilient development environment",
		Image: "img/resilient.png",
		Alt:   "Resilient development environment",
		Description: "Automatically detects, diagnoses, and recovers from infrastructure faults. " +
			"Run model development workloads continuously for months without interruption " +
			"through intelligent fault management and self-healing capabilities.",
	},
	{
		Title: "Efficiently scale and parallelize model training across thousands of AI accelerators",
		Image: "img/scale.png",
		Alt:   "State-of-the-art performance",
		Description: "Automatically splits models and datasets across AWS cluster instances for " +
			"efficient scaling. Optimizes training jobs for AWS network infrastructure " +
			"and cluster topology. Streamlines checkpointing with optimized frequency " +
			"to minimize training overhead.",
	},
	{
		Title: "Achieve state-of-the-art performance with recipes and tools",
		Image: "img/performance.png",
		Alt:   "State-of-the-art performance",
		Description: "Pre-built recipes enable rapid training and fine-tuning of generative AI " +
			"models in minutes. Customize Amazon Nova foundation models for business-specific " +
			"use cases while maintaining industry-leading performance. Built-in experimentation " +
			"and observability tools help enhance model performance across all skill levels.",
	},
	{
		Title: "Reduce costs with centralized governance over all model development tasks",
		Image: "img/cost-v1.png",
		Alt:   "State-of-the-art performance",
		Description: "Provides full visibility and control over compute resource allocation for " +
			"training and inference tasks. Automatically manages task queues, prioritizing " +
			"critical work to meet deadlines and budgets. Efficient resource utilization " +
			"reduces model development costs by up to 40%.",
	},
}

var videos = []Video{
	{
		ID:      "video1",
		Title:   "Accelerate FM pre-training on Amazon SageMaker HyperPod (Amazon EKS)",
		VideoID: "mYiZOYlpoO0",
		Description: "Amazon SageMaker HyperPod is purpose-built to reduce time to train foundation models (FMs) " +
			"by up to 40% and scale across more than a thousand AI accelerators efficiently. " +
			"In this video, learn about Amazon EKS support in SageMaker HyperPod to accelerate your FM training.",
		LearnMore:    "Learn more at:",
		LearnMoreURL: "https://go.aws/3TUKZSs",
	},
	{
		ID:      "video2",
		Title:   "Accelerate FM pre-training on Amazon SageMaker HyperPod (Slurm)",
		VideoID: "aP6kok1yPMM",
		Description: "Amazon SageMaker HyperPod is purpose-built to reduce time to train foundation models (FMs) " +
			"by up to 40% and scale across more than a thousand AI accelerators efficiently. " +
			"In this video, dive into how to run distributed training on SageMaker HyperPod.",
		LearnMore:    "Learn more at:",
		LearnMoreURL: "https://go.aws/3TUKZSs",
	},
	{
		ID:      "video3",
		Title:   "Get started with Amazon SageMaker HyperPod flexible training plans",
		VideoID: "Itcw8zhdArY",
		Description: "Amazon SageMaker HyperPod helps you scale and accelerate generative AI model development. " +
			"In this video, you will learn how to use the flexible training plans feature to run efficient " +
			"model training that aligns with your timelines and budgets.",
		LearnMore:    "Learn more about Amazon SageMaker HyperPod -",
		LearnMoreURL: "https://go.aws/3WwsBA3",
	},
}

const cardImage = "img/99-front-page/whats-news-card-1.png"

var cards = []Card{
	{
		Title: "Amazon SageMaker HyperPod now supports custom AMIs",
		Description: "Deploy clusters with pre-configured, security-hardened environments that meet organizational " +
			"requirements. Custom AMIs enable faster startup times and consistent configurations across cluster nodes.",
		ArticleLink: "https://aws.amazon.com/about-aws/whats-new/2025/08/sagemaker-hyperpod-support-custom-ami/",
		Image:       cardImage,
	},
	{
		Title: "Announcing Managed Tiered Checkpointing for Amazon SageMaker HyperPodTraining Best Practices",
		Description: "Train reliably on large-scale clusters with configurable checkpoint frequency across in-memory " +
			"and persistent storage. Integrated with PyTorch's Distributed Checkpoint for easy implementation.",
		ArticleLink: "https://aws.amazon.com/about-aws/whats-new/2025/09/managed-tiered-checkpointing-amazon-sagemaker-hyperpod/",
		Image:       cardImage,
	},
	{
		Title: "Amazon SageMaker HyperPod now supports autoscaling using Karpenter",
		Description: "Automatically scale clusters to meet dynamic inference and training demands. Managed node " +
			"autoscaling eliminates Karpenter setup overhead while providing integrated resilience and fault tolerance.",
		ArticleLink: "https://aws.amazon.com/about-aws/whats-new/2025/09/sagemaker-hyperpod-autoscaling/",
		Image:       cardImage,
	},
	{
		Title: "Amazon SageMaker AI now supports P6e-GB200 UltraServers",
		Description: "Deliver 20x compute and 11x memory performance with 360 petaflops of FP8 compute and 13.4 TB " +
			"HBM3e memory. Combined with SageMaker's managed infrastructure and monitoring capabilities.",
		ArticleLink: "https://aws.amazon.com/about-aws/whats-new/2025/08/sagemaker-p6e-gb200-ultraservers/",
		Image:       cardImage,
	},
}

var hero = Hero{
	Image:    "img/central-intro-image.jpg",
	ImageAlt: "Amazon Sagemaker Hyperpod - the central infrastructure brain of your large distributed training jobs",
	Actions: []Link{
		{Label: "Orchestrated by EKS", To: "/docs/eks-orchestration/getting-started/initial-cluster-setup"},
		{Label: "Orchestrated by SLURM", To: "/docs/slurm-orchestration/getting-started/initial-cluster-setup"},
	},
}

// Features returns the feature grid entries. The slice is a copy.
func Features() []Feature {
	return slices.Clone(features)
}

// Videos returns the tutorial videos in display order.
func Videos() []Video {
	return slices.Clone(videos)
}

// Cards returns the carousel cards in rotation order.
func Cards() []Card {
	return slices.Clone(cards)
}

// HomeHero returns the homepage header content.
func HomeHero() Hero {
	h := hero
	h.Actions = slices.Clone(hero.Actions)
	return h
}
