package transcript

import (
	"context"
	"strings"

	"github.com/phuslu/log"
)

// Collector turns video URLs into plain transcript text.
type Collector struct {
	Source CaptionSource
	// URLs are collected by CollectAll. When empty, Placeholder is returned instead.
	URLs        []string
	Placeholder string
}

// NewCollector creates a transcript collector.
func NewCollector(source CaptionSource, urls []string, placeholder string) *Collector {
	return &Collector{Source: source, URLs: urls, Placeholder: placeholder}
}

// Collect returns the transcript of one video with fragments joined by single
// spaces. Any failure is logged and yields "".
func (c *Collector) Collect(ctx context.Context, videoURL string) string {
	id, err := VideoID(videoURL)
	if err != nil {
		log.Warn().Err(err).Str("url", videoURL).Msg("invalid video url")
		return ""
	}
	frags, err := c.Source.Fragments(ctx, id)
	if err != nil {
		log.Warn().Err(err).Str("video_id", id).Msg("transcript fetch failed")
		return ""
	}
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.Text
	}
	return strings.Join(parts, " ")
}

// CollectAll gathers every configured video and joins non-empty transcripts
// with blank lines.
func (c *Collector) CollectAll(ctx context.Context) string {
	if len(c.URLs) == 0 {
		return c.Placeholder
	}
	var texts []string
	for _, u := range c.URLs {
		if text := c.Collect(ctx, u); text != "" {
			texts = append(texts, text)
		}
	}
	log.Info().Int("videos", len(c.URLs)).Int("transcripts", len(texts)).Msg("transcripts collected")
	return strings.Join(texts, "\n\n")
}
