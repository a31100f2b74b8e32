package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

// DefaultYouTubeBaseURL is the host watch pages are loaded from.
const DefaultYouTubeBaseURL = "https://www.youtube.com"

// ErrNoCaptions is returned when a video exposes no caption tracks.
var ErrNoCaptions = errors.New("no caption tracks available")

// Fragment is one timed caption line.
type Fragment struct {
	Text     string
	Start    float64
	Duration float64
}

// CaptionSource fetches the caption fragments of a video in provider order.
type CaptionSource interface {
	Fragments(ctx context.Context, videoID string) ([]Fragment, error)
}

// YouTubeSource reads captions from the public watch page and timed-text endpoint.
type YouTubeSource struct {
	client    *resty.Client
	languages []string
}

// NewYouTubeSource creates a caption source. languages lists preferred track
// language codes in order.
func NewYouTubeSource(baseURL, proxyURL string, languages []string) *YouTubeSource {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("User-Agent", "Mozilla/5.0").
		SetHeader("Accept-Language", "en-US,en;q=0.9")
	if proxyURL != "" {
		client.SetProxy(proxyURL)
	}
	return &YouTubeSource{client: client, languages: languages}
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"`
}

func (s *YouTubeSource) Fragments(ctx context.Context, videoID string) ([]Fragment, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("v", videoID).
		Get("/watch")
	if err != nil {
		return nil, fmt.Errorf("load watch page: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("load watch page: status %d", resp.StatusCode())
	}

	tracks, err := captionTracks(resp.Body())
	if err != nil {
		return nil, err
	}
	track := s.pickTrack(tracks)

	resp, err = s.client.R().SetContext(ctx).Get(track.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("fetch captions: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch captions: status %d", resp.StatusCode())
	}
	return parseTimedText(resp.Body())
}

func (s *YouTubeSource) pickTrack(tracks []captionTrack) captionTrack {
	for _, lang := range s.languages {
		for _, t := range tracks {
			if t.LanguageCode == lang {
				return t
			}
		}
	}
	return tracks[0]
}

const captionTracksKey = `"captionTracks":`

// captionTracks finds the player response script and decodes its caption track list.
func captionTracks(page []byte) ([]captionTrack, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse watch page: %w", err)
	}

	var tracks []captionTrack
	var decodeErr error
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		idx := strings.Index(text, captionTracksKey)
		if idx < 0 {
			return true
		}
		// The array is followed by the rest of the player response, so decode
		// exactly one JSON value.
		dec := json.NewDecoder(strings.NewReader(text[idx+len(captionTracksKey):]))
		decodeErr = dec.Decode(&tracks)
		return false
	})
	if decodeErr != nil {
		return nil, fmt.Errorf("decode caption tracks: %w", decodeErr)
	}
	if len(tracks) == 0 {
		return nil, ErrNoCaptions
	}
	return tracks, nil
}

// parseTimedText reads <text start dur> elements in document order.
func parseTimedText(body []byte) ([]Fragment, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse captions: %w", err)
	}
	var out []Fragment
	doc.Find("text").Each(func(_ int, sel *goquery.Selection) {
		// Caption text arrives double escaped (&amp;#39;).
		text := strings.TrimSpace(html.UnescapeString(sel.Text()))
		if text == "" {
			return
		}
		start, _ := strconv.ParseFloat(sel.AttrOr("start", "0"), 64)
		dur, _ := strconv.ParseFloat(sel.AttrOr("dur", "0"), 64)
		out = append(out, Fragment{Text: text, Start: start, Duration: dur})
	})
	if len(out) == 0 {
		return nil, ErrNoCaptions
	}
	return out, nil
}
