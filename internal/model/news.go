package model

// NewsItem is one article returned by the news search provider.
type NewsItem struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	PublishedDate string  `json:"published_date,omitempty"`
	Content       string  `json:"content,omitempty"`
	Score         float64 `json:"score,omitempty"`
}
