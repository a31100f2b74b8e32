package transcript

import (
	"errors"
	"net/url"
	"strings"
)

// ErrVideoIDNotFound is returned when a URL is not a recognised video link.
var ErrVideoIDNotFound = errors.New("video id not found")

// VideoID extracts the video identifier from the youtu.be, watch, embed and
// /v/ URL shapes.
func VideoID(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", ErrVideoIDNotFound
	}
	var id string
	switch u.Hostname() {
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	case "www.youtube.com", "youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"), strings.HasPrefix(u.Path, "/v/"):
			id = strings.Split(u.Path, "/")[2]
		}
	}
	if id == "" {
		return "", ErrVideoIDNotFound
	}
	return id, nil
}
