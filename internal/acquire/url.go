package acquire

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	MsgInvalidYouTubeURL   = "URL do YouTube inválida"
	MsgInvalidInstagramURL = "URL do Instagram inválida"
	MsgMissingURL          = "URL não fornecida"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// hosts where the video id travels in the "v" query parameter or in a path
// segment after one of pathPrefixes
var youtubeHosts = map[string]bool{
	"youtube.com":        true,
	"www.youtube.com":    true,
	"m.youtube.com":      true,
	"music.youtube.com":  true,
	"gaming.youtube.com": true,
}

var pathPrefixes = []string{"/embed/", "/v/", "/shorts/", "/live/"}

// YouTubeVideoID extracts the 11 character video id from a YouTube URL.
func YouTubeVideoID(raw string) (string, bool) {
	u, ok := parseHTTPURL(raw)
	if !ok {
		return "", false
	}

	host := strings.ToLower(u.Hostname())
	var id string
	switch {
	case host == "youtu.be":
		id = firstSegment(u.Path)
	case youtubeHosts[host]:
		if v := u.Query().Get("v"); v != "" {
			id = v
			break
		}
		for _, prefix := range pathPrefixes {
			if strings.HasPrefix(u.Path, prefix) {
				id = firstSegment(strings.TrimPrefix(u.Path, prefix))
				break
			}
		}
	}

	if !videoIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

func IsYouTubeURL(raw string) bool {
	_, ok := YouTubeVideoID(raw)
	return ok
}

// IsWellFormedURL accepts absolute http(s) URLs with a host.
func IsWellFormedURL(raw string) bool {
	_, ok := parseHTTPURL(raw)
	return ok
}

func parseHTTPURL(raw string) (*url.URL, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, false
	}
	if u.Hostname() == "" {
		return nil, false
	}
	return u, true
}

func firstSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
