package youtubeapi

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultBaseURL is the public YouTube origin used for watch pages and innertube calls.
const DefaultBaseURL = "https://www.youtube.com"

// VideoWatchURL returns the watch page URL for a video id.
func VideoWatchURL(baseURL, videoID string) string {
	return strings.TrimRight(baseOrDefault(baseURL), "/") + "/watch?v=" + videoID
}

// ChannelLiveURL returns the URL that redirects to a channel's current live stream.
func ChannelLiveURL(baseURL, channelID string) string {
	return strings.TrimRight(baseOrDefault(baseURL), "/") + "/channel/" + channelID + "/live"
}

// ParseWatchURL validates an arbitrary URL and returns it unchanged.
// It must be absolute (scheme and host).
func ParseWatchURL(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: scheme and host required", raw)
	}
	return raw, nil
}

func baseOrDefault(baseURL string) string {
	if baseURL == "" {
		return DefaultBaseURL
	}
	return baseURL
}
