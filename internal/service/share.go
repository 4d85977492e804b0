package service

import (
	"fmt"
	"net/url"
)

// ShareLink builds the share URL for a social platform. Pure URL templating,
// no platform API is called.
func ShareLink(platform, title, postURL string) (string, error) {
	switch platform {
	case "twitter":
		return fmt.Sprintf("https://twitter.com/intent/tweet?text=%s&url=%s",
			url.QueryEscape(title), url.QueryEscape(postURL)), nil
	case "linkedin":
		return fmt.Sprintf("https://www.linkedin.com/sharing/share-offsite/?url=%s",
			url.QueryEscape(postURL)), nil
	case "facebook":
		return fmt.Sprintf("https://www.facebook.com/sharer/sharer.php?u=%s",
			url.QueryEscape(postURL)), nil
	default:
		return "", fmt.Errorf("unsupported share platform: %s", platform)
	}
}
