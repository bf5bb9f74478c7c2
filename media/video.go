package media

import "regexp"

var (
	youtubeRe = regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\s]+)`)
	vimeoRe   = regexp.MustCompile(`vimeo\.com/(\d+)`)
)

// EmbedURL turns a YouTube or Vimeo link into its player URL. Other links
// yield "".
func EmbedURL(videoURL string) string {
	if videoURL == "" {
		return ""
	}
	if m := youtubeRe.FindStringSubmatch(videoURL); m != nil {
		return "https://www.youtube.com/embed/" + m[1]
	}
	if m := vimeoRe.FindStringSubmatch(videoURL); m != nil {
		return "https://player.vimeo.com/video/" + m[1]
	}
	return ""
}
