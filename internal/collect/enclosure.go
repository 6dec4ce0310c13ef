package collect

import "strings"

// FileTypes maps supported enclosure media types to file extensions.
var FileTypes = map[string]string{
	"audio/mpeg":   "mp3",
	"audio/mp3":    "mp3",
	"audio/aac":    "aac",
	"audio/mp4":    "m4a",
	"audio/x-opus": "opus",
	"audio/x-ogg":  "ogg",
	"video/x-m4v":  "m4v",
	"video/mp4":    "m4v",
}

// Link is one media reference attached to a feed entry.
type Link struct {
	Type   string
	Href   string
	Length int64
}

// Enclosure is the downloadable media chosen for an entry.
type Enclosure struct {
	URL       string
	Length    int64
	Type      string
	Extension string
}

// SelectEnclosure returns the first link whose media type is in FileTypes.
// Declaration order decides; there is no ranking by quality or size.
func SelectEnclosure(links []Link) (Enclosure, bool) {
	for _, l := range links {
		if l.Href == "" {
			continue
		}
		mediaType := normalizeMediaType(l.Type)
		ext, ok := FileTypes[mediaType]
		if !ok {
			continue
		}
		return Enclosure{
			URL:       l.Href,
			Length:    l.Length,
			Type:      mediaType,
			Extension: ext,
		}, true
	}
	return Enclosure{}, false
}

func normalizeMediaType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(t))
}
