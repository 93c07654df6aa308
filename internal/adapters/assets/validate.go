package assets

import (
	"net/url"
	"regexp"
	"strings"
)

var imageExt = regexp.MustCompile(`(?i)\.(png|jpg|jpeg|gif|webp)$`)

// ValidateThumbnail devuelve la URL si es absoluta y termina en una extensión
// de imagen conocida; si no, "" y el embed sale sin thumbnail.
func ValidateThumbnail(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	// la extensión se mira sobre el path, así ?query no la rompe
	if !imageExt.MatchString(u.Path) {
		return ""
	}
	return raw
}
