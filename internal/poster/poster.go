// Package poster rewrites known image CDN URLs to their high-resolution
// variants. Unknown hosts pass through untouched.
package poster

import (
	"net/url"
	"strings"
)

// AmazonSizeToken is the size directive requested from the IMDb image CDN.
const AmazonSizeToken = "_V1_UY2000_CR0,0,1500,2000_AL_"

// TMDBSize is the path segment requested from the TMDB image CDN.
const TMDBSize = "w780"

var tmdbSmallSizes = map[string]struct{}{
	"w92":  {},
	"w154": {},
	"w185": {},
	"w342": {},
	"w500": {},
}

// Normalize returns the high-resolution form of a poster URL. It never fails:
// empty, unparsable or foreign URLs come back unchanged, and applying it twice
// gives the same result as applying it once.
func Normalize(raw string) string {
	if raw == "" {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.ToLower(u.Hostname())

	// Work on the raw text so the original escaping survives.
	base, suffix := splitSuffix(raw)
	switch {
	case hostMatches(host, "media-amazon.com"):
		return rewriteAmazon(base) + suffix
	case hostMatches(host, "tmdb.org"), hostMatches(host, "themoviedb.org"):
		return rewriteTMDB(base) + suffix
	default:
		return raw
	}
}

// NormalizePtr is Normalize for nullable columns.
func NormalizePtr(raw *string) *string {
	if raw == nil {
		return nil
	}
	out := Normalize(*raw)
	return &out
}

func hostMatches(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// splitSuffix separates the query string and fragment from the rest.
func splitSuffix(raw string) (string, string) {
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		return raw[:i], raw[i:]
	}
	return raw, ""
}

// pathStart returns the offset of the first path byte, or -1 when the URL
// has no path.
func pathStart(base string) int {
	start := 0
	if i := strings.Index(base, "//"); i >= 0 {
		start = i + 2
	}
	if j := strings.Index(base[start:], "/"); j >= 0 {
		return start + j
	}
	return -1
}

func rewriteAmazon(base string) string {
	if pathStart(base) < 0 {
		return base
	}
	slash := strings.LastIndex(base, "/")
	dir, file := base[:slash+1], base[slash+1:]

	dot := strings.LastIndex(file, ".")
	if dot <= 0 {
		return base
	}
	stem, ext := file[:dot], file[dot:]

	if i := strings.Index(stem, "_V1_"); i >= 0 {
		return dir + stem[:i] + AmazonSizeToken + ext
	}
	// "name@.jpg" carries no size directive yet.
	if strings.HasSuffix(stem, "@") {
		return dir + stem + "." + AmazonSizeToken + ext
	}
	return base
}

func rewriteTMDB(base string) string {
	p := pathStart(base)
	if p < 0 {
		return base
	}
	segments := strings.Split(base[p:], "/")
	for i, seg := range segments {
		if _, ok := tmdbSmallSizes[seg]; ok {
			segments[i] = TMDBSize
		}
	}
	return base[:p] + strings.Join(segments, "/")
}
