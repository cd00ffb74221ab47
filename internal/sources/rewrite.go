package sources

import (
	"regexp"
	"strings"
)

// rawContentHost serves the direct-byte form of GitHub-hosted files.
const rawContentHost = "https://raw.githubusercontent.com/"

var imgTagPattern = regexp.MustCompile(`<img [^>]*src="([^"]+)"[^>]*>`)

// RewriteImageURLs rewrites <img> src attributes in HTML markup so that
// same-repository GitHub blob URLs point at their raw-content equivalent.
// Release descriptions commonly embed browsable blob URLs, which do not serve
// usable image bytes. Images hosted elsewhere, or in a different repository,
// pass through untouched so the rewrite never proxies foreign content as raw.
func RewriteImageURLs(text, repoID string) string {
	return imgTagPattern.ReplaceAllStringFunc(text, func(tag string) string {
		match := imgTagPattern.FindStringSubmatch(tag)
		if match == nil {
			return tag
		}
		src := match[1]
		if !strings.Contains(src, "github.com") || !strings.Contains(src, repoID) {
			return tag
		}
		return strings.ReplaceAll(tag, src, rawContentURL(src))
	})
}

// rawContentURL converts a browsable GitHub file URL to its raw-content form:
// everything after the first "github.com/", with any embedded credentials
// (up to the first "@") and the "blob/" path element stripped.
func rawContentURL(githubURL string) string {
	_, rest, found := strings.Cut(githubURL, "github.com/")
	if !found {
		rest = githubURL
	}
	if _, afterAt, hasAt := strings.Cut(rest, "@"); hasAt {
		rest = afterAt
	}
	rest = strings.ReplaceAll(rest, "blob/", "")
	return rawContentHost + rest
}
