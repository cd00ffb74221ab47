package sources

import (
	"net/url"
	"os"
	"strings"
)

// Resolve turns each configured URL string into a SourceDescriptor. The URL
// path is split into segments; when at least two non-empty segments exist the
// first two become the repository owner and name (GitHub convention),
// otherwise both stay empty. URLs that fail to parse still yield a descriptor
// so the fetch path can surface the failure against the raw string.
func Resolve(urls []string) []*SourceDescriptor {
	token := os.Getenv("GITHUB_TOKEN")

	descs := make([]*SourceDescriptor, 0, len(urls))
	for _, raw := range urls {
		desc := &SourceDescriptor{
			URL:     raw,
			Headers: map[string]string{},
		}

		if parsed, err := url.Parse(raw); err == nil {
			segments := nonEmptySegments(parsed.Path)
			if len(segments) >= 2 {
				desc.Owner = segments[0]
				desc.Name = segments[1]
			}
		}

		if token != "" && desc.IsGitHub() {
			desc.Headers["Authorization"] = "Bearer " + token
		}

		descs = append(descs, desc)
	}
	return descs
}

// Dedupe removes duplicate descriptors keyed by raw URL, keeping the first
// occurrence and preserving order.
func Dedupe(descs []*SourceDescriptor) []*SourceDescriptor {
	seen := make(map[string]bool, len(descs))
	unique := make([]*SourceDescriptor, 0, len(descs))
	for _, desc := range descs {
		if seen[desc.URL] {
			continue
		}
		seen[desc.URL] = true
		unique = append(unique, desc)
	}
	return unique
}

// nonEmptySegments splits a URL path and drops empty segments.
func nonEmptySegments(path string) []string {
	var segments []string
	for _, s := range strings.Split(strings.TrimPrefix(path, "/"), "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return segments
}
