// Package sources implements the fetch half of the aggregation pipeline:
// resolving configured URLs into source descriptors, retrieving design
// example metadata from GitHub releases or generic JSON endpoints, and
// normalizing the items each source returns.
package sources

import (
	"context"
	"fmt"
	"strings"
)

const (
	// ListJSONAsset is the release asset name that carries a source's item list
	ListJSONAsset = "list.json"

	// DownloadURLKey is the item field naming the declared download reference
	DownloadURLKey = "downloadUrl"

	// RichDescriptionKey is the item field carrying HTML markup that may embed images
	RichDescriptionKey = "rich_description"

	// ResolvedDownloadURLKey is stamped with the direct-fetch URL, or "" if unresolved
	ResolvedDownloadURLKey = "Q_DOWNLOAD_URL"

	// ReleaseTagKey is stamped with the originating release tag (GitHub sources only)
	ReleaseTagKey = "Q_GITHUB_RELEASE"

	// ValidatedKey is stamped true on every aggregated item
	ValidatedKey = "Q_VALIDATED"
)

// Item is one design example record. Sources define their own fields, so the
// shape is open-ended; the aggregator only reads downloadUrl and
// rich_description and writes the Q_* provenance fields.
type Item map[string]any

// DownloadURL returns the item's declared download reference, or "" if the
// field is missing or not a string.
func (i Item) DownloadURL() string {
	s, _ := i[DownloadURLKey].(string)
	return s
}

// RichDescription returns the item's HTML description, or "" if missing.
func (i Item) RichDescription() string {
	s, _ := i[RichDescriptionKey].(string)
	return s
}

// SourceDescriptor is the parsed form of one configured source URL.
// Owner and Name are filled from the first two path segments when present
// (GitHub convention) and are empty otherwise.
type SourceDescriptor struct {
	URL     string
	Headers map[string]string
	Owner   string
	Name    string
}

// RepoID returns the "owner/name" identifier used for image URL rewriting.
func (d *SourceDescriptor) RepoID() string {
	return d.Owner + "/" + d.Name
}

// IsGitHub reports whether the descriptor points at a GitHub-flavored source.
func (d *SourceDescriptor) IsGitHub() bool {
	return strings.Contains(d.URL, "github.com")
}

// Release is one GitHub repository release with its downloadable assets,
// in the order the API returned them.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is a named downloadable file attached to a release. URL is the
// asset-fetch reference, which requires an octet-stream accept header.
type Asset struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Severity classifies how an Issue should be reported.
type Severity string

const (
	// SeverityWarning marks a partial failure the run continues past
	SeverityWarning Severity = "warning"

	// SeverityError marks a failure that cost the run an entire source
	SeverityError Severity = "error"
)

// Issue is one recoverable failure observed while fetching or normalizing a
// source. Issues are accumulated and returned alongside partial results so
// the orchestrator, not the fetch path, decides whether the run survives.
type Issue struct {
	Severity Severity
	Source   string
	Release  string
	Message  string
}

func (i Issue) String() string {
	if i.Release != "" {
		return fmt.Sprintf("%s [%s] release %q: %s", i.Severity, i.Source, i.Release, i.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", i.Severity, i.Source, i.Message)
}

// FetchResult contains the items one source contributed plus every issue
// encountered while producing them.
type FetchResult struct {
	// Items is the normalized item list in upstream order
	Items []Item

	// Issues is the set of recoverable failures for this source
	Issues []Issue

	// LatestRelease is the newest release tag seen (GitHub sources only),
	// reported in the run summary
	LatestRelease string
}

// SourceHandler fetches and normalizes the item list of a single source.
type SourceHandler interface {
	// Fetch retrieves the source's items. A returned error means the whole
	// source contributed nothing; partial failures travel in FetchResult.Issues.
	Fetch(ctx context.Context, desc *SourceDescriptor) (*FetchResult, error)
}

// HandlerFactory selects the handler matching a source descriptor.
type HandlerFactory interface {
	// HandlerFor returns the handler for the descriptor's source flavor
	HandlerFor(desc *SourceDescriptor) SourceHandler
}

// defaultHandlerFactory routes GitHub-flavored URLs to the release fetcher
// and everything else to the generic endpoint fetcher.
type defaultHandlerFactory struct {
	github  SourceHandler
	generic SourceHandler
}

var _ HandlerFactory = (*defaultHandlerFactory)(nil)

// NewHandlerFactory creates a handler factory backed by the given handlers.
func NewHandlerFactory(github, generic SourceHandler) HandlerFactory {
	return &defaultHandlerFactory{
		github:  github,
		generic: generic,
	}
}

// HandlerFor returns the GitHub handler when the raw URL mentions github.com,
// and the generic handler otherwise.
func (f *defaultHandlerFactory) HandlerFor(desc *SourceDescriptor) SourceHandler {
	if desc.IsGitHub() {
		return f.github
	}
	return f.generic
}
