package sources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/quartus-community/de-catalog/internal/httpclient"
	"github.com/quartus-community/de-catalog/internal/versions"
)

// defaultAPIBaseURL is the GitHub REST API endpoint.
const defaultAPIBaseURL = "https://api.github.com"

// githubHandler fetches design example items from GitHub repository
// releases. Each release is scanned for a list.json asset; the items it
// declares are resolved against that release's asset index and enriched with
// provenance fields.
type githubHandler struct {
	httpClient httpclient.Client
	apiBaseURL string
}

var _ SourceHandler = (*githubHandler)(nil)

// NewGitHubHandler creates a release-backed source handler. An empty
// apiBaseURL selects the public GitHub API.
func NewGitHubHandler(httpClient httpclient.Client, apiBaseURL string) SourceHandler {
	if apiBaseURL == "" {
		apiBaseURL = defaultAPIBaseURL
	}
	return &githubHandler{
		httpClient: httpClient,
		apiBaseURL: apiBaseURL,
	}
}

// Fetch retrieves every release of the repository and concatenates the
// normalized items of each release's list.json, preserving release order.
// Failures inside a single release are reported as Issues and do not stop
// sibling releases. An error is returned only when the release list itself
// cannot be fetched.
func (h *githubHandler) Fetch(ctx context.Context, desc *SourceDescriptor) (*FetchResult, error) {
	releases, err := h.fetchReleases(ctx, desc)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch releases for repository %s: %w", desc.RepoID(), err)
	}

	result := &FetchResult{}
	var latestTag string

	for _, release := range releases {
		items, issues := h.processRelease(ctx, desc, release)
		result.Issues = append(result.Issues, issues...)
		result.Items = append(result.Items, items...)

		if latestTag == "" || versions.IsNewerVersion(release.TagName, latestTag) {
			latestTag = release.TagName
		}
	}

	result.LatestRelease = latestTag

	if len(result.Items) == 0 {
		result.Issues = append(result.Issues, Issue{
			Severity: SeverityError,
			Source:   desc.URL,
			Message:  fmt.Sprintf("unable to read any %s in any release", ListJSONAsset),
		})
	}

	return result, nil
}

// fetchReleases retrieves the repository's release list, newest first as the
// API returns them.
func (h *githubHandler) fetchReleases(ctx context.Context, desc *SourceDescriptor) ([]Release, error) {
	releasesURL := fmt.Sprintf("%s/repos/%s/%s/releases", h.apiBaseURL, desc.Owner, desc.Name)

	header := headerWithAccept(desc.Headers, "application/vnd.github+json")
	data, err := h.httpClient.Get(ctx, releasesURL, header)
	if err != nil {
		return nil, err
	}

	var releases []Release
	if err := json.Unmarshal(data, &releases); err != nil {
		return nil, fmt.Errorf("malformed release list: %w", err)
	}
	return releases, nil
}

// processRelease resolves one release: locate its list.json asset, fetch and
// parse it, and enrich every declared item against the release's asset index.
func (h *githubHandler) processRelease(
	ctx context.Context, desc *SourceDescriptor, release Release,
) ([]Item, []Issue) {
	assetIndex := make(map[string]string, len(release.Assets))
	listJSONURL := ""
	for _, asset := range release.Assets {
		assetIndex[asset.Name] = asset.URL
		if asset.Name == ListJSONAsset {
			listJSONURL = asset.URL
		}
	}

	if listJSONURL == "" {
		return nil, []Issue{{
			Severity: SeverityWarning,
			Source:   desc.URL,
			Release:  release.TagName,
			Message:  fmt.Sprintf("unable to read %s, skipping release", ListJSONAsset),
		}}
	}

	// Asset content downloads require the octet-stream media type, see
	// https://docs.github.com/en/rest/releases/assets
	header := headerWithAccept(desc.Headers, "application/octet-stream")
	data, err := h.httpClient.Get(ctx, listJSONURL, header)
	if err != nil {
		return nil, []Issue{{
			Severity: SeverityWarning,
			Source:   desc.URL,
			Release:  release.TagName,
			Message:  fmt.Sprintf("unable to fetch %s: %v", ListJSONAsset, err),
		}}
	}

	items, env, err := ExtractItems(data)
	if err != nil {
		return nil, []Issue{{
			Severity: SeverityWarning,
			Source:   desc.URL,
			Release:  release.TagName,
			Message:  fmt.Sprintf("unable to parse %s: %v", ListJSONAsset, err),
		}}
	}
	if env == EnvelopeUnknown {
		return nil, []Issue{{
			Severity: SeverityWarning,
			Source:   desc.URL,
			Release:  release.TagName,
			Message:  fmt.Sprintf("invalid data format: %s", truncateForLog(data)),
		}}
	}

	var issues []Issue
	repoID := desc.RepoID()
	for _, item := range items {
		if resolved, ok := assetIndex[item.DownloadURL()]; ok {
			item[ResolvedDownloadURLKey] = resolved
		} else {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Source:   desc.URL,
				Release:  release.TagName,
				Message:  fmt.Sprintf("missing asset %s", item.DownloadURL()),
			})
			item[ResolvedDownloadURLKey] = ""
		}

		item[ReleaseTagKey] = release.TagName
		item[RichDescriptionKey] = RewriteImageURLs(item.RichDescription(), repoID)
	}

	return items, issues
}

// headerWithAccept copies the descriptor headers and forces the accept type,
// leaving the descriptor itself untouched.
func headerWithAccept(base map[string]string, accept string) map[string]string {
	header := make(map[string]string, len(base)+1)
	for k, v := range base {
		header[k] = v
	}
	header["Accept"] = accept
	return header
}

// truncateForLog bounds an offending payload quoted in an issue message.
func truncateForLog(data []byte) string {
	const limit = 256
	if len(data) > limit {
		return string(data[:limit]) + "..."
	}
	return string(data)
}
