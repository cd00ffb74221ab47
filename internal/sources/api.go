package sources

import (
	"context"
	"fmt"

	"github.com/quartus-community/de-catalog/internal/httpclient"
)

// genericHandler fetches design example items from a plain JSON endpoint.
// Kept for the legacy design-store service, which predates the release-based
// distribution flow.
type genericHandler struct {
	httpClient httpclient.Client
}

var _ SourceHandler = (*genericHandler)(nil)

// NewGenericHandler creates a source handler for non-GitHub JSON endpoints.
func NewGenericHandler(httpClient httpclient.Client) SourceHandler {
	return &genericHandler{
		httpClient: httpClient,
	}
}

// Fetch performs a single GET against the source URL and extracts its item
// list. There is no asset index for these sources: the declared downloadUrl
// is assumed directly fetchable and is copied to the resolved field verbatim.
func (h *genericHandler) Fetch(ctx context.Context, desc *SourceDescriptor) (*FetchResult, error) {
	data, err := h.httpClient.Get(ctx, desc.URL, desc.Headers)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	items, env, err := ExtractItems(data)
	if err != nil {
		return nil, fmt.Errorf("URL did not return a valid item list: %w", err)
	}
	if env == EnvelopeUnknown {
		return &FetchResult{
			Issues: []Issue{{
				Severity: SeverityWarning,
				Source:   desc.URL,
				Message:  fmt.Sprintf("invalid data format: %s", truncateForLog(data)),
			}},
		}, nil
	}

	result := &FetchResult{Items: items}

	if len(items) == 0 {
		result.Issues = append(result.Issues, Issue{
			Severity: SeverityError,
			Source:   desc.URL,
			Message:  "unable to find any design examples",
		})
		return result, nil
	}

	for _, item := range items {
		item[ResolvedDownloadURLKey] = item.DownloadURL()
	}
	return result, nil
}
