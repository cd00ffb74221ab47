package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"
)

// sourceEntry is one element of the sources file. Only url is read; origin
// teams attach arbitrary bookkeeping fields alongside it.
type sourceEntry struct {
	URL string `json:"url"`
}

// LoadSourceURLs returns the list of source URLs to aggregate: the fixed
// legacy endpoint followed by every url field in the sources file. The file
// is hand-maintained, so comments and trailing commas are tolerated. A
// missing or malformed file is reported through the returned message and the
// legacy endpoint alone is used; it never fails the run.
func (c *Config) LoadSourceURLs() ([]string, string) {
	urls := []string{c.LegacyURL}

	data, err := os.ReadFile(c.SourcesFile)
	if err != nil {
		if os.IsNotExist(err) {
			return urls, fmt.Sprintf("sources file not found: %s", c.SourcesFile)
		}
		return urls, fmt.Sprintf("failed to read sources file %s: %v", c.SourcesFile, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return urls, fmt.Sprintf("failed to decode sources file %s: %v", c.SourcesFile, err)
	}

	var entries []sourceEntry
	if err := json.Unmarshal(standardized, &entries); err != nil {
		return urls, fmt.Sprintf("failed to decode sources file %s: %v", c.SourcesFile, err)
	}

	for _, entry := range entries {
		if entry.URL != "" {
			urls = append(urls, entry.URL)
		}
	}
	return urls, ""
}
