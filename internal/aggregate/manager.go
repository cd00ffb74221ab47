// Package aggregate orchestrates a full catalog aggregation run: resolve the
// configured sources, fetch and normalize their items, merge the controller
// override and persist the catalog when its content changed.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/quartus-community/de-catalog/internal/catalog"
	"github.com/quartus-community/de-catalog/internal/config"
	"github.com/quartus-community/de-catalog/internal/httpclient"
	"github.com/quartus-community/de-catalog/internal/sources"
)

// Result contains the outcome of a completed aggregation run
type Result struct {
	// RunID correlates every log record of this run
	RunID string

	// Sources is the number of deduplicated sources processed
	Sources int

	// Items is the total number of aggregated design examples
	Items int

	// Written reports whether the catalog file was (re)written
	Written bool

	// Issues is every recoverable failure accumulated across the run
	Issues []sources.Issue
}

// Manager runs the aggregation pipeline
type Manager interface {
	// Run executes one complete aggregation. A non-nil error means the run
	// failed and no catalog was written; recoverable failures are in
	// Result.Issues either way.
	Run(ctx context.Context) (*Result, error)
}

// defaultManager is the default implementation of Manager
type defaultManager struct {
	cfg     *config.Config
	factory sources.HandlerFactory
	store   *catalog.Store
}

// NewManager creates a manager with injected collaborators.
func NewManager(cfg *config.Config, factory sources.HandlerFactory, store *catalog.Store) Manager {
	return &defaultManager{
		cfg:     cfg,
		factory: factory,
		store:   store,
	}
}

// NewDefaultManager wires the default HTTP client, source handlers and
// catalog store from the configuration.
func NewDefaultManager(cfg *config.Config) Manager {
	client := httpclient.NewDefaultClient(cfg.HTTPTimeout(), cfg.HTTP.UserAgent)
	factory := sources.NewHandlerFactory(
		sources.NewGitHubHandler(client, ""),
		sources.NewGenericHandler(client),
	)
	return NewManager(cfg, factory, catalog.NewStore(cfg.Output, cfg.Controller))
}

// Run executes the pipeline sequentially: sources one at a time, releases
// within a source one at a time. Source order is preserved in the merged
// catalog; a failing source contributes zero items and the run continues.
func (m *defaultManager) Run(ctx context.Context) (*Result, error) {
	result := &Result{RunID: uuid.NewString()}
	logger := slog.With("run_id", result.RunID)

	urls, loadMsg := m.cfg.LoadSourceURLs()
	if loadMsg != "" {
		issue := sources.Issue{
			Severity: sources.SeverityWarning,
			Source:   m.cfg.SourcesFile,
			Message:  loadMsg,
		}
		result.Issues = append(result.Issues, issue)
		logger.Warn("Proceeding with legacy endpoint only", "reason", loadMsg)
	}

	descs := sources.Dedupe(sources.Resolve(urls))
	result.Sources = len(descs)

	var items []sources.Item
	for _, desc := range descs {
		logger.Info("Processing source", "url", desc.URL)

		fetched := m.fetchSource(ctx, desc)
		for _, issue := range fetched.Issues {
			logIssue(logger, issue)
		}
		result.Issues = append(result.Issues, fetched.Issues...)

		// Validation status for aggregated items, regardless of source flavor
		for _, item := range fetched.Items {
			item[sources.ValidatedKey] = true
		}
		items = append(items, fetched.Items...)

		if len(fetched.Items) > 0 {
			logger.Info("Found design examples",
				"url", desc.URL,
				"count", len(fetched.Items),
				"latest_release", fetched.LatestRelease)
		}
	}

	result.Items = len(items)
	if result.Items == 0 {
		logger.Error("No design examples were aggregated from any source")
		return result, fmt.Errorf("no %s files were found in any configured source", sources.ListJSONAsset)
	}

	written, err := m.persist(ctx, logger, result, items)
	if err != nil {
		return result, err
	}
	result.Written = written

	logger.Info("Aggregation complete",
		"sources", result.Sources,
		"items", result.Items,
		"written", result.Written)
	return result, nil
}

// fetchSource runs one source through its handler, folding a whole-source
// failure into the issue list so sibling sources still get processed.
func (m *defaultManager) fetchSource(ctx context.Context, desc *sources.SourceDescriptor) *sources.FetchResult {
	handler := m.factory.HandlerFor(desc)
	fetched, err := handler.Fetch(ctx, desc)
	if err != nil {
		return &sources.FetchResult{
			Issues: []sources.Issue{{
				Severity: sources.SeverityError,
				Source:   desc.URL,
				Message:  err.Error(),
			}},
		}
	}
	return fetched
}

// persist merges the controller override over the catalog and writes the
// result when it differs from the previously persisted content.
func (m *defaultManager) persist(
	ctx context.Context, logger *slog.Logger, result *Result, items []sources.Item,
) (bool, error) {
	doc := catalog.New(items).Document()

	override, found, err := m.store.LoadController()
	switch {
	case err != nil:
		// Treated as "no override": manual edits only apply once the file
		// parses again.
		issue := sources.Issue{
			Severity: sources.SeverityWarning,
			Source:   m.cfg.Controller,
			Message:  err.Error(),
		}
		result.Issues = append(result.Issues, issue)
		logIssue(logger, issue)
	case !found:
		logger.Info("Controller not found")
	default:
		doc = catalog.MergeController(doc, override)
	}

	written, err := m.store.PersistIfChanged(ctx, doc)
	if err != nil {
		return false, fmt.Errorf("failed to persist catalog: %w", err)
	}

	if written {
		logger.Info("Catalog updated", "output", m.cfg.Output, "items", result.Items)
	} else {
		logger.Info("Catalog is up-to-date, no changes required", "output", m.cfg.Output)
	}
	return written, nil
}

// logIssue emits an accumulated issue at its severity. Logging never
// terminates the run; only the zero-items condition does.
func logIssue(logger *slog.Logger, issue sources.Issue) {
	attrs := []any{"source", issue.Source}
	if issue.Release != "" {
		attrs = append(attrs, "release", issue.Release)
	}
	attrs = append(attrs, "message", issue.Message)

	if issue.Severity == sources.SeverityError {
		logger.Error("Source failure", attrs...)
		return
	}
	logger.Warn("Source warning", attrs...)
}
