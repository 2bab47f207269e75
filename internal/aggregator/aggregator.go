// Package aggregator resolves a report request into normalized domain data
// by querying the owning domain service.
package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/fitops/reportpipe/internal/config"
	"github.com/fitops/reportpipe/internal/report"
)

var (
	// ErrMissingDataType is returned for CUSTOM reports without a dataType filter.
	ErrMissingDataType = errors.New("custom report requires a dataType filter")
	// ErrSourceNotConfigured is returned when the domain source has no base URL.
	ErrSourceNotConfigured = errors.New("source not configured")
)

// Dataset is the normalized result of one aggregation. Exactly one of Rows
// or Summary is populated, depending on whether the source returns a list
// or an aggregate object.
type Dataset struct {
	Rows    []map[string]any
	Summary map[string]any
}

// Len returns the number of detail rows in the dataset.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Aggregator fetches report data from the domain services.
type Aggregator struct {
	client  *http.Client
	sources config.SourcesConfig
}

// New creates an aggregator over the configured domain sources.
func New(cfg config.SourcesConfig) *Aggregator {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Aggregator{
		client:  &http.Client{Timeout: timeout},
		sources: cfg,
	}
}

// Fetch dispatches on report type to the matching domain source. CUSTOM
// re-dispatches using the dataType filter; a CUSTOM dataType is rejected to
// rule out unbounded recursion. Transport failures are wrapped with the
// source that failed and abort the whole run.
func (a *Aggregator) Fetch(ctx context.Context, typ report.Type, filters map[string]string) (*Dataset, error) {
	switch typ {
	case report.TypeMembers:
		return a.fetchList(ctx, "members", a.sources.Members, filters)
	case report.TypeClasses:
		return a.fetchList(ctx, "classes", a.sources.Classes, filters)
	case report.TypeEquipment:
		return a.fetchList(ctx, "equipment", a.sources.Equipment, filters)
	case report.TypeRevenue:
		return a.fetchSummary(ctx, "revenue", a.sources.Revenue, filters)
	case report.TypeSystem:
		return a.fetchSummary(ctx, "system", a.sources.System, filters)
	case report.TypeCustom:
		return a.fetchCustom(ctx, filters)
	default:
		return nil, fmt.Errorf("unknown report type: %q", typ)
	}
}

func (a *Aggregator) fetchCustom(ctx context.Context, filters map[string]string) (*Dataset, error) {
	raw, ok := filters["dataType"]
	if !ok || raw == "" {
		return nil, ErrMissingDataType
	}

	typ, err := report.ParseType(raw)
	if err != nil {
		return nil, fmt.Errorf("custom report dataType: %w", err)
	}
	if typ == report.TypeCustom {
		return nil, fmt.Errorf("custom report dataType cannot be %s", report.TypeCustom)
	}

	return a.Fetch(ctx, typ, filters)
}

func (a *Aggregator) fetchList(ctx context.Context, source, baseURL string, filters map[string]string) (*Dataset, error) {
	body, err := a.get(ctx, source, baseURL, filters)
	if err != nil {
		return nil, err
	}

	var rows []map[string]any
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", source, err)
	}

	return &Dataset{Rows: rows}, nil
}

func (a *Aggregator) fetchSummary(ctx context.Context, source, baseURL string, filters map[string]string) (*Dataset, error) {
	body, err := a.get(ctx, source, baseURL, filters)
	if err != nil {
		return nil, err
	}

	var summary map[string]any
	if err := json.Unmarshal(body, &summary); err != nil {
		return nil, fmt.Errorf("decoding %s response: %w", source, err)
	}

	return &Dataset{Summary: summary}, nil
}

func (a *Aggregator) get(ctx context.Context, source, baseURL string, filters map[string]string) ([]byte, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("%w: %s", ErrSourceNotConfigured, source)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing %s source URL: %w", source, err)
	}

	q := u.Query()
	for key, value := range filters {
		// dataType is dispatch metadata, not a source filter
		if key == "dataType" || value == "" {
			continue
		}
		q.Set(key, value)
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building %s request: %w", source, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s data: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s data: unexpected status %d", source, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", source, err)
	}

	return body, nil
}
