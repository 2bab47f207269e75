package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitops/reportpipe/internal/config"
	"github.com/fitops/reportpipe/internal/report"
)

func membersHandler(t *testing.T, gotQueries *[]map[string][]string) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if gotQueries != nil {
			*gotQueries = append(*gotQueries, r.URL.Query())
		}
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"name": "Ada", "email": "ada@example.com", "status": "active"},
			{"name": "Grace", "email": "grace@example.com", "status": "frozen"},
		})
	}
}

func TestFetch_List(t *testing.T) {
	var queries []map[string][]string
	srv := httptest.NewServer(membersHandler(t, &queries))
	defer srv.Close()

	agg := New(config.SourcesConfig{Members: srv.URL})

	ds, err := agg.Fetch(context.Background(), report.TypeMembers, map[string]string{
		"status":   "active",
		"page":     "2",
		"emptyVal": "",
	})
	require.NoError(t, err)
	require.NotNil(t, ds)
	assert.Len(t, ds.Rows, 2)
	assert.Nil(t, ds.Summary)
	assert.Equal(t, "Ada", ds.Rows[0]["name"])

	require.Len(t, queries, 1)
	q := queries[0]
	assert.Equal(t, []string{"active"}, q["status"])
	assert.Equal(t, []string{"2"}, q["page"])
	// Empty filter values are omitted entirely.
	assert.NotContains(t, q, "emptyVal")
}

func TestFetch_Summary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalRevenue":     125000.50,
			"transactionCount": 812,
		})
	}))
	defer srv.Close()

	agg := New(config.SourcesConfig{Revenue: srv.URL})

	ds, err := agg.Fetch(context.Background(), report.TypeRevenue, nil)
	require.NoError(t, err)
	require.NotNil(t, ds.Summary)
	assert.Nil(t, ds.Rows)
	assert.Equal(t, 125000.50, ds.Summary["totalRevenue"])
}

func TestFetch_CustomMatchesDirect(t *testing.T) {
	srv := httptest.NewServer(membersHandler(t, nil))
	defer srv.Close()

	agg := New(config.SourcesConfig{Members: srv.URL})
	ctx := context.Background()
	filters := map[string]string{"status": "active"}

	direct, err := agg.Fetch(ctx, report.TypeMembers, filters)
	require.NoError(t, err)

	customFilters := map[string]string{"status": "active", "dataType": "MEMBERS"}
	custom, err := agg.Fetch(ctx, report.TypeCustom, customFilters)
	require.NoError(t, err)

	assert.Equal(t, direct, custom)
}

func TestFetch_CustomMissingDataType(t *testing.T) {
	agg := New(config.SourcesConfig{})

	_, err := agg.Fetch(context.Background(), report.TypeCustom, map[string]string{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingDataType))
}

func TestFetch_CustomRecursionRejected(t *testing.T) {
	agg := New(config.SourcesConfig{})

	_, err := agg.Fetch(context.Background(), report.TypeCustom, map[string]string{"dataType": "CUSTOM"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMissingDataType)
}

func TestFetch_SourceFailureNamesSource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	agg := New(config.SourcesConfig{Equipment: srv.URL})

	_, err := agg.Fetch(context.Background(), report.TypeEquipment, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "equipment")
}

func TestFetch_SourceNotConfigured(t *testing.T) {
	agg := New(config.SourcesConfig{})

	_, err := agg.Fetch(context.Background(), report.TypeSystem, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSourceNotConfigured))
	assert.Contains(t, err.Error(), "system")
}

func TestFetch_UnknownType(t *testing.T) {
	agg := New(config.SourcesConfig{})

	_, err := agg.Fetch(context.Background(), report.Type("ATTENDANCE"), nil)
	require.Error(t, err)
}
