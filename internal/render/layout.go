package render

import (
	"sort"
	"time"

	"github.com/fitops/reportpipe/internal/aggregator"
	"github.com/fitops/reportpipe/internal/report"
)

// document is the backend-independent shape of a rendered report: a title
// block, summary pairs, and an optional detail table with pre-formatted
// cells. Backends only draw it.
type document struct {
	Title       string
	TypeLabel   string
	GeneratedAt time.Time
	Summary     []kv
	Headers     []string
	Rows        [][]string
	TotalRows   int
}

type kv struct {
	Label string
	Value string
}

type column struct {
	Key    string
	Header string
	Kind   valueKind
}

var typeColumns = map[report.Type][]column{
	report.TypeMembers: {
		{Key: "name", Header: "Name", Kind: kindText},
		{Key: "email", Header: "Email", Kind: kindText},
		{Key: "membershipType", Header: "Membership", Kind: kindText},
		{Key: "status", Header: "Status", Kind: kindText},
		{Key: "joinDate", Header: "Join Date", Kind: kindDate},
	},
	report.TypeClasses: {
		{Key: "name", Header: "Class", Kind: kindText},
		{Key: "instructor", Header: "Instructor", Kind: kindText},
		{Key: "startTime", Header: "Start", Kind: kindDate},
		{Key: "capacity", Header: "Capacity", Kind: kindNumber},
		{Key: "enrolled", Header: "Enrolled", Kind: kindNumber},
	},
	report.TypeEquipment: {
		{Key: "name", Header: "Equipment", Kind: kindText},
		{Key: "category", Header: "Category", Kind: kindText},
		{Key: "status", Header: "Status", Kind: kindText},
		{Key: "purchaseDate", Header: "Purchased", Kind: kindDate},
		{Key: "lastMaintenance", Header: "Last Maintenance", Kind: kindDate},
	},
}

// summaryFields orders and classifies known aggregate keys per type. Keys
// not listed here are appended alphabetically with generic formatting.
var summaryFields = map[report.Type][]column{
	report.TypeRevenue: {
		{Key: "totalRevenue", Header: "Total Revenue", Kind: kindCurrency},
		{Key: "membershipRevenue", Header: "Membership Revenue", Kind: kindCurrency},
		{Key: "classRevenue", Header: "Class Revenue", Kind: kindCurrency},
		{Key: "personalTrainingRevenue", Header: "Personal Training Revenue", Kind: kindCurrency},
		{Key: "retailRevenue", Header: "Retail Revenue", Kind: kindCurrency},
		{Key: "transactionCount", Header: "Transactions", Kind: kindNumber},
	},
	report.TypeSystem: {
		{Key: "activeUsers", Header: "Active Users", Kind: kindNumber},
		{Key: "totalMembers", Header: "Total Members", Kind: kindNumber},
		{Key: "checkInsToday", Header: "Check-ins Today", Kind: kindNumber},
		{Key: "apiRequests", Header: "API Requests", Kind: kindNumber},
		{Key: "errorRate", Header: "Error Rate", Kind: kindPercent},
	},
}

var typeLabels = map[report.Type]string{
	report.TypeMembers:   "Members Report",
	report.TypeRevenue:   "Revenue Report",
	report.TypeClasses:   "Classes Report",
	report.TypeEquipment: "Equipment Report",
	report.TypeSystem:    "System Report",
	report.TypeCustom:    "Custom Report",
}

// buildDocument lays out a dataset for one report type. Unknown types fall
// back to a generic dump of the raw data so rendering never fails on data
// it has no specific layout for.
func buildDocument(typ report.Type, ds *aggregator.Dataset, opts Options, generatedAt time.Time) *document {
	doc := &document{
		Title:       opts.Title,
		TypeLabel:   typeLabels[typ],
		GeneratedAt: generatedAt,
	}
	if doc.Title == "" {
		doc.Title = doc.TypeLabel
	}
	if doc.TypeLabel == "" {
		doc.TypeLabel = "Report"
		if doc.Title == "" {
			doc.Title = "Report"
		}
	}
	if ds == nil {
		ds = &aggregator.Dataset{}
	}

	if ds.Summary != nil {
		doc.Summary = layoutSummary(typ, ds.Summary)
		return doc
	}

	cols, ok := typeColumns[typ]
	if !ok {
		cols = genericColumns(ds.Rows)
	}

	doc.Headers = make([]string, len(cols))
	for i, c := range cols {
		doc.Headers[i] = c.Header
	}

	doc.TotalRows = len(ds.Rows)
	doc.Rows = make([][]string, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = formatValue(row[c.Key], c.Kind)
		}
		doc.Rows = append(doc.Rows, cells)
	}

	doc.Summary = []kv{{Label: "Total Records", Value: formatNumber(float64(doc.TotalRows))}}

	return doc
}

func layoutSummary(typ report.Type, summary map[string]any) []kv {
	fields := summaryFields[typ]

	var out []kv
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		seen[f.Key] = true
		v, ok := summary[f.Key]
		if !ok {
			continue
		}
		out = append(out, kv{Label: f.Header, Value: formatValue(v, f.Kind)})
	}

	var rest []string
	for key := range summary {
		if !seen[key] {
			rest = append(rest, key)
		}
	}
	sort.Strings(rest)

	for _, key := range rest {
		out = append(out, kv{Label: titleize(key), Value: formatText(summary[key])})
	}

	return out
}

// genericColumns derives a column set from the union of row keys, sorted
// for deterministic output.
func genericColumns(rows []map[string]any) []column {
	keys := make(map[string]bool)
	for _, row := range rows {
		for key := range row {
			keys[key] = true
		}
	}

	sorted := make([]string, 0, len(keys))
	for key := range keys {
		sorted = append(sorted, key)
	}
	sort.Strings(sorted)

	cols := make([]column, len(sorted))
	for i, key := range sorted {
		cols[i] = column{Key: key, Header: titleize(key), Kind: kindText}
	}
	return cols
}
