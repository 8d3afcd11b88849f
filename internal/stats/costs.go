package stats

import (
	"sort"
	"time"

	"github.com/tcardoso/licensedesk/internal/domain"
)

// GroupBy selects how cost roll-ups are bucketed
type GroupBy string

const (
	// GroupByValue lists the highest-cost entries individually
	GroupByValue GroupBy = "value"
	// GroupByDate buckets costs by expiration month
	GroupByDate GroupBy = "date"
)

// rollupLimit caps the number of entries the dashboard chart shows
const rollupLimit = 10

// CostEntry is one bar of the cost chart. In the value view Label is the
// pool or license name and Category its type; in the date view Label is the
// expiration month (YYYY-MM) and Count the number of contracts in it.
type CostEntry struct {
	Label    string             `json:"label"`
	Cost     float64            `json:"cost"`
	Category domain.LicenseType `json:"category,omitempty"`
	Count    int                `json:"count,omitempty"`
}

type costItem struct {
	label      string
	category   domain.LicenseType
	cost       float64
	expiration *time.Time
}

func collectCosts(s Snapshot) []costItem {
	var items []costItem
	for _, p := range s.M365Pools {
		if p.Cost != nil && *p.Cost > 0 {
			items = append(items, costItem{
				label:      p.LicenseType,
				category:   domain.TypeMicrosoft365,
				cost:       *p.Cost * float64(p.TotalLicenses),
				expiration: p.ExpirationDate,
			})
		}
	}
	for _, p := range s.Pools {
		if p.Cost != nil && *p.Cost > 0 {
			items = append(items, costItem{
				label:      p.Name,
				category:   p.Type,
				cost:       *p.Cost * float64(p.TotalLicenses),
				expiration: p.ExpirationDate,
			})
		}
	}
	for _, l := range s.Legacy {
		if l.Cost != nil && *l.Cost > 0 {
			items = append(items, costItem{
				label:      l.Name,
				category:   l.Type(),
				cost:       *l.Cost,
				expiration: l.ExpirationDate,
			})
		}
	}
	return items
}

// CostRollup produces the cost chart data. Grouped by value it returns the
// top 10 highest-cost entries descending, ties kept in insertion order;
// grouped by date it returns at most the first 10 expiration-month buckets
// in chronological order. Entries without a cost are skipped, and the date
// view also skips entries without an expiration.
func CostRollup(s Snapshot, groupBy GroupBy) []CostEntry {
	items := collectCosts(s)

	if groupBy == GroupByDate {
		return rollupByMonth(items)
	}
	return rollupByValue(items)
}

func rollupByValue(items []costItem) []CostEntry {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].cost > items[j].cost
	})
	if len(items) > rollupLimit {
		items = items[:rollupLimit]
	}
	out := make([]CostEntry, 0, len(items))
	for _, it := range items {
		out = append(out, CostEntry{Label: it.label, Cost: it.cost, Category: it.category})
	}
	return out
}

func rollupByMonth(items []costItem) []CostEntry {
	buckets := make(map[string]*CostEntry)
	var order []string
	for _, it := range items {
		if it.expiration == nil {
			continue
		}
		month := it.expiration.Format("2006-01")
		b, ok := buckets[month]
		if !ok {
			b = &CostEntry{Label: month}
			buckets[month] = b
			order = append(order, month)
		}
		b.Cost += it.cost
		b.Count++
	}
	sort.Strings(order)
	if len(order) > rollupLimit {
		order = order[:rollupLimit]
	}
	out := make([]CostEntry, 0, len(order))
	for _, month := range order {
		out = append(out, *buckets[month])
	}
	return out
}
