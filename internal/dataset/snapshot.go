package dataset

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/soltixdb/txcast/internal/analytics/aggregate"
)

// Snapshot is an immutable view of the loaded dataset. Callers must not
// modify the slices it exposes.
type Snapshot struct {
	Version  string    `json:"version"`
	Source   string    `json:"source"`
	LoadedAt time.Time `json:"loaded_at"`
	Records  []Record  `json:"-"`
	Users    []Record  `json:"-"`
}

// Filter returns the records matching f
func (s *Snapshot) Filter(f Filter) []Record {
	out := make([]Record, 0, len(s.Records))
	for _, r := range s.Records {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Observations converts the matching records into aggregation input
func (s *Snapshot) Observations(f Filter, m Metric) []aggregate.Observation {
	records := s.Filter(f)
	obs := make([]aggregate.Observation, len(records))
	for i, r := range records {
		obs[i] = aggregate.Observation{Marker: r.Marker(), Value: r.Value(m)}
	}
	return obs
}

// Summary holds headline totals and growth figures
type Summary struct {
	TotalTransactions float64 `json:"total_transactions"`
	TotalValue        float64 `json:"total_value"`
	CAGR              float64 `json:"cagr"`
	YoYGrowth         float64 `json:"yoy_growth"`
	StatesCount       int     `json:"states_count"`
	TransactionTypes  int     `json:"transaction_types"`
	Years             []int   `json:"years"`
}

// Summary computes totals over the records matching f. Growth figures
// are always computed from yearly counts over the whole dataset.
func (s *Snapshot) Summary(f Filter) Summary {
	var sum Summary
	states := make(map[string]struct{})
	types := make(map[string]struct{})
	for _, r := range s.Filter(f) {
		sum.TotalTransactions += finite(r.Count)
		sum.TotalValue += finite(r.Amount)
		if r.State != "" {
			states[r.State] = struct{}{}
		}
		if r.Type != "" {
			types[r.Type] = struct{}{}
		}
	}
	sum.StatesCount = len(states)
	sum.TransactionTypes = len(types)

	yearly := make(map[int]float64)
	for _, r := range s.Records {
		if r.Year > 0 {
			yearly[r.Year] += finite(r.Count)
		}
	}
	years := make([]int, 0, len(yearly))
	for y := range yearly {
		years = append(years, y)
	}
	sort.Ints(years)
	sum.Years = years

	if len(years) > 1 {
		first, last, prev := yearly[years[0]], yearly[years[len(years)-1]], yearly[years[len(years)-2]]
		if first > 0 {
			sum.CAGR = (math.Pow(last/first, 1/float64(len(years)-1)) - 1) * 100
		}
		if prev != 0 {
			sum.YoYGrowth = (last - prev) / prev * 100
		}
	}
	return sum
}

// Group is a named total of counts and amounts
type Group struct {
	Name              string  `json:"name"`
	TransactionCount  float64 `json:"transaction_count"`
	TransactionAmount float64 `json:"transaction_amount"`
	Percentage        float64 `json:"percentage,omitempty"`
}

// groupBy totals records by key, sorted by count descending
func groupBy(records []Record, key func(Record) string) []Group {
	idx := make(map[string]int)
	var groups []Group
	for _, r := range records {
		k := key(r)
		if k == "" {
			continue
		}
		i, ok := idx[k]
		if !ok {
			i = len(groups)
			idx[k] = i
			groups = append(groups, Group{Name: k})
		}
		groups[i].TransactionCount += finite(r.Count)
		groups[i].TransactionAmount += finite(r.Amount)
	}
	sort.SliceStable(groups, func(a, b int) bool {
		if groups[a].TransactionCount != groups[b].TransactionCount {
			return groups[a].TransactionCount > groups[b].TransactionCount
		}
		return groups[a].Name < groups[b].Name
	})
	return groups
}

func limit(groups []Group, n int) []Group {
	if n > 0 && len(groups) > n {
		return groups[:n]
	}
	return groups
}

// States returns the top states by transaction count
func (s *Snapshot) States(n int) []Group {
	return limit(groupBy(s.Records, func(r Record) string { return r.State }), n)
}

// Types returns transaction type totals for the records matching f
func (s *Snapshot) Types(f Filter) []Group {
	return groupBy(s.Filter(f), func(r Record) string { return r.Type })
}

// StateDetail is the breakdown of one state
type StateDetail struct {
	State             string  `json:"state"`
	TotalTransactions float64 `json:"total_transactions"`
	TotalValue        float64 `json:"total_value"`
	ByType            []Group `json:"by_type"`
}

// State returns the breakdown for a state, or false when it is unknown
func (s *Snapshot) State(name string) (StateDetail, bool) {
	records := s.Filter(Filter{State: name})
	if len(records) == 0 {
		return StateDetail{}, false
	}

	detail := StateDetail{State: records[0].State}
	for _, r := range records {
		detail.TotalTransactions += finite(r.Count)
		detail.TotalValue += finite(r.Amount)
	}
	detail.ByType = groupBy(records, func(r Record) string { return r.Type })
	return detail, true
}

// Brands returns the top brands by user count with their market share
func (s *Snapshot) Brands(n int) []Group {
	groups := limit(groupBy(s.Users, func(r Record) string { return strings.TrimSpace(r.Brand) }), n)

	total := 0.0
	for _, g := range groups {
		total += g.TransactionCount
	}
	if total > 0 {
		for i := range groups {
			groups[i].Percentage = math.Round(groups[i].TransactionCount/total*10000) / 100
		}
	}
	return groups
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
