// Package sources summarizes where evidence comes from, grouping stored
// evidence records by publisher and by registrable domain.
package sources

import (
	"sort"
	"strings"

	"github.com/veriscope/veriscope/pkg/evaluation"
)

// Tally is one name with the number of evidence records behind it.
type Tally struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary groups evidence by publisher and by registrable domain.
type Summary struct {
	Publishers []Tally `json:"publishers"`
	Domains    []Tally `json:"domains"`
}

// Collect builds a Summary from evidence records. Simulated placeholder
// sources are skipped so degraded runs do not pollute the report.
func Collect(evidence []evaluation.Evidence) Summary {
	publishers := make(map[string]int)
	domains := make(map[string]int)

	for _, ev := range evidence {
		if strings.EqualFold(ev.Publisher, "simulated") {
			continue
		}
		if p := strings.TrimSpace(ev.Publisher); p != "" {
			publishers[p]++
		}
		if d, ok := RootDomain(ev.URL); ok {
			domains[d]++
		}
	}

	return Summary{
		Publishers: sortTallies(publishers),
		Domains:    sortTallies(domains),
	}
}

// sortTallies orders by count descending, then name ascending for stable output.
func sortTallies(m map[string]int) []Tally {
	out := make([]Tally, 0, len(m))
	for name, count := range m {
		out = append(out, Tally{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}
