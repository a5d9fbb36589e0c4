package sources

import (
	"reflect"
	"testing"

	"github.com/veriscope/veriscope/pkg/evaluation"
)

func TestRootDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://www.snopes.com/fact-check/some-claim/", "snopes.com", true},
		{"http://fullfact.org/health/vaccines", "fullfact.org", true},
		{"https://news.bbc.co.uk/article", "bbc.co.uk", true},
		{"factcheck.afp.com", "afp.com", true},
		{"not a url", "", false},
		{"", "", false},
	}
	for _, c := range cases {
		got, ok := RootDomain(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("RootDomain(%q) = %q, %v; want %q, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestCollectGroupsAndSorts(t *testing.T) {
	evidence := []evaluation.Evidence{
		{Title: "a", URL: "https://www.snopes.com/fact-check/a", Publisher: "Snopes"},
		{Title: "b", URL: "https://www.snopes.com/fact-check/b", Publisher: "Snopes"},
		{Title: "c", URL: "https://fullfact.org/c", Publisher: "Full Fact"},
		{Title: "d", URL: "https://news.bbc.co.uk/d", Publisher: "BBC"},
	}

	got := Collect(evidence)

	wantPublishers := []Tally{
		{Name: "Snopes", Count: 2},
		{Name: "BBC", Count: 1},
		{Name: "Full Fact", Count: 1},
	}
	if !reflect.DeepEqual(got.Publishers, wantPublishers) {
		t.Errorf("publishers = %+v, want %+v", got.Publishers, wantPublishers)
	}

	wantDomains := []Tally{
		{Name: "snopes.com", Count: 2},
		{Name: "bbc.co.uk", Count: 1},
		{Name: "fullfact.org", Count: 1},
	}
	if !reflect.DeepEqual(got.Domains, wantDomains) {
		t.Errorf("domains = %+v, want %+v", got.Domains, wantDomains)
	}
}

func TestCollectSkipsSimulatedEvidence(t *testing.T) {
	evidence := []evaluation.Evidence{
		{Title: "Simulated source A", URL: "", Publisher: "simulated"},
		{Title: "real", URL: "https://fullfact.org/x", Publisher: "Full Fact"},
	}

	got := Collect(evidence)
	if len(got.Publishers) != 1 || got.Publishers[0].Name != "Full Fact" {
		t.Errorf("expected only real publisher, got %+v", got.Publishers)
	}
}

func TestCollectEmpty(t *testing.T) {
	got := Collect(nil)
	if len(got.Publishers) != 0 || len(got.Domains) != 0 {
		t.Errorf("expected empty summary, got %+v", got)
	}
}
