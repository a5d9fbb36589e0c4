package news

import "strings"

// Canonical verdict values stored with every news item.
const (
	VerdictFalse      = "false"
	VerdictTrue       = "true"
	VerdictPartial    = "partial"
	VerdictUnverified = "unverified"
)

// Rating vocabularies used by the fact-checking outlets we ingest.
// False terms must be checked before true terms: "incorrect" contains
// "correct" and would otherwise flip the verdict.
var verdictTerms = map[string][]string{
	VerdictFalse: {"falso", "false", "fake", "mentira", "incorrect", "incorrecto", "faux", "enganoso"},
	VerdictTrue:  {"verdadeiro", "true", "correct", "correto", "vrai", "autêntico"},
}

var verdictOrder = [...]string{VerdictFalse, VerdictTrue}

type termRule struct {
	term    string
	verdict string
}

var verdictRules []termRule

func init() {
	for _, v := range verdictOrder {
		for _, t := range verdictTerms[v] {
			verdictRules = append(verdictRules, termRule{term: t, verdict: v})
		}
	}
}

// NormalizeVerdict maps free-form rating text onto a canonical verdict.
// Text that names no known rating term counts as partial, matching how
// mixed or nuanced ratings are usually phrased.
func NormalizeVerdict(text string) string {
	t := strings.ToLower(strings.TrimSpace(text))
	if t == "" {
		return VerdictUnverified
	}
	for _, rule := range verdictRules {
		if strings.Contains(t, rule.term) {
			return rule.verdict
		}
	}
	return VerdictPartial
}
