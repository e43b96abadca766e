package resolution

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed keywords.json
var embeddedKeywords []byte

// KeywordRule maps a category keyword to a chart-of-accounts code. Rules
// are ordered; the first case-insensitive substring match wins.
type KeywordRule struct {
	Keyword     string `json:"keyword"`
	AccountCode string `json:"account_code"`
}

// KeywordTable is the injected keyword configuration.
type KeywordTable struct {
	rules []KeywordRule
}

// NewKeywordTable builds a table from explicit rules, for tests and
// deployments that override the embedded defaults.
func NewKeywordTable(rules []KeywordRule) KeywordTable {
	normalized := make([]KeywordRule, 0, len(rules))
	for _, rule := range rules {
		keyword := strings.ToLower(strings.TrimSpace(rule.Keyword))
		code := strings.TrimSpace(rule.AccountCode)
		if keyword == "" || code == "" {
			continue
		}
		normalized = append(normalized, KeywordRule{Keyword: keyword, AccountCode: code})
	}
	return KeywordTable{rules: normalized}
}

// DefaultKeywordTable loads the embedded rule set.
func DefaultKeywordTable() (KeywordTable, error) {
	var rules []KeywordRule
	if err := json.Unmarshal(embeddedKeywords, &rules); err != nil {
		return KeywordTable{}, fmt.Errorf("parse embedded keyword table: %w", err)
	}
	return NewKeywordTable(rules), nil
}

// Match returns the account code of the first rule whose keyword occurs in
// category, or "" when nothing matches.
func (t KeywordTable) Match(category string) string {
	category = strings.ToLower(strings.TrimSpace(category))
	if category == "" {
		return ""
	}
	for _, rule := range t.rules {
		if strings.Contains(category, rule.Keyword) {
			return rule.AccountCode
		}
	}
	return ""
}

// Len reports how many rules the table holds.
func (t KeywordTable) Len() int { return len(t.rules) }
