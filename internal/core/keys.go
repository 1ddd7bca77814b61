package core

import "strings"

// KeyColumns names the two header columns that identify a record on a sheet.
type KeyColumns struct {
	Key1 string
	Key2 string
}

// KeyRule maps a sheet-name pattern to its key columns.
// Patterns match case-insensitively anywhere in the sheet name.
type KeyRule struct {
	Patterns []string
	Keys     KeyColumns
}

// matches reports whether any pattern occurs in the lower-cased sheet name.
func (r KeyRule) matches(lowerName string) bool {
	for _, p := range r.Patterns {
		if strings.Contains(lowerName, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// KeyStrategy decides which columns form a sheet's composite key.
// ok is false for sheets the strategy does not handle.
type KeyStrategy interface {
	SelectKeys(sheetName string) (keys KeyColumns, ok bool)
}

// RuleKeyStrategy is an ordered, closed set of rules; the first match wins.
type RuleKeyStrategy struct {
	rules []KeyRule
}

// NewRuleKeyStrategy builds a strategy from rules evaluated in order.
func NewRuleKeyStrategy(rules ...KeyRule) *RuleKeyStrategy {
	cp := make([]KeyRule, len(rules))
	copy(cp, rules)
	return &RuleKeyStrategy{rules: cp}
}

// SelectKeys implements KeyStrategy.
func (s *RuleKeyStrategy) SelectKeys(sheetName string) (KeyColumns, bool) {
	lower := strings.ToLower(sheetName)
	for _, r := range s.rules {
		if r.matches(lower) {
			return r.Keys, true
		}
	}
	return KeyColumns{}, false
}

// Rules returns a copy of the configured rules.
func (s *RuleKeyStrategy) Rules() []KeyRule {
	cp := make([]KeyRule, len(s.rules))
	copy(cp, s.rules)
	return cp
}

// SurchargeKeyRules are the payor agreement surcharge sheets.
var SurchargeKeyRules = []KeyRule{
	{
		Patterns: []string{"groupsurcharge"},
		Keys:     KeyColumns{Key1: ColPayorAgreement, Key2: ColBillingGroup},
	},
	{
		Patterns: []string{"itemlevelsurcharge", "itemsurcharge"},
		Keys:     KeyColumns{Key1: ColPayorAgreement, Key2: ColOrderItem},
	},
}

// DefaultKeyStrategy returns the surcharge sheet policy.
func DefaultKeyStrategy() *RuleKeyStrategy {
	return NewRuleKeyStrategy(SurchargeKeyRules...)
}
