// Package eligibility decides whether a promotion's reserved badges satisfy
// its template rules. Evaluation is a pure function of its inputs, so it is
// safe both as a live preview and as the gate inside promotion submit.
package eligibility

import (
	catalogdomain "github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	templatedomain "github.com/smallbiznis/meritup/internal/template/domain"
)

// Badge is the catalog coordinates of one reserved badge application.
type Badge struct {
	Category catalogdomain.BadgeCategory
	Level    catalogdomain.BadgeLevel
}

// Requirement reports one rule's standing.
type Requirement struct {
	Category  catalogdomain.BadgeCategory `json:"category"`
	Level     catalogdomain.BadgeLevel    `json:"level"`
	Required  int                         `json:"required"`
	Current   int                         `json:"current"`
	Satisfied bool                        `json:"satisfied"`
}

// Gap reports how many badges one unsatisfied rule still needs.
type Gap struct {
	Category catalogdomain.BadgeCategory `json:"category"`
	Level    catalogdomain.BadgeLevel    `json:"level"`
	Missing  int                         `json:"missing"`
}

// Report is the full validation outcome.
type Report struct {
	Valid        bool          `json:"is_valid"`
	Requirements []Requirement `json:"requirements"`
	Missing      []Gap         `json:"missing"`
}

// Evaluate checks every rule against the reserved badge set.
//
// Matching is exact: a badge counts toward a rule only when its level equals
// the rule's level, and its category equals the rule's category or the rule
// is CategoryAny. Levels never substitute for one another. Rules are
// evaluated independently, so one badge may count toward several rules.
// The outcome does not depend on rule or badge order.
func Evaluate(rules []templatedomain.TemplateRule, badges []Badge) Report {
	type pool struct {
		category catalogdomain.BadgeCategory
		level    catalogdomain.BadgeLevel
	}

	byPair := make(map[pool]int)
	byLevel := make(map[catalogdomain.BadgeLevel]int)
	for _, badge := range badges {
		byPair[pool{badge.Category, badge.Level}]++
		byLevel[badge.Level]++
	}

	report := Report{
		Valid:        true,
		Requirements: make([]Requirement, 0, len(rules)),
	}
	for _, rule := range rules {
		current := byPair[pool{rule.Category, rule.Level}]
		if rule.Category == catalogdomain.CategoryAny {
			current = byLevel[rule.Level]
		}

		satisfied := current >= rule.Count
		report.Requirements = append(report.Requirements, Requirement{
			Category:  rule.Category,
			Level:     rule.Level,
			Required:  rule.Count,
			Current:   current,
			Satisfied: satisfied,
		})
		if !satisfied {
			report.Valid = false
			report.Missing = append(report.Missing, Gap{
				Category: rule.Category,
				Level:    rule.Level,
				Missing:  rule.Count - current,
			})
		}
	}
	return report
}
