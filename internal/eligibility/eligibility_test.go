package eligibility

import (
	"testing"

	catalogdomain "github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	templatedomain "github.com/smallbiznis/meritup/internal/template/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rule(category catalogdomain.BadgeCategory, level catalogdomain.BadgeLevel, count int) templatedomain.TemplateRule {
	return templatedomain.TemplateRule{Category: category, Level: level, Count: count}
}

func TestEvaluateSatisfiedTemplate(t *testing.T) {
	rules := []templatedomain.TemplateRule{
		rule(catalogdomain.CategoryTechnical, catalogdomain.LevelGold, 2),
		rule(catalogdomain.CategoryAny, catalogdomain.LevelSilver, 1),
	}
	badges := []Badge{
		{Category: catalogdomain.CategoryTechnical, Level: catalogdomain.LevelGold},
		{Category: catalogdomain.CategoryTechnical, Level: catalogdomain.LevelGold},
		{Category: catalogdomain.CategoryOrganizational, Level: catalogdomain.LevelSilver},
	}

	report := Evaluate(rules, badges)

	assert.True(t, report.Valid)
	assert.Empty(t, report.Missing)
	require.Len(t, report.Requirements, 2)
	assert.Equal(t, 2, report.Requirements[0].Current)
	assert.True(t, report.Requirements[0].Satisfied)
	assert.Equal(t, 1, report.Requirements[1].Current)
	assert.True(t, report.Requirements[1].Satisfied)
}

func TestEvaluateReportsGaps(t *testing.T) {
	rules := []templatedomain.TemplateRule{
		rule(catalogdomain.CategoryTechnical, catalogdomain.LevelGold, 3),
		rule(catalogdomain.CategorySoftskilled, catalogdomain.LevelBronze, 1),
	}
	badges := []Badge{
		{Category: catalogdomain.CategoryTechnical, Level: catalogdomain.LevelGold},
	}

	report := Evaluate(rules, badges)

	assert.False(t, report.Valid)
	require.Len(t, report.Missing, 2)
	assert.Equal(t, catalogdomain.CategoryTechnical, report.Missing[0].Category)
	assert.Equal(t, 2, report.Missing[0].Missing)
	assert.Equal(t, catalogdomain.CategorySoftskilled, report.Missing[1].Category)
	assert.Equal(t, 1, report.Missing[1].Missing)
}

func TestEvaluateLevelsNeverSubstitute(t *testing.T) {
	rules := []templatedomain.TemplateRule{
		rule(catalogdomain.CategoryTechnical, catalogdomain.LevelSilver, 1),
	}
	badges := []Badge{
		{Category: catalogdomain.CategoryTechnical, Level: catalogdomain.LevelGold},
	}

	report := Evaluate(rules, badges)

	assert.False(t, report.Valid)
	require.Len(t, report.Missing, 1)
	assert.Equal(t, 1, report.Missing[0].Missing)
}

func TestEvaluateRulesAreIndependent(t *testing.T) {
	// One badge counts toward both the exact rule and the ANY rule.
	rules := []templatedomain.TemplateRule{
		rule(catalogdomain.CategoryTechnical, catalogdomain.LevelGold, 1),
		rule(catalogdomain.CategoryAny, catalogdomain.LevelGold, 1),
	}
	badges := []Badge{
		{Category: catalogdomain.CategoryTechnical, Level: catalogdomain.LevelGold},
	}

	report := Evaluate(rules, badges)

	assert.True(t, report.Valid)
	require.Len(t, report.Requirements, 2)
	assert.True(t, report.Requirements[0].Satisfied)
	assert.True(t, report.Requirements[1].Satisfied)
}

func TestEvaluateAnyPoolsAllCategories(t *testing.T) {
	rules := []templatedomain.TemplateRule{
		rule(catalogdomain.CategoryAny, catalogdomain.LevelSilver, 3),
	}
	badges := []Badge{
		{Category: catalogdomain.CategoryTechnical, Level: catalogdomain.LevelSilver},
		{Category: catalogdomain.CategoryOrganizational, Level: catalogdomain.LevelSilver},
		{Category: catalogdomain.CategorySoftskilled, Level: catalogdomain.LevelSilver},
	}

	report := Evaluate(rules, badges)

	assert.True(t, report.Valid)
	assert.Equal(t, 3, report.Requirements[0].Current)
}

func TestEvaluateOrderIndependent(t *testing.T) {
	rules := []templatedomain.TemplateRule{
		rule(catalogdomain.CategoryTechnical, catalogdomain.LevelGold, 1),
		rule(catalogdomain.CategoryAny, catalogdomain.LevelBronze, 2),
	}
	badges := []Badge{
		{Category: catalogdomain.CategoryOrganizational, Level: catalogdomain.LevelBronze},
		{Category: catalogdomain.CategoryTechnical, Level: catalogdomain.LevelGold},
		{Category: catalogdomain.CategorySoftskilled, Level: catalogdomain.LevelBronze},
	}
	reversed := []Badge{badges[2], badges[1], badges[0]}

	first := Evaluate(rules, badges)
	second := Evaluate(rules, reversed)

	assert.Equal(t, first.Valid, second.Valid)
	assert.Equal(t, first.Requirements, second.Requirements)
	assert.Equal(t, first.Missing, second.Missing)
}

func TestEvaluateEmptyRules(t *testing.T) {
	report := Evaluate(nil, []Badge{{Category: catalogdomain.CategoryTechnical, Level: catalogdomain.LevelGold}})

	assert.True(t, report.Valid)
	assert.Empty(t, report.Requirements)
	assert.Empty(t, report.Missing)
}
