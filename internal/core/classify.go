package core

import "strings"

// CategoryRule maps a set of description keywords to a category.
type CategoryRule struct {
	Category string
	Keywords []string
}

// DefaultCategoryRules is evaluated in order; the first rule with a keyword
// contained in the description wins.
var DefaultCategoryRules = []CategoryRule{
	{Category: "Food", Keywords: []string{"food", "restaurant", "grocer", "meal", "coffee"}},
	{Category: "Transport", Keywords: []string{"uber", "bus", "train", "taxi", "cab", "fuel"}},
	{Category: "Utilities", Keywords: []string{"electric", "water", "internet", "utility", "wifi"}},
	{Category: "Entertainment", Keywords: []string{"movie", "netflix", "game", "concert"}},
	{Category: "Housing", Keywords: []string{"rent", "mortgage"}},
}

// Classify returns the category of the first rule matching description,
// or DefaultCategory when nothing matches.
func Classify(rules []CategoryRule, description string) string {
	desc := strings.ToLower(description)
	for _, r := range rules {
		for _, kw := range r.Keywords {
			if strings.Contains(desc, kw) {
				return r.Category
			}
		}
	}
	return DefaultCategory
}

// ResolveCategory returns the category to store for a new expense. An
// explicit category other than DefaultCategory is kept as is.
func ResolveCategory(rules []CategoryRule, category, description string) string {
	category = strings.TrimSpace(category)
	if category != "" && category != DefaultCategory {
		return category
	}
	if strings.TrimSpace(description) == "" {
		return DefaultCategory
	}
	return Classify(rules, description)
}
