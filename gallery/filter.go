// Package gallery narrows the public recipe list down to what a visitor asked
// to see.
package gallery

import (
	"strings"

	"pearl_backend/models"
)

const (
	SelectorAll       = "all"
	SelectorFavorites = "favorites"
)

// Filter applies the selector, then the free-text query, to recipes. The
// selector is "all", "favorites" or an exact category. The query matches
// case-insensitively against name, description, category and ingredients.
// Input order is preserved and recipes is never modified.
func Filter(recipes []models.Recipe, selector, query string, favorites Favorites) []models.Recipe {
	out := make([]models.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if selects(r, selector, favorites) {
			out = append(out, r)
		}
	}

	q := strings.TrimSpace(query)
	if q == "" {
		return out
	}
	q = strings.ToLower(q)

	n := 0
	for _, r := range out {
		if matches(r, q) {
			out[n] = r
			n++
		}
	}
	return out[:n]
}

func selects(r models.Recipe, selector string, favorites Favorites) bool {
	switch selector {
	case "", SelectorAll:
		return true
	case SelectorFavorites:
		return favorites.Has(r.ID)
	default:
		return r.Category == selector
	}
}

func matches(r models.Recipe, q string) bool {
	return strings.Contains(strings.ToLower(r.Name), q) ||
		strings.Contains(strings.ToLower(r.Description), q) ||
		strings.Contains(strings.ToLower(r.Category), q) ||
		strings.Contains(strings.ToLower(r.Ingredients), q)
}

func SectionTitle(selector string) string {
	switch selector {
	case "", SelectorAll:
		return "All Recipes"
	case SelectorFavorites:
		return "My Favorites"
	default:
		return selector
	}
}

// EmptyMessage is shown when Filter returns nothing.
func EmptyMessage(selector, query string) string {
	if selector == SelectorFavorites {
		return "No favorites yet! Click the heart on any recipe to save it."
	}
	if query != "" {
		return "No recipes match your search. Try different keywords!"
	}
	return "No recipes here yet. Check back soon!"
}
