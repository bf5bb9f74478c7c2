package store

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"pearl_backend/models"
)

type seedFile struct {
	Recipes []models.RecipeForm `yaml:"recipes"`
}

// LoadSeedFile reads a YAML document with a top-level "recipes" list.
func LoadSeedFile(path string) ([]models.RecipeForm, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	return f.Recipes, nil
}

// Seed creates every recipe in forms. It stops at the first invalid form so
// a bad file does not half-load silently.
func Seed(ctx context.Context, s RecipeStore, forms []models.RecipeForm) ([]models.Recipe, error) {
	out := make([]models.Recipe, 0, len(forms))
	for i, form := range forms {
		form = form.Normalize()
		if err := form.Validate(); err != nil {
			return out, fmt.Errorf("seed recipe #%d: %w", i+1, err)
		}
		r, err := s.Create(ctx, form)
		if err != nil {
			return out, fmt.Errorf("seed recipe %q: %w", form.Name, err)
		}
		out = append(out, r)
	}
	return out, nil
}
