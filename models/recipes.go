package models

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"
)

type Recipe struct {
	ID           string    `firestore:"id" json:"id" yaml:"id"`
	Name         string    `firestore:"name" json:"name" yaml:"name"`
	Category     string    `firestore:"category" json:"category" yaml:"category"`
	Description  string    `firestore:"description" json:"description" yaml:"description"`
	PrepTime     string    `firestore:"prep_time" json:"prep_time" yaml:"prep_time"`
	CookTime     string    `firestore:"cook_time" json:"cook_time" yaml:"cook_time"`
	Servings     string    `firestore:"servings" json:"servings" yaml:"servings"`
	Ingredients  string    `firestore:"ingredients" json:"ingredients" yaml:"ingredients"`
	Instructions string    `firestore:"instructions" json:"instructions" yaml:"instructions"`
	Tips         string    `firestore:"tips" json:"tips" yaml:"tips"`
	PhotoURL     string    `firestore:"photo_url" json:"photo_url" yaml:"photo_url"`
	Photos       string    `firestore:"photos" json:"photos" yaml:"photos"`
	VideoURL     string    `firestore:"video_url" json:"video_url" yaml:"video_url"`
	SourceURL    string    `firestore:"source_url" json:"source_url" yaml:"source_url"`
	ViewCount    int64     `firestore:"view_count" json:"view_count" yaml:"view_count"`
	CreatedAt    time.Time `firestore:"created_at" json:"created_at" yaml:"created_at"`
	UpdatedAt    time.Time `firestore:"updated_at" json:"updated_at" yaml:"updated_at"`
}

// Lines splits a newline-delimited field and drops blank lines.
func Lines(s string) []string {
	out := []string{}
	for _, l := range strings.Split(s, "\n") {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

const (
	CategoryMainDish   = "Main Dish"
	CategoryFlourBased = "Flour-Based Food"
	CategoryDessert    = "Dessert"
	CategoryBeverage   = "Beverage"
	CategoryEpic       = "Epic Recipes"
)

var Categories = []string{
	CategoryMainDish,
	CategoryFlourBased,
	CategoryDessert,
	CategoryBeverage,
	CategoryEpic,
}

func ValidCategory(c string) bool {
	for _, v := range Categories {
		if v == c {
			return true
		}
	}
	return false
}

var (
	ErrNameRequired    = errors.New("Recipe name is required.")
	ErrInvalidCategory = errors.New("Unknown recipe category.")
)

// RecipeForm is what the admin editor submits on create and update.
type RecipeForm struct {
	Name         string `json:"name" yaml:"name"`
	Category     string `json:"category" yaml:"category"`
	Description  string `json:"description" yaml:"description"`
	PrepTime     string `json:"prep_time" yaml:"prep_time"`
	CookTime     string `json:"cook_time" yaml:"cook_time"`
	Servings     string `json:"servings" yaml:"servings"`
	Ingredients  string `json:"ingredients" yaml:"ingredients"`
	Instructions string `json:"instructions" yaml:"instructions"`
	Tips         string `json:"tips" yaml:"tips"`
	PhotoURL     string `json:"photo_url" yaml:"photo_url"`
	Photos       string `json:"photos" yaml:"photos"`
	VideoURL     string `json:"video_url" yaml:"video_url"`
	SourceURL    string `json:"source_url" yaml:"source_url"`
}

// Normalize trims every field and fills in the default category.
func (f RecipeForm) Normalize() RecipeForm {
	f.Name = strings.TrimSpace(f.Name)
	f.Category = strings.TrimSpace(f.Category)
	f.Description = strings.TrimSpace(f.Description)
	f.PrepTime = strings.TrimSpace(f.PrepTime)
	f.CookTime = strings.TrimSpace(f.CookTime)
	f.Servings = strings.TrimSpace(f.Servings)
	f.Ingredients = strings.TrimSpace(f.Ingredients)
	f.Instructions = strings.TrimSpace(f.Instructions)
	f.Tips = strings.TrimSpace(f.Tips)
	f.PhotoURL = strings.TrimSpace(f.PhotoURL)
	f.Photos = strings.TrimSpace(f.Photos)
	f.VideoURL = strings.TrimSpace(f.VideoURL)
	f.SourceURL = strings.TrimSpace(f.SourceURL)
	if f.Category == "" {
		f.Category = Categories[0]
	}
	return f
}

func (f RecipeForm) Validate() error {
	if f.Name == "" {
		return ErrNameRequired
	}
	if !ValidCategory(f.Category) {
		return ErrInvalidCategory
	}
	return nil
}

// NormalizeField trims a single-field update and applies the same rules as
// the full form. Unlike the form, a blank category is rejected rather than
// defaulted.
func NormalizeField(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	switch field {
	case "name":
		if value == "" {
			return "", ErrNameRequired
		}
	case "category":
		if !ValidCategory(value) {
			return "", ErrInvalidCategory
		}
	}
	return value, nil
}

// Apply copies the form onto r, leaving id, counters and timestamps alone.
func (f RecipeForm) Apply(r *Recipe) {
	r.Name = f.Name
	r.Category = f.Category
	r.Description = f.Description
	r.PrepTime = f.PrepTime
	r.CookTime = f.CookTime
	r.Servings = f.Servings
	r.Ingredients = f.Ingredients
	r.Instructions = f.Instructions
	r.Tips = f.Tips
	r.PhotoURL = f.PhotoURL
	r.Photos = f.Photos
	r.VideoURL = f.VideoURL
	r.SourceURL = f.SourceURL
}

// EditableFields are the stored field names a single-field update may touch.
var EditableFields = map[string]bool{
	"name":         true,
	"category":     true,
	"description":  true,
	"prep_time":    true,
	"cook_time":    true,
	"servings":     true,
	"ingredients":  true,
	"instructions": true,
	"tips":         true,
	"photo_url":    true,
	"photos":       true,
	"video_url":    true,
	"source_url":   true,
}

// SetField applies a single-field update by stored field name.
func (r *Recipe) SetField(field, value string) bool {
	switch field {
	case "name":
		r.Name = value
	case "category":
		r.Category = value
	case "description":
		r.Description = value
	case "prep_time":
		r.PrepTime = value
	case "cook_time":
		r.CookTime = value
	case "servings":
		r.Servings = value
	case "ingredients":
		r.Ingredients = value
	case "instructions":
		r.Instructions = value
	case "tips":
		r.Tips = value
	case "photo_url":
		r.PhotoURL = value
	case "photos":
		r.Photos = value
	case "video_url":
		r.VideoURL = value
	case "source_url":
		r.SourceURL = value
	default:
		return false
	}
	return true
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
