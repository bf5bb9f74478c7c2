// Package store is the narrow persistence boundary over the managed backend.
package store

import (
	"context"
	"errors"

	"pearl_backend/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateLike   = errors.New("recipe already liked by this browser")
	ErrFieldNotAllowed = errors.New("field cannot be updated")
)

type RecipeStore interface {
	// List returns recipes newest first.
	List(ctx context.Context) ([]models.Recipe, error)
	Get(ctx context.Context, id string) (models.Recipe, error)
	Create(ctx context.Context, form models.RecipeForm) (models.Recipe, error)
	Update(ctx context.Context, id string, form models.RecipeForm) (models.Recipe, error)
	UpdateField(ctx context.Context, id, field, value string) error
	// Delete removes the recipe along with its likes and comments.
	Delete(ctx context.Context, id string) error
	IncrementViews(ctx context.Context, id string) error
}

type CommentStore interface {
	// ListComments returns a recipe's comments newest first.
	ListComments(ctx context.Context, recipeID string) ([]models.Comment, error)
	AddComment(ctx context.Context, c models.Comment) (models.Comment, error)
	CountComments(ctx context.Context, recipeID string) (int, error)
}

type LikeStore interface {
	CountLikes(ctx context.Context, recipeID string) (int, error)
	HasLiked(ctx context.Context, recipeID, fingerprint string) (bool, error)
	// Like fails with ErrDuplicateLike when the pair already exists.
	Like(ctx context.Context, recipeID, fingerprint string) error
	Unlike(ctx context.Context, recipeID, fingerprint string) error
}

type Store interface {
	RecipeStore
	CommentStore
	LikeStore
}

// likeID keys a like by its (recipe, fingerprint) pair so the backend
// enforces one like per browser per recipe.
func likeID(recipeID, fingerprint string) string {
	return recipeID + "_" + fingerprint
}
