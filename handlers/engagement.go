package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"pearl_backend/gallery"
	"pearl_backend/models"
	"pearl_backend/store"
)

func (h *Handler) GetFingerprint(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"fingerprint": h.fingerprint(w, r)})
}

type likeResponse struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// ToggleLike likes or unlikes a recipe for the calling browser, deciding
// from what is stored rather than what the client believes.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := requireID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	fp := h.fingerprint(w, r)

	liked, err := h.store.HasLiked(ctx, recipeID, fp)
	if err != nil {
		h.logger.Error("Failed to check like", zap.String("recipe_id", recipeID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not update like")
		return
	}

	if liked {
		err = h.store.Unlike(ctx, recipeID, fp)
		liked = false
	} else {
		err = h.store.Like(ctx, recipeID, fp)
		liked = true
		if errors.Is(err, store.ErrDuplicateLike) {
			// A concurrent toggle from the same browser got there first.
			err = nil
		}
	}
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No matching recipe found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to toggle like", zap.String("recipe_id", recipeID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not update like")
		return
	}

	count, err := h.store.CountLikes(ctx, recipeID)
	if err != nil {
		h.logger.Warn("Failed to count likes", zap.String("recipe_id", recipeID), zap.Error(err))
	}
	writeJSON(w, http.StatusOK, likeResponse{Liked: liked, LikeCount: count})
}

func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := requireID(w, r)
	if !ok {
		return
	}

	comments, err := h.store.ListComments(r.Context(), recipeID)
	if err != nil {
		h.logger.Error("Failed to list comments", zap.String("recipe_id", recipeID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not load comments")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]models.Comment{"comments": comments})
}

func (h *Handler) PostComment(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := requireID(w, r)
	if !ok {
		return
	}

	var form models.CommentForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	c, err := h.store.AddComment(r.Context(), models.Comment{
		RecipeID:    recipeID,
		VisitorName: form.VisitorName,
		CommentText: form.CommentText,
	})
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No matching recipe found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to add comment", zap.String("recipe_id", recipeID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not post comment. Please try again.")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) GetFavorites(w http.ResponseWriter, r *http.Request) {
	favorites := gallery.LoadFavorites(h.localStore(w, r))
	writeJSON(w, http.StatusOK, map[string][]string{"favorites": favorites.IDs()})
}

type favoriteResponse struct {
	ID        string   `json:"id"`
	Favorite  bool     `json:"favorite"`
	Favorites []string `json:"favorites"`
}

// ToggleFavorite flips a recipe in the browser's favorites cookie. Nothing
// is stored server-side.
func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := requireID(w, r)
	if !ok {
		return
	}

	ls := h.localStore(w, r)
	favorites := gallery.LoadFavorites(ls)
	now := favorites.Toggle(recipeID)
	gallery.SaveFavorites(ls, favorites)

	writeJSON(w, http.StatusOK, favoriteResponse{ID: recipeID, Favorite: now, Favorites: favorites.IDs()})
}
