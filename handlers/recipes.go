package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"pearl_backend/gallery"
	"pearl_backend/media"
	"pearl_backend/models"
	"pearl_backend/store"
)

type galleryResponse struct {
	Title        string          `json:"title"`
	Filter       string          `json:"filter"`
	Query        string          `json:"query"`
	Recipes      []models.Recipe `json:"recipes"`
	Favorites    []string        `json:"favorites"`
	EmptyMessage string          `json:"empty_message,omitempty"`
}

// GetRecipes serves the gallery. ?filter= is "all", "favorites" or a
// category; ?q= is a free-text search.
func (h *Handler) GetRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := h.store.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list recipes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Could not load recipes. Please try again later.")
		return
	}

	selector := r.URL.Query().Get("filter")
	if selector == "" {
		selector = gallery.SelectorAll
	}
	query := r.URL.Query().Get("q")
	favorites := gallery.LoadFavorites(h.localStore(w, r))

	resp := galleryResponse{
		Title:     gallery.SectionTitle(selector),
		Filter:    selector,
		Query:     query,
		Recipes:   gallery.Filter(recipes, selector, query, favorites),
		Favorites: favorites.IDs(),
	}
	if len(resp.Recipes) == 0 {
		resp.EmptyMessage = gallery.EmptyMessage(selector, query)
	}
	writeJSON(w, http.StatusOK, resp)
}

type recipeDetail struct {
	models.Recipe
	IngredientList  []string         `json:"ingredient_list"`
	InstructionList []string         `json:"instruction_list"`
	TipList         []string         `json:"tip_list"`
	PhotoList       []string         `json:"photo_list"`
	EmbedURL        string           `json:"embed_url,omitempty"`
	LikeCount       int              `json:"like_count"`
	Liked           bool             `json:"liked"`
	Favorite        bool             `json:"favorite"`
	Comments        []models.Comment `json:"comments"`
}

// GetRecipe serves one recipe with its likes and comments and counts the
// view.
func (h *Handler) GetRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := requireID(w, r)
	if !ok {
		return
	}
	ctx := r.Context()

	recipe, err := h.store.Get(ctx, recipeID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "This recipe doesn't exist or has been removed.")
		return
	}
	if err != nil {
		h.logger.Error("Failed to retrieve recipe", zap.String("recipe_id", recipeID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to retrieve recipe")
		return
	}

	h.trackView(recipe.ID)

	fp := h.fingerprint(w, r)
	detail := recipeDetail{
		Recipe:          recipe,
		IngredientList:  models.Lines(recipe.Ingredients),
		InstructionList: models.Lines(recipe.Instructions),
		TipList:         models.Lines(recipe.Tips),
		PhotoList:       models.Lines(recipe.Photos),
		EmbedURL:        media.EmbedURL(recipe.VideoURL),
		Favorite:        gallery.LoadFavorites(h.localStore(w, r)).Has(recipe.ID),
		Comments:        []models.Comment{},
	}

	// The detail page renders without likes or comments rather than failing.
	if n, err := h.store.CountLikes(ctx, recipe.ID); err != nil {
		h.logger.Warn("Failed to count likes", zap.String("recipe_id", recipe.ID), zap.Error(err))
	} else {
		detail.LikeCount = n
	}
	if liked, err := h.store.HasLiked(ctx, recipe.ID, fp); err != nil {
		h.logger.Warn("Failed to check like", zap.String("recipe_id", recipe.ID), zap.Error(err))
	} else {
		detail.Liked = liked
	}
	if comments, err := h.store.ListComments(ctx, recipe.ID); err != nil {
		h.logger.Warn("Failed to list comments", zap.String("recipe_id", recipe.ID), zap.Error(err))
	} else {
		detail.Comments = comments
	}

	writeJSON(w, http.StatusOK, detail)
}

func (h *Handler) GetCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"categories": models.Categories})
}

func decodeRecipeForm(w http.ResponseWriter, r *http.Request) (models.RecipeForm, bool) {
	var form models.RecipeForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return models.RecipeForm{}, false
	}
	form = form.Normalize()
	if err := form.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return models.RecipeForm{}, false
	}
	return form, true
}

func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	form, ok := decodeRecipeForm(w, r)
	if !ok {
		return
	}

	recipe, err := h.store.Create(r.Context(), form)
	if err != nil {
		h.logger.Error("Failed to create recipe", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("Recipe created", zap.String("recipe_id", recipe.ID), zap.String("name", recipe.Name))
	writeJSON(w, http.StatusCreated, recipe)
}

func (h *Handler) UpdateRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := requireID(w, r)
	if !ok {
		return
	}
	form, ok := decodeRecipeForm(w, r)
	if !ok {
		return
	}

	recipe, err := h.store.Update(r.Context(), recipeID, form)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No matching recipe found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to update recipe", zap.String("recipe_id", recipeID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, recipe)
}

type UpdateFieldRequest struct {
	Field string      `json:"field"`
	Value interface{} `json:"value"`
}

func (h *Handler) UpdateRecipeField(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := requireID(w, r)
	if !ok {
		return
	}

	var updateRequest UpdateFieldRequest
	if err := json.NewDecoder(r.Body).Decode(&updateRequest); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	value, ok := updateRequest.Value.(string)
	if !ok {
		writeError(w, http.StatusBadRequest, "Field value must be a string")
		return
	}

	value, err := models.NormalizeField(updateRequest.Field, value)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	err = h.store.UpdateField(r.Context(), recipeID, updateRequest.Field, value)
	switch {
	case errors.Is(err, store.ErrFieldNotAllowed):
		writeError(w, http.StatusBadRequest, "Field cannot be updated: "+updateRequest.Field)
		return
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "No matching recipe found")
		return
	case err != nil:
		h.logger.Error("Failed to update recipe field", zap.String("recipe_id", recipeID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to update recipe field")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Recipe field updated successfully"})
}

func (h *Handler) DeleteRecipe(w http.ResponseWriter, r *http.Request) {
	recipeID, ok := requireID(w, r)
	if !ok {
		return
	}

	err := h.store.Delete(r.Context(), recipeID)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "No matching recipe found")
		return
	}
	if err != nil {
		h.logger.Error("Failed to delete recipe", zap.String("recipe_id", recipeID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Failed to delete recipe")
		return
	}

	h.logger.Info("Recipe deleted", zap.String("recipe_id", recipeID))
	w.WriteHeader(http.StatusNoContent)
}
