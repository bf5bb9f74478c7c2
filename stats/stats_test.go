package stats

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"pearl_backend/models"
	"pearl_backend/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestCollect(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()

	pie, err := m.Create(ctx, models.RecipeForm{Name: "Apple Pie", Category: models.CategoryDessert})
	require.NoError(t, err)
	stew, err := m.Create(ctx, models.RecipeForm{Name: "Beef Stew", Category: models.CategoryMainDish})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.IncrementViews(ctx, pie.ID))
	}
	require.NoError(t, m.IncrementViews(ctx, stew.ID))
	require.NoError(t, m.Like(ctx, pie.ID, "fp_a"))
	require.NoError(t, m.Like(ctx, pie.ID, "fp_b"))
	require.NoError(t, m.Like(ctx, stew.ID, "fp_a"))
	_, err = m.AddComment(ctx, models.Comment{RecipeID: stew.ID, VisitorName: "Ann", CommentText: "hearty"})
	require.NoError(t, err)

	d, err := Collect(ctx, m)
	require.NoError(t, err)

	assert.Equal(t, 2, d.Recipes)
	assert.EqualValues(t, 4, d.TotalViews)
	assert.Equal(t, 3, d.TotalLikes)
	assert.Equal(t, 1, d.TotalComments)

	byID := map[string]Row{}
	for _, r := range d.Rows {
		byID[r.ID] = r
	}
	assert.Equal(t, Row{ID: pie.ID, Name: "Apple Pie", Category: models.CategoryDessert, Views: 3, Likes: 2}, byID[pie.ID])
	assert.Equal(t, 1, byID[stew.ID].Comments)
}

func TestCollect_Empty(t *testing.T) {
	d, err := Collect(context.Background(), store.NewMemory())
	require.NoError(t, err)
	assert.Zero(t, d.Recipes)
	assert.Empty(t, d.Rows)
}

type failingLikes struct {
	*store.Memory
}

func (failingLikes) CountLikes(context.Context, string) (int, error) {
	return 0, errors.New("backend unavailable")
}

func TestCollect_PropagatesCountErrors(t *testing.T) {
	ctx := context.Background()
	m := store.NewMemory()
	_, err := m.Create(ctx, models.RecipeForm{Name: "Tea", Category: models.CategoryBeverage})
	require.NoError(t, err)

	_, err = Collect(ctx, failingLikes{m})
	assert.ErrorContains(t, err, "backend unavailable")
}
