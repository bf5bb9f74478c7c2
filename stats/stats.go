package stats

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"pearl_backend/store"
)

const fanOut = 8

type Row struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Views    int64  `json:"views"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
}

type Dashboard struct {
	Recipes       int   `json:"recipes"`
	TotalViews    int64 `json:"total_views"`
	TotalLikes    int   `json:"total_likes"`
	TotalComments int   `json:"total_comments"`
	Rows          []Row `json:"rows"`
}

// Collect builds the admin dashboard. Rows keep the store's newest-first
// order; like and comment counts are fetched concurrently.
func Collect(ctx context.Context, s store.Store) (Dashboard, error) {
	recipes, err := s.List(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("list recipes: %w", err)
	}

	rows := make([]Row, len(recipes))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fanOut)
	for i, r := range recipes {
		rows[i] = Row{ID: r.ID, Name: r.Name, Category: r.Category, Views: r.ViewCount}
		g.Go(func() error {
			likes, err := s.CountLikes(gctx, r.ID)
			if err != nil {
				return fmt.Errorf("count likes for %s: %w", r.ID, err)
			}
			comments, err := s.CountComments(gctx, r.ID)
			if err != nil {
				return fmt.Errorf("count comments for %s: %w", r.ID, err)
			}
			rows[i].Likes = likes
			rows[i].Comments = comments
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{Recipes: len(rows), Rows: rows}
	for _, row := range rows {
		d.TotalViews += row.Views
		d.TotalLikes += row.Likes
		d.TotalComments += row.Comments
	}
	return d, nil
}
