package store

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"pearl_backend/models"
)

const (
	recipesCollection  = "recipes"
	commentsCollection = "recipe_comments"
	likesCollection    = "recipe_likes"
)

var _ Store = (*Firestore)(nil)

// Firestore keeps recipes, comments and likes in three top-level
// collections. Listing comments by recipe newest-first needs a composite
// index on (recipe_id, created_at desc).
type Firestore struct {
	client *firestore.Client
	now    func() time.Time
}

func NewFirestore(client *firestore.Client) *Firestore {
	return &Firestore{client: client, now: time.Now}
}

// OpenFirestore connects to projectID. An empty credentialsFile falls back
// to application default credentials.
func OpenFirestore(ctx context.Context, projectID, credentialsFile string) (*Firestore, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return NewFirestore(client), nil
}

func (s *Firestore) Close() error {
	return s.client.Close()
}

func notFound(err error) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (s *Firestore) List(ctx context.Context) ([]models.Recipe, error) {
	iter := s.client.Collection(recipesCollection).OrderBy("created_at", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	recipes := []models.Recipe{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list recipes: %w", err)
		}

		var recipe models.Recipe
		if err := doc.DataTo(&recipe); err != nil {
			return nil, fmt.Errorf("decode recipe %s: %w", doc.Ref.ID, err)
		}
		recipe.ID = doc.Ref.ID
		recipes = append(recipes, recipe)
	}
	return recipes, nil
}

func (s *Firestore) Get(ctx context.Context, id string) (models.Recipe, error) {
	doc, err := s.client.Collection(recipesCollection).Doc(id).Get(ctx)
	if err != nil {
		return models.Recipe{}, notFound(err)
	}

	var recipe models.Recipe
	if err := doc.DataTo(&recipe); err != nil {
		return models.Recipe{}, fmt.Errorf("decode recipe %s: %w", id, err)
	}
	recipe.ID = doc.Ref.ID
	return recipe, nil
}

func (s *Firestore) Create(ctx context.Context, form models.RecipeForm) (models.Recipe, error) {
	now := s.now().UTC()
	recipe := models.Recipe{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	form.Apply(&recipe)

	if _, err := s.client.Collection(recipesCollection).Doc(recipe.ID).Create(ctx, recipe); err != nil {
		return models.Recipe{}, err
	}
	return recipe, nil
}

func (s *Firestore) Update(ctx context.Context, id string, form models.RecipeForm) (models.Recipe, error) {
	ref := s.client.Collection(recipesCollection).Doc(id)

	var recipe models.Recipe
	err := s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}
		recipe = models.Recipe{}
		if err := doc.DataTo(&recipe); err != nil {
			return err
		}
		recipe.ID = id
		form.Apply(&recipe)
		recipe.UpdatedAt = s.now().UTC()
		return tx.Set(ref, recipe)
	})
	if err != nil {
		return models.Recipe{}, notFound(err)
	}
	return recipe, nil
}

func (s *Firestore) UpdateField(ctx context.Context, id, field, value string) error {
	if !models.EditableFields[field] {
		return ErrFieldNotAllowed
	}
	_, err := s.client.Collection(recipesCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: field, Value: value},
		{Path: "updated_at", Value: s.now().UTC()},
	})
	return notFound(err)
}

func (s *Firestore) Delete(ctx context.Context, id string) error {
	if _, err := s.client.Collection(recipesCollection).Doc(id).Delete(ctx, firestore.Exists); err != nil {
		return notFound(err)
	}

	bw := s.client.BulkWriter(ctx)
	var jobs []*firestore.BulkWriterJob
	for _, coll := range []string{commentsCollection, likesCollection} {
		iter := s.client.Collection(coll).Where("recipe_id", "==", id).Documents(ctx)
		for {
			doc, err := iter.Next()
			if err == iterator.Done {
				break
			}
			if err != nil {
				iter.Stop()
				bw.End()
				return fmt.Errorf("list %s for recipe %s: %w", coll, id, err)
			}
			job, err := bw.Delete(doc.Ref)
			if err != nil {
				iter.Stop()
				bw.End()
				return fmt.Errorf("queue delete %s: %w", doc.Ref.Path, err)
			}
			jobs = append(jobs, job)
		}
		iter.Stop()
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("delete recipe %s children: %w", id, err)
		}
	}
	return nil
}

func (s *Firestore) IncrementViews(ctx context.Context, id string) error {
	_, err := s.client.Collection(recipesCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "view_count", Value: firestore.Increment(1)},
	})
	return notFound(err)
}

func (s *Firestore) ListComments(ctx context.Context, recipeID string) ([]models.Comment, error) {
	iter := s.client.Collection(commentsCollection).
		Where("recipe_id", "==", recipeID).
		OrderBy("created_at", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	comments := []models.Comment{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list comments: %w", err)
		}

		var c models.Comment
		if err := doc.DataTo(&c); err != nil {
			return nil, fmt.Errorf("decode comment %s: %w", doc.Ref.ID, err)
		}
		c.ID = doc.Ref.ID
		comments = append(comments, c)
	}
	return comments, nil
}

func (s *Firestore) AddComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	if _, err := s.Get(ctx, c.RecipeID); err != nil {
		return models.Comment{}, err
	}

	ref := s.client.Collection(commentsCollection).NewDoc()
	c.ID = ref.ID
	c.CreatedAt = s.now().UTC()
	if _, err := ref.Create(ctx, c); err != nil {
		return models.Comment{}, err
	}
	return c, nil
}

func (s *Firestore) CountComments(ctx context.Context, recipeID string) (int, error) {
	return s.count(ctx, s.client.Collection(commentsCollection).Where("recipe_id", "==", recipeID))
}

func (s *Firestore) CountLikes(ctx context.Context, recipeID string) (int, error) {
	return s.count(ctx, s.client.Collection(likesCollection).Where("recipe_id", "==", recipeID))
}

func (s *Firestore) count(ctx context.Context, q firestore.Query) (int, error) {
	res, err := q.NewAggregationQuery().WithCount("all").Get(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	v, ok := res["all"].(*firestorepb.Value)
	if !ok {
		return 0, fmt.Errorf("count: unexpected aggregation result %T", res["all"])
	}
	return int(v.GetIntegerValue()), nil
}

func (s *Firestore) HasLiked(ctx context.Context, recipeID, fingerprint string) (bool, error) {
	_, err := s.client.Collection(likesCollection).Doc(likeID(recipeID, fingerprint)).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Firestore) Like(ctx context.Context, recipeID, fingerprint string) error {
	if _, err := s.Get(ctx, recipeID); err != nil {
		return err
	}

	id := likeID(recipeID, fingerprint)
	_, err := s.client.Collection(likesCollection).Doc(id).Create(ctx, models.Like{
		ID:                 id,
		RecipeID:           recipeID,
		BrowserFingerprint: fingerprint,
		CreatedAt:          s.now().UTC(),
	})
	if status.Code(err) == codes.AlreadyExists {
		return ErrDuplicateLike
	}
	return err
}

func (s *Firestore) Unlike(ctx context.Context, recipeID, fingerprint string) error {
	_, err := s.client.Collection(likesCollection).Doc(likeID(recipeID, fingerprint)).Delete(ctx)
	return err
}
