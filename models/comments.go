package models

import (
	"errors"
	"strings"
	"time"
)

type Comment struct {
	ID          string    `firestore:"id" json:"id"`
	RecipeID    string    `firestore:"recipe_id" json:"recipe_id"`
	VisitorName string    `firestore:"visitor_name" json:"visitor_name"`
	CommentText string    `firestore:"comment_text" json:"comment_text"`
	CreatedAt   time.Time `firestore:"created_at" json:"created_at"`
}

type Like struct {
	ID                 string    `firestore:"id" json:"id"`
	RecipeID           string    `firestore:"recipe_id" json:"recipe_id"`
	BrowserFingerprint string    `firestore:"browser_fingerprint" json:"browser_fingerprint"`
	CreatedAt          time.Time `firestore:"created_at" json:"created_at"`
}

const (
	MaxVisitorNameLen = 50
	MaxCommentLen     = 500
)

var (
	ErrVisitorNameRequired = errors.New("Please enter your name.")
	ErrCommentRequired     = errors.New("Please write a comment.")
	ErrVisitorNameTooLong  = errors.New("Name must be 50 characters or fewer.")
	ErrCommentTooLong      = errors.New("Comment must be 500 characters or fewer.")
)

type CommentForm struct {
	VisitorName string `json:"visitor_name"`
	CommentText string `json:"comment_text"`
}

func (f CommentForm) Normalize() CommentForm {
	f.VisitorName = strings.TrimSpace(f.VisitorName)
	f.CommentText = strings.TrimSpace(f.CommentText)
	return f
}

func (f CommentForm) Validate() error {
	switch {
	case f.VisitorName == "":
		return ErrVisitorNameRequired
	case f.CommentText == "":
		return ErrCommentRequired
	case runeLen(f.VisitorName) > MaxVisitorNameLen:
		return ErrVisitorNameTooLong
	case runeLen(f.CommentText) > MaxCommentLen:
		return ErrCommentTooLong
	}
	return nil
}
