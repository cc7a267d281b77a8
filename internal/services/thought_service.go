// Package services – ThoughtService
//
// This file implements the ThoughtService, which manages thoughts and their
// embedded reactions. Creating a thought is a two-step workflow: insert the
// document, then push its id onto the author's thoughts array. The second
// step is a separate single-document write; when it fails the orphaned
// back-reference is logged and creation still succeeds.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// ThoughtRepo defines the repository contract required by ThoughtService.
type ThoughtRepo interface {
	Insert(ctx context.Context, thoughtText, username string) (*domain.Thought, error)
	FindAll(ctx context.Context, offset, limit int) ([]domain.Thought, error)
	Count(ctx context.Context) (int64, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Thought, error)
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.Thought, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*domain.Thought, error)
	PushReaction(ctx context.Context, id primitive.ObjectID, reaction domain.Reaction) (*domain.Thought, error)
	PullReaction(ctx context.Context, id, reactionID primitive.ObjectID) (*domain.Thought, error)
}

// ThoughtBackRef is the slice of the user repository the ThoughtService
// needs to maintain the author's thoughts array.
type ThoughtBackRef interface {
	PushThought(ctx context.Context, userID, thoughtID primitive.ObjectID) error
	PullThought(ctx context.Context, thoughtID primitive.ObjectID) error
}

// ThoughtService provides thought-level operations including the embedded
// reaction sub-operations.
type ThoughtService struct {
	// Thoughts is the thought repository used by this service.
	Thoughts ThoughtRepo
	// Users maintains the author back-reference on create.
	Users ThoughtBackRef
}

// NewThoughtService constructs a ThoughtService over the given repositories.
func NewThoughtService(thoughts ThoughtRepo, users ThoughtBackRef) *ThoughtService {
	return &ThoughtService{Thoughts: thoughts, Users: users}
}

// Create inserts a new thought and then appends its id to the author's
// thoughts array. The back-reference push is non-transactional: a failure
// (including an unknown userID) is logged and the thought is still returned.
func (s *ThoughtService) Create(ctx context.Context, thoughtText, username string, userID primitive.ObjectID) (*domain.Thought, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrMissingFields
	}
	if !domain.ValidThoughtText(thoughtText) {
		return nil, ErrInvalidThoughtText
	}

	t, err := s.Thoughts.Insert(ctx, strings.TrimSpace(thoughtText), username)
	if err != nil {
		return nil, err
	}

	if err := s.Users.PushThought(ctx, userID, t.ID); err != nil {
		log.Warn().
			Err(err).
			Str("thought_id", t.ID.Hex()).
			Str("user_id", userID.Hex()).
			Msg("thought created but author back-reference failed")
	}
	return t, nil
}

// List returns a page of thoughts plus the total count.
func (s *ThoughtService) List(ctx context.Context, page, pageSize int) ([]domain.Thought, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Thoughts.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Thought{}, 0, nil
	}

	items, err := s.Thoughts.FindAll(ctx, offset, pageSize)
	return items, total, err
}

// Get returns one thought, or ErrThoughtNotFound.
func (s *ThoughtService) Get(ctx context.Context, id primitive.ObjectID) (*domain.Thought, error) {
	t, err := s.Thoughts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrThoughtNotFound
		}
		return nil, err
	}
	return t, nil
}

// ThoughtUpdate is the partial update payload for a thought. Nil fields are
// left untouched; at least one field must be present.
type ThoughtUpdate struct {
	ThoughtText *string
	Username    *string
}

// Update applies the supplied fields with constraint re-validation.
func (s *ThoughtService) Update(ctx context.Context, id primitive.ObjectID, upd ThoughtUpdate) (*domain.Thought, error) {
	fields := map[string]any{}
	if upd.ThoughtText != nil {
		if !domain.ValidThoughtText(*upd.ThoughtText) {
			return nil, ErrInvalidThoughtText
		}
		fields["thoughtText"] = strings.TrimSpace(*upd.ThoughtText)
	}
	if upd.Username != nil {
		username := strings.TrimSpace(*upd.Username)
		if username == "" {
			return nil, ErrMissingFields
		}
		fields["username"] = username
	}
	if len(fields) == 0 {
		return nil, ErrMissingFields
	}

	t, err := s.Thoughts.UpdateFields(ctx, id, fields)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrThoughtNotFound
		}
		return nil, err
	}
	return t, nil
}

// Delete removes the thought and then pulls its id from the author's
// thoughts array. The pull is a second, non-transactional write: a failure
// leaves a dangling reference, which is logged and the delete still
// succeeds.
func (s *ThoughtService) Delete(ctx context.Context, id primitive.ObjectID) (*domain.Thought, error) {
	t, err := s.Thoughts.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrThoughtNotFound
		}
		return nil, err
	}

	if err := s.Users.PullThought(ctx, id); err != nil {
		log.Warn().
			Err(err).
			Str("thought_id", id.Hex()).
			Msg("thought deleted but author back-reference removal failed")
	}
	return t, nil
}

// AddReaction appends a new reaction with a freshly generated id and a
// server-assigned UTC timestamp to the thought's reactions array.
func (s *ThoughtService) AddReaction(ctx context.Context, id primitive.ObjectID, reactionBody, username string) (*domain.Thought, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, ErrMissingFields
	}
	if !domain.ValidReactionBody(reactionBody) {
		return nil, ErrInvalidReactionBody
	}

	reaction := domain.Reaction{
		ReactionID:   primitive.NewObjectID(),
		ReactionBody: strings.TrimSpace(reactionBody),
		Username:     username,
		CreatedAt:    time.Now().UTC(),
	}
	t, err := s.Thoughts.PushReaction(ctx, id, reaction)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrThoughtNotFound
		}
		return nil, err
	}
	return t, nil
}

// RemoveReaction pulls the embedded reaction with reactionID from the
// thought. A reaction id that is not present is a no-op: the call succeeds
// and returns the (possibly unchanged) thought. Only a missing thought
// yields ErrThoughtNotFound.
func (s *ThoughtService) RemoveReaction(ctx context.Context, id, reactionID primitive.ObjectID) (*domain.Thought, error) {
	t, err := s.Thoughts.PullReaction(ctx, id, reactionID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrThoughtNotFound
		}
		return nil, err
	}
	return t, nil
}
