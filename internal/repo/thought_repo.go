// Package repo implements the data persistence layer for domain entities,
// backed by the official MongoDB driver. This file provides the repository
// for the Thought collection, including the embedded Reaction array updates.
package repo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// ThoughtRepo persists domain.Thought documents in the thoughts collection.
type ThoughtRepo struct {
	c *mongo.Collection
}

// NewThoughtRepo binds a ThoughtRepo to the thoughts collection of db.
func NewThoughtRepo(db *mongo.Database) *ThoughtRepo {
	return &ThoughtRepo{c: db.Collection(thoughtsCollection)}
}

// Insert creates a new thought with an empty reactions array and a UTC
// creation timestamp. The username is stored as a denormalized snapshot.
func (r *ThoughtRepo) Insert(ctx context.Context, thoughtText, username string) (*domain.Thought, error) {
	t := &domain.Thought{
		ID:          primitive.NewObjectID(),
		ThoughtText: thoughtText,
		Username:    username,
		CreatedAt:   time.Now().UTC(),
		Reactions:   []domain.Reaction{},
	}
	if _, err := r.c.InsertOne(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// FindAll returns a page of thoughts ordered by creation time descending.
func (r *ThoughtRepo) FindAll(ctx context.Context, offset, limit int) ([]domain.Thought, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := r.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.Thought{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the total number of thoughts.
func (r *ThoughtRepo) Count(ctx context.Context) (int64, error) {
	return r.c.CountDocuments(ctx, bson.M{})
}

// FindByID fetches a single thought by ObjectID, or ErrNotFound if missing.
func (r *ThoughtRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Thought, error) {
	var t domain.Thought
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// FindByIDs returns the thoughts whose ids appear in ids. Missing ids are
// silently skipped.
func (r *ThoughtRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Thought, error) {
	if len(ids) == 0 {
		return []domain.Thought{}, nil
	}
	cur, err := r.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.Thought{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateFields applies a partial $set of the supplied fields, returning the
// post-update document or ErrNotFound.
func (r *ThoughtRepo) UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.Thought, error) {
	set := bson.M{}
	for k, v := range fields {
		set[k] = v
	}
	var t domain.Thought
	err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter).Decode(&t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes the thought and returns the deleted document, or ErrNotFound.
func (r *ThoughtRepo) Delete(ctx context.Context, id primitive.ObjectID) (*domain.Thought, error) {
	var t domain.Thought
	if err := r.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteByUsername removes every thought whose denormalized username equals
// username and reports how many were deleted. This is the user-delete
// cascade: it matches on the snapshot field, not a reference, so it can
// under- or over-match if usernames were reused.
func (r *ThoughtRepo) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	res, err := r.c.DeleteMany(ctx, bson.M{"username": username})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// PushReaction appends reaction to the reactions array of the thought,
// returning the post-update document or ErrNotFound.
func (r *ThoughtRepo) PushReaction(ctx context.Context, id primitive.ObjectID, reaction domain.Reaction) (*domain.Thought, error) {
	update := bson.M{"$push": bson.M{"reactions": reaction}}
	var t domain.Thought
	if err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

// PullReaction removes the embedded reaction with reactionID from the
// thought. Pulling an id that is not present leaves the document unchanged
// and still succeeds; only a missing thought yields ErrNotFound.
func (r *ThoughtRepo) PullReaction(ctx context.Context, id, reactionID primitive.ObjectID) (*domain.Thought, error) {
	update := bson.M{"$pull": bson.M{"reactions": bson.M{"reactionId": reactionID}}}
	var t domain.Thought
	if err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter).Decode(&t); err != nil {
		return nil, err
	}
	return &t, nil
}
