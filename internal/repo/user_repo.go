// Package repo implements the data persistence layer for domain entities,
// backed by the official MongoDB driver. This file provides the repository
// for the User collection.
//
// All methods are context-aware and follow the "thin repository" approach:
// no business logic, only CRUD persistence and update-operator composition.
//
// Error semantics:
//   - When a user is not found, methods return ErrNotFound
//     (alias of mongo.ErrNoDocuments).
//   - Unique-index violations propagate as driver errors; callers detect
//     them with IsDuplicate.
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

// UserRepo persists domain.User documents in the users collection.
type UserRepo struct {
	c *mongo.Collection
}

// NewUserRepo binds a UserRepo to the users collection of db.
func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{c: db.Collection(usersCollection)}
}

// returnAfter asks FindOneAndUpdate to return the post-update document.
var returnAfter = options.FindOneAndUpdate().SetReturnDocument(options.After)

// Insert creates a new user with empty thoughts/friends arrays and UTC
// timestamps. The generated ObjectID is set on the returned document.
// A unique-index violation surfaces as a driver error (see IsDuplicate).
func (r *UserRepo) Insert(ctx context.Context, username, email string) (*domain.User, error) {
	now := time.Now().UTC()
	u := &domain.User{
		ID:        primitive.NewObjectID(),
		Username:  username,
		Email:     email,
		Thoughts:  []primitive.ObjectID{},
		Friends:   []primitive.ObjectID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.c.InsertOne(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// FindAll returns a page of users ordered by creation time descending.
// Use Count to obtain the total for pagination metadata.
func (r *UserRepo) FindAll(ctx context.Context, offset, limit int) ([]domain.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cur, err := r.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the total number of users.
func (r *UserRepo) Count(ctx context.Context) (int64, error) {
	return r.c.CountDocuments(ctx, bson.M{})
}

// FindByID fetches a single user by ObjectID, or ErrNotFound if missing.
func (r *UserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var u domain.User
	if err := r.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// FindByIDs returns the users whose ids appear in ids. Missing ids are
// silently skipped; order follows the store, not the input.
func (r *UserRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	cur, err := r.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []domain.User{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FindByUsernameOrEmail returns the first user matching either value, or
// ErrNotFound when neither is taken. Used for the conflict pre-check on
// create and update.
func (r *UserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"username": username},
		bson.M{"email": email},
	}}
	var u domain.User
	if err := r.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateFields applies a partial $set of the supplied fields plus a fresh
// updatedAt, returning the post-update document or ErrNotFound.
func (r *UserRepo) UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.User, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set[k] = v
	}
	var u domain.User
	err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, returnAfter).Decode(&u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Delete removes the user and returns the deleted document (needed for the
// username-based thought cascade), or ErrNotFound.
func (r *UserRepo) Delete(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var u domain.User
	if err := r.c.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// AddFriend inserts friendID into the friend set of id using $addToSet, so
// repeated calls are idempotent. Returns the post-update document or
// ErrNotFound.
func (r *UserRepo) AddFriend(ctx context.Context, id, friendID primitive.ObjectID) (*domain.User, error) {
	update := bson.M{
		"$addToSet": bson.M{"friends": friendID},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	var u domain.User
	if err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// RemoveFriend pulls friendID from the friend set of id. Removing an id
// that is not present is a no-op, not an error. Returns the post-update
// document or ErrNotFound.
func (r *UserRepo) RemoveFriend(ctx context.Context, id, friendID primitive.ObjectID) (*domain.User, error) {
	update := bson.M{
		"$pull": bson.M{"friends": friendID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	var u domain.User
	if err := r.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, returnAfter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// PushThought appends thoughtID to the thoughts array of userID. Returns
// ErrNotFound when the user does not exist.
func (r *UserRepo) PushThought(ctx context.Context, userID, thoughtID primitive.ObjectID) error {
	update := bson.M{
		"$push": bson.M{"thoughts": thoughtID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	res, err := r.c.UpdateByID(ctx, userID, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// PullThought removes thoughtID from whichever user's thoughts array holds
// it. A thought no user references is a no-op, not an error.
func (r *UserRepo) PullThought(ctx context.Context, thoughtID primitive.ObjectID) error {
	update := bson.M{
		"$pull": bson.M{"thoughts": thoughtID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	_, err := r.c.UpdateOne(ctx, bson.M{"thoughts": thoughtID}, update)
	return err
}
