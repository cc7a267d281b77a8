// Package services – UserService
//
// This file implements the UserService, which manages the user lifecycle and
// the symmetric friendship workflow. It validates input shape, performs the
// uniqueness pre-check for username/email, resolves reference arrays for read
// endpoints, and coordinates the multi-document writes (friend symmetry, the
// thought cascade on delete) that the store cannot make atomic.
//
// Cross-document steps are sequential single-document writes. When a later
// step fails after an earlier one succeeded, the partial state is logged at
// warn level and the operation still reports success: callers cannot
// distinguish "fully succeeded" from "partially succeeded" through the
// response.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// UserRepo defines the repository contract required by UserService.
type UserRepo interface {
	// Insert creates a user; unique-index violations surface as driver errors.
	Insert(ctx context.Context, username, email string) (*domain.User, error)

	// FindAll returns a page of users ordered by creation time descending.
	FindAll(ctx context.Context, offset, limit int) ([]domain.User, error)

	// Count returns the total number of users.
	Count(ctx context.Context) (int64, error)

	// FindByID fetches a user, or repo.ErrNotFound.
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)

	// FindByIDs resolves a reference array into full documents.
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)

	// FindByUsernameOrEmail backs the conflict pre-check.
	FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error)

	// UpdateFields applies a partial $set and returns the updated document.
	UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.User, error)

	// Delete removes a user and returns the deleted document.
	Delete(ctx context.Context, id primitive.ObjectID) (*domain.User, error)

	// AddFriend / RemoveFriend mutate one side of the friend set.
	AddFriend(ctx context.Context, id, friendID primitive.ObjectID) (*domain.User, error)
	RemoveFriend(ctx context.Context, id, friendID primitive.ObjectID) (*domain.User, error)

	// PushThought appends a thought reference to a user's thoughts array.
	PushThought(ctx context.Context, userID, thoughtID primitive.ObjectID) error
}

// ThoughtFinder is the slice of the thought repository the UserService needs
// for populating read models and cascading deletes.
type ThoughtFinder interface {
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Thought, error)
	DeleteByUsername(ctx context.Context, username string) (int64, error)
}

// UserService provides user-level operations: CRUD, populated reads, and the
// symmetric friendship workflow.
type UserService struct {
	// Users is the user repository used by this service.
	Users UserRepo
	// Thoughts supplies thought lookups for populate and the delete cascade.
	Thoughts ThoughtFinder
}

// NewUserService constructs a UserService over the given repositories.
func NewUserService(users UserRepo, thoughts ThoughtFinder) *UserService {
	return &UserService{Users: users, Thoughts: thoughts}
}

// Create inserts a new user after validating presence and email shape and
// pre-checking uniqueness. The pre-check is not atomic with the insert, so a
// duplicate-key error from the store is mapped to the same ErrDuplicateUser.
func (s *UserService) Create(ctx context.Context, username, email string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" {
		return nil, ErrMissingFields
	}
	if !domain.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}

	if _, err := s.Users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		return nil, ErrDuplicateUser
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	u, err := s.Users.Insert(ctx, username, email)
	if err != nil {
		if repo.IsDuplicate(err) {
			// Lost the race between pre-check and insert.
			return nil, ErrDuplicateUser
		}
		return nil, err
	}
	return u, nil
}

// List returns a page of users with thoughts and friends resolved, plus the
// total count for pagination metadata.
func (s *UserService) List(ctx context.Context, page, pageSize int) ([]domain.PopulatedUser, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	total, err := s.Users.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.PopulatedUser{}, 0, nil
	}

	users, err := s.Users.FindAll(ctx, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}

	out := make([]domain.PopulatedUser, 0, len(users))
	for i := range users {
		pu, err := s.populate(ctx, &users[i])
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *pu)
	}
	return out, total, nil
}

// Get returns one user with thoughts and friends resolved, or
// ErrUserNotFound.
func (s *UserService) Get(ctx context.Context, id primitive.ObjectID) (*domain.PopulatedUser, error) {
	u, err := s.Users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.populate(ctx, u)
}

// UserUpdate is the partial update payload for a user. Nil fields are left
// untouched; at least one field must be present.
type UserUpdate struct {
	Username *string
	Email    *string
}

// Update applies the supplied fields to the user. Uniqueness and shape
// constraints are re-validated: a taken username/email (other than the
// user's own) yields ErrDuplicateUser, a malformed email ErrInvalidEmail.
func (s *UserService) Update(ctx context.Context, id primitive.ObjectID, upd UserUpdate) (*domain.User, error) {
	fields := map[string]any{}
	var username, email string
	if upd.Username != nil {
		username = strings.TrimSpace(*upd.Username)
		if username == "" {
			return nil, ErrMissingFields
		}
		fields["username"] = username
	}
	if upd.Email != nil {
		email = strings.TrimSpace(*upd.Email)
		if !domain.ValidEmail(email) {
			return nil, ErrInvalidEmail
		}
		fields["email"] = email
	}
	if len(fields) == 0 {
		return nil, ErrMissingFields
	}

	// Pre-check against other users holding either value. Best-effort for
	// the two-field case: FindByUsernameOrEmail returns one match, so a
	// self-match on username can mask an email held by someone else. The
	// unique index still catches that write (mapped below).
	if existing, err := s.Users.FindByUsernameOrEmail(ctx, username, email); err == nil {
		if existing.ID != id {
			return nil, ErrDuplicateUser
		}
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, err
	}

	u, err := s.Users.UpdateFields(ctx, id, fields)
	if err != nil {
		switch {
		case repo.IsDuplicate(err):
			return nil, ErrDuplicateUser
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// Delete removes the user and then deletes every thought whose denormalized
// username matches. The cascade is a second, non-transactional step: if it
// fails the user is already gone, so the failure is logged and the delete
// still reports success with a zero cascade count.
func (s *UserService) Delete(ctx context.Context, id primitive.ObjectID) (*domain.User, int64, error) {
	u, err := s.Users.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, 0, ErrUserNotFound
		}
		return nil, 0, err
	}

	deleted, err := s.Thoughts.DeleteByUsername(ctx, u.Username)
	if err != nil {
		log.Warn().
			Err(err).
			Str("user_id", id.Hex()).
			Str("username", u.Username).
			Msg("user deleted but thought cascade failed; thoughts may be orphaned")
		return u, 0, nil
	}
	return u, deleted, nil
}

// AddFriend adds each user to the other's friend set. Both writes use
// add-to-set semantics, so repeated calls are idempotent. The two writes are
// independent: if the reciprocal write fails after the first succeeded, the
// asymmetry is logged and the call still succeeds.
//
// Errors: ErrSelfFriendship when the ids are equal, ErrUserNotFound /
// ErrFriendNotFound naming whichever document is missing.
func (s *UserService) AddFriend(ctx context.Context, userID, friendID primitive.ObjectID) (*domain.User, *domain.User, error) {
	return s.linkFriends(ctx, userID, friendID, s.Users.AddFriend, "friend add")
}

// RemoveFriend removes each user from the other's friend set. Removing a
// friendship that does not exist is a no-op, not an error. Symmetric
// non-transactional semantics identical to AddFriend.
func (s *UserService) RemoveFriend(ctx context.Context, userID, friendID primitive.ObjectID) (*domain.User, *domain.User, error) {
	return s.linkFriends(ctx, userID, friendID, s.Users.RemoveFriend, "friend remove")
}

// linkFriends runs the shared two-sided friend workflow with op applied in
// both directions.
func (s *UserService) linkFriends(
	ctx context.Context,
	userID, friendID primitive.ObjectID,
	op func(ctx context.Context, id, friendID primitive.ObjectID) (*domain.User, error),
	what string,
) (*domain.User, *domain.User, error) {
	if userID == friendID {
		return nil, nil, ErrSelfFriendship
	}

	// Verify both documents exist up front so the response can name the
	// missing side before any write happens.
	if _, err := s.Users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}
	friend, err := s.Users.FindByID(ctx, friendID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrFriendNotFound
		}
		return nil, nil, err
	}

	user, err := op(ctx, userID, friendID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, err
	}

	if updated, err := op(ctx, friendID, userID); err != nil {
		// One-sided state is a recoverable inconsistency, not a failure.
		log.Warn().
			Err(err).
			Str("user_id", userID.Hex()).
			Str("friend_id", friendID.Hex()).
			Msgf("%s: reciprocal write failed; friendship is asymmetric", what)
	} else {
		friend = updated
	}
	return user, friend, nil
}

// populate resolves a user's thoughts and friends reference arrays into
// their full documents.
func (s *UserService) populate(ctx context.Context, u *domain.User) (*domain.PopulatedUser, error) {
	thoughts, err := s.Thoughts.FindByIDs(ctx, u.Thoughts)
	if err != nil {
		return nil, err
	}
	friends, err := s.Users.FindByIDs(ctx, u.Friends)
	if err != nil {
		return nil, err
	}
	return &domain.PopulatedUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Thoughts:  thoughts,
		Friends:   friends,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}, nil
}
