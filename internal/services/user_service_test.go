package services

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tbourn/go-social-backend/internal/domain"
	"github.com/tbourn/go-social-backend/internal/repo"
)

// fakeUserRepo implements UserRepo with overridable behavior per test.
type fakeUserRepo struct {
	insert           func(ctx context.Context, username, email string) (*domain.User, error)
	findAll          func(ctx context.Context, offset, limit int) ([]domain.User, error)
	count            func(ctx context.Context) (int64, error)
	findByID         func(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	findByIDs        func(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error)
	findByNameOrMail func(ctx context.Context, username, email string) (*domain.User, error)
	updateFields     func(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.User, error)
	deleteFn         func(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	addFriend        func(ctx context.Context, id, friendID primitive.ObjectID) (*domain.User, error)
	removeFriend     func(ctx context.Context, id, friendID primitive.ObjectID) (*domain.User, error)
	pushThought      func(ctx context.Context, userID, thoughtID primitive.ObjectID) error
}

func (f *fakeUserRepo) Insert(ctx context.Context, username, email string) (*domain.User, error) {
	return f.insert(ctx, username, email)
}

func (f *fakeUserRepo) FindAll(ctx context.Context, offset, limit int) ([]domain.User, error) {
	return f.findAll(ctx, offset, limit)
}

func (f *fakeUserRepo) Count(ctx context.Context) (int64, error) { return f.count(ctx) }

func (f *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return f.findByID(ctx, id)
}

func (f *fakeUserRepo) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
	if f.findByIDs != nil {
		return f.findByIDs(ctx, ids)
	}
	return []domain.User{}, nil
}

func (f *fakeUserRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*domain.User, error) {
	return f.findByNameOrMail(ctx, username, email)
}

func (f *fakeUserRepo) UpdateFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.User, error) {
	return f.updateFields(ctx, id, fields)
}

func (f *fakeUserRepo) Delete(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	return f.deleteFn(ctx, id)
}

func (f *fakeUserRepo) AddFriend(ctx context.Context, id, friendID primitive.ObjectID) (*domain.User, error) {
	return f.addFriend(ctx, id, friendID)
}

func (f *fakeUserRepo) RemoveFriend(ctx context.Context, id, friendID primitive.ObjectID) (*domain.User, error) {
	return f.removeFriend(ctx, id, friendID)
}

func (f *fakeUserRepo) PushThought(ctx context.Context, userID, thoughtID primitive.ObjectID) error {
	if f.pushThought != nil {
		return f.pushThought(ctx, userID, thoughtID)
	}
	return nil
}

// fakeThoughtFinder implements ThoughtFinder.
type fakeThoughtFinder struct {
	findByIDs        func(ctx context.Context, ids []primitive.ObjectID) ([]domain.Thought, error)
	deleteByUsername func(ctx context.Context, username string) (int64, error)
}

func (f *fakeThoughtFinder) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Thought, error) {
	if f.findByIDs != nil {
		return f.findByIDs(ctx, ids)
	}
	return []domain.Thought{}, nil
}

func (f *fakeThoughtFinder) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	if f.deleteByUsername != nil {
		return f.deleteByUsername(ctx, username)
	}
	return 0, nil
}

func notFoundUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		findByNameOrMail: func(context.Context, string, string) (*domain.User, error) {
			return nil, repo.ErrNotFound
		},
	}
}

func TestUserCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("trims and inserts", func(t *testing.T) {
		var gotUsername, gotEmail string
		users := notFoundUserRepo()
		users.insert = func(_ context.Context, username, email string) (*domain.User, error) {
			gotUsername, gotEmail = username, email
			return &domain.User{ID: primitive.NewObjectID(), Username: username, Email: email}, nil
		}
		svc := NewUserService(users, &fakeThoughtFinder{})

		u, err := svc.Create(ctx, "  bob  ", " bob@example.com ")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if gotUsername != "bob" || gotEmail != "bob@example.com" {
			t.Fatalf("insert got (%q, %q), want trimmed values", gotUsername, gotEmail)
		}
		if u.Username != "bob" {
			t.Fatalf("Username = %q, want %q", u.Username, "bob")
		}
	})

	t.Run("missing fields", func(t *testing.T) {
		svc := NewUserService(notFoundUserRepo(), &fakeThoughtFinder{})
		if _, err := svc.Create(ctx, "", "bob@example.com"); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("err = %v, want ErrMissingFields", err)
		}
		if _, err := svc.Create(ctx, "bob", "   "); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("err = %v, want ErrMissingFields", err)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		svc := NewUserService(notFoundUserRepo(), &fakeThoughtFinder{})
		if _, err := svc.Create(ctx, "bob", "not-an-email"); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("err = %v, want ErrInvalidEmail", err)
		}
	})

	t.Run("duplicate caught by pre-check", func(t *testing.T) {
		users := &fakeUserRepo{
			findByNameOrMail: func(context.Context, string, string) (*domain.User, error) {
				return &domain.User{Username: "bob"}, nil
			},
			insert: func(context.Context, string, string) (*domain.User, error) {
				t.Fatal("insert must not run when the pre-check finds a conflict")
				return nil, nil
			},
		}
		svc := NewUserService(users, &fakeThoughtFinder{})
		if _, err := svc.Create(ctx, "bob", "bob@example.com"); !errors.Is(err, ErrDuplicateUser) {
			t.Fatalf("err = %v, want ErrDuplicateUser", err)
		}
	})

	t.Run("duplicate caught at insert after winning pre-check", func(t *testing.T) {
		// A concurrent insert can land between the pre-check and our own
		// insert; the unique-index violation must map to the same conflict.
		users := notFoundUserRepo()
		users.insert = func(context.Context, string, string) (*domain.User, error) {
			return nil, mongo.WriteException{
				WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
			}
		}
		svc := NewUserService(users, &fakeThoughtFinder{})
		if _, err := svc.Create(ctx, "bob", "bob@example.com"); !errors.Is(err, ErrDuplicateUser) {
			t.Fatalf("err = %v, want ErrDuplicateUser", err)
		}
	})

	t.Run("pre-check failure surfaces", func(t *testing.T) {
		boom := errors.New("primary unavailable")
		users := &fakeUserRepo{
			findByNameOrMail: func(context.Context, string, string) (*domain.User, error) {
				return nil, boom
			},
		}
		svc := NewUserService(users, &fakeThoughtFinder{})
		if _, err := svc.Create(ctx, "bob", "bob@example.com"); !errors.Is(err, boom) {
			t.Fatalf("err = %v, want wrapped store error", err)
		}
	})
}

func TestUserList(t *testing.T) {
	ctx := context.Background()
	friendID := primitive.NewObjectID()
	thoughtID := primitive.NewObjectID()

	users := notFoundUserRepo()
	users.count = func(context.Context) (int64, error) { return 42, nil }
	var gotOffset, gotLimit int
	users.findAll = func(_ context.Context, offset, limit int) ([]domain.User, error) {
		gotOffset, gotLimit = offset, limit
		return []domain.User{{
			ID:       primitive.NewObjectID(),
			Username: "bob",
			Thoughts: []primitive.ObjectID{thoughtID},
			Friends:  []primitive.ObjectID{friendID},
		}}, nil
	}
	users.findByIDs = func(_ context.Context, ids []primitive.ObjectID) ([]domain.User, error) {
		if len(ids) != 1 || ids[0] != friendID {
			t.Fatalf("friend lookup ids = %v, want [%v]", ids, friendID)
		}
		return []domain.User{{ID: friendID, Username: "sue"}}, nil
	}
	thoughts := &fakeThoughtFinder{
		findByIDs: func(_ context.Context, ids []primitive.ObjectID) ([]domain.Thought, error) {
			if len(ids) != 1 || ids[0] != thoughtID {
				t.Fatalf("thought lookup ids = %v, want [%v]", ids, thoughtID)
			}
			return []domain.Thought{{ID: thoughtID, ThoughtText: "hi", Username: "bob"}}, nil
		},
	}
	svc := NewUserService(users, thoughts)

	got, total, err := svc.List(ctx, 3, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 42 {
		t.Fatalf("total = %d, want 42", total)
	}
	if gotOffset != 20 || gotLimit != 10 {
		t.Fatalf("FindAll got (offset=%d, limit=%d), want (20, 10)", gotOffset, gotLimit)
	}
	if len(got) != 1 || len(got[0].Friends) != 1 || got[0].Friends[0].Username != "sue" {
		t.Fatalf("populated friends = %+v, want sue resolved", got)
	}
	if len(got[0].Thoughts) != 1 || got[0].Thoughts[0].ThoughtText != "hi" {
		t.Fatalf("populated thoughts = %+v, want hi resolved", got[0].Thoughts)
	}
}

func TestUserListEmpty(t *testing.T) {
	users := notFoundUserRepo()
	users.count = func(context.Context) (int64, error) { return 0, nil }
	users.findAll = func(context.Context, int, int) ([]domain.User, error) {
		t.Fatal("FindAll must not run when the collection is empty")
		return nil, nil
	}
	svc := NewUserService(users, &fakeThoughtFinder{})

	got, total, err := svc.List(context.Background(), 1, 20)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 0 || len(got) != 0 || got == nil {
		t.Fatalf("got (%v, %d), want empty non-nil slice and zero total", got, total)
	}
}

func TestUserGet(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()

	t.Run("found", func(t *testing.T) {
		users := notFoundUserRepo()
		users.findByID = func(_ context.Context, got primitive.ObjectID) (*domain.User, error) {
			if got != id {
				t.Fatalf("FindByID got %v, want %v", got, id)
			}
			return &domain.User{ID: id, Username: "bob"}, nil
		}
		svc := NewUserService(users, &fakeThoughtFinder{})

		u, err := svc.Get(ctx, id)
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if u.Username != "bob" {
			t.Fatalf("Username = %q, want %q", u.Username, "bob")
		}
	})

	t.Run("not found", func(t *testing.T) {
		users := notFoundUserRepo()
		users.findByID = func(context.Context, primitive.ObjectID) (*domain.User, error) {
			return nil, repo.ErrNotFound
		}
		svc := NewUserService(users, &fakeThoughtFinder{})
		if _, err := svc.Get(ctx, id); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("err = %v, want ErrUserNotFound", err)
		}
	})
}

func strptr(s string) *string { return &s }

func TestUserUpdate(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()

	t.Run("partial set", func(t *testing.T) {
		users := notFoundUserRepo()
		var gotFields map[string]any
		users.updateFields = func(_ context.Context, _ primitive.ObjectID, fields map[string]any) (*domain.User, error) {
			gotFields = fields
			return &domain.User{ID: id, Username: "bobby"}, nil
		}
		svc := NewUserService(users, &fakeThoughtFinder{})

		u, err := svc.Update(ctx, id, UserUpdate{Username: strptr(" bobby ")})
		if err != nil {
			t.Fatalf("Update: %v", err)
		}
		if len(gotFields) != 1 || gotFields["username"] != "bobby" {
			t.Fatalf("fields = %v, want trimmed username only", gotFields)
		}
		if u.Username != "bobby" {
			t.Fatalf("Username = %q, want %q", u.Username, "bobby")
		}
	})

	t.Run("no fields", func(t *testing.T) {
		svc := NewUserService(notFoundUserRepo(), &fakeThoughtFinder{})
		if _, err := svc.Update(ctx, id, UserUpdate{}); !errors.Is(err, ErrMissingFields) {
			t.Fatalf("err = %v, want ErrMissingFields", err)
		}
	})

	t.Run("invalid email", func(t *testing.T) {
		svc := NewUserService(notFoundUserRepo(), &fakeThoughtFinder{})
		if _, err := svc.Update(ctx, id, UserUpdate{Email: strptr("nope")}); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("err = %v, want ErrInvalidEmail", err)
		}
	})

	t.Run("value held by another user", func(t *testing.T) {
		users := &fakeUserRepo{
			findByNameOrMail: func(context.Context, string, string) (*domain.User, error) {
				return &domain.User{ID: primitive.NewObjectID(), Username: "bobby"}, nil
			},
		}
		svc := NewUserService(users, &fakeThoughtFinder{})
		if _, err := svc.Update(ctx, id, UserUpdate{Username: strptr("bobby")}); !errors.Is(err, ErrDuplicateUser) {
			t.Fatalf("err = %v, want ErrDuplicateUser", err)
		}
	})

	t.Run("value held by self passes", func(t *testing.T) {
		users := &fakeUserRepo{
			findByNameOrMail: func(context.Context, string, string) (*domain.User, error) {
				return &domain.User{ID: id, Username: "bob"}, nil
			},
			updateFields: func(context.Context, primitive.ObjectID, map[string]any) (*domain.User, error) {
				return &domain.User{ID: id, Username: "bob"}, nil
			},
		}
		svc := NewUserService(users, &fakeThoughtFinder{})
		if _, err := svc.Update(ctx, id, UserUpdate{Username: strptr("bob")}); err != nil {
			t.Fatalf("Update: %v", err)
		}
	})

	t.Run("duplicate caught at write after winning pre-check", func(t *testing.T) {
		users := notFoundUserRepo()
		users.updateFields = func(context.Context, primitive.ObjectID, map[string]any) (*domain.User, error) {
			return nil, mongo.WriteException{
				WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key error"}},
			}
		}
		svc := NewUserService(users, &fakeThoughtFinder{})
		if _, err := svc.Update(ctx, id, UserUpdate{Username: strptr("bobby")}); !errors.Is(err, ErrDuplicateUser) {
			t.Fatalf("err = %v, want ErrDuplicateUser", err)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		users := notFoundUserRepo()
		users.updateFields = func(context.Context, primitive.ObjectID, map[string]any) (*domain.User, error) {
			return nil, repo.ErrNotFound
		}
		svc := NewUserService(users, &fakeThoughtFinder{})
		if _, err := svc.Update(ctx, id, UserUpdate{Username: strptr("bobby")}); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("err = %v, want ErrUserNotFound", err)
		}
	})
}

func TestUserDelete(t *testing.T) {
	ctx := context.Background()
	id := primitive.NewObjectID()

	t.Run("cascades by username", func(t *testing.T) {
		users := notFoundUserRepo()
		users.deleteFn = func(context.Context, primitive.ObjectID) (*domain.User, error) {
			return &domain.User{ID: id, Username: "bob"}, nil
		}
		var cascaded string
		thoughts := &fakeThoughtFinder{
			deleteByUsername: func(_ context.Context, username string) (int64, error) {
				cascaded = username
				return 3, nil
			},
		}
		svc := NewUserService(users, thoughts)

		u, deleted, err := svc.Delete(ctx, id)
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if cascaded != "bob" {
			t.Fatalf("cascade ran for %q, want %q", cascaded, "bob")
		}
		if deleted != 3 || u.Username != "bob" {
			t.Fatalf("got (%q, %d), want (bob, 3)", u.Username, deleted)
		}
	})

	t.Run("cascade failure still succeeds", func(t *testing.T) {
		users := notFoundUserRepo()
		users.deleteFn = func(context.Context, primitive.ObjectID) (*domain.User, error) {
			return &domain.User{ID: id, Username: "bob"}, nil
		}
		thoughts := &fakeThoughtFinder{
			deleteByUsername: func(context.Context, string) (int64, error) {
				return 0, errors.New("primary unavailable")
			},
		}
		svc := NewUserService(users, thoughts)

		u, deleted, err := svc.Delete(ctx, id)
		if err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if u == nil || deleted != 0 {
			t.Fatalf("got (%v, %d), want user and zero cascade count", u, deleted)
		}
	})

	t.Run("missing user", func(t *testing.T) {
		users := notFoundUserRepo()
		users.deleteFn = func(context.Context, primitive.ObjectID) (*domain.User, error) {
			return nil, repo.ErrNotFound
		}
		svc := NewUserService(users, &fakeThoughtFinder{})
		if _, _, err := svc.Delete(ctx, id); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("err = %v, want ErrUserNotFound", err)
		}
	})
}

func TestAddFriend(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()
	friendID := primitive.NewObjectID()

	t.Run("writes both directions", func(t *testing.T) {
		users := notFoundUserRepo()
		users.findByID = func(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
			return &domain.User{ID: id}, nil
		}
		var calls [][2]primitive.ObjectID
		users.addFriend = func(_ context.Context, id, fid primitive.ObjectID) (*domain.User, error) {
			calls = append(calls, [2]primitive.ObjectID{id, fid})
			return &domain.User{ID: id, Friends: []primitive.ObjectID{fid}}, nil
		}
		svc := NewUserService(users, &fakeThoughtFinder{})

		u, f, err := svc.AddFriend(ctx, userID, friendID)
		if err != nil {
			t.Fatalf("AddFriend: %v", err)
		}
		want := [][2]primitive.ObjectID{{userID, friendID}, {friendID, userID}}
		if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
			t.Fatalf("calls = %v, want %v", calls, want)
		}
		if u.ID != userID || f.ID != friendID {
			t.Fatalf("returned (%v, %v), want (%v, %v)", u.ID, f.ID, userID, friendID)
		}
	})

	t.Run("self friendship", func(t *testing.T) {
		svc := NewUserService(notFoundUserRepo(), &fakeThoughtFinder{})
		if _, _, err := svc.AddFriend(ctx, userID, userID); !errors.Is(err, ErrSelfFriendship) {
			t.Fatalf("err = %v, want ErrSelfFriendship", err)
		}
	})

	t.Run("missing user named", func(t *testing.T) {
		users := notFoundUserRepo()
		users.findByID = func(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
			if id == userID {
				return nil, repo.ErrNotFound
			}
			return &domain.User{ID: id}, nil
		}
		svc := NewUserService(users, &fakeThoughtFinder{})
		if _, _, err := svc.AddFriend(ctx, userID, friendID); !errors.Is(err, ErrUserNotFound) {
			t.Fatalf("err = %v, want ErrUserNotFound", err)
		}
	})

	t.Run("missing friend named", func(t *testing.T) {
		users := notFoundUserRepo()
		users.findByID = func(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
			if id == friendID {
				return nil, repo.ErrNotFound
			}
			return &domain.User{ID: id}, nil
		}
		svc := NewUserService(users, &fakeThoughtFinder{})
		if _, _, err := svc.AddFriend(ctx, userID, friendID); !errors.Is(err, ErrFriendNotFound) {
			t.Fatalf("err = %v, want ErrFriendNotFound", err)
		}
	})

	t.Run("reciprocal failure still succeeds", func(t *testing.T) {
		users := notFoundUserRepo()
		users.findByID = func(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
			return &domain.User{ID: id, Username: "pre"}, nil
		}
		users.addFriend = func(_ context.Context, id, fid primitive.ObjectID) (*domain.User, error) {
			if id == friendID {
				return nil, errors.New("primary unavailable")
			}
			return &domain.User{ID: id, Friends: []primitive.ObjectID{fid}}, nil
		}
		svc := NewUserService(users, &fakeThoughtFinder{})

		u, f, err := svc.AddFriend(ctx, userID, friendID)
		if err != nil {
			t.Fatalf("AddFriend: %v", err)
		}
		if u == nil || f == nil {
			t.Fatal("want both sides returned despite reciprocal failure")
		}
		// Friend falls back to the pre-write snapshot.
		if f.Username != "pre" {
			t.Fatalf("friend = %+v, want pre-write snapshot", f)
		}
	})
}

func TestRemoveFriend(t *testing.T) {
	ctx := context.Background()
	userID := primitive.NewObjectID()
	friendID := primitive.NewObjectID()

	users := notFoundUserRepo()
	users.findByID = func(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
		return &domain.User{ID: id}, nil
	}
	var calls [][2]primitive.ObjectID
	users.removeFriend = func(_ context.Context, id, fid primitive.ObjectID) (*domain.User, error) {
		calls = append(calls, [2]primitive.ObjectID{id, fid})
		return &domain.User{ID: id}, nil
	}
	svc := NewUserService(users, &fakeThoughtFinder{})

	if _, _, err := svc.RemoveFriend(ctx, userID, friendID); err != nil {
		t.Fatalf("RemoveFriend: %v", err)
	}
	want := [][2]primitive.ObjectID{{userID, friendID}, {friendID, userID}}
	if len(calls) != 2 || calls[0] != want[0] || calls[1] != want[1] {
		t.Fatalf("calls = %v, want %v", calls, want)
	}

	if _, _, err := svc.RemoveFriend(ctx, userID, userID); !errors.Is(err, ErrSelfFriendship) {
		t.Fatalf("err = %v, want ErrSelfFriendship", err)
	}
}
