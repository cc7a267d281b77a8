package domain

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestUser_MarshalJSON_IncludesFriendCount(t *testing.T) {
	u := User{
		ID:       primitive.NewObjectID(),
		Username: "bob",
		Email:    "bob@example.com",
		Thoughts: []primitive.ObjectID{},
		Friends:  []primitive.ObjectID{primitive.NewObjectID(), primitive.NewObjectID()},
	}

	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, ok := m["friendCount"].(float64); !ok || int(got) != 2 {
		t.Fatalf("friendCount = %v; want 2", m["friendCount"])
	}
	if m["username"] != "bob" {
		t.Fatalf("username = %v", m["username"])
	}
	// _id must serialize as a hex string, not an object.
	if _, ok := m["_id"].(string); !ok {
		t.Fatalf("_id serialized as %T; want string", m["_id"])
	}
}

func TestThought_MarshalJSON_IncludesReactionCountAndISOTime(t *testing.T) {
	created := time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
	th := Thought{
		ID:          primitive.NewObjectID(),
		ThoughtText: "hi",
		Username:    "bob",
		CreatedAt:   created,
		Reactions: []Reaction{
			{ReactionID: primitive.NewObjectID(), ReactionBody: "lol", Username: "sue", CreatedAt: created},
		},
	}

	b, err := json.Marshal(th)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got, ok := m["reactionCount"].(float64); !ok || int(got) != 1 {
		t.Fatalf("reactionCount = %v; want 1", m["reactionCount"])
	}
	if got := m["createdAt"]; got != "2025-03-14T09:26:53Z" {
		t.Fatalf("createdAt = %v; want ISO-8601 string", got)
	}
}

func TestPopulatedUser_FriendCount(t *testing.T) {
	u := PopulatedUser{Friends: []User{{Username: "a"}, {Username: "b"}, {Username: "c"}}}
	if u.FriendCount() != 3 {
		t.Fatalf("FriendCount = %d; want 3", u.FriendCount())
	}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"friendCount":3`) {
		t.Fatalf("friendCount missing from %s", b)
	}
}

func TestValidEmail(t *testing.T) {
	cases := map[string]bool{
		"bob@example.com":   true,
		"a@b.co":            true,
		"no-at-sign":        false,
		"missing@tld":       false,
		"":                  false,
		"weird@but.ok.tld":  true,
		"spaces in@bad.com": true, // the loose shape accepts this
	}
	for in, want := range cases {
		if got := ValidEmail(in); got != want {
			t.Errorf("ValidEmail(%q) = %v; want %v", in, got, want)
		}
	}
}

func TestValidThoughtText(t *testing.T) {
	if !ValidThoughtText("hi") {
		t.Fatal("short text should be valid")
	}
	if ValidThoughtText("   ") {
		t.Fatal("blank text should be invalid")
	}
	if !ValidThoughtText(strings.Repeat("☃", MaxThoughtLen)) {
		t.Fatal("exactly MaxThoughtLen runes should be valid")
	}
	if ValidThoughtText(strings.Repeat("☃", MaxThoughtLen+1)) {
		t.Fatal("over MaxThoughtLen runes should be invalid")
	}
}

func TestValidReactionBody(t *testing.T) {
	if !ValidReactionBody("lol") {
		t.Fatal("short body should be valid")
	}
	if ValidReactionBody("") {
		t.Fatal("empty body should be invalid")
	}
	if ValidReactionBody(strings.Repeat("x", MaxReactionLen+1)) {
		t.Fatal("over MaxReactionLen should be invalid")
	}
}
