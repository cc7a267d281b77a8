// Package domain defines the persistence models for users, thoughts, and
// reactions. These types carry the BSON mapping for MongoDB and form the
// core data layer of the social backend.
package domain

import (
	"encoding/json"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Field constraints shared by the schema and the service layer.
const (
	// MaxThoughtLen caps thought text by rune length.
	MaxThoughtLen = 280
	// MaxReactionLen caps reaction bodies by rune length.
	MaxReactionLen = 280
)

// emailRE accepts the basic local@domain.tld shape. It is intentionally
// loose; the store-level unique index is the real gatekeeper for identity.
var emailRE = regexp.MustCompile(`.+@.+\..+`)

// User represents an account that authors thoughts and maintains a
// symmetric friend set.
//
// Fields:
//   - ID: Mongo ObjectID primary key.
//   - Username: unique handle, trimmed of surrounding whitespace.
//   - Email: unique contact address, validated against a basic shape.
//   - Thoughts: ordered references to thoughts authored by this user
//     (insertion order = authorship order).
//   - Friends: set of references to other users. Symmetry is maintained
//     by the service layer, not the store.
//   - CreatedAt / UpdatedAt: UTC timestamps managed by the repository.
//
// The JSON form includes the virtual friendCount field (see MarshalJSON);
// it is derived from len(Friends) and never persisted.
type User struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"_id"`
	Username  string               `bson:"username" json:"username"`
	Email     string               `bson:"email" json:"email"`
	Thoughts  []primitive.ObjectID `bson:"thoughts" json:"thoughts"`
	Friends   []primitive.ObjectID `bson:"friends" json:"friends"`
	CreatedAt time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time            `bson:"updatedAt" json:"updatedAt"`
}

// FriendCount returns the cardinality of the friend set.
func (u User) FriendCount() int { return len(u.Friends) }

// MarshalJSON renders the user together with the virtual friendCount field.
func (u User) MarshalJSON() ([]byte, error) {
	type alias User
	return json.Marshal(struct {
		alias
		FriendCount int `json:"friendCount"`
	}{alias(u), len(u.Friends)})
}

// PopulatedUser is the read model returned by user read endpoints: the
// thoughts and friends reference arrays are resolved into their full
// documents. It is assembled by the service layer and never written back
// to the store.
type PopulatedUser struct {
	ID        primitive.ObjectID `json:"_id"`
	Username  string             `json:"username"`
	Email     string             `json:"email"`
	Thoughts  []Thought          `json:"thoughts"`
	Friends   []User             `json:"friends"`
	CreatedAt time.Time          `json:"createdAt"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// FriendCount returns the cardinality of the resolved friend set.
func (u PopulatedUser) FriendCount() int { return len(u.Friends) }

// MarshalJSON renders the populated user with the virtual friendCount field.
func (u PopulatedUser) MarshalJSON() ([]byte, error) {
	type alias PopulatedUser
	return json.Marshal(struct {
		alias
		FriendCount int `json:"friendCount"`
	}{alias(u), len(u.Friends)})
}

// Thought is a short post authored under a denormalized username. The
// username is a snapshot captured at creation time, not a reference; it is
// deliberately not re-synchronized if the author later renames.
//
// Reactions are embedded sub-documents with no independent lifecycle
// (insertion order = reaction order). The JSON form includes the virtual
// reactionCount field.
type Thought struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	ThoughtText string             `bson:"thoughtText" json:"thoughtText"`
	Username    string             `bson:"username" json:"username"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	Reactions   []Reaction         `bson:"reactions" json:"reactions"`
}

// ReactionCount returns the number of embedded reactions.
func (t Thought) ReactionCount() int { return len(t.Reactions) }

// MarshalJSON renders the thought together with the virtual reactionCount field.
func (t Thought) MarshalJSON() ([]byte, error) {
	type alias Thought
	return json.Marshal(struct {
		alias
		ReactionCount int `json:"reactionCount"`
	}{alias(t), len(t.Reactions)})
}

// Reaction is an embedded reply on a thought. ReactionID is generated
// server-side at insertion; CreatedAt is the server-assigned UTC timestamp.
// Both timestamps and ObjectIDs serialize to JSON as RFC 3339 strings and
// hex strings respectively.
type Reaction struct {
	ReactionID   primitive.ObjectID `bson:"reactionId" json:"reactionId"`
	ReactionBody string             `bson:"reactionBody" json:"reactionBody"`
	Username     string             `bson:"username" json:"username"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// ValidEmail reports whether s matches the basic local@domain.tld shape.
func ValidEmail(s string) bool { return emailRE.MatchString(s) }

// ValidThoughtText reports whether s is within [1, MaxThoughtLen] runes
// after trimming surrounding whitespace.
func ValidThoughtText(s string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n >= 1 && n <= MaxThoughtLen
}

// ValidReactionBody reports whether s is non-blank and within
// MaxReactionLen runes.
func ValidReactionBody(s string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(s))
	return n >= 1 && n <= MaxReactionLen
}
