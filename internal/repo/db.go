// Package repo implements the data persistence layer for domain entities,
// backed by the official MongoDB driver. This file contains connection
// bootstrapping and index management.
//
// The connection is opened once at startup and the *mongo.Database handle is
// passed explicitly into repositories; there is no package-level global.
package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Collection names.
const (
	usersCollection    = "users"
	thoughtsCollection = "thoughts"
)

// ErrNotFound is returned when a requested document does not exist.
// It aliases mongo.ErrNoDocuments for convenience and consistency across
// the service layer and handlers.
var ErrNotFound = mongo.ErrNoDocuments

// Connect opens a client for the given URI and verifies the connection with
// a ping. The caller owns the client and must Disconnect it on shutdown.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		// Best effort: release the half-open client before reporting.
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the unique indexes on users.username and users.email.
// Uniqueness for these fields is ultimately guaranteed here, not by the
// handler-level existence pre-checks, which can race with concurrent inserts.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := options.Index().SetUnique(true)
	_, err := db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
	})
	return err
}

// IsDuplicate reports whether err is a unique-index violation. Used to map
// the insert that loses a pre-check race to the same conflict outcome.
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if mongo.IsDuplicateKeyError(err) {
		return true
	}
	// Bulk and write-concern wrappers can hide the write error.
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 {
				return true
			}
		}
	}
	return false
}
