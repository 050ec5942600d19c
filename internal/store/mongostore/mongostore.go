// Package mongostore keeps contacts as documents in a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"

	"gitlab.com/dirk.krummacker/contacts-api/internal/model"
	"gitlab.com/dirk.krummacker/contacts-api/internal/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Collection is the name of the collection holding the contacts.
const Collection = "contacts"

// Store is a store.Store backed by MongoDB.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Open connects to the MongoDB deployment at uri and uses the contacts collection of the named
// database.
func Open(ctx context.Context, uri string, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	s := &Store{
		client:     client,
		collection: client.Database(database).Collection(Collection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// ensureIndexes creates the index that serves the sorted owner queries.
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}, {Key: "name", Value: 1}, {Key: "_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	return nil
}

// byIdAndOwner selects a single contact of an owner.
func byIdAndOwner(id string, owner string) bson.D {
	return bson.D{{Key: "_id", Value: id}, {Key: "owner", Value: owner}}
}

// listFilter translates a model.Filter into a query document.
func listFilter(filter model.Filter) bson.D {
	query := bson.D{{Key: "owner", Value: filter.Owner}}
	if filter.Favorite != nil {
		query = append(query, bson.E{Key: "favorite", Value: *filter.Favorite})
	}
	return query
}

// setDocument translates the changes into a $set update document.
func setDocument(changes model.Changes) bson.D {
	set := bson.D{}
	if changes.Name != nil {
		set = append(set, bson.E{Key: "name", Value: *changes.Name})
	}
	if changes.Email != nil {
		set = append(set, bson.E{Key: "email", Value: *changes.Email})
	}
	if changes.Phone != nil {
		set = append(set, bson.E{Key: "phone", Value: *changes.Phone})
	}
	if changes.Favorite != nil {
		set = append(set, bson.E{Key: "favorite", Value: *changes.Favorite})
	}
	return bson.D{{Key: "$set", Value: set}}
}

// List returns one page of the contacts that match the filter, sorted by name and id.
func (s *Store) List(ctx context.Context, filter model.Filter, page model.Page) ([]model.Contact, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(page.Offset)).
		SetLimit(int64(page.Limit))
	cursor, err := s.collection.Find(ctx, listFilter(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find contacts: %w", err)
	}
	contacts := []model.Contact{}
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	return contacts, nil
}

// FindOne returns the contact with the given id and owner.
func (s *Store) FindOne(ctx context.Context, id string, owner string) (model.Contact, error) {
	var contact model.Contact
	err := s.collection.FindOne(ctx, byIdAndOwner(id, owner)).Decode(&contact)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Contact{}, store.ErrNotFound
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("find contact %s: %w", id, err)
	}
	return contact, nil
}

// Insert creates a new contact document with a fresh id.
func (s *Store) Insert(ctx context.Context, fields model.Fields, owner string) (model.Contact, error) {
	contact := model.Contact{
		Id:       store.NewId(),
		Owner:    owner,
		Name:     fields.Name,
		Email:    fields.Email,
		Phone:    fields.Phone,
		Favorite: fields.Favorite,
	}
	if _, err := s.collection.InsertOne(ctx, contact); err != nil {
		return model.Contact{}, fmt.Errorf("insert contact: %w", err)
	}
	return contact, nil
}

// Update applies the changes atomically and returns the document after the update.
func (s *Store) Update(ctx context.Context, id string, owner string, changes model.Changes) (model.Contact, error) {
	if changes.Empty() {
		return s.FindOne(ctx, id, owner)
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var contact model.Contact
	err := s.collection.FindOneAndUpdate(ctx, byIdAndOwner(id, owner), setDocument(changes), opts).Decode(&contact)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return model.Contact{}, store.ErrNotFound
	}
	if err != nil {
		return model.Contact{}, fmt.Errorf("update contact %s: %w", id, err)
	}
	return contact, nil
}

// Delete removes the contact with the given id and owner.
func (s *Store) Delete(ctx context.Context, id string, owner string) error {
	result, err := s.collection.DeleteOne(ctx, byIdAndOwner(id, owner))
	if err != nil {
		return fmt.Errorf("delete contact %s: %w", id, err)
	}
	if result.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Ping checks the connection to the deployment.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

// Close disconnects from the deployment.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}
