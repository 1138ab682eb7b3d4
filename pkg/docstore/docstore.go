// Package docstore implements upload.Store on a MongoDB collection.
//
// Documents are schemaless, so every field read back is defaulted at this
// boundary: a missing text or filename is an empty string and a missing
// created_at is the zero time.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/japaniel/creamy/pkg/upload"
)

const (
	DefaultDatabase   = "creamy"
	DefaultCollection = "uploads"
)

// document is the stored shape of an upload.
type document struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Text      *string            `bson:"text,omitempty"`
	Filename  *string            `bson:"filename,omitempty"`
	CreatedAt *time.Time         `bson:"created_at,omitempty"`
}

func (d document) record() upload.Record {
	r := upload.Record{ID: d.ID.Hex()}
	if d.Text != nil {
		r.Text = *d.Text
	}
	if d.Filename != nil {
		r.Filename = *d.Filename
	}
	if d.CreatedAt != nil {
		r.CreatedAt = d.CreatedAt.UTC()
	}
	return r
}

var (
	newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	oldestFirst = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
)

// Store is a MongoDB backed upload.Store.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

var _ upload.Store = (*Store)(nil)

// Connect opens a client for uri and ensures the collection indexes exist.
func Connect(ctx context.Context, uri, database, collection string) (*Store, error) {
	if database == "" {
		database = DefaultDatabase
	}
	if collection == "" {
		collection = DefaultCollection
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
		now:    func() time.Time { return time.Now().UTC() },
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "filename", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	return nil
}

// Create inserts a new upload document.
func (s *Store) Create(ctx context.Context, text, filename string) (upload.Record, error) {
	// BSON datetimes carry millisecond precision.
	created := s.now().Truncate(time.Millisecond)
	doc := document{
		ID:        primitive.NewObjectID(),
		Text:      &text,
		Filename:  &filename,
		CreatedAt: &created,
	}
	if _, err := s.coll.InsertOne(ctx, doc); err != nil {
		return upload.Record{}, fmt.Errorf("insert upload: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) find(ctx context.Context, filter interface{}, sort bson.D) ([]document, error) {
	cur, err := s.coll.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

// List returns uploads newest first.
func (s *Store) List(ctx context.Context) ([]upload.Summary, error) {
	docs, err := s.find(ctx, bson.D{}, newestFirst)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	out := make([]upload.Summary, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.record().Summarize())
	}
	return out, nil
}

// Get returns the upload with the given hex id.
func (s *Store) Get(ctx context.Context, id string) (upload.Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return upload.Record{}, upload.ErrNotFound
	}
	var doc document
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return upload.Record{}, upload.ErrNotFound
	}
	if err != nil {
		return upload.Record{}, fmt.Errorf("get upload %s: %w", id, err)
	}
	return doc.record(), nil
}

// TextByFilename returns the text of the oldest upload with the given filename.
func (s *Store) TextByFilename(ctx context.Context, filename string) (string, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.M{"filename": filename}, options.FindOne().SetSort(oldestFirst)).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", upload.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get upload by filename: %w", err)
	}
	return doc.record().Text, nil
}

// Texts returns every upload's text, oldest first.
func (s *Store) Texts(ctx context.Context) ([]string, error) {
	docs, err := s.find(ctx, bson.D{}, oldestFirst)
	if err != nil {
		return nil, fmt.Errorf("list upload texts: %w", err)
	}
	texts := make([]string, 0, len(docs))
	for _, d := range docs {
		texts = append(texts, d.record().Text)
	}
	return texts, nil
}

// Delete removes the upload with the given id and returns it.
func (s *Store) Delete(ctx context.Context, id string) (upload.Record, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return upload.Record{}, upload.ErrNotFound
	}
	var doc document
	err = s.coll.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return upload.Record{}, upload.ErrNotFound
	}
	if err != nil {
		return upload.Record{}, fmt.Errorf("delete upload %s: %w", id, err)
	}
	return doc.record(), nil
}

// DeleteAll removes every upload present when the call starts.
func (s *Store) DeleteAll(ctx context.Context) ([]upload.Record, error) {
	docs, err := s.find(ctx, bson.D{}, oldestFirst)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	if len(docs) == 0 {
		return []upload.Record{}, nil
	}
	ids := make([]primitive.ObjectID, 0, len(docs))
	out := make([]upload.Record, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.ID)
		out = append(out, d.record())
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}}); err != nil {
		return nil, fmt.Errorf("delete uploads: %w", err)
	}
	return out, nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
