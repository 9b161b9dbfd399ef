package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// lookupIndexes are the non-unique indexes the cascade queries rely on.
var lookupIndexes = map[Collection][]string{
	Users:       {"email", "assistantId"},
	Assistants:  {"threadId"},
	ChatThreads: {"userId", "openaiThreadId"},
	Messages:    {"threadId", "userId", "createdAt"},
	Files:       {"userId", "assistantId"},
}

// MongoStore keeps one mongo collection per Collection. Records carry their
// own "id" field; mongo's _id is left to the driver.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) coll(c Collection) *mongo.Collection { return s.db.Collection(string(c)) }

func mongoFilter(f Filter) bson.M {
	parts := make([]bson.M, 0, len(f))
	for _, c := range f {
		switch c.op {
		case opIn:
			vals := c.values
			if vals == nil {
				vals = []string{}
			}
			parts = append(parts, bson.M{c.Field: bson.M{"$in": vals}})
		default:
			parts = append(parts, bson.M{c.Field: normalizeValue(c.value)})
		}
	}
	switch len(parts) {
	case 0:
		return bson.M{}
	case 1:
		return parts[0]
	default:
		and := make(bson.A, 0, len(parts))
		for _, p := range parts {
			and = append(and, p)
		}
		return bson.M{"$and": and}
	}
}

func mongoSet(p Patch) bson.M {
	set := bson.M{}
	for k, v := range p {
		set[k] = v
	}
	return bson.M{"$set": set}
}

func (s *MongoStore) Insert(ctx context.Context, coll Collection, doc any) error {
	_, err := s.coll(coll).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return ErrDuplicate
	}
	return err
}

func (s *MongoStore) FindOne(ctx context.Context, coll Collection, filter Filter, out any) error {
	err := s.coll(coll).FindOne(ctx, mongoFilter(filter)).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (s *MongoStore) FindMany(ctx context.Context, coll Collection, filter Filter, out any) error {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cur, err := s.coll(coll).Find(ctx, mongoFilter(filter), opts)
	if err != nil {
		return err
	}
	defer cur.Close(ctx)
	return cur.All(ctx, out)
}

func (s *MongoStore) UpdateOne(ctx context.Context, coll Collection, filter Filter, patch Patch, out any) error {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	res := s.coll(coll).FindOneAndUpdate(ctx, mongoFilter(filter), mongoSet(patch), opts)
	if err := res.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	if out == nil {
		return nil
	}
	return res.Decode(out)
}

func (s *MongoStore) RemoveMany(ctx context.Context, coll Collection, filter Filter) (int64, error) {
	res, err := s.coll(coll).DeleteMany(ctx, mongoFilter(filter))
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) EnsureCollections(ctx context.Context) error {
	for _, c := range AllCollections {
		indexes := []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		}
		for _, field := range lookupIndexes[c] {
			indexes = append(indexes, mongo.IndexModel{Keys: bson.D{{Key: field, Value: 1}}})
		}
		if _, err := s.coll(c).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("create indexes for %s: %w", c, err)
		}
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
