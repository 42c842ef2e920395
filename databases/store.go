package databases

// go generate: mockery --name Store

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store contains the methods shared by every collection wrapper in this project
type Store[T any] interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*T, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]T, error)
	InsertOne(ctx context.Context, doc T) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) (*T, error)
	DeleteOne(ctx context.Context, filter interface{}) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type collection[T any] struct {
	db   DatabaseHelper
	name string
}

func newCollection[T any](db DatabaseHelper, name string) *collection[T] {
	return &collection[T]{db: db, name: name}
}

func (c *collection[T]) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*T, error) {
	doc := new(T)
	err := c.db.Collection(c.name).FindOne(ctx, filter, opts...).Decode(doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *collection[T]) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cur, err := c.db.Collection(c.name).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	var docs []T
	if err = cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []T{}
	}
	return docs, nil
}

func (c *collection[T]) InsertOne(ctx context.Context, doc T) (InsertOneResultHelper, error) {
	return c.db.Collection(c.name).InsertOne(ctx, doc)
}

func (c *collection[T]) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(c.name).UpdateOne(ctx, filter, update, opts...)
}

func (c *collection[T]) UpdateMany(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(c.name).UpdateMany(ctx, filter, update, opts...)
}

func (c *collection[T]) FindOneAndUpdate(ctx context.Context, filter interface{}, update interface{}, opts ...*options.FindOneAndUpdateOptions) (*T, error) {
	doc := new(T)
	err := c.db.Collection(c.name).FindOneAndUpdate(ctx, filter, update, opts...).Decode(doc)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (c *collection[T]) DeleteOne(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(c.name).DeleteOne(ctx, filter)
}

func (c *collection[T]) DeleteMany(ctx context.Context, filter interface{}) (int64, error) {
	return c.db.Collection(c.name).DeleteMany(ctx, filter)
}

func (c *collection[T]) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(c.name).CountDocuments(ctx, filter, opts...)
}
