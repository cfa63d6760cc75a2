package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"tsumego_exe/internal/domain/tsumego"
	ownErrors "tsumego_exe/internal/errors"
)

const collectionsCollection = "collections"

type CollectionStorage struct {
	log   *zap.SugaredLogger
	mongo *mongo.Database
}

func NewCollectionStorage(log *zap.SugaredLogger, mongo *mongo.Database) *CollectionStorage {
	return &CollectionStorage{
		log:   log,
		mongo: mongo,
	}
}

func (c *CollectionStorage) Upsert(ctx context.Context, collection tsumego.Collection) error {
	if err := collection.Validate(); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"slug": collection.Slug}
	opts := options.Replace().SetUpsert(true)

	_, err := c.mongo.Collection(collectionsCollection).ReplaceOne(ctx, filter, collection, opts)
	if err != nil {
		return fmt.Errorf("upsert collection %s: %w", collection.Slug, err)
	}
	c.log.Infof("collection %s stored with %d tsumegos", collection.Slug, len(collection.Tsumegos))
	return nil
}

func (c *CollectionStorage) List(ctx context.Context) ([]tsumego.Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "slug", Value: 1}})
	cursor, err := c.mongo.Collection(collectionsCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	collections := make([]tsumego.Collection, 0)
	if err = cursor.All(ctx, &collections); err != nil {
		return nil, err
	}
	return collections, nil
}

func (c *CollectionStorage) GetBySlug(ctx context.Context, slug string) (tsumego.Collection, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var found tsumego.Collection
	err := c.mongo.Collection(collectionsCollection).FindOne(ctx, bson.M{"slug": slug}).Decode(&found)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return found, fmt.Errorf("%w: %s", ownErrors.ErrCollectionNotFound, slug)
	} else if err != nil {
		c.log.Error(err)
		return found, err
	}
	return found, nil
}

func (c *CollectionStorage) GetTsumego(ctx context.Context, slug, tsumegoSlug string) (tsumego.Collection, tsumego.Tsumego, error) {
	collection, err := c.GetBySlug(ctx, slug)
	if err != nil {
		return collection, tsumego.Tsumego{}, err
	}
	found, ok := collection.TsumegoBySlug(tsumegoSlug)
	if !ok {
		return collection, found, fmt.Errorf("%w: %s/%s", ownErrors.ErrTsumegoNotFound, slug, tsumegoSlug)
	}
	return collection, found, nil
}

// LoadCollectionsYAML reads collection definitions for import.
func LoadCollectionsYAML(path string) ([]tsumego.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Collections []tsumego.Collection `yaml:"collections"`
	}
	if err = yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, col := range doc.Collections {
		if err = col.Validate(); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return doc.Collections, nil
}
