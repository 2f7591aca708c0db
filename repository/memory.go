package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/256dpi/lungo"
	"github.com/BerniceZTT/smartcrm/utils"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const memoryDatabaseName = "smartcrm"

// MemoryDatabase 基于 lungo 内存引擎的存储，查询语义与 MongoDB 一致
type MemoryDatabase struct {
	client lungo.IClient
	engine *lungo.Engine
	db     lungo.IDatabase
}

// NewMemoryDatabase 创建内存存储
func NewMemoryDatabase() (*MemoryDatabase, error) {
	client, engine, err := lungo.Open(context.Background(), lungo.Options{
		Store: lungo.NewMemoryStore(),
	})
	if err != nil {
		return nil, fmt.Errorf("打开内存存储失败: %w", err)
	}

	utils.Logger.Info().Msg("使用内存存储")
	return &MemoryDatabase{
		client: client,
		engine: engine,
		db:     client.Database(memoryDatabaseName),
	}, nil
}

// Collection 返回指定名称的集合
func (m *MemoryDatabase) Collection(name string) Collection {
	return &memoryCollection{coll: m.db.Collection(name)}
}

// Close 关闭内存引擎
func (m *MemoryDatabase) Close(ctx context.Context) error {
	err := m.client.Disconnect(ctx)
	m.engine.Close()
	return err
}

type memoryCollection struct {
	coll lungo.ICollection
}

func (c *memoryCollection) Name() string {
	return c.coll.Name()
}

func (c *memoryCollection) InsertOne(ctx context.Context, doc interface{}) error {
	if _, err := c.coll.InsertOne(ctx, doc); err != nil {
		return c.wrapWriteError(err)
	}
	return nil
}

func (c *memoryCollection) FindOne(ctx context.Context, filter bson.M, out interface{}) error {
	err := c.coll.FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func (c *memoryCollection) Find(ctx context.Context, filter bson.M, opts *FindOptions, out interface{}) error {
	cursor, err := c.coll.Find(ctx, filter, findOptions(opts))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

func (c *memoryCollection) UpdateOne(ctx context.Context, filter bson.M, set bson.M) (int64, error) {
	res, err := c.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		return 0, c.wrapWriteError(err)
	}
	return res.MatchedCount, nil
}

func (c *memoryCollection) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c *memoryCollection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	return c.coll.CountDocuments(ctx, filter)
}

// CountByGroup 只取分组字段后在内存中计数
func (c *memoryCollection) CountByGroup(ctx context.Context, filter bson.M, field string) (map[string]int64, error) {
	cursor, err := c.coll.Find(ctx, filter, options.Find().SetProjection(bson.M{field: 1}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []bson.Raw
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	result := make(map[string]int64)
	path := strings.Split(field, ".")
	for _, doc := range docs {
		var value interface{}
		if raw, err := doc.LookupErr(path...); err == nil {
			_ = raw.Unmarshal(&value)
		}
		result[groupKey(value)]++
	}
	return result, nil
}

func (c *memoryCollection) EnsureUniqueIndex(ctx context.Context, field string) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("创建索引失败 %s.%s: %w", c.coll.Name(), field, err)
	}
	return nil
}

// wrapWriteError 唯一索引冲突统一为 ErrDuplicateKey
func (c *memoryCollection) wrapWriteError(err error) error {
	if mongo.IsDuplicateKeyError(err) || strings.Contains(strings.ToLower(err.Error()), "duplicate") {
		return fmt.Errorf("%s: %w", c.coll.Name(), ErrDuplicateKey)
	}
	return err
}

func findOptions(opts *FindOptions) *options.FindOptions {
	findOpts := options.Find()
	if opts == nil {
		return findOpts
	}
	if len(opts.Sort) > 0 {
		findOpts.SetSort(opts.Sort)
	}
	if opts.Skip > 0 {
		findOpts.SetSkip(opts.Skip)
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(opts.Limit)
	}
	return findOpts
}
