package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/cenkalti/backoff/v4"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	retryInitialInterval = 200 * time.Millisecond
	retryMaxInterval     = 2 * time.Second
	retryMaxElapsed      = 5 * time.Second
)

// MongoDatabase MongoDB 存储
type MongoDatabase struct {
	client *mongo.Client
	db     *mongo.Database
}

// InitMongoDB 初始化MongoDB连接
func InitMongoDB(ctx context.Context, uri, dbName string) (*MongoDatabase, error) {
	// 设置连接超时
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("连接MongoDB失败: %w", err)
	}

	// 检查连接
	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping MongoDB失败: %w", err)
	}

	utils.Logger.Info().Str("database", dbName).Msg("已连接到MongoDB")
	return &MongoDatabase{client: client, db: client.Database(dbName)}, nil
}

// Collection 返回指定名称的集合
func (m *MongoDatabase) Collection(name string) Collection {
	return &mongoCollection{coll: m.db.Collection(name)}
}

// Close 关闭MongoDB连接
func (m *MongoDatabase) Close(ctx context.Context) error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Disconnect(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("断开MongoDB连接失败")
		return err
	}
	utils.Logger.Info().Msg("已断开MongoDB连接")
	return nil
}

type mongoCollection struct {
	coll *mongo.Collection
}

func (c *mongoCollection) Name() string {
	return c.coll.Name()
}

func (c *mongoCollection) InsertOne(ctx context.Context, doc interface{}) error {
	_, err := c.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s: %w", c.coll.Name(), ErrDuplicateKey)
	}
	utils.LogDbOperation("insertOne", c.coll.Name(), nil, err)
	return err
}

func (c *mongoCollection) FindOne(ctx context.Context, filter bson.M, out interface{}) error {
	return executeDbOperation(ctx, "findOne", func() error {
		err := c.coll.FindOne(ctx, filter).Decode(out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	})
}

func (c *mongoCollection) Find(ctx context.Context, filter bson.M, opts *FindOptions, out interface{}) error {
	findOpts := findOptions(opts)
	return executeDbOperation(ctx, "find", func() error {
		cursor, err := c.coll.Find(ctx, filter, findOpts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, out)
	})
}

func (c *mongoCollection) UpdateOne(ctx context.Context, filter bson.M, set bson.M) (int64, error) {
	res, err := c.coll.UpdateOne(ctx, filter, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return 0, fmt.Errorf("%s: %w", c.coll.Name(), ErrDuplicateKey)
		}
		return 0, err
	}
	utils.LogDbOperation("updateOne", c.coll.Name(), filter, res.MatchedCount)
	return res.MatchedCount, nil
}

func (c *mongoCollection) DeleteOne(ctx context.Context, filter bson.M) (int64, error) {
	res, err := c.coll.DeleteOne(ctx, filter)
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (c *mongoCollection) CountDocuments(ctx context.Context, filter bson.M) (int64, error) {
	var count int64
	err := executeDbOperation(ctx, "countDocuments", func() error {
		n, err := c.coll.CountDocuments(ctx, filter)
		count = n
		return err
	})
	return count, err
}

func (c *mongoCollection) CountByGroup(ctx context.Context, filter bson.M, field string) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$" + field},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	var rows []struct {
		ID    interface{} `bson:"_id"`
		Count int64       `bson:"count"`
	}
	err := executeDbOperation(ctx, "aggregate", func() error {
		cursor, err := c.coll.Aggregate(ctx, pipeline)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)
		return cursor.All(ctx, &rows)
	})
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[groupKey(row.ID)] += row.Count
	}
	return result, nil
}

func (c *mongoCollection) EnsureUniqueIndex(ctx context.Context, field string) error {
	_, err := c.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: field, Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("创建索引失败 %s.%s: %w", c.coll.Name(), field, err)
	}
	utils.Logger.Info().Str("collection", c.coll.Name()).Str("field", field).Msg("唯一索引已就绪")
	return nil
}

// executeDbOperation 执行数据库读操作，可重试错误按指数退避重试
func executeDbOperation(ctx context.Context, opName string, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = retryInitialInterval
	b.MaxInterval = retryMaxInterval
	b.MaxElapsedTime = retryMaxElapsed
	b.Reset()

	notify := func(err error, d time.Duration) {
		utils.Logger.Warn().Err(err).Str("operation", opName).Dur("after", d).Msg("数据库操作失败，重试")
	}

	return backoff.RetryNotify(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if isRetryableError(err) {
			return err
		}
		return backoff.Permanent(err)
	}, backoff.WithContext(b, ctx), notify)
}

// MongoDB可重试错误代码
var retryableCodes = []int{
	6,     // HostUnreachable
	7,     // HostNotFound
	89,    // NetworkTimeout
	91,    // ShutdownInProgress
	189,   // PrimarySteppedDown
	10107, // NotMaster
	13436, // NotMasterNoSlaveOk
	11600, // InterruptedAtShutdown
	11602, // InterruptedDueToReplStateChange
	10058, // ConnectionReset
}

// 常见网络错误
var networkErrors = []string{
	"connection refused",
	"connection reset",
	"connection closed",
	"no reachable servers",
	"server selection error",
}

// isRetryableError 判断错误是否可重试
func isRetryableError(err error) bool {
	if errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled) {
		return false
	}

	var serverErr mongo.ServerError
	if errors.As(err, &serverErr) {
		for _, code := range retryableCodes {
			if serverErr.HasErrorCode(code) {
				return true
			}
		}
		return false
	}

	if mongo.IsNetworkError(err) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, ne := range networkErrors {
		if strings.Contains(msg, ne) {
			return true
		}
	}
	return false
}

func groupKey(v interface{}) string {
	switch key := v.(type) {
	case nil:
		return ""
	case string:
		return key
	default:
		return fmt.Sprint(key)
	}
}
