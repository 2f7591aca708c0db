package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	// 集合名
	UsersCollection        = "users"
	ContactsCollection     = "contacts"
	NotesCollection        = "notes"
	FollowUpsCollection    = "followups"
	MeetingsCollection     = "meetings"
	DemosCollection        = "demos"
	ActivityLogsCollection = "activity_logs"
)

// 存储层错误
var (
	ErrNotFound     = errors.New("document not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

// FindOptions 查询排序与分页，Limit 为 0 表示不限制
type FindOptions struct {
	Sort  bson.D
	Skip  int64
	Limit int64
}

// Collection 文档集合
type Collection interface {
	Name() string
	InsertOne(ctx context.Context, doc interface{}) error
	// FindOne 未命中时返回 ErrNotFound
	FindOne(ctx context.Context, filter bson.M, out interface{}) error
	// Find 将结果解码到 out 指向的切片
	Find(ctx context.Context, filter bson.M, opts *FindOptions, out interface{}) error
	// UpdateOne 执行 $set，返回匹配的文档数
	UpdateOne(ctx context.Context, filter bson.M, set bson.M) (int64, error)
	DeleteOne(ctx context.Context, filter bson.M) (int64, error)
	CountDocuments(ctx context.Context, filter bson.M) (int64, error)
	// CountByGroup 按字段分组计数
	CountByGroup(ctx context.Context, filter bson.M, field string) (map[string]int64, error)
	EnsureUniqueIndex(ctx context.Context, field string) error
}

// Database 存储句柄，启动时创建一次
type Database interface {
	Collection(name string) Collection
	Close(ctx context.Context) error
}

// EnsureIndexes 创建唯一索引
func EnsureIndexes(ctx context.Context, db Database) error {
	if err := db.Collection(ContactsCollection).EnsureUniqueIndex(ctx, "phone"); err != nil {
		return err
	}
	return db.Collection(UsersCollection).EnsureUniqueIndex(ctx, "email")
}
