package mongo

import (
	"context"

	"github.com/sngm3741/mess-hall/api/internal/notify"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// FailedNotificationRepository は再送しきれなかった通知を pending として保存する。
type FailedNotificationRepository struct {
	collection *mongo.Collection
}

func NewFailedNotificationRepository(db *mongo.Database, collectionName string) *FailedNotificationRepository {
	return &FailedNotificationRepository{collection: db.Collection(collectionName)}
}

func (r *FailedNotificationRepository) Record(ctx context.Context, failure notify.Failure) error {
	payload := bson.M{}
	for k, v := range failure.Payload {
		payload[k] = v
	}
	doc := FailedNotificationDocument{
		ID:          primitive.NewObjectID(),
		Target:      failure.Target,
		Payload:     payload,
		Error:       failure.Error,
		Attempts:    failure.Attempts,
		Status:      "pending",
		CreatedAt:   failure.At,
		LastTriedAt: failure.At,
	}
	_, err := r.collection.InsertOne(ctx, doc)
	return err
}

// CountPending は未処理の失敗通知の件数を返す。
func (r *FailedNotificationRepository) CountPending(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"status": "pending"})
}
