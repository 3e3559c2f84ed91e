package mongo

import (
	"context"

	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NoticeRepository struct {
	collection *mongo.Collection
}

func NewNoticeRepository(db *mongo.Database, collectionName string) *NoticeRepository {
	return &NoticeRepository{collection: db.Collection(collectionName)}
}

func (r *NoticeRepository) Create(ctx context.Context, notice *messdomain.Notice) error {
	doc := NoticeDocument{
		ID:        primitive.NewObjectID(),
		Title:     notice.Title,
		Message:   notice.Message,
		CreatedBy: notice.CreatedBy,
		CreatedAt: notice.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	notice.ID = doc.ID.Hex()
	return nil
}

func (r *NoticeRepository) FindAll(ctx context.Context) ([]messdomain.Notice, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notices := make([]messdomain.Notice, 0)
	for cursor.Next(ctx) {
		var doc NoticeDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		notices = append(notices, mapNoticeDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return notices, nil
}
