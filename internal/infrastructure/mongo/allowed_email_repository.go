package mongo

import (
	"context"
	"time"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type AllowedEmailRepository struct {
	collection *mongo.Collection
}

func NewAllowedEmailRepository(db *mongo.Database, collectionName string) *AllowedEmailRepository {
	return &AllowedEmailRepository{collection: db.Collection(collectionName)}
}

func (r *AllowedEmailRepository) List(ctx context.Context) ([]identitydomain.AllowedEmail, error) {
	opts := options.Find().SetSort(bson.D{{Key: "email", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]identitydomain.AllowedEmail, 0)
	for cursor.Next(ctx) {
		var doc AllowedEmailDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, identitydomain.AllowedEmail{ID: doc.ID.Hex(), Email: doc.Email, CreatedAt: doc.CreatedAt})
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *AllowedEmailRepository) Exists(ctx context.Context, email string) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"email": email}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AllowedEmailRepository) Create(ctx context.Context, allowed *identitydomain.AllowedEmail) error {
	doc := AllowedEmailDocument{ID: primitive.NewObjectID(), Email: allowed.Email, CreatedAt: allowed.CreatedAt}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	allowed.ID = doc.ID.Hex()
	return nil
}

func (r *AllowedEmailRepository) Delete(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// EnsureAll はシード用。既に登録済みのアドレスは変更しない。
func (r *AllowedEmailRepository) EnsureAll(ctx context.Context, emails []string, now time.Time) (int, error) {
	added := 0
	for _, email := range emails {
		update := bson.M{"$setOnInsert": bson.M{"_id": primitive.NewObjectID(), "email": email, "createdAt": now}}
		result, err := r.collection.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true))
		if err != nil {
			return added, translate(err)
		}
		if result.UpsertedCount > 0 {
			added++
		}
	}
	return added, nil
}
