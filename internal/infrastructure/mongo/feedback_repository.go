package mongo

import (
	"context"
	"time"

	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// FeedbackRepository は (studentId, mealType, day) の一意インデックスを前提とする。
type FeedbackRepository struct {
	collection *mongo.Collection
}

func NewFeedbackRepository(db *mongo.Database, collectionName string) *FeedbackRepository {
	return &FeedbackRepository{collection: db.Collection(collectionName)}
}

func (r *FeedbackRepository) ExistsBetween(ctx context.Context, studentID string, mealType messdomain.MealType, start, end time.Time) (bool, error) {
	filter := bson.M{
		"studentId": studentID,
		"mealType":  string(mealType),
		"createdAt": bson.M{"$gte": start, "$lte": end},
	}
	count, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *FeedbackRepository) Create(ctx context.Context, feedback *messdomain.Feedback) error {
	doc := FeedbackDocument{
		ID:        primitive.NewObjectID(),
		StudentID: feedback.StudentID,
		MealType:  string(feedback.MealType),
		Rating:    feedback.Rating,
		Comment:   feedback.Comment,
		Day:       feedback.Day,
		CreatedAt: feedback.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	feedback.ID = doc.ID.Hex()
	return nil
}

func (r *FeedbackRepository) FindAll(ctx context.Context) ([]messdomain.Feedback, error) {
	return r.find(ctx, bson.M{})
}

func (r *FeedbackRepository) FindByMealType(ctx context.Context, mealType messdomain.MealType) ([]messdomain.Feedback, error) {
	return r.find(ctx, bson.M{"mealType": string(mealType)})
}

func (r *FeedbackRepository) find(ctx context.Context, filter bson.M) ([]messdomain.Feedback, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := make([]messdomain.Feedback, 0)
	for cursor.Next(ctx) {
		var doc FeedbackDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		items = append(items, mapFeedbackDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
