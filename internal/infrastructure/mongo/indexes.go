package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collections はコレクション名の組。
type Collections struct {
	Accounts            string
	AllowedEmails       string
	Complaints          string
	Feedback            string
	Menus               string
	Polls               string
	Notices             string
	FailedNotifications string
}

// EnsureIndexes は全コレクションのインデックスを作成する。既存のものはそのまま。
func EnsureIndexes(ctx context.Context, db *mongo.Database, names Collections) error {
	specs := map[string][]mongo.IndexModel{
		names.Accounts: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("uniq_email").SetUnique(true)},
			{Keys: bson.D{{Key: "role", Value: 1}}, Options: options.Index().SetName("role")},
		},
		names.AllowedEmails: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("uniq_email").SetUnique(true)},
		},
		names.Complaints: {
			{Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("student_createdAt")},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("createdAt")},
		},
		names.Feedback: {
			{
				Keys:    bson.D{{Key: "studentId", Value: 1}, {Key: "mealType", Value: 1}, {Key: "day", Value: 1}},
				Options: options.Index().SetName("uniq_student_meal_day").SetUnique(true),
			},
			{Keys: bson.D{{Key: "mealType", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("meal_createdAt")},
		},
		names.Polls: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("createdAt")},
		},
		names.Notices: {
			{Keys: bson.D{{Key: "createdAt", Value: -1}}, Options: options.Index().SetName("createdAt")},
		},
		names.FailedNotifications: {
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}, Options: options.Index().SetName("status_createdAt")},
		},
	}

	for collection, models := range specs {
		if collection == "" {
			continue
		}
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%s のインデックス作成に失敗: %w", collection, err)
		}
	}
	return nil
}
