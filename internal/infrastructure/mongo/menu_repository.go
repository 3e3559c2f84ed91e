package mongo

import (
	"context"
	"time"

	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// currentMenuID は献立ドキュメントの固定 ID。
const currentMenuID = "current"

type MenuRepository struct {
	collection *mongo.Collection
}

func NewMenuRepository(db *mongo.Database, collectionName string) *MenuRepository {
	return &MenuRepository{collection: db.Collection(collectionName)}
}

func (r *MenuRepository) Get(ctx context.Context) (*messdomain.Menu, error) {
	var doc MenuDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": currentMenuID}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	menu := mapMenuDocument(doc)
	return &menu, nil
}

// Upsert は献立全体を置き換える。最後の書き込みが勝つ。
func (r *MenuRepository) Upsert(ctx context.Context, days map[string]messdomain.MealSlots, timings *messdomain.MealSlots, updatedBy string, now time.Time) (*messdomain.Menu, error) {
	set := bson.M{
		"days":      menuDays(days),
		"updatedAt": now,
		"updatedBy": updatedBy,
	}
	setOnInsert := bson.M{"createdAt": now}
	if timings != nil {
		set["timings"] = [3]string(*timings)
	} else {
		setOnInsert["timings"] = [3]string(messdomain.DefaultTimings)
	}

	update := bson.M{"$set": set, "$setOnInsert": setOnInsert}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc MenuDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": currentMenuID}, update, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	menu := mapMenuDocument(doc)
	return &menu, nil
}

// EnsureExists はシード用。献立が無ければ空の献立を作成する。
func (r *MenuRepository) EnsureExists(ctx context.Context, now time.Time) (bool, error) {
	empty := messdomain.EmptyMenu()
	update := bson.M{"$setOnInsert": bson.M{
		"days":      menuDays(empty.Days),
		"timings":   [3]string(empty.Timings),
		"createdAt": now,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": currentMenuID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, err
	}
	return result.UpsertedCount > 0, nil
}
