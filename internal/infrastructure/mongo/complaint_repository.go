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

type ComplaintRepository struct {
	collection *mongo.Collection
}

func NewComplaintRepository(db *mongo.Database, collectionName string) *ComplaintRepository {
	return &ComplaintRepository{collection: db.Collection(collectionName)}
}

func (r *ComplaintRepository) Create(ctx context.Context, complaint *messdomain.Complaint) error {
	doc := ComplaintDocument{
		ID:        primitive.NewObjectID(),
		StudentID: complaint.StudentID,
		Text:      complaint.Text,
		ImageURL:  complaint.ImageURL,
		Status:    string(complaint.Status),
		CreatedAt: complaint.CreatedAt,
		Replies:   []ReplyDocument{},
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	complaint.ID = doc.ID.Hex()
	return nil
}

func (r *ComplaintRepository) FindAll(ctx context.Context) ([]messdomain.Complaint, error) {
	return r.find(ctx, bson.M{})
}

func (r *ComplaintRepository) FindByStudent(ctx context.Context, studentID string) ([]messdomain.Complaint, error) {
	return r.find(ctx, bson.M{"studentId": studentID})
}

func (r *ComplaintRepository) find(ctx context.Context, filter bson.M) ([]messdomain.Complaint, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	complaints := make([]messdomain.Complaint, 0)
	for cursor.Next(ctx) {
		var doc ComplaintDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		complaints = append(complaints, mapComplaintDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return complaints, nil
}

func (r *ComplaintRepository) FindByID(ctx context.Context, id string) (*messdomain.Complaint, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc ComplaintDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	complaint := mapComplaintDocument(doc)
	return &complaint, nil
}

// UpdateStatus は resolvedAt が nil の場合フィールドを削除する。
func (r *ComplaintRepository) UpdateStatus(ctx context.Context, id string, status messdomain.ComplaintStatus, resolvedAt *time.Time) (*messdomain.Complaint, error) {
	update := bson.M{"$set": bson.M{"status": string(status)}}
	if resolvedAt != nil {
		update["$set"] = bson.M{"status": string(status), "resolvedAt": *resolvedAt}
	} else {
		update["$unset"] = bson.M{"resolvedAt": ""}
	}
	return r.findOneAndUpdate(ctx, id, update)
}

func (r *ComplaintRepository) AppendReply(ctx context.Context, id string, reply messdomain.Reply) (*messdomain.Complaint, error) {
	return r.findOneAndUpdate(ctx, id, bson.M{"$push": bson.M{"replies": replyDocument(reply)}})
}

func (r *ComplaintRepository) findOneAndUpdate(ctx context.Context, id string, update bson.M) (*messdomain.Complaint, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc ComplaintDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	complaint := mapComplaintDocument(doc)
	return &complaint, nil
}
