package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	"github.com/sngm3741/mess-hall/api/internal/mess/application"
	messdomain "github.com/sngm3741/mess-hall/api/internal/mess/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type PollRepository struct {
	collection *mongo.Collection
}

func NewPollRepository(db *mongo.Database, collectionName string) *PollRepository {
	return &PollRepository{collection: db.Collection(collectionName)}
}

func (r *PollRepository) Create(ctx context.Context, poll *messdomain.Poll) error {
	choices := make([]PollOptionDocument, 0, len(poll.Options))
	for _, o := range poll.Options {
		choices = append(choices, PollOptionDocument{ID: o.ID, Text: o.Text, Votes: o.Votes})
	}
	doc := PollDocument{
		ID:        primitive.NewObjectID(),
		Question:  poll.Question,
		PollType:  string(poll.Type),
		Options:   choices,
		CreatedBy: poll.CreatedBy,
		CreatedAt: poll.CreatedAt,
		ExpiresAt: poll.ExpiresAt,
		Voters:    []PollVoterDocument{},
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	poll.ID = doc.ID.Hex()
	return nil
}

func (r *PollRepository) FindAll(ctx context.Context) ([]messdomain.Poll, error) {
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	polls := make([]messdomain.Poll, 0)
	for cursor.Next(ctx) {
		var doc PollDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		polls = append(polls, mapPollDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return polls, nil
}

func (r *PollRepository) FindByID(ctx context.Context, id string) (*messdomain.Poll, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc PollDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	poll := mapPollDocument(doc)
	return &poll, nil
}

// RecordVote は voters に利用者が居ない場合に限り、台帳追記と票の加算を1回の更新で行う。
// 条件に合わない場合は投票の有無を確認して ErrVoterExists か ErrNotFound を返す。
func (r *PollRepository) RecordVote(ctx context.Context, pollID string, voter messdomain.Voter) (*messdomain.Poll, error) {
	oid, err := objectID(pollID)
	if err != nil {
		return nil, err
	}

	inc := bson.M{}
	for _, idx := range voter.Selections {
		inc[fmt.Sprintf("options.%d.votes", idx)] = 1
	}
	update := bson.M{
		"$inc": inc,
		"$push": bson.M{"voters": PollVoterDocument{
			UserID:     voter.UserID,
			Selections: voter.Selections,
			VotedAt:    voter.VotedAt,
		}},
	}
	filter := bson.M{"_id": oid, "voters.userId": bson.M{"$ne": voter.UserID}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc PollDocument
	err = r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err == nil {
		poll := mapPollDocument(doc)
		return &poll, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, apperr.ErrNotFound
	}
	return nil, application.ErrVoterExists
}

func (r *PollRepository) Delete(ctx context.Context, id string) error {
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
