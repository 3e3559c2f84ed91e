package mongo

import (
	"context"

	"github.com/sngm3741/mess-hall/api/internal/apperr"
	identitydomain "github.com/sngm3741/mess-hall/api/internal/identity/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AccountRepository は認証ポートと通知先ディレクトリの両方を accounts コレクションで実装する。
type AccountRepository struct {
	collection *mongo.Collection
}

func NewAccountRepository(db *mongo.Database, collectionName string) *AccountRepository {
	return &AccountRepository{collection: db.Collection(collectionName)}
}

// Create は email 一意インデックス違反を apperr.ErrDuplicate として返す。
func (r *AccountRepository) Create(ctx context.Context, account *identitydomain.Account) error {
	doc := AccountDocument{
		ID:           primitive.NewObjectID(),
		Name:         account.Name,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Role:         account.Role.String(),
		CreatedAt:    account.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return translate(err)
	}
	account.ID = doc.ID.Hex()
	return nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*identitydomain.Account, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*identitydomain.Account, error) {
	if email == "" {
		return nil, apperr.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*identitydomain.Account, error) {
	var doc AccountDocument
	if err := r.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	account := mapAccountDocument(doc)
	return &account, nil
}

// FindByIDs は見つかったアカウントだけを ID をキーに返す。不正な ID は無視する。
func (r *AccountRepository) FindByIDs(ctx context.Context, ids []string) (map[string]identitydomain.Account, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := objectID(id)
		if err != nil {
			continue
		}
		oids = append(oids, oid)
	}
	out := make(map[string]identitydomain.Account, len(oids))
	if len(oids) == 0 {
		return out, nil
	}

	opts := options.Find().SetProjection(bson.M{"passwordHash": 0})
	accounts, err := r.find(ctx, bson.M{"_id": bson.M{"$in": oids}}, opts)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		out[a.ID] = a
	}
	return out, nil
}

func (r *AccountRepository) ListByRole(ctx context.Context, role identitydomain.Role) ([]identitydomain.Account, error) {
	opts := options.Find().
		SetProjection(bson.M{"passwordHash": 0}).
		SetSort(bson.D{{Key: "createdAt", Value: 1}})
	return r.find(ctx, bson.M{"role": role.String()}, opts)
}

func (r *AccountRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]identitydomain.Account, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	accounts := make([]identitydomain.Account, 0)
	for cursor.Next(ctx) {
		var doc AccountDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		accounts = append(accounts, mapAccountDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return accounts, nil
}

// UpsertByEmail はシード用。既存アカウントは名前・ハッシュ・権限を上書きする。
func (r *AccountRepository) UpsertByEmail(ctx context.Context, account identitydomain.Account) (string, error) {
	update := bson.M{
		"$set": bson.M{
			"name":         account.Name,
			"passwordHash": account.PasswordHash,
			"role":         account.Role.String(),
		},
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID(),
			"createdAt": account.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var doc AccountDocument
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"email": account.Email}, update, opts).Decode(&doc); err != nil {
		return "", translate(err)
	}
	return doc.ID.Hex(), nil
}
