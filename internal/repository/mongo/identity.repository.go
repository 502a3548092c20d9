package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/duccv/movie-rating-api/internal/model"
	"github.com/duccv/movie-rating-api/internal/repository"
)

type identityDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Name      string        `bson:"name"`
	Email     string        `bson:"email"`
	Password  string        `bson:"password"`
	Role      string        `bson:"role"`
	Status    string        `bson:"status"`
	Verified  bool          `bson:"verified"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d identityDoc) toModel() *model.Identity {
	return &model.Identity{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         model.Role(d.Role),
		Status:       model.Status(d.Status),
		Verified:     d.Verified,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type IdentityRepository struct {
	read  *mongo.Collection
	write *mongo.Collection
}

func NewIdentityRepository(readDB, writeDB *mongo.Database) *IdentityRepository {
	return &IdentityRepository{
		read:  readDB.Collection(usersCollection),
		write: writeDB.Collection(usersCollection),
	}
}

func (r *IdentityRepository) Create(ctx context.Context, identity *model.Identity) error {
	ts := now()
	doc := identityDoc{
		ID:        bson.NewObjectID(),
		Name:      identity.Name,
		Email:     model.NormalizeEmail(identity.Email),
		Password:  identity.PasswordHash,
		Role:      string(identity.Role),
		Status:    string(identity.Status),
		Verified:  identity.Verified,
		CreatedAt: ts,
		UpdatedAt: ts,
	}

	if _, err := r.write.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}

	identity.ID = doc.ID.Hex()
	identity.Email = doc.Email
	identity.CreatedAt = ts
	identity.UpdatedAt = ts
	return nil
}

func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*model.Identity, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*model.Identity, error) {
	return r.findOne(ctx, bson.M{"email": model.NormalizeEmail(email)})
}

func (r *IdentityRepository) findOne(ctx context.Context, filter bson.M) (*model.Identity, error) {
	var doc identityDoc
	if err := r.read.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return doc.toModel(), nil
}

func (r *IdentityRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Identity, error) {
	oids := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := objectID(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []model.Identity{}, nil
	}

	cursor, err := r.read.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	var docs []identityDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	out := make([]model.Identity, 0, len(docs))
	for _, d := range docs {
		out = append(out, *d.toModel())
	}
	return out, nil
}
