package member

import (
	"context"
	"time"

	"go-chms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type MemberRepository interface {
	Create(ctx context.Context, member *Member) error
	GetByID(ctx context.Context, id string) (*Member, error)
	List(ctx context.Context, filter map[string]interface{}) ([]Member, error)
	Update(ctx context.Context, member *Member) error
	Delete(ctx context.Context, id string) error
}

type MemberRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewMemberRepository(mongodb *database.MongodbDB) MemberRepository {
	return &MemberRepositoryImpl{
		Collection: mongodb.DB.Collection("members"),
	}
}

func (r *MemberRepositoryImpl) Create(ctx context.Context, member *Member) error {
	member.ID = primitive.NewObjectID()
	member.CreatedAt = time.Now()
	member.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, member)
	return err
}

func (r *MemberRepositoryImpl) GetByID(ctx context.Context, id string) (*Member, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var member Member
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&member)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &member, nil
}

func (r *MemberRepositoryImpl) List(ctx context.Context, filter map[string]interface{}) ([]Member, error) {
	query := bson.M{}
	for k, v := range filter {
		query[k] = v
	}
	cursor, err := r.Collection.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var members []Member
	if err = cursor.All(ctx, &members); err != nil {
		return nil, err
	}
	return members, nil
}

func (r *MemberRepositoryImpl) Update(ctx context.Context, member *Member) error {
	member.UpdatedAt = time.Now()
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": member.ID}, bson.M{"$set": member})
	return err
}

func (r *MemberRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
