package template

import (
	"context"
	"time"

	"go-chms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type TemplateRepository interface {
	Create(ctx context.Context, tpl *MessageTemplate) error
	GetByID(ctx context.Context, id string) (*MessageTemplate, error)
	List(ctx context.Context) ([]MessageTemplate, error)
	Update(ctx context.Context, tpl *MessageTemplate) error
	Delete(ctx context.Context, id string) error
}

type TemplateRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewTemplateRepository(mongodb *database.MongodbDB) TemplateRepository {
	return &TemplateRepositoryImpl{
		Collection: mongodb.DB.Collection("message_templates"),
	}
}

func (r *TemplateRepositoryImpl) Create(ctx context.Context, tpl *MessageTemplate) error {
	tpl.ID = primitive.NewObjectID()
	tpl.CreatedAt = time.Now()
	tpl.UpdatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, tpl)
	return err
}

func (r *TemplateRepositoryImpl) GetByID(ctx context.Context, id string) (*MessageTemplate, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}
	var tpl MessageTemplate
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&tpl)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, err
	}
	return &tpl, nil
}

func (r *TemplateRepositoryImpl) List(ctx context.Context) ([]MessageTemplate, error) {
	cursor, err := r.Collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	var templates []MessageTemplate
	if err = cursor.All(ctx, &templates); err != nil {
		return nil, err
	}
	return templates, nil
}

func (r *TemplateRepositoryImpl) Update(ctx context.Context, tpl *MessageTemplate) error {
	tpl.UpdatedAt = time.Now()
	_, err := r.Collection.UpdateOne(ctx, bson.M{"_id": tpl.ID}, bson.M{"$set": tpl})
	return err
}

func (r *TemplateRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	_, err = r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}
