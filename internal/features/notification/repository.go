package notification

import (
	"context"
	"time"

	"go-chms/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *Notification) error
	ListForMember(ctx context.Context, memberID string, limit int64) ([]Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type NotificationRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewNotificationRepository(mongodb *database.MongodbDB) NotificationRepository {
	return &NotificationRepositoryImpl{
		Collection: mongodb.DB.Collection("notifications"),
	}
}

func (r *NotificationRepositoryImpl) Create(ctx context.Context, n *Notification) error {
	n.ID = primitive.NewObjectID()
	n.CreatedAt = time.Now()
	_, err := r.Collection.InsertOne(ctx, n)
	return err
}

func (r *NotificationRepositoryImpl) ListForMember(ctx context.Context, memberID string, limit int64) ([]Notification, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.Collection.Find(ctx, bson.M{"member_id": memberID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var notifications []Notification
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepositoryImpl) MarkRead(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return err
	}
	now := time.Now()
	_, err = r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{
		"$set": bson.M{"is_read": true, "read_at": now},
	})
	return err
}
