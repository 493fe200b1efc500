// Package mongostore is the MongoDB backend (STORE_DRIVER=mongo).
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"appointment-booking-api/internal/model"
	"appointment-booking-api/internal/store"
)

type Store struct {
	client *mongo.Client
	appts  *mongo.Collection
	admins *mongo.Collection
	meta   *mongo.Collection
}

// bootstrapID keys the singleton document claimed by the first admin.
const bootstrapID = "admin-bootstrap"

func Open(ctx context.Context, uri, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	db := client.Database(database)
	s := &Store{
		client: client,
		appts:  db.Collection("appointments"),
		admins: db.Collection("admins"),
		meta:   db.Collection("meta"),
	}
	_, err = s.admins.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo index: %w", err)
	}
	return s, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func now() time.Time {
	// bson dates carry millisecond precision
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	a.CreatedAt = now()
	_, err := s.appts.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrConflict
	}
	return err
}

// ListAppointments sorts on _id; ids are UUIDv7 so that is insertion order.
func (s *Store) ListAppointments(ctx context.Context) ([]model.Appointment, error) {
	cur, err := s.appts.Find(ctx, bson.D{},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var out []model.Appointment
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Appointment{}
	}
	return out, nil
}

func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, st model.Status) (*model.Appointment, error) {
	a := &model.Appointment{}
	err := s.appts.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": st}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) DeleteAppointment(ctx context.Context, id string) error {
	_, err := s.appts.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (s *Store) CreateAdmin(ctx context.Context, a *model.Admin) error {
	a.CreatedAt = now()
	_, err := s.admins.InsertOne(ctx, a)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrConflict
	}
	return err
}

// CreateFirstAdmin claims the bootstrap document and then inserts the admin. Only one
// caller can win the claim since _id is unique.
func (s *Store) CreateFirstAdmin(ctx context.Context, a *model.Admin) error {
	n, err := s.admins.CountDocuments(ctx, bson.D{}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n > 0 {
		return store.ErrAdminsExist
	}

	_, err = s.meta.InsertOne(ctx, bson.M{"_id": bootstrapID, "username": a.Username, "at": now()})
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAdminsExist
	}
	if err != nil {
		return err
	}
	if err := s.CreateAdmin(ctx, a); err != nil {
		// release the claim so a later bootstrap can retry
		_, _ = s.meta.DeleteOne(ctx, bson.M{"_id": bootstrapID})
		return err
	}
	return nil
}

func (s *Store) AdminByUsername(ctx context.Context, username string) (*model.Admin, error) {
	a := &model.Admin{}
	err := s.admins.FindOne(ctx, bson.M{"username": username}).Decode(a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) CountAdmins(ctx context.Context) (int, error) {
	n, err := s.admins.CountDocuments(ctx, bson.D{})
	return int(n), err
}
