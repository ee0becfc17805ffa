package models

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const EventsColName = "events"

func parseEventID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, ErrNotFound
	}
	return oid, nil
}

// CanonicalEventID returns the lower-case hex form of id. Ids that are not
// ObjectIDs are ErrNotFound.
func CanonicalEventID(id string) (string, error) {
	oid, err := parseEventID(id)
	if err != nil {
		return "", err
	}
	return oid.Hex(), nil
}

// EnsureIndexes creates the indexes list and filter queries rely on.
func (mdb *MongodbRepo) EnsureIndexes(ctx context.Context) error {
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return fmt.Errorf("error getting collection: %v", err)
	}

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index().SetName("date_idx"),
		},
		{
			Keys: bson.D{
				{Key: "category", Value: 1},
				{Key: "date", Value: 1},
			},
			Options: options.Index().SetName("category_date_idx"),
		},
		{
			Keys:    bson.D{{Key: "created_by", Value: 1}},
			Options: options.Index().SetName("created_by_idx"),
		},
		{
			Keys:    bson.D{{Key: "attendees", Value: 1}},
			Options: options.Index().SetName("attendees_idx"),
		},
	}

	if _, err := col.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("error creating indexes: %v", err)
	}
	return nil
}

func (mdb *MongodbRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	if err := event.BeforeCreate(); err != nil {
		return nil, fmt.Errorf("failed to prepare event for creation: %w", err)
	}
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	if _, err := col.InsertOne(ctx, event); err != nil {
		return nil, fmt.Errorf("failed to insert event into database: %w", err)
	}
	return event, nil
}

func (mdb *MongodbRepo) GetEventByID(ctx context.Context, id string) (*Event, error) {
	oid, err := parseEventID(id)
	if err != nil {
		return nil, err
	}
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return nil, err
	}

	var event Event
	if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&event); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("error finding event: %w", err)
	}
	return &event, nil
}

func (mdb *MongodbRepo) ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error) {
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := col.Find(ctx, eventFilterQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("error finding events: %w", err)
	}
	defer cursor.Close(ctx)

	events := []*Event{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("error decoding events: %w", err)
	}
	return events, nil
}

func eventFilterQuery(f EventFilter) bson.M {
	query := bson.M{}
	if f.Category != "" {
		query["category"] = f.Category
	}
	if !f.From.IsZero() || !f.To.IsZero() {
		dateRange := bson.M{}
		if !f.From.IsZero() {
			dateRange["$gte"] = f.From
		}
		if !f.To.IsZero() {
			dateRange["$lte"] = f.To
		}
		query["date"] = dateRange
	}
	if f.CreatedBy != "" {
		query["created_by"] = f.CreatedBy
	}
	if f.Attendee != "" {
		query["attendees"] = f.Attendee
	}
	if q := strings.TrimSpace(f.Query); q != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(q), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"title": pattern},
			bson.M{"location": pattern},
			bson.M{"description": pattern},
		}
	}
	return query
}

// ReplaceEvent writes event only if the stored document is still at
// expectedVersion, bumping the version by one.
func (mdb *MongodbRepo) ReplaceEvent(ctx context.Context, event *Event, expectedVersion int64) (*Event, error) {
	if event.ID.IsZero() {
		return nil, ErrNotFound
	}
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return nil, err
	}

	next := event.Clone()
	next.Version = expectedVersion + 1

	filter := bson.M{"_id": event.ID, "version": expectedVersion}
	opts := options.FindOneAndReplace().SetReturnDocument(options.After)

	var result Event
	err = col.FindOneAndReplace(ctx, filter, next, opts).Decode(&result)
	if err == nil {
		return &result, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error replacing event: %w", err)
	}

	count, err := col.CountDocuments(ctx, bson.M{"_id": event.ID})
	if err != nil {
		return nil, fmt.Errorf("error checking event: %w", err)
	}
	if count == 0 {
		return nil, ErrNotFound
	}
	return nil, ErrVersionConflict
}

// RemoveAttendee pulls userID from the attendee list. A non-member leaves the
// document and its version untouched.
func (mdb *MongodbRepo) RemoveAttendee(ctx context.Context, id, userID string) (*Event, error) {
	oid, err := parseEventID(id)
	if err != nil {
		return nil, err
	}
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"_id": oid, "attendees": userID}
	update := bson.M{
		"$pull": bson.M{"attendees": userID},
		"$inc":  bson.M{"version": 1},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var result Event
	err = col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&result)
	if err == nil {
		return &result, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("error removing attendee: %w", err)
	}
	return mdb.GetEventByID(ctx, id)
}

func (mdb *MongodbRepo) DeleteEvent(ctx context.Context, id string) error {
	oid, err := parseEventID(id)
	if err != nil {
		return err
	}
	col, err := mdb.GetCollection(EventsColName)
	if err != nil {
		return err
	}

	res, err := col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("error deleting event: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
