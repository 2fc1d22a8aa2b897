package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/gavel/go/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SessionCollection is the default collection holding the session document.
const SessionCollection = "auction_session"

type mongoSessionDoc struct {
	ID        string    `bson:"_id"`
	Version   int64     `bson:"version"`
	Data      string    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoStore keeps the session as a single document, the way the auction
// service originally stored it, with a version field for CAS writes.
type MongoStore struct {
	coll  *mongo.Collection
	clock clockwork.Clock
}

// NewMongoStore creates a store over db.<SessionCollection>
func NewMongoStore(db *mongo.Database, clock clockwork.Clock) *MongoStore {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MongoStore{coll: db.Collection(SessionCollection), clock: clock}
}

// BSON dates keep millisecond precision.
func (m *MongoStore) now() time.Time {
	return m.clock.Now().UTC().Truncate(time.Millisecond)
}

func (m *MongoStore) Load(ctx context.Context) (*models.Session, error) {
	var doc mongoSessionDoc
	err := m.coll.FindOne(ctx, bson.M{"_id": SessionKey}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.NewSession(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return decodeMongoDoc(doc)
}

func decodeMongoDoc(doc mongoSessionDoc) (*models.Session, error) {
	s := models.NewSession()
	if err := json.Unmarshal([]byte(doc.Data), s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	s.Version = doc.Version
	return s, nil
}

func (m *MongoStore) Save(ctx context.Context, s *models.Session) error {
	if err := s.Validate(); err != nil {
		return err
	}

	now := m.now()
	next := s.Clone()
	next.Version = s.Version + 1
	next.UpdatedAt = now
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	if s.Version == 0 {
		_, err := m.coll.InsertOne(ctx, mongoSessionDoc{
			ID:        SessionKey,
			Version:   1,
			Data:      string(data),
			UpdatedAt: now,
		})
		if mongo.IsDuplicateKeyError(err) {
			return ErrVersionConflict
		}
		if err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
		s.Version, s.UpdatedAt = 1, now
		return nil
	}

	res, err := m.coll.UpdateOne(ctx,
		bson.M{"_id": SessionKey, "version": s.Version},
		bson.M{
			"$set": bson.M{"data": string(data), "updated_at": now},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrVersionConflict
	}
	s.Version, s.UpdatedAt = next.Version, now
	return nil
}

func (m *MongoStore) Clear(ctx context.Context) (*models.Session, error) {
	data, err := json.Marshal(models.NewSession())
	if err != nil {
		return nil, fmt.Errorf("encode session: %w", err)
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	now := m.now()
	var doc mongoSessionDoc
	err = m.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": SessionKey},
		bson.M{
			"$set": bson.M{"data": string(data), "updated_at": now},
			"$inc": bson.M{"version": 1},
		},
		opts,
	).Decode(&doc)
	if err != nil {
		return nil, fmt.Errorf("clear session: %w", err)
	}
	s := cleared(doc.Version)
	s.UpdatedAt = now
	return s, nil
}
