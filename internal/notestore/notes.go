package notestore

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/iliyamo/staff-attendance/internal/model"
)

type NoteStore struct {
	notes *mongo.Collection
}

// NewNoteStore prepares the daily_notes collection and its lookup
// index. Notes are only ever read by (user, date) equality.
func NewNoteStore(ctx context.Context, db *MongoDB) (*NoteStore, error) {
	notes := db.Collection("daily_notes")

	if _, err := notes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "date", Value: 1}}},
	}); err != nil {
		return nil, fmt.Errorf("create daily_notes indexes: %w", err)
	}
	return &NoteStore{notes: notes}, nil
}

// noteDoc is the stored shape; the _id is mapped back onto the model
// as its hex string.
type noteDoc struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	UserID    uint64        `bson:"user_id"`
	AuthorID  uint64        `bson:"author_id"`
	Date      string        `bson:"date"`
	Note      string        `bson:"note"`
	CreatedAt time.Time     `bson:"created_at"`
}

func (d noteDoc) toModel() model.DailyNote {
	return model.DailyNote{
		ID:        d.ID.Hex(),
		UserID:    d.UserID,
		AuthorID:  d.AuthorID,
		Date:      d.Date,
		Note:      d.Note,
		CreatedAt: d.CreatedAt,
	}
}

// Create inserts a note and sets the generated ID on the model.
func (s *NoteStore) Create(ctx context.Context, n *model.DailyNote) error {
	doc := noteDoc{
		UserID:    n.UserID,
		AuthorID:  n.AuthorID,
		Date:      n.Date,
		Note:      n.Note,
		CreatedAt: time.Now().UTC(),
	}
	res, err := s.notes.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	n.ID = res.InsertedID.(bson.ObjectID).Hex()
	n.CreatedAt = doc.CreatedAt
	return nil
}

// ListByUserDate returns the notes attached to one user's day, newest
// first. Notes the user wrote and notes an admin posted onto the day
// come back together; AuthorID tells them apart.
func (s *NoteStore) ListByUserDate(ctx context.Context, userID uint64, date string) ([]model.DailyNote, error) {
	cursor, err := s.notes.Find(ctx,
		bson.M{"user_id": userID, "date": date},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find notes: %w", err)
	}
	var docs []noteDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notes: %w", err)
	}
	out := make([]model.DailyNote, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

// Delete removes a note by its hex ID, but only when it belongs to
// the given user (staff can delete their own notes only).
func (s *NoteStore) Delete(ctx context.Context, id string, userID uint64) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("parse note id: %w", err)
	}
	res, err := s.notes.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}
