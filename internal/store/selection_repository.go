package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"postpilot/model"
)

const collectionName = "workspace_selections"

// SelectionStore is the persisted last-selected-workspace record, one per
// user. Writes are last-write-wins; only the generation counter is atomic.
type SelectionStore interface {
	Get(ctx context.Context, userID string) (*model.Selection, error)
	Save(ctx context.Context, sel model.Selection) (*model.Selection, error)
}

// SelectionRepository is the Mongo-backed SelectionStore.
type SelectionRepository struct {
	col *mongo.Collection
}

func NewSelectionRepository(db *mongo.Database) *SelectionRepository {
	return &SelectionRepository{col: db.Collection(collectionName)}
}

// Get returns the user's selection, or nil when none has been persisted yet.
func (r *SelectionRepository) Get(ctx context.Context, userID string) (*model.Selection, error) {
	var sel model.Selection
	err := r.col.FindOne(ctx, bson.M{"user_id": userID}).Decode(&sel)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sel, nil
}

// Save upserts the selection and bumps the generation counter atomically.
// The returned record carries the new generation.
func (r *SelectionRepository) Save(ctx context.Context, sel model.Selection) (*model.Selection, error) {
	update := bson.M{
		"$set": bson.M{
			"workspace_id":    sel.WorkspaceID,
			"slug":            sel.Slug,
			"name":            sel.Name,
			"organization_id": sel.OrganizationID,
			"role":            sel.Role,
			"timezone":        sel.Timezone,
			"updated_at":      time.Now().UTC(),
		},
		"$inc": bson.M{"generation": 1},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var saved model.Selection
	err := r.col.FindOneAndUpdate(ctx, bson.M{"user_id": sel.UserID}, update, opts).Decode(&saved)
	if err != nil {
		return nil, err
	}
	return &saved, nil
}
