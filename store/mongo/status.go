package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/onboard"
	"github.com/xraph/onboard/id"
	"github.com/xraph/onboard/status"
)

// CreateProjection inserts a new projection. An upsert on the
// in-progress (subject_id, type) pair keeps concurrent starts from
// producing two in_progress records for the same subject.
func (s *Store) CreateProjection(ctx context.Context, p *status.Projection) error {
	col := s.mdb.Collection(colStatus)
	m := toProjectionModel(p)

	filter := bson.M{
		"subject_id": m.SubjectID,
		"type":       m.Type,
		"status":     "in_progress",
	}
	update := bson.M{"$setOnInsert": m}

	_, err := col.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("onboard/mongo: create projection: %w", err)
	}
	return nil
}

// GetProjection returns a projection by ID.
func (s *Store) GetProjection(ctx context.Context, statusID id.StatusID) (*status.Projection, error) {
	col := s.mdb.Collection(colStatus)
	var m projectionModel
	err := col.FindOne(ctx, bson.M{"_id": statusID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, onboard.ErrStatusNotFound
		}
		return nil, fmt.Errorf("onboard/mongo: get projection: %w", err)
	}
	return fromProjectionModel(&m)
}

// FindInProgress returns the in-progress projection for (subjectID, typ).
func (s *Store) FindInProgress(ctx context.Context, subjectID, typ string) (*status.Projection, error) {
	col := s.mdb.Collection(colStatus)
	var m projectionModel
	err := col.FindOne(ctx, bson.M{
		"subject_id": subjectID,
		"type":       typ,
		"status":     "in_progress",
	}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, onboard.ErrStatusNotFound
		}
		return nil, fmt.Errorf("onboard/mongo: find in-progress projection: %w", err)
	}
	return fromProjectionModel(&m)
}

// FindLatest returns the most recently started projection for
// (subjectID, typ) regardless of status.
func (s *Store) FindLatest(ctx context.Context, subjectID, typ string) (*status.Projection, error) {
	col := s.mdb.Collection(colStatus)
	var m projectionModel
	err := col.FindOne(ctx,
		bson.M{"subject_id": subjectID, "type": typ},
		options.FindOne().SetSort(bson.D{{Key: "started_at", Value: -1}}),
	).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, onboard.ErrStatusNotFound
		}
		return nil, fmt.Errorf("onboard/mongo: find latest projection: %w", err)
	}
	return fromProjectionModel(&m)
}

// UpdateProjection replaces an existing projection.
func (s *Store) UpdateProjection(ctx context.Context, p *status.Projection) error {
	col := s.mdb.Collection(colStatus)
	m := toProjectionModel(p)
	m.UpdatedAt = now()

	res, err := col.ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("onboard/mongo: update projection: %w", err)
	}
	if res.MatchedCount == 0 {
		return onboard.ErrStatusNotFound
	}
	return nil
}
