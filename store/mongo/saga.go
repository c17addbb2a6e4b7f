package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/onboard"
	"github.com/xraph/onboard/id"
	"github.com/xraph/onboard/saga"
)

// CreateInstance persists a new saga instance.
func (s *Store) CreateInstance(ctx context.Context, inst *saga.Instance) error {
	m := toInstanceModel(inst)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("onboard/mongo: create instance: %w", err)
	}
	return nil
}

// GetInstance retrieves a saga instance by ID.
func (s *Store) GetInstance(ctx context.Context, instanceID id.SagaID) (*saga.Instance, error) {
	col := s.mdb.Collection(colInstances)
	var m instanceModel
	err := col.FindOne(ctx, bson.M{"_id": instanceID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, onboard.ErrInstanceNotFound
		}
		return nil, fmt.Errorf("onboard/mongo: get instance: %w", err)
	}
	return fromInstanceModel(&m)
}

// UpdateInstance persists changes to an existing saga instance.
func (s *Store) UpdateInstance(ctx context.Context, inst *saga.Instance) error {
	col := s.mdb.Collection(colInstances)
	m := toInstanceModel(inst)
	m.UpdatedAt = now()

	res, err := col.ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return fmt.Errorf("onboard/mongo: update instance: %w", err)
	}
	if res.MatchedCount == 0 {
		return onboard.ErrInstanceNotFound
	}
	return nil
}

// ListInstances returns instances matching the given options, ordered
// by start time ascending.
func (s *Store) ListInstances(ctx context.Context, opts saga.ListOpts) ([]*saga.Instance, error) {
	col := s.mdb.Collection(colInstances)

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "started_at", Value: 1}})
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cur, err := col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("onboard/mongo: list instances: %w", err)
	}
	defer cur.Close(ctx)

	var result []*saga.Instance
	for cur.Next(ctx) {
		var m instanceModel
		if decErr := cur.Decode(&m); decErr != nil {
			return nil, fmt.Errorf("onboard/mongo: list instances decode: %w", decErr)
		}
		inst, convErr := fromInstanceModel(&m)
		if convErr != nil {
			return nil, convErr
		}
		result = append(result, inst)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("onboard/mongo: list instances cursor: %w", err)
	}
	return result, nil
}

// AppendStep appends an entry to an instance's step log. The unique
// (instance_id, step_index) index rejects duplicate indexes, which is
// what makes replay after an at-least-once resumption race safe.
func (s *Store) AppendStep(ctx context.Context, entry *saga.StepEntry) error {
	m := toStepModel(entry)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: instance %s step %d", onboard.ErrStepConflict, m.InstanceID, m.StepIndex)
		}
		return fmt.Errorf("onboard/mongo: append step: %w", err)
	}
	return nil
}

// ListSteps returns an instance's step log ordered by step index.
func (s *Store) ListSteps(ctx context.Context, instanceID id.SagaID) ([]*saga.StepEntry, error) {
	col := s.mdb.Collection(colSteps)

	findOpts := options.Find().SetSort(bson.D{{Key: "step_index", Value: 1}})
	cur, err := col.Find(ctx, bson.M{"instance_id": instanceID.String()}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("onboard/mongo: list steps: %w", err)
	}
	defer cur.Close(ctx)

	var result []*saga.StepEntry
	for cur.Next(ctx) {
		var m stepModel
		if decErr := cur.Decode(&m); decErr != nil {
			return nil, fmt.Errorf("onboard/mongo: list steps decode: %w", decErr)
		}
		entry, convErr := fromStepModel(&m)
		if convErr != nil {
			return nil, convErr
		}
		result = append(result, entry)
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("onboard/mongo: list steps cursor: %w", err)
	}
	return result, nil
}
