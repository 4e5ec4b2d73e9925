package store

import (
	"context"
	"fmt"

	"monopoly-service/internal/gamesvc/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const moveCollection = "moves"

// MoveStore appends the per-match action log to mongo.
type MoveStore struct {
	db *mongo.Database
}

func NewMoveStore(db *mongo.Database) *MoveStore {
	return &MoveStore{db: db}
}

func (r *MoveStore) Append(ctx context.Context, move models.MoveRecord) error {
	_, err := r.db.Collection(moveCollection).InsertOne(ctx, move)
	if err != nil {
		return fmt.Errorf("could not append move: %w", err)
	}
	return nil
}

func (r *MoveStore) ForMatch(ctx context.Context, matchId uint32) ([]models.MoveRecord, error) {
	opts := options.Find().SetSort(bson.M{"move_num": 1})
	cur, err := r.db.Collection(moveCollection).Find(ctx, bson.M{"match_id": matchId}, opts)
	if err != nil {
		return nil, fmt.Errorf("could not read moves for match %d: %w", matchId, err)
	}
	defer cur.Close(ctx)

	var moves []models.MoveRecord
	if err := cur.All(ctx, &moves); err != nil {
		return nil, err
	}
	return moves, nil
}
