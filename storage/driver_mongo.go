package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoStateCollection = "manifold_state"

type MongoDriver struct {
	a *MongoAdapter
}

// mongoStateDoc keeps the centroid as a little-endian float32 blob, same as
// the SQL backends, and the history as a plain numeric array.
type mongoStateDoc struct {
	GateID      string    `bson:"gate_id"`
	Centroid    []byte    `bson:"centroid"`
	History     []float64 `bson:"history"`
	DateUpdated time.Time `bson:"date_updated"`
}

func newMongoDriver(adapter Adapter) (Driver, error) {
	a, ok := adapter.(*MongoAdapter)
	if !ok {
		return nil, fmt.Errorf("mongo driver expects *MongoAdapter, got %T", adapter)
	}
	return &MongoDriver{a: a}, nil
}

func (d *MongoDriver) Dialect() string { return "mongodb" }

func (d *MongoDriver) Migrate() error {
	if d.a == nil || d.a.DB == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_, err := d.a.DB.Collection(mongoStateCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "gate_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (d *MongoDriver) LoadState(gateID string) (*State, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var doc mongoStateDoc
	err := d.a.DB.Collection(mongoStateCollection).
		FindOne(ctx, bson.M{"gate_id": gateID}).
		Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	centroid := decodeVector(doc.Centroid)
	if centroid == nil {
		return nil, fmt.Errorf("%w: malformed centroid blob", ErrCorruptState)
	}

	return &State{GateID: gateID, Centroid: centroid, History: doc.History}, nil
}

func (d *MongoDriver) SaveState(st *State) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	history := st.History
	if history == nil {
		history = []float64{}
	}
	doc := mongoStateDoc{
		GateID:      st.GateID,
		Centroid:    encodeVector(st.Centroid),
		History:     history,
		DateUpdated: time.Now(),
	}

	_, err := d.a.DB.Collection(mongoStateCollection).ReplaceOne(
		ctx,
		bson.M{"gate_id": st.GateID},
		doc,
		options.Replace().SetUpsert(true),
	)
	return err
}
