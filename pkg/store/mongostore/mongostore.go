// Package mongostore implements the document store on MongoDB.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vazco/EthereumBridgeBackend/pkg/metrics"
	"github.com/vazco/EthereumBridgeBackend/pkg/store"
)

// Connector dials MongoDB for every Connect call.
type Connector struct {
	URL            string
	Database       string
	ConnectTimeout time.Duration
}

var _ store.Connector = (*Connector)(nil)

// Connect opens a client, pings the primary and returns the store.
func (c *Connector) Connect(ctx context.Context) (store.Store, error) {
	return Open(ctx, c.URL, c.Database, c.ConnectTimeout)
}

// Store is a store.Store backed by one mongo.Client.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ store.Store = (*Store)(nil)

// Open connects to url and selects database.
func Open(ctx context.Context, url, database string, timeout time.Duration) (*Store, error) {
	opts := options.Client().ApplyURI(url)
	if timeout > 0 {
		opts.SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", store.ErrConnect, err)
	}

	pingCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %w", store.ErrConnect, err)
	}

	return &Store{client: client, db: client.Database(database)}, nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// FindTokens returns up to limit documents without their _id.
func (s *Store) FindTokens(ctx context.Context, collection string, limit int64) ([]store.Token, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 0})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return s.findTokens(ctx, collection, bson.M{}, opts)
}

// FindTokensBy returns the documents whose field equals value.
func (s *Store) FindTokensBy(ctx context.Context, collection, field string, value interface{}) ([]store.Token, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 0})
	return s.findTokens(ctx, collection, bson.M{field: value}, opts)
}

func (s *Store) findTokens(ctx context.Context, collection string, filter bson.M, opts *options.FindOptions) ([]store.Token, error) {
	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}

	tokens := make([]store.Token, 0)
	if err := cur.All(ctx, &tokens); err != nil {
		return nil, fmt.Errorf("decode %s: %w", collection, err)
	}
	return tokens, nil
}

// SetPrice sets price on every document matching m.
func (s *Store) SetPrice(ctx context.Context, collection string, m store.SymbolMatch, price string) (int64, error) {
	res, err := s.db.Collection(collection).UpdateMany(ctx, SymbolFilter(m), bson.M{"$set": bson.M{"price": price}})
	if err != nil {
		return 0, fmt.Errorf("update %s price of %s: %w", collection, m.Symbol, err)
	}
	metrics.RecordStoreWrite(collection, "update", res.ModifiedCount)
	return res.MatchedCount, nil
}

// PairIDs returns the _id of every stored pair.
func (s *Store) PairIDs(ctx context.Context, collection string) (map[string]struct{}, error) {
	cur, err := s.db.Collection(collection).Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	ids := make(map[string]struct{})
	for cur.Next(ctx) {
		var doc struct {
			ID string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode %s: %w", collection, err)
		}
		ids[doc.ID] = struct{}{}
	}
	return ids, cur.Err()
}

// InsertPairs inserts all pairs with one InsertMany.
func (s *Store) InsertPairs(ctx context.Context, collection string, pairs []store.Pair) error {
	if len(pairs) == 0 {
		return nil
	}
	docs := make([]interface{}, len(pairs))
	for i := range pairs {
		docs[i] = pairs[i]
	}

	res, err := s.db.Collection(collection).InsertMany(ctx, docs)
	if err != nil {
		return fmt.Errorf("insert %s: %w", collection, err)
	}
	metrics.RecordStoreWrite(collection, "insert", int64(len(res.InsertedIDs)))
	return nil
}

// UpsertStatistics writes stats keyed by name and symbol.
func (s *Store) UpsertStatistics(ctx context.Context, collection string, stats store.TokenStatistics) error {
	filter := bson.M{"name": stats.Name, "symbol": stats.Symbol}
	_, err := s.db.Collection(collection).UpdateOne(ctx, filter, bson.M{"$set": stats}, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert %s: %w", collection, err)
	}
	metrics.RecordStoreWrite(collection, "upsert", 1)
	return nil
}

// ListVotes returns every vote.
func (s *Store) ListVotes(ctx context.Context) ([]store.Vote, error) {
	cur, err := s.db.Collection(store.VotesCollection).Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("find votes: %w", err)
	}
	votes := make([]store.Vote, 0)
	if err := cur.All(ctx, &votes); err != nil {
		return nil, fmt.Errorf("decode votes: %w", err)
	}
	return votes, nil
}

// FindVote returns the vote of address or store.ErrNotFound.
func (s *Store) FindVote(ctx context.Context, address string) (*store.Vote, error) {
	var v store.Vote
	err := s.db.Collection(store.VotesCollection).FindOne(ctx, bson.M{"address": address}).Decode(&v)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find vote %s: %w", address, err)
	}
	return &v, nil
}

// InsertVote inserts a new vote.
func (s *Store) InsertVote(ctx context.Context, vote store.Vote) error {
	if _, err := s.db.Collection(store.VotesCollection).InsertOne(ctx, vote); err != nil {
		return fmt.Errorf("insert vote %s: %w", vote.Address, err)
	}
	metrics.RecordStoreWrite(store.VotesCollection, "insert", 1)
	return nil
}

// UpdateVote applies update with FindOneAndUpdate.
func (s *Store) UpdateVote(ctx context.Context, address string, update store.VoteUpdate) (*store.Vote, error) {
	var before store.Vote
	err := s.db.Collection(store.VotesCollection).
		FindOneAndUpdate(ctx, bson.M{"address": address}, bson.M{"$set": update}).
		Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update vote %s: %w", address, err)
	}
	metrics.RecordStoreWrite(store.VotesCollection, "update", 1)
	return &before, nil
}
