// Package mongodb stores expenses in a MongoDB collection.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"famspend/internal/core"
	"famspend/internal/store"
)

const collectionName = "expenses"

// Config holds connection settings.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Client owns the driver connection.
type Client struct {
	client   *mongo.Client
	database *mongo.Database
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(cfg Config) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return &Client{client: client, database: client.Database(cfg.Database)}, nil
}

func (c *Client) Database() *mongo.Database {
	return c.database
}

func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// expenseDoc is the stored document shape.
type expenseDoc struct {
	ID          string    `bson:"_id"`
	OwnerUserID string    `bson:"owner_user_id"`
	OwnerName   string    `bson:"owner_name,omitempty"`
	FamilyID    string    `bson:"family_id,omitempty"`
	AmountMinor int64     `bson:"amount_minor"`
	Category    string    `bson:"category"`
	Description string    `bson:"description"`
	OccurredAt  time.Time `bson:"occurred_at"`
	CreatedAt   time.Time `bson:"created_at"`
}

// Repository implements store.ExpenseStore over one collection.
type Repository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection(collectionName), now: time.Now}
}

// EnsureIndexes creates the indexes the list queries rely on.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_user_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
		{Keys: bson.D{{Key: "family_id", Value: 1}, {Key: "occurred_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create expense indexes: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, in store.NewExpense) (core.Expense, error) {
	// BSON dates keep millisecond precision.
	e, err := in.Build(uuid.NewString(), r.now().UTC().Truncate(time.Millisecond))
	if err != nil {
		return core.Expense{}, err
	}
	e.OccurredAt = e.OccurredAt.UTC().Truncate(time.Millisecond)

	doc := expenseDoc{
		ID:          e.ID,
		OwnerUserID: e.OwnerUserID,
		OwnerName:   e.OwnerName,
		FamilyID:    e.FamilyID,
		AmountMinor: e.Amount.Minor,
		Category:    e.Category,
		Description: e.Description,
		OccurredAt:  e.OccurredAt,
		CreatedAt:   e.CreatedAt,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return core.Expense{}, fmt.Errorf("failed to create expense: %w", err)
	}
	return e, nil
}

func (r *Repository) ListExpenses(ctx context.Context, scope store.Scope) ([]core.Expense, error) {
	filter := bson.M{"owner_user_id": scope.UserID}
	if scope.Family {
		filter = bson.M{"family_id": scope.FamilyID}
	}
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: -1}, {Key: "created_at", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []expenseDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode expenses: %w", err)
	}

	out := make([]core.Expense, 0, len(docs))
	for _, d := range docs {
		out = append(out, core.Expense{
			ID:          d.ID,
			OwnerUserID: d.OwnerUserID,
			OwnerName:   d.OwnerName,
			FamilyID:    d.FamilyID,
			Amount:      core.Money{Minor: d.AmountMinor},
			Category:    core.NormalizeCategory(d.Category),
			Description: d.Description,
			OccurredAt:  d.OccurredAt,
			CreatedAt:   d.CreatedAt,
		})
	}
	return out, nil
}
