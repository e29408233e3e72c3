package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bu-wallet-ledger/internal/domain/journal"
)

const (
	// JournalCollectionName is the name of the journal collection in MongoDB
	JournalCollectionName = "ledger_journal"
)

type stepDocument struct {
	Name    string `bson:"name"`
	Outcome string `bson:"outcome"`
	Error   string `bson:"error,omitempty"`
}

type journalDocument struct {
	OperationID    string               `bson:"operation_id"`
	Kind           string               `bson:"kind"`
	InitiatorID    string               `bson:"initiator_id"`
	CounterpartyID string               `bson:"counterparty_id,omitempty"`
	Amount         primitive.Decimal128 `bson:"amount"`
	Status         string               `bson:"status"`
	FailureReason  string               `bson:"failure_reason,omitempty"`
	Steps          []stepDocument       `bson:"steps,omitempty"`
	CorrelationID  string               `bson:"correlation_id,omitempty"`
	CreatedAt      time.Time            `bson:"created_at"`
}

func toDocument(entry *journal.Entry) (*journalDocument, error) {
	amount, err := primitive.ParseDecimal128(entry.Amount.StringFixed(2))
	if err != nil {
		return nil, fmt.Errorf("invalid journal amount %s: %w", entry.Amount.String(), err)
	}
	steps := make([]stepDocument, 0, len(entry.Steps))
	for _, s := range entry.Steps {
		steps = append(steps, stepDocument{Name: s.Name, Outcome: s.Outcome, Error: s.Error})
	}
	return &journalDocument{
		OperationID:    entry.OperationID.String(),
		Kind:           string(entry.Kind),
		InitiatorID:    entry.InitiatorID,
		CounterpartyID: entry.CounterpartyID,
		Amount:         amount,
		Status:         string(entry.Status),
		FailureReason:  entry.FailureReason,
		Steps:          steps,
		CorrelationID:  entry.CorrelationID,
		CreatedAt:      entry.CreatedAt,
	}, nil
}

func (d *journalDocument) toEntry() (*journal.Entry, error) {
	operationID, err := uuid.Parse(d.OperationID)
	if err != nil {
		return nil, fmt.Errorf("invalid operation id %q: %w", d.OperationID, err)
	}
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("invalid amount for operation %s: %w", d.OperationID, err)
	}
	steps := make([]journal.StepRecord, 0, len(d.Steps))
	for _, s := range d.Steps {
		steps = append(steps, journal.StepRecord{Name: s.Name, Outcome: s.Outcome, Error: s.Error})
	}
	return &journal.Entry{
		OperationID:    operationID,
		Kind:           journal.Kind(d.Kind),
		InitiatorID:    d.InitiatorID,
		CounterpartyID: d.CounterpartyID,
		Amount:         amount,
		Status:         journal.Status(d.Status),
		FailureReason:  d.FailureReason,
		Steps:          steps,
		CorrelationID:  d.CorrelationID,
		CreatedAt:      d.CreatedAt,
	}, nil
}

// JournalRepository implements the journal.Repository interface for MongoDB
type JournalRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewJournalRepository creates a new MongoDB journal repository
func NewJournalRepository(logger *slog.Logger, db *mongo.Database) *JournalRepository {
	return &JournalRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique operation index and the per-user lookup indexes
func (r *JournalRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(JournalCollectionName)
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "operation_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "initiator_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "counterparty_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}
	if _, err := collection.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create journal indexes: %w", err)
	}
	return nil
}

// Create stores a journal entry.
// Returns ErrDuplicateEntry if the operation was already journaled.
func (r *JournalRepository) Create(ctx context.Context, entry *journal.Entry) error {
	doc, err := toDocument(entry)
	if err != nil {
		return err
	}

	_, err = r.db.Collection(JournalCollectionName).InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return journal.ErrDuplicateEntry{OperationID: entry.OperationID}
		}
		r.logger.Error("Failed to create journal entry",
			"operation_id", entry.OperationID.String(),
			"error", err)
		return fmt.Errorf("failed to create journal entry: %w", err)
	}

	return nil
}

// GetByOperationID retrieves the entry for one orchestration run
func (r *JournalRepository) GetByOperationID(ctx context.Context, operationID uuid.UUID) (*journal.Entry, error) {
	filter := bson.M{"operation_id": operationID.String()}

	var doc journalDocument
	err := r.db.Collection(JournalCollectionName).FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, journal.ErrEntryNotFound{OperationID: operationID}
		}
		r.logger.Error("Failed to get journal entry",
			"operation_id", operationID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get journal entry: %w", err)
	}

	return doc.toEntry()
}

func userFilter(userID string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{"initiator_id": userID},
		bson.M{"counterparty_id": userID},
	}}
}

// GetByUserID retrieves paginated entries where the user initiated or received value, newest first
func (r *JournalRepository) GetByUserID(ctx context.Context, userID string, limit, offset int) ([]*journal.Entry, error) {
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := r.db.Collection(JournalCollectionName).Find(ctx, userFilter(userID), opts)
	if err != nil {
		r.logger.Error("Failed to get journal entries",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("failed to get journal entries: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []journalDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode journal entries",
			"user_id", userID,
			"error", err)
		return nil, fmt.Errorf("failed to decode journal entries: %w", err)
	}

	entries := make([]*journal.Entry, 0, len(docs))
	for i := range docs {
		entry, err := docs[i].toEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// CountByUserID counts the entries visible to a user
func (r *JournalRepository) CountByUserID(ctx context.Context, userID string) (int64, error) {
	count, err := r.db.Collection(JournalCollectionName).CountDocuments(ctx, userFilter(userID))
	if err != nil {
		r.logger.Error("Failed to count journal entries",
			"user_id", userID,
			"error", err)
		return 0, fmt.Errorf("failed to count journal entries: %w", err)
	}

	return count, nil
}
