package database

import (
	"context"
	"fmt"
	"time"

	"github.com/devanmodhavadiya189/chatapp/internal/domain"
	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// MessageStore encapsulates database operations for messages using SurrealDB.
// It implements domain.MessageRepository.
type MessageStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
}

// NewMessageStore creates a new MessageStore.
func NewMessageStore(db *surrealdb.DB, ns, dbName string) *MessageStore {
	return &MessageStore{db: db, ns: ns, dbName: dbName}
}

// Create validates the draft and persists a new, unseen message.
func (s *MessageStore) Create(ctx context.Context, draft *domain.Draft) (*domain.Message, error) {
	// The text-or-file invariant is enforced here, at the persistence
	// boundary. Records that reach the router are always valid.
	if err := draft.Validate(); err != nil {
		return nil, err
	}

	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := `
		CREATE message SET
			senderId = $sender,
			receiverId = $receiver,
			text = $text,
			file = $file,
			seen = false,
			seenAt = NONE,
			createdAt = time::now()
		RETURN AFTER
	`
	params := map[string]any{
		"sender":   draft.SenderID,
		"receiver": draft.ReceiverID,
		"text":     draft.Text,
		"file":     draft.File,
	}

	msg, err := QueryOne[domain.Message](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	if msg == nil {
		return nil, fmt.Errorf("message was not created")
	}
	return msg, nil
}

// FindConversation returns all messages exchanged between two users, oldest
// first.
func (s *MessageStore) FindConversation(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return nil, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := `
		SELECT * FROM message
		WHERE (senderId = $a AND receiverId = $b)
		   OR (senderId = $b AND receiverId = $a)
		ORDER BY createdAt ASC
	`
	params := map[string]any{"a": userA, "b": userB}

	msgs, err := Query[domain.Message](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	return msgs, nil
}

// UpdateSeenBatch marks every unseen senderID -> receiverID message as seen
// at the given time and returns the number of rows changed.
func (s *MessageStore) UpdateSeenBatch(ctx context.Context, receiverID, senderID string, seenAt time.Time) (int, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return 0, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := `
		UPDATE message SET seen = true, seenAt = $seenAt
		WHERE senderId = $sender AND receiverId = $receiver AND seen = false
		RETURN AFTER
	`
	params := map[string]any{
		"sender":   senderID,
		"receiver": receiverID,
		"seenAt":   surrealmodels.CustomDateTime{Time: seenAt},
	}

	updated, err := Query[domain.Message](ctx, s.db, query, params)
	if err != nil {
		return 0, fmt.Errorf("failed to update seen batch: %w", err)
	}
	return len(updated), nil
}

// UpdateSeenSingle flips the seen flag on one message record.
func (s *MessageStore) UpdateSeenSingle(ctx context.Context, id *surrealmodels.RecordID, seenAt time.Time) error {
	if id == nil {
		return domain.ErrNotFound
	}
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return fmt.Errorf("failed to set database scope: %w", err)
	}

	query := "UPDATE $id SET seen = true, seenAt = $seenAt"
	params := map[string]any{
		"id":     id,
		"seenAt": surrealmodels.CustomDateTime{Time: seenAt},
	}

	if err := Execute(ctx, s.db, query, params); err != nil {
		return fmt.Errorf("failed to update seen flag: %w", err)
	}
	return nil
}

// CountUnseen returns how many messages from senderID to receiverID are
// still unseen. Used for the sidebar badge counts.
func (s *MessageStore) CountUnseen(ctx context.Context, senderID, receiverID string) (int, error) {
	if err := s.db.Use(ctx, s.ns, s.dbName); err != nil {
		return 0, fmt.Errorf("failed to set database scope: %w", err)
	}

	query := `
		SELECT count() AS total FROM message
		WHERE senderId = $sender AND receiverId = $receiver AND seen = false
		GROUP ALL
	`
	params := map[string]any{"sender": senderID, "receiver": receiverID}

	type countRow struct {
		Total int `json:"total"`
	}
	row, err := QueryOne[countRow](ctx, s.db, query, params)
	if err != nil {
		return 0, fmt.Errorf("failed to count unseen messages: %w", err)
	}
	if row == nil {
		return 0, nil
	}
	return row.Total, nil
}
