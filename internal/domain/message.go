package domain

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// validatorInstance is a package-level validator instance.
// Using a single instance is more efficient as it caches struct information.
var validatorInstance = validator.New()

// FileRef describes a file attached to a message. The file content itself
// lives in blob storage; the message only carries this descriptor.
type FileRef struct {
	URL      string `json:"url" validate:"required"`
	MimeType string `json:"mimetype" validate:"required"`
	Filename string `json:"filename"`
	Size     int64  `json:"size" validate:"gte=0"`
}

// Message is a persisted direct message between two users.
// SenderID and ReceiverID are opaque user identifiers; the delivery engine
// never inspects their structure.
type Message struct {
	ID         *surrealmodels.RecordID       `json:"id,omitempty"`
	SenderID   string                        `json:"senderId"`
	ReceiverID string                        `json:"receiverId"`
	Text       string                        `json:"text"`
	File       *FileRef                      `json:"file,omitempty"`
	Seen       bool                          `json:"seen"`
	SeenAt     *surrealmodels.CustomDateTime `json:"seenAt,omitempty"`
	CreatedAt  *surrealmodels.CustomDateTime `json:"createdAt,omitempty"`
}

// Draft is the validated input for creating a message. A draft must carry
// non-empty text, a file, or both.
type Draft struct {
	SenderID   string   `validate:"required"`
	ReceiverID string   `validate:"required"`
	Text       string   `validate:"required_without=File"`
	File       *FileRef `validate:"omitempty"`
}

// Validate enforces the text-or-file invariant once, at the persistence
// boundary. Downstream components assume every Message they see is valid.
func (d *Draft) Validate() error {
	if err := validatorInstance.Struct(d); err != nil {
		return ErrEmptyMessage
	}
	if d.File != nil {
		if err := validatorInstance.Struct(d.File); err != nil {
			return ErrEmptyMessage
		}
	}
	return nil
}

// MessageRepository is the contract for the message store. The delivery
// engine treats it as an external, transactionally consistent collaborator.
type MessageRepository interface {
	// Create persists a new message from a draft. Drafts failing validation
	// are rejected with ErrEmptyMessage and never reach the router.
	Create(ctx context.Context, draft *Draft) (*Message, error)

	// FindConversation returns all messages between two users, in creation
	// order.
	FindConversation(ctx context.Context, userA, userB string) ([]Message, error)

	// UpdateSeenBatch marks every unseen message from senderID to receiverID
	// as seen at the given time and returns the number of rows changed.
	UpdateSeenBatch(ctx context.Context, receiverID, senderID string, seenAt time.Time) (int, error)

	// UpdateSeenSingle flips the seen flag on one message.
	UpdateSeenSingle(ctx context.Context, id *surrealmodels.RecordID, seenAt time.Time) error

	// CountUnseen returns how many messages from senderID to receiverID are
	// still unseen.
	CountUnseen(ctx context.Context, senderID, receiverID string) (int, error)
}
