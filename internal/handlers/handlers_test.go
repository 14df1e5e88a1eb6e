package handlers_test

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/devanmodhavadiya189/chatapp/internal/domain"
	"github.com/devanmodhavadiya189/chatapp/internal/handlers"
	"github.com/devanmodhavadiya189/chatapp/internal/middleware"
	"github.com/devanmodhavadiya189/chatapp/internal/pubsub"
)

// Shared test doubles for the handler suite.

func recordID(table, id string) *surrealmodels.RecordID {
	rid := surrealmodels.NewRecordID(table, id)
	return &rid
}

// stubUsers implements domain.UserRepository backed by maps.
type stubUsers struct {
	byEmail    map[string]*domain.User
	byToken    map[string]*domain.User
	signUpErr  error
	signInErr  error
	updateErr  error
	findAllErr error
}

func newStubUsers() *stubUsers {
	return &stubUsers{
		byEmail: make(map[string]*domain.User),
		byToken: make(map[string]*domain.User),
	}
}

func (s *stubUsers) SignUp(ctx context.Context, user *domain.User, password string) (string, error) {
	if s.signUpErr != nil {
		return "", s.signUpErr
	}
	if _, exists := s.byEmail[user.Email]; exists {
		return "", domain.ErrUserAlreadyExists
	}
	id := strings.SplitN(user.Email, "@", 2)[0]
	stored := &domain.User{ID: recordID("user", id), Email: user.Email, Name: user.Name}
	s.byEmail[user.Email] = stored
	token := "token-" + id
	s.byToken[token] = stored
	return token, nil
}

func (s *stubUsers) SignIn(ctx context.Context, user *domain.User, password string) (string, error) {
	if s.signInErr != nil {
		return "", s.signInErr
	}
	stored, ok := s.byEmail[user.Email]
	if !ok || password != "correct horse" {
		return "", domain.ErrInvalidCredentials
	}
	token := "token-" + stored.ID.String()
	s.byToken[token] = stored
	return token, nil
}

func (s *stubUsers) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if user, ok := s.byToken[token]; ok {
		return user, nil
	}
	return nil, domain.ErrInvalidCredentials
}

func (s *stubUsers) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubUsers) FindAllExcept(ctx context.Context, userID string) ([]domain.User, error) {
	if s.findAllErr != nil {
		return nil, s.findAllErr
	}
	var result []domain.User
	for _, user := range s.byEmail {
		if user.ID != nil && user.ID.String() != userID {
			result = append(result, *user)
		}
	}
	return result, nil
}

func (s *stubUsers) UpdateProfile(ctx context.Context, userID string, name, profilePic *string) (*domain.User, error) {
	if s.updateErr != nil {
		return nil, s.updateErr
	}
	for _, user := range s.byEmail {
		if user.ID != nil && user.ID.String() == userID {
			if name != nil {
				user.Name = name
			}
			if profilePic != nil {
				user.ProfilePic = profilePic
			}
			return user, nil
		}
	}
	return nil, domain.ErrNotFound
}

// stubMessages implements domain.MessageRepository in memory.
type stubMessages struct {
	mu           sync.Mutex
	stored       []domain.Message
	unseenCounts map[string]int // senderID -> count toward anyone
	batchCount   int
	createErr    error
	findErr      error
	batchErr     error
	nextID       int
}

func newStubMessages() *stubMessages {
	return &stubMessages{unseenCounts: make(map[string]int)}
}

func (s *stubMessages) Create(ctx context.Context, draft *domain.Draft) (*domain.Message, error) {
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	msg := domain.Message{
		ID:         recordID("message", string(rune('a'+s.nextID))),
		SenderID:   draft.SenderID,
		ReceiverID: draft.ReceiverID,
		Text:       draft.Text,
		File:       draft.File,
		CreatedAt:  &surrealmodels.CustomDateTime{Time: time.Now().UTC()},
	}
	s.stored = append(s.stored, msg)
	return &msg, nil
}

func (s *stubMessages) FindConversation(ctx context.Context, userA, userB string) ([]domain.Message, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []domain.Message
	for _, msg := range s.stored {
		if (msg.SenderID == userA && msg.ReceiverID == userB) || (msg.SenderID == userB && msg.ReceiverID == userA) {
			result = append(result, msg)
		}
	}
	return result, nil
}

func (s *stubMessages) UpdateSeenBatch(ctx context.Context, receiverID, senderID string, seenAt time.Time) (int, error) {
	if s.batchErr != nil {
		return 0, s.batchErr
	}
	return s.batchCount, nil
}

func (s *stubMessages) UpdateSeenSingle(ctx context.Context, id *surrealmodels.RecordID, seenAt time.Time) error {
	return nil
}

func (s *stubMessages) CountUnseen(ctx context.Context, senderID, receiverID string) (int, error) {
	return s.unseenCounts[senderID], nil
}

// capturingPublisher implements pubsub.Publisher and records everything.
type capturingPublisher struct {
	mu       sync.Mutex
	messages []pubsub.Message
}

func (p *capturingPublisher) Publish(ctx context.Context, msg pubsub.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func (p *capturingPublisher) getMessages() []pubsub.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	result := make([]pubsub.Message, len(p.messages))
	copy(result, p.messages)
	return result
}

// newEcho builds an echo instance with the suite's validator and a session
// store installed, matching what the server wires up.
func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = handlers.NewValidator()
	store := sessions.NewCookieStore([]byte("test-session-secret"))
	store.Options = &sessions.Options{Path: "/", MaxAge: 86400, HttpOnly: true}
	e.Use(session.Middleware(store))
	return e
}

// asUser injects a user into the request context the way the auth
// middleware would after validating a token.
func asUser(user *domain.User) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set(middleware.UserContextKey, user)
			return next(c)
		}
	}
}
