package message

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/telbozor/api/internal/conversation"
	"github.com/telbozor/api/internal/domain"
	"github.com/telbozor/api/internal/pkg/id"
	"github.com/telbozor/api/internal/pkg/validate"
)

type Service interface {
	Send(ctx context.Context, senderID string, req domain.SendMessageRequest) (*domain.Message, error)
	Conversations(ctx context.Context, viewerID string) ([]domain.Conversation, error)
	Thread(ctx context.Context, viewerID, listingID, counterpartID string) ([]domain.Message, error)
	UnreadCount(ctx context.Context, viewerID string) (int, error)
	MarkRead(ctx context.Context, viewerID string, messageIDs []string) (int, error)
	Edit(ctx context.Context, userID, messageID string, req domain.EditMessageRequest) (*domain.Message, error)
	Delete(ctx context.Context, userID, messageID string) error
}

type messageStore interface {
	Put(ctx context.Context, m *domain.Message) error
	Get(ctx context.Context, messageID string) (*domain.Message, error)
	ListForUser(ctx context.Context, userID string) ([]domain.Message, error)
	ListThread(ctx context.Context, listingID, a, b string) ([]domain.Message, error)
	UpdateContent(ctx context.Context, messageID, content string) (*domain.Message, error)
	Delete(ctx context.Context, messageID string) error
	MarkRead(ctx context.Context, messageIDs []string) error
}

type listingGetter interface {
	Get(ctx context.Context, listingID string) (*domain.Listing, error)
}

// EventPublisher receives every committed message change.
type EventPublisher interface {
	Publish(ev conversation.ChangeEvent)
}

type service struct {
	repo      messageStore
	listings  listingGetter
	directory conversation.Directory
	events    EventPublisher
}

type ServiceDeps struct {
	MessageRepo messageStore
	ListingRepo listingGetter
	Directory   conversation.Directory
	Events      EventPublisher // optional
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:      deps.MessageRepo,
		listings:  deps.ListingRepo,
		directory: deps.Directory,
		events:    deps.Events,
	}
}

func (s *service) Send(ctx context.Context, senderID string, req domain.SendMessageRequest) (*domain.Message, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	if req.ReceiverID == senderID {
		return nil, fmt.Errorf("cannot message yourself: %w", domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	m := &domain.Message{
		MessageID:  id.At(now),
		ListingID:  req.ListingID,
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Content:    strings.TrimSpace(req.Content),
		ImageURLs:  req.ImageURLs,
		CreatedAt:  now,
	}
	if !m.HasBody() {
		return nil, fmt.Errorf("message needs text or an image: %w", domain.ErrBadRequest)
	}
	if _, err := s.listings.Get(ctx, req.ListingID); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, m); err != nil {
		return nil, err
	}
	s.publish(conversation.ChangeEvent{Type: conversation.EventInsert, Message: *m})
	return m, nil
}

// Conversations recomputes the viewer's conversation list from the stored messages.
func (s *service) Conversations(ctx context.Context, viewerID string) ([]domain.Conversation, error) {
	msgs, err := s.repo.ListForUser(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	return conversation.Build(ctx, msgs, viewerID, s.directory), nil
}

func (s *service) Thread(ctx context.Context, viewerID, listingID, counterpartID string) ([]domain.Message, error) {
	msgs, err := s.repo.ListThread(ctx, listingID, viewerID, counterpartID)
	if err != nil {
		return nil, err
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

func (s *service) UnreadCount(ctx context.Context, viewerID string) (int, error) {
	msgs, err := s.repo.ListForUser(ctx, viewerID)
	if err != nil {
		return 0, err
	}
	return conversation.UnreadCount(msgs, viewerID), nil
}

// MarkRead marks the given messages read for their receiver. IDs that are
// missing, already read, or addressed to someone else are skipped. It returns
// how many messages changed.
func (s *service) MarkRead(ctx context.Context, viewerID string, messageIDs []string) (int, error) {
	req := domain.MarkReadRequest{MessageIDs: messageIDs}
	if err := validate.Struct(&req); err != nil {
		return 0, err
	}
	var (
		ids     []string
		changed []domain.Message
		seen    = make(map[string]struct{}, len(messageIDs))
	)
	for _, mid := range messageIDs {
		if _, dup := seen[mid]; dup {
			continue
		}
		seen[mid] = struct{}{}
		m, err := s.repo.Get(ctx, mid)
		if errors.Is(err, domain.ErrNotFound) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if m.ReceiverID != viewerID || m.IsRead {
			continue
		}
		ids = append(ids, mid)
		changed = append(changed, *m)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.repo.MarkRead(ctx, ids); err != nil {
		return 0, err
	}
	for _, prev := range changed {
		next := prev
		next.IsRead = true
		s.publish(conversation.ChangeEvent{Type: conversation.EventUpdate, Message: next, Previous: &prev})
	}
	return len(ids), nil
}

// Edit replaces the text of a message. Only the sender may edit, and the
// message must keep a body.
func (s *service) Edit(ctx context.Context, userID, messageID string, req domain.EditMessageRequest) (*domain.Message, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	prev, err := s.sent(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	candidate := *prev
	candidate.Content = strings.TrimSpace(req.Content)
	if !candidate.HasBody() {
		return nil, fmt.Errorf("message needs text or an image: %w", domain.ErrBadRequest)
	}
	m, err := s.repo.UpdateContent(ctx, messageID, candidate.Content)
	if err != nil {
		return nil, err
	}
	s.publish(conversation.ChangeEvent{Type: conversation.EventUpdate, Message: *m, Previous: prev})
	return m, nil
}

func (s *service) Delete(ctx context.Context, userID, messageID string) error {
	m, err := s.sent(ctx, userID, messageID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, messageID); err != nil {
		return err
	}
	s.publish(conversation.ChangeEvent{Type: conversation.EventDelete, Message: *m})
	return nil
}

func (s *service) sent(ctx context.Context, userID, messageID string) (*domain.Message, error) {
	m, err := s.repo.Get(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if m.SenderID != userID {
		return nil, fmt.Errorf("only the sender may change a message: %w", domain.ErrForbidden)
	}
	return m, nil
}

func (s *service) publish(ev conversation.ChangeEvent) {
	if s.events != nil {
		s.events.Publish(ev)
	}
}
