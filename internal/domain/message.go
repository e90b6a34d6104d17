package domain

import (
	"strings"
	"time"
)

type Message struct {
	MessageID  string    `json:"id" dynamodbav:"message_id"`
	ListingID  string    `json:"listing_id" dynamodbav:"listing_id"`
	SenderID   string    `json:"sender_id" dynamodbav:"sender_id"`
	ReceiverID string    `json:"receiver_id" dynamodbav:"receiver_id"`
	Content    string    `json:"content" dynamodbav:"content"`
	ImageURLs  []string  `json:"image_urls" dynamodbav:"image_urls,omitempty"`
	IsRead     bool      `json:"is_read" dynamodbav:"is_read"`
	CreatedAt  time.Time `json:"created" dynamodbav:"created_at"`
}

// HasBody reports whether the message carries text or at least one image.
func (m Message) HasBody() bool {
	return strings.TrimSpace(m.Content) != "" || len(m.ImageURLs) > 0
}

// Involves reports whether userID is the sender or the receiver.
func (m Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

type SendMessageRequest struct {
	ListingID  string   `json:"listing_id" validate:"required"`
	ReceiverID string   `json:"receiver_id" validate:"required"`
	Content    string   `json:"content" validate:"max=4000"`
	ImageURLs  []string `json:"image_urls" validate:"max=10,dive,url"`
}

type EditMessageRequest struct {
	Content string `json:"content" validate:"max=4000"`
}

type MarkReadRequest struct {
	MessageIDs []string `json:"message_ids" validate:"required,min=1,max=100,dive,required"`
}

// Conversation is derived from messages and never stored.
type Conversation struct {
	ListingID       string    `json:"listing_id"`
	ListingName     string    `json:"listing_name"`
	ListingImage    *string   `json:"listing_image"`
	CounterpartID   string    `json:"other_user_id"`
	CounterpartName string    `json:"other_user_name"`
	LastMessage     string    `json:"last_message"`
	LastMessageAt   time.Time `json:"last_message_at"`
	UnreadCount     int       `json:"unread_count"`
}
