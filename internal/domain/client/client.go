package client

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"
)

var (
	ErrNotFound     = errors.New("client: not found")
	ErrInvalidName  = errors.New("client: name is required")
	ErrInvalidEmail = errors.New("client: email is invalid")
	ErrEmptyMessage = errors.New("client: notification message is required")
)

type Client struct {
	ID    string
	Name  string
	Email string
}

func New(id, name, email string) (*Client, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrInvalidName
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	return &Client{ID: id, Name: name, Email: email}, nil
}

// Notification is a message delivered to a client about one of their orders.
type Notification struct {
	ID        string
	ClientID  string
	Message   string
	CreatedAt time.Time
}

func NewNotification(id, clientID, message string) (Notification, error) {
	if strings.TrimSpace(message) == "" {
		return Notification{}, ErrEmptyMessage
	}
	return Notification{
		ID:        id,
		ClientID:  clientID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}, nil
}

type Repository interface {
	Get(ctx context.Context, id string) (*Client, error)
	Insert(ctx context.Context, c *Client) error
}

type NotificationRepository interface {
	Append(ctx context.Context, n Notification) error
	ListByClient(ctx context.Context, clientID string) ([]Notification, error)
}
