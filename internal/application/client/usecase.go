package client

import (
	"context"
	"errors"
	"strings"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/client"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"

	"go.opentelemetry.io/otel/attribute"
)

const (
	clientService        = "client-service"
	useCaseGetClient     = "client.get"
	useCaseCreateClient  = "client.create"
	useCaseNotify        = "client.notify"
	useCaseNotifications = "client.list_notifications"
)

type IDGenerator interface {
	NewID() string
}

// Directory owns client records and the notifications delivered to them.
type Directory struct {
	clients       domain.Repository
	notifications domain.NotificationRepository
	idGen         IDGenerator
	inst          application.Instruments
}

func NewDirectory(clients domain.Repository, notifications domain.NotificationRepository, idGen IDGenerator, tel observability.Observability) *Directory {
	return &Directory{
		clients:       clients,
		notifications: notifications,
		idGen:         idGen,
		inst:          application.NewInstruments(tel, clientService),
	}
}

func (d *Directory) Get(ctx context.Context, id string) (_ *domain.Client, err error) {
	ctx, run := d.inst.Begin(ctx, useCaseGetClient, "GetClient", attribute.String("client.id", id))
	defer func() { run.End(err) }()

	c, err := d.clients.Get(ctx, id)
	if err != nil {
		return nil, classify(id, err)
	}
	return c, nil
}

type CreateClientInput struct {
	Name  string
	Email string
}

func (d *Directory) Create(ctx context.Context, in CreateClientInput) (_ *domain.Client, err error) {
	ctx, run := d.inst.Begin(ctx, useCaseCreateClient, "CreateClient")
	defer func() { run.End(err) }()

	c, err := domain.New(d.idGen.NewID(), strings.TrimSpace(in.Name), strings.TrimSpace(in.Email))
	if err != nil {
		return nil, classify("", err)
	}
	if err := d.clients.Insert(ctx, c); err != nil {
		return nil, classify(c.ID, err)
	}
	run.Field(observability.F("client_id", c.ID))
	return c, nil
}

type NotifyInput struct {
	ClientID string
	Message  string
}

// Notify records a message for the client. Delivery is a log line; there is
// no outbound channel.
func (d *Directory) Notify(ctx context.Context, in NotifyInput) (_ *domain.Notification, err error) {
	ctx, run := d.inst.Begin(ctx, useCaseNotify, "Notify", attribute.String("client.id", in.ClientID))
	run.Field(observability.F("client_id", in.ClientID))
	defer func() { run.End(err) }()

	if _, err := d.clients.Get(ctx, in.ClientID); err != nil {
		return nil, classify(in.ClientID, err)
	}
	n, err := domain.NewNotification(d.idGen.NewID(), in.ClientID, strings.TrimSpace(in.Message))
	if err != nil {
		return nil, classify(in.ClientID, err)
	}
	if err := d.notifications.Append(ctx, n); err != nil {
		return nil, apperr.Internal("notification repository", err)
	}

	run.Logger().Info("client_notified",
		observability.F("client_id", n.ClientID),
		observability.F("notification_id", n.ID),
		observability.F("message", n.Message),
	)
	return &n, nil
}

func (d *Directory) Notifications(ctx context.Context, clientID string) (_ []domain.Notification, err error) {
	ctx, run := d.inst.Begin(ctx, useCaseNotifications, "ListNotifications", attribute.String("client.id", clientID))
	defer func() { run.End(err) }()

	if _, err := d.clients.Get(ctx, clientID); err != nil {
		return nil, classify(clientID, err)
	}
	out, err := d.notifications.ListByClient(ctx, clientID)
	if err != nil {
		return nil, apperr.Internal("notification repository", err)
	}
	return out, nil
}

func classify(clientID string, err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return apperr.NotFound("client "+clientID, err)
	case errors.Is(err, domain.ErrInvalidName), errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, domain.ErrEmptyMessage):
		return apperr.Wrap(apperr.KindValidation, err.Error(), err)
	default:
		return apperr.Internal("client repository", err)
	}
}
