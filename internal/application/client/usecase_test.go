package client_test

import (
	"context"
	"strconv"
	"sync"
	"testing"

	appclient "github.com/Zhima-Mochi/minishop-fulfillment/internal/application/client"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/apperr"
	domain "github.com/Zhima-Mochi/minishop-fulfillment/internal/domain/client"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	msg    string
	fields map[string]any
}

// recorder captures log lines; child loggers share the parent's sink.
type recorder struct {
	mu      *sync.Mutex
	entries *[]entry
	base    []observability.Field
}

func newRecorder() *recorder {
	return &recorder{mu: &sync.Mutex{}, entries: &[]entry{}}
}

func (r *recorder) With(fields ...observability.Field) observability.Logger {
	return &recorder{mu: r.mu, entries: r.entries, base: append(append([]observability.Field(nil), r.base...), fields...)}
}

func (r *recorder) log(msg string, fields ...observability.Field) {
	m := make(map[string]any)
	for _, f := range append(append([]observability.Field(nil), r.base...), fields...) {
		m[f.Key] = f.Value
	}
	r.mu.Lock()
	*r.entries = append(*r.entries, entry{msg: msg, fields: m})
	r.mu.Unlock()
}

func (r *recorder) Debug(msg string, fields ...observability.Field) { r.log(msg, fields...) }
func (r *recorder) Info(msg string, fields ...observability.Field)  { r.log(msg, fields...) }
func (r *recorder) Warn(msg string, fields ...observability.Field)  { r.log(msg, fields...) }
func (r *recorder) Error(msg string, fields ...observability.Field) { r.log(msg, fields...) }

func (r *recorder) find(msg string) (entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range *r.entries {
		if e.msg == msg {
			return e, true
		}
	}
	return entry{}, false
}

type telemetry struct{ log *recorder }

func (t telemetry) Tracer() observability.Tracer   { return observability.NopTracer() }
func (t telemetry) Logger() observability.Logger   { return t.log }
func (t telemetry) Metrics() observability.Metrics { return observability.NopMetrics() }

type seq struct{ n int }

func (s *seq) NewID() string {
	s.n++
	return "id-" + strconv.Itoa(s.n)
}

func newDirectory(t *testing.T, log *recorder) *appclient.Directory {
	t.Helper()
	maria, err := domain.New("cliente-1", "Maria", "maria@example.com")
	require.NoError(t, err)

	var tel observability.Observability = observability.Nop()
	if log != nil {
		tel = telemetry{log: log}
	}
	return appclient.NewDirectory(memory.NewClientRepository(maria), memory.NewNotificationRepository(), &seq{}, tel)
}

func TestGetClient(t *testing.T) {
	d := newDirectory(t, nil)

	c, err := d.Get(context.Background(), "cliente-1")
	require.NoError(t, err)
	assert.Equal(t, "Maria", c.Name)

	_, err = d.Get(context.Background(), "ghost")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCreateClient(t *testing.T) {
	d := newDirectory(t, nil)
	ctx := context.Background()

	c, err := d.Create(ctx, appclient.CreateClientInput{Name: " Joao ", Email: "joao@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "id-1", c.ID)
	assert.Equal(t, "Joao", c.Name)

	got, err := d.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "joao@example.com", got.Email)

	_, err = d.Create(ctx, appclient.CreateClientInput{Name: "", Email: "x@example.com"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = d.Create(ctx, appclient.CreateClientInput{Name: "X", Email: "not-an-email"})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestNotifyRecordsAndLogs(t *testing.T) {
	log := newRecorder()
	d := newDirectory(t, log)
	ctx := context.Background()

	n, err := d.Notify(ctx, appclient.NotifyInput{ClientID: "cliente-1", Message: "Payment confirmed for order o-1"})
	require.NoError(t, err)
	assert.Equal(t, "cliente-1", n.ClientID)

	e, ok := log.find("client_notified")
	require.True(t, ok)
	assert.Equal(t, "cliente-1", e.fields["client_id"])
	assert.Equal(t, "Payment confirmed for order o-1", e.fields["message"])

	list, err := d.Notifications(ctx, "cliente-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, n.ID, list[0].ID)
}

func TestNotifyRejects(t *testing.T) {
	d := newDirectory(t, nil)
	ctx := context.Background()

	_, err := d.Notify(ctx, appclient.NotifyInput{ClientID: "ghost", Message: "hi"})
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = d.Notify(ctx, appclient.NotifyInput{ClientID: "cliente-1", Message: "   "})
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	_, err = d.Notifications(ctx, "ghost")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
