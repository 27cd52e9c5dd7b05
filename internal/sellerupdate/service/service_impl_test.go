package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/openhaus/atrium/internal/config"
	listingdomain "github.com/openhaus/atrium/internal/listing/domain"
	listingrepository "github.com/openhaus/atrium/internal/listing/repository"
	listingservice "github.com/openhaus/atrium/internal/listing/service"
	"github.com/openhaus/atrium/internal/sellerupdate/domain"
	dbpkg "github.com/openhaus/atrium/pkg/db"
	"github.com/openhaus/atrium/pkg/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type sentMail struct {
	to       []string
	template string
	data     map[string]any
}

type captureProvider struct {
	sent []sentMail
	fail bool
}

func (p *captureProvider) Send(ctx context.Context, to []string, subject string, htmlBody string) error {
	return nil
}

func (p *captureProvider) SendTemplate(ctx context.Context, to []string, templateName string, data map[string]any) error {
	if p.fail {
		return assert.AnError
	}
	p.sent = append(p.sent, sentMail{to: to, template: templateName, data: data})
	return nil
}

type updateEnv struct {
	svc   domain.Service
	mail  *captureProvider
	db    *gorm.DB
	genID *snowflake.Node
}

func newUpdateEnv(t *testing.T) *updateEnv {
	t.Helper()

	db, err := dbpkg.NewTest()
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&listingdomain.Listing{}, &domain.Subscription{}))

	node, err := snowflake.NewNode(2)
	require.NoError(t, err)

	listings := listingservice.New(listingservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  listingrepository.Provide(),
	})

	mail := &captureProvider{}
	svc := New(Params{
		Log:      zap.NewNop(),
		GenID:    node,
		Cfg:      config.Config{PublicBaseURL: "http://localhost:8080"},
		Store:    repository.ProvideStore[domain.Subscription](db),
		Listings: listings,
		Email:    mail,
	})

	return &updateEnv{svc: svc, mail: mail, db: db, genID: node}
}

func (e *updateEnv) seedSold(t *testing.T, city string, closedAt time.Time) {
	t.Helper()
	l := listingdomain.Listing{
		ID:         e.genID.Generate().Int64(),
		MLSNumber:  e.genID.Generate().String(),
		Address:    "123 Elm St",
		City:       city,
		Status:     listingdomain.StatusSold,
		ClosePrice: 400000,
		LivingArea: 1500,
		Bedrooms:   3,
		Bathrooms:  2,
		CloseDate:  &closedAt,
	}
	require.NoError(t, e.db.Create(&l).Error)
}

func TestSubscribeValidatesAndDedupes(t *testing.T) {
	env := newUpdateEnv(t)
	ctx := context.Background()

	_, err := env.svc.Subscribe(ctx, domain.SubscribeRequest{Email: "not-an-email", City: "Austin"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = env.svc.Subscribe(ctx, domain.SubscribeRequest{Email: "owner@example.com", City: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidCity)

	first, err := env.svc.Subscribe(ctx, domain.SubscribeRequest{Email: "owner@example.com", City: "Austin"})
	require.NoError(t, err)
	assert.True(t, first.Active)

	// Subscribing again is idempotent.
	second, err := env.svc.Subscribe(ctx, domain.SubscribeRequest{Email: "owner@example.com", City: "Austin"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	subs, err := env.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestUnsubscribeAndResubscribe(t *testing.T) {
	env := newUpdateEnv(t)
	ctx := context.Background()

	created, err := env.svc.Subscribe(ctx, domain.SubscribeRequest{Email: "owner@example.com", City: "Austin"})
	require.NoError(t, err)

	var stored domain.Subscription
	require.NoError(t, env.db.First(&stored).Error)
	require.NotEmpty(t, stored.Token)

	assert.ErrorIs(t, env.svc.Unsubscribe(ctx, "bogus-token"), domain.ErrNotFound)
	require.NoError(t, env.svc.Unsubscribe(ctx, stored.Token))

	subs, err := env.svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.False(t, subs[0].Active)

	// Re-subscribing reactivates the same row.
	revived, err := env.svc.Subscribe(ctx, domain.SubscribeRequest{Email: "owner@example.com", City: "Austin"})
	require.NoError(t, err)
	assert.Equal(t, created.ID, revived.ID)
	assert.True(t, revived.Active)
}

func TestDispatchDueSendsAndThrottles(t *testing.T) {
	env := newUpdateEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env.seedSold(t, "Austin", now.Add(-48*time.Hour))

	_, err := env.svc.Subscribe(ctx, domain.SubscribeRequest{Email: "owner@example.com", City: "Austin"})
	require.NoError(t, err)
	_, err = env.svc.Subscribe(ctx, domain.SubscribeRequest{Email: "other@example.com", City: "Dallas"})
	require.NoError(t, err)

	sent, err := env.svc.DispatchDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	require.Len(t, env.mail.sent, 1)

	msg := env.mail.sent[0]
	assert.Equal(t, []string{"owner@example.com"}, msg.to)
	assert.Equal(t, "seller_update", msg.template)
	assert.Equal(t, "Recent sales in Austin", msg.data["subject"])
	assert.Contains(t, msg.data["unsubscribe_url"], "http://localhost:8080/public/seller-updates/unsubscribe?token=")

	rows, ok := msg.data["listings"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, rows, 1)
	assert.Equal(t, "$400,000", rows[0]["price"])

	// Within the monthly window nothing more goes out.
	sent, err = env.svc.DispatchDue(ctx, now.Add(14*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, sent)

	// After the month elapses, only new closings trigger an email.
	sent, err = env.svc.DispatchDue(ctx, now.Add(31*24*time.Hour))
	require.NoError(t, err)
	assert.Zero(t, sent)

	env.seedSold(t, "Austin", now.Add(32*24*time.Hour))
	sent, err = env.svc.DispatchDue(ctx, now.Add(33*24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestDispatchDeliveryFailureDoesNotMarkSent(t *testing.T) {
	env := newUpdateEnv(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	env.seedSold(t, "Austin", now.Add(-24*time.Hour))
	_, err := env.svc.Subscribe(ctx, domain.SubscribeRequest{Email: "owner@example.com", City: "Austin"})
	require.NoError(t, err)

	env.mail.fail = true
	sent, err := env.svc.DispatchDue(ctx, now)
	require.NoError(t, err)
	assert.Zero(t, sent)

	// The failed subscription stays due and succeeds on retry.
	env.mail.fail = false
	sent, err = env.svc.DispatchDue(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
}

func TestDeleteSubscription(t *testing.T) {
	env := newUpdateEnv(t)
	ctx := context.Background()

	created, err := env.svc.Subscribe(ctx, domain.SubscribeRequest{Email: "owner@example.com", City: "Austin"})
	require.NoError(t, err)

	require.NoError(t, env.svc.Delete(ctx, created.ID))

	subs, err := env.svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, subs)

	// A deleted subscription is gone, not just inactive.
	assert.ErrorIs(t, env.svc.Delete(ctx, created.ID), domain.ErrNotFound)
	assert.ErrorIs(t, env.svc.Delete(ctx, "not-an-id"), domain.ErrInvalidID)
}
