package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/openhaus/atrium/internal/adjustment"
	"github.com/openhaus/atrium/internal/config"
	listingdomain "github.com/openhaus/atrium/internal/listing/domain"
	"github.com/openhaus/atrium/internal/providers/email"
	"github.com/openhaus/atrium/internal/sellerupdate/domain"
	"github.com/openhaus/atrium/pkg/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// updateInterval is how long a subscription waits between emails. Updates
// go out monthly.
const updateInterval = 30 * 24 * time.Hour

// dispatchLimit caps the listings included in a single update email.
const dispatchLimit = 20

type Params struct {
	fx.In

	Log      *zap.Logger
	GenID    *snowflake.Node
	Cfg      config.Config
	Store    repository.Repository[domain.Subscription]
	Listings listingdomain.Service
	Email    email.Provider
}

type Service struct {
	log      *zap.Logger
	genID    *snowflake.Node
	cfg      config.Config
	store    repository.Repository[domain.Subscription]
	listings listingdomain.Service
	email    email.Provider
}

func New(p Params) domain.Service {
	return &Service{
		log:      p.Log.Named("sellerupdate.service"),
		genID:    p.GenID,
		cfg:      p.Cfg,
		store:    p.Store,
		listings: p.Listings,
		email:    p.Email,
	}
}

func (s *Service) Subscribe(ctx context.Context, req domain.SubscribeRequest) (*domain.Response, error) {
	address, err := mail.ParseAddress(strings.TrimSpace(req.Email))
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	city := strings.TrimSpace(req.City)
	if city == "" {
		return nil, domain.ErrInvalidCity
	}

	existing, err := s.store.FindOne(ctx, &domain.Subscription{Email: address.Address, City: city})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if !existing.Active {
			err = s.store.Update(ctx, snowflake.ID(existing.ID).String(), map[string]any{
				"active":     true,
				"updated_at": time.Now().UTC(),
			})
			if err != nil {
				return nil, err
			}
			existing.Active = true
		}
		resp := toResponse(existing)
		return &resp, nil
	}

	now := time.Now().UTC()
	sub := &domain.Subscription{
		ID:        s.genID.Generate().Int64(),
		Email:     address.Address,
		City:      city,
		Token:     uuid.NewString(),
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.log.Info("seller update subscription created",
		zap.String("subscription_id", snowflake.ID(sub.ID).String()),
		zap.String("city", city),
	)
	resp := toResponse(sub)
	return &resp, nil
}

func (s *Service) Unsubscribe(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.ErrInvalidToken
	}
	sub, err := s.store.FindOne(ctx, &domain.Subscription{Token: token})
	if err != nil {
		return err
	}
	if sub == nil {
		return domain.ErrNotFound
	}
	return s.store.Update(ctx, snowflake.ID(sub.ID).String(), map[string]any{
		"active":     false,
		"updated_at": time.Now().UTC(),
	})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	subID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || subID == 0 {
		return domain.ErrInvalidID
	}
	sub, err := s.store.FindOne(ctx, &domain.Subscription{ID: subID.Int64()})
	if err != nil {
		return err
	}
	if sub == nil {
		return domain.ErrNotFound
	}
	if err := s.store.Delete(ctx, subID.String()); err != nil {
		return err
	}
	s.log.Info("seller update subscription deleted",
		zap.String("subscription_id", subID.String()),
		zap.String("city", sub.City),
	)
	return nil
}

func (s *Service) List(ctx context.Context) ([]domain.Response, error) {
	subs, err := s.store.Find(ctx, &domain.Subscription{})
	if err != nil {
		return nil, err
	}
	resp := make([]domain.Response, 0, len(subs))
	for _, sub := range subs {
		resp = append(resp, toResponse(sub))
	}
	return resp, nil
}

func (s *Service) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	subs, err := s.store.Find(ctx, &domain.Subscription{Active: true})
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, sub := range subs {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		if !due(sub, now) {
			continue
		}

		since := now.Add(-updateInterval)
		if sub.LastSentAt != nil && sub.LastSentAt.After(since) {
			since = *sub.LastSentAt
		}
		closed, err := s.listings.RecentlyClosed(ctx, since, dispatchLimit)
		if err != nil {
			s.log.Warn("seller update listing fetch failed",
				zap.String("subscription_id", snowflake.ID(sub.ID).String()),
				zap.Error(err),
			)
			continue
		}
		matches := filterByCity(closed, sub.City)
		if len(matches) == 0 {
			continue
		}

		if err := s.send(ctx, sub, matches); err != nil {
			s.log.Warn("seller update delivery failed",
				zap.String("subscription_id", snowflake.ID(sub.ID).String()),
				zap.Error(err),
			)
			continue
		}

		err = s.store.Update(ctx, snowflake.ID(sub.ID).String(), map[string]any{
			"last_sent_at": now.UTC(),
			"updated_at":   now.UTC(),
		})
		if err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

func (s *Service) send(ctx context.Context, sub *domain.Subscription, listings []listingdomain.Response) error {
	rows := make([]map[string]any, 0, len(listings))
	for _, l := range listings {
		rows = append(rows, map[string]any{
			"address": l.Address,
			"price":   adjustment.FormatPrice(l.ClosePrice),
			"beds":    fmt.Sprintf("%.0f", l.Bedrooms),
			"baths":   fmt.Sprintf("%.1f", l.Bathrooms),
			"sqft":    fmt.Sprintf("%.0f", l.LivingArea),
		})
	}

	return s.email.SendTemplate(ctx, []string{sub.Email}, "seller_update", map[string]any{
		"subject":         fmt.Sprintf("Recent sales in %s", sub.City),
		"city":            sub.City,
		"listings":        rows,
		"unsubscribe_url": fmt.Sprintf("%s/public/seller-updates/unsubscribe?token=%s", s.cfg.PublicBaseURL, sub.Token),
	})
}

func due(sub *domain.Subscription, now time.Time) bool {
	if sub.LastSentAt == nil {
		return true
	}
	return now.Sub(*sub.LastSentAt) >= updateInterval
}

func filterByCity(listings []listingdomain.Response, city string) []listingdomain.Response {
	matches := make([]listingdomain.Response, 0, len(listings))
	for _, l := range listings {
		if strings.EqualFold(strings.TrimSpace(l.City), city) {
			matches = append(matches, l)
		}
	}
	return matches
}

func toResponse(sub *domain.Subscription) domain.Response {
	return domain.Response{
		ID:         snowflake.ID(sub.ID).String(),
		Email:      sub.Email,
		City:       sub.City,
		Active:     sub.Active,
		LastSentAt: sub.LastSentAt,
		CreatedAt:  sub.CreatedAt,
	}
}
