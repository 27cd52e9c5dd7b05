package domain

import (
	"context"
	"errors"
	"time"
)

// Subscription is a homeowner's request for periodic market updates about
// their area. The token is the unguessable unsubscribe handle embedded in
// every email.
type Subscription struct {
	ID         int64      `json:"id" gorm:"primaryKey"`
	Email      string     `json:"email" gorm:"type:text;not null;uniqueIndex:ux_seller_update_email_city,priority:1"`
	City       string     `json:"city" gorm:"type:text;not null;uniqueIndex:ux_seller_update_email_city,priority:2"`
	Token      string     `json:"-" gorm:"type:text;not null;uniqueIndex:ux_seller_update_token"`
	Active     bool       `json:"active" gorm:"not null;default:true"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Subscription) TableName() string { return "seller_update_subscriptions" }

type Service interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (*Response, error)
	Unsubscribe(ctx context.Context, token string) error
	List(ctx context.Context) ([]Response, error)
	// Delete removes a subscription outright, for admin cleanup of bogus
	// or abusive signups. Unsubscribe is the homeowner path.
	Delete(ctx context.Context, id string) error
	// DispatchDue emails every active subscription whose update window has
	// elapsed, returning the number of emails sent.
	DispatchDue(ctx context.Context, now time.Time) (int, error)
}

type SubscribeRequest struct {
	Email string `json:"email"`
	City  string `json:"city"`
}

type Response struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	City       string     `json:"city"`
	Active     bool       `json:"active"`
	LastSentAt *time.Time `json:"last_sent_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

var (
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidCity  = errors.New("invalid_city")
	ErrInvalidToken = errors.New("invalid_token")
	ErrInvalidID    = errors.New("invalid_subscription_id")
	ErrNotFound     = errors.New("not_found")
)
