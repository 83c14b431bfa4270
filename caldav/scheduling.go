package caldav

import (
	"context"
	"time"

	"github.com/samber/mo"
)

// Subscriptions and scheduling objects are part of the protocol surface
// but have no backing store here. Reads come back empty, writes are
// accepted and dropped. This is a scope limitation, not an error, so
// none of these operations fail.

// Subscription describes a remote calendar feed a principal follows.
type Subscription struct {
	URI          string
	PrincipalURI string
	Source       string
	DisplayName  string
}

// SchedulingObject is one message in a principal's scheduling inbox.
type SchedulingObject struct {
	URI          string
	Data         string
	LastModified time.Time
	ETag         string
	Size         int
}

// ListSubscriptions returns the principal's subscriptions; always none.
func (b *Backend) ListSubscriptions(ctx context.Context, principalURI string) ([]Subscription, error) {
	return nil, nil
}

// CreateSubscription accepts and drops the subscription.
func (b *Backend) CreateSubscription(ctx context.Context, principalURI, uri string, props map[string]string) error {
	b.logger.Debug("ignoring subscription creation", "principal", principalURI, "uri", uri)
	return nil
}

// UpdateSubscription accepts and drops the mutation.
func (b *Backend) UpdateSubscription(ctx context.Context, subscriptionID string, props map[string]string) error {
	return nil
}

// DeleteSubscription accepts and drops the deletion.
func (b *Backend) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	return nil
}

// SchedulingObject returns one inbox message; always absent.
func (b *Backend) SchedulingObject(ctx context.Context, principalURI, objectURI string) (mo.Option[SchedulingObject], error) {
	return mo.None[SchedulingObject](), nil
}

// ListSchedulingObjects returns the principal's inbox; always empty.
func (b *Backend) ListSchedulingObjects(ctx context.Context, principalURI string) ([]SchedulingObject, error) {
	return nil, nil
}

// CreateSchedulingObject accepts and drops the message.
func (b *Backend) CreateSchedulingObject(ctx context.Context, principalURI, objectURI, data string) error {
	b.logger.Debug("ignoring scheduling object", "principal", principalURI, "uri", objectURI)
	return nil
}

// DeleteSchedulingObject accepts and drops the deletion.
func (b *Backend) DeleteSchedulingObject(ctx context.Context, principalURI, objectURI string) error {
	return nil
}
