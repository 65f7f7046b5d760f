package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"shuttle-track/internal/domain/booking"
	"shuttle-track/internal/ports"

	goredis "github.com/redis/go-redis/v9"
)

// Key layout:
//
//	tracking:session:<tracking_id>  -> TrackingSession JSON
//	tracking:booking:<booking_id>   -> tracking_id (index for lookups by booking)
//	tracking:sms_sent:<tracking_id> -> "1" (SETNX guard for the one-time SMS)
//
// All three carry the same TTL so a stale trip cannot leave orphans behind.
const (
	sessionKeyPrefix = "tracking:session:"
	bookingKeyPrefix = "tracking:booking:"
	smsKeyPrefix     = "tracking:sms_sent:"
)

// SessionStore keeps live tracking sessions in Redis.
type SessionStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewSessionStore constructs a SessionStore with the given session TTL.
func NewSessionStore(client *goredis.Client, ttl time.Duration) ports.SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Put writes the session and its booking index, refreshing the TTL.
func (store *SessionStore) Put(ctx context.Context, s booking.TrackingSession) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	pipe := store.client.TxPipeline()
	pipe.Set(ctx, sessionKeyPrefix+s.TrackingID, body, store.ttl)
	pipe.Set(ctx, bookingKeyPrefix+s.BookingID, s.TrackingID, store.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Get fetches a session by tracking id.
func (store *SessionStore) Get(ctx context.Context, trackingID string) (*booking.TrackingSession, error) {
	body, err := store.client.Get(ctx, sessionKeyPrefix+trackingID).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var s booking.TrackingSession
	if err := json.Unmarshal(body, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

// GetByBooking resolves the booking index, then fetches the session.
func (store *SessionStore) GetByBooking(ctx context.Context, bookingID string) (*booking.TrackingSession, error) {
	trackingID, err := store.client.Get(ctx, bookingKeyPrefix+bookingID).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, ports.ErrNotFound
		}
		return nil, fmt.Errorf("get booking index: %w", err)
	}
	return store.Get(ctx, trackingID)
}

// MarkSMSSent flips the sms_sent guard and reports whether this call was the
// one that flipped it. The guard is a SETNX key, so concurrent updates from
// two location uploads resolve to exactly one winner.
func (store *SessionStore) MarkSMSSent(ctx context.Context, trackingID string) (bool, error) {
	first, err := store.client.SetNX(ctx, smsKeyPrefix+trackingID, "1", store.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("mark sms sent: %w", err)
	}
	if !first {
		return false, nil
	}

	// best-effort mirror onto the session JSON so snapshots show the flag
	if s, err := store.Get(ctx, trackingID); err == nil && !s.SMSSent {
		s.SMSSent = true
		_ = store.Put(ctx, *s)
	}
	return true, nil
}

// Delete removes the session, its booking index, and the SMS guard.
func (store *SessionStore) Delete(ctx context.Context, trackingID, bookingID string) error {
	pipe := store.client.TxPipeline()
	pipe.Del(ctx, sessionKeyPrefix+trackingID)
	pipe.Del(ctx, bookingKeyPrefix+bookingID)
	pipe.Del(ctx, smsKeyPrefix+trackingID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
