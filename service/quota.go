package service

import (
	"context"
	"fmt"
	"time"

	"chatrelay/model"
)

const (
	// MaxGuestMessages is the guest message allowance per reset window.
	MaxGuestMessages = 10

	// GuestResetInterval is the rolling window, keyed off each record's
	// lastReset rather than a calendar boundary.
	GuestResetInterval = 24 * time.Hour
)

// GuestKey builds the quota identity for an unauthenticated caller.
func GuestKey(ip, fingerprint string) string {
	if fingerprint != "" {
		return ip + ":" + fingerprint
	}
	return ip
}

// GuestQuotaService tracks per-guest message counts. Increment is
// read-modify-write: concurrent requests from the same guest can lose a
// count. The quota is an abuse deterrent, not a security boundary, so the
// race is accepted rather than serialized.
type GuestQuotaService struct {
	store QuotaStore
	now   func() time.Time
}

func NewGuestQuotaService(store QuotaStore) *GuestQuotaService {
	return &GuestQuotaService{store: store, now: time.Now}
}

// CanSend reports whether the guest may send another message. It never
// mutates state: an elapsed window reads as a full allowance and is only
// reset by the next Increment.
func (s *GuestQuotaService) CanSend(ctx context.Context, guestID string) (bool, error) {
	rec, err := s.store.Find(ctx, guestID)
	if err != nil {
		return false, fmt.Errorf("finding guest quota: %w", err)
	}
	if rec == nil {
		return true, nil
	}
	if s.now().Sub(rec.LastReset) >= GuestResetInterval {
		return true, nil
	}
	return rec.Count < MaxGuestMessages, nil
}

// Increment records one sent message. A fresh identity gets count=1; an
// elapsed window hard-resets to count=1 with a new lastReset; otherwise the
// count grows and lastReset stays put.
func (s *GuestQuotaService) Increment(ctx context.Context, guestID string) error {
	now := s.now()

	rec, err := s.store.Find(ctx, guestID)
	if err != nil {
		return fmt.Errorf("finding guest quota: %w", err)
	}
	if rec == nil {
		return s.store.Create(ctx, &model.GuestQuota{
			GuestID:   guestID,
			Count:     1,
			LastReset: now,
		})
	}

	if now.Sub(rec.LastReset) >= GuestResetInterval {
		rec.Count = 1
		rec.LastReset = now
	} else {
		rec.Count++
	}
	return s.store.Update(ctx, rec)
}

// Remaining returns how many messages the guest has left in the current
// window.
func (s *GuestQuotaService) Remaining(ctx context.Context, guestID string) (int, error) {
	rec, err := s.store.Find(ctx, guestID)
	if err != nil {
		return 0, fmt.Errorf("finding guest quota: %w", err)
	}
	if rec == nil {
		return MaxGuestMessages, nil
	}
	if s.now().Sub(rec.LastReset) >= GuestResetInterval {
		return MaxGuestMessages, nil
	}
	if rec.Count >= MaxGuestMessages {
		return 0, nil
	}
	return MaxGuestMessages - rec.Count, nil
}

// PurgeExpired deletes records whose window lapsed, keeping the table
// bounded. Run from the daily cron job.
func (s *GuestQuotaService) PurgeExpired(ctx context.Context) (int64, error) {
	return s.store.DeleteExpired(ctx, s.now().Add(-GuestResetInterval))
}
