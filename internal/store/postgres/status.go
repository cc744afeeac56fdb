package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pixbridge/internal/domain/payment"

	"github.com/jackc/pgx/v5"
)

// StatusStore keeps charge status in the pix_payment_status table. Rows past
// expires_at read as NOT_FOUND and are purged when new charges are recorded.
type StatusStore struct {
	db  DB
	ttl time.Duration
}

func NewStatusStore(db DB, ttl time.Duration) *StatusStore {
	return &StatusStore{db: db, ttl: ttl}
}

func (s *StatusStore) MarkPending(ctx context.Context, txid string) error {
	if _, err := s.db.Exec(ctx,
		`DELETE FROM pix_payment_status WHERE expires_at IS NOT NULL AND expires_at < now()`); err != nil {
		return fmt.Errorf("purge expired status: %w", err)
	}
	return s.upsert(ctx, txid, payment.StatusPending)
}

func (s *StatusStore) MarkPaid(ctx context.Context, txid string) error {
	return s.upsert(ctx, txid, payment.StatusPaid)
}

func (s *StatusStore) Consume(ctx context.Context, txid string) (payment.Status, error) {
	// Both branches read the pre-DELETE snapshot, so at most one returns a row.
	const q = `
WITH consumed AS (
	DELETE FROM pix_payment_status
	 WHERE txid = $1 AND status = 'PAID'
	   AND (expires_at IS NULL OR expires_at > now())
	RETURNING status
)
SELECT status FROM consumed
UNION ALL
SELECT status FROM pix_payment_status
 WHERE txid = $1 AND status = 'PENDING'
   AND (expires_at IS NULL OR expires_at > now())
LIMIT 1`

	var st string
	err := s.db.QueryRow(ctx, q, txid).Scan(&st)
	if errors.Is(err, pgx.ErrNoRows) {
		return payment.StatusNotFound, nil
	}
	if err != nil {
		return "", fmt.Errorf("consume status %s: %w", txid, err)
	}
	return payment.Status(st), nil
}

func (s *StatusStore) upsert(ctx context.Context, txid string, st payment.Status) error {
	var expiresAt *time.Time
	if s.ttl > 0 {
		t := time.Now().Add(s.ttl)
		expiresAt = &t
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO pix_payment_status (txid, status, expires_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (txid) DO UPDATE
		   SET status = EXCLUDED.status,
		       expires_at = EXCLUDED.expires_at,
		       updated_at = now()`,
		txid, string(st), expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert status %s=%s: %w", txid, st, err)
	}
	return nil
}
