package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/osse101/RentalsLedger_Go/internal/domain"
	"github.com/osse101/RentalsLedger_Go/internal/repository"
)

// PaymentRepository implements repository.Payment for PostgreSQL
type PaymentRepository struct {
	db *pgxpool.Pool
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// BeginTx starts a ledger transaction with payment access
func (r *PaymentRepository) BeginTx(ctx context.Context) (repository.PaymentTx, error) {
	return beginLedgerTx(ctx, r.db)
}

// GetPayment retrieves one payment by id
func (r *PaymentRepository) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	return getPayment(ctx, r.db, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, paymentID)
}

// ListUserPayments returns the user's most recent payments
func (r *PaymentRepository) ListUserPayments(ctx context.Context, userID string, limit int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgQueryPayments, err)
	}
	payments, err := collect(rows, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ErrMsgQueryPayments, err)
	}
	return payments, nil
}

// ExpirePending marks PENDING payments created before cutoff as EXPIRED
func (r *PaymentRepository) ExpirePending(ctx context.Context, cutoff, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments
		SET status = 'EXPIRED', failure_reason = $3, updated_at = $2, completed_at = $2
		WHERE status = 'PENDING' AND created_at < $1
	`, cutoff, now, domain.FailureReasonExpired)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", ErrMsgExpirePayments, err)
	}
	return tag.RowsAffected(), nil
}

func getPayment(ctx context.Context, q querier, query string, args ...any) (*domain.Payment, error) {
	p, err := scanPayment(q.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, notFoundOr(err, domain.ErrMsgPaymentNotFound, ErrMsgQueryPayments)
	}
	return p, nil
}

func getOptionalPayment(ctx context.Context, q querier, query string, args ...any) (*domain.Payment, error) {
	p, err := scanPayment(q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", ErrMsgQueryPayments, err)
	}
	return p, nil
}
