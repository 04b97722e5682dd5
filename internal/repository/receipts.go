package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/fitstore/internal/domain"
)

// SaveReceipt stores a receipt once per checkout request; repeated saves are ignored.
func (r *Repository) SaveReceipt(ctx context.Context, issued domain.IssuedReceipt) error {
	payload, err := json.Marshal(issued)
	if err != nil {
		return fmt.Errorf("failed to marshal receipt: %w", err)
	}

	var userID sql.NullInt64
	if issued.Receipt.User != nil {
		userID = sql.NullInt64{Int64: issued.Receipt.User.ID, Valid: true}
	}

	query := `
		INSERT INTO receipts (request_id, transaction_id, user_id, total, balance, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (request_id) DO NOTHING
	`
	_, err = r.db.ExecContext(ctx, query,
		issued.RequestID,
		issued.Receipt.TransactionID,
		userID,
		issued.Receipt.Total,
		issued.Receipt.Balance,
		string(payload),
		r.now().UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}
	return nil
}

// GetReceipt looks a receipt up by transaction id or by request id.
func (r *Repository) GetReceipt(ctx context.Context, id string) (*domain.IssuedReceipt, error) {
	query := `
		SELECT payload FROM receipts
		WHERE transaction_id = ? OR request_id = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1
	`
	var payload string
	err := r.db.QueryRowContext(ctx, query, id, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query receipt: %w", err)
	}
	return decodeReceipt(payload)
}

// ListReceipts returns the newest receipts first.
func (r *Repository) ListReceipts(ctx context.Context, limit int) ([]domain.IssuedReceipt, error) {
	query := `SELECT payload FROM receipts ORDER BY created_at DESC, rowid DESC LIMIT ?`
	return r.queryReceipts(ctx, query, limit)
}

// GetUnpublishedReceipts returns receipts not yet handed to the event publisher, oldest first.
func (r *Repository) GetUnpublishedReceipts(ctx context.Context, limit int) ([]domain.IssuedReceipt, error) {
	query := `SELECT payload FROM receipts WHERE published_at IS NULL ORDER BY created_at ASC, rowid ASC LIMIT ?`
	return r.queryReceipts(ctx, query, limit)
}

func (r *Repository) MarkReceiptPublished(ctx context.Context, requestID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE receipts SET published_at = ? WHERE request_id = ? AND published_at IS NULL`,
		r.now().UTC().Format(time.RFC3339Nano), requestID)
	if err != nil {
		return fmt.Errorf("failed to mark receipt published: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return ErrReceiptNotFound
	}
	return nil
}

func (r *Repository) queryReceipts(ctx context.Context, query string, args ...any) ([]domain.IssuedReceipt, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query receipts: %w", err)
	}
	defer rows.Close()

	receipts := []domain.IssuedReceipt{}
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		issued, err := decodeReceipt(payload)
		if err != nil {
			return nil, err
		}
		receipts = append(receipts, *issued)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return receipts, nil
}

func decodeReceipt(payload string) (*domain.IssuedReceipt, error) {
	var issued domain.IssuedReceipt
	if err := json.Unmarshal([]byte(payload), &issued); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt: %w", err)
	}
	return &issued, nil
}
