/**
 * @description
 * PostgreSQL implementation of the Repository interface using pgx. Collaborator
 * lists and per-collaborator payment breakdowns are stored as JSONB since they
 * are opaque snapshots read back as a whole.
 *
 * @dependencies
 * - context, encoding/json, errors, fmt, time: Standard Go libraries.
 * - github.com/google/uuid: For ledger row identifiers.
 * - github.com/jackc/pgx/v5: PostgreSQL driver and connection pooling.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fourtrack/medley-service/internal/domain"
)

// Sentinel errors returned by the repository. Handlers map these to HTTP
// statuses with errors.Is.
var (
	ErrTrackNotFound         = errors.New("track not found")
	ErrArtistNotFound        = errors.New("artist not found")
	ErrPurchaseOrderNotFound = errors.New("purchase order not found")
)

// PostgresRepository is the PostgreSQL-backed implementation of Repository.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new repository backed by the given pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// FindTrackByID loads one medley track, including its collaborator list.
func (r *PostgresRepository) FindTrackByID(ctx context.Context, trackID string) (*domain.Track, error) {
	query := `
		SELECT id, title, artist_id, COALESCE(artist_name, ''), price_cents,
		       allow_download, COALESCE(audio_path, ''), COALESCE(audio_url, ''),
		       COALESCE(collaborators, '[]'::jsonb)
		FROM medley_tracks
		WHERE id = $1`

	var track domain.Track
	var collaboratorsJSON []byte
	err := r.db.QueryRow(ctx, query, trackID).Scan(
		&track.ID,
		&track.Title,
		&track.ArtistID,
		&track.ArtistName,
		&track.PriceCents,
		&track.AllowDownload,
		&track.AudioPath,
		&track.AudioURL,
		&collaboratorsJSON,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrTrackNotFound
		}
		return nil, fmt.Errorf("failed to query track: %w", err)
	}

	if err := json.Unmarshal(collaboratorsJSON, &track.Collaborators); err != nil {
		return nil, fmt.Errorf("failed to decode track collaborators: %w", err)
	}
	return &track, nil
}

// FindArtistProfileByID loads the artist fields the purchase flow needs.
func (r *PostgresRepository) FindArtistProfileByID(ctx context.Context, artistID string) (*domain.ArtistProfile, error) {
	query := `
		SELECT id, name, COALESCE(custom_slug, ''), COALESCE(paypal_email, '')
		FROM artist_profiles
		WHERE id = $1`

	var artist domain.ArtistProfile
	err := r.db.QueryRow(ctx, query, artistID).Scan(
		&artist.ID,
		&artist.Name,
		&artist.CustomSlug,
		&artist.PayPalEmail,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrArtistNotFound
		}
		return nil, fmt.Errorf("failed to query artist profile: %w", err)
	}
	return &artist, nil
}

// CreatePurchaseOrder inserts the local bookkeeping row for an outbound order.
func (r *PostgresRepository) CreatePurchaseOrder(ctx context.Context, order *domain.PurchaseOrder) error {
	query := `
		INSERT INTO purchase_orders (id, paypal_order_id, track_id, artist_id, buyer_id, buyer_email,
		                             amount_cents, currency, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW(), NOW())`

	_, err := r.db.Exec(ctx, query,
		order.ID,
		order.PayPalID,
		order.TrackID,
		order.ArtistID,
		order.BuyerID,
		order.BuyerEmail,
		order.AmountCents,
		order.Currency,
		order.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to insert purchase order: %w", err)
	}
	return nil
}

// MarkPurchaseOrderCaptured transitions a pending order to captured and links
// the royalty ledger row. Missing rows are tolerated: orders created before the
// bookkeeping table existed can still be captured.
func (r *PostgresRepository) MarkPurchaseOrderCaptured(ctx context.Context, paypalOrderID string, royaltyID uuid.UUID) error {
	query := `
		UPDATE purchase_orders
		SET status = $1, royalty_id = $2, updated_at = NOW()
		WHERE paypal_order_id = $3`

	tag, err := r.db.Exec(ctx, query, domain.OrderStatusCaptured, royaltyID, paypalOrderID)
	if err != nil {
		return fmt.Errorf("failed to mark purchase order captured: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPurchaseOrderNotFound
	}
	return nil
}

// ExpireStalePendingOrders marks pending orders older than the cutoff expired
// and reports how many rows changed.
func (r *PostgresRepository) ExpireStalePendingOrders(ctx context.Context, olderThan time.Duration) (int64, error) {
	query := `
		UPDATE purchase_orders
		SET status = $1, updated_at = NOW()
		WHERE status = $2 AND created_at < $3`

	cutoff := time.Now().UTC().Add(-olderThan)
	tag, err := r.db.Exec(ctx, query, domain.OrderStatusExpired, domain.OrderStatusPending, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale purchase orders: %w", err)
	}
	return tag.RowsAffected(), nil
}

// AppendRoyalty inserts one royalty ledger row and returns its id. The ledger
// is append-only; rows are never updated after insertion.
func (r *PostgresRepository) AppendRoyalty(ctx context.Context, record *domain.RoyaltyRecord) (uuid.UUID, error) {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	collaboratorsJSON, err := json.Marshal(record.Collaborators)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode collaborators: %w", err)
	}
	paymentsJSON, err := json.Marshal(record.CollaboratorPayments)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode collaborator payments: %w", err)
	}

	query := `
		INSERT INTO medley_royalties (id, track_id, artist_id, track_title, order_id, amount_cents,
		                              currency, status, type, payer_email, payer_id, user_id,
		                              paypal_transaction_id, collaborator_payments, collaborators,
		                              notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, NOW())`

	_, err = r.db.Exec(ctx, query,
		record.ID,
		record.TrackID,
		record.ArtistID,
		record.TrackTitle,
		record.OrderID,
		record.AmountCents,
		record.Currency,
		record.Status,
		record.Type,
		record.PayerEmail,
		record.PayerID,
		record.UserID,
		record.PayPalTransactionID,
		paymentsJSON,
		collaboratorsJSON,
		record.Notes,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert royalty record: %w", err)
	}
	return record.ID, nil
}
