/**
 * @description
 * This file defines the `Repository` interface, the contract for all data
 * access the medley-service needs: catalog reads (tracks, artist profiles),
 * purchase order bookkeeping, and the royalty ledger. The interface decouples
 * the purchase flow from PostgreSQL and lets tests substitute fakes.
 *
 * @dependencies
 * - context, time: Standard Go libraries.
 * - github.com/google/uuid: For ledger row identifiers.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fourtrack/medley-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Catalog reads
	FindTrackByID(ctx context.Context, trackID string) (*domain.Track, error)
	FindArtistProfileByID(ctx context.Context, artistID string) (*domain.ArtistProfile, error)

	// Purchase order bookkeeping
	CreatePurchaseOrder(ctx context.Context, order *domain.PurchaseOrder) error
	MarkPurchaseOrderCaptured(ctx context.Context, paypalOrderID string, royaltyID uuid.UUID) error
	ExpireStalePendingOrders(ctx context.Context, olderThan time.Duration) (int64, error)

	// Royalty ledger (RoyaltyRecorder)
	AppendRoyalty(ctx context.Context, record *domain.RoyaltyRecord) (uuid.UUID, error)
}
