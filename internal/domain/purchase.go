/**
 * @description
 * This file defines the purchase-side domain models: the local purchase order
 * record, revenue split amounts, the settlement produced by capture
 * reconciliation, and the royalty ledger record persisted once a purchase (or
 * free download) completes.
 *
 * @notes
 * - SettlementRecord is created once per successful capture call and is
 *   immutable thereafter; the royalty ledger owns it after persistence.
 * - Amounts are int64 cents throughout.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Purchase order statuses for the local bookkeeping row.
const (
	OrderStatusPending  = "pending"
	OrderStatusCaptured = "captured"
	OrderStatusExpired  = "expired"
)

// Settlement overall statuses.
const (
	SettlementCompleted          = "COMPLETED"
	SettlementPartiallyCompleted = "PARTIALLY_COMPLETED"
)

// Royalty record types.
const (
	RoyaltyTypePurchase     = "purchase"
	RoyaltyTypeFreeDownload = "free_download"
)

// SplitAmount is one collaborator's computed share of a purchase price.
type SplitAmount struct {
	Collaborator Collaborator
	AmountCents  int64
}

// PurchaseOrder is the local record created when an order is sent to PayPal.
// It gives capture a local audit trail and lets the sweeper expire stale orders.
type PurchaseOrder struct {
	ID          uuid.UUID `json:"id"`
	PayPalID    string    `json:"paypal_order_id"`
	TrackID     string    `json:"track_id"`
	ArtistID    string    `json:"artist_id"`
	BuyerID     *string   `json:"buyer_id,omitempty"`
	BuyerEmail  *string   `json:"buyer_email,omitempty"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CollaboratorPayment is one collaborator's reconciled capture outcome within a
// multi-payee settlement.
type CollaboratorPayment struct {
	Name          string  `json:"name"`
	Percentage    float64 `json:"percentage"`
	AmountCents   int64   `json:"amount_cents"`
	TransactionID string  `json:"transaction_id"`
	Status        string  `json:"status"`
	IsPrimary     bool    `json:"is_primary"`
}

// SettlementRecord is the normalized outcome of reconciling one capture
// response. Exactly one of SinglePayPalTransactionID (one successful capture)
// or PerCollaboratorPayments (more than one) is populated.
type SettlementRecord struct {
	TrackID                   string                `json:"track_id"`
	ArtistID                  string                `json:"artist_id"`
	OrderID                   string                `json:"order_id"`
	TotalCapturedCents        int64                 `json:"total_captured_cents"`
	Currency                  string                `json:"currency"`
	OverallStatus             string                `json:"overall_status"` // COMPLETED | PARTIALLY_COMPLETED
	PayerEmail                *string               `json:"payer_email,omitempty"`
	PayerID                   *string               `json:"payer_id,omitempty"`
	SinglePayPalTransactionID *string               `json:"paypal_transaction_id,omitempty"`
	PerCollaboratorPayments   []CollaboratorPayment `json:"collaborator_payments,omitempty"`
	Notes                     *string               `json:"notes,omitempty"` // populated when partial
}

// RoyaltyRecord is one row in the royalty ledger. It snapshots the track's
// collaborator list at settlement time.
type RoyaltyRecord struct {
	ID                   uuid.UUID             `json:"id"`
	TrackID              string                `json:"track_id"`
	ArtistID             string                `json:"artist_id"`
	TrackTitle           string                `json:"track_title"`
	OrderID              *string               `json:"order_id,omitempty"`
	AmountCents          int64                 `json:"amount_cents"`
	Currency             string                `json:"currency"`
	Status               string                `json:"status,omitempty"`
	Type                 string                `json:"type"` // purchase | free_download
	PayerEmail           *string               `json:"payer_email,omitempty"`
	PayerID              *string               `json:"payer_id,omitempty"`
	UserID               *string               `json:"user_id,omitempty"`
	PayPalTransactionID  *string               `json:"paypal_transaction_id,omitempty"`
	CollaboratorPayments []CollaboratorPayment `json:"collaborator_payments,omitempty"`
	Collaborators        []Collaborator        `json:"collaborators,omitempty"`
	Notes                *string               `json:"notes,omitempty"`
	CreatedAt            time.Time             `json:"created_at"`
}

// Buyer identifies the authenticated (or anonymous) caller of a purchase
// operation, extracted from the verified JWT when one is present.
type Buyer struct {
	UserID string
	Email  string
}

// CreatePurchaseOrderRequest is the DTO for the create-order API endpoint.
type CreatePurchaseOrderRequest struct {
	TrackID  string `json:"track_id"`
	ArtistID string `json:"artist_id"`
}

// CreatePurchaseOrderResponse is returned after an order has been created (or,
// for free tracks, after the zero-cost grant has been recorded).
type CreatePurchaseOrderResponse struct {
	IsFree      bool    `json:"is_free"`
	OrderID     *string `json:"order_id,omitempty"`
	ApprovalURL *string `json:"approval_url,omitempty"`
	DownloadURL *string `json:"download_url,omitempty"`
}

// CapturePurchaseResponse is returned after a capture has been reconciled and
// the settlement recorded.
type CapturePurchaseResponse struct {
	DownloadURL   *string `json:"download_url,omitempty"`
	StreamURL     string  `json:"stream_url,omitempty"`
	AllowDownload bool    `json:"allow_download"`
}

// FreeDownloadRequest is the DTO for the authenticated free-download endpoint.
type FreeDownloadRequest struct {
	TrackID string `json:"track_id"`
}

// FreeDownloadResponse carries the minted download URL, when one could be issued.
type FreeDownloadResponse struct {
	DownloadURL *string `json:"download_url,omitempty"`
}
