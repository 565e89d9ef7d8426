/**
 * @description
 * This file contains the core business logic for the medley-service. The
 * `Service` struct orchestrates track purchases end to end: free grants,
 * PayPal order creation with collaborator revenue splits, capture
 * reconciliation, royalty ledger persistence, and download URL issuance.
 *
 * Key features:
 * - Implements the main use cases: create purchase order, capture purchase,
 *   free download.
 * - Collaborators (payment processor, royalty ledger, URL signer, event
 *   producer) are injected; the core holds no process-wide mutable state.
 * - Settlement is durably recorded before the optional download grant, which
 *   is allowed to fail independently.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - github.com/google/uuid: For purchase order row identifiers.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/paypalclient, pkg/rabbitmq: For external service communication.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/fourtrack/medley-service/internal/domain"
	"github.com/fourtrack/medley-service/internal/store"
	"github.com/fourtrack/medley-service/pkg/paypalclient"
	"github.com/fourtrack/medley-service/pkg/rabbitmq"
)

const purchaseEventsExchange = "medley.events"

// PaymentProcessor abstracts the PayPal client for order creation and capture.
type PaymentProcessor interface {
	CreateOrder(ctx context.Context, order *paypalclient.OrderRequest) (*paypalclient.CreateOrderResponse, error)
	CaptureOrder(ctx context.Context, orderID string) (*paypalclient.CaptureOrderResponse, error)
}

// Service provides the core business logic for track purchases.
type Service struct {
	repo        store.Repository
	processor   PaymentProcessor
	signer      URLSigner
	producer    rabbitmq.Publisher
	limiter     RateLimiter
	downloadTTL time.Duration

	orderRateLimitPerMinute   int
	captureRateLimitPerMinute int
}

// NewService creates a new purchase service instance. signer and producer may
// be nil; the corresponding concerns degrade (public-URL fallback, skipped
// events) without failing purchases.
func NewService(repo store.Repository, processor PaymentProcessor, signer URLSigner, producer rabbitmq.Publisher, downloadTTL time.Duration) *Service {
	if downloadTTL <= 0 {
		downloadTTL = 24 * time.Hour
	}
	return &Service{
		repo:        repo,
		processor:   processor,
		signer:      signer,
		producer:    producer,
		downloadTTL: downloadTTL,
	}
}

// SetRateLimiter wires the optional distributed rate limiter.
func (s *Service) SetRateLimiter(limiter RateLimiter, orderPerMinute, capturePerMinute int) {
	s.limiter = limiter
	s.orderRateLimitPerMinute = orderPerMinute
	s.captureRateLimitPerMinute = capturePerMinute
}

// CreatePurchaseOrder handles the purchase entry point for a track. Free tracks
// bypass the payment processor entirely and are recorded as zero-cost grants;
// priced tracks produce a PayPal order the buyer must approve.
func (s *Service) CreatePurchaseOrder(ctx context.Context, buyer domain.Buyer, req domain.CreatePurchaseOrderRequest, origin string) (*domain.CreatePurchaseOrderResponse, error) {
	if req.TrackID == "" || req.ArtistID == "" {
		return nil, errors.New("track id and artist id are required")
	}
	if err := s.consumeRateLimit(ctx, "purchase_order", buyer, s.orderRateLimitPerMinute); err != nil {
		return nil, err
	}

	// 1. Load the track and artist.
	track, err := s.repo.FindTrackByID(ctx, req.TrackID)
	if err != nil {
		return nil, err
	}
	artist, err := s.repo.FindArtistProfileByID(ctx, req.ArtistID)
	if err != nil {
		return nil, err
	}
	if artist.PayPalEmail == "" {
		return nil, ErrArtistPayPalNotConfigured
	}

	// 2. Zero price is a distinct code path: a free grant, not a split of zero.
	if track.PriceCents == 0 {
		return s.processFreeGrant(ctx, buyer, track, artist)
	}

	// 3. Compute the revenue split.
	collaborators := track.Collaborators
	if len(collaborators) == 0 {
		collaborators = domain.DefaultCollaborators(artist)
	}
	splits, err := ComputeSplits(track.PriceCents, collaborators)
	if err != nil {
		return nil, err
	}

	// 4. Build and transmit the order.
	orderReq, err := BuildOrder(track, artist, splits, track.PriceCents, origin)
	if err != nil {
		return nil, err
	}
	created, err := s.processor.CreateOrder(ctx, orderReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment order: %w", err)
	}

	// 5. Record the local bookkeeping row. A failure here is logged, not
	// surfaced: the processor order already exists and the buyer can proceed.
	orderRow := &domain.PurchaseOrder{
		ID:          uuid.New(),
		PayPalID:    created.ID,
		TrackID:     track.ID,
		ArtistID:    artist.ID,
		AmountCents: track.PriceCents,
		Currency:    orderCurrency,
		Status:      domain.OrderStatusPending,
	}
	if buyer.UserID != "" {
		userID := buyer.UserID
		orderRow.BuyerID = &userID
	}
	if buyer.Email != "" {
		email := buyer.Email
		orderRow.BuyerEmail = &email
	}
	if err := s.repo.CreatePurchaseOrder(ctx, orderRow); err != nil {
		log.Printf("level=warn component=purchase msg=\"failed to record purchase order row\" paypal_order_id=%s err=%v", created.ID, err)
	}

	orderID := created.ID
	approvalURL := created.ApprovalURL()
	log.Printf("level=info component=purchase msg=\"payment order created\" track_id=%s order_id=%s units=%d amount=%s", track.ID, created.ID, len(orderReq.PurchaseUnits), CentsToDecimal(track.PriceCents))

	resp := &domain.CreatePurchaseOrderResponse{
		IsFree:  false,
		OrderID: &orderID,
	}
	if approvalURL != "" {
		resp.ApprovalURL = &approvalURL
	}
	return resp, nil
}

// processFreeGrant records a free download royalty row and mints a download URL
// when the track allows it.
func (s *Service) processFreeGrant(ctx context.Context, buyer domain.Buyer, track *domain.Track, artist *domain.ArtistProfile) (*domain.CreatePurchaseOrderResponse, error) {
	record := &domain.RoyaltyRecord{
		TrackID:       track.ID,
		ArtistID:      artist.ID,
		TrackTitle:    track.Title,
		AmountCents:   0,
		Currency:      orderCurrency,
		Type:          domain.RoyaltyTypeFreeDownload,
		Collaborators: track.Collaborators,
	}
	if len(record.Collaborators) == 0 {
		record.Collaborators = domain.DefaultCollaborators(artist)
	}
	if buyer.Email != "" {
		email := buyer.Email
		record.PayerEmail = &email
	}
	if buyer.UserID != "" {
		userID := buyer.UserID
		record.UserID = &userID
	}

	if _, err := s.repo.AppendRoyalty(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record free download: %w", err)
	}

	s.publishEvent(ctx, "purchase.free_download", rabbitmq.FreeDownloadEvent{
		TrackID:   track.ID,
		ArtistID:  artist.ID,
		UserID:    buyer.UserID,
		Timestamp: time.Now().UTC(),
	})

	downloadURL := s.mintDownloadURL(ctx, track.AllowDownload, track.AudioPath, track.AudioURL)
	return &domain.CreatePurchaseOrderResponse{
		IsFree:      true,
		DownloadURL: downloadURL,
	}, nil
}

// CapturePurchase captures an approved order, reconciles the processor's
// response into a settlement, records the royalty, and mints the download URL.
// The royalty record is never rolled back because of a download-link failure.
func (s *Service) CapturePurchase(ctx context.Context, buyer domain.Buyer, orderID string) (*domain.CapturePurchaseResponse, error) {
	if orderID == "" {
		return nil, errors.New("order id is required")
	}
	if err := s.consumeRateLimit(ctx, "purchase_capture", buyer, s.captureRateLimitPerMinute); err != nil {
		return nil, err
	}

	// 1. Capture. Terminal processor conditions (order not found, already
	// captured) surface verbatim; capture must not be retried blindly.
	captureResp, err := s.processor.CaptureOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	log.Printf("level=info component=purchase msg=\"capture response received\" order_id=%s status=%s", orderID, captureResp.Status)

	// 2. Reconcile the response into a settlement.
	settlement, err := Reconcile(captureResp)
	if err != nil {
		return nil, err
	}
	log.Printf("level=info component=purchase msg=\"capture reconciled\" order_id=%s %s", orderID, describeSettlement(settlement))

	// 3. Resolve the purchased track from the recovered identity.
	track, err := s.repo.FindTrackByID(ctx, settlement.TrackID)
	if err != nil {
		return nil, err
	}
	artist, err := s.repo.FindArtistProfileByID(ctx, settlement.ArtistID)
	if err != nil && !errors.Is(err, store.ErrArtistNotFound) {
		return nil, err
	}

	// 4. Record the settlement durably before anything optional.
	royalty := settlementToRoyalty(settlement, track, artist, buyer)
	royaltyID, err := s.repo.AppendRoyalty(ctx, royalty)
	if err != nil {
		return nil, fmt.Errorf("failed to record settlement: %w", err)
	}
	if err := s.repo.MarkPurchaseOrderCaptured(ctx, orderID, royaltyID); err != nil && !errors.Is(err, store.ErrPurchaseOrderNotFound) {
		log.Printf("level=warn component=purchase msg=\"failed to mark purchase order captured\" order_id=%s err=%v", orderID, err)
	}

	// 5. Best-effort event publication.
	s.publishEvent(ctx, "purchase.completed", rabbitmq.PurchaseCompletedEvent{
		TrackID:     settlement.TrackID,
		ArtistID:    settlement.ArtistID,
		OrderID:     orderID,
		AmountCents: settlement.TotalCapturedCents,
		Currency:    settlement.Currency,
		Status:      settlement.OverallStatus,
		Timestamp:   time.Now().UTC(),
	})

	// 6. Download grant, allowed to fail independently.
	downloadURL := s.mintDownloadURL(ctx, track.AllowDownload, track.AudioPath, track.AudioURL)

	return &domain.CapturePurchaseResponse{
		DownloadURL:   downloadURL,
		StreamURL:     track.AudioURL,
		AllowDownload: track.AllowDownload,
	}, nil
}

// ProcessFreeDownload serves the authenticated free-download endpoint: verifies
// the track really is free, records the grant, and mints a URL.
func (s *Service) ProcessFreeDownload(ctx context.Context, buyer domain.Buyer, trackID string) (*domain.FreeDownloadResponse, error) {
	if trackID == "" {
		return nil, errors.New("track id is required")
	}

	track, err := s.repo.FindTrackByID(ctx, trackID)
	if err != nil {
		return nil, err
	}
	if track.PriceCents > 0 {
		return nil, ErrTrackNotFree
	}

	record := &domain.RoyaltyRecord{
		TrackID:     track.ID,
		ArtistID:    track.ArtistID,
		TrackTitle:  track.Title,
		AmountCents: 0,
		Currency:    orderCurrency,
		Type:        domain.RoyaltyTypeFreeDownload,
	}
	if buyer.Email != "" {
		email := buyer.Email
		record.PayerEmail = &email
	}
	if buyer.UserID != "" {
		userID := buyer.UserID
		record.UserID = &userID
	}
	if _, err := s.repo.AppendRoyalty(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to record free download: %w", err)
	}

	s.publishEvent(ctx, "purchase.free_download", rabbitmq.FreeDownloadEvent{
		TrackID:   track.ID,
		ArtistID:  track.ArtistID,
		UserID:    buyer.UserID,
		Timestamp: time.Now().UTC(),
	})

	return &domain.FreeDownloadResponse{
		DownloadURL: s.mintDownloadURL(ctx, track.AllowDownload, track.AudioPath, track.AudioURL),
	}, nil
}

// publishEvent publishes a purchase event, logging rather than propagating
// failures: the settlement is already durable.
func (s *Service) publishEvent(ctx context.Context, routingKey string, body interface{}) {
	if s.producer == nil {
		return
	}
	if err := s.producer.Publish(ctx, purchaseEventsExchange, routingKey, body); err != nil {
		log.Printf("level=warn component=purchase msg=\"event publish failed\" routing_key=%s err=%v", routingKey, err)
	}
}

// consumeRateLimit applies the per-buyer limit for a purchase scope. Limiter
// outages fail open.
func (s *Service) consumeRateLimit(ctx context.Context, scope string, buyer domain.Buyer, limit int) error {
	if s.limiter == nil || limit <= 0 {
		return nil
	}
	subject := buyer.UserID
	if subject == "" {
		subject = buyer.Email
	}
	if subject == "" {
		return nil
	}
	count, _, err := s.limiter.ConsumeRateLimit(ctx, scope, subject, limit, time.Minute)
	if err != nil {
		log.Printf("level=warn component=purchase msg=\"rate limiter unavailable; failing open\" scope=%s err=%v", scope, err)
		return nil
	}
	if count > limit {
		return ErrRateLimited
	}
	return nil
}
