/**
 * @description
 * This file contains the HTTP handlers for the medley-service's purchase API.
 * Handlers parse incoming requests, call the application service, and map the
 * service's typed errors onto HTTP statuses with stable messages.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - github.com/go-chi/chi/v5: URL parameter extraction.
 * - internal/app, internal/domain, internal/store, pkg/paypalclient: For
 *   service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fourtrack/medley-service/internal/app"
	"github.com/fourtrack/medley-service/internal/domain"
	"github.com/fourtrack/medley-service/internal/store"
	"github.com/fourtrack/medley-service/pkg/paypalclient"
)

// PurchaseHandlers holds the application service that handlers will use.
type PurchaseHandlers struct {
	service *app.Service
}

// NewPurchaseHandlers creates a new instance of PurchaseHandlers.
func NewPurchaseHandlers(service *app.Service) *PurchaseHandlers {
	return &PurchaseHandlers{service: service}
}

// CreatePurchaseOrderHandler handles requests to start a track purchase.
func (h *PurchaseHandlers) CreatePurchaseOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreatePurchaseOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TrackID == "" || req.ArtistID == "" {
		h.writeError(w, http.StatusBadRequest, "Track ID and Artist ID are required")
		return
	}

	buyer := GetBuyer(r.Context())
	origin := r.Header.Get("Origin")

	resp, err := h.service.CreatePurchaseOrder(r.Context(), buyer, req, origin)
	if err != nil {
		h.writePurchaseError(w, r, "create_order", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, resp)
}

// CapturePurchaseHandler handles requests to capture an approved order.
func (h *PurchaseHandlers) CapturePurchaseHandler(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "orderID")
	if orderID == "" {
		h.writeError(w, http.StatusBadRequest, "Order ID is required")
		return
	}

	buyer := GetBuyer(r.Context())

	resp, err := h.service.CapturePurchase(r.Context(), buyer, orderID)
	if err != nil {
		h.writePurchaseError(w, r, "capture", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// FreeDownloadHandler handles authenticated free-download requests.
func (h *PurchaseHandlers) FreeDownloadHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.FreeDownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.TrackID == "" {
		h.writeError(w, http.StatusBadRequest, "Track ID is required")
		return
	}

	buyer := GetBuyer(r.Context())
	if buyer.UserID == "" {
		h.writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	resp, err := h.service.ProcessFreeDownload(r.Context(), buyer, req.TrackID)
	if err != nil {
		h.writePurchaseError(w, r, "free_download", err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// writePurchaseError maps the purchase flow's typed errors onto HTTP statuses.
func (h *PurchaseHandlers) writePurchaseError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var missingPayee *app.MissingPayeeError
	var paymentFailed *app.PaymentFailedError
	var invalidMetadata *app.InvalidMetadataError

	switch {
	case errors.Is(err, store.ErrTrackNotFound), errors.Is(err, store.ErrArtistNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, paypalclient.ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, "Payment order not found. It may have already been processed.")
	case errors.Is(err, paypalclient.ErrOrderAlreadyCaptured):
		h.writeError(w, http.StatusConflict, "This payment has already been processed.")
	case errors.Is(err, app.ErrArtistPayPalNotConfigured):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, app.ErrSplitIntegrity):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, app.ErrTrackNotFree):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, app.ErrRateLimited):
		h.writeError(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, app.ErrNoSuccessfulCapture), errors.Is(err, app.ErrMissingMetadata):
		h.writeError(w, http.StatusBadGateway, err.Error())
	case errors.As(err, &missingPayee):
		h.writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &paymentFailed):
		h.writeError(w, http.StatusPaymentRequired, err.Error())
	case errors.As(err, &invalidMetadata):
		h.writeError(w, http.StatusBadGateway, err.Error())
	default:
		log.Printf("level=error component=api endpoint=%s msg=\"purchase operation failed\" err=%v", endpoint, err)
		h.writeError(w, http.StatusInternalServerError, "Failed to process payment")
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *PurchaseHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *PurchaseHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
