/**
 * @description
 * Capture-response reconciliation. PayPal's capture response shape varies
 * between single- and multi-payee orders and between full and partial success;
 * this file recovers the purchase identity and every collaborator payment
 * outcome from that response and normalizes them into a SettlementRecord.
 *
 * The reconciliation is a pure, read-only transform over the response: calling
 * it twice on the same response yields the same record.
 */

package app

import (
	"fmt"
	"log"

	"github.com/fourtrack/medley-service/internal/domain"
	"github.com/fourtrack/medley-service/pkg/paypalclient"
)

const captureCompleted = "COMPLETED"

const partialSettlementNote = "Some collaborator payments may have failed. Check PayPal for details."

// Reconcile classifies a capture response, recovers the embedded metadata, and
// aggregates every successful capture into a settlement record.
func Reconcile(resp *paypalclient.CaptureOrderResponse) (*domain.SettlementRecord, error) {
	// First decision point: overall status. Anything other than completed or
	// partially completed is a failed payment.
	if resp.Status != domain.SettlementCompleted && resp.Status != domain.SettlementPartiallyCompleted {
		return nil, &PaymentFailedError{Status: resp.Status}
	}

	primaryUnit, primaryCapture, err := findPrimaryCapture(resp)
	if err != nil {
		return nil, err
	}

	trackID, artistID, err := extractIdentity(primaryUnit, primaryCapture)
	if err != nil {
		return nil, err
	}

	record := &domain.SettlementRecord{
		TrackID:       trackID,
		ArtistID:      artistID,
		OrderID:       resp.ID,
		Currency:      orderCurrency,
		OverallStatus: resp.Status,
	}
	if resp.Payer != nil {
		if resp.Payer.EmailAddress != "" {
			email := resp.Payer.EmailAddress
			record.PayerEmail = &email
		}
		if resp.Payer.PayerID != "" {
			payerID := resp.Payer.PayerID
			record.PayerID = &payerID
		}
	}

	// Second pass, independent of the identity extraction: aggregate every
	// completed capture across every unit. Metadata decode is best-effort here;
	// losing a non-primary unit's metadata must not block recording the money
	// actually received.
	var payments []domain.CollaboratorPayment
	var totalCents int64
	for _, unit := range resp.PurchaseUnits {
		if unit.Payments == nil {
			continue
		}
		for _, capture := range unit.Payments.Captures {
			if capture.Status != captureCompleted {
				continue
			}
			amountCents, ok := DecimalToCents(capture.Amount.Value)
			if !ok {
				log.Printf("level=warn component=reconciler order_id=%s capture_id=%s msg=\"unparsable capture amount\" value=%q", resp.ID, capture.ID, capture.Amount.Value)
				amountCents = 0
			}
			totalCents += amountCents

			payment := domain.CollaboratorPayment{
				Name:          "Unknown",
				AmountCents:   amountCents,
				TransactionID: capture.ID,
				Status:        capture.Status,
			}
			if unit.ReferenceID != "" {
				if meta, decodeErr := DecodeMultiUnitMetadata(unit.ReferenceID); decodeErr == nil {
					payment.Name = meta.CollaboratorName
					payment.Percentage = meta.Percentage
					payment.IsPrimary = meta.IsPrimary
				} else {
					log.Printf("level=warn component=reconciler order_id=%s capture_id=%s msg=\"could not decode reference_id for unit, recording payment without collaborator identity\"", resp.ID, capture.ID)
				}
			}
			payments = append(payments, payment)
		}
	}
	record.TotalCapturedCents = totalCents

	if len(payments) == 1 {
		// Single capture keeps the backward-compatible flat shape.
		txID := payments[0].TransactionID
		record.SinglePayPalTransactionID = &txID
	} else {
		record.PerCollaboratorPayments = payments
	}

	if resp.Status == domain.SettlementPartiallyCompleted {
		note := partialSettlementNote
		record.Notes = &note
	}

	return record, nil
}

// findPrimaryCapture scans purchase units in response order and, within each,
// the captures in order, returning the first capture whose own status is
// COMPLETED. The first unit is not assumed to be the relevant one.
func findPrimaryCapture(resp *paypalclient.CaptureOrderResponse) (*paypalclient.CapturedPurchaseUnit, *paypalclient.Capture, error) {
	for i := range resp.PurchaseUnits {
		unit := &resp.PurchaseUnits[i]
		if unit.Payments == nil {
			continue
		}
		for j := range unit.Payments.Captures {
			capture := &unit.Payments.Captures[j]
			if capture.Status == captureCompleted {
				return unit, capture, nil
			}
		}
	}
	return nil, nil, ErrNoSuccessfulCapture
}

// extractIdentity recovers trackID and artistID from the primary unit. Carrier
// priority is fixed: a custom_id on the unit, then on the capture itself, then
// the unit's reference_id. A present-but-malformed carrier surfaces as
// *InvalidMetadataError; an absent carrier as ErrMissingMetadata.
func extractIdentity(unit *paypalclient.CapturedPurchaseUnit, capture *paypalclient.Capture) (string, string, error) {
	customID := unit.CustomID
	if customID == "" {
		customID = capture.CustomID
	}

	if customID != "" {
		meta, err := DecodeSingleUnitMetadata(customID)
		if err != nil {
			return "", "", err
		}
		return meta.TrackID, meta.ArtistID, nil
	}

	if unit.ReferenceID != "" {
		meta, err := DecodeMultiUnitMetadata(unit.ReferenceID)
		if err != nil {
			return "", "", err
		}
		return meta.TrackID, meta.ArtistID, nil
	}

	return "", "", ErrMissingMetadata
}

// settlementToRoyalty converts a settlement into the royalty ledger row for the
// purchased track, snapshotting the track's collaborator list.
func settlementToRoyalty(settlement *domain.SettlementRecord, track *domain.Track, artist *domain.ArtistProfile, buyer domain.Buyer) *domain.RoyaltyRecord {
	orderID := settlement.OrderID
	record := &domain.RoyaltyRecord{
		TrackID:              settlement.TrackID,
		ArtistID:             settlement.ArtistID,
		TrackTitle:           track.Title,
		OrderID:              &orderID,
		AmountCents:          settlement.TotalCapturedCents,
		Currency:             settlement.Currency,
		Status:               settlement.OverallStatus,
		Type:                 domain.RoyaltyTypePurchase,
		PayPalTransactionID:  settlement.SinglePayPalTransactionID,
		CollaboratorPayments: settlement.PerCollaboratorPayments,
		Notes:                settlement.Notes,
	}

	// Buyer identity: the authenticated caller wins, then the processor-assigned
	// payer identity.
	if buyer.Email != "" {
		email := buyer.Email
		record.PayerEmail = &email
	} else if settlement.PayerEmail != nil {
		record.PayerEmail = settlement.PayerEmail
	}
	if settlement.PayerID != nil {
		record.PayerID = settlement.PayerID
	}
	if buyer.UserID != "" {
		userID := buyer.UserID
		record.UserID = &userID
	}

	record.Collaborators = track.Collaborators
	if len(record.Collaborators) == 0 && artist != nil {
		record.Collaborators = domain.DefaultCollaborators(artist)
	}

	return record
}

// describeSettlement renders a compact log line fragment for a settlement.
func describeSettlement(settlement *domain.SettlementRecord) string {
	captures := len(settlement.PerCollaboratorPayments)
	if settlement.SinglePayPalTransactionID != nil {
		captures = 1
	}
	return fmt.Sprintf("captures=%d total=%s status=%s", captures, CentsToDecimal(settlement.TotalCapturedCents), settlement.OverallStatus)
}
