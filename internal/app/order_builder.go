/**
 * @description
 * Outbound order construction. Builds the PayPal order request for a track
 * purchase: a single purchase unit carrying custom_id metadata when one payee
 * is involved, or one unit per collaborator carrying base64 reference_id
 * metadata when the revenue is split. Pure construction; transmission belongs
 * to the payment processor client.
 */

package app

import (
	"fmt"
	"strings"

	"github.com/fourtrack/medley-service/internal/domain"
	"github.com/fourtrack/medley-service/pkg/paypalclient"
)

const (
	orderCurrency = "USD"
	brandName     = "4track"
)

// BuildOrder assembles the order request for the given track purchase. The
// splits must come from ComputeSplits so the unit amounts already satisfy the
// sum invariant. origin is the calling context's origin (scheme://host), used
// for the return/cancel destination pair; it is passed through opaquely.
func BuildOrder(track *domain.Track, artist *domain.ArtistProfile, splits []domain.SplitAmount, totalCents int64, origin string) (*paypalclient.OrderRequest, error) {
	if len(splits) == 0 {
		return nil, fmt.Errorf("cannot build order for track %s with no split amounts", track.ID)
	}

	artistName := track.ArtistName
	if artistName == "" {
		artistName = artist.Name
	}

	order := &paypalclient.OrderRequest{
		Intent: "CAPTURE",
		ApplicationContext: paypalclient.ApplicationContext{
			BrandName:          brandName,
			LandingPage:        "NO_PREFERENCE",
			UserAction:         "PAY_NOW",
			ShippingPreference: "NO_SHIPPING",
			ReturnURL:          fmt.Sprintf("%s/%s/success", strings.TrimSuffix(origin, "/"), artist.CustomSlug),
			CancelURL:          fmt.Sprintf("%s/%s", strings.TrimSuffix(origin, "/"), artist.CustomSlug),
		},
	}

	if len(splits) == 1 {
		// Single payee: custom_id carries the compact identity blob directly.
		customID, err := EncodeSingleUnitMetadata(SingleUnitMetadata{
			TrackID:  track.ID,
			ArtistID: artist.ID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode order metadata: %w", err)
		}
		order.PurchaseUnits = []paypalclient.PurchaseUnit{{
			CustomID: customID,
			Amount: paypalclient.Amount{
				CurrencyCode: orderCurrency,
				Value:        CentsToDecimal(totalCents),
			},
			Payee:       &paypalclient.Payee{EmailAddress: splits[0].Collaborator.Email},
			Description: fmt.Sprintf("%s by %s", track.Title, artistName),
		}}
		return order, nil
	}

	// Multiple payees: one unit per collaborator, metadata in reference_id with
	// the collaborator fields the capture response will not otherwise expose.
	units := make([]paypalclient.PurchaseUnit, 0, len(splits))
	for i, split := range splits {
		collab := split.Collaborator
		referenceID, err := EncodeMultiUnitMetadata(MultiUnitMetadata{
			TrackID:           track.ID,
			ArtistID:          artist.ID,
			CollaboratorIndex: i,
			CollaboratorName:  collab.Name,
			Percentage:        collab.Percentage,
			IsPrimary:         collab.IsPrimary,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to encode order metadata for collaborator %s: %w", collab.Name, err)
		}
		units = append(units, paypalclient.PurchaseUnit{
			ReferenceID: referenceID,
			Amount: paypalclient.Amount{
				CurrencyCode: orderCurrency,
				Value:        CentsToDecimal(split.AmountCents),
			},
			Payee:       &paypalclient.Payee{EmailAddress: collab.Email},
			Description: fmt.Sprintf("%s by %s - %s (%g%%)", track.Title, artistName, collab.Name, collab.Percentage),
		})
	}
	order.PurchaseUnits = units
	return order, nil
}

// CentsToDecimal formats an amount in cents as a two-decimal currency string.
func CentsToDecimal(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// DecimalToCents parses a two-decimal currency string into cents. Malformed
// values report ok=false instead of panicking on processor data.
func DecimalToCents(value string) (int64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	negative := strings.HasPrefix(value, "-")
	value = strings.TrimPrefix(value, "-")

	whole, frac := value, "0"
	if idx := strings.IndexByte(value, '.'); idx >= 0 {
		whole, frac = value[:idx], value[idx+1:]
	}
	if whole == "" {
		whole = "0"
	}
	switch len(frac) {
	case 0:
		frac = "00"
	case 1:
		frac += "0"
	case 2:
	default:
		frac = frac[:2]
	}

	var cents int64
	for _, r := range whole {
		if r < '0' || r > '9' {
			return 0, false
		}
		cents = cents*10 + int64(r-'0')
	}
	cents *= 100
	for i, r := range frac {
		if r < '0' || r > '9' {
			return 0, false
		}
		if i == 0 {
			cents += int64(r-'0') * 10
		} else {
			cents += int64(r - '0')
		}
	}
	if negative {
		cents = -cents
	}
	return cents, true
}
