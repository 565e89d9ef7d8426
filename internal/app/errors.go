/**
 * @description
 * Typed errors for the purchase flow. Sentinels cover the unparameterized
 * failure states; struct errors carry the offending value so handlers and tests
 * can inspect it instead of parsing log output.
 */

package app

import (
	"errors"
	"fmt"
)

var (
	// ErrArtistPayPalNotConfigured is returned when a paid track's owning artist
	// has no PayPal email configured.
	ErrArtistPayPalNotConfigured = errors.New("artist has not configured paypal payment settings")

	// ErrSplitIntegrity is returned when a rounding residual exists but no
	// collaborator is flagged primary to absorb it. The splitter fails closed
	// rather than emitting a unit set whose sum drifts from the requested total.
	ErrSplitIntegrity = errors.New("split amounts do not sum to the track price and no primary collaborator can absorb the residual")

	// ErrNoSuccessfulCapture is returned when a capture response contains no
	// capture in COMPLETED state.
	ErrNoSuccessfulCapture = errors.New("payment could not be processed: no successful capture in response")

	// ErrMissingMetadata is returned when neither metadata carrier is present on
	// the capture response's primary unit.
	ErrMissingMetadata = errors.New("missing transaction metadata in capture response")

	// ErrTrackNotFree is returned when the free-download path is invoked for a
	// priced track.
	ErrTrackNotFree = errors.New("track is not free")

	// ErrRateLimited is returned when a buyer exceeds the purchase rate limit.
	ErrRateLimited = errors.New("too many purchase attempts, please retry later")
)

// MissingPayeeError reports a collaborator that cannot be paid because no payee
// identifier is configured. The whole split fails; no partial order is built.
type MissingPayeeError struct {
	CollaboratorName string
}

func (e *MissingPayeeError) Error() string {
	return fmt.Sprintf("collaborator %s does not have a paypal email configured", e.CollaboratorName)
}

// PaymentFailedError reports a capture response whose top-level status is
// neither COMPLETED nor PARTIALLY_COMPLETED.
type PaymentFailedError struct {
	Status string
}

func (e *PaymentFailedError) Error() string {
	return fmt.Sprintf("payment failed with status: %s", e.Status)
}

// InvalidMetadataError reports a metadata carrier that was present but could
// not be decoded. Raw preserves the offending field for structured handling.
type InvalidMetadataError struct {
	Carrier string // "custom_id" or "reference_id"
	Raw     string
	Reason  string
}

func (e *InvalidMetadataError) Error() string {
	return fmt.Sprintf("invalid transaction metadata in %s: %s", e.Carrier, e.Reason)
}
