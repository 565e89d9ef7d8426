/**
 * @description
 * Reconciliation metadata codecs. Two encodings exist because PayPal exposes
 * different carrier fields depending on order shape:
 *
 *   - single-payee orders embed compact JSON directly in `custom_id`
 *     (SingleUnitMetadata);
 *   - multi-payee orders embed base64-encoded JSON in `reference_id`
 *     (MultiUnitMetadata), since custom_id is reserved for single-unit orders
 *     and reference_id has a stricter character set.
 *
 * Each variant has a pure decode function; the reconciler dispatches between
 * them in a fixed priority order.
 */

package app

import (
	"encoding/base64"
	"encoding/json"
	"regexp"
)

// SingleUnitMetadata identifies the purchase behind a single-payee order.
type SingleUnitMetadata struct {
	TrackID  string `json:"trackId"`
	ArtistID string `json:"artistId"`
}

// MultiUnitMetadata identifies one collaborator's unit within a multi-payee
// order. The extra fields exist because the capture response does not otherwise
// expose which collaborator a captured unit belongs to.
type MultiUnitMetadata struct {
	TrackID           string  `json:"trackId"`
	ArtistID          string  `json:"artistId"`
	CollaboratorIndex int     `json:"collaboratorIndex"`
	CollaboratorName  string  `json:"collaboratorName"`
	Percentage        float64 `json:"percentage"`
	IsPrimary         bool    `json:"isPrimary"`
}

var base64Pattern = regexp.MustCompile(`^[A-Za-z0-9+/]+=*$`)

// EncodeSingleUnitMetadata serializes single-payee metadata for a custom_id
// field.
func EncodeSingleUnitMetadata(meta SingleUnitMetadata) (string, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeSingleUnitMetadata parses a custom_id carrier.
func DecodeSingleUnitMetadata(raw string) (*SingleUnitMetadata, error) {
	var meta SingleUnitMetadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, &InvalidMetadataError{Carrier: "custom_id", Raw: raw, Reason: err.Error()}
	}
	return &meta, nil
}

// EncodeMultiUnitMetadata serializes multi-payee metadata for a reference_id
// field as base64 of compact JSON.
func EncodeMultiUnitMetadata(meta MultiUnitMetadata) (string, error) {
	raw, err := json.Marshal(meta)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeMultiUnitMetadata parses a reference_id carrier. The carrier is
// validated against the base64 character set before any decode attempt so a
// malformed value is reported rather than silently swallowed.
func DecodeMultiUnitMetadata(raw string) (*MultiUnitMetadata, error) {
	if raw == "" || !base64Pattern.MatchString(raw) {
		return nil, &InvalidMetadataError{Carrier: "reference_id", Raw: raw, Reason: "carrier is not valid base64"}
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, &InvalidMetadataError{Carrier: "reference_id", Raw: raw, Reason: err.Error()}
	}
	var meta MultiUnitMetadata
	if err := json.Unmarshal(decoded, &meta); err != nil {
		return nil, &InvalidMetadataError{Carrier: "reference_id", Raw: raw, Reason: err.Error()}
	}
	return &meta, nil
}
