/**
 * @description
 * This file defines the catalog-side domain models for the medley-service: tracks,
 * collaborators, and artist profiles. These entities are owned by the catalog layer
 * and are read-only inputs to the purchase flow.
 *
 * @notes
 * - Prices are stored as `int64` in cents (the smallest USD unit) to avoid
 *   floating-point inaccuracies with financial data. Decimal strings appear only
 *   at the PayPal wire boundary.
 * - Track and artist identifiers are catalog document IDs (strings), not UUIDs.
 */

package domain

// Track represents a purchasable medley track. It is immutable for the duration
// of a purchase.
type Track struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	ArtistID      string         `json:"artist_id"`
	ArtistName    string         `json:"artist_name,omitempty"`
	PriceCents    int64          `json:"price_cents"` // in cents, USD
	AllowDownload bool           `json:"allow_download"`
	AudioPath     string         `json:"audio_path,omitempty"` // storage object key
	AudioURL      string         `json:"audio_url,omitempty"`  // public fallback locator
	Collaborators []Collaborator `json:"collaborators,omitempty"`
}

// Collaborator is one payee in a track's revenue split. The percentages across a
// track's collaborator list are intended to sum to 100 but are not assumed exact;
// the splitter tolerates drift and corrects it against the primary collaborator.
type Collaborator struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"` // PayPal payee identifier, required for paid tracks
	Percentage float64 `json:"percentage"`
	IsPrimary  bool    `json:"is_primary"`
}

// ArtistProfile is the simplified view of an artist needed by the purchase flow.
type ArtistProfile struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CustomSlug  string `json:"custom_slug"`
	PayPalEmail string `json:"paypal_email,omitempty"`
}

// DefaultCollaborators synthesizes the 100%-primary collaborator list from the
// owning artist when a track carries no explicit split.
func DefaultCollaborators(artist *ArtistProfile) []Collaborator {
	return []Collaborator{{
		Name:       artist.Name,
		Email:      artist.PayPalEmail,
		Percentage: 100,
		IsPrimary:  true,
	}}
}
