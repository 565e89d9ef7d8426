package app

import (
	"strings"
	"testing"

	"github.com/fourtrack/medley-service/internal/domain"
)

func testTrack() *domain.Track {
	return &domain.Track{
		ID:         "track-1",
		Title:      "Night Drive",
		ArtistID:   "artist-1",
		ArtistName: "Moonlit",
		PriceCents: 500,
	}
}

func testArtist() *domain.ArtistProfile {
	return &domain.ArtistProfile{
		ID:          "artist-1",
		Name:        "Moonlit",
		CustomSlug:  "moonlit",
		PayPalEmail: "moonlit@example.com",
	}
}

func TestBuildOrder_SinglePayeeUsesCustomID(t *testing.T) {
	track := testTrack()
	artist := testArtist()
	splits := []domain.SplitAmount{
		{Collaborator: domain.Collaborator{Name: "Moonlit", Email: "moonlit@example.com", Percentage: 100, IsPrimary: true}, AmountCents: 500},
	}

	order, err := BuildOrder(track, artist, splits, 500, "https://4track.io")
	if err != nil {
		t.Fatalf("BuildOrder returned error: %v", err)
	}
	if order.Intent != "CAPTURE" {
		t.Fatalf("expected CAPTURE intent, got %q", order.Intent)
	}
	if len(order.PurchaseUnits) != 1 {
		t.Fatalf("expected one purchase unit, got %d", len(order.PurchaseUnits))
	}

	unit := order.PurchaseUnits[0]
	if unit.ReferenceID != "" {
		t.Fatalf("single-payee unit must not carry reference_id, got %q", unit.ReferenceID)
	}
	if unit.Amount.Value != "5.00" || unit.Amount.CurrencyCode != "USD" {
		t.Fatalf("unexpected amount: %s %s", unit.Amount.Value, unit.Amount.CurrencyCode)
	}
	if unit.Payee == nil || unit.Payee.EmailAddress != "moonlit@example.com" {
		t.Fatalf("unexpected payee: %+v", unit.Payee)
	}

	meta, err := DecodeSingleUnitMetadata(unit.CustomID)
	if err != nil {
		t.Fatalf("custom_id did not round-trip: %v", err)
	}
	if meta.TrackID != "track-1" || meta.ArtistID != "artist-1" {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}

func TestBuildOrder_MultiPayeeUsesReferenceIDPerUnit(t *testing.T) {
	track := testTrack()
	track.PriceCents = 1000
	artist := testArtist()
	splits := []domain.SplitAmount{
		{Collaborator: domain.Collaborator{Name: "Moonlit", Email: "moonlit@example.com", Percentage: 60, IsPrimary: true}, AmountCents: 600},
		{Collaborator: domain.Collaborator{Name: "Ben", Email: "ben@example.com", Percentage: 40}, AmountCents: 400},
	}

	order, err := BuildOrder(track, artist, splits, 1000, "https://4track.io")
	if err != nil {
		t.Fatalf("BuildOrder returned error: %v", err)
	}
	if len(order.PurchaseUnits) != 2 {
		t.Fatalf("expected two purchase units, got %d", len(order.PurchaseUnits))
	}

	wantAmounts := []string{"6.00", "4.00"}
	for i, unit := range order.PurchaseUnits {
		if unit.CustomID != "" {
			t.Fatalf("multi-payee unit %d must not carry custom_id, got %q", i, unit.CustomID)
		}
		if unit.Amount.Value != wantAmounts[i] {
			t.Fatalf("unit %d: expected amount %s, got %s", i, wantAmounts[i], unit.Amount.Value)
		}

		meta, err := DecodeMultiUnitMetadata(unit.ReferenceID)
		if err != nil {
			t.Fatalf("unit %d reference_id did not round-trip: %v", i, err)
		}
		if meta.TrackID != "track-1" || meta.ArtistID != "artist-1" {
			t.Fatalf("unit %d: unexpected identity: %+v", i, meta)
		}
		if meta.CollaboratorIndex != i {
			t.Fatalf("unit %d: expected collaborator index %d, got %d", i, i, meta.CollaboratorIndex)
		}
		if meta.CollaboratorName != splits[i].Collaborator.Name {
			t.Fatalf("unit %d: expected collaborator %q, got %q", i, splits[i].Collaborator.Name, meta.CollaboratorName)
		}
		if meta.IsPrimary != splits[i].Collaborator.IsPrimary {
			t.Fatalf("unit %d: primary flag mismatch", i)
		}
	}
}

func TestBuildOrder_ReturnAndCancelURLsUseArtistSlug(t *testing.T) {
	order, err := BuildOrder(testTrack(), testArtist(), []domain.SplitAmount{
		{Collaborator: domain.Collaborator{Name: "Moonlit", Email: "moonlit@example.com", Percentage: 100, IsPrimary: true}, AmountCents: 500},
	}, 500, "https://4track.io/")
	if err != nil {
		t.Fatalf("BuildOrder returned error: %v", err)
	}
	if order.ApplicationContext.ReturnURL != "https://4track.io/moonlit/success" {
		t.Fatalf("unexpected return url: %q", order.ApplicationContext.ReturnURL)
	}
	if order.ApplicationContext.CancelURL != "https://4track.io/moonlit" {
		t.Fatalf("unexpected cancel url: %q", order.ApplicationContext.CancelURL)
	}
}

func TestBuildOrder_EmptySplitsRejected(t *testing.T) {
	_, err := BuildOrder(testTrack(), testArtist(), nil, 500, "https://4track.io")
	if err == nil {
		t.Fatal("expected error for empty splits")
	}
	if !strings.Contains(err.Error(), "no split amounts") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCentsToDecimal(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{1, "0.01"},
		{99, "0.99"},
		{100, "1.00"},
		{500, "5.00"},
		{12345, "123.45"},
		{-250, "-2.50"},
	}
	for _, tc := range cases {
		if got := CentsToDecimal(tc.cents); got != tc.want {
			t.Fatalf("CentsToDecimal(%d) = %q, want %q", tc.cents, got, tc.want)
		}
	}
}

func TestDecimalToCents(t *testing.T) {
	cases := []struct {
		in     string
		want   int64
		wantOK bool
	}{
		{"5.00", 500, true},
		{"0.01", 1, true},
		{"123.45", 12345, true},
		{"7", 700, true},
		{"7.5", 750, true},
		{"7.505", 750, true},
		{"-2.50", -250, true},
		{" 5.00 ", 500, true},
		{"", 0, false},
		{"abc", 0, false},
		{"5.x0", 0, false},
	}
	for _, tc := range cases {
		got, ok := DecimalToCents(tc.in)
		if ok != tc.wantOK {
			t.Fatalf("DecimalToCents(%q): ok=%v, want %v", tc.in, ok, tc.wantOK)
		}
		if ok && got != tc.want {
			t.Fatalf("DecimalToCents(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
