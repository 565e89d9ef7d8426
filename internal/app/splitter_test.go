package app

import (
	"errors"
	"testing"

	"github.com/fourtrack/medley-service/internal/domain"
)

func TestComputeSplits(t *testing.T) {
	tests := []struct {
		name          string
		totalCents    int64
		collaborators []domain.Collaborator
		wantAmounts   []int64
	}{
		{
			name:       "single collaborator takes full amount",
			totalCents: 500,
			collaborators: []domain.Collaborator{
				{Name: "Ada", Email: "ada@example.com", Percentage: 100, IsPrimary: true},
			},
			wantAmounts: []int64{500},
		},
		{
			name:       "even three-way split absorbs residual into primary",
			totalCents: 1000,
			collaborators: []domain.Collaborator{
				{Name: "Ada", Email: "ada@example.com", Percentage: 33, IsPrimary: true},
				{Name: "Ben", Email: "ben@example.com", Percentage: 33},
				{Name: "Cal", Email: "cal@example.com", Percentage: 34},
			},
			// 330 + 330 + 340 = 1000, no residual
			wantAmounts: []int64{330, 330, 340},
		},
		{
			name:       "thirds of ten dollars give primary the extra cent",
			totalCents: 1000,
			collaborators: []domain.Collaborator{
				{Name: "Ada", Email: "ada@example.com", Percentage: 33.33, IsPrimary: true},
				{Name: "Ben", Email: "ben@example.com", Percentage: 33.33},
				{Name: "Cal", Email: "cal@example.com", Percentage: 33.34},
			},
			// 333 + 333 + 333 = 999, primary absorbs +1
			wantAmounts: []int64{334, 333, 333},
		},
		{
			name:       "over-rounding subtracts from primary",
			totalCents: 999,
			collaborators: []domain.Collaborator{
				{Name: "Ada", Email: "ada@example.com", Percentage: 33.33, IsPrimary: true},
				{Name: "Ben", Email: "ben@example.com", Percentage: 66.67},
			},
			// 333 + 666 = 999, no residual
			wantAmounts: []int64{333, 666},
		},
		{
			name:       "half cent rounds up then primary rebalances",
			totalCents: 101,
			collaborators: []domain.Collaborator{
				{Name: "Ada", Email: "ada@example.com", Percentage: 50, IsPrimary: true},
				{Name: "Ben", Email: "ben@example.com", Percentage: 50},
			},
			// each rounds 50.5 -> 51, sum 102, primary gives back 1
			wantAmounts: []int64{50, 51},
		},
		{
			name:       "primary need not be first",
			totalCents: 1000,
			collaborators: []domain.Collaborator{
				{Name: "Ben", Email: "ben@example.com", Percentage: 33.33},
				{Name: "Ada", Email: "ada@example.com", Percentage: 33.33, IsPrimary: true},
				{Name: "Cal", Email: "cal@example.com", Percentage: 33.34},
			},
			wantAmounts: []int64{333, 334, 333},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			splits, err := ComputeSplits(tt.totalCents, tt.collaborators)
			if err != nil {
				t.Fatalf("ComputeSplits returned error: %v", err)
			}
			if len(splits) != len(tt.wantAmounts) {
				t.Fatalf("expected %d splits, got %d", len(tt.wantAmounts), len(splits))
			}
			var sum int64
			for i, split := range splits {
				if split.AmountCents != tt.wantAmounts[i] {
					t.Fatalf("split %d: expected %d cents, got %d", i, tt.wantAmounts[i], split.AmountCents)
				}
				sum += split.AmountCents
			}
			if sum != tt.totalCents {
				t.Fatalf("splits sum to %d, expected %d", sum, tt.totalCents)
			}
		})
	}
}

func TestComputeSplits_MissingPayeeFailsWholeSplit(t *testing.T) {
	collaborators := []domain.Collaborator{
		{Name: "Ada", Email: "ada@example.com", Percentage: 50, IsPrimary: true},
		{Name: "Ben", Email: "", Percentage: 50},
	}

	_, err := ComputeSplits(1000, collaborators)
	var missing *MissingPayeeError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingPayeeError, got %v", err)
	}
	if missing.CollaboratorName != "Ben" {
		t.Fatalf("expected offending collaborator Ben, got %q", missing.CollaboratorName)
	}
}

func TestComputeSplits_ResidualWithoutPrimaryFailsClosed(t *testing.T) {
	collaborators := []domain.Collaborator{
		{Name: "Ada", Email: "ada@example.com", Percentage: 33.33},
		{Name: "Ben", Email: "ben@example.com", Percentage: 33.33},
		{Name: "Cal", Email: "cal@example.com", Percentage: 33.33},
	}

	_, err := ComputeSplits(1000, collaborators)
	if !errors.Is(err, ErrSplitIntegrity) {
		t.Fatalf("expected ErrSplitIntegrity, got %v", err)
	}
}

func TestComputeSplits_NoResidualWithoutPrimarySucceeds(t *testing.T) {
	collaborators := []domain.Collaborator{
		{Name: "Ada", Email: "ada@example.com", Percentage: 50},
		{Name: "Ben", Email: "ben@example.com", Percentage: 50},
	}

	splits, err := ComputeSplits(1000, collaborators)
	if err != nil {
		t.Fatalf("ComputeSplits returned error: %v", err)
	}
	if splits[0].AmountCents != 500 || splits[1].AmountCents != 500 {
		t.Fatalf("expected 500/500 split, got %d/%d", splits[0].AmountCents, splits[1].AmountCents)
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   float64
		want int64
	}{
		{0, 0},
		{0.4, 0},
		{0.5, 1},
		{1.49, 1},
		{1.5, 2},
		{2.5, 3},
		{-0.5, -1},
		{-1.5, -2},
	}
	for _, tc := range cases {
		if got := roundHalfUp(tc.in); got != tc.want {
			t.Fatalf("roundHalfUp(%v) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
