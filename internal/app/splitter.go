/**
 * @description
 * Revenue split computation for collaborator payouts. Given a track price in
 * cents and the collaborator list, computes per-collaborator amounts with
 * half-up rounding and corrects rounding drift against the primary collaborator
 * so the amounts always sum to the price exactly.
 */

package app

import (
	"math"

	"github.com/fourtrack/medley-service/internal/domain"
)

// ComputeSplits computes per-collaborator amounts in cents for a purchase.
//
// Invariants:
//   - the returned amounts sum to totalCents exactly;
//   - any rounding residual is absorbed, signed, by the collaborator flagged
//     primary;
//   - a nonzero residual with no primary collaborator fails with
//     ErrSplitIntegrity;
//   - any collaborator lacking a payee email fails the whole operation with
//     *MissingPayeeError.
//
// totalCents must be positive: free tracks bypass the splitter entirely, and an
// empty collaborator list must be backfilled by the caller with the owning
// artist (see domain.DefaultCollaborators).
func ComputeSplits(totalCents int64, collaborators []domain.Collaborator) ([]domain.SplitAmount, error) {
	for _, collab := range collaborators {
		if collab.Email == "" {
			return nil, &MissingPayeeError{CollaboratorName: collab.Name}
		}
	}

	splits := make([]domain.SplitAmount, 0, len(collaborators))
	var sum int64
	primaryIndex := -1
	for i, collab := range collaborators {
		amount := roundHalfUp(float64(totalCents) * collab.Percentage / 100.0)
		splits = append(splits, domain.SplitAmount{Collaborator: collab, AmountCents: amount})
		sum += amount
		if collab.IsPrimary && primaryIndex == -1 {
			primaryIndex = i
		}
	}

	if residual := totalCents - sum; residual != 0 {
		if primaryIndex == -1 {
			return nil, ErrSplitIntegrity
		}
		splits[primaryIndex].AmountCents += residual
	}

	return splits, nil
}

// roundHalfUp rounds to the nearest cent, ties away from zero.
func roundHalfUp(v float64) int64 {
	if v < 0 {
		return -int64(math.Floor(-v + 0.5))
	}
	return int64(math.Floor(v + 0.5))
}
