package reconcile

import (
	"strings"

	"github.com/ginjaninja78/proposal-reconciler/internal/types"
)

// FilterProposals returns the proposals whose code, store, store tax id, bank
// or status contains query, ignoring case. A blank query returns all of them.
func FilterProposals(proposals []types.Proposal, query string) []types.Proposal {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return proposals
	}

	var out []types.Proposal
	for _, p := range proposals {
		hay := strings.ToLower(strings.Join([]string{
			p.ProposalCode,
			deref(p.Store),
			deref(p.StoreTaxID),
			deref(p.Bank),
			deref(p.Status),
		}, " "))
		if strings.Contains(hay, query) {
			out = append(out, p)
		}
	}
	return out
}

// FindProposal looks a proposal up by its exact join key.
func FindProposal(result *types.ReconciliationResult, code string) (*types.Proposal, bool) {
	if result == nil {
		return nil, false
	}
	for i := range result.Proposals {
		if result.Proposals[i].ProposalCode == code {
			return &result.Proposals[i], true
		}
	}
	return nil, false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
