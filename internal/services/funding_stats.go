package services

import "github.com/goloanme/backend/internal/models"

// FundingStats aggregates a post's pledges: total funded, distinct donors
// across donations and distinct sponsors across contract pledges.
func FundingStats(pledges []models.Pledge) models.PostStats {
	donors := make(map[string]struct{})
	sponsors := make(map[string]struct{})

	var stats models.PostStats
	for _, p := range pledges {
		stats.FundedGLM += p.Amount
		switch p.Type {
		case models.PledgeDonation:
			donors[p.PledgerID] = struct{}{}
		case models.PledgeContract:
			sponsors[p.PledgerID] = struct{}{}
		}
	}
	stats.Donors = len(donors)
	stats.Sponsors = len(sponsors)
	return stats
}
