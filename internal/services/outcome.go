package services

import "creator-insurance/internal/models"

// ComputeOutcome decides a claim from its final tally. Strict majority of yes
// votes approves; ties and zero-vote claims reject. A quorum of 0 disables the
// minimum-participation check.
func ComputeOutcome(yesVotes, noVotes, quorum int64) models.ClaimStatus {
	if quorum > 0 && yesVotes+noVotes < quorum {
		return models.ClaimStatusRejected
	}
	if yesVotes > noVotes {
		return models.ClaimStatusApproved
	}
	return models.ClaimStatusRejected
}
