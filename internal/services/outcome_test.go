package services

import (
	"testing"

	"creator-insurance/internal/models"
)

func TestComputeOutcome(t *testing.T) {
	cases := []struct {
		name   string
		yes    int64
		no     int64
		quorum int64
		want   models.ClaimStatus
	}{
		{"majority yes", 3, 1, 0, models.ClaimStatusApproved},
		{"majority no", 1, 3, 0, models.ClaimStatusRejected},
		{"tie rejects", 2, 2, 0, models.ClaimStatusRejected},
		{"no votes rejects", 0, 0, 0, models.ClaimStatusRejected},
		{"single yes approves", 1, 0, 0, models.ClaimStatusApproved},
		{"quorum met", 3, 1, 4, models.ClaimStatusApproved},
		{"quorum not met", 2, 0, 5, models.ClaimStatusRejected},
		{"quorum exactly met", 2, 1, 3, models.ClaimStatusApproved},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeOutcome(tc.yes, tc.no, tc.quorum)
			if got != tc.want {
				t.Errorf("ComputeOutcome(%d, %d, %d) = %s, want %s",
					tc.yes, tc.no, tc.quorum, got, tc.want)
			}
		})
	}
}
