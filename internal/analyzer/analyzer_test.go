package analyzer

import (
	"testing"
	"time"

	"github.com/opsfort/opsledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestAnalyzer() *Analyzer {
	a := New()
	a.now = func() time.Time { return testNow }
	return a
}

func request(id, kind string, amount int64, age time.Duration) models.TicketMoneyRequest {
	return models.TicketMoneyRequest{
		TicketID:        id,
		Kind:            kind,
		RequestedAmount: decimal.NewFromInt(amount),
		CreatedAt:       testNow.Add(-age),
	}
}

func TestAnalyzePendingLevels(t *testing.T) {
	a := newTestAnalyzer()

	tests := []struct {
		name string
		req  models.TicketMoneyRequest
		want PriorityLevel
	}{
		// tier 0 deposit, fresh: 0*2 + 0 + 1.0 = 1.0
		{"small fresh deposit", request("t1", models.TicketKindDeposit, 100, 0), PriorityLow},
		// tier 1 withdrawal, fresh: 1*2 + 0 + 1.5 = 3.5
		{"modest fresh withdrawal", request("t2", models.TicketKindWithdrawal, 5_000, 0), PriorityMedium},
		// tier 2 withdrawal, one day old: 2*2 + 1*1.5 + 1.5 = 7.0
		{"large day-old withdrawal", request("t3", models.TicketKindWithdrawal, 15_000, 24*time.Hour), PriorityHigh},
		// tier 3 withdrawal, three days old: 3*2 + 3*1.5 + 1.5 = 12.0
		{"major stale withdrawal", request("t4", models.TicketKindWithdrawal, 150_000, 72*time.Hour), PriorityUrgent},
		// age saturates at three days; a week pending scores the same as three days
		{"week-old major withdrawal", request("t5", models.TicketKindWithdrawal, 150_000, 7*24*time.Hour), PriorityUrgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.AnalyzePending([]models.TicketMoneyRequest{tt.req})
			require.Len(t, got, 1)
			require.Equal(t, tt.want, got[0].PriorityLevel)
		})
	}
}

func TestAnalyzePendingAgeNeverLowersPriority(t *testing.T) {
	a := newTestAnalyzer()

	ages := []time.Duration{0, 6 * time.Hour, 24 * time.Hour, 48 * time.Hour, 96 * time.Hour}
	rank := map[PriorityLevel]int{PriorityLow: 0, PriorityMedium: 1, PriorityHigh: 2, PriorityUrgent: 3}

	previous := -1
	for _, age := range ages {
		got := a.AnalyzePending([]models.TicketMoneyRequest{
			request("t", models.TicketKindWithdrawal, 5_000, age),
		})
		current := rank[got[0].PriorityLevel]
		require.GreaterOrEqual(t, current, previous, "older ticket dropped in priority at age %s", age)
		previous = current
	}
}

func TestAnalyzePendingOrdering(t *testing.T) {
	a := newTestAnalyzer()

	requests := []models.TicketMoneyRequest{
		request("small", models.TicketKindDeposit, 100, 0),
		request("urgent", models.TicketKindWithdrawal, 150_000, 72*time.Hour),
		request("medium", models.TicketKindWithdrawal, 5_000, 0),
	}

	got := a.AnalyzePending(requests)
	require.Len(t, got, 3)
	require.Equal(t, "urgent", got[0].TicketID)
	require.Equal(t, "medium", got[1].TicketID)
	require.Equal(t, "small", got[2].TicketID)
}

func TestAnalyzePendingEqualScoresKeepFIFOOrder(t *testing.T) {
	a := newTestAnalyzer()

	// identical kind and amount, all past the age saturation point so their
	// scores tie exactly; the queue must fall back to submission order
	requests := []models.TicketMoneyRequest{
		request("second", models.TicketKindWithdrawal, 500, 90*time.Hour),
		request("first", models.TicketKindWithdrawal, 500, 100*time.Hour),
		request("third", models.TicketKindWithdrawal, 500, 80*time.Hour),
	}

	got := a.AnalyzePending(requests)
	require.Equal(t, "first", got[0].TicketID)
	require.Equal(t, "second", got[1].TicketID)
	require.Equal(t, "third", got[2].TicketID)
}

func TestAnalyzePendingDuplicateClusters(t *testing.T) {
	a := newTestAnalyzer()

	requests := []models.TicketMoneyRequest{
		request("w1", models.TicketKindWithdrawal, 5_000, time.Hour),
		request("w2", models.TicketKindWithdrawal, 5_000, 2*time.Hour),
		// same amount, different kind: not part of the cluster
		request("d1", models.TicketKindDeposit, 5_000, time.Hour),
		request("w3", models.TicketKindWithdrawal, 7_000, time.Hour),
	}

	got := a.AnalyzePending(requests)

	flagged := make(map[string]bool, len(got))
	for _, assessment := range got {
		flagged[assessment.TicketID] = assessment.IsDuplicateCluster
	}

	require.True(t, flagged["w1"])
	require.True(t, flagged["w2"])
	require.False(t, flagged["d1"])
	require.False(t, flagged["w3"])
}

func TestAnalyzePendingMalformedInputScoresLow(t *testing.T) {
	a := newTestAnalyzer()

	requests := []models.TicketMoneyRequest{
		{TicketID: "no-kind", RequestedAmount: decimal.NewFromInt(50_000), CreatedAt: testNow.Add(-time.Hour)},
		{TicketID: "technical", Kind: models.TicketKindTechnical, RequestedAmount: decimal.NewFromInt(50_000), CreatedAt: testNow.Add(-time.Hour)},
		{TicketID: "zero-amount", Kind: models.TicketKindWithdrawal, CreatedAt: testNow.Add(-time.Hour)},
		{TicketID: "negative-amount", Kind: models.TicketKindWithdrawal, RequestedAmount: decimal.NewFromInt(-10), CreatedAt: testNow.Add(-time.Hour)},
		{TicketID: "no-timestamp", Kind: models.TicketKindWithdrawal, RequestedAmount: decimal.NewFromInt(50_000)},
		{TicketID: "future", Kind: models.TicketKindWithdrawal, RequestedAmount: decimal.NewFromInt(50_000), CreatedAt: testNow.Add(time.Hour)},
	}

	got := a.AnalyzePending(requests)
	require.Len(t, got, len(requests))
	for _, assessment := range got {
		require.Equal(t, PriorityLow, assessment.PriorityLevel, "ticket %s", assessment.TicketID)
	}
}

func TestAnalyzePendingEmptyInput(t *testing.T) {
	a := newTestAnalyzer()

	got := a.AnalyzePending(nil)
	require.Empty(t, got)
}
