// Package analyzer orders pending money-movement tickets for operators and
// flags duplicate-amount clusters. It is advisory only: it reads ticket
// metadata handed in per call and never touches the ledger.
package analyzer

import (
	"sort"
	"time"

	"github.com/opsfort/opsledger/internal/models"

	"github.com/shopspring/decimal"
)

type PriorityLevel string

const (
	PriorityLow    PriorityLevel = "low"
	PriorityMedium PriorityLevel = "medium"
	PriorityHigh   PriorityLevel = "high"
	PriorityUrgent PriorityLevel = "urgent"
)

type Assessment struct {
	TicketID           string        `json:"ticket_id"`
	PriorityLevel      PriorityLevel `json:"priority_level"`
	IsDuplicateCluster bool          `json:"is_duplicate_cluster"`
}

// Scoring weights. Amount dominates slightly so large requests don't starve
// behind a queue of small ones, age guarantees nothing starves forever, and
// withdrawals outrank deposits at equal size because money leaving the
// platform carries the operational risk.
const (
	amountWeight = 2.0
	ageWeight    = 1.5

	withdrawalTypeScore = 1.5
	depositTypeScore    = 1.0
)

// amount tier boundaries
var (
	tierModest = decimal.NewFromInt(1_000)
	tierLarge  = decimal.NewFromInt(10_000)
	tierMajor  = decimal.NewFromInt(100_000)
)

// level thresholds on the combined score
const (
	mediumThreshold = 3.5
	highThreshold   = 6.0
	urgentThreshold = 8.5
)

type Analyzer struct {
	now func() time.Time
}

func New() *Analyzer {
	return &Analyzer{now: time.Now}
}

// AnalyzePending scores every request and flags duplicate clusters. The
// returned slice is ordered for the operator queue: highest score first,
// FIFO by created_at within equal scores, so the ordering is reproducible.
func (a *Analyzer) AnalyzePending(requests []models.TicketMoneyRequest) []Assessment {
	now := a.now()

	duplicates := duplicateClusters(requests)

	type scored struct {
		request models.TicketMoneyRequest
		score   float64
	}

	items := make([]scored, len(requests))
	for i, req := range requests {
		items[i] = scored{request: req, score: a.score(req, now)}
	}

	// Sort by created_at first so the stable sort on score keeps FIFO order
	// within a level.
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].request.CreatedAt.Before(items[j].request.CreatedAt)
	})
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].score > items[j].score
	})

	assessments := make([]Assessment, len(items))
	for i, item := range items {
		assessments[i] = Assessment{
			TicketID:           item.request.TicketID,
			PriorityLevel:      levelFor(item.score),
			IsDuplicateCluster: duplicates[clusterKey(item.request)],
		}
	}

	return assessments
}

// score combines the three signals into one number. Malformed input scores
// zero, which degrades to the lowest level; the analyzer must never block
// an approval flow by erroring.
func (a *Analyzer) score(req models.TicketMoneyRequest, now time.Time) float64 {
	typeScore, ok := typeScoreFor(req.Kind)
	if !ok {
		return 0
	}
	if !req.RequestedAmount.IsPositive() {
		return 0
	}
	if req.CreatedAt.IsZero() || req.CreatedAt.After(now) {
		return 0
	}

	return float64(amountTier(req.RequestedAmount))*amountWeight +
		ageScore(now.Sub(req.CreatedAt))*ageWeight +
		typeScore
}

func typeScoreFor(kind string) (float64, bool) {
	switch kind {
	case models.TicketKindWithdrawal:
		return withdrawalTypeScore, true
	case models.TicketKindDeposit:
		return depositTypeScore, true
	default:
		return 0, false
	}
}

func amountTier(amount decimal.Decimal) int {
	switch {
	case amount.GreaterThanOrEqual(tierMajor):
		return 3
	case amount.GreaterThanOrEqual(tierLarge):
		return 2
	case amount.GreaterThanOrEqual(tierModest):
		return 1
	default:
		return 0
	}
}

// ageScore grows monotonically with hours pending and saturates at three
// days, at which point age alone pushes a ticket one level up.
func ageScore(age time.Duration) float64 {
	hours := age.Hours()
	if hours < 0 {
		return 0
	}

	score := hours / 24
	if score > 3 {
		score = 3
	}
	return score
}

func levelFor(score float64) PriorityLevel {
	switch {
	case score >= urgentThreshold:
		return PriorityUrgent
	case score >= highThreshold:
		return PriorityHigh
	case score >= mediumThreshold:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// duplicateClusters groups requests by (kind, amount). More than one member
// in a group usually means an accidental resubmission or coordinated
// submissions; we flag every member and leave the judgement to the operator.
func duplicateClusters(requests []models.TicketMoneyRequest) map[string]bool {
	counts := make(map[string]int, len(requests))
	for _, req := range requests {
		counts[clusterKey(req)]++
	}

	flagged := make(map[string]bool, len(counts))
	for key, n := range counts {
		if n > 1 {
			flagged[key] = true
		}
	}
	return flagged
}

func clusterKey(req models.TicketMoneyRequest) string {
	return req.Kind + "|" + req.RequestedAmount.String()
}
