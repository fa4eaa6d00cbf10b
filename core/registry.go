package core

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Protocol is a registered protocol and the single authorization-relevant
// fact about it: the wallet that owns it.
type Protocol struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Website          string          `json:"website"`
	ProtocolType     string          `json:"protocolType"`
	UptimeBps        int64           `json:"uptimeBps"`
	CoveragePoolUSDC decimal.Decimal `json:"coveragePoolUsdc"`
	OwnerWallet      string          `json:"ownerWallet"` // lower-cased
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// ProtocolPatch carries the updatable protocol fields; nil means unchanged.
type ProtocolPatch struct {
	Name         *string `json:"name"`
	Website      *string `json:"website"`
	ProtocolType *string `json:"protocolType"`
	UptimeBps    *int64  `json:"uptimeBps"`
}

// Incident is a child record of a protocol.
type Incident struct {
	ID             string    `json:"id"`
	ProtocolID     string    `json:"protocolId"`
	Status         string    `json:"status"`
	Severity       string    `json:"severity"`
	Summary        string    `json:"summary"`
	Decision       string    `json:"decision,omitempty"`
	DecisionReason string    `json:"decisionReason,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// Commitment is a child record of a protocol, keyed by
// (protocolId, commitmentId) and upserted field-wise.
type Commitment struct {
	ProtocolID         string          `json:"protocolId"`
	CommitmentID       string          `json:"commitmentId"`
	CommitmentType     string          `json:"commitmentType"`
	SourceURL          string          `json:"sourceUrl"`
	CommitmentTextHash string          `json:"commitmentTextHash"`
	Amount             decimal.Decimal `json:"amount"`
	Asset              string          `json:"asset"`
	DeadlineTs         int64           `json:"deadlineTs"`
	VerificationRule   string          `json:"verificationRule"`
	Result             string          `json:"result"`
	EvidenceHash       string          `json:"evidenceHash"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// CommitmentPatch carries the commitment fields supplied on an upsert;
// nil means unchanged (or defaulted, on first insert).
type CommitmentPatch struct {
	CommitmentType     *string          `json:"commitmentType"`
	SourceURL          *string          `json:"sourceUrl"`
	CommitmentTextHash *string          `json:"commitmentTextHash"`
	Amount             *decimal.Decimal `json:"amount"`
	Asset              *string          `json:"asset"`
	DeadlineTs         *int64           `json:"deadlineTs"`
	VerificationRule   *string          `json:"verificationRule"`
	Result             *string          `json:"result"`
	EvidenceHash       *string          `json:"evidenceHash"`
	Status             *string          `json:"status"`
}

// ReputationScore is the latest computed score for a protocol.
type ReputationScore struct {
	ProtocolID string    `json:"protocolId"`
	Score      int       `json:"score"`
	Grade      string    `json:"grade"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ScoreComponents are the four basis-point inputs to a score recompute.
type ScoreComponents struct {
	Uptime     int64
	Incident   int64
	Response   int64
	PoolHealth int64
}

// ComputeScore averages the four components and scales basis points down to
// a 0-100 score.
func ComputeScore(c ScoreComponents) int {
	return int(math.Round(float64(c.Uptime+c.Incident+c.Response+c.PoolHealth) / 400))
}

// GradeForScore maps a 0-100 score onto a letter grade.
func GradeForScore(score int) string {
	switch {
	case score >= 90:
		return "AAA"
	case score >= 80:
		return "AA"
	case score >= 70:
		return "A"
	case score >= 60:
		return "B"
	default:
		return "C"
	}
}
