package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TicketMoneyRequest is the money-movement view of a support ticket, handed
// to us per call by the ticketing collaborator. The ledger never persists
// these.
type TicketMoneyRequest struct {
	TicketID        string          `json:"ticket_id"`
	RequestedAmount decimal.Decimal `json:"requested_amount"`
	Kind            string          `json:"kind"`
	RaisedByUserID  string          `json:"raised_by_user_id"`
	CreatedAt       time.Time       `json:"created_at"`
	StatusID        int             `json:"status_id"`
}

const (
	TicketKindWithdrawal = "withdrawal"
	TicketKindDeposit    = "deposit"
	TicketKindTechnical  = "technical"
)

// Per-kind detail payloads. The ticketing system mixes many optional fields
// on one record; we keep the variants separate so each carries only what its
// kind needs.
type WithdrawalDetail struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

type DepositDetail struct {
	PaymentChannel string `json:"payment_channel"`
	ProofImageURL  string `json:"proof_image_url"`
}

type TechnicalDetail struct {
	Subject  string `json:"subject"`
	Category string `json:"category"`
}

type TicketDetail struct {
	Kind       string            `json:"kind"`
	Withdrawal *WithdrawalDetail `json:"withdrawal,omitempty"`
	Deposit    *DepositDetail    `json:"deposit,omitempty"`
	Technical  *TechnicalDetail  `json:"technical,omitempty"`
}
