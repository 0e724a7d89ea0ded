package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SettlementSummary aggregates completed transactions of one merchant over
// the half-open window [From, To).
type SettlementSummary struct {
	MerchantID       string          `json:"merchantId"`
	From             time.Time       `json:"from"`
	To               time.Time       `json:"to"`
	TransactionCount int             `json:"transactionCount"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
	TotalFee         decimal.Decimal `json:"totalFee"`
	NetAmount        decimal.Decimal `json:"netAmount"`
	Transactions     []*Transaction  `json:"transactions"`
}

type SettlementType string

const (
	SettlementDaily   SettlementType = "daily"
	SettlementWeekly  SettlementType = "weekly"
	SettlementMonthly SettlementType = "monthly"
	SettlementManual  SettlementType = "manual"
)

type SettlementStatus string

const (
	SettlementPending    SettlementStatus = "pending"
	SettlementProcessing SettlementStatus = "processing"
	SettlementCompleted  SettlementStatus = "completed"
	SettlementFailed     SettlementStatus = "failed"
)

// Settlement is a payout record built from a summary.
type Settlement struct {
	SettlementID   string            `json:"settlementId"`
	MerchantID     string            `json:"merchantId"`
	Type           SettlementType    `json:"type"`
	Status         SettlementStatus  `json:"status"`
	PeriodStart    time.Time         `json:"periodStart"`
	PeriodEnd      time.Time         `json:"periodEnd"`
	Summary        SettlementSummary `json:"summary"`
	TransactionIDs []string          `json:"transactionIds"`
	CreatedAt      time.Time         `json:"createdAt"`
}
