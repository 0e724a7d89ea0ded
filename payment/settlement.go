package payment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mstgnz/thaipay/model"
	"github.com/shopspring/decimal"
)

// CalculateSettlement sums the completed transactions of a merchant created
// in [from, to). Fees are the ones recorded on each transaction.
func (s *Service) CalculateSettlement(ctx context.Context, merchantID string, from, to time.Time) (*model.SettlementSummary, error) {
	if strings.TrimSpace(merchantID) == "" {
		return nil, fmt.Errorf("%w: merchant id is required", ErrInvalidInput)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("%w: settlement window must satisfy from < to", ErrInvalidInput)
	}

	txs, err := s.transactions.FindByMerchant(ctx, merchantID, TransactionFilter{
		Status: model.StatusCompleted,
		From:   from,
		To:     to,
	})
	if err != nil {
		return nil, err
	}

	summary := &model.SettlementSummary{
		MerchantID:   merchantID,
		From:         from,
		To:           to,
		TotalAmount:  decimal.Zero,
		TotalFee:     decimal.Zero,
		Transactions: make([]*model.Transaction, 0, len(txs)),
	}
	for _, tx := range txs {
		summary.TotalAmount = summary.TotalAmount.Add(tx.Amount)
		summary.TotalFee = summary.TotalFee.Add(tx.Fee)
		summary.Transactions = append(summary.Transactions, tx)
	}
	summary.TransactionCount = len(summary.Transactions)
	summary.NetAmount = summary.TotalAmount.Sub(summary.TotalFee)
	return summary, nil
}

// CreateSettlement builds a pending settlement record for the window. The
// record is returned, not stored.
func (s *Service) CreateSettlement(ctx context.Context, merchantID string, typ model.SettlementType, from, to time.Time) (*model.Settlement, error) {
	switch typ {
	case "":
		typ = model.SettlementManual
	case model.SettlementDaily, model.SettlementWeekly, model.SettlementMonthly, model.SettlementManual:
	default:
		return nil, fmt.Errorf("%w: unknown settlement type %q", ErrInvalidInput, typ)
	}

	summary, err := s.CalculateSettlement(ctx, merchantID, from, to)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(summary.Transactions))
	for _, tx := range summary.Transactions {
		ids = append(ids, tx.TransactionID)
	}
	settlement := &model.Settlement{
		SettlementID:   fmt.Sprintf("SETTLE-%s-%d-%d", merchantID, from.UnixMilli(), to.UnixMilli()),
		MerchantID:     merchantID,
		Type:           typ,
		Status:         model.SettlementPending,
		PeriodStart:    from,
		PeriodEnd:      to,
		Summary:        *summary,
		TransactionIDs: ids,
		CreatedAt:      s.timestamp(),
	}

	s.audit(ctx, AuditEvent{
		Action:     AuditSettlementCreated,
		MerchantID: merchantID,
		Amount:     summary.NetAmount,
		Fields: map[string]any{
			"settlement_id":     settlement.SettlementID,
			"transaction_count": summary.TransactionCount,
		},
	})
	return settlement, nil
}
