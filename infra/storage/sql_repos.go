package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mstgnz/thaipay/model"
	"github.com/mstgnz/thaipay/payment"
	"github.com/shopspring/decimal"
)

const methodColumns = `id, merchant_id, provider, name, description, status, config,
	min_amount, max_amount, daily_limit, monthly_limit, currency, fee_percentage, fee_fixed,
	usage_count, total_volume, last_used_at, is_enabled, is_default, priority, created_at, updated_at`

type sqlMethods struct{ s *SQL }

func scanMethod(row rowScanner) (*model.PaymentMethodConfig, error) {
	var (
		m          model.PaymentMethodConfig
		config     []byte
		lastUsedAt sql.NullInt64
		createdAt  int64
		updatedAt  int64
	)
	err := row.Scan(&m.ID, &m.MerchantID, &m.Provider, &m.Name, &m.Description, &m.Status, &config,
		&m.Limits.MinAmount, &m.Limits.MaxAmount, &m.Limits.DailyLimit, &m.Limits.MonthlyLimit, &m.Limits.Currency,
		&m.Fees.Percentage, &m.Fees.Fixed,
		&m.Usage.Count, &m.Usage.TotalVolume, &lastUsedAt, &m.IsEnabled, &m.IsDefault, &m.Priority, &createdAt, &updatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if len(config) > 0 {
		m.Config = json.RawMessage(config)
	}
	m.Usage.LastUsedAt = fromNullMicros(lastUsedAt)
	m.CreatedAt = fromMicros(createdAt)
	m.UpdatedAt = fromMicros(updatedAt)
	return &m, nil
}

func (r sqlMethods) FindByID(ctx context.Context, id string) (*model.PaymentMethodConfig, error) {
	return scanMethod(r.s.queryRow(ctx, `SELECT `+methodColumns+` FROM payment_methods WHERE id = ?`, id))
}

func (r sqlMethods) FindByProvider(ctx context.Context, merchantID string, p model.ProviderType) (*model.PaymentMethodConfig, error) {
	return scanMethod(r.s.queryRow(ctx,
		`SELECT `+methodColumns+` FROM payment_methods WHERE merchant_id = ? AND provider = ?`, merchantID, string(p)))
}

func (r sqlMethods) FindByMerchant(ctx context.Context, merchantID string) ([]*model.PaymentMethodConfig, error) {
	rows, err := r.s.query(ctx,
		`SELECT `+methodColumns+` FROM payment_methods WHERE merchant_id = ? ORDER BY created_at`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.PaymentMethodConfig
	for rows.Next() {
		m, err := scanMethod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r sqlMethods) Save(ctx context.Context, m *model.PaymentMethodConfig) error {
	_, err := r.s.exec(ctx, `INSERT INTO payment_methods (`+methodColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.MerchantID, string(m.Provider), m.Name, m.Description, string(m.Status), nullJSON(m.Config),
		m.Limits.MinAmount, m.Limits.MaxAmount, m.Limits.DailyLimit, m.Limits.MonthlyLimit, m.Limits.Currency,
		m.Fees.Percentage, m.Fees.Fixed,
		m.Usage.Count, m.Usage.TotalVolume, nullMicros(m.Usage.LastUsedAt), m.IsEnabled, m.IsDefault, m.Priority,
		micros(m.CreatedAt), micros(m.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save payment method: %w", err)
	}
	return nil
}

// Update writes every column except the usage counters.
func (r sqlMethods) Update(ctx context.Context, m *model.PaymentMethodConfig) error {
	res, err := r.s.exec(ctx, `UPDATE payment_methods SET
		name = ?, description = ?, status = ?, config = ?,
		min_amount = ?, max_amount = ?, daily_limit = ?, monthly_limit = ?, currency = ?,
		fee_percentage = ?, fee_fixed = ?, is_enabled = ?, is_default = ?, priority = ?, updated_at = ?
		WHERE id = ?`,
		m.Name, m.Description, string(m.Status), nullJSON(m.Config),
		m.Limits.MinAmount, m.Limits.MaxAmount, m.Limits.DailyLimit, m.Limits.MonthlyLimit, m.Limits.Currency,
		m.Fees.Percentage, m.Fees.Fixed, m.IsEnabled, m.IsDefault, m.Priority, micros(m.UpdatedAt),
		m.ID)
	if err != nil {
		return fmt.Errorf("failed to update payment method: %w", err)
	}
	return requireRow(res)
}

// RecordUsage increments the counters in one statement on PostgreSQL. SQLite
// keeps decimals as text, so it reads and writes inside an immediate
// transaction, which holds the write lock for the duration.
func (r sqlMethods) RecordUsage(ctx context.Context, id string, amount decimal.Decimal, at time.Time) error {
	if r.s.dialect.name == "postgres" {
		res, err := r.s.exec(ctx, `UPDATE payment_methods SET
			usage_count = usage_count + 1, total_volume = total_volume + ?, last_used_at = ?, updated_at = ?
			WHERE id = ?`, amount, micros(at), micros(at), id)
		if err != nil {
			return err
		}
		return requireRow(res)
	}

	return retryOperation(ctx, func() error {
		tx, err := r.s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var volume decimal.Decimal
		if err := tx.QueryRowContext(ctx, `SELECT total_volume FROM payment_methods WHERE id = ?`, id).Scan(&volume); err != nil {
			return translate(err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE payment_methods SET
			usage_count = usage_count + 1, total_volume = ?, last_used_at = ?, updated_at = ?
			WHERE id = ?`, volume.Add(amount), micros(at), micros(at), id); err != nil {
			return err
		}
		return tx.Commit()
	}, 3)
}

const transactionColumns = `transaction_id, merchant_id, order_id, payment_method_id, provider,
	amount, fee, currency, status, description, failure_reason, provider_response,
	expires_at, created_at, processed_at, completed_at, updated_at`

type sqlTransactions struct{ s *SQL }

func scanTransaction(row rowScanner) (*model.Transaction, error) {
	var (
		t                    model.Transaction
		response             []byte
		expiresAt, createdAt int64
		updatedAt            int64
		processedAt          sql.NullInt64
		completedAt          sql.NullInt64
	)
	err := row.Scan(&t.TransactionID, &t.MerchantID, &t.OrderID, &t.PaymentMethodID, &t.Provider,
		&t.Amount, &t.Fee, &t.Currency, &t.Status, &t.Description, &t.FailureReason, &response,
		&expiresAt, &createdAt, &processedAt, &completedAt, &updatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if len(response) > 0 {
		t.ProviderResponse = json.RawMessage(response)
	}
	t.ExpiresAt = fromMicros(expiresAt)
	t.CreatedAt = fromMicros(createdAt)
	t.ProcessedAt = fromNullMicros(processedAt)
	t.CompletedAt = fromNullMicros(completedAt)
	t.UpdatedAt = fromMicros(updatedAt)
	return &t, nil
}

func (r sqlTransactions) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	return scanTransaction(r.s.queryRow(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE transaction_id = ?`, id))
}

func (r sqlTransactions) FindByMerchant(ctx context.Context, merchantID string, f payment.TransactionFilter) ([]*model.Transaction, error) {
	var (
		where = []string{"merchant_id = ?"}
		args  = []any{merchantID}
	)
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	if !f.From.IsZero() {
		where = append(where, "created_at >= ?")
		args = append(args, micros(f.From))
	}
	if !f.To.IsZero() {
		where = append(where, "created_at < ?")
		args = append(args, micros(f.To))
	}

	rows, err := r.s.query(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE `+
		strings.Join(where, " AND ")+` ORDER BY created_at`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r sqlTransactions) Save(ctx context.Context, t *model.Transaction) error {
	_, err := r.s.exec(ctx, `INSERT INTO transactions (`+transactionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TransactionID, t.MerchantID, t.OrderID, t.PaymentMethodID, string(t.Provider),
		t.Amount, t.Fee, t.Currency, string(t.Status), t.Description, t.FailureReason, nullJSON(t.ProviderResponse),
		micros(t.ExpiresAt), micros(t.CreatedAt), nullMicros(t.ProcessedAt), nullMicros(t.CompletedAt), micros(t.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save transaction: %w", err)
	}
	return nil
}

// UpdateStatus is a compare-and-set on the status column.
func (r sqlTransactions) UpdateStatus(ctx context.Context, id string, expected model.TransactionStatus, u model.StatusUpdate) (bool, error) {
	var reason any
	if u.FailureReason != nil {
		reason = *u.FailureReason
	}
	res, err := r.s.exec(ctx, `UPDATE transactions SET
		status = ?,
		failure_reason = COALESCE(?, failure_reason),
		provider_response = COALESCE(?, provider_response),
		processed_at = COALESCE(?, processed_at),
		completed_at = COALESCE(?, completed_at),
		updated_at = ?
		WHERE transaction_id = ? AND status = ?`,
		string(u.Status), reason, nullJSON(u.ProviderResponse), nullMicros(u.ProcessedAt), nullMicros(u.CompletedAt),
		micros(u.UpdatedAt), id, string(expected))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 1 {
		return true, nil
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return false, err
	}
	return false, nil
}

func (r sqlTransactions) SumVolume(ctx context.Context, methodID string, from, to time.Time) (decimal.Decimal, error) {
	rows, err := r.s.query(ctx, `SELECT amount FROM transactions
		WHERE payment_method_id = ? AND status NOT IN (?, ?) AND created_at >= ? AND created_at < ?`,
		methodID, string(model.StatusFailed), string(model.StatusCancelled), micros(from), micros(to))
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount decimal.Decimal
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(amount)
	}
	return total, rows.Err()
}

const orderColumns = `id, order_number, merchant_id, status, subtotal, tax, shipping, discount, total,
	currency, customer, thai, notes, confirmed_at, created_at, updated_at`

type sqlOrders struct{ s *SQL }

func scanOrder(row rowScanner) (*model.Order, error) {
	var (
		o                    model.Order
		customer, thai       []byte
		confirmedAt          sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.MerchantID, &o.Status, &o.Subtotal, &o.Tax, &o.Shipping, &o.Discount, &o.Total,
		&o.Currency, &customer, &thai, &o.Notes, &confirmedAt, &createdAt, &updatedAt)
	if err != nil {
		return nil, translate(err)
	}
	if len(customer) > 0 {
		if err := json.Unmarshal(customer, &o.Customer); err != nil {
			return nil, fmt.Errorf("failed to decode customer: %w", err)
		}
	}
	if len(thai) > 0 {
		if err := json.Unmarshal(thai, &o.Thai); err != nil {
			return nil, fmt.Errorf("failed to decode thai details: %w", err)
		}
	}
	o.ConfirmedAt = fromNullMicros(confirmedAt)
	o.CreatedAt = fromMicros(createdAt)
	o.UpdatedAt = fromMicros(updatedAt)
	return &o, nil
}

func (r sqlOrders) FindByID(ctx context.Context, id string) (*model.Order, error) {
	return scanOrder(r.s.queryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, id))
}

func (r sqlOrders) FindByMerchant(ctx context.Context, merchantID string) ([]*model.Order, error) {
	rows, err := r.s.query(ctx, `SELECT `+orderColumns+` FROM orders WHERE merchant_id = ? ORDER BY created_at DESC`, merchantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r sqlOrders) Save(ctx context.Context, o *model.Order) error {
	customer, err := json.Marshal(o.Customer)
	if err != nil {
		return err
	}
	thai, err := json.Marshal(o.Thai)
	if err != nil {
		return err
	}
	_, err = r.s.exec(ctx, `INSERT INTO orders (`+orderColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.OrderNumber, o.MerchantID, string(o.Status), o.Subtotal, o.Tax, o.Shipping, o.Discount, o.Total,
		o.Currency, string(customer), string(thai), o.Notes, nullMicros(o.ConfirmedAt), micros(o.CreatedAt), micros(o.UpdatedAt))
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

func (r sqlOrders) SetStatus(ctx context.Context, id string, status model.OrderStatus, at time.Time) error {
	var confirmedAt any
	if status == model.OrderConfirmed {
		confirmedAt = micros(at)
	}
	res, err := r.s.exec(ctx, `UPDATE orders SET
		status = ?, confirmed_at = COALESCE(confirmed_at, ?), updated_at = ?
		WHERE id = ?`, string(status), confirmedAt, micros(at), id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
