// Package sqlite implements the store ports on SQLite. It is thin I/O:
// every method is a single statement (plus the allocation rows of a
// payment), and balance adjustments are expressed as SQL increments so
// concurrent postings cannot lose updates.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"khata/internal/core"
	"khata/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func joinTags(tags []string) string {
	return strings.Join(tags, ",")
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

const labourColumns = `id, code, org, name, gender, status, tags, vehicle_id,
	current_balance, total_earned, total_paid, opening_balance,
	pair_id, is_linked, created_at, updated_at`

func scanLabour(row interface{ Scan(...any) error }) (core.Labour, error) {
	var l core.Labour
	var tags string
	err := row.Scan(&l.ID, &l.Code, &l.Org, &l.Name, &l.Gender, &l.Status, &tags,
		&l.VehicleID, &l.CurrentBalance.Paise, &l.TotalEarned.Paise,
		&l.TotalPaid.Paise, &l.OpeningBalance.Paise, &l.PairID, &l.IsLinked,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return core.Labour{}, err
	}
	l.Tags = splitTags(tags)
	return l, nil
}

func (s *Store) CreateLabour(ctx context.Context, l core.Labour) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO labours (id, code, org, name, gender, status, tags, vehicle_id,
			current_balance, total_earned, total_paid, opening_balance,
			pair_id, is_linked, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ID, l.Code, l.Org, l.Name, l.Gender, l.Status, joinTags(l.Tags), l.VehicleID,
		l.CurrentBalance.Paise, l.TotalEarned.Paise, l.TotalPaid.Paise,
		l.OpeningBalance.Paise, l.PairID, l.IsLinked, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert labour: %w", err)
	}
	return nil
}

func (s *Store) GetLabour(ctx context.Context, id string) (core.Labour, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+labourColumns+` FROM labours WHERE id = ?`, id)
	l, err := scanLabour(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Labour{}, store.ErrNotFound
	}
	if err != nil {
		return core.Labour{}, fmt.Errorf("get labour: %w", err)
	}
	return l, nil
}

func (s *Store) GetLabourByCode(ctx context.Context, org, code string) (core.Labour, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+labourColumns+` FROM labours WHERE org = ? AND code = ? COLLATE NOCASE`, org, code)
	l, err := scanLabour(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Labour{}, store.ErrNotFound
	}
	if err != nil {
		return core.Labour{}, fmt.Errorf("get labour by code: %w", err)
	}
	return l, nil
}

func (s *Store) UpdateLabour(ctx context.Context, id string, upd store.LabourUpdate) error {
	sets := []string{"updated_at = CURRENT_TIMESTAMP"}
	var args []any
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.Gender != nil {
		sets = append(sets, "gender = ?")
		args = append(args, *upd.Gender)
	}
	if upd.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *upd.Status)
	}
	if upd.Tags != nil {
		sets = append(sets, "tags = ?")
		args = append(args, joinTags(*upd.Tags))
	}
	if upd.VehicleID != nil {
		sets = append(sets, "vehicle_id = ?")
		args = append(args, *upd.VehicleID)
	}
	if upd.OpeningBalance != nil {
		sets = append(sets, "opening_balance = ?")
		args = append(args, upd.OpeningBalance.Paise)
	}
	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE labours SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("update labour: %w", err)
	}
	return requireRow(res)
}

func (s *Store) DeleteLabour(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM labours WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete labour: %w", err)
	}
	return requireRow(res)
}

func (s *Store) ListLabours(ctx context.Context, f store.LabourFilter) ([]core.Labour, error) {
	query := `SELECT ` + labourColumns + ` FROM labours WHERE 1=1`
	var args []any
	if f.Org != "" {
		query += ` AND org = ?`
		args = append(args, f.Org)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY name`
	if f.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, f.Limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list labours: %w", err)
	}
	defer rows.Close()
	var out []core.Labour
	for rows.Next() {
		l, err := scanLabour(rows)
		if err != nil {
			return nil, fmt.Errorf("scan labour: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) SetLabourLink(ctx context.Context, id, pairID string, linked bool, balance core.Money) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE labours
		SET pair_id = ?, is_linked = ?, current_balance = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		pairID, linked, balance.Paise, id)
	if err != nil {
		return fmt.Errorf("set labour link: %w", err)
	}
	return requireRow(res)
}

func (s *Store) AdjustLabourBalance(ctx context.Context, id string, balanceDelta, earnedDelta, paidDelta core.Money) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE labours
		SET current_balance = current_balance + ?,
		    total_earned = total_earned + ?,
		    total_paid = total_paid + ?,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = ?`,
		balanceDelta.Paise, earnedDelta.Paise, paidDelta.Paise, id)
	if err != nil {
		return fmt.Errorf("adjust labour balance: %w", err)
	}
	return requireRow(res)
}

func (s *Store) CreatePair(ctx context.Context, p core.LinkedPair) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO linked_pairs (id, org, member_a, member_b, status, shared_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Org, p.MemberA, p.MemberB, p.Status, p.SharedBalance.Paise, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert linked pair: %w", err)
	}
	return nil
}

func (s *Store) GetPair(ctx context.Context, id string) (core.LinkedPair, error) {
	var p core.LinkedPair
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org, member_a, member_b, status, shared_balance, created_at
		FROM linked_pairs WHERE id = ?`, id).
		Scan(&p.ID, &p.Org, &p.MemberA, &p.MemberB, &p.Status, &p.SharedBalance.Paise, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.LinkedPair{}, store.ErrNotFound
	}
	if err != nil {
		return core.LinkedPair{}, fmt.Errorf("get linked pair: %w", err)
	}
	return p, nil
}

func (s *Store) DeletePair(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM linked_pairs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete linked pair: %w", err)
	}
	return requireRow(res)
}

func (s *Store) ListPairs(ctx context.Context, org string) ([]core.LinkedPair, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org, member_a, member_b, status, shared_balance, created_at
		FROM linked_pairs WHERE org = ? ORDER BY created_at`, org)
	if err != nil {
		return nil, fmt.Errorf("list linked pairs: %w", err)
	}
	defer rows.Close()
	var out []core.LinkedPair
	for rows.Next() {
		var p core.LinkedPair
		if err := rows.Scan(&p.ID, &p.Org, &p.MemberA, &p.MemberB, &p.Status,
			&p.SharedBalance.Paise, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan linked pair: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) AdjustPairBalance(ctx context.Context, id string, delta core.Money) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE linked_pairs SET shared_balance = shared_balance + ? WHERE id = ?`,
		delta.Paise, id)
	if err != nil {
		return fmt.Errorf("adjust pair balance: %w", err)
	}
	return requireRow(res)
}

func (s *Store) CreateWageEntry(ctx context.Context, e core.WageEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO wage_entries (id, org, labour_id, amount, description, category, batch_id, synced, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Org, e.LabourID, e.Amount.Paise, e.Description, e.Category, e.BatchID, e.Synced, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert wage entry: %w", err)
	}
	return nil
}

func (s *Store) GetWageEntry(ctx context.Context, id string) (core.WageEntry, error) {
	var e core.WageEntry
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org, labour_id, amount, description, category, batch_id, synced, created_at
		FROM wage_entries WHERE id = ?`, id).
		Scan(&e.ID, &e.Org, &e.LabourID, &e.Amount.Paise, &e.Description,
			&e.Category, &e.BatchID, &e.Synced, &e.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.WageEntry{}, store.ErrNotFound
	}
	if err != nil {
		return core.WageEntry{}, fmt.Errorf("get wage entry: %w", err)
	}
	return e, nil
}

func (s *Store) ListWageEntries(ctx context.Context, f store.WageFilter) ([]core.WageEntry, error) {
	query := `SELECT id, org, labour_id, amount, description, category, batch_id, synced, created_at
		FROM wage_entries WHERE 1=1`
	var args []any
	if f.Org != "" {
		query += ` AND org = ?`
		args = append(args, f.Org)
	}
	if len(f.LabourIDs) > 0 {
		query += ` AND labour_id IN (?` + strings.Repeat(",?", len(f.LabourIDs)-1) + `)`
		for _, id := range f.LabourIDs {
			args = append(args, id)
		}
	}
	if !f.From.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		query += ` AND created_at <= ?`
		args = append(args, f.To)
	}
	if f.Category != "" {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	query += ` ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list wage entries: %w", err)
	}
	defer rows.Close()
	var out []core.WageEntry
	for rows.Next() {
		var e core.WageEntry
		if err := rows.Scan(&e.ID, &e.Org, &e.LabourID, &e.Amount.Paise, &e.Description,
			&e.Category, &e.BatchID, &e.Synced, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wage entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ListUnsyncedWageEntries(ctx context.Context, limit int) ([]core.WageEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, org, labour_id, amount, description, category, batch_id, synced, created_at
		FROM wage_entries WHERE synced = 0 ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list unsynced wage entries: %w", err)
	}
	defer rows.Close()
	var out []core.WageEntry
	for rows.Next() {
		var e core.WageEntry
		if err := rows.Scan(&e.ID, &e.Org, &e.LabourID, &e.Amount.Paise, &e.Description,
			&e.Category, &e.BatchID, &e.Synced, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan wage entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) MarkWageEntrySynced(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE wage_entries SET synced = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark wage entry synced: %w", err)
	}
	return requireRow(res)
}

func (s *Store) CreatePayment(ctx context.Context, p core.Payment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, org, pair_id, total, description, paid_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Org, p.PairID, p.Total.Paise, p.Description, p.Date, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", err)
	}
	for _, a := range p.Allocations {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO payment_allocations (payment_id, labour_id, amount)
			VALUES (?, ?, ?)`,
			p.ID, a.LabourID, a.Amount.Paise)
		if err != nil {
			return fmt.Errorf("insert payment allocation: %w", err)
		}
	}
	return tx.Commit()
}

func (s *Store) ListPayments(ctx context.Context, f store.PaymentFilter) ([]core.Payment, error) {
	query := `SELECT id, org, pair_id, total, description, paid_at, created_at
		FROM payments WHERE 1=1`
	var args []any
	if f.Org != "" {
		query += ` AND org = ?`
		args = append(args, f.Org)
	}
	if f.PairID != "" {
		query += ` AND pair_id = ?`
		args = append(args, f.PairID)
	}
	if f.LabourID != "" {
		query += ` AND id IN (SELECT payment_id FROM payment_allocations WHERE labour_id = ?)`
		args = append(args, f.LabourID)
	}
	if !f.From.IsZero() {
		query += ` AND paid_at >= ?`
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		query += ` AND paid_at <= ?`
		args = append(args, f.To)
	}
	query += ` ORDER BY paid_at`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var out []core.Payment
	for rows.Next() {
		var p core.Payment
		if err := rows.Scan(&p.ID, &p.Org, &p.PairID, &p.Total.Paise, &p.Description,
			&p.Date, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		allocs, err := s.listAllocations(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Allocations = allocs
	}
	return out, nil
}

func (s *Store) listAllocations(ctx context.Context, paymentID string) ([]core.PaymentAllocation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT labour_id, amount FROM payment_allocations WHERE payment_id = ?`, paymentID)
	if err != nil {
		return nil, fmt.Errorf("list payment allocations: %w", err)
	}
	defer rows.Close()
	var out []core.PaymentAllocation
	for rows.Next() {
		var a core.PaymentAllocation
		if err := rows.Scan(&a.LabourID, &a.Amount.Paise); err != nil {
			return nil, fmt.Errorf("scan payment allocation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) CreateAdjustment(ctx context.Context, a core.Adjustment) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO adjustments (id, org, labour_id, pair_id, kind, amount, description, posted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Org, a.LabourID, a.PairID, a.Kind, a.Amount.Paise, a.Description, a.Date)
	if err != nil {
		return fmt.Errorf("insert adjustment: %w", err)
	}
	return nil
}

func (s *Store) ListAdjustments(ctx context.Context, f store.AdjustmentFilter) ([]core.Adjustment, error) {
	query := `SELECT id, org, labour_id, pair_id, kind, amount, description, posted_at
		FROM adjustments WHERE 1=1`
	var args []any
	if f.Org != "" {
		query += ` AND org = ?`
		args = append(args, f.Org)
	}
	if f.PairID != "" {
		query += ` AND pair_id = ?`
		args = append(args, f.PairID)
	}
	if len(f.LabourIDs) > 0 {
		query += ` AND labour_id IN (?` + strings.Repeat(",?", len(f.LabourIDs)-1) + `)`
		for _, id := range f.LabourIDs {
			args = append(args, id)
		}
	}
	if !f.From.IsZero() {
		query += ` AND posted_at >= ?`
		args = append(args, f.From)
	}
	if !f.To.IsZero() {
		query += ` AND posted_at <= ?`
		args = append(args, f.To)
	}
	query += ` ORDER BY posted_at`
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list adjustments: %w", err)
	}
	defer rows.Close()
	var out []core.Adjustment
	for rows.Next() {
		var a core.Adjustment
		if err := rows.Scan(&a.ID, &a.Org, &a.LabourID, &a.PairID, &a.Kind,
			&a.Amount.Paise, &a.Description, &a.Date); err != nil {
			return nil, fmt.Errorf("scan adjustment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

var _ store.Store = (*Store)(nil)
