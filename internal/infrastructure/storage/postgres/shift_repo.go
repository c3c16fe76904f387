package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"tillpoint/internal/core/apperror"
	"tillpoint/internal/core/id"
	"tillpoint/internal/core/types"
	"tillpoint/internal/domain/shift"
)

const shiftsTable = "shifts"

var shiftColumns = []string{
	"id", "tenant_id", "register_id", "cashier_id", "opening_cash",
	"closing_cash", "expected_cash", "status", "opened_at", "closed_at",
}

// ShiftRepo implements shift.Repository. The single-open-shift rule is
// backed by a partial unique index on (tenant_id, register_id) WHERE
// status = 'open'.
type ShiftRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType
}

var _ shift.Repository = (*ShiftRepo)(nil)

// NewShiftRepo creates a new shift repository.
func NewShiftRepo(txm *TxManager) *ShiftRepo {
	return &ShiftRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *ShiftRepo) Create(ctx context.Context, s *shift.Shift) error {
	q := r.builder.Insert(shiftsTable).
		Columns(shiftColumns...).
		Values(
			s.ID, s.TenantID, s.RegisterID, s.CashierID, s.OpeningCash,
			s.ClosingCash, s.ExpectedCash, s.Status, s.OpenedAt, s.ClosedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		if isUniqueViolation(err) {
			return apperror.NewShiftAlreadyOpen(s.RegisterID, "")
		}
		return fmt.Errorf("insert shift: %w", err)
	}
	return nil
}

func (r *ShiftRepo) GetByID(ctx context.Context, tenantID string, shiftID id.ID) (*shift.Shift, error) {
	return r.getByID(ctx, tenantID, shiftID, false)
}

func (r *ShiftRepo) GetByIDForUpdate(ctx context.Context, tenantID string, shiftID id.ID) (*shift.Shift, error) {
	return r.getByID(ctx, tenantID, shiftID, true)
}

func (r *ShiftRepo) getByID(ctx context.Context, tenantID string, shiftID id.ID, forUpdate bool) (*shift.Shift, error) {
	q := r.builder.Select(shiftColumns...).
		From(shiftsTable).
		Where(squirrel.Eq{"tenant_id": tenantID, "id": shiftID})
	if forUpdate {
		q = q.Suffix("FOR UPDATE")
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var s shift.Shift
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("shift", shiftID.String())
		}
		return nil, fmt.Errorf("select shift: %w", err)
	}

	return &s, nil
}

func (r *ShiftRepo) GetOpenByRegister(ctx context.Context, tenantID, registerID string) (*shift.Shift, error) {
	q := r.builder.Select(shiftColumns...).
		From(shiftsTable).
		Where(squirrel.Eq{
			"tenant_id":   tenantID,
			"register_id": registerID,
			"status":      shift.StatusOpen,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var s shift.Shift
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &s, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select open shift: %w", err)
	}

	return &s, nil
}

// Close writes the closing fields. The status guard makes the
// transition one-way even under concurrent closes.
func (r *ShiftRepo) Close(ctx context.Context, s *shift.Shift) error {
	q := r.builder.Update(shiftsTable).
		Set("closing_cash", s.ClosingCash).
		Set("expected_cash", s.ExpectedCash).
		Set("status", shift.StatusClosed).
		Set("closed_at", s.ClosedAt).
		Where(squirrel.Eq{
			"tenant_id": s.TenantID,
			"id":        s.ID,
			"status":    shift.StatusOpen,
		})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("close shift: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConflict(fmt.Sprintf("shift %s is already closed", s.ID))
	}

	return nil
}

// SumShiftPayments returns sum(amount_tendered - change_given) over
// payments whose sale belongs to the shift.
func (r *ShiftRepo) SumShiftPayments(ctx context.Context, tenantID string, shiftID id.ID) (types.MinorUnits, error) {
	sql := `
		SELECT COALESCE(SUM(p.amount_tendered - p.change_given), 0)
		FROM payments p
		JOIN sales s ON s.id = p.sale_id
		WHERE s.tenant_id = $1 AND s.shift_id = $2
	`

	var total int64
	if err := r.txm.GetQuerier(ctx).QueryRow(ctx, sql, tenantID, shiftID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum shift payments: %w", err)
	}

	return types.MinorUnits(total), nil
}

func (r *ShiftRepo) List(ctx context.Context, tenantID string, filter shift.ListFilter) ([]*shift.Shift, error) {
	q := r.builder.Select(shiftColumns...).
		From(shiftsTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("opened_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	if filter.RegisterID != "" {
		q = q.Where(squirrel.Eq{"register_id": filter.RegisterID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var shifts []*shift.Shift
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &shifts, sql, args...); err != nil {
		return nil, fmt.Errorf("select shifts: %w", err)
	}

	return shifts, nil
}
