package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	"tillpoint/internal/domain/audit"
)

const auditTable = "audit_log"

// CompressionAlgo marks how a stored snapshot payload is encoded.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// compressedSnapshots is the payload stored when entry snapshots are
// large enough to compress.
type compressedSnapshots struct {
	Before json.RawMessage `json:"before,omitempty"`
	After  json.RawMessage `json:"after,omitempty"`
}

// AuditRepo implements audit.Repository. Large before/after snapshots
// (full sale bodies can exceed 10KB) are zstd-compressed into a single
// bytea column.
type AuditRepo struct {
	txm     *TxManager
	builder squirrel.StatementBuilderType

	encoder *zstd.Encoder
	decoder *zstd.Decoder

	compressThreshold int
}

var _ audit.Repository = (*AuditRepo)(nil)

// NewAuditRepo creates a new audit repository.
func NewAuditRepo(txm *TxManager) (*AuditRepo, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditRepo{
		txm:               txm,
		builder:           squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Insert appends an audit entry within the caller's transaction.
func (r *AuditRepo) Insert(ctx context.Context, entry audit.Entry) error {
	before := entry.Before
	after := entry.After
	var compressed []byte
	algo := CompressionNone

	if len(before)+len(after) > r.compressThreshold {
		payload, err := json.Marshal(compressedSnapshots{Before: before, After: after})
		if err != nil {
			return fmt.Errorf("marshal snapshots: %w", err)
		}
		compressed = r.encoder.EncodeAll(payload, nil)
		algo = CompressionZstd
		before, after = nil, nil
	}

	q := r.builder.Insert(auditTable).
		Columns(
			"id", "tenant_id", "action", "entity_type", "entity_id", "actor_id",
			"before_state", "after_state", "snapshots_compressed", "compression_algo",
			"metadata", "created_at",
		).
		Values(
			entry.ID, entry.TenantID, entry.Action, entry.EntityType, entry.EntityID, entry.ActorID,
			before, after, compressed, algo,
			entry.Metadata, entry.CreatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// auditRow is the storage shape of an audit entry.
type auditRow struct {
	audit.Entry
	SnapshotsCompressed []byte          `db:"snapshots_compressed"`
	Algo                CompressionAlgo `db:"compression_algo"`
}

// Feed returns entries for the activity-log viewer, newest first.
func (r *AuditRepo) Feed(ctx context.Context, tenantID string, filter audit.Filter) ([]audit.Entry, error) {
	q := r.builder.Select(
		"id", "tenant_id", "action", "entity_type", "entity_id", "actor_id",
		"before_state", "after_state", "snapshots_compressed", "compression_algo",
		"metadata", "created_at",
	).
		From(auditTable).
		Where(squirrel.Eq{"tenant_id": tenantID}).
		OrderBy("created_at DESC").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	if filter.Action != "" {
		q = q.Where(squirrel.Eq{"action": filter.Action})
	}
	if filter.EntityType != "" {
		q = q.Where(squirrel.Eq{"entity_type": filter.EntityType})
	}
	if filter.EntityID != "" {
		q = q.Where(squirrel.Eq{"entity_id": filter.EntityID})
	}
	if filter.ActorID != "" {
		q = q.Where(squirrel.Eq{"actor_id": filter.ActorID})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *filter.ToDate})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []auditRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select audit entries: %w", err)
	}

	entries := make([]audit.Entry, 0, len(rows))
	for _, row := range rows {
		entry := row.Entry
		if row.Algo == CompressionZstd && len(row.SnapshotsCompressed) > 0 {
			payload, err := r.decoder.DecodeAll(row.SnapshotsCompressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress snapshots: %w", err)
			}
			var snaps compressedSnapshots
			if err := json.Unmarshal(payload, &snaps); err != nil {
				return nil, fmt.Errorf("unmarshal snapshots: %w", err)
			}
			entry.Before = snaps.Before
			entry.After = snaps.After
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
