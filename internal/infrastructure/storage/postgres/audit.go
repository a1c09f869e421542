// Package postgres provides PostgreSQL infrastructure components.
package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	appctx "uniformshop/internal/core/context"
	"uniformshop/internal/core/id"
	"uniformshop/internal/domain"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// defaultCompressThreshold is the change payload size above which it is stored compressed.
const defaultCompressThreshold = 4 * 1024

var (
	_ domain.AuditLogger  = (*AuditService)(nil)
	_ domain.AuditHistory = (*AuditService)(nil)
)

// AuditService writes audit records into sys_audit inside the caller's transaction.
type AuditService struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditService creates a new audit service.
func NewAuditService(txManager *TxManager) (*AuditService, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	return &AuditService{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: defaultCompressThreshold,
	}, nil
}

// LogChange implements domain.AuditLogger. The acting user comes from ctx.
func (s *AuditService) LogChange(ctx context.Context, rec domain.AuditRecord) error {
	changes, err := json.Marshal(rec.Changes)
	if err != nil {
		return fmt.Errorf("marshal changes: %w", err)
	}
	plain, compressed, algo := s.pack(changes)

	_, err = s.txManager.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO sys_audit (
			id, entity_type, entity_id, action, user_id,
			changes, changes_compressed, compression_algo, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		id.New(), rec.EntityType, rec.EntityID, rec.Action, appctx.GetUserID(ctx),
		plain, compressed, algo, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// pack keeps small payloads as plain JSON and compresses large ones.
func (s *AuditService) pack(changes []byte) (plain json.RawMessage, compressed []byte, algo CompressionAlgo) {
	if len(changes) > s.compressThreshold {
		return nil, s.encoder.EncodeAll(changes, nil), CompressionZstd
	}
	return changes, nil, CompressionNone
}

func (s *AuditService) unpack(plain json.RawMessage, compressed []byte, algo CompressionAlgo) ([]byte, error) {
	if algo == CompressionZstd && len(compressed) > 0 {
		out, err := s.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress changes: %w", err)
		}
		return out, nil
	}
	return plain, nil
}

// History implements domain.AuditHistory.
func (s *AuditService) History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]domain.AuditEntry, error) {
	rows, err := s.txManager.GetQuerier(ctx).Query(ctx, `
		SELECT id, entity_type, entity_id, action, user_id,
		       changes, changes_compressed, compression_algo, created_at
		FROM sys_audit
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC
		LIMIT $3
	`, entityType, entityID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.AuditEntry, 0)
	for rows.Next() {
		var (
			e          domain.AuditEntry
			plain      json.RawMessage
			compressed []byte
			algo       CompressionAlgo
		)
		if err := rows.Scan(
			&e.ID, &e.EntityType, &e.EntityID, &e.Action, &e.UserID,
			&plain, &compressed, &algo, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		raw, err := s.unpack(plain, compressed, algo)
		if err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &e.Changes); err != nil {
				return nil, fmt.Errorf("decode changes: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
