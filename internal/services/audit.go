package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kurbezz/shared-lists/internal/models"
	"github.com/kurbezz/shared-lists/pkg/logger"
	"github.com/kurbezz/shared-lists/pkg/utils"
	"gorm.io/gorm"
)

var auditExportBatchSize = 10000

type AuditEntry struct {
	UserID       *uuid.UUID
	PageID       *uuid.UUID
	Action       string
	ResourceType string
	ResourceID   *uuid.UUID
	Details      map[string]interface{}
	IPAddress    string
	RequestID    string
}

// ObjectUploader is the slice of the object store the exporter needs.
type ObjectUploader interface {
	Upload(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error
}

type AuditService struct {
	DB      *gorm.DB
	Storage ObjectUploader

	queue     chan models.AuditLog
	done      chan struct{}
	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewAuditService(db *gorm.DB, storage ObjectUploader, queueSize int) *AuditService {
	if queueSize <= 0 {
		queueSize = 1000
	}
	s := &AuditService{
		DB:      db,
		Storage: storage,
		queue:   make(chan models.AuditLog, queueSize),
		done:    make(chan struct{}),
	}
	go s.processQueue()
	return s
}

// LogAsync enqueues an entry without blocking the request. Entries are
// dropped, with a warning, when the queue is full.
func (s *AuditService) LogAsync(entry AuditEntry) {
	row := models.AuditLog{
		UserID:       entry.UserID,
		PageID:       entry.PageID,
		Action:       entry.Action,
		ResourceType: entry.ResourceType,
		ResourceID:   entry.ResourceID,
		Details:      entry.Details,
		IPAddress:    entry.IPAddress,
		RequestID:    entry.RequestID,
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		logger.Warn("audit_log_after_close", map[string]interface{}{
			"action": entry.Action,
		})
		return
	}

	select {
	case s.queue <- row:
	default:
		logger.Warn("audit_queue_full", map[string]interface{}{
			"action":  entry.Action,
			"dropped": true,
		})
	}
}

// Close stops accepting entries and waits until the queued ones are written.
func (s *AuditService) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		close(s.queue)
		s.mu.Unlock()
	})
	<-s.done
}

func (s *AuditService) processQueue() {
	defer close(s.done)
	for row := range s.queue {
		// Stamped at insert so created_at follows insertion order.
		row.CreatedAt = time.Now().UTC()
		if err := s.DB.Create(&row).Error; err != nil {
			logger.Error("audit_log_insert_failed", err, map[string]interface{}{
				"action": row.Action,
			})
		}
	}
}

func (s *AuditService) PageActivity(ctx context.Context, pageID uuid.UUID, p utils.PaginationParams) ([]models.AuditLog, int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("page_id = ?", pageID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	logs := []models.AuditLog{}
	query := s.DB.WithContext(ctx).
		Where("page_id = ?", pageID).
		Order("created_at DESC")
	err := utils.ApplyPagination(query, p).Find(&logs).Error
	return logs, total, err
}

// StartExporter periodically ships new audit rows to object storage as
// NDJSON. It returns immediately when no storage is configured.
func (s *AuditService) StartExporter(ctx context.Context, interval time.Duration) {
	if s.Storage == nil {
		logger.Info("audit_exporter_disabled", map[string]interface{}{
			"reason": "no storage client configured",
		})
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := s.ExportOnce(ctx); err != nil {
					logger.Error("audit_export_failed", err, nil)
				}
			}
		}
	}()

	logger.Info("audit_exporter_started", map[string]interface{}{
		"interval": interval.String(),
	})
}

// ExportOnce uploads every row not yet exported, oldest first and at most
// auditExportBatchSize per call, then marks them exported.
func (s *AuditService) ExportOnce(ctx context.Context) (int, error) {
	if s.Storage == nil {
		return 0, errors.New("audit export storage not configured")
	}

	db := s.DB.WithContext(ctx)

	var cursor models.AuditExportCursor
	if err := db.First(&cursor).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("load export cursor: %w", err)
		}
		cursor = models.AuditExportCursor{
			LastExportAt: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
		}
		if err := db.Create(&cursor).Error; err != nil {
			return 0, fmt.Errorf("create export cursor: %w", err)
		}
	}

	var logs []models.AuditLog
	if err := db.Where("exported_at IS NULL").
		Order("created_at ASC").
		Order("id ASC").
		Limit(auditExportBatchSize).
		Find(&logs).Error; err != nil {
		return 0, fmt.Errorf("query audit logs: %w", err)
	}
	if len(logs) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	ids := make([]uuid.UUID, 0, len(logs))
	for _, row := range logs {
		if err := enc.Encode(row); err != nil {
			return 0, fmt.Errorf("encode audit log %s: %w", row.ID, err)
		}
		ids = append(ids, row.ID)
	}

	now := time.Now().UTC()
	objectName := fmt.Sprintf("audit-logs/%s/%s-%s.ndjson",
		now.Format("2006/01/02"),
		now.Format("15-04-05"),
		logs[0].ID,
	)

	if err := s.Storage.Upload(ctx, objectName, &buf, int64(buf.Len()), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("upload %s: %w", objectName, err)
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.AuditLog{}).
			Where("id IN ?", ids).
			Update("exported_at", now).Error; err != nil {
			return err
		}
		return tx.Model(&cursor).Updates(map[string]interface{}{
			"last_export_at": now,
			"exported_count": gorm.Expr("exported_count + ?", len(logs)),
		}).Error
	})
	if err != nil {
		return 0, fmt.Errorf("mark audit logs exported: %w", err)
	}

	logger.Info("audit_export_success", map[string]interface{}{
		"object_name": objectName,
		"count":       len(logs),
	})

	return len(logs), nil
}
