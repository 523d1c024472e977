package service

import (
	"context"

	"pharmacy-backend/internal/model"
	"pharmacy-backend/internal/repository"

	"github.com/google/uuid"
)

type AuditService interface {
	ListLogs(ctx context.Context, doctorID uuid.UUID, action string, page, limit int) ([]model.AuditLog, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) ListLogs(ctx context.Context, doctorID uuid.UUID, action string, page, limit int) ([]model.AuditLog, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.auditRepo.List(ctx, doctorID, action, page, limit)
}
