package services

import (
	"encoding/json"

	"gorm.io/gorm"

	"moneta/internal/logger"
	"moneta/internal/models"
)

// AuditService records API mutations for traceability. Logging is
// best-effort: a failed audit write never fails the request that caused it.
type AuditService struct {
	db *gorm.DB
}

// NewAuditService creates a new AuditService.
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Log writes an audit entry for a mutation.
func (s *AuditService) Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]interface{}) {
	entry := models.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
		IPAddress:    ipAddress,
	}

	if changes != nil {
		data, err := json.Marshal(changes)
		if err != nil {
			logger.Get().Warnw("failed to marshal audit changes", "error", err)
		} else {
			entry.Changes = string(data)
		}
	}

	if err := s.db.Create(&entry).Error; err != nil {
		logger.Get().Errorw("failed to write audit log",
			"action", action,
			"resource_type", resourceType,
			"error", err,
		)
	}
}
