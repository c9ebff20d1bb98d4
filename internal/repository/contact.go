package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"lifeband-data/internal/domain"
)

// ContactRepository 紧急联系人只读仓库
type ContactRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewContactRepository 创建紧急联系人仓库
func NewContactRepository(db *sql.DB, logger *zap.Logger) *ContactRepository {
	return &ContactRepository{
		db:     db,
		logger: logger,
	}
}

// ListByUser 获取用户的全部紧急联系人
func (r *ContactRepository) ListByUser(ctx context.Context, userID string) ([]domain.EmergencyContact, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}

	query := `
		SELECT contact_id, user_id, name, phone, relationship
		FROM emergency_contacts
		WHERE user_id = $1
		ORDER BY name
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query emergency contacts: %w", err)
	}
	defer rows.Close()

	contacts := make([]domain.EmergencyContact, 0)
	for rows.Next() {
		var contact domain.EmergencyContact
		var relationship sql.NullString

		if err := rows.Scan(
			&contact.ContactID,
			&contact.UserID,
			&contact.Name,
			&contact.Phone,
			&relationship,
		); err != nil {
			return nil, fmt.Errorf("failed to scan emergency contact: %w", err)
		}
		contact.Relationship = relationship.String

		contacts = append(contacts, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate emergency contacts: %w", err)
	}

	return contacts, nil
}
