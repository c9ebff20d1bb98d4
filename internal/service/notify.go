package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lifeband-data/internal/domain"
)

// ContactOutcome 单个联系人的投递结果
type ContactOutcome struct {
	ContactID string `json:"contactId"`
	Name      string `json:"name"`
	Phone     string `json:"phone"` // 归一化后的号码
	Status    string `json:"status"` // sent / failed
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// DeliverySummary 投递汇总
type DeliverySummary struct {
	Total      int `json:"total"`
	Successful int `json:"successful"`
	Failed     int `json:"failed"`
}

// ShareLocationResult 位置分享结果
type ShareLocationResult struct {
	Location domain.Location  `json:"location"`
	Contacts []ContactOutcome `json:"contacts"`
	Summary  DeliverySummary  `json:"summary"`
}

// NotificationDispatcher 紧急通知分发器
// 读取用户最近位置，向全部紧急联系人逐一投递；单个联系人失败不影响其余投递
type NotificationDispatcher struct {
	telemetry          TelemetryStore
	contacts           ContactStore
	activities         ActivityStore
	deliverer          Deliverer
	defaultCountryCode string
	mapLinkBase        string
	logger             *zap.Logger
}

// NewNotificationDispatcher 创建紧急通知分发器
func NewNotificationDispatcher(
	telemetry TelemetryStore,
	contacts ContactStore,
	activities ActivityStore,
	deliverer Deliverer,
	defaultCountryCode string,
	mapLinkBase string,
	logger *zap.Logger,
) *NotificationDispatcher {
	return &NotificationDispatcher{
		telemetry:          telemetry,
		contacts:           contacts,
		activities:         activities,
		deliverer:          deliverer,
		defaultCountryCode: defaultCountryCode,
		mapLinkBase:        mapLinkBase,
		logger:             logger,
	}
}

// ShareLocation 向用户的紧急联系人分享最近位置
// 没有带位置的样本时返回 ErrNoLocationAvailable；
// 完成扇出即视为成功，单个联系人的失败体现在结果列表中
func (d *NotificationDispatcher) ShareLocation(ctx context.Context, userID string) (*ShareLocationResult, error) {
	latest, err := d.telemetry.Latest(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest sample: %w", err)
	}
	if latest == nil || latest.Location == nil {
		return nil, ErrNoLocationAvailable
	}
	location := *latest.Location

	contacts, err := d.contacts.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load emergency contacts: %w", err)
	}

	message := d.composeMessage(location)

	result := &ShareLocationResult{
		Location: location,
		Contacts: make([]ContactOutcome, 0, len(contacts)),
	}

	for _, contact := range contacts {
		phone := NormalizePhone(contact.Phone, d.defaultCountryCode)
		outcome := ContactOutcome{
			ContactID: contact.ContactID,
			Name:      contact.Name,
			Phone:     phone,
		}

		messageID, err := d.deliverer.Deliver(ctx, phone, message)
		if err != nil {
			// 继续投递其余联系人，不中断
			d.logger.Error("Failed to deliver emergency message",
				zap.String("user_id", userID),
				zap.String("contact_id", contact.ContactID),
				zap.Error(err),
			)
			outcome.Status = "failed"
			outcome.Error = err.Error()
			result.Summary.Failed++
		} else {
			outcome.Status = "sent"
			outcome.MessageID = messageID
			result.Summary.Successful++
		}

		result.Summary.Total++
		result.Contacts = append(result.Contacts, outcome)
	}

	// 扇出完成后写一条汇总活动
	status := domain.ActivityStatusSuccess
	if result.Summary.Failed > 0 {
		status = domain.ActivityStatusWarning
	}
	record := &domain.ActivityRecord{
		UserID: userID,
		Type:   domain.ActivityTypeLocation,
		Status: status,
		Message: fmt.Sprintf("Location shared with %d contacts (%d sent, %d failed)",
			result.Summary.Total, result.Summary.Successful, result.Summary.Failed),
		Metadata: domain.ActivityMetadata{
			"location":   location,
			"total":      result.Summary.Total,
			"successful": result.Summary.Successful,
			"failed":     result.Summary.Failed,
		},
	}
	if err := d.activities.Create(ctx, record); err != nil {
		d.logger.Error("Failed to record location share activity",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	return result, nil
}

// composeMessage 固定模板的告警消息，附地图链接和坐标
func (d *NotificationDispatcher) composeMessage(location domain.Location) string {
	mapLink := fmt.Sprintf("%s%f,%f", d.mapLinkBase, location.Latitude, location.Longitude)
	return fmt.Sprintf(
		"EMERGENCY ALERT: I need help. My last known location: %s (lat %.6f, lon %.6f)",
		mapLink, location.Latitude, location.Longitude,
	)
}

// NormalizePhone 号码归一化
// 去掉所有非数字字符；原号码不带 "+" 国家码前缀时补默认国家码
func NormalizePhone(phone, defaultCountryCode string) string {
	hasCountryCode := strings.HasPrefix(strings.TrimSpace(phone), "+")

	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}

	if hasCountryCode {
		return "+" + digits.String()
	}
	return "+" + defaultCountryCode + digits.String()
}
