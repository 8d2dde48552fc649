package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/elecnk-png/timesheet-bot/internal/dto"
	"github.com/elecnk-png/timesheet-bot/internal/model"
	"github.com/elecnk-png/timesheet-bot/internal/repository"
	"github.com/elecnk-png/timesheet-bot/pkg/clock"
)

const defaultOutboxLimit = 100

// NotificationPublisher 通知广播通道，由 Redis 客户端实现
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, payload []byte) error
}

// NotificationService 通知发件箱
//
// Notify 尽力投递：写库或广播失败只记录日志，不影响已经提交的业务变更。
// 网关通过 ListOutbox 拉取未投递通知，投递后调用 Ack。
type NotificationService interface {
	Notify(ctx context.Context, notes ...model.Notification)
	ListOutbox(ctx context.Context, req *dto.OutboxRequest) ([]dto.NotificationResponse, error)
	Ack(ctx context.Context, req *dto.AckRequest) (*dto.AckResponse, error)
}

type notificationService struct {
	repo      *repository.Repository
	publisher NotificationPublisher
	clock     clock.Clock
	logger    *zap.Logger
}

// NewNotificationService 创建 NotificationService 实例，publisher 可以为 nil
func NewNotificationService(repo *repository.Repository, publisher NotificationPublisher, clk clock.Clock, logger *zap.Logger) NotificationService {
	return &notificationService{repo: repo, publisher: publisher, clock: clk, logger: logger}
}

func (s *notificationService) Notify(ctx context.Context, notes ...model.Notification) {
	if len(notes) == 0 {
		return
	}

	if err := s.repo.Notification.CreateBatch(ctx, notes); err != nil {
		s.logger.Warn("写入通知失败", zap.Int("count", len(notes)), zap.Error(err))
		return
	}

	if s.publisher == nil {
		return
	}
	for i := range notes {
		payload, err := json.Marshal(toNotificationResponse(&notes[i]))
		if err != nil {
			s.logger.Warn("序列化通知失败", zap.Error(err))
			continue
		}
		if err := s.publisher.PublishNotification(ctx, payload); err != nil {
			s.logger.Warn("广播通知失败",
				zap.String("notification_id", notes[i].NotificationID),
				zap.String("recipient_id", notes[i].RecipientID),
				zap.Error(err),
			)
		}
	}
}

func (s *notificationService) ListOutbox(ctx context.Context, req *dto.OutboxRequest) ([]dto.NotificationResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = defaultOutboxLimit
	}

	notes, err := s.repo.Notification.ListUndelivered(ctx, req.Recipient, limit)
	if err != nil {
		s.logger.Error("查询发件箱失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.NotificationResponse, 0, len(notes))
	for i := range notes {
		result = append(result, *toNotificationResponse(&notes[i]))
	}
	return result, nil
}

func (s *notificationService) Ack(ctx context.Context, req *dto.AckRequest) (*dto.AckResponse, error) {
	n, err := s.repo.Notification.MarkDelivered(ctx, req.IDs, s.clock.Now())
	if err != nil {
		s.logger.Error("确认投递失败", zap.Error(err))
		return nil, err
	}
	return &dto.AckResponse{Acknowledged: n}, nil
}

func toNotificationResponse(n *model.Notification) *dto.NotificationResponse {
	return &dto.NotificationResponse{
		ID:          n.NotificationID,
		RecipientID: n.RecipientID,
		Type:        n.Type,
		Content:     n.Content,
		RelatedType: n.RelatedType,
		RelatedID:   n.RelatedID,
		CreatedAt:   n.CreatedAt.Format(time.RFC3339),
	}
}
