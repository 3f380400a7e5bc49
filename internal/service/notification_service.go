package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/events"
)

// NotificationService reacts to domain events. The current sink is the
// structured log; a webhook or mail sender can subscribe the same way.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService constructs the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to the events worth notifying about.
func (s *NotificationService) RegisterHandlers() {
	s.dispatcher.Subscribe(events.EventArticlePublished, s.onArticlePublished)
	s.dispatcher.Subscribe(events.EventCommentCreated, s.onCommentCreated)
	s.dispatcher.Subscribe(events.EventUserRegistered, s.onUserRegistered)
}

func (s *NotificationService) onArticlePublished(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.ArticlePublishedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("article published",
		zap.String("article_id", payload.ArticleID),
		zap.String("title", payload.Title),
		zap.Strings("tags", payload.Tags),
	)
	return nil
}

func (s *NotificationService) onCommentCreated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.CommentCreatedPayload)
	if !ok {
		return nil
	}
	s.logger.Info("comment created",
		zap.String("comment_id", payload.CommentID),
		zap.String("article_id", payload.ArticleID),
	)
	return nil
}

func (s *NotificationService) onUserRegistered(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.UserRegisteredPayload)
	if !ok {
		return nil
	}
	s.logger.Info("user registered",
		zap.String("account", payload.Account),
		zap.String("role", payload.Role),
	)
	return nil
}
