package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventArticlePublished EventType = "article_published"
	EventCommentCreated   EventType = "comment_created"
	EventUserRegistered   EventType = "user_registered"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// ArticlePublishedPayload payload.
type ArticlePublishedPayload struct {
	ArticleID string   `json:"article_id"`
	Title     string   `json:"title"`
	Tags      []string `json:"tags"`
}

// CommentCreatedPayload payload.
type CommentCreatedPayload struct {
	CommentID   string  `json:"comment_id"`
	ArticleID   string  `json:"article_id"`
	ParentID    *string `json:"parent_id,omitempty"`
	BodyPreview string  `json:"body_preview"`
}

// UserRegisteredPayload payload.
type UserRegisteredPayload struct {
	Account string `json:"account"`
	Role    string `json:"role"`
}
