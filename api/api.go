// Package api implements [recall.Backend] against the memory service's REST
// API.
package api

import (
	"time"

	"github.com/jkowal/recall"
)

const (
	sessionsPath = "/api/chat/sessions"
	messagesPath = "/api/chat/messages"
	imagePath    = "/api/chat/messages/image"
	memoriesPath = "/api/memories"
)

type sessionDTO struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	LastActivity time.Time `json:"last_activity"`
	MessageCount int       `json:"message_count"`
}

type sessionDetailDTO struct {
	sessionDTO
	Messages []messageDTO `json:"messages"`
}

type messageDTO struct {
	ID        string      `json:"id"`
	Role      string      `json:"role"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
	Sources   []sourceDTO `json:"sources,omitempty"`
}

type sourceDTO struct {
	ContextID    string     `json:"context_id"`
	SourceID     string     `json:"source_id,omitempty"`
	Timestamp    *time.Time `json:"timestamp,omitempty"`
	Title        string     `json:"title,omitempty"`
	Snippet      string     `json:"snippet,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
}

type sendDTO struct {
	Message         string `json:"message"`
	SessionID       string `json:"session_id,omitempty"`
	TZOffsetMinutes int    `json:"timezone_offset_minutes"`
}

type sendResponseDTO struct {
	SessionID string      `json:"session_id"`
	Message   string      `json:"message"`
	Sources   []sourceDTO `json:"sources,omitempty"`
}

type memoryDTO struct {
	ID         string    `json:"id"`
	CapturedAt time.Time `json:"captured_at"`
	Title      string    `json:"title,omitempty"`
	MediaType  string    `json:"media_type,omitempty"`
}

type errorDTO struct {
	Error string `json:"error"`
}

func toSession(dto sessionDTO) recall.Session {
	return recall.Session{
		ID:           dto.ID,
		Title:        dto.Title,
		LastActivity: dto.LastActivity,
		MessageCount: dto.MessageCount,
	}
}

func toMessage(dto messageDTO) recall.Message {
	return recall.Message{
		ID:        dto.ID,
		Role:      recall.Role(dto.Role),
		Content:   dto.Content,
		CreatedAt: dto.CreatedAt,
		Sources:   toSources(dto.Sources),
	}
}

func toSources(dtos []sourceDTO) []recall.Source {
	if len(dtos) == 0 {
		return nil
	}
	out := make([]recall.Source, len(dtos))
	for i, dto := range dtos {
		src := recall.Source{
			ContextID:    dto.ContextID,
			ItemID:       dto.SourceID,
			Title:        dto.Title,
			Snippet:      dto.Snippet,
			ThumbnailURL: dto.ThumbnailURL,
		}
		if dto.Timestamp != nil {
			src.CapturedAt = *dto.Timestamp
		}
		out[i] = src
	}
	return out
}
