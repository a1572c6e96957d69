package events

import (
	"fmt"
	"time"
)

// Event types published by the services.
const (
	ApplicationCreated            = "application.created"
	ApplicationUpdated            = "application.updated"
	ApplicationSubmitted          = "application.submitted"
	ApplicationRestarted          = "application.restarted"
	ApplicationWithdrawn          = "application.withdrawn"
	ApplicationStatusChanged      = "application.status_changed"
	ApplicationNoteAdded          = "application.note_added"
	ApplicationInterviewScheduled = "application.interview_scheduled"
	ApplicationPaymentUpdated     = "application.payment_updated"
	ApplicationDeleted            = "application.deleted"

	DocumentUploaded = "document.uploaded"
	DocumentVerified = "document.verified"
	DocumentDeleted  = "document.deleted"

	UserRegistered  = "user.registered"
	UserLoggedIn    = "user.logged_in"
	TokenRefreshed  = "token.refreshed"
	UserDeactivated = "user.deactivated"

	ChatMessage = "chat.message"
)

// StaffRoom receives every back-office notification.
const StaffRoom = "staff"

// UserRoom is the private room of one user.
func UserRoom(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// ChatRoom is a named chat channel.
func ChatRoom(name string) string {
	return "chat:" + name
}

// ===============================
// APPLICATION EVENTS
// ===============================

// ApplicationEvent reports a change to one application. It is relayed to
// the owning applicant and to staff.
type ApplicationEvent struct {
	BaseEvent
	ApplicationID   int64  `json:"application_id"`
	ApplicantUserID int64  `json:"applicant_user_id"`
	Target          string `json:"target"`
	FromStatus      string `json:"from_status,omitempty"`
	ToStatus        string `json:"to_status"`
	Progress        int    `json:"progress"`
}

// NewApplicationEvent creates an application event caused by actorID.
func NewApplicationEvent(eventType string, actorID, applicationID, applicantUserID int64, target, from, to string, progress int) *ApplicationEvent {
	return &ApplicationEvent{
		BaseEvent:       NewBaseEvent(eventType, &actorID),
		ApplicationID:   applicationID,
		ApplicantUserID: applicantUserID,
		Target:          target,
		FromStatus:      from,
		ToStatus:        to,
		Progress:        progress,
	}
}

// Rooms implements Routable
func (e *ApplicationEvent) Rooms() []string {
	return []string{UserRoom(e.ApplicantUserID), StaffRoom}
}

// ===============================
// DOCUMENT EVENTS
// ===============================

// DocumentEvent reports an upload, verification change or removal.
type DocumentEvent struct {
	BaseEvent
	DocumentID      int64  `json:"document_id"`
	ApplicantUserID int64  `json:"applicant_user_id"`
	DocumentType    string `json:"document_type"`
	FileSize        int64  `json:"file_size,omitempty"`
	Verified        bool   `json:"verified"`
}

// NewDocumentEvent creates a document event caused by actorID.
func NewDocumentEvent(eventType string, actorID, documentID, applicantUserID int64, docType string, size int64, verified bool) *DocumentEvent {
	return &DocumentEvent{
		BaseEvent:       NewBaseEvent(eventType, &actorID),
		DocumentID:      documentID,
		ApplicantUserID: applicantUserID,
		DocumentType:    docType,
		FileSize:        size,
		Verified:        verified,
	}
}

// Rooms implements Routable
func (e *DocumentEvent) Rooms() []string {
	return []string{UserRoom(e.ApplicantUserID), StaffRoom}
}

// ===============================
// ACCOUNT EVENTS
// ===============================

// UserEvent records an account-level action for auditing.
type UserEvent struct {
	BaseEvent
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// NewUserEvent creates an account event for userID.
func NewUserEvent(eventType string, userID int64, email, role string) *UserEvent {
	return &UserEvent{
		BaseEvent: NewBaseEvent(eventType, &userID),
		Email:     email,
		Role:      role,
	}
}

// TokenRefreshedEvent is emitted when a refresh token is exchanged.
type TokenRefreshedEvent struct {
	BaseEvent
	TokenID   string    `json:"token_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewTokenRefreshedEvent creates a new TokenRefreshedEvent
func NewTokenRefreshedEvent(userID int64, tokenID string, expiresAt time.Time) *TokenRefreshedEvent {
	return &TokenRefreshedEvent{
		BaseEvent: NewBaseEvent(TokenRefreshed, &userID),
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}
}

// ===============================
// CHAT
// ===============================

// ChatMessageEvent is a message posted to a chat room.
type ChatMessageEvent struct {
	BaseEvent
	Room   string `json:"room"`
	Sender int64  `json:"sender"`
	Text   string `json:"text"`
}

// NewChatMessageEvent creates a chat message from sender to room.
func NewChatMessageEvent(sender int64, room, text string) *ChatMessageEvent {
	return &ChatMessageEvent{
		BaseEvent: NewBaseEvent(ChatMessage, &sender),
		Room:      room,
		Sender:    sender,
		Text:      text,
	}
}

// Rooms implements Routable
func (e *ChatMessageEvent) Rooms() []string {
	return []string{e.Room}
}
