package model

import "time"

const (
	ConversationTableName = "conversation"
	MemberTableName       = "conversation_member"
)

// Conversation types.
const (
	ConvTypeDirect = int32(1)
	ConvTypeGroup  = int32(2)
)

// Conversation is owned by the CRUD application; the gateway only reads it
// to validate send targets.
type Conversation struct {
	ID        string    `bson:"_id" json:"id"`
	Type      int32     `bson:"type" json:"type"`
	Title     string    `bson:"title,omitempty" json:"title,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
}

func (*Conversation) TableName() string { return ConversationTableName }

// ConversationMember links a user to a conversation. The gateway treats
// this relation as read-only.
type ConversationMember struct {
	ConversationID string    `bson:"conversation_id" json:"conversationId"`
	UserID         string    `bson:"user_id" json:"userId"`
	JoinedAt       time.Time `bson:"joined_at" json:"joinedAt"`
}

func (*ConversationMember) TableName() string { return MemberTableName }
