package model

const MessageTableName = "message"

// Message content types mirror the application's enum.
const (
	MsgTypeText  = "TEXT"
	MsgTypeImage = "IMAGE"
	MsgTypeVideo = "VIDEO"
)

// Message is one persisted conversation message. The sender must be a
// member of the conversation; the gateway enforces that before Create.
type Message struct {
	ID             string `bson:"_id" json:"id"`
	ConversationID string `bson:"conversation_id" json:"conversationId"`
	SenderID       string `bson:"sender_id" json:"senderId"`
	Content        string `bson:"content" json:"content"`
	Type           string `bson:"type" json:"type"`
	ReplyOf        string `bson:"reply_of,omitempty" json:"replyOf,omitempty"` // replied-to message id
	CreatedAt      int64  `bson:"created_at" json:"createdAt"`                 // unix ms
}

func (*Message) TableName() string { return MessageTableName }
