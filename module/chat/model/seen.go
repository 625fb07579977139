package model

const SeenMarkTableName = "seen_mark"

// SeenMark records that a user observed a specific message. Unique per
// (message_id, user_id); re-marking is create-if-absent, never an error.
type SeenMark struct {
	MessageID      string `bson:"message_id" json:"messageId"`
	UserID         string `bson:"user_id" json:"userId"`
	ConversationID string `bson:"conversation_id" json:"conversationId"`
	CreatedAt      int64  `bson:"created_at" json:"createdAt"` // unix ms
}

func (*SeenMark) TableName() string { return SeenMarkTableName }
