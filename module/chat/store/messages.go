package store

import (
	"context"
	"time"

	"CookTalk/module/chat/model"
	"CookTalk/tools/errs"
	"CookTalk/tools/ids"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Messages is the persistence surface the gateway needs from the message
// store: narrow create/delete/mark-seen primitives plus a couple of reads.
type Messages struct {
	msgColl  *mongo.Collection
	seenColl *mongo.Collection
}

func NewMessages(db *mongo.Database) *Messages {
	return &Messages{
		msgColl:  db.Collection(model.MessageTableName),
		seenColl: db.Collection(model.SeenMarkTableName),
	}
}

// Create persists the message, assigning id and timestamp when unset.
func (s *Messages) Create(ctx context.Context, m *model.Message) error {
	if m.ID == "" {
		m.ID = ids.GenerateString()
	}
	if m.CreatedAt == 0 {
		m.CreatedAt = time.Now().UnixMilli()
	}
	if m.Type == "" {
		m.Type = model.MsgTypeText
	}
	if _, err := s.msgColl.InsertOne(ctx, m); err != nil {
		return errs.ErrStorageUnavailable.WithDetail(errors.Wrap(err, "insert message").Error())
	}
	return nil
}

// Delete removes the message, but only when requesterID is its sender.
// Returns the deleted document; callers must trust its conversation id
// over their own input. ErrUnauthorized when the message exists but
// belongs to someone else.
func (s *Messages) Delete(ctx context.Context, messageID, requesterID string) (*model.Message, error) {
	var m model.Message
	err := s.msgColl.FindOneAndDelete(ctx, bson.M{"_id": messageID, "sender_id": requesterID}).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// distinguish "not yours" from "gone"
		n, cerr := s.msgColl.CountDocuments(ctx, bson.M{"_id": messageID})
		if cerr != nil {
			return nil, errs.ErrStorageUnavailable.WithDetail(errors.Wrap(cerr, "delete message").Error())
		}
		if n > 0 {
			return nil, errs.ErrUnauthorized.WithDetail("message " + messageID + " not owned")
		}
		return nil, errs.ErrNotFound.WithDetail("message " + messageID)
	}
	if err != nil {
		return nil, errs.ErrStorageUnavailable.WithDetail(errors.Wrap(err, "delete message").Error())
	}
	return &m, nil
}

// LatestIn returns the newest message in the conversation not sent by
// excludeSender. ErrNotFound when the conversation has no such message.
func (s *Messages) LatestIn(ctx context.Context, conversationID, excludeSender string) (*model.Message, error) {
	filter := bson.M{"conversation_id": conversationID}
	if excludeSender != "" {
		filter["sender_id"] = bson.M{"$ne": excludeSender}
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})

	var m model.Message
	err := s.msgColl.FindOne(ctx, filter, opts).Decode(&m)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.ErrNotFound.WithDetail("no messages in " + conversationID)
	}
	if err != nil {
		return nil, errs.ErrStorageUnavailable.WithDetail(errors.Wrap(err, "latest message").Error())
	}
	return &m, nil
}

// MarkSeen upserts the (message, user) seen mark. Reports whether a new
// mark was created; re-marking leaves storage unchanged.
func (s *Messages) MarkSeen(ctx context.Context, messageID, conversationID, userID string) (bool, error) {
	filter := bson.M{"message_id": messageID, "user_id": userID}
	update := bson.M{"$setOnInsert": bson.M{
		"conversation_id": conversationID,
		"created_at":      time.Now().UnixMilli(),
	}}
	res, err := s.seenColl.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, errs.ErrStorageUnavailable.WithDetail(errors.Wrap(err, "mark seen").Error())
	}
	return res.UpsertedCount > 0, nil
}

// CountIn counts messages in a conversation.
func (s *Messages) CountIn(ctx context.Context, conversationID string) (int64, error) {
	n, err := s.msgColl.CountDocuments(ctx, bson.M{"conversation_id": conversationID})
	if err != nil {
		return 0, errs.ErrStorageUnavailable.WithDetail(errors.Wrap(err, "count messages").Error())
	}
	return n, nil
}

// ListIn returns up to limit messages in the conversation created before
// the given unix-ms timestamp, newest first. before <= 0 means "now".
func (s *Messages) ListIn(ctx context.Context, conversationID string, before int64, limit int64) ([]*model.Message, error) {
	if before <= 0 {
		before = time.Now().UnixMilli() + 1
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	filter := bson.M{
		"conversation_id": conversationID,
		"created_at":      bson.M{"$lt": before},
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)
	cur, err := s.msgColl.Find(ctx, filter, opts)
	if err != nil {
		return nil, errs.ErrStorageUnavailable.WithDetail(errors.Wrap(err, "list messages").Error())
	}
	defer cur.Close(ctx)

	var out []*model.Message
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.ErrStorageUnavailable.WithDetail(errors.Wrap(err, "decode messages").Error())
	}
	return out, nil
}

// EnsureIndexes creates the unique (message, user) seen index and the
// conversation/time listing index. Called once at startup.
func (s *Messages) EnsureIndexes(ctx context.Context) error {
	_, err := s.seenColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "message_id", Value: 1}, {Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return errors.Wrap(err, "seen index")
	}
	_, err = s.msgColl.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return errors.Wrap(err, "message index")
}
