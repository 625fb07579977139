package store

import (
	"context"

	"CookTalk/logger"
	"CookTalk/module/chat/model"
	"CookTalk/tools/errs"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Membership answers which conversations a user belongs to. Read-only
// from the gateway's perspective; the CRUD application owns the relation.
type Membership struct {
	memberColl *mongo.Collection
	convColl   *mongo.Collection
}

func NewMembership(db *mongo.Database) *Membership {
	return &Membership{
		memberColl: db.Collection(model.MemberTableName),
		convColl:   db.Collection(model.ConversationTableName),
	}
}

// ConversationIDsForUser loads every conversation id the user is a member
// of. Storage failures surface as ErrStorageUnavailable; during the
// connect handshake that is fatal to the connection.
func (s *Membership) ConversationIDsForUser(ctx context.Context, userID string) ([]string, error) {
	cur, err := s.memberColl.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, errs.ErrStorageUnavailable.WithDetail(errors.Wrap(err, "find memberships").Error())
	}
	defer cur.Close(ctx)

	var rows []model.ConversationMember
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errs.ErrStorageUnavailable.WithDetail(errors.Wrap(err, "decode memberships").Error())
	}
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.ConversationID)
	}
	return out, nil
}

// IsMember authorizes message operations. Fails closed: a storage error
// is reported as "not a member".
func (s *Membership) IsMember(ctx context.Context, conversationID, userID string) bool {
	n, err := s.memberColl.CountDocuments(ctx, bson.M{
		"conversation_id": conversationID,
		"user_id":         userID,
	})
	if err != nil {
		logger.Warnf("[membership] IsMember conv=%s user=%s failing closed: %v", conversationID, userID, err)
		return false
	}
	return n > 0
}

// ConversationExists checks the send target references a real conversation.
func (s *Membership) ConversationExists(ctx context.Context, conversationID string) (bool, error) {
	n, err := s.convColl.CountDocuments(ctx, bson.M{"_id": conversationID})
	if err != nil {
		return false, errs.ErrStorageUnavailable.WithDetail(errors.Wrap(err, "conversation exists").Error())
	}
	return n > 0, nil
}
