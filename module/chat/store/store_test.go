package store

// Integration tests against a real MongoDB. Skipped unless
// COOKTALK_TEST_MONGO_URI points at an instance, e.g.
//
//	COOKTALK_TEST_MONGO_URI=mongodb://localhost:27017 go test ./module/chat/store/

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"CookTalk/module/chat/model"
	"CookTalk/service/mgo"
	"CookTalk/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func testDB(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("COOKTALK_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("COOKTALK_TEST_MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := mgo.Connect(ctx, mgo.Config{
		URI:      uri,
		Database: fmt.Sprintf("cooktalk_test_%d", time.Now().UnixNano()),
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = mgo.Disconnect(ctx, db)
	})
	return db
}

func TestMessagesCRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	msgs := NewMessages(db)
	require.NoError(t, msgs.EnsureIndexes(ctx))

	m := &model.Message{ConversationID: "42", SenderID: "userA", Content: "hi"}
	require.NoError(t, msgs.Create(ctx, m))
	assert.NotEmpty(t, m.ID)
	assert.NotZero(t, m.CreatedAt)
	assert.Equal(t, model.MsgTypeText, m.Type)

	n, err := msgs.CountIn(ctx, "42")
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	// only the sender may delete
	_, err = msgs.Delete(ctx, m.ID, "userB")
	assert.True(t, errs.ErrUnauthorized.Is(err))

	_, err = msgs.Delete(ctx, "no-such-id", "userA")
	assert.True(t, errs.ErrNotFound.Is(err))

	deleted, err := msgs.Delete(ctx, m.ID, "userA")
	require.NoError(t, err)
	assert.Equal(t, "42", deleted.ConversationID)

	n, err = msgs.CountIn(ctx, "42")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLatestInSkipsOwnMessages(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	msgs := NewMessages(db)

	for i, sender := range []string{"userA", "userB", "userA"} {
		m := &model.Message{ConversationID: "42", SenderID: sender, Content: fmt.Sprintf("msg %d", i)}
		require.NoError(t, msgs.Create(ctx, m))
		time.Sleep(2 * time.Millisecond) // distinct created_at
	}

	latest, err := msgs.LatestIn(ctx, "42", "userA")
	require.NoError(t, err)
	assert.Equal(t, "userB", latest.SenderID)

	_, err = msgs.LatestIn(ctx, "42", "")
	require.NoError(t, err)

	_, err = msgs.LatestIn(ctx, "empty-conv", "userA")
	assert.True(t, errs.ErrNotFound.Is(err))
}

func TestMarkSeenIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	msgs := NewMessages(db)
	require.NoError(t, msgs.EnsureIndexes(ctx))

	created, err := msgs.MarkSeen(ctx, "m-1", "42", "userB")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = msgs.MarkSeen(ctx, "m-1", "42", "userB")
	require.NoError(t, err)
	assert.False(t, created, "re-marking must not insert a second row")

	created, err = msgs.MarkSeen(ctx, "m-1", "42", "userC")
	require.NoError(t, err)
	assert.True(t, created, "another user's mark is a distinct row")
}

func TestMembershipQueries(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	membership := NewMembership(db)

	_, err := db.Collection(model.ConversationTableName).InsertOne(ctx, &model.Conversation{
		ID: "42", Type: model.ConvTypeGroup, Title: "brunch crew", CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	for _, userID := range []string{"userA", "userB"} {
		_, err := db.Collection(model.MemberTableName).InsertOne(ctx, &model.ConversationMember{
			ConversationID: "42", UserID: userID, JoinedAt: time.Now(),
		})
		require.NoError(t, err)
	}

	convs, err := membership.ConversationIDsForUser(ctx, "userA")
	require.NoError(t, err)
	assert.Equal(t, []string{"42"}, convs)

	convs, err = membership.ConversationIDsForUser(ctx, "stranger")
	require.NoError(t, err)
	assert.Empty(t, convs)

	assert.True(t, membership.IsMember(ctx, "42", "userB"))
	assert.False(t, membership.IsMember(ctx, "42", "stranger"))

	exists, err := membership.ConversationExists(ctx, "42")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = membership.ConversationExists(ctx, "no-such")
	require.NoError(t, err)
	assert.False(t, exists)
}
