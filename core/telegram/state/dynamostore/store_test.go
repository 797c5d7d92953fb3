package dynamostore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/core/telegram/keyboard"
	"github.com/m3rciful/shopbot/core/telegram/state"
)

// fakeDynamo keeps items in memory and evaluates the two condition
// expressions the store issues.
type fakeDynamo struct {
	items   map[string]map[string]types.AttributeValue
	putErr  error
	lastPut *dynamodb.PutItemInput
}

func newFake() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func keyOf(m map[string]types.AttributeValue) string {
	pk := m["PK"].(*types.AttributeValueMemberS).Value
	sk := m["SK"].(*types.AttributeValueMemberS).Value
	return pk + "/" + sk
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	return &dynamodb.GetItemOutput{Item: f.items[keyOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.lastPut = in
	if f.putErr != nil {
		return nil, f.putErr
	}
	k := keyOf(in.Item)
	existing, exists := f.items[k]
	switch aws.ToString(in.ConditionExpression) {
	case "attribute_not_exists(PK)":
		if exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("exists")}
		}
	case "version = :expected":
		want := in.ExpressionAttributeValues[":expected"].(*types.AttributeValueMemberN).Value
		if !exists || existing["version"].(*types.AttributeValueMemberN).Value != want {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("version")}
		}
	}
	f.items[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	delete(f.items, keyOf(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func mustNew(t *testing.T, api API) *Store {
	t.Helper()
	s, err := New(api, "sessions", time.Hour)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return s
}

func TestNewValidates(t *testing.T) {
	_, err := New(nil, "t", 0)
	assert.Error(t, err)
	_, err = New(newFake(), " ", 0)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := newFake()
	st := mustNew(t, db)

	sess, err := st.Load(ctx, 100)
	require.NoError(t, err)
	sess.SetState("bid.waiting_for_price")
	sess.PushIfChanged(state.Screen{
		Text:     "Enter price",
		Keyboard: keyboard.Layout{{keyboard.Back()}},
		State:    "bid.waiting_for_price",
	})
	sess.SetLocal("listing_id", int64(5))
	require.NoError(t, st.Save(ctx, 100, sess))

	require.NotNil(t, db.lastPut)
	assert.Equal(t, "CONV#100", db.lastPut.Item["PK"].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "1700003600", db.lastPut.Item["ttl"].(*types.AttributeValueMemberN).Value)

	got, err := st.Load(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, 1, got.Depth())
	assert.Equal(t, state.State("bid.waiting_for_price"), got.CurrentState())
	id, ok := got.GetTempInt64("listing_id")
	assert.True(t, ok)
	assert.Equal(t, int64(5), id)
}

func TestSaveConflict(t *testing.T) {
	ctx := context.Background()
	st := mustNew(t, newFake())

	a, _ := st.Load(ctx, 1)
	b, _ := st.Load(ctx, 1)
	a.PushIfChanged(state.Screen{Text: "Menu"})
	require.NoError(t, st.Save(ctx, 1, a))

	b.PushIfChanged(state.Screen{Text: "Other"})
	assert.ErrorIs(t, st.Save(ctx, 1, b), state.ErrConflict)

	a.PushIfChanged(state.Screen{Text: "Next"})
	require.NoError(t, st.Save(ctx, 1, a))
	assert.Equal(t, int64(2), a.Version)
}

func TestSaveWrapsTransportErrors(t *testing.T) {
	db := newFake()
	db.putErr = errors.New("throttled")
	st := mustNew(t, db)

	err := st.Save(context.Background(), 1, state.NewSession())
	require.Error(t, err)
	assert.NotErrorIs(t, err, state.ErrConflict)
	assert.Contains(t, err.Error(), "throttled")
}

func TestLoadExpiredIsFresh(t *testing.T) {
	db := newFake()
	db.items["CONV#9/SESSION"] = map[string]types.AttributeValue{
		"PK":      &types.AttributeValueMemberS{Value: "CONV#9"},
		"SK":      &types.AttributeValueMemberS{Value: skSession},
		"payload": &types.AttributeValueMemberS{Value: `{"stack":[{"text":"Old"}]}`},
		"version": &types.AttributeValueMemberN{Value: "3"},
		"ttl":     &types.AttributeValueMemberN{Value: "1"},
	}
	st := mustNew(t, db)

	sess, err := st.Load(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 0, sess.Depth())
	assert.Equal(t, int64(3), sess.Version)
}

func TestLoadCorruptPayload(t *testing.T) {
	db := newFake()
	db.items["CONV#9/SESSION"] = map[string]types.AttributeValue{
		"PK":      &types.AttributeValueMemberS{Value: "CONV#9"},
		"SK":      &types.AttributeValueMemberS{Value: skSession},
		"payload": &types.AttributeValueMemberS{Value: `{"stack":`},
		"version": &types.AttributeValueMemberN{Value: "2"},
	}
	st := mustNew(t, db)

	sess, err := st.Load(context.Background(), 9)
	assert.ErrorIs(t, err, state.ErrCorrupt)
	require.NotNil(t, sess)
	assert.Equal(t, int64(2), sess.Version)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	db := newFake()
	st := mustNew(t, db)
	sess := state.NewSession()
	sess.PushIfChanged(state.Screen{Text: "Menu"})
	require.NoError(t, st.Save(ctx, 1, sess))
	require.NoError(t, st.Delete(ctx, 1))
	assert.Empty(t, db.items)
}
