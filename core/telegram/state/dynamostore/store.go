// Package dynamostore keeps navigation sessions in a DynamoDB table with a
// PK/SK key schema and a ttl attribute.
package dynamostore

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/m3rciful/shopbot/core/telegram/state"
)

const (
	skSession  = "SESSION"
	defaultTTL = 7 * 24 * time.Hour
)

// API is the subset of the DynamoDB client used by Store.
type API interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// Store implements state.Store on top of DynamoDB.
type Store struct {
	api   API
	table string
	ttl   time.Duration
	now   func() time.Time
}

// New creates a Store. A non-positive ttl falls back to seven days.
func New(api API, table string, ttl time.Duration) (*Store, error) {
	if api == nil {
		return nil, errors.New("dynamostore: api must not be nil")
	}
	if strings.TrimSpace(table) == "" {
		return nil, errors.New("dynamostore: table name must not be empty")
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{api: api, table: table, ttl: ttl, now: time.Now}, nil
}

func convPK(key int64) string {
	return "CONV#" + strconv.FormatInt(key, 10)
}

func (s *Store) itemKey(key int64) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: convPK(key)},
		"SK": &types.AttributeValueMemberS{Value: skSession},
	}
}

// Load reads the session item with a consistent read.
func (s *Store) Load(ctx context.Context, key int64) (*state.Session, error) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            s.itemKey(key),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamostore: load %d: %w", key, err)
	}
	if out == nil || len(out.Item) == 0 {
		return state.NewSession(), nil
	}
	if exp, err := numAttr(out.Item, "ttl"); err == nil && exp > 0 && exp < s.now().Unix() {
		// expired items linger until DynamoDB sweeps them
		sess := state.NewSession()
		sess.Version, _ = numAttr(out.Item, "version")
		return sess, nil
	}
	version, err := numAttr(out.Item, "version")
	if err != nil {
		return nil, fmt.Errorf("dynamostore: load %d: %w", key, err)
	}
	payload, _ := strAttr(out.Item, "payload")
	return state.Decode([]byte(payload), version)
}

// Save writes the session conditioned on the version read by Load.
func (s *Store) Save(ctx context.Context, key int64, sess *state.Session) error {
	payload, err := state.Encode(sess)
	if err != nil {
		return err
	}
	item := s.itemKey(key)
	item["payload"] = &types.AttributeValueMemberS{Value: string(payload)}
	item["version"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(sess.Version+1, 10)}
	item["ttl"] = &types.AttributeValueMemberN{Value: strconv.FormatInt(s.now().Add(s.ttl).Unix(), 10)}

	in := &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}
	if sess.Version == 0 {
		in.ConditionExpression = aws.String("attribute_not_exists(PK)")
	} else {
		in.ConditionExpression = aws.String("version = :expected")
		in.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(sess.Version, 10)},
		}
	}

	if _, err := s.api.PutItem(ctx, in); err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return state.ErrConflict
		}
		return fmt.Errorf("dynamostore: save %d: %w", key, err)
	}
	sess.Version++
	sess.MarkClean()
	return nil
}

// Delete removes the session item.
func (s *Store) Delete(ctx context.Context, key int64) error {
	_, err := s.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       s.itemKey(key),
	})
	if err != nil {
		return fmt.Errorf("dynamostore: delete %d: %w", key, err)
	}
	return nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("attribute %q is not a string", key)
	}
	return s.Value, nil
}

func numAttr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
