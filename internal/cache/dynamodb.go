package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoDBAPI is the subset of *dynamodb.Client the store uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoDBRecordStore keeps records in a DynamoDB table whose partition key
// is the string attribute unique_id.
type DynamoDBRecordStore struct {
	client DynamoDBAPI
	table  string
}

func NewDynamoDBRecordStore(client DynamoDBAPI, table string) *DynamoDBRecordStore {
	return &DynamoDBRecordStore{client: client, table: table}
}

func (s *DynamoDBRecordStore) Get(ctx context.Context, id string) (Record, bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key: map[string]types.AttributeValue{
			"unique_id": &types.AttributeValueMemberS{Value: id},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return Record{}, false, fmt.Errorf("dynamodb get item: %w", err)
	}
	if len(out.Item) == 0 {
		return Record{}, false, nil
	}

	var it recordItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return Record{}, false, fmt.Errorf("dynamodb decode record %s: %w", id, err)
	}
	rec, err := fromItem(it)
	if err != nil {
		return Record{}, false, fmt.Errorf("dynamodb decode record %s: %w", id, err)
	}
	return rec, true, nil
}

func (s *DynamoDBRecordStore) Put(ctx context.Context, rec Record) error {
	in, err := s.putInput(rec)
	if err != nil {
		return err
	}
	if _, err := s.client.PutItem(ctx, in); err != nil {
		return fmt.Errorf("dynamodb put item: %w", err)
	}
	return nil
}

func (s *DynamoDBRecordStore) PutIfAbsent(ctx context.Context, rec Record) error {
	in, err := s.putInput(rec)
	if err != nil {
		return err
	}
	in.ConditionExpression = aws.String("attribute_not_exists(unique_id)")

	_, err = s.client.PutItem(ctx, in)
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrRecordExists
	}
	if err != nil {
		return fmt.Errorf("dynamodb put item: %w", err)
	}
	return nil
}

func (s *DynamoDBRecordStore) putInput(rec Record) (*dynamodb.PutItemInput, error) {
	if err := rec.Validate(); err != nil {
		return nil, err
	}
	item, err := attributevalue.MarshalMap(toItem(rec))
	if err != nil {
		return nil, fmt.Errorf("dynamodb encode record %s: %w", rec.ID, err)
	}
	return &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}, nil
}

// Ping checks that the table exists and is reachable.
func (s *DynamoDBRecordStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	})
	if err != nil {
		return fmt.Errorf("dynamodb describe table %s: %w", s.table, err)
	}
	return nil
}
