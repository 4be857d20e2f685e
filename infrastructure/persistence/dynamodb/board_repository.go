package dynamodb

import (
	"context"
	"fmt"
	"time"

	"threadboard/application/ports"
	"threadboard/domain/core/entities"
	pkgerrors "threadboard/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"go.uber.org/zap"
)

// Boards live under their owner's partition; a GSI keyed by board id serves
// lookups where the owner is not known yet (every request authorizes against
// the loaded board, so GetByID comes first).
//
//	PK = USER#<ownerID>   SK = BOARD#<boardID>
//	GSI1PK = BOARDID#<boardID>   GSI1SK = METADATA

// BoardRepository implements ports.BoardRepository on DynamoDB
type BoardRepository struct {
	client    *dynamodb.Client
	tableName string
	indexName string
	logger    *zap.Logger
}

// NewBoardRepository creates a new BoardRepository
func NewBoardRepository(client *dynamodb.Client, tableName, indexName string, logger *zap.Logger) ports.BoardRepository {
	return &BoardRepository{
		client:    client,
		tableName: tableName,
		indexName: indexName,
		logger:    logger,
	}
}

// boardItem represents the DynamoDB item structure for a board
type boardItem struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	GSI1PK     string `dynamodbav:"GSI1PK"`
	GSI1SK     string `dynamodbav:"GSI1SK"`
	EntityType string `dynamodbav:"EntityType"`
	BoardID    string `dynamodbav:"BoardID"`
	OwnerID    string `dynamodbav:"OwnerID"`
	Title      string `dynamodbav:"Title"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

func boardPK(ownerID string) string  { return fmt.Sprintf("USER#%s", ownerID) }
func boardSK(id string) string       { return fmt.Sprintf("BOARD#%s", id) }
func boardLookupPK(id string) string { return fmt.Sprintf("BOARDID#%s", id) }

func toBoardItem(board *entities.Board) boardItem {
	return boardItem{
		PK:         boardPK(board.OwnerID()),
		SK:         boardSK(board.ID()),
		GSI1PK:     boardLookupPK(board.ID()),
		GSI1SK:     "METADATA",
		EntityType: "BOARD",
		BoardID:    board.ID(),
		OwnerID:    board.OwnerID(),
		Title:      board.Title(),
		CreatedAt:  board.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt:  board.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}
}

func fromBoardItem(item boardItem) (*entities.Board, error) {
	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid stored createdAt: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid stored updatedAt: %w", err)
	}
	return entities.ReconstructBoard(item.BoardID, item.OwnerID, item.Title, createdAt, updatedAt)
}

// Save persists a board
func (r *BoardRepository) Save(ctx context.Context, board *entities.Board) error {
	av, err := attributevalue.MarshalMap(toBoardItem(board))
	if err != nil {
		return fmt.Errorf("failed to marshal board: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("failed to save board",
			zap.Error(err),
			zap.String("boardID", board.ID()),
		)
		return pkgerrors.NewDatabaseError("save board", err)
	}
	return nil
}

// GetByID resolves a board by id through the lookup index
func (r *BoardRepository) GetByID(ctx context.Context, id string) (*entities.Board, error) {
	item, err := r.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromBoardItem(*item)
}

// ListByOwner returns the boards a user owns
func (r *BoardRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entities.Board, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(boardPK(ownerID))).
		And(expression.Key("SK").BeginsWith("BOARD#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("list boards", err)
	}

	var items []boardItem
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal boards: %w", err)
	}

	boards := make([]*entities.Board, 0, len(items))
	for _, item := range items {
		board, err := fromBoardItem(item)
		if err != nil {
			r.logger.Warn("skipping corrupt board item",
				zap.String("boardID", item.BoardID),
				zap.Error(err),
			)
			continue
		}
		boards = append(boards, board)
	}
	return boards, nil
}

// Delete removes a board record. Node cleanup is the application layer's
// responsibility.
func (r *BoardRepository) Delete(ctx context.Context, id string) error {
	item, err := r.lookup(ctx, id)
	if err != nil {
		return err
	}

	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": item.PK,
		"SK": item.SK,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key:       key,
	})
	if err != nil {
		return pkgerrors.NewDatabaseError("delete board", err)
	}
	return nil
}

func (r *BoardRepository) lookup(ctx context.Context, id string) (*boardItem, error) {
	keyCond := expression.Key("GSI1PK").Equal(expression.Value(boardLookupPK(id)))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup expression: %w", err)
	}

	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(r.indexName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("lookup board", err)
	}
	if len(out.Items) == 0 {
		return nil, pkgerrors.NewNotFoundError("board")
	}

	var item boardItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal board: %w", err)
	}
	return &item, nil
}
