package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"threadboard/application/ports"
	"threadboard/domain/core/entities"
	"threadboard/domain/core/valueobjects"
	pkgerrors "threadboard/pkg/errors"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// Single-table layout: a node lives under its board's partition, so every
// engine operation (snapshot, pair lookup, reassignment) is one-partition
// work.
//
//	PK = BOARD#<boardID>    SK = NODE#<nodeID>

const batchWriteLimit = 25

// NodeRepository implements ports.NodeRepository on DynamoDB
type NodeRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
}

// NewNodeRepository creates a new NodeRepository
func NewNodeRepository(client *dynamodb.Client, tableName string, logger *zap.Logger) ports.NodeRepository {
	return &NodeRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// nodeItem represents the DynamoDB item structure for a node
type nodeItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	EntityType string  `dynamodbav:"EntityType"`
	NodeID     string  `dynamodbav:"NodeID"`
	BoardID    string  `dynamodbav:"BoardID"`
	Kind       string  `dynamodbav:"Kind"`
	Content    string  `dynamodbav:"Content"`
	ParentID   string  `dynamodbav:"ParentID,omitempty"`
	RootID     string  `dynamodbav:"RootID,omitempty"`
	X          float64 `dynamodbav:"X"`
	Y          float64 `dynamodbav:"Y"`
	Width      float64 `dynamodbav:"Width"`
	Height     float64 `dynamodbav:"Height"`
	CreatedAt  string  `dynamodbav:"CreatedAt"`
	UpdatedAt  string  `dynamodbav:"UpdatedAt"`
}

func nodePK(boardID string) string { return fmt.Sprintf("BOARD#%s", boardID) }
func nodeSK(id string) string      { return fmt.Sprintf("NODE#%s", id) }

func toNodeItem(node *entities.Node) nodeItem {
	item := nodeItem{
		PK:         nodePK(node.BoardID()),
		SK:         nodeSK(node.ID().String()),
		EntityType: "NODE",
		NodeID:     node.ID().String(),
		BoardID:    node.BoardID(),
		Kind:       string(node.Kind()),
		Content:    node.Content().Text(),
		X:          node.Position().X(),
		Y:          node.Position().Y(),
		Width:      node.Box().Width(),
		Height:     node.Box().Height(),
		CreatedAt:  node.CreatedAt().UTC().Format(time.RFC3339Nano),
		UpdatedAt:  node.UpdatedAt().UTC().Format(time.RFC3339Nano),
	}
	if pid := node.ParentID(); pid != nil {
		item.ParentID = pid.String()
	}
	if rid := node.RootID(); rid != nil {
		item.RootID = rid.String()
	}
	return item
}

func fromNodeItem(item nodeItem) (*entities.Node, error) {
	id, err := valueobjects.NewNodeIDFromString(item.NodeID)
	if err != nil {
		return nil, fmt.Errorf("invalid stored node id %q: %w", item.NodeID, err)
	}

	var parentID, rootID *valueobjects.NodeID
	if item.ParentID != "" {
		pid, err := valueobjects.NewNodeIDFromString(item.ParentID)
		if err != nil {
			return nil, fmt.Errorf("invalid stored parent id %q: %w", item.ParentID, err)
		}
		parentID = &pid
	}
	if item.RootID != "" {
		rid, err := valueobjects.NewNodeIDFromString(item.RootID)
		if err != nil {
			return nil, fmt.Errorf("invalid stored root id %q: %w", item.RootID, err)
		}
		rootID = &rid
	}

	content, err := valueobjects.NewAnswerContent(item.Content)
	if err != nil {
		return nil, fmt.Errorf("invalid stored content: %w", err)
	}
	box, err := valueobjects.NewBox(item.Width, item.Height)
	if err != nil {
		return nil, fmt.Errorf("invalid stored box: %w", err)
	}

	createdAt, err := time.Parse(time.RFC3339Nano, item.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid stored createdAt: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, item.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid stored updatedAt: %w", err)
	}

	return entities.ReconstructNode(
		id,
		item.BoardID,
		entities.NodeKind(item.Kind),
		content,
		parentID,
		rootID,
		valueobjects.NewPosition(item.X, item.Y),
		box,
		createdAt,
		updatedAt,
	)
}

// Save persists a node
func (r *NodeRepository) Save(ctx context.Context, node *entities.Node) error {
	av, err := attributevalue.MarshalMap(toNodeItem(node))
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      av,
	})
	if err != nil {
		r.logger.Error("failed to save node",
			zap.Error(err),
			zap.String("nodeID", node.ID().String()),
			zap.String("boardID", node.BoardID()),
		)
		return pkgerrors.NewDatabaseError("save node", err)
	}
	return nil
}

// SaveMany persists a batch of nodes with BatchWriteItem, chunked to the
// service limit
func (r *NodeRepository) SaveMany(ctx context.Context, nodes []*entities.Node) error {
	for start := 0; start < len(nodes); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(nodes) {
			end = len(nodes)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, node := range nodes[start:end] {
			av, err := attributevalue.MarshalMap(toNodeItem(node))
			if err != nil {
				return fmt.Errorf("failed to marshal node: %w", err)
			}
			requests = append(requests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: av},
			})
		}

		if err := r.batchWrite(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

// GetByID retrieves a node by id within a board
func (r *NodeRepository) GetByID(ctx context.Context, boardID string, id valueobjects.NodeID) (*entities.Node, error) {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": nodePK(boardID),
		"SK": nodeSK(id.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal key: %w", err)
	}

	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       key,
	})
	if err != nil {
		return nil, pkgerrors.NewDatabaseError("get node", err)
	}
	if out.Item == nil {
		return nil, pkgerrors.NewNotFoundError("node")
	}

	var item nodeItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return fromNodeItem(item)
}

// ListByBoard returns every node on a board, one partition query
func (r *NodeRepository) ListByBoard(ctx context.Context, boardID string) ([]*entities.Node, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(nodePK(boardID))).
		And(expression.Key("SK").BeginsWith("NODE#"))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build query expression: %w", err)
	}

	var nodes []*entities.Node
	var lastKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, pkgerrors.NewDatabaseError("list nodes", err)
		}

		var items []nodeItem
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
		}
		for _, item := range items {
			node, err := fromNodeItem(item)
			if err != nil {
				r.logger.Warn("skipping corrupt node item",
					zap.String("boardID", boardID),
					zap.String("nodeID", item.NodeID),
					zap.Error(err),
				)
				continue
			}
			nodes = append(nodes, node)
		}

		if out.LastEvaluatedKey == nil {
			break
		}
		lastKey = out.LastEvaluatedKey
	}

	return nodes, nil
}

// Delete removes a node. Missing nodes report NotFound so deletion is not
// silently idempotent.
func (r *NodeRepository) Delete(ctx context.Context, boardID string, id valueobjects.NodeID) error {
	key, err := attributevalue.MarshalMap(map[string]string{
		"PK": nodePK(boardID),
		"SK": nodeSK(id.String()),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal key: %w", err)
	}

	cond := expression.AttributeExists(expression.Name("PK"))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build delete expression: %w", err)
	}

	_, err = r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      key,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		var condFailed *types.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return pkgerrors.NewNotFoundError("node")
		}
		return pkgerrors.NewDatabaseError("delete node", err)
	}
	return nil
}

// DeleteMany removes a set of nodes in one batch
func (r *NodeRepository) DeleteMany(ctx context.Context, boardID string, ids []valueobjects.NodeID) error {
	for start := 0; start < len(ids); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(ids) {
			end = len(ids)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, id := range ids[start:end] {
			key, err := attributevalue.MarshalMap(map[string]string{
				"PK": nodePK(boardID),
				"SK": nodeSK(id.String()),
			})
			if err != nil {
				return fmt.Errorf("failed to marshal key: %w", err)
			}
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}

		if err := r.batchWrite(ctx, requests); err != nil {
			return err
		}
	}
	return nil
}

// batchWrite submits a batch and retries unprocessed items with backoff
func (r *NodeRepository) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{r.tableName: requests}
	for attempt := 0; len(pending[r.tableName]) > 0; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(attempt) * 100 * time.Millisecond):
			}
		}
		if attempt >= 5 {
			return pkgerrors.NewDatabaseError("batch write", fmt.Errorf("unprocessed items after %d attempts", attempt))
		}

		out, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: pending,
		})
		if err != nil {
			return pkgerrors.NewDatabaseError("batch write", err)
		}
		pending = out.UnprocessedItems
	}
	return nil
}
