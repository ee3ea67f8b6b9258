package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/cities"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/leads"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// DefaultLeadsTable is used when no table name is configured.
const DefaultLeadsTable = "leads"

// batchWriteLimit is the maximum number of requests in one BatchWriteItem call.
const batchWriteLimit = 25

// DynamoAPI is the subset of the DynamoDB client used by the lead store.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, opts ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// leadItem is the DynamoDB shape of a lead.
// Table requirements:
//   - PK: id (string)
type leadItem struct {
	Email           *string  `dynamodbav:"email,omitempty"`
	ManualUnitPrice *float64 `dynamodbav:"manual_unit_price,omitempty"`
	AssignedTo      *string  `dynamodbav:"assigned_to,omitempty"`
	CreatedBy       *string  `dynamodbav:"created_by,omitempty"`
	ID              string   `dynamodbav:"id"`
	Folio           string   `dynamodbav:"folio"`
	Name            string   `dynamodbav:"name"`
	Phone           string   `dynamodbav:"phone"`
	Address         string   `dynamodbav:"address"`
	City            string   `dynamodbav:"city"`
	CityKey         string   `dynamodbav:"city_key"`
	State           string   `dynamodbav:"state"`
	PostalCode      string   `dynamodbav:"postal_code"`
	MapReference    string   `dynamodbav:"map_reference"`
	Polygon         string   `dynamodbav:"polygon,omitempty"`
	ProductID       string   `dynamodbav:"product_id"`
	PricingMode     string   `dynamodbav:"pricing_mode"`
	Status          string   `dynamodbav:"status"`
	Source          string   `dynamodbav:"source"`
	Notes           string   `dynamodbav:"notes"`
	CreatedAt       string   `dynamodbav:"created_at"`
	UpdatedAt       string   `dynamodbav:"updated_at"`
	Area            float64  `dynamodbav:"area"`
	LogisticsCost   float64  `dynamodbav:"logistics_cost"`
	CashTotal       float64  `dynamodbav:"cash_total"`
	FinancedTotal   float64  `dynamodbav:"financed_total"`
	Version         int64    `dynamodbav:"version"`
	InvoiceRequired bool     `dynamodbav:"invoice_required"`
	IsOutOfZone     bool     `dynamodbav:"is_out_of_zone"`
	Manual          bool     `dynamodbav:"manual"`
}

// LeadDynamoRepository persists leads in DynamoDB. DynamoDB has no change
// notification comparable to LISTEN, so callers wrap it in
// leads.PublishingStore to feed live views.
type LeadDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
	now       func() time.Time
}

var _ leads.Store = (*LeadDynamoRepository)(nil)

// NewLeadDynamoRepository creates a DynamoDB lead store on the given table.
func NewLeadDynamoRepository(ddb DynamoAPI, tableName string) *LeadDynamoRepository {
	if tableName == "" {
		tableName = DefaultLeadsTable
	}
	return &LeadDynamoRepository{ddb: ddb, tableName: tableName, now: time.Now}
}

// Find scans the table and filters in memory. Lead volumes per deployment
// are small enough that a scan stays cheap.
func (r *LeadDynamoRepository) Find(ctx context.Context, f leads.Filter) ([]models.Lead, error) {
	var (
		results []models.Lead
		start   map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to scan leads: %w", err)
		}

		for _, av := range out.Items {
			lead, err := decodeLead(av)
			if err != nil {
				return nil, err
			}
			if f.Matches(*lead) {
				results = append(results, *lead)
			}
		}

		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if f.Limit > 0 && len(results) > f.Limit {
		results = results[:f.Limit]
	}
	if results == nil {
		results = []models.Lead{}
	}
	return results, nil
}

// Get returns nil, nil when the lead does not exist.
func (r *LeadDynamoRepository) Get(ctx context.Context, id string) (*models.Lead, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            leadKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get lead %s: %w", id, err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	return decodeLead(out.Item)
}

// Insert stores a new lead at version 1. An existing id is rejected.
func (r *LeadDynamoRepository) Insert(ctx context.Context, l *models.Lead) error {
	l.Version = 1
	l.UpdatedAt = l.CreatedAt

	av, err := encodeLead(*l)
	if err != nil {
		return err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if errors.As(err, &cfe) {
			return fmt.Errorf("lead %s already exists: %w", l.ID, leads.ErrConflict)
		}
		return fmt.Errorf("failed to insert lead %s: %w", l.ID, err)
	}
	return nil
}

// Update replaces the item when its stored version still equals l.Version,
// then advances l to the next version. A missing item yields
// leads.ErrNotFound and a moved version yields leads.ErrConflict.
func (r *LeadDynamoRepository) Update(ctx context.Context, l *models.Lead) error {
	next := l.Clone()
	next.Version = l.Version + 1
	next.UpdatedAt = r.now().UTC()

	av, err := encodeLead(next)
	if err != nil {
		return err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_exists(#id) AND #version = :version"),
		ExpressionAttributeNames: map[string]string{
			"#id":      "id",
			"#version": "version",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":version": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", l.Version)},
		},
	})
	if err != nil {
		var cfe *types.ConditionalCheckFailedException
		if !errors.As(err, &cfe) {
			return fmt.Errorf("failed to update lead %s: %w", l.ID, err)
		}
		current, getErr := r.Get(ctx, l.ID)
		if getErr != nil {
			return getErr
		}
		if current == nil {
			return leads.ErrNotFound
		}
		return fmt.Errorf("lead %s is at version %d, not %d: %w",
			l.ID, current.Version, l.Version, leads.ErrConflict)
	}

	l.Version = next.Version
	l.UpdatedAt = next.UpdatedAt
	return nil
}

// Delete reports whether an item was removed.
func (r *LeadDynamoRepository) Delete(ctx context.Context, id string) (bool, error) {
	out, err := r.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(r.tableName),
		Key:          leadKey(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete lead %s: %w", id, err)
	}
	return len(out.Attributes) > 0, nil
}

// DeleteAll removes every item in batches and returns how many were deleted.
// Items DynamoDB reports as unprocessed are not resubmitted; the call fails
// and the count covers what was actually removed.
func (r *LeadDynamoRepository) DeleteAll(ctx context.Context) (int64, error) {
	var (
		ids   []string
		start map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Scan(ctx, &dynamodb.ScanInput{
			TableName:                aws.String(r.tableName),
			ProjectionExpression:     aws.String("#id"),
			ExpressionAttributeNames: map[string]string{"#id": "id"},
			ExclusiveStartKey:        start,
		})
		if err != nil {
			return 0, fmt.Errorf("failed to scan lead ids: %w", err)
		}
		for _, av := range out.Items {
			if s, ok := av["id"].(*types.AttributeValueMemberS); ok {
				ids = append(ids, s.Value)
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}

	var deleted int64
	for len(ids) > 0 {
		n := min(batchWriteLimit, len(ids))
		batch := ids[:n]
		ids = ids[n:]

		requests := make([]types.WriteRequest, 0, len(batch))
		for _, id := range batch {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: leadKey(id)},
			})
		}

		out, err := r.ddb.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{r.tableName: requests},
		})
		if err != nil {
			return deleted, fmt.Errorf("failed to delete lead batch: %w", err)
		}

		unprocessed := len(out.UnprocessedItems[r.tableName])
		deleted += int64(len(batch) - unprocessed)
		if unprocessed > 0 {
			return deleted, fmt.Errorf("%d leads were not deleted", unprocessed+len(ids))
		}
	}
	return deleted, nil
}

func leadKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func toLeadItem(l models.Lead) (leadItem, error) {
	it := leadItem{
		Email:           l.Email,
		ManualUnitPrice: l.ManualUnitPrice,
		AssignedTo:      l.AssignedTo,
		CreatedBy:       l.CreatedBy,
		ID:              l.ID,
		Folio:           l.Folio,
		Name:            l.Name,
		Phone:           l.Phone,
		Address:         l.Address,
		City:            l.City,
		CityKey:         cities.Normalize(l.City),
		State:           l.State,
		PostalCode:      l.PostalCode,
		MapReference:    l.MapReference,
		ProductID:       l.ProductID,
		PricingMode:     string(l.PricingMode),
		Status:          string(l.Status),
		Source:          l.Source,
		Notes:           l.Notes,
		CreatedAt:       l.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:       l.UpdatedAt.UTC().Format(time.RFC3339Nano),
		Area:            l.Area,
		LogisticsCost:   l.LogisticsCost,
		CashTotal:       l.CashTotal,
		FinancedTotal:   l.FinancedTotal,
		Version:         l.Version,
		InvoiceRequired: l.InvoiceRequired,
		IsOutOfZone:     l.IsOutOfZone,
		Manual:          l.Manual,
	}

	if !l.Polygon.IsEmpty() {
		geom, err := l.Polygon.MarshalJSON()
		if err != nil {
			return leadItem{}, err
		}
		it.Polygon = string(geom)
	}
	return it, nil
}

func fromLeadItem(it leadItem) (models.Lead, error) {
	createdAt, _ := time.Parse(time.RFC3339Nano, it.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, it.UpdatedAt)

	l := models.Lead{
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
		Email:           it.Email,
		ManualUnitPrice: it.ManualUnitPrice,
		AssignedTo:      it.AssignedTo,
		CreatedBy:       it.CreatedBy,
		ID:              it.ID,
		Folio:           it.Folio,
		Name:            it.Name,
		Phone:           it.Phone,
		Address:         it.Address,
		City:            it.City,
		State:           it.State,
		PostalCode:      it.PostalCode,
		MapReference:    it.MapReference,
		ProductID:       it.ProductID,
		PricingMode:     models.PricingMode(it.PricingMode),
		Status:          models.LeadStatus(it.Status),
		Source:          it.Source,
		Notes:           it.Notes,
		Area:            it.Area,
		LogisticsCost:   it.LogisticsCost,
		CashTotal:       it.CashTotal,
		FinancedTotal:   it.FinancedTotal,
		Version:         it.Version,
		InvoiceRequired: it.InvoiceRequired,
		IsOutOfZone:     it.IsOutOfZone,
		Manual:          it.Manual,
	}

	if it.Polygon != "" {
		if err := l.Polygon.UnmarshalJSON([]byte(it.Polygon)); err != nil {
			return models.Lead{}, fmt.Errorf("failed to parse polygon for lead %s: %w", it.ID, err)
		}
	}
	return l, nil
}

func encodeLead(l models.Lead) (map[string]types.AttributeValue, error) {
	it, err := toLeadItem(l)
	if err != nil {
		return nil, err
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lead %s: %w", l.ID, err)
	}
	return av, nil
}

func decodeLead(av map[string]types.AttributeValue) (*models.Lead, error) {
	var it leadItem
	if err := attributevalue.UnmarshalMap(av, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lead item: %w", err)
	}
	l, err := fromLeadItem(it)
	if err != nil {
		return nil, err
	}
	return &l, nil
}
