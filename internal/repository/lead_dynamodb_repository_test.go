package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/geo"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/leads"
	"github.com/rogermontejo-alw/pagina-Thermo-House-sub000/internal/models"
)

// fakeDynamo is an in-memory table keyed by id that understands the
// condition expressions the lead store issues.
type fakeDynamo struct {
	mu       sync.Mutex
	items    map[string]map[string]types.AttributeValue
	pageSize int
	scans    int
	failNext error
}

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: map[string]map[string]types.AttributeValue{}}
}

func idOf(key map[string]types.AttributeValue) string {
	return key["id"].(*types.AttributeValueMemberS).Value
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &dynamodb.GetItemOutput{Item: f.items[idOf(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failNext; err != nil {
		f.failNext = nil
		return nil, err
	}

	id := idOf(in.Item)
	existing, exists := f.items[id]
	failed := &types.ConditionalCheckFailedException{Message: aws.String("conditional check failed")}

	switch aws.ToString(in.ConditionExpression) {
	case "attribute_not_exists(#id)":
		if exists {
			return nil, failed
		}
	case "attribute_exists(#id) AND #version = :version":
		if !exists {
			return nil, failed
		}
		want := in.ExpressionAttributeValues[":version"].(*types.AttributeValueMemberN).Value
		if existing["version"].(*types.AttributeValueMemberN).Value != want {
			return nil, failed
		}
	}
	f.items[id] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (f *fakeDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := idOf(in.Key)
	old := f.items[id]
	delete(f.items, id)
	return &dynamodb.DeleteItemOutput{Attributes: old}, nil
}

func (f *fakeDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scans++

	ids := make([]string, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if in.ExclusiveStartKey != nil {
		after := idOf(in.ExclusiveStartKey)
		i := sort.SearchStrings(ids, after)
		if i < len(ids) && ids[i] == after {
			i++
		}
		ids = ids[i:]
	}

	out := &dynamodb.ScanOutput{}
	for i, id := range ids {
		if f.pageSize > 0 && i == f.pageSize {
			out.LastEvaluatedKey = leadKey(ids[i-1])
			break
		}
		item := f.items[id]
		if in.ProjectionExpression != nil {
			item = map[string]types.AttributeValue{"id": item["id"]}
		}
		out.Items = append(out.Items, item)
	}
	return out, nil
}

func (f *fakeDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, requests := range in.RequestItems {
		if len(requests) > batchWriteLimit {
			return nil, fmt.Errorf("too many requests: %d", len(requests))
		}
		for _, req := range requests {
			delete(f.items, idOf(req.DeleteRequest.Key))
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

var dynamoBase = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func dynamoLead(id, city string, offset time.Duration) *models.Lead {
	email := "cliente@example.com"
	return &models.Lead{
		ID:          id,
		Folio:       "MER-20240501100000",
		Name:        "Cliente " + id,
		Phone:       "9991234567",
		Email:       &email,
		Address:     "Calle 60 #500",
		City:        city,
		State:       "Yucatán",
		ProductID:   "basic",
		PricingMode: models.PricingCash,
		Status:      models.StatusNew,
		Area:        100,
		CashTotal:   7900,
		CreatedAt:   dynamoBase.Add(offset),
		Polygon: models.NewPolygon([]geo.LatLng{
			{Lat: 20.9674, Lng: -89.6237},
			{Lat: 20.9674, Lng: -89.6236},
			{Lat: 20.96749, Lng: -89.6236},
		}),
	}
}

func newDynamoStore() (*LeadDynamoRepository, *fakeDynamo) {
	fake := newFakeDynamo()
	repo := NewLeadDynamoRepository(fake, "")
	repo.now = func() time.Time { return dynamoBase.Add(time.Hour) }
	return repo, fake
}

func TestLeadItemRoundTrip(t *testing.T) {
	price := 85.5
	assignee := "seller-1"
	in := dynamoLead("a", "Mérida", 0)
	in.ManualUnitPrice = &price
	in.AssignedTo = &assignee
	in.Version = 3

	av, err := encodeLead(*in)
	require.NoError(t, err)
	assert.Equal(t, "merida", av["city_key"].(*types.AttributeValueMemberS).Value)
	assert.NotContains(t, av, "created_by")

	out, err := decodeLead(av)
	require.NoError(t, err)
	assert.Equal(t, *in, *out)
}

func TestLeadItemWithoutPolygon(t *testing.T) {
	in := dynamoLead("a", "Mérida", 0)
	in.Polygon = models.Polygon{}

	av, err := encodeLead(*in)
	require.NoError(t, err)
	assert.NotContains(t, av, "polygon")

	out, err := decodeLead(av)
	require.NoError(t, err)
	assert.True(t, out.Polygon.IsEmpty())
}

func TestLeadDynamoRepository_InsertGet(t *testing.T) {
	repo, _ := newDynamoStore()
	ctx := context.Background()

	lead := dynamoLead("a", "Mérida", 0)
	require.NoError(t, repo.Insert(ctx, lead))
	assert.Equal(t, int64(1), lead.Version)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Cliente a", got.Name)
	assert.Equal(t, int64(1), got.Version)

	missing, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	err = repo.Insert(ctx, dynamoLead("a", "Mérida", 0))
	assert.ErrorIs(t, err, leads.ErrConflict)
}

func TestLeadDynamoRepository_Update(t *testing.T) {
	repo, _ := newDynamoStore()
	ctx := context.Background()

	lead := dynamoLead("a", "Mérida", 0)
	require.NoError(t, repo.Insert(ctx, lead))

	lead.Status = models.StatusContacted
	require.NoError(t, repo.Update(ctx, lead))
	assert.Equal(t, int64(2), lead.Version)
	assert.Equal(t, dynamoBase.Add(time.Hour), lead.UpdatedAt)

	got, err := repo.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, models.StatusContacted, got.Status)
	assert.Equal(t, int64(2), got.Version)

	stale := got.Clone()
	stale.Version = 1
	assert.ErrorIs(t, repo.Update(ctx, &stale), leads.ErrConflict)

	gone := dynamoLead("missing", "Mérida", 0)
	gone.Version = 1
	assert.ErrorIs(t, repo.Update(ctx, gone), leads.ErrNotFound)
}

func TestLeadDynamoRepository_UpdateStoreFailure(t *testing.T) {
	repo, fake := newDynamoStore()
	ctx := context.Background()

	lead := dynamoLead("a", "Mérida", 0)
	require.NoError(t, repo.Insert(ctx, lead))

	fake.failNext = errors.New("throttled")
	err := repo.Update(ctx, lead)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "throttled")
	assert.Equal(t, int64(1), lead.Version)
}

func TestLeadDynamoRepository_Find(t *testing.T) {
	repo, fake := newDynamoStore()
	fake.pageSize = 2
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, dynamoLead("a", "Mérida", 0)))
	require.NoError(t, repo.Insert(ctx, dynamoLead("b", "MERIDA", time.Minute)))
	require.NoError(t, repo.Insert(ctx, dynamoLead("c", "Cancún", 2*time.Minute)))
	assigned := dynamoLead("d", "Cancún", 3*time.Minute)
	assigned.AssignedTo = aws.String("seller-1")
	require.NoError(t, repo.Insert(ctx, assigned))

	all, err := repo.Find(ctx, leads.Filter{Scope: leads.Scope{Global: true}})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "c", "b", "a"}, leadIDs(all))
	assert.GreaterOrEqual(t, fake.scans, 2, "expected paginated scan")

	scoped, err := repo.Find(ctx, leads.Filter{Scope: leads.Scope{City: "merida", UserID: "seller-1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"d", "b", "a"}, leadIDs(scoped))

	limited, err := repo.Find(ctx, leads.Filter{Scope: leads.Scope{Global: true}, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, leadIDs(limited))

	none, err := repo.Find(ctx, leads.Filter{})
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestLeadDynamoRepository_Delete(t *testing.T) {
	repo, _ := newDynamoStore()
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, dynamoLead("a", "Mérida", 0)))

	ok, err := repo.Delete(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Delete(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeadDynamoRepository_DeleteAll(t *testing.T) {
	repo, fake := newDynamoStore()
	fake.pageSize = 10
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		require.NoError(t, repo.Insert(ctx, dynamoLead(fmt.Sprintf("lead-%02d", i), "Mérida", time.Duration(i)*time.Second)))
	}

	n, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(60), n)
	assert.Empty(t, fake.items)
}

func leadIDs(ls []models.Lead) []string {
	out := make([]string, 0, len(ls))
	for _, l := range ls {
		out = append(out, l.ID)
	}
	return out
}
