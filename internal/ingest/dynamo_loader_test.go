package ingest

import (
	"context"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeScanner serves pre-built pages, linking them with LastEvaluatedKey.
type fakeScanner struct {
	t      *testing.T
	pages  [][]map[string]types.AttributeValue
	inputs []*dynamodb.ScanInput
}

func newFakeScanner(t *testing.T, pages ...[]map[string]any) *fakeScanner {
	f := &fakeScanner{t: t}
	for _, page := range pages {
		var items []map[string]types.AttributeValue
		for _, rec := range page {
			av, err := attributevalue.MarshalMap(rec)
			require.NoError(t, err)
			items = append(items, av)
		}
		f.pages = append(f.pages, items)
	}
	return f
}

func (f *fakeScanner) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	f.inputs = append(f.inputs, in)

	page := 0
	if in.ExclusiveStartKey != nil {
		n, ok := in.ExclusiveStartKey["page"].(*types.AttributeValueMemberN)
		require.True(f.t, ok)
		page, _ = strconv.Atoi(n.Value)
	}

	out := &dynamodb.ScanOutput{Items: f.pages[page]}
	if page+1 < len(f.pages) {
		out.LastEvaluatedKey = map[string]types.AttributeValue{
			"page": &types.AttributeValueMemberN{Value: strconv.Itoa(page + 1)},
		}
	}
	return out, nil
}

func TestLoadDynamoDB_PagesInScanOrder(t *testing.T) {
	scanner := newFakeScanner(t,
		[]map[string]any{
			{"id": 1, "parent": "root"},
			{"id": 2, "parent": 1, "name": "two"},
		},
		[]map[string]any{
			{"id": "leaf", "parent": 2},
		},
	)

	items, err := LoadDynamoDB(context.Background(), scanner, "tree")
	require.NoError(t, err)
	require.Len(t, items, 3)

	assert.Equal(t, float64(1), items[0].ID)
	assert.Equal(t, "two", items[1].Fields["name"])
	assert.Equal(t, "leaf", items[2].ID)
	assert.Equal(t, float64(2), items[2].Parent)

	require.Len(t, scanner.inputs, 2)
	assert.Equal(t, "tree", aws.ToString(scanner.inputs[0].TableName))
	assert.Nil(t, scanner.inputs[0].ExclusiveStartKey)
	assert.NotNil(t, scanner.inputs[1].ExclusiveStartKey)
}

func TestLoadDynamoDB_RequiresTable(t *testing.T) {
	_, err := LoadDynamoDB(context.Background(), newFakeScanner(t), "")
	assert.Error(t, err)
}

func TestLoader_DynamoDB(t *testing.T) {
	l := NewLoader(nil, nil)
	l.Dynamo = newFakeScanner(t, []map[string]any{{"id": "a"}})

	snap, err := l.Load(context.Background(), Source{Kind: KindDynamoDB, Table: "tree"})
	require.NoError(t, err)
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "dynamodb:tree", snap.Source.String())
}
