package ingest

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/agentic-research/arbor/api"
)

// LoadDynamoDB scans a whole table. Scan order is the source order.
// Numbers decode as float64; integral values are accepted as integer ids.
func LoadDynamoDB(ctx context.Context, client dynamodb.ScanAPIClient, table string) ([]api.Item, error) {
	if table == "" {
		return nil, fmt.Errorf("dynamodb source requires a table name")
	}

	var items []api.Item
	p := dynamodb.NewScanPaginator(client, &dynamodb.ScanInput{
		TableName: aws.String(table),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		var rows []map[string]any
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &rows); err != nil {
			return nil, fmt.Errorf("unmarshal %s page: %w", table, err)
		}
		for _, row := range rows {
			items = append(items, api.ItemFromMap(row))
		}
	}
	return items, nil
}
