package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NicolasDuarte04/Briki-Web-App-sub006/models"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoPlanAdapter is the DynamoDB-backed PlanRepo.
// Plans are stored in a table with primary key `pk` (string), which is
// "<company_id>#<plan_id>" so one company can never overwrite another's plan.
type DynamoPlanAdapter struct {
	client *dynamodb.Client
	table  string
}

func NewDynamoPlanAdapter(client *dynamodb.Client, table string) *DynamoPlanAdapter {
	return &DynamoPlanAdapter{client: client, table: table}
}

type ddbPlan struct {
	PK             string               `dynamodbav:"pk"`
	PlanID         string               `dynamodbav:"plan_id"`
	Name           string               `dynamodbav:"name"`
	Category       string               `dynamodbav:"category"`
	BasePrice      float64              `dynamodbav:"base_price"`
	CoverageAmount float64              `dynamodbav:"coverage_amount"`
	Provider       *string              `dynamodbav:"provider,omitempty"`
	Description    *string              `dynamodbav:"description,omitempty"`
	Features       []string             `dynamodbav:"features,omitempty"`
	Rating         *float64             `dynamodbav:"rating,omitempty"`
	Badge          *string              `dynamodbav:"badge,omitempty"`
	CompanyID      int64                `dynamodbav:"company_id"`
	Travel         *models.TravelFields `dynamodbav:"travel,omitempty"`
	Auto           *models.AutoFields   `dynamodbav:"auto,omitempty"`
	Pet            *models.PetFields    `dynamodbav:"pet,omitempty"`
	Health         *models.HealthFields `dynamodbav:"health,omitempty"`
	CreatedAt      string               `dynamodbav:"created_at"`
}

func toDDBPlan(p models.Plan) ddbPlan {
	dp := ddbPlan{
		PK:             planKey(p.CompanyID, p.PlanID),
		PlanID:         p.PlanID,
		Name:           p.Name,
		Category:       string(p.Category),
		BasePrice:      p.BasePrice,
		CoverageAmount: p.CoverageAmount,
		Features:       p.Features,
		Rating:         p.Rating,
		CompanyID:      p.CompanyID,
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p.Provider != "" {
		dp.Provider = &p.Provider
	}
	if p.Description != "" {
		dp.Description = &p.Description
	}
	if p.Badge != "" {
		dp.Badge = &p.Badge
	}
	switch f := p.CategoryFields.(type) {
	case models.TravelFields:
		dp.Travel = &f
	case models.AutoFields:
		dp.Auto = &f
	case models.PetFields:
		dp.Pet = &f
	case models.HealthFields:
		dp.Health = &f
	}
	return dp
}

func planKey(companyID int64, planID string) string {
	return fmt.Sprintf("%d#%s", companyID, planID)
}

func fromDDBPlan(dp ddbPlan) models.Plan {
	p := models.Plan{
		PlanID:         dp.PlanID,
		Name:           dp.Name,
		Category:       models.Category(dp.Category),
		BasePrice:      dp.BasePrice,
		CoverageAmount: dp.CoverageAmount,
		Features:       dp.Features,
		Rating:         dp.Rating,
		CompanyID:      dp.CompanyID,
	}
	if dp.Provider != nil {
		p.Provider = *dp.Provider
	}
	if dp.Description != nil {
		p.Description = *dp.Description
	}
	if dp.Badge != nil {
		p.Badge = *dp.Badge
	}
	switch {
	case dp.Travel != nil:
		p.CategoryFields = *dp.Travel
	case dp.Auto != nil:
		p.CategoryFields = *dp.Auto
	case dp.Pet != nil:
		p.CategoryFields = *dp.Pet
	case dp.Health != nil:
		p.CategoryFields = *dp.Health
	}
	if t, err := time.Parse(time.RFC3339, dp.CreatedAt); err == nil {
		p.CreatedAt = t
	}
	return p
}

// CreateMany uses BatchWriteItem (chunks of 25). Chunks are not atomic, so
// on error the returned count still tells how many plans were written.
func (d *DynamoPlanAdapter) CreateMany(ctx context.Context, plans []models.Plan) (int, error) {
	const chunkSize = 25
	written := 0
	for i := 0; i < len(plans); i += chunkSize {
		end := min(i+chunkSize, len(plans))
		writes := make([]types.WriteRequest, 0, end-i)
		for _, p := range plans[i:end] {
			item, err := attributevalue.MarshalMap(toDDBPlan(p))
			if err != nil {
				return written, fmt.Errorf("marshal plan %s: %w", p.PlanID, err)
			}
			writes = append(writes, types.WriteRequest{PutRequest: &types.PutRequest{Item: item}})
		}

		req := &dynamodb.BatchWriteItemInput{RequestItems: map[string][]types.WriteRequest{d.table: writes}}
		pending := len(writes)
		attempts := 0
		for {
			out, err := d.client.BatchWriteItem(ctx, req)
			if err != nil {
				return written, fmt.Errorf("batch write failed: %w", err)
			}
			unp := out.UnprocessedItems[d.table]
			written += pending - len(unp)
			pending = len(unp)
			if pending == 0 {
				break
			}
			attempts++
			if attempts >= 3 {
				return written, fmt.Errorf("batch write had %d unprocessed items after retries", pending)
			}
			req.RequestItems[d.table] = unp
			time.Sleep(time.Duration(attempts*300) * time.Millisecond)
		}
	}
	return written, nil
}

// Find scans the table, applying the filter server-side.
func (d *DynamoPlanAdapter) Find(ctx context.Context, filter PlanFilter) ([]models.Plan, error) {
	input := &dynamodb.ScanInput{TableName: &d.table}

	var conds []string
	vals := make(map[string]types.AttributeValue)
	names := make(map[string]string)
	if filter.Category != "" {
		conds = append(conds, "#cat = :cat")
		names["#cat"] = "category"
		vals[":cat"] = &types.AttributeValueMemberS{Value: string(filter.Category)}
	}
	if filter.CompanyID > 0 {
		conds = append(conds, "company_id = :cid")
		vals[":cid"] = &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", filter.CompanyID)}
	}
	if len(conds) > 0 {
		expr := strings.Join(conds, " AND ")
		input.FilterExpression = &expr
		input.ExpressionAttributeValues = vals
		if len(names) > 0 {
			input.ExpressionAttributeNames = names
		}
	}

	var results []models.Plan
	paginator := dynamodb.NewScanPaginator(d.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("scan page failed: %w", err)
		}
		for _, it := range page.Items {
			var dp ddbPlan
			if err := attributevalue.UnmarshalMap(it, &dp); err != nil {
				return nil, fmt.Errorf("unmarshal item: %w", err)
			}
			results = append(results, fromDDBPlan(dp))
			if filter.Limit > 0 && len(results) >= filter.Limit {
				return results, nil
			}
		}
	}
	return results, nil
}
