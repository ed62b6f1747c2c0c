package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Archive persists generated reports: the full JSON document to S3 and an
// index row to DynamoDB so report history can be listed without S3 scans.
type Archive struct {
	dynamoDB  *dynamodb.Client
	s3Client  *s3.Client
	tableName string
	bucket    string
}

// reportItem is the DynamoDB index row for an archived report
type reportItem struct {
	PK          string `dynamodbav:"PK"`
	SK          string `dynamodbav:"SK"`
	S3Key       string `dynamodbav:"S3Key"`
	WindowFrom  string `dynamodbav:"WindowFrom"`
	WindowTo    string `dynamodbav:"WindowTo"`
	GeneratedAt string `dynamodbav:"GeneratedAt"`
	TTL         int64  `dynamodbav:"TTL,omitempty"`
}

// NewArchive creates a report archive
func NewArchive(dynamoClient *dynamodb.Client, s3Client *s3.Client, tableName, bucket string) *Archive {
	return &Archive{
		dynamoDB:  dynamoClient,
		s3Client:  s3Client,
		tableName: tableName,
		bucket:    bucket,
	}
}

// SaveReport writes the report JSON to S3 and indexes it in DynamoDB.
// Index rows expire after a year.
func (a *Archive) SaveReport(ctx context.Context, report *Report) error {
	key := fmt.Sprintf("reports/%s/%s.json",
		report.OrganizationID, report.GeneratedAt.UTC().Format("2006-01-02T15-04-05"))

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}

	_, err = a.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("putting report to S3: %w", err)
	}

	item := reportItem{
		PK:          "REPORT#" + report.OrganizationID.String(),
		SK:          report.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z"),
		S3Key:       key,
		WindowFrom:  report.From.UTC().Format(time.RFC3339),
		WindowTo:    report.To.UTC().Format(time.RFC3339),
		GeneratedAt: report.GeneratedAt.UTC().Format(time.RFC3339),
		TTL:         report.GeneratedAt.Add(365 * 24 * time.Hour).Unix(),
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("marshaling report index: %w", err)
	}

	_, err = a.dynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(a.tableName),
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("putting report index to DynamoDB: %w", err)
	}
	return nil
}

// ReportRef is one entry in an organization's archived report history
type ReportRef struct {
	S3Key       string    `json:"s3_key"`
	WindowFrom  time.Time `json:"window_from"`
	WindowTo    time.Time `json:"window_to"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ListReports returns archive index entries for an organization, newest first
func (a *Archive) ListReports(ctx context.Context, orgID uuid.UUID, limit int) ([]ReportRef, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	result, err := a.dynamoDB.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(a.tableName),
		KeyConditionExpression: aws.String("PK = :pk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: "REPORT#" + orgID.String()},
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, fmt.Errorf("querying report index: %w", err)
	}

	var refs []ReportRef
	for _, raw := range result.Items {
		var item reportItem
		if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
			continue
		}
		ref := ReportRef{S3Key: item.S3Key}
		ref.WindowFrom, _ = time.Parse(time.RFC3339, item.WindowFrom)
		ref.WindowTo, _ = time.Parse(time.RFC3339, item.WindowTo)
		ref.GeneratedAt, _ = time.Parse(time.RFC3339, item.GeneratedAt)
		refs = append(refs, ref)
	}
	return refs, nil
}

// GetReport loads an archived report document from S3 by key
func (a *Archive) GetReport(ctx context.Context, key string) (*Report, error) {
	result, err := a.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("getting report from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("reading report body: %w", err)
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshaling report: %w", err)
	}
	return &report, nil
}
