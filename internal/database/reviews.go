package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/repolens/reviewserver/internal/logger"
	"github.com/repolens/reviewserver/internal/models"
)

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")
)

// ReviewOperations handles all DynamoDB operations for reviews
type ReviewOperations struct {
	client    *Client
	tableName string
}

// NewReviewOperations creates a new ReviewOperations instance
func NewReviewOperations(client *Client, tableName string) *ReviewOperations {
	return &ReviewOperations{
		client:    client,
		tableName: tableName,
	}
}

// CreateReview creates a review record in DynamoDB
func (ro *ReviewOperations) CreateReview(ctx context.Context, review *models.Review) error {
	logger.WithFields(map[string]interface{}{
		"review_id":      review.ReviewId,
		"user_id":        review.UserId,
		"repository_url": review.RepositoryURL,
	}).Debug("Creating review in DynamoDB")

	// Marshal the review into a DynamoDB attribute value map
	av, err := attributevalue.MarshalMap(map[string]interface{}{
		"ReviewId":              review.ReviewId,
		"UserId":                review.UserId,
		"RepositoryURL":         review.RepositoryURL,
		"AssignmentDescription": review.AssignmentDescription,
		"CandidateLevel":        review.CandidateLevel,
		"Status":                review.Status,
		"CreatedAt":             review.CreatedAt.Unix(),
		"UpdatedAt":             review.UpdatedAt.Unix(),
	})

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"review_id": review.ReviewId,
			"error":     err.Error(),
		}).Error("Failed to marshal review")
		return fmt.Errorf("failed to marshal review: %w", err)
	}

	_, err = ro.client.DynamoDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(ro.tableName),
		Item:      av,
	})

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"review_id": review.ReviewId,
			"error":     err.Error(),
		}).Error("Failed to create review in DynamoDB")
		return fmt.Errorf("failed to create review: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"review_id": review.ReviewId,
	}).Info("Review created successfully in DynamoDB")

	return nil
}

// GetReview retrieves a review by its ID from DynamoDB
func (ro *ReviewOperations) GetReview(ctx context.Context, reviewId string) (*models.Review, error) {
	logger.WithField("review_id", reviewId).Debug("Retrieving review from DynamoDB")

	result, err := ro.client.DynamoDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(ro.tableName),
		Key: map[string]types.AttributeValue{
			"ReviewId": &types.AttributeValueMemberS{Value: reviewId},
		},
	})

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"review_id": reviewId,
			"error":     err.Error(),
		}).Error("Failed to get review from DynamoDB")
		return nil, fmt.Errorf("failed to get review: %w", err)
	}

	if result.Item == nil {
		logger.WithField("review_id", reviewId).Warn("Review not found in DynamoDB")
		return nil, ErrNotFound
	}

	review, err := ro.unmarshalReview(result.Item)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"review_id": reviewId,
			"error":     err.Error(),
		}).Error("Failed to unmarshal review")
		return nil, fmt.Errorf("failed to unmarshal review: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"review_id": reviewId,
		"status":    review.Status,
	}).Debug("Review retrieved successfully from DynamoDB")

	return review, nil
}

// GetReviewsByUserId retrieves all reviews for a specific user from DynamoDB
func (ro *ReviewOperations) GetReviewsByUserId(ctx context.Context, userId string) ([]*models.Review, error) {
	// Use Scan with FilterExpression to filter by UserId
	result, err := ro.client.DynamoDB.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(ro.tableName),
		FilterExpression: aws.String("UserId = :userId"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":userId": &types.AttributeValueMemberS{Value: userId},
		},
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan reviews by user_id: %w", err)
	}

	reviews := make([]*models.Review, 0, len(result.Items))
	for _, item := range result.Items {
		review, err := ro.unmarshalReview(item)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal review: %w", err)
		}
		reviews = append(reviews, review)
	}

	return reviews, nil
}

// UpdateReview updates a review with all fields including stages, logs and findings
func (ro *ReviewOperations) UpdateReview(ctx context.Context, review *models.Review) error {
	logger.WithFields(map[string]interface{}{
		"review_id": review.ReviewId,
		"status":    review.Status,
	}).Debug("Updating review in DynamoDB")

	updateExpr := "SET #status = :status, #stages = :stages, #logs = :logs, #findings = :findings, UpdatedAt = :updated_at"
	exprAttrNames := map[string]string{
		"#status":   "Status",
		"#stages":   "Stages",
		"#logs":     "RunLogs",
		"#findings": "Findings",
	}

	// Convert nested structures to DynamoDB attribute values
	stagesAv, _ := attributevalue.Marshal(review.Stages)
	logsAv, _ := attributevalue.Marshal(review.RunLogs)
	findingsAv, _ := attributevalue.Marshal(review.Findings)

	exprAttrVals := map[string]types.AttributeValue{
		":status":     &types.AttributeValueMemberS{Value: review.Status},
		":stages":     stagesAv,
		":logs":       logsAv,
		":findings":   findingsAv,
		":updated_at": &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", review.UpdatedAt.Unix())},
	}

	_, err := ro.client.DynamoDB.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: aws.String(ro.tableName),
		Key: map[string]types.AttributeValue{
			"ReviewId": &types.AttributeValueMemberS{Value: review.ReviewId},
		},
		UpdateExpression:          aws.String(updateExpr),
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrVals,
		ConditionExpression:       aws.String("attribute_exists(ReviewId)"),
	})

	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			logger.WithField("review_id", review.ReviewId).Warn("Review not found during update")
			return ErrNotFound
		}
		logger.WithFields(map[string]interface{}{
			"review_id": review.ReviewId,
			"error":     err.Error(),
		}).Error("Failed to update review in DynamoDB")
		return fmt.Errorf("failed to update review: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"review_id": review.ReviewId,
		"status":    review.Status,
	}).Info("Review updated successfully in DynamoDB")

	return nil
}

// unmarshalReview is a helper function to unmarshal DynamoDB item to Review domain model
func (ro *ReviewOperations) unmarshalReview(item map[string]types.AttributeValue) (*models.Review, error) {
	// Unmarshal into a temporary struct to handle custom conversions
	var temp struct {
		ReviewId              string                               `dynamodbav:"ReviewId"`
		UserId                string                               `dynamodbav:"UserId"`
		RepositoryURL         string                               `dynamodbav:"RepositoryURL"`
		AssignmentDescription string                               `dynamodbav:"AssignmentDescription"`
		CandidateLevel        string                               `dynamodbav:"CandidateLevel"`
		Status                string                               `dynamodbav:"Status"`
		Stages                map[string]*models.ReviewStageStatus `dynamodbav:"Stages"`
		RunLogs               []models.ReviewLogEntry              `dynamodbav:"RunLogs"`
		Findings              []models.Finding                     `dynamodbav:"Findings"`
		CreatedAt             int64                                `dynamodbav:"CreatedAt"`
		UpdatedAt             int64                                `dynamodbav:"UpdatedAt"`
	}

	err := attributevalue.UnmarshalMap(item, &temp)
	if err != nil {
		return nil, err
	}

	// Convert to domain model with proper time.Time conversion
	review := &models.Review{
		ReviewId:              temp.ReviewId,
		UserId:                temp.UserId,
		RepositoryURL:         temp.RepositoryURL,
		AssignmentDescription: temp.AssignmentDescription,
		CandidateLevel:        temp.CandidateLevel,
		Status:                temp.Status,
		Stages:                temp.Stages,
		RunLogs:               temp.RunLogs,
		Findings:              temp.Findings,
		CreatedAt:             time.Unix(temp.CreatedAt, 0),
		UpdatedAt:             time.Unix(temp.UpdatedAt, 0),
	}

	return review, nil
}
