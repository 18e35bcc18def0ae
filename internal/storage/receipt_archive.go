// Package storage archives generated receipts to an S3-compatible bucket.
// Uploads are best effort; a missing or failing bucket never blocks a
// payment flow.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"time"

	appconfig "fee-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type ReceiptArchive struct {
	client *s3.Client
	bucket string
}

// NewReceiptArchive builds the archive client from config. Returns nil when
// archiving is disabled or misconfigured; callers treat a nil archive as off.
func NewReceiptArchive(cfg *appconfig.Config) *ReceiptArchive {
	if !cfg.Archive.Enabled {
		return nil
	}
	if cfg.Archive.Bucket == "" || cfg.Archive.AccessKey == "" || cfg.Archive.SecretKey == "" {
		log.Printf("[Archive] Enabled but incomplete configuration, receipt archiving off")
		return nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.Archive.AccessKey,
			cfg.Archive.SecretKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Archive.Region),
	)
	if err != nil {
		log.Printf("[Archive] Failed to load S3 config: %v", err)
		return nil
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Archive.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Archive.Endpoint)
		}
	})
	return &ReceiptArchive{client: client, bucket: cfg.Archive.Bucket}
}

// Store uploads a receipt PDF keyed by receipt number and date.
// Safe to call on a nil archive.
func (a *ReceiptArchive) Store(ctx context.Context, receiptNumber string, pdf []byte) {
	if a == nil {
		return
	}

	key := fmt.Sprintf("receipts/%s/%s.pdf", time.Now().Format("2006/01"), receiptNumber)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdf),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		log.Printf("[Archive] Failed to upload receipt %s: %v", receiptNumber, err)
		return
	}
	log.Printf("[Archive] Stored receipt %s", key)
}
