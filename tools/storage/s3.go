package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3ConversionState implements ConversionState backed by S3

type S3ConversionState struct {
	bucket string
	key    string
	s3     *s3.Client
}

func NewS3ConversionState(s3Client *s3.Client, bucket, key string) *S3ConversionState {
	return &S3ConversionState{
		bucket: bucket,
		key:    key,
		s3:     s3Client,
	}
}

func (s *S3ConversionState) Load(ctx context.Context) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion table object from S3: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// S3RecipeSource implements RecipeSource backed by S3

type S3RecipeSource struct {
	bucket string
	key    string
	s3     *s3.Client
}

func NewS3RecipeSource(s3Client *s3.Client, bucket, key string) *S3RecipeSource {
	return &S3RecipeSource{
		bucket: bucket,
		key:    key,
		s3:     s3Client,
	}
}

func (s *S3RecipeSource) Load(ctx context.Context) ([]byte, error) {
	resp, err := s.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get recipe object from S3: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}
