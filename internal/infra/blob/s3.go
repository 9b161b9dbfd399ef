package blob

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/userlink/userlink-server/internal/config"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
)

var ErrDisabled = errors.New("object storage is not configured")

// S3Deps holds file content for the files module.
type S3Deps struct {
	Client    *s3.Client
	Uploader  *manager.Uploader
	Presigner *s3.PresignClient
	Bucket    string
}

// NewS3 returns nil, nil when S3 is disabled.
func NewS3(ctx context.Context, cfg *config.Config) (*S3Deps, error) {
	if !cfg.S3.Enabled {
		return nil, nil
	}
	if cfg.S3.Bucket == "" {
		return nil, errors.New("s3.bucket is required when s3 is enabled")
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3.Region),
	}
	if cfg.S3.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		))
	}
	acfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	otelaws.AppendMiddlewares(&acfg.APIOptions)

	client := s3.NewFromConfig(acfg, func(o *s3.Options) {
		if cfg.S3.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.Endpoint)
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	})

	return &S3Deps{
		Client:    client,
		Uploader:  manager.NewUploader(client),
		Presigner: s3.NewPresignClient(client),
		Bucket:    cfg.S3.Bucket,
	}, nil
}

func (d *S3Deps) Upload(ctx context.Context, key, contentType string, body io.Reader) error {
	if d == nil {
		return ErrDisabled
	}
	_, err := d.Uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(d.Bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	return err
}

func (d *S3Deps) PresignGet(ctx context.Context, key string, expire time.Duration) (string, error) {
	if d == nil {
		return "", ErrDisabled
	}
	req, err := d.Presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(d.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expire))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

func (d *S3Deps) Delete(ctx context.Context, key string) error {
	if d == nil {
		return ErrDisabled
	}
	_, err := d.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(d.Bucket),
		Key:    aws.String(key),
	})
	return err
}
