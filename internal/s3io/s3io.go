// Package s3io adapts an S3 bucket to the io.Reader/io.Writer pair
// irmaseal.Sealer.Seal and irmaseal.Opener consume, using the same
// aws-sdk-go-v2 client construction (config.LoadDefaultConfig +
// credentials.NewStaticCredentialsProvider + s3.NewFromConfig) the
// teacher's integration tests use against its proxy, and the streaming
// manager.Uploader the teacher's multipart tests drive for uploads.
package s3io

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/privacybydesign/irmaseal-go/internal/config"
)

// Client wraps an S3 client plus the streaming uploader sealed
// envelopes move through without buffering a whole object in memory.
// Downloads go through s3.Client.GetObject directly rather than
// manager.Downloader: the Opener consumes the body as a single
// sequential io.Reader, while Downloader's concurrent-range-GET design
// is built around an io.WriterAt destination, which buys nothing here.
type Client struct {
	s3       *s3.Client
	uploader *manager.Uploader
	bucket   string
	logger   *logrus.Entry
}

// NewClient builds an S3-backed Client from cfg. When cfg.Endpoint is
// set, the client targets that S3-compatible endpoint instead of AWS;
// path-style addressing is used only when cfg.UsePathStyle is set.
func NewClient(ctx context.Context, cfg config.S3Config) (*Client, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		optFns = append(optFns, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
		optFns = append(optFns, withStaticCredentials(cfg.AccessKeyID, cfg.SecretKey))
	}
	if cfg.InsecureSkipVerify {
		optFns = append(optFns, awsconfig.WithHTTPClient(&http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, // #nosec G402 - opt-in, for self-signed dev endpoints only
			},
		}))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("s3io: failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &Client{
		s3:       client,
		uploader: manager.NewUploader(client),
		bucket:   cfg.Bucket,
		logger:   logrus.WithField("component", "s3io"),
	}, nil
}

// withStaticCredentials overrides the AWS config's credential provider,
// used by tests and non-IAM deployments that supply an access key pair
// directly rather than relying on the default credential chain.
func withStaticCredentials(accessKeyID, secretKey string) func(*awsconfig.LoadOptions) error {
	return awsconfig.WithCredentialsProvider(
		credentials.NewStaticCredentialsProvider(accessKeyID, secretKey, ""),
	)
}

// PutSealed streams a reader of envelope bytes (as produced by
// irmaseal.Sealer.Seal) up to key, without requiring the caller to know
// the envelope's total length in advance.
func (c *Client) PutSealed(ctx context.Context, key string, body io.Reader) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
		Body:   body,
	})
	if err != nil {
		return fmt.Errorf("s3io: failed to upload %s: %w", key, err)
	}
	c.logger.WithField("key", key).Debug("uploaded sealed envelope")
	return nil
}

// GetSealed opens an io.ReadCloser over the envelope stored at key, for
// irmaseal.NewOpener to parse directly.
func (c *Client) GetSealed(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := c.s3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3io: failed to fetch %s: %w", key, err)
	}
	return out.Body, nil
}
