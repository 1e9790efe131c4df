// Package objectstore stores agent uploads in S3 compatible object storage.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type Options struct {
	Bucket string
	Region string
	// Endpoint targets an S3 compatible server (MinIO, SeaweedFS). Empty means AWS.
	Endpoint       string
	AccessKey      string
	SecretKey      string
	ForcePathStyle bool
}

// objectAPI is the subset of the S3 client used here.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Client struct {
	api  objectAPI
	opts Options
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Bucket == "" {
		return nil, errors.New("S3_BUCKET is required")
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if opts.Endpoint != "" && !strings.HasPrefix(opts.Endpoint, "http://") && !strings.HasPrefix(opts.Endpoint, "https://") {
		opts.Endpoint = "https://" + opts.Endpoint
	}

	loaders := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
		awsconfig.WithHTTPClient(&http.Client{Timeout: 30 * time.Second}),
	}
	if opts.AccessKey != "" && opts.SecretKey != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = opts.ForcePathStyle
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
	})
	return &Client{api: api, opts: opts}, nil
}

// Upload writes body under key and returns the object's public link.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) (string, error) {
	if c == nil {
		return "", errors.New("nil client")
	}
	key = strings.TrimLeft(key, "/")
	if key == "" {
		return "", errors.New("object key required")
	}

	// The SDK needs a seekable body to sign the payload.
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read upload body: %w", err)
	}
	size := int64(len(data))

	_, err = c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(c.opts.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: &size,
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return c.Link(key), nil
}

// Delete removes the object behind a link returned by Upload.
func (c *Client) Delete(ctx context.Context, link string) error {
	if c == nil {
		return errors.New("nil client")
	}
	key, err := c.KeyFromLink(link)
	if err != nil {
		return err
	}
	_, err = c.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.opts.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

// Link builds the URL of key in the configured bucket.
func (c *Client) Link(key string) string {
	escaped := escapeKey(key)
	switch {
	case c.opts.Endpoint != "" || c.opts.ForcePathStyle:
		base := c.opts.Endpoint
		if base == "" {
			base = "https://s3." + c.opts.Region + ".amazonaws.com"
		}
		return strings.TrimRight(base, "/") + "/" + c.opts.Bucket + "/" + escaped
	default:
		return "https://" + c.opts.Bucket + ".s3." + c.opts.Region + ".amazonaws.com/" + escaped
	}
}

// KeyFromLink recovers the object key from a link in either addressing style.
func (c *Client) KeyFromLink(link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil || u.Path == "" {
		return "", fmt.Errorf("invalid object link %q", link)
	}
	path := strings.TrimPrefix(u.Path, "/")
	if strings.HasPrefix(u.Host, c.opts.Bucket+".") {
		return path, nil
	}
	if rest, ok := strings.CutPrefix(path, c.opts.Bucket+"/"); ok && rest != "" {
		return rest, nil
	}
	return "", fmt.Errorf("object link %q is not in bucket %s", link, c.opts.Bucket)
}

func escapeKey(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}
