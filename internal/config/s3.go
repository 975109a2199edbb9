package config

import (
	"context"
	"io"
	"os"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vango-dev/vroute/internal/errors"
)

// maxManifestSize bounds the bytes read from an S3 object.
const maxManifestSize = 4 << 20

// ObjectGetter is the subset of *s3.Client used to fetch manifests.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// IsS3URI reports whether source names an S3 object.
func IsS3URI(source string) bool {
	return strings.HasPrefix(source, "s3://")
}

// ParseS3URI splits s3://bucket/key into its bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", errors.New("E124").WithDetail(uri + " is not an s3:// URI")
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", errors.New("E124").
			WithDetail(uri + " must name a bucket and a key").
			WithSuggestion("Use s3://bucket/path/to/vroute.yaml")
	}
	return bucket, key, nil
}

// LoadS3 reads the manifest stored at uri.
func LoadS3(ctx context.Context, client ObjectGetter, uri string) (*Config, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.New("E124").Wrap(err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(io.LimitReader(out.Body, maxManifestSize))
	if err != nil {
		return nil, errors.New("E124").Wrap(err)
	}

	cfg, err := Parse(data, path.Ext(key))
	if err != nil {
		return nil, err
	}
	cfg.source = uri
	return cfg, nil
}

// NewS3Client returns an S3 client configured from the standard AWS
// environment variables. Without credentials in the environment requests
// are sent anonymously.
func NewS3Client() *s3.Client {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region:      region,
		Credentials: aws.AnonymousCredentials{},
	}
	if id := os.Getenv("AWS_ACCESS_KEY_ID"); id != "" {
		creds := aws.Credentials{
			AccessKeyID:     id,
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "Environment",
		}
		opts.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return creds, nil
		})
	}
	if endpoint := os.Getenv("AWS_ENDPOINT_URL_S3"); endpoint != "" {
		opts.BaseEndpoint = aws.String(endpoint)
		opts.UsePathStyle = true
	}
	return s3.New(opts)
}

// LoadSource loads a manifest from a file, a directory or an s3:// URI.
// An empty source searches the working directory and its parents.
func LoadSource(ctx context.Context, source string) (*Config, error) {
	switch {
	case source == "":
		return LoadFromWorkingDir()
	case IsS3URI(source):
		return LoadS3(ctx, NewS3Client(), source)
	}
	info, err := os.Stat(source)
	if err == nil && info.IsDir() {
		return Load(source)
	}
	return LoadFile(source)
}
