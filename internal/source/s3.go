package source

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	log "github.com/sirupsen/logrus"
)

// ObjectGetter is the part of the S3 API the loader uses
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Config holds S3 loader settings
type S3Config struct {
	Region   string
	Endpoint string // Custom endpoint such as LocalStack; enables path-style addressing
}

// S3Loader reads exports from s3://bucket/key URIs
type S3Loader struct {
	*BaseLoader
	config S3Config

	once   sync.Once
	client ObjectGetter
	err    error
}

// NewS3Loader creates a loader that builds its client from the default AWS
// credential chain on first use
func NewS3Loader(cfg S3Config) *S3Loader {
	return &S3Loader{
		BaseLoader: NewBaseLoader("s3", SchemeS3),
		config:     cfg,
	}
}

// NewS3LoaderWithClient creates a loader around an existing client
func NewS3LoaderWithClient(client ObjectGetter) *S3Loader {
	l := NewS3Loader(S3Config{})
	l.once.Do(func() { l.client = client })
	return l
}

func (l *S3Loader) connect(ctx context.Context) (ObjectGetter, error) {
	l.once.Do(func() {
		var opts []func(*awsconfig.LoadOptions) error
		if l.config.Region != "" {
			opts = append(opts, awsconfig.WithRegion(l.config.Region))
		}

		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			l.err = fmt.Errorf("failed to load aws config: %w", err)
			return
		}

		endpoint := l.config.Endpoint
		l.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if endpoint != "" {
				o.UsePathStyle = true
				o.BaseEndpoint = aws.String(endpoint)
			}
		})
	})
	return l.client, l.err
}

// ParseS3URI splits s3://bucket/key into its parts
func ParseS3URI(uri string) (bucket, key string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("not an s3 uri: %s", uri)
	}
	bucket, key, _ = strings.Cut(rest, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3 uri needs a bucket and key: %s", uri)
	}
	return bucket, key, nil
}

// Load downloads the object at uri
func (l *S3Loader) Load(ctx context.Context, uri string) (*Input, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	client, err := l.connect(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	log.WithFields(log.Fields{"bucket": bucket, "key": key, "bytes": len(data)}).Debug("Downloaded export")

	return &Input{URI: uri, Name: baseName(key), Data: data}, nil
}
