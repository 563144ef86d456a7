package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/vyuha/portfolioviz/internal/portfolio"
)

// ObjectGetter is the subset of the S3 client the source uses.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 fetches a document from an S3 bucket. The client is built lazily from
// the default AWS credential chain when none is supplied.
type S3 struct {
	Bucket string
	Key    string
	region string

	once    sync.Once
	client  ObjectGetter
	initErr error
}

// NewS3 parses an s3://bucket/key URI.
func NewS3(uri string, client ObjectGetter, region string) (*S3, error) {
	rest := strings.TrimPrefix(uri, "s3://")
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("source: %q is not of the form s3://bucket/key", uri)
	}
	return &S3{Bucket: bucket, Key: key, region: region, client: client}, nil
}

// Location implements Source.
func (s *S3) Location() string { return "s3://" + s.Bucket + "/" + s.Key }

func (s *S3) getter(ctx context.Context) (ObjectGetter, error) {
	s.once.Do(func() {
		if s.client != nil {
			return
		}
		var opts []func(*awscfg.LoadOptions) error
		if s.region != "" {
			opts = append(opts, awscfg.WithRegion(s.region))
		}
		cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			s.initErr = fmt.Errorf("source/s3: load aws config: %w", err)
			return
		}
		s.client = s3.NewFromConfig(cfg)
	})
	return s.client, s.initErr
}

// Fetch implements Source.
func (s *S3) Fetch(ctx context.Context) ([]byte, error) {
	client, err := s.getter(ctx)
	if err != nil {
		return nil, &portfolio.LoadError{Location: s.Location(), Err: err}
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		le := &portfolio.LoadError{Location: s.Location(), Err: err}
		var re *awshttp.ResponseError
		if errors.As(err, &re) {
			le.StatusCode = re.HTTPStatusCode()
		}
		return nil, le
	}
	defer out.Body.Close()

	return readDocument(s.Location(), out.Body)
}
