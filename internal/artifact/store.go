// Package artifact persists rendered report bytes to object storage and
// hands back long-lived download URLs.
package artifact

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/fitops/reportpipe/internal/config"
	"github.com/fitops/reportpipe/internal/report"
)

// Store uploads artifacts to S3. A nil Store (storage unconfigured) is
// valid: uploads degrade to "no URL" without error, per the pipeline's
// best-effort storage contract.
type Store struct {
	client      *s3.Client
	presigner   *s3.PresignClient
	bucket      string
	expiry      time.Duration
	compression string
}

// NewStore builds an S3-backed artifact store. Returns (nil, nil) when
// storage is unconfigured so callers can carry a nil Store.
func NewStore(ctx context.Context, cfg config.StorageConfig) (*Store, error) {
	if !cfg.Configured() {
		return nil, nil
	}
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, fmt.Errorf("storage credentials are required")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	clientOpts := []func(*s3.Options){
		func(o *s3.Options) {
			o.UsePathStyle = cfg.ForcePathStyle
		},
	}

	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)

	expiry := cfg.PresignExpiry
	if expiry == 0 {
		expiry = 8760 * time.Hour
	}

	return &Store{
		client:      client,
		presigner:   s3.NewPresignClient(client),
		bucket:      cfg.Bucket,
		expiry:      expiry,
		compression: cfg.Compression,
	}, nil
}

// Upload persists the artifact under a deterministic key and returns a
// presigned download URL. An unconfigured store returns ("", nil); a
// configured store that fails returns the error and the caller decides
// whether that is fatal.
func (s *Store) Upload(ctx context.Context, data []byte, reportID string, format report.Format, typ report.Type) (string, error) {
	if s == nil || s.client == nil {
		return "", nil
	}

	key := ObjectKey(reportID, typ, format, time.Now().UTC())
	contentType := contentTypeFor(format)
	var contentEncoding string

	// Delimited text compresses well; binary formats are already packed.
	if format == report.FormatCSV && s.compression != "" {
		compressed, encoding, err := compress(data, s.compression)
		if err != nil {
			return "", fmt.Errorf("compressing artifact: %w", err)
		}
		data = compressed
		contentEncoding = encoding
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata: map[string]string{
			"report-id":   reportID,
			"report-type": string(typ),
		},
	}
	if contentEncoding != "" {
		input.ContentEncoding = aws.String(contentEncoding)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("putting artifact: %w", err)
	}

	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.expiry))
	if err != nil {
		return "", fmt.Errorf("presigning artifact URL: %w", err)
	}

	return presigned.URL, nil
}

// ObjectKey builds the deterministic storage key for one artifact. Callers
// that browse the bucket directly depend on this shape.
func ObjectKey(reportID string, typ report.Type, format report.Format, ts time.Time) string {
	return fmt.Sprintf("reports/%s/%s_%s.%s",
		strings.ToLower(string(typ)),
		reportID,
		sanitizeTimestamp(ts),
		format.Extension(),
	)
}

// sanitizeTimestamp strips characters from an ISO timestamp that are
// awkward in object keys.
func sanitizeTimestamp(ts time.Time) string {
	s := ts.UTC().Format(time.RFC3339)
	s = strings.ReplaceAll(s, ":", "-")
	return strings.TrimSuffix(s, "Z")
}

func contentTypeFor(format report.Format) string {
	switch format {
	case report.FormatPDF:
		return "application/pdf"
	case report.FormatExcel:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case report.FormatCSV:
		return "text/csv"
	default:
		return "application/octet-stream"
	}
}
