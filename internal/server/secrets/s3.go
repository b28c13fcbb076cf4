package secrets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// maxBundleSize caps how much of the object is read.
const maxBundleSize = 64 << 10

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (io.ReadCloser, error) {
		out, err := c.GetObject(ctx, in)
		if err != nil {
			return nil, err
		}
		return out.Body, nil
	}
)

// bundle is the JSON layout of the secrets object.
type bundle struct {
	EmailPepper   string `json:"email_pepper"`
	EncryptionKey string `json:"encryption_key"`
	JWTSecretKey  string `json:"jwt_secret_key"`
}

// S3Source reads a JSON secrets bundle from an S3-compatible bucket
// (AWS S3 or MinIO). Static credentials are used when AccessKey is set,
// otherwise the default AWS credential chain applies.
type S3Source struct {
	Bucket       string
	Key          string
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

func (s S3Source) client(ctx context.Context) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(s.Region)}
	if s.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.BaseEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s S3Source) Load(ctx context.Context) (*Material, error) {
	c, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	body, err := getObject(c, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", s.Bucket, s.Key, err)
	}
	defer body.Close()

	raw, err := io.ReadAll(io.LimitReader(body, maxBundleSize))
	if err != nil {
		return nil, fmt.Errorf("read secrets bundle: %w", err)
	}

	var b bundle
	if err := json.Unmarshal(raw, &b); err != nil {
		return nil, fmt.Errorf("decode secrets bundle: %w", err)
	}

	return &Material{
		Pepper:       []byte(b.EmailPepper),
		CipherSecret: []byte(b.EncryptionKey),
		SigningKey:   []byte(b.JWTSecretKey),
		Algorithm:    AlgorithmHS256,
	}, nil
}
