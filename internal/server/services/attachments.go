package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/plantops/internal/clock"
	"github.com/dmitrijs2005/plantops/internal/common"
	sc "github.com/dmitrijs2005/plantops/internal/server/config"
	"github.com/dmitrijs2005/plantops/internal/server/models"
)

const (
	presignExpiry = 15 * time.Minute
	keyPrefix     = "attachments/"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput) error {
		_, err := c.HeadObject(ctx, in)
		return err
	}
)

// AttachmentStore is the part of the instance store attachments touch.
type AttachmentStore interface {
	GetByID(ctx context.Context, id string) (*models.TaskInstance, error)
	AddAttachment(ctx context.Context, id, key string) error
}

// PresignedURL is a time-limited S3 URL for one attachment object.
type PresignedURL struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Method    string    `json:"method"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type AttachmentService struct {
	authz     Authorizer
	instances AttachmentStore
	config    *sc.Config
	clock     clock.Clock
}

func NewAttachmentService(authz Authorizer, instances AttachmentStore, cfg *sc.Config, c clock.Clock) *AttachmentService {
	if c == nil {
		c = clock.Real{}
	}
	return &AttachmentService{authz: authz, instances: instances, config: cfg, clock: c}
}

// StorageKey builds a fresh object key under the attachment prefix.
func StorageKey(at time.Time) string {
	return fmt.Sprintf("%s%d/%d/%d/%v", keyPrefix, at.Year(), at.Month(), at.Day(), uuid.New())
}

func (s *AttachmentService) getS3Client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

func (s *AttachmentService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	client, err := s.getS3Client(ctx)
	if err != nil {
		return nil, err
	}
	return newS3PresignClient(client), nil
}

// PresignUpload returns a PUT URL for a fresh attachment key. The key is
// recorded on the instance only by ConfirmUpload, once the object exists.
func (s *AttachmentService) PresignUpload(ctx context.Context, uid, instanceID string) (*PresignedURL, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermWrite); err != nil {
		return nil, err
	}
	if _, err := s.instances.GetByID(ctx, instanceID); err != nil {
		return nil, err
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	bucket := s.config.S3Bucket
	key := StorageKey(now)

	req, err := presignPutObject(pc, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, err
	}

	return &PresignedURL{Key: key, URL: req.URL, Method: req.Method, ExpiresAt: now.Add(presignExpiry)}, nil
}

// ConfirmUpload records key on the instance after checking that the object
// was actually written to the bucket.
func (s *AttachmentService) ConfirmUpload(ctx context.Context, uid, instanceID, key string) error {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermWrite); err != nil {
		return err
	}
	if !strings.HasPrefix(key, keyPrefix) {
		return invalid("key", "must start with "+keyPrefix)
	}
	if _, err := s.instances.GetByID(ctx, instanceID); err != nil {
		return err
	}

	client, err := s.getS3Client(ctx)
	if err != nil {
		return err
	}

	bucket := s.config.S3Bucket
	if err := headObject(client, ctx, &s3.HeadObjectInput{Bucket: &bucket, Key: &key}); err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return fmt.Errorf("%w: object %s was not uploaded", common.ErrorNotFound, key)
		}
		return err
	}

	return s.instances.AddAttachment(ctx, instanceID, key)
}

// PresignDownload returns a GET URL for an attachment already recorded on
// the instance.
func (s *AttachmentService) PresignDownload(ctx context.Context, uid, instanceID, key string) (*PresignedURL, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModuleTasks, models.PermRead); err != nil {
		return nil, err
	}

	inst, err := s.instances.GetByID(ctx, instanceID)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(inst.Attachments, key) {
		return nil, fmt.Errorf("%w: attachment %s", common.ErrorNotFound, key)
	}

	pc, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(pc, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, err
	}

	return &PresignedURL{Key: key, URL: req.URL, Method: req.Method, ExpiresAt: s.clock.Now().Add(presignExpiry)}, nil
}
