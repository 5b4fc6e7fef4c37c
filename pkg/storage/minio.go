package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStorage keeps contract blobs in a MinIO bucket, one object per
// document ID.
type MinioStorage struct {
	client     *minio.Client
	bucketName string
}

// MinioConfig configures MinIO object storage.
type MinioConfig struct {
	Endpoint  string // MinIO server endpoint
	AccessKey string // access key ID
	SecretKey string // secret access key
	UseSSL    bool
	Bucket    string // bucket name
}

// NewMinioStorage creates a MinIO storage instance, creating the bucket
// if it does not exist.
func NewMinioStorage(cfg MinioConfig) (*MinioStorage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if bucket exists: %v", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %v", err)
		}
	}

	return &MinioStorage{
		client:     client,
		bucketName: cfg.Bucket,
	}, nil
}

// Save stores a blob under the document ID.
func (s *MinioStorage) Save(documentID string, reader io.Reader) (ObjectInfo, error) {
	if documentID == "" {
		return ObjectInfo{}, errors.New("document ID cannot be empty")
	}

	content, err := io.ReadAll(reader)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to read content: %v", err)
	}

	objectName := s.objectName(documentID)
	_, err = s.client.PutObject(
		context.Background(),
		s.bucketName,
		objectName,
		bytes.NewReader(content),
		int64(len(content)),
		minio.PutObjectOptions{ContentType: "text/plain"},
	)
	if err != nil {
		return ObjectInfo{}, fmt.Errorf("failed to upload object: %v", err)
	}

	return ObjectInfo{
		Key:  documentID,
		Size: int64(len(content)),
		Path: objectName,
	}, nil
}

// Get opens the blob stored under the document ID.
func (s *MinioStorage) Get(documentID string) (io.ReadCloser, error) {
	ctx := context.Background()
	objectName := s.objectName(documentID)

	// GetObject is lazy, so check existence first
	_, err := s.client.StatObject(ctx, s.bucketName, objectName, minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to stat object: %v", err)
	}

	obj, err := s.client.GetObject(ctx, s.bucketName, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %v", err)
	}
	return obj, nil
}

// Delete removes the blob.
func (s *MinioStorage) Delete(documentID string) error {
	err := s.client.RemoveObject(
		context.Background(),
		s.bucketName,
		s.objectName(documentID),
		minio.RemoveObjectOptions{},
	)
	if err != nil {
		return fmt.Errorf("failed to delete object: %v", err)
	}
	return nil
}

// Exists reports whether a blob is stored under the document ID.
func (s *MinioStorage) Exists(documentID string) (bool, error) {
	_, err := s.client.StatObject(
		context.Background(),
		s.bucketName,
		s.objectName(documentID),
		minio.StatObjectOptions{},
	)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %v", err)
	}
	return true, nil
}

// List returns info for every stored blob.
func (s *MinioStorage) List() ([]ObjectInfo, error) {
	var objects []ObjectInfo

	objectCh := s.client.ListObjects(
		context.Background(),
		s.bucketName,
		minio.ListObjectsOptions{Prefix: "contracts/", Recursive: true},
	)

	for object := range objectCh {
		if object.Err != nil {
			return nil, fmt.Errorf("error listing objects: %v", object.Err)
		}
		key := strings.TrimSuffix(strings.TrimPrefix(object.Key, "contracts/"), ".txt")
		objects = append(objects, ObjectInfo{
			Key:  key,
			Size: object.Size,
			Path: object.Key,
		})
	}

	return objects, nil
}

// objectName maps a document ID to its object key.
func (s *MinioStorage) objectName(documentID string) string {
	return "contracts/" + documentID + ".txt"
}
