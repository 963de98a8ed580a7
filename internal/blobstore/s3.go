package blobstore

import (
	"bytes"
	"context"
	"io"

	"github.com/brinkdb/snapctl/internal/errs"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// googleCloudStorageEndpoint lets the GCP variant reuse the S3-compatible
// protocol by pointing minio-go at GCS's interoperability endpoint instead
// of swapping in a separate cloud SDK.
const googleCloudStorageEndpoint = "storage.googleapis.com"

// S3 stores objects in an S3-compatible bucket via minio-go. The same type
// serves GCP Cloud Storage by constructing it with the GCS endpoint.
type S3 struct {
	client *minio.Client
	bucket string
}

// NewS3 connects to an S3-compatible endpoint and ensures bucket exists.
func NewS3(endpoint, region, accessKeyID, secretAccessKey, bucket string, secure bool) (*S3, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKeyID, secretAccessKey, ""),
		Secure: secure,
		Region: region,
	})
	if err != nil {
		return nil, errs.NewBlobStore("connecting to "+endpoint+": "+err.Error(), bucket, "")
	}

	ctx := context.Background()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, errs.NewBlobStore("checking bucket "+bucket+": "+err.Error(), bucket, "")
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{Region: region}); err != nil {
			return nil, errs.NewBlobStore("creating bucket "+bucket+": "+err.Error(), bucket, "")
		}
	}

	return &S3{client: client, bucket: bucket}, nil
}

// NewGCS connects to Google Cloud Storage's S3-compatible interoperability
// endpoint, per spec §9's decision to serve GCS through the same minio-go
// client rather than a second SDK.
func NewGCS(accessKeyID, secretAccessKey, bucket string) (*S3, error) {
	return NewS3(googleCloudStorageEndpoint, "auto", accessKeyID, secretAccessKey, bucket, true)
}

func (s *S3) Put(key string, data []byte) error {
	_, err := s.client.PutObject(context.Background(), s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{})
	if err != nil {
		return errs.NewBlobStore("putting "+key+": "+err.Error(), s.bucket, key)
	}
	return nil
}

func (s *S3) Get(key string) ([]byte, error) {
	obj, err := s.client.GetObject(context.Background(), s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, errs.NewBlobStore("getting "+key+": "+err.Error(), s.bucket, key)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errs.NewBlobStore("reading "+key+": "+err.Error(), s.bucket, key)
	}
	return data, nil
}

func (s *S3) List(prefix string) ([]string, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var keys []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, errs.NewBlobStore("listing "+prefix+": "+obj.Err.Error(), s.bucket, prefix)
		}
		keys = append(keys, obj.Key)
	}
	return keys, nil
}

func (s *S3) Delete(key string) error {
	if err := s.client.RemoveObject(context.Background(), s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errs.NewBlobStore("deleting "+key+": "+err.Error(), s.bucket, key)
	}
	return nil
}

func (s *S3) DeletePrefix(prefix string) error {
	keys, err := s.List(prefix)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
