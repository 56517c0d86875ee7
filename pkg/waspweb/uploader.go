package waspweb

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
)

// Bucket names.
const (
	BucketScripts  = "scripts"
	BucketImages   = "imgs"
	BucketPackages = "packages"
)

// File is an uploaded file held in memory.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Upload is the completion handle of a single asset upload.
type Upload struct {
	Bucket string
	Path   string

	done chan struct{}
	err  error
}

// Done is closed once the upload finished.
func (u *Upload) Done() <-chan struct{} {
	return u.done
}

// Err returns the upload error. It is only meaningful after Done is closed.
func (u *Upload) Err() error {
	select {
	case <-u.done:
		return u.err
	default:
		return nil
	}
}

// Wait blocks until the upload finished or ctx is done.
func (u *Upload) Wait(ctx context.Context) error {
	select {
	case <-u.done:
		return u.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// UploadBatch groups the uploads started by one operation.
type UploadBatch struct {
	uploads []*Upload
}

// Add appends an upload to the batch.
func (b *UploadBatch) Add(u *Upload) {
	b.uploads = append(b.uploads, u)
}

// Uploads returns the uploads in start order.
func (b *UploadBatch) Uploads() []*Upload {
	if b == nil {
		return nil
	}
	return b.uploads
}

// Wait waits for every upload and joins their errors.
func (b *UploadBatch) Wait(ctx context.Context) error {
	if b == nil {
		return nil
	}
	var errs []error
	for _, u := range b.uploads {
		if err := u.Wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Uploader pushes files to named buckets. Uploads run in the background on a
// context detached from the caller's cancellation; failures are logged and
// reported through the returned handle only.
type Uploader struct {
	stores map[string]BlobStore
	logger *slog.Logger
}

// UploaderOption configures an Uploader.
type UploaderOption func(*Uploader)

// WithBucket registers the blob store serving a bucket.
func WithBucket(name string, store BlobStore) UploaderOption {
	return func(u *Uploader) {
		u.stores[name] = store
	}
}

// WithUploaderLogger sets the logger used for upload failures.
func WithUploaderLogger(logger *slog.Logger) UploaderOption {
	return func(u *Uploader) {
		u.logger = logger
	}
}

// NewUploader creates an Uploader.
func NewUploader(options ...UploaderOption) *Uploader {
	u := &Uploader{
		stores: make(map[string]BlobStore),
		logger: slog.Default(),
	}
	for _, option := range options {
		option(u)
	}
	return u
}

// Store returns the blob store registered for bucket.
func (u *Uploader) Store(bucket string) (BlobStore, error) {
	store, ok := u.stores[bucket]
	if !ok {
		return nil, &StorageError{Bucket: bucket, Op: "lookup", Err: ErrBucketNotFound}
	}
	return store, nil
}

// Upload starts uploading file to bucket at path. An existing object at the
// same path is overwritten.
func (u *Uploader) Upload(ctx context.Context, bucket, path string, file File) *Upload {
	up := &Upload{Bucket: bucket, Path: path, done: make(chan struct{})}

	store, err := u.Store(bucket)
	if err != nil {
		u.finish(up, err)
		return up
	}

	ctx = context.WithoutCancel(ctx)
	go func() {
		contentType := file.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		err := store.UploadWithParams(ctx, bytes.NewReader(file.Data), UploadParams{
			ObjectKey: path,
			MimeType:  contentType,
		})
		if err != nil {
			err = &StorageError{Bucket: bucket, Key: path, Op: "upload", Err: err}
		}
		u.finish(up, err)
	}()

	return up
}

func (u *Uploader) finish(up *Upload, err error) {
	up.err = err
	if err != nil {
		uploadsTotal.WithLabelValues(up.Bucket, "error").Inc()
		u.logger.Error("Failed to upload file", "bucket", up.Bucket, "path", up.Path, "err", err)
	} else {
		uploadsTotal.WithLabelValues(up.Bucket, "success").Inc()
		u.logger.Debug("Uploaded file", "bucket", up.Bucket, "path", up.Path)
	}
	close(up.done)
}
