package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client is the subset of the S3 API that [S3Store] calls.
// *s3.Client satisfies it.
type S3Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3Options configures [NewS3].
type S3Options struct {
	Bucket string

	// Prefix is prepended to every object key, separated by "/".
	Prefix string

	// ContentType is set on uploaded objects. Empty leaves it unset.
	ContentType string
}

// S3Store implements FileStore on Amazon S3 or an S3-compatible service.
//
// S3 PutObject is atomic per object, so readers see either the old or the
// new snapshot, never a torn one.
type S3Store struct {
	client S3Client
	opts   S3Options
}

var _ FileStore = (*S3Store)(nil)

// NewS3 creates an S3-backed FileStore. The client must already carry
// credentials, region and endpoint.
func NewS3(client S3Client, opts S3Options) (*S3Store, error) {
	if client == nil {
		return nil, errors.New("storage: nil S3 client")
	}
	if opts.Bucket == "" {
		return nil, errors.New("storage: S3 bucket is required")
	}
	return &S3Store{client: client, opts: opts}, nil
}

func (s *S3Store) key(p string) string {
	if s.opts.Prefix == "" {
		return p
	}
	return path.Join(s.opts.Prefix, p)
}

// Read fetches the object. A missing key maps to os.ErrNotExist.
func (s *S3Store) Read(ctx context.Context, p string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, fmt.Errorf("storage: read %s: %w", p, os.ErrNotExist)
		}
		return nil, fmt.Errorf("storage: read %s: %w", p, err)
	}
	return out.Body, nil
}

// Write streams to a background PutObject through a pipe. Close waits for
// the upload; Abort fails it so nothing is stored.
func (s *S3Store) Write(ctx context.Context, p string) (io.WriteCloser, error) {
	pr, pw := io.Pipe()
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.key(p)),
		Body:   pr,
	}
	if s.opts.ContentType != "" {
		in.ContentType = aws.String(s.opts.ContentType)
	}
	w := &s3Writer{path: p, pw: pw, done: make(chan struct{})}
	go func() {
		defer close(w.done)
		_, w.uploadErr = s.client.PutObject(ctx, in)
		// Unblock pending writes if the upload ended early.
		pr.CloseWithError(w.uploadErr)
	}()
	return w, nil
}

// Delete removes the object. S3 treats deleting a missing key as success.
func (s *S3Store) Delete(ctx context.Context, p string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.key(p)),
	})
	if err != nil {
		return fmt.Errorf("storage: delete %s: %w", p, err)
	}
	return nil
}

// Exists issues a HeadObject.
func (s *S3Store) Exists(ctx context.Context, p string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.opts.Bucket),
		Key:    aws.String(s.key(p)),
	})
	if err == nil {
		return true, nil
	}
	if isS3NotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("storage: head %s: %w", p, err)
}

type s3Writer struct {
	path      string
	pw        *io.PipeWriter
	done      chan struct{}
	uploadErr error
	once      sync.Once
}

func (w *s3Writer) Write(p []byte) (int, error) {
	return w.pw.Write(p)
}

// Close sends EOF and waits for PutObject to return.
func (w *s3Writer) Close() error {
	w.once.Do(func() { w.pw.Close() })
	<-w.done
	if w.uploadErr != nil {
		return fmt.Errorf("storage: upload %s: %w", w.path, w.uploadErr)
	}
	return nil
}

func (w *s3Writer) Abort() error {
	w.once.Do(func() { w.pw.CloseWithError(ErrAborted) })
	<-w.done
	return nil
}

func isS3NotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
