package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/haivivi/vecdb/pkg/cli"
	"github.com/haivivi/vecdb/pkg/embed"
	"github.com/haivivi/vecdb/pkg/kv"
	"github.com/haivivi/vecdb/pkg/storage"
	"github.com/haivivi/vecdb/pkg/vecdb"
	"github.com/haivivi/vecdb/pkg/vecindex"
)

// Metadata is the document metadata the CLI stores: any JSON object.
type Metadata = map[string]any

// keySeparator joins badger key segments. Storage paths may contain ':'
// and '/', so a control character is used instead.
const keySeparator = 0x1F

// session is an opened index plus whatever must be released after it.
type session struct {
	ctx      *cli.Context
	index    *vecindex.Index[Metadata]
	embedder embed.Embedder
	location string
	limits   vecdb.Limits
	closers  []func() error
}

// openSession opens the index of the selected context.
func openSession(ctx context.Context) (*session, error) {
	cctx, err := getContext()
	if err != nil {
		return nil, err
	}
	embedder, err := embed.New(ctx, cctx.EmbedderConfig())
	if err != nil {
		return nil, err
	}
	paths, err := cli.NewPaths()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	reg := vecindex.NewRegistry()
	s := &session{ctx: cctx, embedder: embedder}
	s.closers = append(s.closers, func() error {
		reg.Close()
		return nil
	})
	opts := vecdb.Options{
		StoragePath:     cctx.Storage.Path,
		MaxFileSizeMB:   cctx.MaxFileSizeMB,
		DisableAutoSave: cctx.DisableAutoSave,
		Debug:           cctx.Debug,
		Logger:          logger.With("context", cctx.Name),
		Registry:        reg,
	}
	if opts.StoragePath == "" {
		opts.StoragePath = vecdb.DefaultStoragePath
	}

	switch cctx.Backend() {
	case cli.BackendFile:
		dir := paths.StorageDir(cctx)
		s.location = dir
		s.limits = vecdb.FileLimits
		s.index, err = vecdb.OpenLocal[Metadata](ctx, embedder.Embed, dir, opts)
	case cli.BackendBadger:
		dir := paths.StorageDir(cctx)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create %s: %w", dir, err)
		}
		store, err := kv.NewBadger(kv.BadgerOptions{
			Options: &kv.Options{Separator: keySeparator},
			Dir:     dir,
			Logger:  logger,
		})
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store.Close)
		s.location = dir
		s.limits = vecdb.KVLimits
		s.index, err = vecdb.OpenKV[Metadata](ctx, embedder.Embed, store, opts)
		if err != nil {
			store.Close()
			return nil, err
		}
		return s, nil
	case cli.BackendS3:
		conf := cctx.Storage.S3
		s.location = "s3://" + conf.Bucket + "/" + conf.Prefix
		s.limits = vecdb.FileLimits
		s.index, err = vecdb.OpenS3[Metadata](ctx, embedder.Embed, newS3Client(conf), storage.S3Options{
			Bucket: conf.Bucket,
			Prefix: conf.Prefix,
		}, opts)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// newS3Client builds an S3 client from the context, with the standard AWS
// environment variables as fallback.
func newS3Client(conf *cli.S3Storage) *s3.Client {
	region := firstNonEmpty(conf.Region, os.Getenv("AWS_REGION"), "us-east-1")
	keyID := firstNonEmpty(conf.AccessKeyID, os.Getenv("AWS_ACCESS_KEY_ID"))
	secret := firstNonEmpty(conf.SecretAccessKey, os.Getenv("AWS_SECRET_ACCESS_KEY"))

	cfg := aws.Config{Region: region}
	if keyID != "" {
		cfg.Credentials = aws.NewCredentialsCache(aws.CredentialsProviderFunc(
			func(context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     keyID,
					SecretAccessKey: secret,
					SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
					Source:          "vecdb",
				}, nil
			}))
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
		}
		o.UsePathStyle = conf.UsePathStyle
	})
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// Close flushes pending changes and releases the backend. A snapshot that
// could not be written is reported as an error.
func (s *session) Close(ctx context.Context) error {
	var errs []error
	if err := s.index.Save(ctx); err != nil {
		errs = append(errs, fmt.Errorf("save: %w", err))
	} else if s.index.Dirty() {
		errs = append(errs, errors.New("save: snapshot was not written, run with -v for details"))
	}
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// withSession opens the index, runs fn and closes the index, returning the
// first failure.
func withSession(ctx context.Context, fn func(*session) error) error {
	s, err := openSession(ctx)
	if err != nil {
		return err
	}
	err = fn(s)
	return errors.Join(err, s.Close(ctx))
}
