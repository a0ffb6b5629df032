package main

import (
	"context"
	"fmt"
	"path"

	"dagger/screens/internal/dagger"
)

// releaseBucket is the S3-compatible bucket that release artifacts land in.
type releaseBucket struct {
	endpoint        *dagger.Secret
	name            *dagger.Secret
	accessKeyID     *dagger.Secret
	secretAccessKey *dagger.Secret
}

// sync copies artifacts into the bucket once for every prefix, reusing a
// single aws-cli container.
func (b releaseBucket) sync(ctx context.Context, artifacts *dagger.Directory, prefixes ...string) error {
	name, err := b.name.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("reading bucket name: %w", err)
	}
	endpoint, err := b.endpoint.Plaintext(ctx)
	if err != nil {
		return fmt.Errorf("reading bucket endpoint: %w", err)
	}

	aws := dag.Container().
		From("amazon/aws-cli:latest").
		WithSecretVariable("AWS_ACCESS_KEY_ID", b.accessKeyID).
		WithSecretVariable("AWS_SECRET_ACCESS_KEY", b.secretAccessKey).
		WithEnvVariable("AWS_DEFAULT_REGION", "auto").
		WithDirectory("/artifacts", artifacts).
		WithWorkdir("/artifacts")

	for _, prefix := range prefixes {
		aws = aws.WithExec([]string{
			"aws", "s3", "sync", ".",
			"s3://" + path.Join(name, prefix),
			"--endpoint-url", endpoint,
		})
	}

	if _, err := aws.Sync(ctx); err != nil {
		return fmt.Errorf("syncing artifacts to %v: %w", prefixes, err)
	}
	return nil
}

// withChecksums adds checksums.txt with the sha256 of every screens binary
// in dir, keyed by its <os>/<arch>/screens path.
func withChecksums(dir *dagger.Directory) *dagger.Directory {
	return dag.Container().
		From("alpine:3").
		WithDirectory("/artifacts", dir).
		WithWorkdir("/artifacts").
		WithExec([]string{"sh", "-c", "find . -type f -name screens | sort | xargs sha256sum > checksums.txt"}).
		Directory("/artifacts")
}

// ReleaseLatest builds versioned screens binaries for every platform and
// publishes them under both the version and "latest".
func (t *Screens) ReleaseLatest(
	ctx context.Context,

	// Version string (e.g., "v1.0.0")
	version string,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucket *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	artifacts := withChecksums(t.BuildRelease(ctx, version, commit))

	dst := releaseBucket{endpoint: endpoint, name: bucket, accessKeyID: accessKeyId, secretAccessKey: secretAccessKey}
	if err := dst.sync(ctx, artifacts, version, "latest"); err != nil {
		return artifacts, fmt.Errorf("publishing release %s: %w", version, err)
	}
	return artifacts, nil
}

// Nightly builds the screens binaries at commit and publishes them under
// "nightly", replacing the previous nightly.
func (t *Screens) Nightly(
	ctx context.Context,

	// Git commit SHA
	commit string,

	// Bucket endpoint URL
	endpoint *dagger.Secret,

	// Bucket name
	bucket *dagger.Secret,

	// Bucket access key ID
	accessKeyId *dagger.Secret,

	// Bucket secret access key
	secretAccessKey *dagger.Secret,
) (*dagger.Directory, error) {
	artifacts := withChecksums(t.BuildRelease(ctx, "nightly", commit))

	dst := releaseBucket{endpoint: endpoint, name: bucket, accessKeyID: accessKeyId, secretAccessKey: secretAccessKey}
	if err := dst.sync(ctx, artifacts, "nightly"); err != nil {
		return artifacts, fmt.Errorf("publishing nightly %s: %w", commit, err)
	}
	return artifacts, nil
}
