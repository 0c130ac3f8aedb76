//go:build integration

package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/cloo-solutions/notesqa/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupS3(t *testing.T) (*S3Client, func()) {
	t.Helper()
	ctx := context.Background()

	rc := testutil.NewRustFSContainer(ctx, t)
	client, err := NewS3Client(ctx, S3ClientConfig{
		Endpoint:        rc.Endpoint(),
		Region:          "us-east-1",
		AccessKeyID:     testutil.RustFSAccessKey,
		SecretAccessKey: testutil.RustFSAccessKey,
		Bucket:          "notes-test",
		UsePathStyle:    true,
	})
	require.NoError(t, err)
	require.NoError(t, client.EnsureBucket(ctx))

	return client, func() { _ = rc.Terminate(ctx) }
}

func TestS3Client_PutGetList(t *testing.T) {
	client, cleanup := setupS3(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, client.PutText(ctx, "notes/a.md", "# Alpha\n\nfirst"))
	require.NoError(t, client.PutText(ctx, "notes/b.txt", "second"))
	require.NoError(t, client.PutText(ctx, "other/c.md", "elsewhere"))

	keys, err := client.ListKeys(ctx, "notes/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"notes/a.md", "notes/b.txt"}, keys)

	text, err := client.GetText(ctx, "notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "# Alpha\n\nfirst", text)
}

func TestS3Client_EnsureBucketIdempotent(t *testing.T) {
	client, cleanup := setupS3(t)
	defer cleanup()

	assert.NoError(t, client.EnsureBucket(context.Background()))
}

func TestS3Client_GetMissing(t *testing.T) {
	client, cleanup := setupS3(t)
	defer cleanup()

	_, err := client.GetText(context.Background(), "missing.md")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing.md"))
}

func TestNewS3Client_RequiresBucket(t *testing.T) {
	_, err := NewS3Client(context.Background(), S3ClientConfig{Region: "us-east-1"})
	assert.Error(t, err)
}
