package admin

import (
	"testing"

	"github.com/cloo-solutions/notesqa/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Config_BucketOverride(t *testing.T) {
	cfg := &config.Config{
		S3Endpoint:  "http://localhost:9000",
		S3AccessKey: "key",
		S3SecretKey: "secret",
		S3Bucket:    "notesqa-notes",
		S3Region:    "us-east-1",
	}

	assert.Equal(t, "notesqa-notes", s3Config(cfg, "").Bucket)

	got := s3Config(cfg, "lecture-notes")
	assert.Equal(t, "lecture-notes", got.Bucket)
	assert.Equal(t, "http://localhost:9000", got.Endpoint)
	assert.True(t, got.UsePathStyle)
}

func TestInitTelemetry_WithoutDSNIsNoop(t *testing.T) {
	shutdown := initTelemetry(&config.Config{})
	require.NotNil(t, shutdown)
	shutdown()
}

func TestCommands_Flags(t *testing.T) {
	serve := ServeCmd()
	for _, name := range []string{"port", "no-migrate", "no-worker", "migrations"} {
		assert.NotNil(t, serve.Flags().Lookup(name), "serve --%s", name)
	}

	for _, cmd := range []struct {
		name  string
		flags []string
	}{
		{"import", []string{"bucket", "prefix"}},
		{"export", []string{"bucket", "prefix"}},
	} {
		c := ImportCmd()
		if cmd.name == "export" {
			c = ExportCmd()
		}
		for _, f := range cmd.flags {
			assert.NotNil(t, c.Flags().Lookup(f), "%s --%s", cmd.name, f)
		}
	}

	assert.NotNil(t, ReindexCmd().Flags().Lookup("queue"))

	migrate := MigrateCmd()
	names := []string{}
	for _, sub := range migrate.Commands() {
		names = append(names, sub.Name())
	}
	assert.ElementsMatch(t, []string{"down", "version"}, names)
}

func TestMigrateDown_RejectsBadSteps(t *testing.T) {
	cmd := migrateDownCmd()
	cmd.SetArgs([]string{"zero"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.Execute()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "positive integer")
}
