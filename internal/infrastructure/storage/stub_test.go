package storage

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubObjectStorage_URLs(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	url, expiresAt, err := s.GenerateUploadURL(ctx, "documents/t1/file.jpg", "image/jpeg", 15*time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:8080/_storage/upload/documents/t1/file.jpg?expires="))
	assert.True(t, expiresAt.After(time.Now()))

	url, _, err = s.GenerateDownloadURL(ctx, "documents/t1/file.jpg", time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "/download/documents/t1/file.jpg")

	_, _, err = s.GenerateUploadURL(ctx, "", "image/jpeg", time.Minute)
	assert.ErrorContains(t, err, "storage key is required")
}

func TestStubObjectStorage_Objects(t *testing.T) {
	s := NewStubObjectStorage()
	ctx := context.Background()

	exists, err := s.ObjectExists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.PutObject(ctx, "k", "application/pdf", strings.NewReader("%PDF"), 4))
	exists, err = s.ObjectExists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	data, contentType, ok := s.Object("k")
	require.True(t, ok)
	assert.Equal(t, "%PDF", string(data))
	assert.Equal(t, "application/pdf", contentType)

	require.NoError(t, s.DeleteObject(ctx, "k"))
	require.NoError(t, s.DeleteObject(ctx, "k"))
	exists, err = s.ObjectExists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)

	assert.Error(t, s.PutObject(ctx, "", "text/plain", strings.NewReader(""), 0))
	_, err = s.ObjectExists(ctx, "")
	assert.Error(t, err)
}
