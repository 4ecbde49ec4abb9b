//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRedisIntegration(t *testing.T) {
	url := os.Getenv("THINKOFYOU_TEST_REDIS_URL")
	if url == "" {
		t.Skip("THINKOFYOU_TEST_REDIS_URL not set")
	}
	// A fresh prefix keeps runs independent without flushing the server.
	s, err := OpenRedis(context.Background(), url, "test:"+uuid.NewString()+":")
	require.NoError(t, err)
	defer s.Close()
	testStore(t, s)
}

func TestMongoIntegration(t *testing.T) {
	uri := os.Getenv("THINKOFYOU_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("THINKOFYOU_TEST_MONGO_URI not set")
	}
	ctx := context.Background()
	db := "thinkofyou_test_" + uuid.NewString()[:8]
	s, err := OpenMongo(ctx, uri, db)
	require.NoError(t, err)
	defer func() {
		_ = s.client.Database(db).Drop(ctx)
		s.Close()
	}()
	testStore(t, s)
}
