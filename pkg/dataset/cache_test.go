package dataset

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainsight/measures/internal/testutil"
)

func TestCachedClientServesFromCache(t *testing.T) {
	_, redisClient := testutil.NewMiniredisClient(t)

	inner := sampleClient()
	counted := &countingInner{inner: inner}
	cached := NewCachedClient(counted, redisClient, time.Minute, logrus.New())

	query := Query{Dataset: "orders", EntityID: "e1", DimensionID: "d1", Window: juneWindow()}

	first, err := cached.FetchRecords(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, 1, counted.calls)

	second, err := cached.FetchRecords(context.Background(), query)
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, 1, counted.calls, "second fetch must be served from cache")
}

func TestCachedClientDistinctQueriesDistinctKeys(t *testing.T) {
	_, redisClient := testutil.NewMiniredisClient(t)

	counted := &countingInner{inner: sampleClient()}
	cached := NewCachedClient(counted, redisClient, time.Minute, logrus.New())

	q1 := Query{Dataset: "orders", EntityID: "e1", DimensionID: "d1", Window: juneWindow()}
	q2 := Query{Dataset: "orders", EntityID: "e2", Window: juneWindow()}

	_, err := cached.FetchRecords(context.Background(), q1)
	require.NoError(t, err)
	_, err = cached.FetchRecords(context.Background(), q2)
	require.NoError(t, err)

	assert.Equal(t, 2, counted.calls)
}

func TestCachedClientExpiry(t *testing.T) {
	mr, redisClient := testutil.NewMiniredisClient(t)

	counted := &countingInner{inner: sampleClient()}
	cached := NewCachedClient(counted, redisClient, time.Second, logrus.New())

	query := Query{Dataset: "orders", EntityID: "e1", DimensionID: "d1", Window: juneWindow()}

	_, err := cached.FetchRecords(context.Background(), query)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	_, err = cached.FetchRecords(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, 2, counted.calls, "expired entry must refetch from source")
}

func TestCachedClientPropagatesSourceErrors(t *testing.T) {
	_, redisClient := testutil.NewMiniredisClient(t)

	cached := NewCachedClient(sampleClient(), redisClient, time.Minute, logrus.New())

	_, err := cached.FetchRecords(context.Background(), Query{Dataset: "ghost"})
	require.ErrorIs(t, err, ErrDatasetNotFound)
}

type countingInner struct {
	inner Client
	calls int
}

func (c *countingInner) FetchRecords(ctx context.Context, query Query) ([]Record, error) {
	c.calls++
	return c.inner.FetchRecords(ctx, query)
}
