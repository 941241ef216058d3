package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	snapshotv1 "github.com/kingbirdogd/matching-sample/internal/domain/snapshot/v1"
	"github.com/kingbirdogd/matching-sample/pkg/logger"
	redismock "github.com/kingbirdogd/matching-sample/pkg/redis/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKey = "matching:snapshot"

func setupStore(t *testing.T) (*Store, *redismock.MockClient) {
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	mockClient := redismock.NewMockClient(ctrl)

	log, err := logger.NewLogger()
	require.NoError(t, err)

	return NewSnapshotStore(mockClient, testKey, log), mockClient
}

func testSnapshot() *snapshotv1.Snapshot {
	return &snapshotv1.Snapshot{
		OrderOffset: 42,
		LastOrderID: 7,
		Books: []snapshotv1.BookSnapshot{
			{
				Symbol: "BTC-USD",
				Orders: []snapshotv1.BookOrder{
					{ID: 7, Side: "bid", Price: 50000, Quantity: 10, Remaining: 4, Sequence: 3},
				},
			},
		},
	}
}

func TestStore_Store(t *testing.T) {
	store, mockClient := setupStore(t)
	snapshot := testSnapshot()

	mockClient.EXPECT().
		Set(gomock.Any(), testKey, gomock.Any(), time.Duration(0)).
		DoAndReturn(func(_ context.Context, _ string, value any, _ time.Duration) error {
			var decoded snapshotv1.Snapshot
			require.NoError(t, json.Unmarshal(value.([]byte), &decoded))
			assert.Equal(t, *snapshot, decoded)
			return nil
		}).
		Times(1)

	assert.NoError(t, store.Store(context.Background(), snapshot))
}

func TestStore_StoreError(t *testing.T) {
	store, mockClient := setupStore(t)

	mockClient.EXPECT().
		Set(gomock.Any(), testKey, gomock.Any(), time.Duration(0)).
		Return(errors.New("connection refused")).
		Times(1)

	assert.Error(t, store.Store(context.Background(), testSnapshot()))
}

func TestStore_LoadStore(t *testing.T) {
	store, mockClient := setupStore(t)
	snapshot := testSnapshot()

	encoded, err := json.Marshal(snapshot)
	require.NoError(t, err)

	mockClient.EXPECT().
		Get(gomock.Any(), testKey).
		Return(string(encoded), nil).
		Times(1)

	loaded, err := store.LoadStore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snapshot, loaded)
}

func TestStore_LoadStoreMissing(t *testing.T) {
	store, mockClient := setupStore(t)

	mockClient.EXPECT().
		Get(gomock.Any(), testKey).
		Return("", nil).
		Times(1)

	loaded, err := store.LoadStore(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestStore_LoadStoreCorrupt(t *testing.T) {
	store, mockClient := setupStore(t)

	mockClient.EXPECT().
		Get(gomock.Any(), testKey).
		Return("not json", nil).
		Times(1)

	_, err := store.LoadStore(context.Background())
	assert.Error(t, err)
}
