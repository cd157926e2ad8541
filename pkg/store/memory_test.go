package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topolens/topolens/pkg/errors"
	"github.com/topolens/topolens/pkg/inventory"
)

func testSnapshot() inventory.Snapshot {
	return inventory.Snapshot{
		VMs: []inventory.VM{
			{ID: "vm-1", Name: "web-01", Provider: "vmware", Cluster: "C1", Host: "H1", Environment: "prod", PowerState: "POWERED_ON"},
		},
		Hosts: []inventory.Host{
			{ID: "h1", Name: "H1", Provider: "vmware", Cluster: "C1"},
		},
	}
}

func TestMemoryStoreSaveGet(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	rec, err := st.Save(ctx, "friday-scan", testSnapshot())
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	assert.Equal(t, "friday-scan", rec.Name)
	assert.Equal(t, 1, rec.VMCount)
	assert.Equal(t, 1, rec.HostCount)
	assert.False(t, rec.CreatedAt.IsZero())

	got, err := st.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Len(t, got.Snapshot.VMs, 1)
	assert.Equal(t, "web-01", got.Snapshot.VMs[0].Name)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	st := NewMemoryStore()

	_, err := st.Get(context.Background(), "nope")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrCodeSnapshotNotFound))
}

func TestMemoryStoreListNewestFirst(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	a, err := st.Save(ctx, "first", testSnapshot())
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	b, err := st.Save(ctx, "second", testSnapshot())
	require.NoError(t, err)

	list, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, b.ID, list[0].ID)
	assert.Equal(t, a.ID, list[1].ID)

	// List drops the payload
	assert.Empty(t, list[0].Snapshot.VMs)
	assert.Equal(t, 1, list[0].VMCount)
}

func TestMemoryStoreDelete(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	rec, err := st.Save(ctx, "doomed", testSnapshot())
	require.NoError(t, err)

	require.NoError(t, st.Delete(ctx, rec.ID))

	_, err = st.Get(ctx, rec.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeSnapshotNotFound))

	err = st.Delete(ctx, rec.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeSnapshotNotFound))
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	st := NewMemoryStore()

	rec, err := st.Save(ctx, "scan", testSnapshot())
	require.NoError(t, err)

	got, err := st.Get(ctx, rec.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, err := st.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "scan", again.Name)
}
