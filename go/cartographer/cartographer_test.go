package cartographer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/freyja-edge/freyja/go/model"
	"github.com/freyja-edge/freyja/go/testutil"
)

type fakeSelector struct {
	failFor map[string]bool
	calls   []string
}

func (f *fakeSelector) CreateOrUpdateAdapter(_ context.Context, entity model.Entity) error {
	f.calls = append(f.calls, entity.Id)
	if f.failFor[entity.Id] {
		return errors.New("selection failed")
	}
	return nil
}

type fakeStore struct {
	synced [][]model.Patch
}

func (f *fakeStore) Sync(patches []model.Patch) {
	cp := make([]model.Patch, len(patches))
	copy(cp, patches)
	f.synced = append(f.synced, cp)
}

func entry(source string, interval uint64) model.Mapping {
	return model.Mapping{
		source: model.MapEntry{
			Source:       source,
			Target:       map[string]string{"k": source},
			IntervalMs:   interval,
			EmitOnChange: true,
		},
	}
}

// Covers S5: a mapping update flows through twin resolution and
// adapter selection into a store Sync.
func TestTickSyncsResolvedEntities(t *testing.T) {
	twin := testutil.NewFakeTwinAdapter()
	twin.Entities["a"] = model.Entity{Id: "a"}

	mapping := &testutil.FakeMappingSource{HasWork: true, Mapping: entry("a", 1000)}
	sel := &fakeSelector{failFor: map[string]bool{}}
	store := &fakeStore{}

	c := New(mapping, twin, sel, store, Config{})
	require.NoError(t, c.tick(context.Background()))

	require.Len(t, store.synced, 1)
	require.Len(t, store.synced[0], 1)
	require.Equal(t, "a", store.synced[0][0].Id)
	require.Equal(t, uint64(1000), store.synced[0][0].Policy.IntervalMs)
}

func TestTickSkipsWhenNoWork(t *testing.T) {
	mapping := &testutil.FakeMappingSource{HasWork: false}
	sel := &fakeSelector{}
	store := &fakeStore{}

	c := New(mapping, testutil.NewFakeTwinAdapter(), sel, store, Config{})
	require.NoError(t, c.tick(context.Background()))

	require.Equal(t, 1, mapping.CheckCalls)
	require.Equal(t, 0, mapping.GetCalls)
	require.Empty(t, store.synced, "sync must not run when there's no work")
}

// Covers I2/per-signal skip semantics (§4.5/§7): a twin lookup failure
// for one signal excludes only that signal from the patch set, not the
// whole iteration.
func TestTickSkipsSignalOnTwinNotFound(t *testing.T) {
	twin := testutil.NewFakeTwinAdapter()
	twin.Entities["known"] = model.Entity{Id: "known"}

	mapping := &testutil.FakeMappingSource{
		HasWork: true,
		Mapping: model.Mapping{
			"known":   {Source: "known", IntervalMs: 500},
			"missing": {Source: "missing", IntervalMs: 500},
		},
	}
	sel := &fakeSelector{}
	store := &fakeStore{}

	c := New(mapping, twin, sel, store, Config{})
	require.NoError(t, c.tick(context.Background()))

	require.Len(t, store.synced[0], 1)
	require.Equal(t, "known", store.synced[0][0].Id)
}

// Covers the same per-signal skip semantics for adapter selection
// failures.
func TestTickSkipsSignalOnAdapterSelectionError(t *testing.T) {
	twin := testutil.NewFakeTwinAdapter()
	twin.Entities["a"] = model.Entity{Id: "a"}
	twin.Entities["b"] = model.Entity{Id: "b"}

	mapping := &testutil.FakeMappingSource{
		HasWork: true,
		Mapping: model.Mapping{
			"a": {Source: "a", IntervalMs: 500},
			"b": {Source: "b", IntervalMs: 500},
		},
	}
	sel := &fakeSelector{failFor: map[string]bool{"b": true}}
	store := &fakeStore{}

	c := New(mapping, twin, sel, store, Config{})
	require.NoError(t, c.tick(context.Background()))

	require.Len(t, store.synced[0], 1)
	require.Equal(t, "a", store.synced[0][0].Id)
}

func TestTickPropagatesMappingSourceErrors(t *testing.T) {
	mapping := &testutil.FakeMappingSource{HasWork: true, GetMappingErr: errors.New("unavailable")}
	store := &fakeStore{}

	c := New(mapping, testutil.NewFakeTwinAdapter(), &fakeSelector{}, store, Config{})
	err := c.tick(context.Background())
	require.Error(t, err)
	require.Empty(t, store.synced)
}
