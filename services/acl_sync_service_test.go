package services

import (
	"bytes"
	"context"
	"errors"
	"slices"
	"testing"

	"acl-center/enums"
	"acl-center/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// fakeRepo keeps declared and persisted sets in memory.
type fakeRepo struct {
	declared  map[enums.UserRole][]string
	persisted map[enums.UserRole][]string
	failOn    enums.UserRole
	reads     []enums.UserRole
	writes    int
	onWrite   func()
}

func (f *fakeRepo) DeclaredPermissions(role enums.UserRole) []string {
	return f.declared[role]
}

func (f *fakeRepo) PersistedPermissions(_ context.Context, role enums.UserRole) ([]string, error) {
	f.reads = append(f.reads, role)
	if role == f.failOn {
		return nil, repositories.ErrPersistenceUnavailable
	}
	return slices.Clone(f.persisted[role]), nil
}

func (f *fakeRepo) Grant(_ context.Context, role enums.UserRole, names []string) error {
	f.wrote()
	for _, n := range names {
		if !slices.Contains(f.persisted[role], n) {
			f.persisted[role] = append(f.persisted[role], n)
		}
	}
	return nil
}

func (f *fakeRepo) Replace(_ context.Context, role enums.UserRole, names []string) error {
	f.wrote()
	f.persisted[role] = slices.Clone(names)
	return nil
}

func (f *fakeRepo) wrote() {
	f.writes++
	if f.onWrite != nil {
		f.onWrite()
	}
}

func (f *fakeRepo) EnsurePermission(context.Context, string) error { return nil }
func (f *fakeRepo) EnsureRole(context.Context, string) error       { return nil }
func (f *fakeRepo) AssignRole(context.Context, uint, enums.UserRole) error {
	return nil
}
func (f *fakeRepo) GivePermission(context.Context, uint, enums.UserPermission) error {
	return nil
}

type countingCache struct{ forgets int }

func (c *countingCache) Forget() { c.forgets++ }

func newObservedService(repo repositories.RolePermissionRepository) (*ACLSyncService, *observer.ObservedLogs, *countingCache) {
	core, logs := observer.New(zapcore.InfoLevel)
	cache := &countingCache{}
	return NewACLSyncService(repo, cache, zap.New(core)), logs, cache
}

func TestDiff(t *testing.T) {
	d := Diff([]string{"see_panel", "manage_users"}, []string{"see_panel"})
	assert.Equal(t, []string{"manage_users"}, d.ToAdd)
	assert.Empty(t, d.ToRemove)

	d = Diff([]string{"upload"}, []string{"upload", "manage_users"})
	assert.Empty(t, d.ToAdd)
	assert.Equal(t, []string{"manage_users"}, d.ToRemove)

	d = Diff([]string{"b", "a", "a"}, []string{"b", "a"})
	assert.True(t, d.Unchanged())

	d = Diff([]string{"c", "a", "b", "a"}, nil)
	assert.Equal(t, []string{"a", "b", "c"}, d.ToAdd, "sorted and deduplicated")

	d = Diff([]string{"Upload"}, []string{"upload"})
	assert.Equal(t, []string{"Upload"}, d.ToAdd, "names are case-sensitive")
	assert.Equal(t, []string{"upload"}, d.ToRemove)
}

func TestDiffSetsAreDisjoint(t *testing.T) {
	cases := [][2][]string{
		{{"a", "b", "c"}, {"b", "c", "d"}},
		{{}, {"x"}},
		{{"x"}, {}},
		{{"a", "a", "b"}, {"b", "b"}},
	}
	for _, c := range cases {
		d := Diff(c[0], c[1])
		for _, v := range d.ToAdd {
			assert.NotContains(t, d.ToRemove, v)
		}
	}
}

func TestSyncAdditiveGrantsMissing(t *testing.T) {
	repo := &fakeRepo{
		declared: map[enums.UserRole][]string{
			enums.Admin:   {"see_panel", "manage_users"},
			enums.Premium: {"upload"},
		},
		persisted: map[enums.UserRole][]string{
			enums.Admin:   {"see_panel"},
			enums.Premium: {"upload"},
		},
	}
	svc, logs, cache := newObservedService(repo)
	var out bytes.Buffer

	report, err := svc.Sync(context.Background(), SyncOptions{}, &out)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"see_panel", "manage_users"}, repo.persisted[enums.Admin])
	assert.Equal(t, 1, repo.writes)
	assert.Equal(t, 1, cache.forgets)
	assert.True(t, report.Changed())
	assert.Equal(t, ActionGranted, report.Roles[0].Action)
	assert.Equal(t, ActionUnchanged, report.Roles[1].Action)

	assert.Contains(t, out.String(), "admin has new permissions : manage_users")
	assert.Contains(t, out.String(), "premium's permissions not changed")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "role has permission changes", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "admin", fields["role"])
	assert.Equal(t, []interface{}{"manage_users"}, fields["new_permissions"])
	assert.Equal(t, []interface{}{}, fields["remove_permissions"])
}

func TestSyncFullOverwriteRemovesExtras(t *testing.T) {
	newRepo := func() *fakeRepo {
		return &fakeRepo{
			declared: map[enums.UserRole][]string{
				enums.Admin:   {"see_panel"},
				enums.Premium: {"upload"},
			},
			persisted: map[enums.UserRole][]string{
				enums.Admin:   {"see_panel"},
				enums.Premium: {"upload", "manage_users"},
			},
		}
	}

	repo := newRepo()
	svc, _, _ := newObservedService(repo)
	report, err := svc.Sync(context.Background(), SyncOptions{Sync: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"upload"}, repo.persisted[enums.Premium])
	assert.Equal(t, ActionReplaced, report.Roles[1].Action)
	assert.Equal(t, []string{"manage_users"}, report.Roles[1].ToRemove)

	repo = newRepo()
	svc, logs, cache := newObservedService(repo)
	report, err = svc.Sync(context.Background(), SyncOptions{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"upload", "manage_users"}, repo.persisted[enums.Premium], "additive mode never revokes")
	assert.Zero(t, repo.writes)
	assert.Zero(t, cache.forgets)
	assert.Equal(t, ActionKept, report.Roles[1].Action)
	assert.Equal(t, 1, logs.Len(), "the diff is logged even when nothing is applied")
}

func TestSyncPretendNeverMutates(t *testing.T) {
	repo := &fakeRepo{
		declared: map[enums.UserRole][]string{
			enums.Admin:   {"see_panel", "manage_users", "edit_ad"},
			enums.Premium: {"upload"},
		},
		persisted: map[enums.UserRole][]string{
			enums.Admin:   {},
			enums.Premium: {"manage_users"},
		},
	}

	for _, opts := range []SyncOptions{{Pretend: true}, {Pretend: true, Sync: true}} {
		svc, logs, cache := newObservedService(repo)
		var out bytes.Buffer
		report, err := svc.Sync(context.Background(), opts, &out)
		require.NoError(t, err)

		assert.Zero(t, repo.writes)
		assert.Zero(t, cache.forgets)
		assert.Equal(t, 2, logs.Len())
		assert.True(t, bytes.HasPrefix(out.Bytes(), []byte("pretending...\n")))
		for _, res := range report.Roles {
			assert.Equal(t, ActionPretend, res.Action)
		}
	}
}

func TestSyncLogsBeforeMutation(t *testing.T) {
	repo := &fakeRepo{
		declared:  map[enums.UserRole][]string{enums.Admin: {"see_panel"}},
		persisted: map[enums.UserRole][]string{},
	}
	svc, logs, _ := newObservedService(repo)
	repo.onWrite = func() {
		assert.Equal(t, 1, logs.Len(), "diff must be logged before the write")
	}

	_, err := svc.Sync(context.Background(), SyncOptions{Sync: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.writes)
}

func TestSyncStopsAtFirstStoreError(t *testing.T) {
	repo := &fakeRepo{
		declared:  map[enums.UserRole][]string{enums.Admin: {"see_panel"}, enums.Premium: {"upload"}},
		persisted: map[enums.UserRole][]string{},
		failOn:    enums.Admin,
	}
	svc, _, _ := newObservedService(repo)

	_, err := svc.Sync(context.Background(), SyncOptions{}, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repositories.ErrPersistenceUnavailable))
	assert.Contains(t, err.Error(), "role admin")
	assert.Equal(t, []enums.UserRole{enums.Admin}, repo.reads, "later roles are not touched")
	assert.Zero(t, repo.writes)
}

func TestSyncRejectsOverlappingRuns(t *testing.T) {
	svc, _, _ := newObservedService(&fakeRepo{})
	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err := svc.Sync(context.Background(), SyncOptions{}, nil)
	assert.ErrorIs(t, err, ErrSyncInProgress)
}

func TestDiffRole(t *testing.T) {
	repo := &fakeRepo{
		declared:  map[enums.UserRole][]string{enums.Premium: {"upload"}},
		persisted: map[enums.UserRole][]string{enums.Premium: {"edit_ad"}},
	}
	svc, _, _ := newObservedService(repo)

	d, err := svc.DiffRole(context.Background(), enums.Premium)
	require.NoError(t, err)
	assert.Equal(t, PermissionDiff{ToAdd: []string{"upload"}, ToRemove: []string{"edit_ad"}}, d)
}
