package store

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adhvyk-ar/studio/internal/domain"
)

// fakePersistence is an in-memory Persistence for store tests.
type fakePersistence struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakePersistence() *fakePersistence {
	return &fakePersistence{data: make(map[string]string)}
}

func (f *fakePersistence) Get(ctx context.Context, key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *fakePersistence) Set(ctx context.Context, key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
}

// slowPersistence simulates a storage medium with a real commit latency.
type slowPersistence struct {
	*fakePersistence
	delay time.Duration
}

func (s *slowPersistence) Set(ctx context.Context, key, value string) {
	time.Sleep(s.delay)
	s.fakePersistence.Set(ctx, key, value)
}

// hungPersistence simulates a storage medium that never resolves.
type hungPersistence struct{}

func (hungPersistence) Get(ctx context.Context, key string) (string, bool) {
	select {}
}

func (hungPersistence) Set(ctx context.Context, key, value string) {}

// fakeRemote records the projects handed to the sync client.
type fakeRemote struct {
	mu    sync.Mutex
	saved []domain.Project
}

func (f *fakeRemote) SaveProject(ctx context.Context, p domain.Project) domain.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saved = append(f.saved, p)
	return p
}

func (f *fakeRemote) savedProjects() []domain.Project {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Project, len(f.saved))
	copy(out, f.saved)
	return out
}

func newTestStore() (*Store, *fakePersistence, *fakeRemote) {
	persist := newFakePersistence()
	remote := &fakeRemote{}
	return New(persist, remote), persist, remote
}

func TestCreateProject(t *testing.T) {
	s, _, remote := newTestStore()
	before := len(s.Projects())

	p := s.CreateProject("Demo", domain.WorldTracking)

	projects := s.Projects()
	require.Len(t, projects, before+1)
	assert.Equal(t, p.ID, projects[0].ID)
	assert.Equal(t, "Demo", projects[0].Name)
	assert.Equal(t, domain.StatusDraft, projects[0].Status)
	assert.Equal(t, domain.WorldTracking, projects[0].Type)
	assert.Empty(t, projects[0].SceneObjects)
	assert.Equal(t, 0, projects[0].Views)
	assert.NotEmpty(t, projects[0].Thumbnail)

	// The create fires a detached save towards the sync client.
	require.Eventually(t, func() bool {
		return len(remote.savedProjects()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, p.ID, remote.savedProjects()[0].ID)
}

// A one-shot process must be able to await the detached writes of a create
// before it exits; without the flush the snapshot write is still in flight
// when the process returns and the project is lost.
func TestCreateProject_FlushAwaitsDetachedWrites(t *testing.T) {
	persist := &slowPersistence{fakePersistence: newFakePersistence(), delay: 5 * time.Millisecond}
	remote := &fakeRemote{}
	s := New(persist, remote)

	p := s.CreateProject("One shot", domain.WorldTracking)
	s.Flush()

	raw, ok := persist.Get(context.Background(), SnapshotKey)
	require.True(t, ok, "snapshot write must have landed once Flush returns")
	var snap snapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snap))
	require.NotEmpty(t, snap.Projects)
	assert.Equal(t, p.ID, snap.Projects[0].ID)

	require.Len(t, remote.savedProjects(), 1)
	assert.Equal(t, p.ID, remote.savedProjects()[0].ID)
}

func TestOpenAndAddObject(t *testing.T) {
	s, _, _ := newTestStore()
	p := s.CreateProject("Scene", domain.ImageTracking)

	opened := s.OpenProject(p.ID)
	require.NotNil(t, opened)
	assert.Equal(t, p.ID, opened.ID)
	assert.Empty(t, s.SelectedObjectID())

	obj := domain.SceneObject{
		ID:        "txt1",
		Name:      "Greeting",
		Kind:      domain.KindText,
		Content:   "Hello",
		Transform: domain.DefaultTransform(),
		Visible:   true,
	}
	s.AddObject(obj)

	current := s.CurrentProject()
	require.NotNil(t, current)
	require.Len(t, current.SceneObjects, 1)
	assert.Equal(t, "Hello", current.SceneObjects[0].Content)
	assert.Equal(t, "txt1", s.SelectedObjectID())
}

func TestOpenProject_UnknownID(t *testing.T) {
	s, _, _ := newTestStore()
	assert.Nil(t, s.OpenProject("nope"))
	assert.Nil(t, s.CurrentProject())
}

// After every mutation the collection entry and the current-project pointer
// must hold identical content; no divergence window is observable.
func TestMutations_CollectionAndCurrentConverge(t *testing.T) {
	s, _, _ := newTestStore()
	p := s.CreateProject("Edit me", domain.WorldTracking)
	require.NotNil(t, s.OpenProject(p.ID))

	check := func() {
		t.Helper()
		current := s.CurrentProject()
		require.NotNil(t, current)
		entry := s.ProjectByID(current.ID)
		require.NotNil(t, entry)
		assert.Equal(t, *entry, *current)
	}

	s.AddObject(domain.SceneObject{ID: "o1", Kind: domain.KindText, Content: "a", Transform: domain.DefaultTransform(), Visible: true})
	check()

	name := "Renamed"
	s.UpdateProjectSettings(ProjectPatch{Name: &name})
	check()

	s.SetProjectTargetImage("https://example.com/marker.png")
	check()

	content := "b"
	s.UpdateObject("o1", ObjectPatch{Content: &content})
	check()
	assert.Equal(t, "b", s.CurrentProject().SceneObjects[0].Content)

	s.AddObject(domain.SceneObject{ID: "o2", Kind: domain.KindLight, Transform: domain.DefaultTransform(), Visible: true})
	check()

	s.RemoveObject("o1")
	check()
	require.Len(t, s.CurrentProject().SceneObjects, 1)
	assert.Empty(t, s.SelectedObjectID())
}

func TestUpdateObject_PartialMerge(t *testing.T) {
	s, _, _ := newTestStore()
	p := s.CreateProject("Scene", domain.WorldTracking)
	s.OpenProject(p.ID)
	s.AddObject(domain.SceneObject{
		ID:        "o1",
		Name:      "Box",
		Kind:      domain.KindModel,
		AssetURL:  "https://example.com/box.glb",
		Transform: domain.DefaultTransform(),
		Visible:   true,
	})

	locked := true
	tr := domain.Transform{Position: [3]float64{1, 2, 3}, Scale: [3]float64{1, 1, 1}}
	s.UpdateObject("o1", ObjectPatch{Locked: &locked, Transform: &tr})

	obj := s.CurrentProject().SceneObjects[0]
	assert.True(t, obj.Locked)
	assert.Equal(t, tr, obj.Transform)
	// Untouched fields survive the merge
	assert.Equal(t, "Box", obj.Name)
	assert.Equal(t, "https://example.com/box.glb", obj.AssetURL)
	assert.True(t, obj.Visible)
}

func TestCloseProject_SavesBeforeClearing(t *testing.T) {
	s, _, remote := newTestStore()
	p := s.CreateProject("Unsaved", domain.WorldTracking)
	s.OpenProject(p.ID)
	s.AddObject(domain.SceneObject{ID: "o1", Kind: domain.KindText, Content: "final", Transform: domain.DefaultTransform(), Visible: true})

	s.CloseProject(context.Background())

	assert.Nil(t, s.CurrentProject())
	assert.Empty(t, s.SelectedObjectID())

	// A save carrying the final mutated state fired before the clear.
	require.Eventually(t, func() bool {
		for _, saved := range remote.savedProjects() {
			if saved.ID == p.ID && len(saved.SceneObjects) == 1 {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	entry := s.ProjectByID(p.ID)
	require.NotNil(t, entry)
	require.Len(t, entry.SceneObjects, 1)
	assert.Equal(t, "final", entry.SceneObjects[0].Content)
}

func TestSaveCurrentProject_StampsLastModified(t *testing.T) {
	s, _, remote := newTestStore()
	p := s.CreateProject("Stamp", domain.WorldTracking)
	s.OpenProject(p.ID)

	before, err := time.Parse(time.RFC3339, s.CurrentProject().LastModified)
	require.NoError(t, err)
	s.SaveCurrentProject(context.Background())

	stamped, err := time.Parse(time.RFC3339, s.CurrentProject().LastModified)
	require.NoError(t, err)
	assert.False(t, stamped.Before(before))
	require.NotEmpty(t, remote.savedProjects())
}

func TestSnapshotPersistence(t *testing.T) {
	s, persist, _ := newTestStore()
	s.SetInstalled(true)
	s.Login(domain.User{ID: "u1", Name: "Dev", Email: "dev@example.com", Role: domain.RoleAdmin, Plan: "PRO"})
	p := s.CreateProject("Persisted", domain.GeoLocation)

	require.Eventually(t, func() bool {
		raw, ok := persist.Get(context.Background(), SnapshotKey)
		if !ok {
			return false
		}
		var snap snapshot
		if err := json.Unmarshal([]byte(raw), &snap); err != nil {
			return false
		}
		return snap.IsInstalled && snap.CurrentUser != nil &&
			len(snap.Projects) > 0 && snap.Projects[0].ID == p.ID
	}, time.Second, 10*time.Millisecond)
}

func TestHydrate_RestoresSnapshot(t *testing.T) {
	persist := newFakePersistence()
	snap := snapshot{
		IsInstalled: true,
		CurrentUser: &domain.User{ID: "u1", Name: "Dev", Email: "dev@example.com", Role: domain.RoleUser, Plan: "FREE"},
		Projects: []domain.Project{{
			ID:           "restored",
			Name:         "From disk",
			Type:         domain.FaceTracking,
			Status:       domain.StatusPublished,
			LastModified: "2026-01-01T00:00:00Z",
			SceneObjects: []domain.SceneObject{},
		}},
		Assets: []domain.Asset{},
	}
	raw, err := json.Marshal(snap)
	require.NoError(t, err)
	persist.Set(context.Background(), SnapshotKey, string(raw))

	s := New(persist, &fakeRemote{})
	s.Hydrate(context.Background())

	select {
	case <-s.Ready():
	case <-time.After(time.Second):
		t.Fatal("hydration gate never opened")
	}

	assert.True(t, s.Hydrated())
	assert.True(t, s.IsInstalled())
	require.NotNil(t, s.CurrentUser())
	assert.Equal(t, "Dev", s.CurrentUser().Name)
	projects := s.Projects()
	require.Len(t, projects, 1)
	assert.Equal(t, "restored", projects[0].ID)
}

// The gate must open within the safety timeout even when the storage medium
// never resolves.
func TestHydrate_TimeoutOpensGate(t *testing.T) {
	s := New(hungPersistence{}, &fakeRemote{})

	start := time.Now()
	s.Hydrate(context.Background())

	select {
	case <-s.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("hydration gate never opened despite safety timeout")
	}

	elapsed := time.Since(start)
	assert.GreaterOrEqual(t, elapsed, DefaultHydrationTimeout)
	assert.Less(t, elapsed, DefaultHydrationTimeout+400*time.Millisecond)
	assert.False(t, s.Hydrated())

	// Seed state is still usable.
	assert.NotEmpty(t, s.Projects())
}

func TestAddAsset_Prepends(t *testing.T) {
	s, _, _ := newTestStore()
	before := len(s.Assets())

	s.AddAsset(domain.Asset{ID: "a2", Name: "New", Type: domain.AssetImage, URL: "data:image/png;base64,cGc=", Size: "0.01 MB (Local)"})
	s.AddAsset(domain.Asset{ID: "a3", Name: "Newer", Type: domain.AssetVideo, URL: "/uploads/v.mp4", Size: "2.00 MB"})

	assets := s.Assets()
	require.Len(t, assets, before+2)
	assert.Equal(t, "a3", assets[0].ID)
	assert.Equal(t, "a2", assets[1].ID)
}

func TestEditorState_Transient(t *testing.T) {
	s, persist, _ := newTestStore()
	p := s.CreateProject("Scene", domain.WorldTracking)
	s.OpenProject(p.ID)
	s.SelectObject("x")
	s.SetTransformMode(ModeRotate)
	s.SetPreviewOpen(true)

	assert.Equal(t, ModeRotate, s.TransformMode())
	assert.True(t, s.IsPreviewOpen())

	// None of the editor-only state appears in the persisted snapshot.
	require.Eventually(t, func() bool {
		raw, ok := persist.Get(context.Background(), SnapshotKey)
		return ok && raw != ""
	}, time.Second, 10*time.Millisecond)

	raw, _ := persist.Get(context.Background(), SnapshotKey)
	var generic map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(raw), &generic))
	assert.NotContains(t, generic, "selectedObjectId")
	assert.NotContains(t, generic, "transformMode")
	assert.NotContains(t, generic, "isPreviewOpen")
}
