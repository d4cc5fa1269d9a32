package store

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adhvyk-ar/studio/internal/diag"
	"github.com/adhvyk-ar/studio/internal/domain"
)

const (
	// SnapshotKey is the single adapter key holding the persisted subset of
	// studio state.
	SnapshotKey = "adhvyk-ar-storage"

	// DefaultHydrationTimeout bounds how long dependent callers can be kept
	// waiting on storage rehydration before the gate is forced open.
	DefaultHydrationTimeout = 500 * time.Millisecond
)

// TransformMode selects which gizmo manipulates the selected object.
type TransformMode string

const (
	ModeTranslate TransformMode = "translate"
	ModeRotate    TransformMode = "rotate"
	ModeScale     TransformMode = "scale"
)

// Persistence is the durable storage surface the store snapshots into.
type Persistence interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// RemoteAPI is the slice of the sync client the store drives. Save never
// surfaces an error; a failed sync degrades to a local save inside the client.
type RemoteAPI interface {
	SaveProject(ctx context.Context, project domain.Project) domain.Project
}

// snapshot is the persisted subset of store state. Editor-only state
// (selection, transform mode, modal flags) is session-transient and excluded.
type snapshot struct {
	IsInstalled bool             `json:"isInstalled"`
	CurrentUser *domain.User     `json:"currentUser"`
	Projects    []domain.Project `json:"projects"`
	Assets      []domain.Asset   `json:"assets"`
}

// Store is the single source of truth for the in-memory project collection,
// the active project and editor state. All state lives behind one mutex and is
// mutated only through the methods below; every mutation updates the project
// collection and the current-project pointer in the same critical section, so
// no caller can observe them disagreeing. After each mutation the persisted
// subset is written to the storage adapter as a detached background task.
type Store struct {
	persist Persistence
	remote  RemoteAPI
	logger  *diag.Logger

	hydrationTimeout time.Duration
	hydrateOnce      sync.Once
	readyOnce        sync.Once
	ready            chan struct{}
	hydrated         atomic.Bool

	pending sync.WaitGroup

	mu               sync.Mutex
	isInstalled      bool
	installConfig    domain.InstallConfig
	currentUser      *domain.User
	projects         []domain.Project
	currentProject   *domain.Project
	selectedObjectID string
	transformMode    TransformMode
	isPreviewOpen    bool
	isPublishOpen    bool
	assets           []domain.Asset
}

// New creates a store bound to the given persistence adapter and sync client,
// seeded with the demo project and asset shown before any snapshot exists.
func New(persist Persistence, remote RemoteAPI) *Store {
	return &Store{
		persist:          persist,
		remote:           remote,
		logger:           diag.NewLogger("store"),
		hydrationTimeout: DefaultHydrationTimeout,
		ready:            make(chan struct{}),
		installConfig: domain.InstallConfig{
			SiteName: "Adhvyk AR Studio",
		},
		projects:      initialProjects(),
		assets:        initialAssets(),
		transformMode: ModeTranslate,
	}
}

// SetHydrationTimeout overrides the hydration safety timeout. Must be called
// before Hydrate.
func (s *Store) SetHydrationTimeout(d time.Duration) {
	if d > 0 {
		s.hydrationTimeout = d
	}
}

// Hydrate restores the persisted snapshot in the background. The gate returned
// by Ready opens when the restore completes, or after the safety timeout so a
// hung storage medium can never block the caller indefinitely. On timeout the
// caller proceeds with whatever state exists so far, possibly just the seeds.
func (s *Store) Hydrate(ctx context.Context) {
	s.hydrateOnce.Do(func() {
		timer := time.AfterFunc(s.hydrationTimeout, func() {
			if !s.hydrated.Load() {
				s.logger.LogWarn("hydrate", "storage did not respond in time, proceeding with current state")
				diag.RecordHydrationTimeout()
			}
			s.markReady()
		})

		go func() {
			defer timer.Stop()
			raw, ok := s.persist.Get(ctx, SnapshotKey)
			if ok && raw != "" {
				s.applySnapshot(raw)
			}
			s.hydrated.Store(true)
			s.markReady()
		}()
	})
}

// Ready returns a channel closed once the store is safe to read: after
// rehydration, or after the hydration safety timeout fires.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Hydrated reports whether the snapshot restore actually completed, as
// opposed to the gate being forced open by the timeout.
func (s *Store) Hydrated() bool {
	return s.hydrated.Load()
}

func (s *Store) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Store) applySnapshot(raw string) {
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		s.logger.LogWarnf("hydrate", "corrupt snapshot, keeping seed state: %v", err)
		return
	}
	s.mu.Lock()
	s.isInstalled = snap.IsInstalled
	s.currentUser = snap.CurrentUser
	if snap.Projects != nil {
		s.projects = snap.Projects
	}
	if snap.Assets != nil {
		s.assets = snap.Assets
	}
	s.mu.Unlock()
}

// persistLocked marshals the persisted subset while the lock is held and
// writes it out as a detached task. Back-to-back mutations can therefore
// overtake each other's writes; acceptable for single-user usage.
func (s *Store) persistLocked() {
	snap := snapshot{
		IsInstalled: s.isInstalled,
		CurrentUser: s.currentUser,
		Projects:    s.projects,
		Assets:      s.assets,
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		s.logger.LogError("persist", err)
		return
	}
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.persist.Set(context.Background(), SnapshotKey, string(raw))
	}()
}

// Flush blocks until every detached snapshot write and background save issued
// so far has completed. A long-lived session never needs this; a one-shot
// process must flush before exiting or its last writes may still be in flight.
func (s *Store) Flush() {
	s.pending.Wait()
}

// replaceProjectLocked swaps the collection entry and, when it is the open
// project, the current pointer, as one transition.
func (s *Store) replaceProjectLocked(updated domain.Project) {
	for i := range s.projects {
		if s.projects[i].ID == updated.ID {
			s.projects[i] = updated
			break
		}
	}
	if s.currentProject != nil && s.currentProject.ID == updated.ID {
		clone := updated.Clone()
		s.currentProject = &clone
	}
}

func nowStamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// CreateProject creates a draft project, inserts it at the front of the
// collection and fires a detached save towards the sync client. The caller
// gets the optimistic in-memory copy immediately; a failed background sync is
// ignored by contract.
func (s *Store) CreateProject(name string, trackingType domain.TrackingType) domain.Project {
	project := domain.Project{
		ID:           domain.NewID("prj"),
		Name:         name,
		Type:         trackingType,
		Thumbnail:    defaultThumbnail(),
		Status:       domain.StatusDraft,
		Views:        0,
		LastModified: nowStamp(),
		SceneObjects: []domain.SceneObject{},
	}

	s.mu.Lock()
	s.projects = append([]domain.Project{project}, s.projects...)
	s.persistLocked()
	s.mu.Unlock()

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		s.remote.SaveProject(context.Background(), project)
	}()

	return project
}

// OpenProject makes the project with the given id the active one, looking it
// up in the in-memory collection only. Selection and modal flags reset.
// Returns nil when the id is unknown.
func (s *Store) OpenProject(id string) *domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.currentProject = nil
	s.selectedObjectID = ""
	s.isPreviewOpen = false
	s.isPublishOpen = false
	for i := range s.projects {
		if s.projects[i].ID == id {
			clone := s.projects[i].Clone()
			s.currentProject = &clone
			break
		}
	}
	return s.currentProjectCopyLocked()
}

// CloseProject saves the closing project and then clears the active
// reference. This is the only implicit persistence trigger in the store.
func (s *Store) CloseProject(ctx context.Context) {
	s.SaveCurrentProject(ctx)

	s.mu.Lock()
	s.currentProject = nil
	s.selectedObjectID = ""
	s.mu.Unlock()
}

// SaveCurrentProject stamps a fresh last-modified marker, updates the
// collection entry and awaits the sync client's save. Callers needing a
// durability guarantee must await this explicitly.
func (s *Store) SaveCurrentProject(ctx context.Context) {
	s.mu.Lock()
	if s.currentProject == nil {
		s.mu.Unlock()
		return
	}
	updated := s.currentProject.Clone()
	updated.LastModified = nowStamp()
	s.replaceProjectLocked(updated)
	s.persistLocked()
	s.mu.Unlock()

	s.remote.SaveProject(ctx, updated)
}

// SetProjectTargetImage assigns the tracking target image of the open project.
func (s *Store) SetProjectTargetImage(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentProject == nil {
		return
	}
	updated := s.currentProject.Clone()
	updated.TargetImage = url
	s.replaceProjectLocked(updated)
	s.persistLocked()
}

// ProjectPatch is a partial update of project settings; nil fields are left
// unchanged.
type ProjectPatch struct {
	Name        *string
	Type        *domain.TrackingType
	Thumbnail   *string
	Status      *domain.ProjectStatus
	Views       *int
	TargetImage *string
}

// UpdateProjectSettings applies a partial settings update to the open project.
func (s *Store) UpdateProjectSettings(patch ProjectPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentProject == nil {
		return
	}
	updated := s.currentProject.Clone()
	if patch.Name != nil {
		updated.Name = *patch.Name
	}
	if patch.Type != nil {
		updated.Type = *patch.Type
	}
	if patch.Thumbnail != nil {
		updated.Thumbnail = *patch.Thumbnail
	}
	if patch.Status != nil {
		updated.Status = *patch.Status
	}
	if patch.Views != nil {
		updated.Views = *patch.Views
	}
	if patch.TargetImage != nil {
		updated.TargetImage = *patch.TargetImage
	}
	s.replaceProjectLocked(updated)
	s.persistLocked()
}

// AddObject appends a scene object to the open project and selects it. An
// empty id is filled in.
func (s *Store) AddObject(obj domain.SceneObject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentProject == nil {
		return
	}
	if obj.ID == "" {
		obj.ID = domain.NewID("obj")
	}
	updated := s.currentProject.Clone()
	updated.SceneObjects = append(updated.SceneObjects, obj)
	s.replaceProjectLocked(updated)
	s.selectedObjectID = obj.ID
	s.persistLocked()
}

// ObjectPatch is a partial update of a scene object; nil fields are left
// unchanged. A non-nil Properties map replaces the bag wholesale.
type ObjectPatch struct {
	Name       *string
	AssetURL   *string
	Content    *string
	Transform  *domain.Transform
	Properties map[string]any
	Visible    *bool
	Locked     *bool
}

// UpdateObject applies a partial-field merge to the scene object with the
// given id inside the open project.
func (s *Store) UpdateObject(id string, patch ObjectPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentProject == nil {
		return
	}
	updated := s.currentProject.Clone()
	for i := range updated.SceneObjects {
		if updated.SceneObjects[i].ID != id {
			continue
		}
		obj := &updated.SceneObjects[i]
		if patch.Name != nil {
			obj.Name = *patch.Name
		}
		if patch.AssetURL != nil {
			obj.AssetURL = *patch.AssetURL
		}
		if patch.Content != nil {
			obj.Content = *patch.Content
		}
		if patch.Transform != nil {
			obj.Transform = *patch.Transform
		}
		if patch.Properties != nil {
			obj.Properties = patch.Properties
		}
		if patch.Visible != nil {
			obj.Visible = *patch.Visible
		}
		if patch.Locked != nil {
			obj.Locked = *patch.Locked
		}
		break
	}
	s.replaceProjectLocked(updated)
	s.persistLocked()
}

// RemoveObject removes the scene object with the given id from the open
// project and clears the selection.
func (s *Store) RemoveObject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentProject == nil {
		return
	}
	updated := s.currentProject.Clone()
	objects := updated.SceneObjects[:0]
	for _, obj := range updated.SceneObjects {
		if obj.ID != id {
			objects = append(objects, obj)
		}
	}
	updated.SceneObjects = objects
	s.replaceProjectLocked(updated)
	s.selectedObjectID = ""
	s.persistLocked()
}

// SelectObject sets the editor selection; an empty id clears it.
func (s *Store) SelectObject(id string) {
	s.mu.Lock()
	s.selectedObjectID = id
	s.mu.Unlock()
}

// SetTransformMode switches the active gizmo mode.
func (s *Store) SetTransformMode(mode TransformMode) {
	s.mu.Lock()
	s.transformMode = mode
	s.mu.Unlock()
}

// AddAsset prepends an asset to the process-wide library. There is no dedup
// and no removal.
func (s *Store) AddAsset(asset domain.Asset) {
	s.mu.Lock()
	s.assets = append([]domain.Asset{asset}, s.assets...)
	s.persistLocked()
	s.mu.Unlock()
}

// Login stores the session user.
func (s *Store) Login(user domain.User) {
	s.mu.Lock()
	s.currentUser = &user
	s.persistLocked()
	s.mu.Unlock()
}

// Logout clears the session user.
func (s *Store) Logout() {
	s.mu.Lock()
	s.currentUser = nil
	s.persistLocked()
	s.mu.Unlock()
}

// SetInstalled records completion of the installer wizard.
func (s *Store) SetInstalled(installed bool) {
	s.mu.Lock()
	s.isInstalled = installed
	s.persistLocked()
	s.mu.Unlock()
}

// SetPreviewOpen toggles the preview modal flag.
func (s *Store) SetPreviewOpen(open bool) {
	s.mu.Lock()
	s.isPreviewOpen = open
	s.mu.Unlock()
}

// SetPublishOpen toggles the publish modal flag.
func (s *Store) SetPublishOpen(open bool) {
	s.mu.Lock()
	s.isPublishOpen = open
	s.mu.Unlock()
}

// Projects returns a copy of the project collection.
func (s *Store) Projects() []domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Project, len(s.projects))
	for i, p := range s.projects {
		out[i] = p.Clone()
	}
	return out
}

// ProjectByID returns a copy of the collection entry with the given id, or nil.
func (s *Store) ProjectByID(id string) *domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.projects {
		if s.projects[i].ID == id {
			clone := s.projects[i].Clone()
			return &clone
		}
	}
	return nil
}

// CurrentProject returns a copy of the active project, or nil when none is open.
func (s *Store) CurrentProject() *domain.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentProjectCopyLocked()
}

func (s *Store) currentProjectCopyLocked() *domain.Project {
	if s.currentProject == nil {
		return nil
	}
	clone := s.currentProject.Clone()
	return &clone
}

// SelectedObjectID returns the current editor selection, empty when none.
func (s *Store) SelectedObjectID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedObjectID
}

// TransformMode returns the active gizmo mode.
func (s *Store) TransformMode() TransformMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transformMode
}

// Assets returns a copy of the asset library.
func (s *Store) Assets() []domain.Asset {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// CurrentUser returns the session user, or nil when logged out.
func (s *Store) CurrentUser() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currentUser == nil {
		return nil
	}
	u := *s.currentUser
	return &u
}

// IsInstalled reports whether the installer wizard completed.
func (s *Store) IsInstalled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isInstalled
}

// InstallConfig returns the installer wizard state.
func (s *Store) InstallConfig() domain.InstallConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installConfig
}

// IsPreviewOpen reports the preview modal flag.
func (s *Store) IsPreviewOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isPreviewOpen
}

// IsPublishOpen reports the publish modal flag.
func (s *Store) IsPublishOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isPublishOpen
}
