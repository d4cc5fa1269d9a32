package syncer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adhvyk-ar/studio/internal/diag"
	"github.com/adhvyk-ar/studio/internal/domain"
)

const (
	// DefaultProbeTimeout bounds the startup liveness check.
	DefaultProbeTimeout = 2000 * time.Millisecond

	// DefaultTimeout applies to ordinary data-fetching calls.
	DefaultTimeout = 15 * time.Second

	// localProjectsKey is the adapter key holding the local-mode project list,
	// kept separate from the studio snapshot.
	localProjectsKey = "adhvyk:projects"
)

// LocalStore is the durable key-value surface the client falls back to when
// the remote service cannot serve an operation.
type LocalStore interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string)
}

// Client wraps the remote project service behind a try-remote-else-local
// policy. Reachability is probed once at startup and cached; if the remote
// goes down mid-session, individual calls still attempt it and fall back one
// by one rather than re-probing. Failed writes are not queued for retry; the
// user must re-save to retry a sync.
//
// No operation surfaces a transport error to the caller. Fallback episodes
// are logged and counted in diag.
type Client struct {
	baseURL       string
	defaultClient *http.Client
	probeClient   *http.Client
	local         LocalStore
	logger        *diag.Logger

	reachable atomic.Bool

	blobMu sync.RWMutex
	blobs  map[string]sessionBlob
}

// sessionBlob is a process-scoped payload registered for a transient blob:
// reference, the analog of a browser object URL. It does not survive the
// process and is never visible to another device; portable packaging inlines it.
type sessionBlob struct {
	mimeType string
	data     []byte
}

// New creates a sync client for the remote service at baseURL, with local
// fallback served by store. A probeTimeout of zero selects the default.
func New(baseURL string, store LocalStore, probeTimeout time.Duration) *Client {
	if probeTimeout <= 0 {
		probeTimeout = DefaultProbeTimeout
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		defaultClient: &http.Client{Timeout: DefaultTimeout},
		probeClient:   &http.Client{Timeout: probeTimeout},
		local:         store,
		logger:        diag.NewLogger("syncer"),
		blobs:         make(map[string]sessionBlob),
	}
}

// Probe checks whether the remote service is reachable and caches the result.
// A timeout or any transport error counts as unreachable; it never fails.
func (c *Client) Probe(ctx context.Context) bool {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/projects", nil)
	if err != nil {
		c.reachable.Store(false)
		return false
	}
	resp, err := c.probeClient.Do(req)
	diag.RecordRemoteCall(time.Since(start), err)
	if err != nil {
		c.logger.LogInfo("probe", "remote unreachable, switching to local mode")
		c.reachable.Store(false)
		return false
	}
	defer resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !ok {
		c.logger.LogWarnf("probe", "remote returned status %d, switching to local mode", resp.StatusCode)
	}
	c.reachable.Store(ok)
	return ok
}

// Reachable reports the cached reachability flag set by Probe.
func (c *Client) Reachable() bool {
	return c.reachable.Load()
}

// ListProjects returns the remote project collection, or the locally stored
// one when the remote cannot serve the call.
func (c *Client) ListProjects(ctx context.Context) []domain.Project {
	if c.reachable.Load() {
		var projects []domain.Project
		err := c.getJSON(ctx, "/api/projects", &projects)
		if err == nil {
			return projects
		}
		c.logger.LogWarnf("list_projects", "remote call failed, using local list: %v", err)
	}
	diag.RecordLocalFallback()
	return c.loadLocal(ctx)
}

// GetProjectByID returns the project with the given id, or nil when it is
// unknown both remotely and locally.
func (c *Client) GetProjectByID(ctx context.Context, id string) *domain.Project {
	if c.reachable.Load() {
		var p domain.Project
		if err := c.getJSON(ctx, "/api/projects/"+id, &p); err == nil {
			return &p
		}
	}
	diag.RecordLocalFallback()
	for _, p := range c.loadLocal(ctx) {
		if p.ID == id {
			return &p
		}
	}
	return nil
}

// SaveProject upserts the project remotely when possible, otherwise into the
// local list. The returned value is the stored version (the remote may
// re-stamp lastModified).
func (c *Client) SaveProject(ctx context.Context, project domain.Project) domain.Project {
	if c.reachable.Load() {
		start := time.Now()
		saved, err := c.postJSON(ctx, "/api/projects", project)
		diag.RecordRemoteCall(time.Since(start), err)
		if err == nil {
			return saved
		}
		c.logger.LogWarnf("save_project", "remote save failed for id=%s, saving locally: %v", project.ID, err)
	}

	diag.RecordLocalFallback()
	projects := c.loadLocal(ctx)
	replaced := false
	for i := range projects {
		if projects[i].ID == project.ID {
			projects[i] = project
			replaced = true
			break
		}
	}
	if !replaced {
		projects = append([]domain.Project{project}, projects...)
	}
	c.storeLocal(ctx, projects)
	return project
}

// DeleteProject removes a project from the local list. The remote contract
// has no delete route; the remote copy, if any, is left as an orphan.
func (c *Client) DeleteProject(ctx context.Context, id string) {
	projects := c.loadLocal(ctx)
	filtered := projects[:0]
	for _, p := range projects {
		if p.ID != id {
			filtered = append(filtered, p)
		}
	}
	c.storeLocal(ctx, filtered)
}

// UploadAsset stores a file remotely and returns an asset referencing the
// hosted URL. When the remote is unreachable or the upload fails, the file is
// inlined as a self-contained data URL instead, so the asset stays usable
// fully offline at the cost of persisted-document size.
func (c *Client) UploadAsset(ctx context.Context, data []byte, filename, mimeType string) domain.Asset {
	asset := domain.Asset{
		ID:   domain.NewID("ast"),
		Name: filename,
		Type: assetTypeFromMime(mimeType),
	}
	sizeMB := float64(len(data)) / 1024 / 1024

	if c.reachable.Load() {
		url, err := c.uploadRemote(ctx, data, filename, mimeType)
		if err == nil {
			asset.URL = url
			asset.Size = fmt.Sprintf("%.2f MB", sizeMB)
			return asset
		}
		c.logger.LogWarnf("upload_asset", "remote upload failed for %s, inlining locally: %v", filename, err)
	}

	diag.RecordLocalFallback()
	asset.URL = dataURL(mimeType, data)
	asset.Size = fmt.Sprintf("%.2f MB (Local)", sizeMB)
	return asset
}

// Login authenticates against the remote when reachable, otherwise mints a
// local mock session. There is no real credential check in either path.
func (c *Client) Login(ctx context.Context, email string) domain.User {
	if c.reachable.Load() {
		body, _ := json.Marshal(map[string]string{"email": email})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/auth/login", bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
			resp, err := c.defaultClient.Do(req)
			if err == nil {
				defer resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					var user domain.User
					if err := json.NewDecoder(resp.Body).Decode(&user); err == nil {
						return user
					}
				}
			}
		}
		c.logger.LogWarn("login", "remote login failed, using local session")
	}

	diag.RecordLocalFallback()
	name := email
	if i := strings.Index(email, "@"); i > 0 {
		name = email[:i]
	}
	return domain.User{
		ID:    domain.NewID("usr"),
		Name:  name,
		Email: email,
		Role:  domain.RoleAdmin,
		Plan:  "PRO",
	}
}

// RegisterBlob keeps a transient payload in the session blob map and returns
// a blob: reference for it. The reference is only resolvable inside this
// process; portable packaging replaces it with an inline data URL.
func (c *Client) RegisterBlob(mimeType string, data []byte) string {
	id := domain.NewID("blob")
	c.blobMu.Lock()
	c.blobs[id] = sessionBlob{mimeType: mimeType, data: data}
	c.blobMu.Unlock()
	return "blob:" + id
}

func (c *Client) lookupBlob(ref string) (sessionBlob, bool) {
	id := strings.TrimPrefix(ref, "blob:")
	c.blobMu.RLock()
	defer c.blobMu.RUnlock()
	b, ok := c.blobs[id]
	return b, ok
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.defaultClient.Do(req)
	diag.RecordRemoteCall(time.Since(start), err)
	if err != nil {
		return fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("remote returned status %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode JSON: %w", err)
	}
	return nil
}

func (c *Client) postJSON(ctx context.Context, path string, project domain.Project) (domain.Project, error) {
	body, err := json.Marshal(project)
	if err != nil {
		return domain.Project{}, fmt.Errorf("marshal project: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return domain.Project{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.defaultClient.Do(req)
	if err != nil {
		return domain.Project{}, fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Project{}, fmt.Errorf("remote returned status %d", resp.StatusCode)
	}
	var saved domain.Project
	if err := json.NewDecoder(resp.Body).Decode(&saved); err != nil {
		return domain.Project{}, fmt.Errorf("decode JSON: %w", err)
	}
	return saved, nil
}

func (c *Client) uploadRemote(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.defaultClient.Do(req)
	diag.RecordRemoteCall(time.Since(start), err)
	if err != nil {
		return "", fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("upload failed with status %d", resp.StatusCode)
	}

	var uploaded struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("decode JSON: %w", err)
	}
	if uploaded.URL == "" {
		return "", fmt.Errorf("upload response missing url")
	}
	return uploaded.URL, nil
}

func (c *Client) loadLocal(ctx context.Context) []domain.Project {
	raw, ok := c.local.Get(ctx, localProjectsKey)
	if !ok || raw == "" {
		return nil
	}
	var projects []domain.Project
	if err := json.Unmarshal([]byte(raw), &projects); err != nil {
		c.logger.LogWarnf("load_local", "corrupt local project list, starting empty: %v", err)
		return nil
	}
	return projects
}

func (c *Client) storeLocal(ctx context.Context, projects []domain.Project) {
	raw, err := json.Marshal(projects)
	if err != nil {
		c.logger.LogError("store_local", err)
		return
	}
	c.local.Set(ctx, localProjectsKey, string(raw))
}

func assetTypeFromMime(mimeType string) domain.AssetType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return domain.AssetImage
	case strings.HasPrefix(mimeType, "video/"):
		return domain.AssetVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return domain.AssetAudio
	default:
		return domain.AssetModel
	}
}

func dataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
