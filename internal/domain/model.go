package domain

// TrackingType identifies the AR tracking target of a project.
type TrackingType string

const (
	ImageTracking TrackingType = "IMAGE_TRACKING"
	WorldTracking TrackingType = "WORLD_TRACKING"
	FaceTracking  TrackingType = "FACE_TRACKING"
	GeoLocation   TrackingType = "GEO_LOCATION"
)

// ProjectStatus is the publication state of a project.
type ProjectStatus string

const (
	StatusDraft     ProjectStatus = "DRAFT"
	StatusPublished ProjectStatus = "PUBLISHED"
)

// AssetType classifies an uploaded asset.
type AssetType string

const (
	AssetModel AssetType = "MODEL"
	AssetImage AssetType = "IMAGE"
	AssetVideo AssetType = "VIDEO"
	AssetAudio AssetType = "AUDIO"
)

// ObjectKind is the kind of a placed scene object.
type ObjectKind string

const (
	KindModel ObjectKind = "model"
	KindImage ObjectKind = "image"
	KindVideo ObjectKind = "video"
	KindText  ObjectKind = "text"
	KindLight ObjectKind = "light"
)

// Transform holds the 3D placement of a scene object.
type Transform struct {
	Position [3]float64 `json:"position"`
	Rotation [3]float64 `json:"rotation"`
	Scale    [3]float64 `json:"scale"`
}

// DefaultTransform returns an identity transform (unit scale at the origin).
func DefaultTransform() Transform {
	return Transform{Scale: [3]float64{1, 1, 1}}
}

// SceneObject is a single placed entity inside a project.
// AssetURL is meaningful only for model/image kinds, Content only for text.
type SceneObject struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Kind       ObjectKind     `json:"type"`
	AssetURL   string         `json:"assetUrl,omitempty"`
	Content    string         `json:"content,omitempty"`
	Transform  Transform      `json:"transform"`
	Properties map[string]any `json:"properties"`
	Visible    bool           `json:"visible"`
	Locked     bool           `json:"locked"`
}

// Clone returns a deep copy of the scene object.
func (o SceneObject) Clone() SceneObject {
	c := o
	if o.Properties != nil {
		c.Properties = make(map[string]any, len(o.Properties))
		for k, v := range o.Properties {
			c.Properties[k] = v
		}
	}
	return c
}

// Project is the unit of persistence and synchronization: one AR experience
// document with its metadata and ordered scene objects.
type Project struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         TrackingType  `json:"type"`
	Thumbnail    string        `json:"thumbnail"`
	Status       ProjectStatus `json:"status"`
	Views        int           `json:"views"`
	LastModified string        `json:"lastModified"`
	SceneObjects []SceneObject `json:"sceneObjects"`
	TargetImage  string        `json:"targetImage,omitempty"`
}

// Clone returns a deep copy of the project, including its scene objects.
func (p Project) Clone() Project {
	c := p
	c.SceneObjects = make([]SceneObject, len(p.SceneObjects))
	for i, o := range p.SceneObjects {
		c.SceneObjects[i] = o.Clone()
	}
	return c
}

// Asset is a reusable upload reference kept in the process-wide asset library.
// URL is either a remote path or a self-contained data URL when the upload
// happened while the remote was unreachable.
type Asset struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Type      AssetType `json:"type"`
	URL       string    `json:"url"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Size      string    `json:"size"`
}

// UserRole is the access level attached to a session.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

// User is the ephemeral session identity. There is no real credential
// validation anywhere in the system.
type User struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  UserRole `json:"role"`
	Plan  string   `json:"plan"`
	Token string   `json:"token,omitempty"`
}

// InstallConfig mirrors the installer wizard state kept alongside the
// installed flag.
type InstallConfig struct {
	DBConnected  bool   `json:"dbConnected"`
	AdminCreated bool   `json:"adminCreated"`
	LicenseValid bool   `json:"licenseValid"`
	SiteName     string `json:"siteName"`
}
