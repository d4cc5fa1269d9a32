package syncer

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adhvyk-ar/studio/internal/domain"
)

// PackageProject serializes a project into a byte-safe payload embeddable in a
// URL fragment. Transient blob: references (session-scoped, invisible to other
// devices) are resolved into inline data URLs; references that are already
// remote or already inline are left untouched, which makes packaging
// idempotent. If a blob cannot be resolved its reference is kept unchanged;
// it may later fail to render, but packaging itself never aborts.
func (c *Client) PackageProject(project domain.Project) string {
	clone := project.Clone()

	for i := range clone.SceneObjects {
		if u := clone.SceneObjects[i].AssetURL; u != "" {
			clone.SceneObjects[i].AssetURL = c.inlineRef(u)
		}
	}
	if clone.TargetImage != "" {
		clone.TargetImage = c.inlineRef(clone.TargetImage)
	}

	raw, err := json.Marshal(clone)
	if err != nil {
		c.logger.LogError("package_project", err)
		return ""
	}
	return base64.StdEncoding.EncodeToString(raw)
}

// UnpackageProject decodes a payload produced by PackageProject.
func UnpackageProject(payload string) (domain.Project, error) {
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return domain.Project{}, fmt.Errorf("decode payload: %w", err)
	}
	var project domain.Project
	if err := json.Unmarshal(raw, &project); err != nil {
		return domain.Project{}, fmt.Errorf("unmarshal project: %w", err)
	}
	return project, nil
}

// ShareURL returns a viewer link for the project: a short remote path when the
// service is reachable, otherwise a fully self-contained portable link.
func (c *Client) ShareURL(project domain.Project) string {
	if c.reachable.Load() {
		return "/v/" + project.ID
	}
	return "#/v?p=" + c.PackageProject(project)
}

// inlineRef resolves one asset reference for packaging. Remote URLs, upload
// paths and data URLs already survive a reload on any device and pass through.
func (c *Client) inlineRef(url string) string {
	if strings.HasPrefix(url, "http") || strings.HasPrefix(url, "data:") || strings.HasPrefix(url, "/uploads") {
		return url
	}
	if strings.HasPrefix(url, "blob:") {
		if b, ok := c.lookupBlob(url); ok {
			return dataURL(b.mimeType, b.data)
		}
		c.logger.LogWarnf("package_project", "unresolvable session reference %s, keeping as-is", url)
	}
	return url
}
