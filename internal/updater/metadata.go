// Package updater checks for newer application releases. Metadata comes
// either from a GitHub releases listing or from a gist that mirrors it for
// restricted builds.
package updater

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/steel-chat/steel/pkg/chat"
)

// DefaultMetadataURL is the public releases listing.
const DefaultMetadataURL = "https://api.github.com/repos/steel-chat/steel/releases"

// gistMetadataFile is the file inside a metadata gist holding the releases
// listing.
const gistMetadataFile = "releases.json"

// Asset is a downloadable artifact attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int    `json:"size"`
}

// ArchiveType classifies the packaging of an asset.
type ArchiveType int

const (
	ArchiveUnknown ArchiveType = iota
	ArchiveZip
	ArchiveTarGzip
)

// ArchiveType derives the packaging from the download URL extension.
func (a Asset) ArchiveType() ArchiveType {
	switch strings.TrimPrefix(path.Ext(a.BrowserDownloadURL), ".") {
	case "gz":
		return ArchiveTarGzip
	case "zip":
		return ArchiveZip
	default:
		return ArchiveUnknown
	}
}

// Release is the metadata of a single published release.
type Release struct {
	TagName     string    `json:"tag_name"`
	PublishedAt time.Time `json:"published_at"`
	Assets      []Asset   `json:"assets"`
}

// PlatformAsset returns the asset built for the given OS and architecture,
// matched by markers in the asset name.
func (r *Release) PlatformAsset(goos, goarch string) *Asset {
	var osMarker string
	switch goos {
	case "windows":
		osMarker = "-windows"
	case "darwin":
		osMarker = "-darwin"
	case "linux":
		osMarker = "-linux"
	default:
		return nil
	}

	var preferredArchs []string
	if goos == "darwin" && goarch == "arm64" {
		preferredArchs = append(preferredArchs, "aarch64-")
	}
	if goarch == "amd64" {
		preferredArchs = append(preferredArchs, "x86_64-")
	}

	var compatible []*Asset
	for i := range r.Assets {
		if strings.Contains(r.Assets[i].Name, osMarker) {
			compatible = append(compatible, &r.Assets[i])
		}
	}
	for _, arch := range preferredArchs {
		for _, asset := range compatible {
			if strings.Contains(asset.Name, arch) {
				return asset
			}
		}
	}
	return nil
}

// Size returns the download size of the platform asset, or 0 when there is
// none.
func (r *Release) Size(goos, goarch string) int {
	if a := r.PlatformAsset(goos, goarch); a != nil {
		return a.Size
	}
	return 0
}

// Semver returns the release version triple parsed from the tag.
func (r *Release) Semver() (int, int, int) {
	return chat.ParseSemver(r.TagName)
}

// NewerThan reports whether the release is more recent than the given
// version string.
func (r *Release) NewerThan(version string) bool {
	ra, rb, rc := r.Semver()
	va, vb, vc := chat.ParseSemver(version)
	if ra != va {
		return ra > va
	}
	if rb != vb {
		return rb > vb
	}
	return rc > vc
}

// gistMetadata is the shape of a metadata gist.
type gistMetadata struct {
	Files map[string]gistFile `json:"files"`
}

type gistFile struct {
	Filename string `json:"filename"`
	Type     string `json:"type"`
	RawURL   string `json:"raw_url"`
	Size     int64  `json:"size"`
}

// SourceKind tells apart the supported metadata hosts.
type SourceKind int

const (
	SourceUnknown SourceKind = iota
	SourceGitHub
	SourceGist
)

func (k SourceKind) String() string {
	switch k {
	case SourceGitHub:
		return "github"
	case SourceGist:
		return "gist"
	default:
		return "unknown"
	}
}

// ProbeURL fetches the URL and reports which metadata format it serves.
func ProbeURL(client *http.Client, url string) (SourceKind, error) {
	body, err := fetch(client, url)
	if err != nil {
		return SourceUnknown, err
	}

	var releases []Release
	if err := json.Unmarshal(body, &releases); err == nil {
		return SourceGitHub, nil
	}
	var gist gistMetadata
	if err := json.Unmarshal(body, &gist); err == nil && len(gist.Files) > 0 {
		return SourceGist, nil
	}
	return SourceUnknown, fmt.Errorf("unrecognized metadata format at %s", url)
}

// fetchReleases downloads the releases listing from either source kind.
func fetchReleases(client *http.Client, url string) ([]Release, error) {
	body, err := fetch(client, url)
	if err != nil {
		return nil, err
	}

	var releases []Release
	if err := json.Unmarshal(body, &releases); err == nil {
		return releases, nil
	}

	var gist gistMetadata
	if err := json.Unmarshal(body, &gist); err != nil {
		return nil, fmt.Errorf("unrecognized metadata format at %s", url)
	}
	file, ok := gist.Files[gistMetadataFile]
	if !ok {
		return nil, fmt.Errorf("metadata gist has no %s", gistMetadataFile)
	}

	body, err = fetch(client, file.RawURL)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(body, &releases); err != nil {
		return nil, fmt.Errorf("parse %s: %w", file.RawURL, err)
	}
	return releases, nil
}

func fetch(client *http.Client, url string) ([]byte, error) {
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return body, nil
}
