// Where: internal/image/images.go
// What: Docker SDK helpers for image queries.
// Why: Verify build results and remove stale tags without shelling out.
package image

import (
	"context"
	"strings"

	"github.com/docker/docker/api/types/image"
)

// DockerClient defines the subset of Docker SDK methods used by this package.
// This interface enables mocking the Docker client in tests.
type DockerClient interface {
	ImageList(ctx context.Context, options image.ListOptions) ([]image.Summary, error)
	ImageRemove(ctx context.Context, imageID string, options image.RemoveOptions) ([]image.DeleteResponse, error)
}

// ResolveImageID returns the ID of the image tagged with the given
// name:tag reference, or an empty string when no such image exists.
func ResolveImageID(ctx context.Context, client DockerClient, reference string) (string, error) {
	images, err := client.ImageList(ctx, image.ListOptions{All: true})
	if err != nil {
		return "", err
	}

	for _, img := range images {
		for _, tag := range img.RepoTags {
			if tag == reference {
				return img.ID, nil
			}
		}
	}
	return "", nil
}

// RemoveTags removes every tag of the named repository and returns the tags
// that were removed. Images still used by containers are left in place.
func RemoveTags(ctx context.Context, client DockerClient, name string) ([]string, error) {
	images, err := client.ImageList(ctx, image.ListOptions{All: true})
	if err != nil {
		return nil, err
	}

	prefix := name + ":"
	var removed []string
	for _, img := range images {
		for _, tag := range img.RepoTags {
			if !strings.HasPrefix(tag, prefix) {
				continue
			}
			if _, err := client.ImageRemove(ctx, tag, image.RemoveOptions{}); err != nil {
				return removed, err
			}
			removed = append(removed, tag)
		}
	}
	return removed, nil
}
