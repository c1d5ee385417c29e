package contracts

import "context"

type ImageStore interface {
	// Upload stores an image given as a data URI or remote URL and returns
	// its public https URL.
	Upload(ctx context.Context, image string) (string, error)
}
