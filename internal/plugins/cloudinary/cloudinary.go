package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/KelvCodes/real-time-chat-app/internal/config"
	"github.com/KelvCodes/real-time-chat-app/internal/core/contracts"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// CloudinaryClient hosts profile pictures and message images.
type CloudinaryClient struct {
	Folder string
	cld    *cld.Cloudinary
}

var _ contracts.ImageStore = (*CloudinaryClient)(nil)

// NewCloudinaryClient returns an unconfigured client when credentials are
// missing; callers check Configured before wiring it in.
func NewCloudinaryClient(cfg config.CloudinaryConfig) (*CloudinaryClient, error) {
	c := &CloudinaryClient{Folder: cfg.Folder}
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return c, nil
	}
	sdk, err := cld.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary: %w", err)
	}
	if cfg.BaseURL != "" {
		sdk.Config.API.UploadPrefix = strings.TrimRight(cfg.BaseURL, "/")
	}
	c.cld = sdk
	return c, nil
}

// Configured reports whether credentials are present.
func (c *CloudinaryClient) Configured() bool {
	return c != nil && c.cld != nil
}

// Upload accepts a data URI or a remote URL and returns the hosted https URL.
func (c *CloudinaryClient) Upload(ctx context.Context, image string) (string, error) {
	if !c.Configured() {
		return "", errors.New("cloudinary error: not configured")
	}
	res, err := c.cld.Upload.Upload(ctx, image, uploader.UploadParams{Folder: c.Folder})
	if err != nil {
		return "", fmt.Errorf("cloudinary error: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary error: %s", res.Error.Message)
	}
	if res.SecureURL == "" {
		return "", errors.New("cloudinary error: empty secure_url")
	}
	return res.SecureURL, nil
}
