package step

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/hairizuan-noorazman/browser-bridge/browser"
	"github.com/hairizuan-noorazman/browser-bridge/storage"
)

// Screenshots captures page screenshots into blob storage.
type Screenshots struct {
	storage storage.BlobStorage
}

// NewScreenshots creates a screenshot sink backed by blob.
func NewScreenshots(blob storage.BlobStorage) *Screenshots {
	return &Screenshots{storage: blob}
}

// Capture takes a screenshot of page, stores it under name and returns its location.
func (s *Screenshots) Capture(ctx context.Context, page browser.Page, name string) (string, error) {
	data, err := page.Screenshot(ctx)
	if err != nil {
		return "", err
	}

	if err := s.storage.Upload(ctx, name, bytes.NewReader(data), storage.ContentTypePNG); err != nil {
		return "", fmt.Errorf("%w: %v", browser.ErrScreenshot, err)
	}

	location, err := s.storage.GetURL(ctx, name)
	if err != nil {
		return "", fmt.Errorf("%w: %v", browser.ErrScreenshot, err)
	}
	return location, nil
}

// StepScreenshotName is the file name of an explicit screenshot step.
func StepScreenshotName(testID string, stepNumber int) string {
	return fmt.Sprintf("%s_step_%d.png", fileSafe(testID), stepNumber)
}

// FailedScreenshotName is the file name captured after a step's final failed attempt.
func FailedScreenshotName(testID string, stepNumber int) string {
	return fmt.Sprintf("%s_step_%d_FAILED.png", fileSafe(testID), stepNumber)
}

// ErrorScreenshotName is the file name captured when a run aborts.
func ErrorScreenshotName(testID string) string {
	return fmt.Sprintf("%s_ERROR.png", fileSafe(testID))
}

var pathSeparators = strings.NewReplacer("/", "_", "\\", "_")

// fileSafe keeps caller-supplied test IDs from introducing directories.
func fileSafe(testID string) string {
	if testID == "" {
		return "test"
	}
	return pathSeparators.Replace(testID)
}
