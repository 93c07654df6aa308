package assets

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	ErrNotFound = errors.New("asset not found")
	ErrNotImage = errors.New("asset is not an image")
)

type APIError struct {
	Status int
	URL    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("asset probe status %d: %s", e.Status, e.URL)
}
