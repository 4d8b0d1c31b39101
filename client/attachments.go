package client

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"

	"github.com/sourcegraph/conc"

	"github.com/Mitul82/websocket-kanban-vitest-playwright-2026/domain"
)

// ErrFilesRejected reports that some files were skipped because they are
// not images. Accepted files are still converted and returned.
var ErrFilesRejected = errors.New("Some files were rejected: only image files are allowed.")

// File is a named blob picked by the user for attachment.
type File struct {
	Name string
	Data []byte
}

// ConvertFiles turns image files into portable data-URL attachments.
// Conversions run concurrently and are joined before the batch is
// returned, so callers append results in one go.
func ConvertFiles(files []File) ([]domain.Attachment, error) {
	accepted := make([]File, 0, len(files))
	rejected := false
	for _, f := range files {
		if strings.HasPrefix(http.DetectContentType(f.Data), "image/") {
			accepted = append(accepted, f)
		} else {
			rejected = true
		}
	}

	atts := make([]domain.Attachment, len(accepted))
	wg := conc.NewWaitGroup()
	for i, f := range accepted {
		wg.Go(func() {
			atts[i] = convertFile(f)
		})
	}
	wg.Wait()

	if rejected {
		return atts, ErrFilesRejected
	}
	return atts, nil
}

func convertFile(f File) domain.Attachment {
	mime := http.DetectContentType(f.Data)
	return domain.Attachment{
		Name: f.Name,
		URL:  "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(f.Data),
	}
}
