package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/comment-tree-api/internal/commentpath"
	"github.com/comment-tree-api/internal/models"
	"github.com/comment-tree-api/internal/repository"
	"github.com/rs/zerolog"
)

// Export formats
const (
	FormatNDJSON = "ndjson"
	FormatJSON   = "json"
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamThread streams a comment and all of its descendants in path order.
// rootID 0 exports every comment.
func (s *exportService) StreamThread(ctx context.Context, w http.ResponseWriter, rootID int, format string) error {
	if format != FormatNDJSON && format != FormatJSON {
		return invalid("format", "format must be one of: ndjson, json")
	}

	var (
		root     *models.Comment
		rootPath string
	)
	if rootID != commentpath.NoParent {
		var err error
		root, err = s.repos.Comment.FindByID(ctx, rootID)
		if err != nil {
			return err
		}
		if root == nil {
			return notFound(ErrCommentNotFound)
		}
		rootPath = root.Path
	}

	s.log.Info().Int("root_id", rootID).Str("format", format).Msg("Starting thread export")

	filename := fmt.Sprintf("thread-%d.%s", rootID, format)
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	var count int
	var err error
	switch format {
	case FormatNDJSON:
		count, err = s.streamNDJSON(ctx, w, root, rootPath)
	case FormatJSON:
		count, err = s.streamJSON(ctx, w, root, rootPath)
	}

	s.log.Info().Int("root_id", rootID).Int("count", count).Msg("Thread export completed")
	return err
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter, root *models.Comment, rootPath string) (int, error) {
	w.Header().Set("Content-Type", "application/x-ndjson")

	flusher, _ := w.(http.Flusher)
	count := 0

	write := func(comment *models.Comment) error {
		data, err := json.Marshal(comment)
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	}

	if root != nil {
		if err := write(root); err != nil {
			return count, err
		}
	}
	err := s.repos.Comment.StreamSubtree(ctx, rootPath, write)
	return count, err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter, root *models.Comment, rootPath string) (int, error) {
	w.Header().Set("Content-Type", "application/json")

	w.Write([]byte("["))
	count := 0

	write := func(comment *models.Comment) error {
		if count > 0 {
			w.Write([]byte(","))
		}

		data, err := json.Marshal(comment)
		if err != nil {
			return err
		}
		w.Write(data)
		count++
		return nil
	}

	var err error
	if root != nil {
		err = write(root)
	}
	if err == nil {
		err = s.repos.Comment.StreamSubtree(ctx, rootPath, write)
	}

	w.Write([]byte("]"))
	return count, err
}

// Count returns the total number of stored comments
func (s *exportService) Count(ctx context.Context) (int, error) {
	return s.repos.Comment.Count(ctx)
}
