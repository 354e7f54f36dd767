package asset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/bilgisen/s13core/internal/logger"
	"github.com/bilgisen/s13core/internal/models"
	"github.com/bilgisen/s13core/internal/storage"
	"github.com/bilgisen/s13core/internal/utils"
)

var ErrTooLarge = errors.New("file exceeds the maximum upload size")

// Upload is a file received from a form or downloaded by the collector.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// Service manages file assets together with their stored files.
type Service struct {
	repo    *Repository
	backend storage.Backend
	maxSize int64
}

func NewService(repo *Repository, backend storage.Backend, maxSize int64) *Service {
	return &Service{repo: repo, backend: backend, maxSize: maxSize}
}

func (s *Service) Repository() *Repository {
	return s.repo
}

func (s *Service) store(ctx context.Context, up Upload) (string, int64, error) {
	key := storage.NewKey(up.Filename)
	body := up.Body
	if s.maxSize > 0 {
		body = io.LimitReader(up.Body, s.maxSize+1)
	}
	n, err := s.backend.Save(ctx, key, body, up.ContentType)
	if err != nil {
		return "", 0, err
	}
	if s.maxSize > 0 && n > s.maxSize {
		s.backend.Delete(ctx, key)
		return "", 0, ErrTooLarge
	}
	return key, n, nil
}

// Create stores the upload and records f for it.
func (s *Service) Create(ctx context.Context, f *models.FileAsset, up Upload) error {
	key, n, err := s.store(ctx, up)
	if err != nil {
		return fmt.Errorf("store %s: %w", up.Filename, err)
	}
	f.MediaFile = key
	f.Size = n
	if f.Title == "" {
		f.Title = up.Filename
	}
	if err := s.repo.Save(ctx, f); err != nil {
		s.backend.Delete(ctx, key)
		return err
	}
	return nil
}

// Update saves f, replacing its stored file when up is not nil.
func (s *Service) Update(ctx context.Context, f *models.FileAsset, up *Upload) error {
	if up == nil {
		return s.repo.Save(ctx, f)
	}
	old := f.MediaFile
	key, n, err := s.store(ctx, *up)
	if err != nil {
		return fmt.Errorf("store %s: %w", up.Filename, err)
	}
	f.MediaFile = key
	f.Size = n
	if err := s.repo.Save(ctx, f); err != nil {
		s.backend.Delete(ctx, key)
		return err
	}
	if old != "" && old != key {
		if err := s.backend.Delete(ctx, old); err != nil {
			logger.Get().Warn().Err(err).Str("key", old).Msg("Failed to remove replaced file")
		}
	}
	return nil
}

// Delete removes the asset row and its stored file.
func (s *Service) Delete(ctx context.Context, id int64) error {
	f, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if f.MediaFile != "" {
		if err := s.backend.Delete(ctx, f.MediaFile); err != nil {
			return fmt.Errorf("delete stored file: %w", err)
		}
	}
	return s.repo.Delete(ctx, id)
}

// OnDisk reports whether the stored file exists.
func (s *Service) OnDisk(ctx context.Context, f *models.FileAsset) bool {
	if f.MediaFile == "" {
		return false
	}
	_, err := s.backend.Stat(ctx, f.MediaFile)
	return err == nil
}

// URL returns the public address of the stored file.
func (s *Service) URL(f *models.FileAsset) string {
	if f.MediaFile == "" {
		return ""
	}
	return s.backend.URL(f.MediaFile)
}

// Open streams the stored file behind key.
func (s *Service) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.backend.Open(ctx, key)
}

// ExtensionStat groups the assets sharing one extension.
type ExtensionStat struct {
	Extension    string
	Count        int
	Size         int64
	CountPercent float64
	SizePercent  float64
}

// Stats summarises the stored files for the dashboard.
type Stats struct {
	Total     int
	TotalSize int64
	TotalMB   float64
	Types     []ExtensionStat
	Broken    []*models.FileAsset
}

// Stats measures every asset on the backend, so missing files show up as
// broken.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{Total: len(all)}
	byExt := map[string]*ExtensionStat{}
	for _, f := range all {
		size, err := s.backend.Stat(ctx, f.MediaFile)
		if err != nil {
			if !errors.Is(err, storage.ErrNotExist) {
				return nil, err
			}
			st.Broken = append(st.Broken, f)
			size = 0
		}
		es, ok := byExt[f.Extension]
		if !ok {
			es = &ExtensionStat{Extension: f.Extension}
			byExt[f.Extension] = es
		}
		es.Count++
		es.Size += size
		st.TotalSize += size
	}

	for _, es := range byExt {
		es.CountPercent = utils.Percent(es.Count, st.Total)
		es.SizePercent = utils.Percent(es.Size, st.TotalSize)
		st.Types = append(st.Types, *es)
	}
	sort.Slice(st.Types, func(i, j int) bool {
		if st.Types[i].Count != st.Types[j].Count {
			return st.Types[i].Count > st.Types[j].Count
		}
		return st.Types[i].Extension < st.Types[j].Extension
	})
	st.TotalMB = utils.BytesToMB(st.TotalSize)
	return st, nil
}
