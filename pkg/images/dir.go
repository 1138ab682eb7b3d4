package images

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirStore keeps images as files in a single directory.
type DirStore struct {
	root string
}

var _ Store = (*DirStore)(nil)

// NewDirStore creates root if needed.
func NewDirStore(root string) (*DirStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	return &DirStore{root: root}, nil
}

func (s *DirStore) path(filename string) (string, error) {
	name, err := CleanName(filename)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, name), nil
}

func (s *DirStore) Put(_ context.Context, filename string, data []byte, _ string) error {
	p, err := s.path(filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}
	return nil
}

func (s *DirStore) Get(_ context.Context, filename string) (Image, error) {
	p, err := s.path(filename)
	if err != nil {
		return Image{}, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Image{}, ErrNotFound
	}
	if err != nil {
		return Image{}, fmt.Errorf("read image: %w", err)
	}
	return Image{Data: data, ContentType: ContentType(p, data)}, nil
}

func (s *DirStore) Delete(_ context.Context, filename string) error {
	p, err := s.path(filename)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrNotFound
	}
	return err
}

func (s *DirStore) DeleteAll(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return 0, fmt.Errorf("read image dir: %w", err)
	}
	var (
		removed int
		errs    []error
	)
	for _, e := range entries {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if !e.Type().IsRegular() {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, e.Name())); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
