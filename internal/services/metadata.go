package services

import (
	"context"
	"fmt"

	"exif-fixer/internal/exifcodec"
	"exif-fixer/internal/metadata"
	"exif-fixer/internal/models"
)

// MetadataService loads a file into a FileRecord and writes corrections back.
type MetadataService struct {
	storage *StorageService
}

func NewMetadataService(storage *StorageService) *MetadataService {
	return &MetadataService{storage: storage}
}

// Load snapshots the file's times, then reads and decodes its EXIF block.
// The snapshot is taken first so reading does not disturb the access time we keep.
func (s *MetadataService) Load(ctx context.Context, filePath string) (*models.FileRecord, error) {
	stat, err := s.storage.Stat(filePath)
	if err != nil {
		return nil, err
	}

	data, err := s.storage.FetchFile(ctx, filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	img, err := exifcodec.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	container, err := img.Container()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}

	return &models.FileRecord{
		Path:  filePath,
		Stat:  stat,
		Image: img,
		View:  metadata.NewView(container),
	}, nil
}

// Persist encodes the record's View into the image and rewrites the file.
// The access time is restored; the modified time becomes the capture time
// when syncModTime is set and is restored otherwise.
func (s *MetadataService) Persist(ctx context.Context, rec *models.FileRecord, syncModTime bool) error {
	if err := rec.Image.SetContainer(rec.View.Encode()); err != nil {
		return fmt.Errorf("%s: %w", rec.Path, err)
	}

	data, err := rec.Image.Bytes()
	if err != nil {
		return fmt.Errorf("%s: %w", rec.Path, err)
	}

	if err := s.storage.WriteFile(ctx, rec.Path, data); err != nil {
		return err
	}

	mtime := rec.Stat.ModTime
	if syncModTime && rec.View.CaptureTime != nil {
		mtime = *rec.View.CaptureTime
	}
	return s.storage.SetTimes(rec.Path, rec.Stat.AccessTime, mtime)
}

// SyncModTime sets the modified time to the capture time without rewriting
// the file. It reports false when there is no capture time to sync to.
func (s *MetadataService) SyncModTime(rec *models.FileRecord) (bool, error) {
	if rec.View.CaptureTime == nil {
		return false, nil
	}
	if err := s.storage.SetTimes(rec.Path, rec.Stat.AccessTime, *rec.View.CaptureTime); err != nil {
		return false, err
	}
	return true, nil
}
