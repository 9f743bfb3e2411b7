package scanner

import (
	"archive/zip"
	"context"
	"strings"
	"sync"

	"dicom-browser/internal/dataset"
	"dicom-browser/internal/index"
	"dicom-browser/internal/logging"
	"dicom-browser/internal/metrics"
)

// entryJob is one archive member handed to the parse workers.
type entryJob struct {
	file *zip.File
}

// scanArchive enumerates a zip archive and parses members from streamed
// reads, never extracting to disk. Failure to open the archive fails the
// whole import; anything indexed before the failure stays in the index.
func (s *Scanner) scanArchive(ctx context.Context, im *Import, ref *index.SourceRef) error {
	zr, err := zip.OpenReader(im.Path)
	if err != nil {
		return &dataset.SourceOpenError{Path: im.Path, Err: err}
	}
	defer zr.Close()

	jobs := make(chan entryJob, s.config.ChannelBuffer)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				s.processEntry(ctx, im, ref, job.file)
			}
		}()
	}

enumerate:
	for _, f := range zr.File {
		select {
		case <-ctx.Done():
			break enumerate
		default:
		}
		if ref.Removed() {
			break enumerate
		}

		if f.FileInfo().IsDir() {
			continue
		}
		if s.config.SkipHidden && hiddenEntry(f.Name) {
			continue
		}

		im.tracker.AddDiscovered(1)
		metrics.FilesDiscovered.Inc()

		select {
		case jobs <- entryJob{file: f}:
		case <-ctx.Done():
			break enumerate
		}
	}

	close(jobs)
	wg.Wait()
	return nil
}

// processEntry parses one archive member from its decompressing reader.
func (s *Scanner) processEntry(ctx context.Context, im *Import, ref *index.SourceRef, f *zip.File) {
	size := int64(f.UncompressedSize64)
	fileRef := dataset.FileRef{Path: im.Path, Entry: f.Name}

	skip := func(err error) {
		im.tracker.FileSkipped(size)
		metrics.FilesSkipped.Inc()
		metrics.BytesProcessed.Add(float64(size))
		logging.Debug("Skipping unreadable entry %s: %v", fileRef, err)
	}

	rc, err := f.Open()
	if err != nil {
		skip(err)
		return
	}
	defer rc.Close()

	ds, err := s.reader.Read(ctx, rc, size, fileRef)
	if err != nil {
		if ctx.Err() != nil && !isUnreadable(err) {
			return
		}
		skip(err)
		return
	}
	ds.Size = size

	s.ingest(im, ref, ds, size)
}

// hiddenEntry reports whether any path segment of an archive member name is
// hidden (leading dot), e.g. macOS "__MACOSX" companions stay visible but
// ".DS_Store" does not.
func hiddenEntry(name string) bool {
	for _, part := range strings.Split(name, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}
