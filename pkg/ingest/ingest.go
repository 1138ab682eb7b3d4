// Package ingest turns uploaded images into stored upload records.
//
// The pipeline for one image is: validate, store the image, recognize its
// text once, store the record. ImportFiles runs the same pipeline over files
// on disk using a WorkerPool.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/japaniel/creamy/pkg/images"
	"github.com/japaniel/creamy/pkg/ocr"
	"github.com/japaniel/creamy/pkg/upload"
)

var (
	// ErrNoImage is returned when the request carried no image bytes.
	ErrNoImage = errors.New("no image uploaded")
	// ErrInvalidFilename is returned when the filename reduces to nothing usable.
	ErrInvalidFilename = errors.New("invalid filename")
	// ErrOCRFailed wraps an OCR engine failure under the fail policy.
	ErrOCRFailed = errors.New("ocr failed")
	// ErrNotProcessed marks import files that were never picked up.
	ErrNotProcessed = errors.New("not processed")
)

// OCRFailurePolicy decides what happens when text recognition fails.
type OCRFailurePolicy string

const (
	// OnOCRFailureFail aborts the upload. The image stays stored, no record is written.
	OnOCRFailureFail OCRFailurePolicy = "fail"
	// OnOCRFailureStoreEmpty records the upload with empty text.
	OnOCRFailureStoreEmpty OCRFailurePolicy = "store_empty"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// Ingester runs OCR on images and stores the results.
type Ingester struct {
	Uploads   upload.Store
	Images    images.Store
	OCR       ocr.Engine
	Language  string
	OnFailure OCRFailurePolicy
	Logger    *slog.Logger

	// OnProgress is called after each imported file with the number done and the total.
	OnProgress func(done, total int)

	// Concurrency settings for ImportFiles.
	Workers int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates a new Ingester recognizing German with the fail policy.
func NewIngester(uploads upload.Store, imgs images.Store, engine ocr.Engine) *Ingester {
	return &Ingester{
		Uploads:   uploads,
		Images:    imgs,
		OCR:       engine,
		Language:  ocr.German,
		OnFailure: OnOCRFailureFail,
		Logger:    slog.Default(),
		Workers:   4,
	}
}

// Result is the outcome of ingesting one image.
type Result struct {
	Filename string
	Record   upload.Record
	// Err is only set by ImportFiles.
	Err error
}

// Text is the recognized text.
func (r Result) Text() string { return r.Record.Text }

func (ig *Ingester) logger() *slog.Logger {
	if ig.Logger == nil {
		return slog.Default()
	}
	return ig.Logger
}

// Ingest stores image under filename, recognizes its text and records the upload.
func (ig *Ingester) Ingest(ctx context.Context, filename string, image []byte) (Result, error) {
	if len(image) == 0 {
		return Result{}, ErrNoImage
	}
	name, err := images.CleanName(filename)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidFilename, err)
	}

	if err := ig.Images.Put(ctx, name, image, images.ContentType(name, image)); err != nil {
		return Result{}, fmt.Errorf("store image %s: %w", name, err)
	}

	text, err := ig.OCR.Recognize(ctx, image, ig.Language)
	if err != nil {
		if ig.OnFailure != OnOCRFailureStoreEmpty {
			return Result{}, fmt.Errorf("%w: %s: %v", ErrOCRFailed, name, err)
		}
		ig.logger().WarnContext(ctx, "ocr failed, storing empty text", "filename", name, "error", err)
		text = ""
	}

	rec, err := ig.Uploads.Create(ctx, text, name)
	if err != nil {
		return Result{}, fmt.Errorf("store upload %s: %w", name, err)
	}
	ig.logger().InfoContext(ctx, "image ingested", "filename", name, "id", rec.ID, "chars", len(text))
	return Result{Filename: name, Record: rec}, nil
}

// ImportFiles ingests image files from disk concurrently. Results are in
// the order of paths and each carries its own error. The returned error is
// only set when jobs could not be scheduled.
func (ig *Ingester) ImportFiles(ctx context.Context, paths []string) ([]Result, error) {
	results := make([]Result, len(paths))
	for i, p := range paths {
		results[i] = Result{Filename: filepath.Base(p), Err: ErrNotProcessed}
	}
	if len(paths) == 0 {
		return results, nil
	}

	workers := ig.Workers
	if workers <= 0 {
		workers = 1
	}
	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	wp.Start(ctx)

	var done int64
	total := len(paths)
	var submitErr error
	for i, p := range paths {
		idx, path := i, p
		job := func(ctx context.Context) error {
			res := ig.importFile(ctx, path)
			results[idx] = res
			n := atomic.AddInt64(&done, 1)
			if ig.OnProgress != nil {
				ig.OnProgress(int(n), total)
			}
			return res.Err
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			submitErr = fmt.Errorf("submit import of %s: %w", path, err)
			cancel()
			break
		}
	}

	// Close waits for running jobs, so results are complete afterwards.
	wp.Close()
	return results, submitErr
}

func (ig *Ingester) importFile(ctx context.Context, path string) Result {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{Filename: filepath.Base(path), Err: fmt.Errorf("read %s: %w", path, err)}
	}
	res, err := ig.Ingest(ctx, filepath.Base(path), data)
	if err != nil {
		ig.logger().WarnContext(ctx, "import failed", "path", path, "error", err)
		return Result{Filename: filepath.Base(path), Err: err}
	}
	return res
}
