package screenshots

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/bitrise-io/go-utils/v2/pathutil"
	"github.com/bitrise-steplib/steps-spira-test-report/filesystem"
	"github.com/bitrise-steplib/steps-spira-test-report/spira"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency ...
const DefaultConcurrency = 4

// Uploader attaches the screenshots captured for a test source file to a test run.
type Uploader interface {
	Upload(ctx context.Context, sourceFile string, testRunID int) (Result, error)
}

// Result ...
type Result struct {
	Dir      string
	Found    bool
	Uploaded int
	Failed   int
}

// Config ...
type Config struct {
	// Root holds one screenshot directory per test source file, named after the file.
	Root        string
	ProjectID   int
	Concurrency int
}

type uploader struct {
	config      Config
	client      spira.Client
	fileSystem  filesystem.FileSystem
	pathChecker pathutil.PathChecker
	logger      log.Logger
}

// NewUploader ...
func NewUploader(config Config, client spira.Client, fileSystem filesystem.FileSystem, pathChecker pathutil.PathChecker, logger log.Logger) Uploader {
	if config.Concurrency < 1 {
		config.Concurrency = DefaultConcurrency
	}

	return &uploader{
		config:      config,
		client:      client,
		fileSystem:  fileSystem,
		pathChecker: pathChecker,
		logger:      logger,
	}
}

// Dir returns the screenshot directory of a test source file.
func Dir(root, sourceFile string) string {
	return filepath.Join(root, filepath.Base(sourceFile))
}

func (u *uploader) Upload(ctx context.Context, sourceFile string, testRunID int) (Result, error) {
	if sourceFile == "" {
		u.logger.Printf("No test source file recorded for this run, skipping screenshot upload")
		return Result{}, nil
	}

	result := Result{Dir: Dir(u.config.Root, sourceFile)}

	exists, err := u.pathChecker.IsDirExists(result.Dir)
	if err != nil {
		return result, fmt.Errorf("failed to check screenshot directory (%s): %w", result.Dir, err)
	}
	if !exists {
		u.logger.Printf("Unable to find screenshot directory at location: %s", result.Dir)
		return result, nil
	}
	result.Found = true

	entries, err := u.fileSystem.ReadDir(result.Dir)
	if err != nil {
		return result, fmt.Errorf("unable to enumerate directory (%s): %w", result.Dir, err)
	}

	u.logger.Println()
	u.logger.Infof("Uploading screenshots from %s", result.Dir)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(u.config.Concurrency)

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		g.Go(func() error {
			uploaded := u.uploadFile(ctx, filepath.Join(result.Dir, name), name, testRunID)

			mu.Lock()
			defer mu.Unlock()
			if uploaded {
				result.Uploaded++
			} else {
				result.Failed++
			}
			return nil
		})
	}

	// every upload reports its own failure
	_ = g.Wait()

	return result, nil
}

func (u *uploader) uploadFile(ctx context.Context, pth, name string, testRunID int) bool {
	data, err := u.fileSystem.ReadFile(pth)
	if err != nil {
		u.logger.Warnf("Unable to open file: %s, error: %s", pth, err)
		return false
	}

	attachmentID, err := u.client.UploadDocument(ctx, u.config.ProjectID, spira.Document{
		FilenameOrURL: name,
		BinaryData:    base64.StdEncoding.EncodeToString(data),
		AttachedArtifacts: []spira.AttachedArtifact{
			{ArtifactID: testRunID, ArtifactTypeID: spira.ArtifactTypeTestRun},
		},
	})
	if err != nil {
		u.logger.Warnf("Failed to upload screenshot %s: %s", name, err)
		return false
	}

	u.logger.Printf("- %s (attachment %d)", name, attachmentID)
	return true
}
