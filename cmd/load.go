package cmd

import (
	"context"
	"path/filepath"

	"github.com/tracelens/tracelens/internal/trace"
	"github.com/tracelens/tracelens/internal/utils"
)

// loadModel reads a trace archive from disk and runs the ingestion
// pipeline, mapping the failure surface to user-facing errors.
func loadModel(ctx context.Context, path string) (*trace.Model, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	data, err := utils.ReadFile(path)
	if err != nil {
		return nil, utils.NewUserError(
			"Failed to read trace archive",
			"Check that the path exists and is readable",
			err,
		)
	}

	model, err := trace.Load(ctx, data, filepath.Base(path), GetLogger())
	if err != nil {
		if trace.IsCorrupt(err) {
			return nil, utils.NewUserError(
				"The file is not a valid trace archive",
				"Pass the .zip file produced by the recorder, not an extracted directory",
				err,
			)
		}
		return nil, utils.NewUserError("Failed to load trace", "", err)
	}
	return model, nil
}
