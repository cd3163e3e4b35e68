package shader

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// LoadSources reads every shader file concurrently on a worker pool so disk I/O stays off the
// render thread. All extensions are validated before any file is read. Sources come back in
// the order of paths.
//
// Parameters:
//   - paths: the shader files to read
//   - workers: the maximum number of concurrent readers (values < 1 mean 1)
//
// Returns:
//   - []Source: the loaded sources, nil on error
//   - error: the first *UnknownStageError, or every read error joined
func LoadSources(paths []string, workers int) ([]Source, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	types := make([]ShaderType, len(paths))
	for i, path := range paths {
		t, err := ShaderTypeFromPath(path)
		if err != nil {
			return nil, err
		}
		types[i] = t
	}

	// Queue sized to hold every path so SubmitTask never waits on a busy worker.
	pool := worker.NewDynamicWorkerPool(max(workers, 1), len(paths), 1*time.Second)

	sources := make([]Source, len(paths))
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()
				data, err := os.ReadFile(path)
				if err != nil {
					errs[i] = fmt.Errorf("shader: failed to read source file %q: %w", path, err)
					return nil, errs[i]
				}
				sources[i] = Source{Path: path, Type: types[i], Text: string(data)}
				return nil, nil
			},
		})
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return sources, nil
}
