package raster

// BackendBuilderOption is a functional option applied to a backend during construction via NewBackend.
type BackendBuilderOption func(*backend)

// WithWorkers sets the number of worker goroutines used for the per-pixel
// filter loops. When not specified, the default is NumCPU-1 with a minimum
// of one.
//
// Parameters:
//   - n: the worker count; values below one fall back to one
//
// Returns:
//   - BackendBuilderOption: a function that applies the worker count option to a backend
func WithWorkers(n int) BackendBuilderOption {
	return func(b *backend) {
		if n < 1 {
			n = 1
		}
		b.workerCount = n
	}
}
