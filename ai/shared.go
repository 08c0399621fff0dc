package ai

import "sync"

// A single loaded embedding model is shared by every per-user collection
// in the process. Initialization is lazy and guarded so that concurrent
// first uses load the model exactly once.
var (
	sharedMu   sync.Mutex
	sharedEmb  Embedder
	sharedErr  error
	sharedInit bool
)

// SharedEmbedder returns the process-wide embedder, creating it with
// factory on first use. Later calls ignore factory and return the same
// instance (or the original construction error).
func SharedEmbedder(factory func() (Embedder, error)) (Embedder, error) {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	if !sharedInit {
		sharedEmb, sharedErr = factory()
		sharedInit = true
	}
	return sharedEmb, sharedErr
}

// ResetSharedEmbedder clears the process-wide embedder so the next
// SharedEmbedder call constructs a fresh one. Intended for tests.
func ResetSharedEmbedder() {
	sharedMu.Lock()
	defer sharedMu.Unlock()
	sharedEmb = nil
	sharedErr = nil
	sharedInit = false
}
