// Package iostore is for durable pipeline and run history storage.
package iostore

import (
	"sync"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
)

// StoreManagerImpl manages the pipeline and run history store instances.
type StoreManagerImpl struct {
	sync.RWMutex // Protects the store pointers during initialization
	pipeline     contract.Store
	history      contract.RunHistoryStore
}

var _ contract.StoreManager = &StoreManagerImpl{} // Compile-time check

// GetPipelineStore returns the pipeline key-value Store.
func (mgr *StoreManagerImpl) GetPipelineStore() contract.Store {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.pipeline
}

// GetRunHistoryStore returns the RunHistoryStore.
func (mgr *StoreManagerImpl) GetRunHistoryStore() contract.RunHistoryStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.history
}
