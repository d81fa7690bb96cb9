// Package iocache is for caching artifact retrievals and tracking review runs.
package iocache

import (
	"sync"

	"github.com/huangsam/patchrisk/internal/contract"
)

// CacheStoreManager manages the artifact cache and the review tracking store.
type CacheStoreManager struct {
	sync.RWMutex // Protects the store pointers during initialization
	artifacts    contract.CacheStore
	analysis     contract.AnalysisStore
}

var _ contract.CacheManager = &CacheStoreManager{} // Compile-time check

// GetArtifactStore returns the artifact CacheStore.
func (mgr *CacheStoreManager) GetArtifactStore() contract.CacheStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.artifacts
}

// GetAnalysisStore returns the review tracking AnalysisStore.
func (mgr *CacheStoreManager) GetAnalysisStore() contract.AnalysisStore {
	mgr.RLock()
	defer mgr.RUnlock()
	return mgr.analysis
}
