package iostore

import (
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/contract"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/schema"
)

// MockStoreManager is a mock implementation of StoreManager for testing.
type MockStoreManager struct {
	mock.Mock
}

var _ contract.StoreManager = &MockStoreManager{} // Compile-time check

// GetPipelineStore implements the StoreManager interface.
func (m *MockStoreManager) GetPipelineStore() contract.Store {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.Store)
	return store
}

// GetRunHistoryStore implements the StoreManager interface.
func (m *MockStoreManager) GetRunHistoryStore() contract.RunHistoryStore {
	ret := m.Called()
	store, _ := ret.Get(0).(contract.RunHistoryStore)
	return store
}

// MockStore is a mock implementation of Store for testing.
type MockStore struct {
	mock.Mock
}

var _ contract.Store = &MockStore{} // Compile-time check

// Get implements the Store interface.
func (m *MockStore) Get(key string) ([]byte, int, int64, error) {
	args := m.Called(key)
	return args.Get(0).([]byte), args.Int(1), args.Get(2).(int64), args.Error(3)
}

// Set implements the Store interface.
func (m *MockStore) Set(key string, data []byte, version int, ts int64) error {
	args := m.Called(key, data, version, ts)
	return args.Error(0)
}

// Clear implements the Store interface.
func (m *MockStore) Clear() error {
	args := m.Called()
	return args.Error(0)
}

// GetStatus implements the Store interface.
func (m *MockStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.StoreStatus), args.Error(1)
}

// Close implements the Store interface.
func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRunHistoryStore is a mock implementation of RunHistoryStore for testing.
type MockRunHistoryStore struct {
	mock.Mock
}

var _ contract.RunHistoryStore = &MockRunHistoryStore{} // Compile-time check

// BeginRun implements the RunHistoryStore interface.
func (m *MockRunHistoryStore) BeginRun(startTime time.Time, params map[string]any) (int64, error) {
	args := m.Called(startTime, params)
	return args.Get(0).(int64), args.Error(1)
}

// EndRun implements the RunHistoryStore interface.
func (m *MockRunHistoryStore) EndRun(runID int64, endTime time.Time, stage schema.Stage, flagCount int) error {
	args := m.Called(runID, endTime, stage, flagCount)
	return args.Error(0)
}

// GetStatus implements the RunHistoryStore interface.
func (m *MockRunHistoryStore) GetStatus() (schema.HistoryStatus, error) {
	args := m.Called()
	return args.Get(0).(schema.HistoryStatus), args.Error(1)
}

// GetAllRuns implements the RunHistoryStore interface.
func (m *MockRunHistoryStore) GetAllRuns() ([]schema.RunRecord, error) {
	args := m.Called()
	runs, _ := args.Get(0).([]schema.RunRecord)
	return runs, args.Error(1)
}

// Close implements the RunHistoryStore interface.
func (m *MockRunHistoryStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
