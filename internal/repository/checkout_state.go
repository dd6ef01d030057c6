package repository

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"portal-billing/internal/checkout"
	"portal-billing/internal/model"
)

// checkoutStateStore is a checkout.Store persisted in the relational store,
// one row per session. Plain writes are last-write-wins; CompareAndSwap uses
// the row version so the recovery claim stays atomic across processes.
type checkoutStateStore struct {
	db        *gorm.DB
	sessionID string
}

// NewCheckoutStateStore opens the persisted store for one session.
func NewCheckoutStateStore(db *gorm.DB, sessionID string) checkout.Store {
	return &checkoutStateStore{db: db, sessionID: sessionID}
}

func (s *checkoutStateStore) load() (map[string]string, int64) {
	var state model.CheckoutState
	err := s.db.Where("session_id = ?", s.sessionID).First(&state).Error
	if err != nil {
		return map[string]string{}, 0
	}

	data := map[string]string{}
	if state.Data != "" {
		// A corrupt row reads as empty rather than failing the checkout.
		if err := json.Unmarshal([]byte(state.Data), &data); err != nil {
			data = map[string]string{}
		}
	}
	return data, state.Version
}

func (s *checkoutStateStore) save(data map[string]string, fromVersion int64) bool {
	raw, err := json.Marshal(data)
	if err != nil {
		return false
	}

	if fromVersion == 0 {
		state := model.CheckoutState{
			SessionID: s.sessionID,
			Data:      string(raw),
			Version:   1,
			UpdatedAt: time.Now(),
		}
		if err := s.db.Create(&state).Error; err == nil {
			return true
		}
		// Row appeared concurrently; fall through to the guarded update.
		fromVersion = 0
	}

	result := s.db.Model(&model.CheckoutState{}).
		Where("session_id = ? AND version = ?", s.sessionID, fromVersion).
		Updates(map[string]interface{}{
			"data":       string(raw),
			"version":    fromVersion + 1,
			"updated_at": time.Now(),
		})
	return result.Error == nil && result.RowsAffected > 0
}

func (s *checkoutStateStore) Get(key string) (string, bool) {
	data, _ := s.load()
	v, ok := data[key]
	return v, ok
}

func (s *checkoutStateStore) Set(key, value string) {
	for i := 0; i < 3; i++ {
		data, version := s.load()
		data[key] = value
		if s.save(data, version) {
			return
		}
	}
}

func (s *checkoutStateStore) Delete(key string) {
	for i := 0; i < 3; i++ {
		data, version := s.load()
		if _, ok := data[key]; !ok {
			return
		}
		delete(data, key)
		if s.save(data, version) {
			return
		}
	}
}

func (s *checkoutStateStore) CompareAndSwap(key, old, new string) bool {
	data, version := s.load()
	if data[key] != old {
		return false
	}
	data[key] = new
	return s.save(data, version)
}

func (s *checkoutStateStore) Clear() {
	err := s.db.Where("session_id = ?", s.sessionID).Delete(&model.CheckoutState{}).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return
	}
}
