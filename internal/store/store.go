// Package store persists user-selected opportunities, favorites, settings
// and price history as one versioned JSON document. Every mutating call
// persists synchronously before returning; persistence is best-effort and a
// failed write is logged, never returned.
package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"profitmaker/internal/model"
)

// CurrentVersion is the schema version written by this build. Documents
// loaded with an older version pass through migrate.
const CurrentVersion = 2

const historyCap = 100

// Kind selects one of the saved-opportunity collections.
type Kind string

const (
	KindFlips  Kind = "flips"
	KindCrafts Kind = "crafts"
)

// Document is the persisted snapshot schema.
type Document struct {
	Version      int                                      `json:"version"`
	SavedFlips   []model.SavedFlip                        `json:"savedFlips"`
	SavedCrafts  []model.SavedCraft                       `json:"savedCrafts"`
	Favorites    []string                                 `json:"favorites"`
	Settings     model.Settings                           `json:"settings"`
	LastUpdate   *time.Time                               `json:"lastUpdate"`
	PriceHistory map[string]map[string][]model.PricePoint `json:"priceHistory"`
	UserStats    model.UserStats                          `json:"userStats"`
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	TaxRatePercent        *float64 `json:"taxRatePercent"`
	AssumePremium         *bool    `json:"assumePremium"`
	UpdateIntervalMinutes *int     `json:"updateIntervalMinutes"`
}

// Store owns the snapshot document and its file on disk.
type Store struct {
	logger   *slog.Logger
	path     string
	defaults model.Settings

	mu  sync.Mutex
	doc Document

	now   func() time.Time
	newID func() string
}

// New loads the snapshot from path, falling back to a fresh default document
// when the file is absent or unreadable. defaults seeds the settings of a
// fresh document.
func New(logger *slog.Logger, path string, defaults model.Settings) *Store {
	s := &Store{
		logger:   logger,
		path:     path,
		defaults: defaults,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
	s.doc = s.load()
	return s
}

func (s *Store) load() Document {
	doc := s.defaultDocument()
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("snapshot unreadable, starting fresh", "path", s.path, "error", err)
		}
		return doc
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("snapshot malformed, starting fresh", "path", s.path, "error", err)
		return s.defaultDocument()
	}
	return s.migrate(doc)
}

func (s *Store) defaultDocument() Document {
	return Document{
		Version:      CurrentVersion,
		SavedFlips:   []model.SavedFlip{},
		SavedCrafts:  []model.SavedCraft{},
		Favorites:    []string{},
		Settings:     s.defaults,
		PriceHistory: map[string]map[string][]model.PricePoint{},
	}
}

// migrate upgrades a document written by an older build. Version 0/1
// documents predate price history and user stats; missing collections are
// initialised and the version is bumped. Normalization runs on every load so
// explicit nulls in an import can never leave a nil collection behind.
func (s *Store) migrate(doc Document) Document {
	if doc.Version < CurrentVersion {
		s.logger.Info("migrating snapshot", "from", doc.Version, "to", CurrentVersion)
		if doc.Settings == (model.Settings{}) {
			doc.Settings = s.defaults
		}
		doc.Version = CurrentVersion
	}
	if doc.SavedFlips == nil {
		doc.SavedFlips = []model.SavedFlip{}
	}
	if doc.SavedCrafts == nil {
		doc.SavedCrafts = []model.SavedCraft{}
	}
	if doc.Favorites == nil {
		doc.Favorites = []string{}
	}
	if doc.PriceHistory == nil {
		doc.PriceHistory = map[string]map[string][]model.PricePoint{}
	}
	return doc
}

// persistLocked writes the document to disk. Callers hold s.mu.
func (s *Store) persistLocked() {
	now := s.now()
	s.doc.LastUpdate = &now
	raw, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		s.logger.Error("failed to marshal snapshot", "error", err)
		return
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		s.logger.Error("failed to persist snapshot", "path", s.path, "error", err)
	}
}

// SaveFlip stores a flip opportunity. A flip sharing (itemID, buyCity,
// sellCity) with an existing entry replaces it in place with an incremented
// update counter and refreshed timestamp; otherwise a new entry is appended.
func (s *Store) SaveFlip(flip model.FlipOpportunity) model.SavedFlip {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, existing := range s.doc.SavedFlips {
		e := existing.Flip
		if e.ItemID == flip.ItemID && e.BuyCity == flip.BuyCity && e.SellCity == flip.SellCity {
			s.doc.SavedFlips[i].Flip = flip
			s.doc.SavedFlips[i].SavedAt = s.now()
			s.doc.SavedFlips[i].TimesUpdated++
			s.persistLocked()
			return s.doc.SavedFlips[i]
		}
	}

	saved := model.SavedFlip{
		ID:           s.newID(),
		Flip:         flip,
		SavedAt:      s.now(),
		TimesUpdated: 1,
	}
	s.doc.SavedFlips = append(s.doc.SavedFlips, saved)
	s.persistLocked()
	return saved
}

// SaveCraft stores a recipe with its profit figures. Crafts always append.
func (s *Store) SaveCraft(recipe model.Recipe, profit model.CraftingProfitResult) model.SavedCraft {
	s.mu.Lock()
	defer s.mu.Unlock()

	saved := model.SavedCraft{
		ID:      s.newID(),
		Recipe:  recipe,
		Profit:  profit,
		SavedAt: s.now(),
	}
	s.doc.SavedCrafts = append(s.doc.SavedCrafts, saved)
	s.persistLocked()
	return saved
}

// Remove deletes one saved entry by kind and id, reporting whether it existed.
func (s *Store) Remove(kind Kind, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case KindFlips:
		for i, f := range s.doc.SavedFlips {
			if f.ID == id {
				s.doc.SavedFlips = append(s.doc.SavedFlips[:i], s.doc.SavedFlips[i+1:]...)
				s.persistLocked()
				return true
			}
		}
	case KindCrafts:
		for i, c := range s.doc.SavedCrafts {
			if c.ID == id {
				s.doc.SavedCrafts = append(s.doc.SavedCrafts[:i], s.doc.SavedCrafts[i+1:]...)
				s.persistLocked()
				return true
			}
		}
	}
	return false
}

// SavedFlips returns a copy of the saved flips.
func (s *Store) SavedFlips() []model.SavedFlip {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SavedFlip, len(s.doc.SavedFlips))
	copy(out, s.doc.SavedFlips)
	return out
}

// SavedCrafts returns a copy of the saved crafts.
func (s *Store) SavedCrafts() []model.SavedCraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.SavedCraft, len(s.doc.SavedCrafts))
	copy(out, s.doc.SavedCrafts)
	return out
}

// ToggleFavorite adds or removes an item id from the favorites list,
// returning true when the item is now a favorite.
func (s *Store) ToggleFavorite(itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, fav := range s.doc.Favorites {
		if fav == itemID {
			s.doc.Favorites = append(s.doc.Favorites[:i], s.doc.Favorites[i+1:]...)
			s.persistLocked()
			return false
		}
	}
	s.doc.Favorites = append(s.doc.Favorites, itemID)
	s.persistLocked()
	return true
}

// Favorites returns a copy of the favorite item ids.
func (s *Store) Favorites() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.doc.Favorites))
	copy(out, s.doc.Favorites)
	return out
}

// Settings returns the current settings.
func (s *Store) Settings() model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Settings
}

// UpdateSettings applies a partial update and returns the result.
func (s *Store) UpdateSettings(patch SettingsPatch) model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.TaxRatePercent != nil {
		s.doc.Settings.TaxRatePercent = *patch.TaxRatePercent
	}
	if patch.AssumePremium != nil {
		s.doc.Settings.AssumePremium = *patch.AssumePremium
	}
	if patch.UpdateIntervalMinutes != nil {
		s.doc.Settings.UpdateIntervalMinutes = *patch.UpdateIntervalMinutes
	}
	s.persistLocked()
	return s.doc.Settings
}

// RecordPrice appends one observation to the price history for an item in a
// city, keeping at most the 100 most recent points.
func (s *Store) RecordPrice(itemID, city string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byCity, ok := s.doc.PriceHistory[itemID]
	if !ok {
		byCity = map[string][]model.PricePoint{}
		s.doc.PriceHistory[itemID] = byCity
	}
	points := append(byCity[city], model.PricePoint{Price: price, Timestamp: s.now()})
	if len(points) > historyCap {
		points = points[len(points)-historyCap:]
	}
	byCity[city] = points
	s.persistLocked()
}

// PriceHistory returns the recorded points for an item in a city, oldest first.
func (s *Store) PriceHistory(itemID, city string) []model.PricePoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	points := s.doc.PriceHistory[itemID][city]
	out := make([]model.PricePoint, len(points))
	copy(out, points)
	return out
}

// RecordTradeCompleted folds one completed trade into the user stats.
func (s *Store) RecordTradeCompleted(profit float64) model.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.UserStats.TotalProfit += profit
	s.doc.UserStats.TradesCompleted++
	s.persistLocked()
	return s.doc.UserStats
}

// Stats returns the accumulated user stats.
func (s *Store) Stats() model.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.UserStats
}

// ExportSnapshot serializes the current document.
func (s *Store) ExportSnapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return json.MarshalIndent(s.doc, "", "  ")
}

// ExportFilename names a snapshot download with the current date.
func (s *Store) ExportFilename() string {
	return fmt.Sprintf("profitmaker-%s.json", s.now().Format("2006-01-02"))
}

// ImportSnapshot replaces the current document with the parsed input merged
// over a fresh default document, so fields missing from older exports fall
// back to defaults. Returns false without mutating current state when the
// input does not parse.
func (s *Store) ImportSnapshot(raw []byte) bool {
	doc := s.defaultDocument()
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.logger.Warn("import rejected, snapshot malformed", "error", err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = s.migrate(doc)
	s.persistLocked()
	return true
}

// Clear resets to the default document and persists.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = s.defaultDocument()
	s.persistLocked()
}
