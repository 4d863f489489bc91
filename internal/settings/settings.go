package settings

import (
	"context"
	"strconv"
	"sync"

	"github.com/GregMSThompson/savvi-sync/internal/dto"
	"github.com/GregMSThompson/savvi-sync/internal/errs"
	"github.com/GregMSThompson/savvi-sync/pkg/logger"
)

const (
	KeyLanguage = "savvi-language"
	KeyCurrency = "savvi-currency"
	KeyDarkMode = "savvi-darkmode"
)

type Language string

const (
	English    Language = "en"
	Indonesian Language = "id"
)

func (l Language) Valid() bool { return l == English || l == Indonesian }

type Settings struct {
	Language Language `json:"language"`
	Currency Currency `json:"currency"`
	DarkMode bool     `json:"darkMode"`
}

func Defaults() Settings {
	return Settings{Language: English, Currency: USD, DarkMode: true}
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}

// Store holds the user's display preferences. It has no dependency on the
// session or the remote store.
type Store struct {
	kv kvStore

	mu      sync.RWMutex
	current Settings
}

// New loads persisted values over the defaults. Unknown or unreadable values
// are skipped.
func New(ctx context.Context, kv kvStore) *Store {
	log := logger.FromContext(ctx)
	s := &Store{kv: kv, current: Defaults()}

	if v, ok := s.read(ctx, KeyLanguage); ok {
		if l := Language(v); l.Valid() {
			s.current.Language = l
		} else {
			log.Warn("ignoring persisted language", "value", v)
		}
	}
	if v, ok := s.read(ctx, KeyCurrency); ok {
		if c := Currency(v); c.Valid() {
			s.current.Currency = c
		} else {
			log.Warn("ignoring persisted currency", "value", v)
		}
	}
	if v, ok := s.read(ctx, KeyDarkMode); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.current.DarkMode = b
		}
	}
	return s
}

func (s *Store) read(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		logger.FromContext(ctx).Warn("failed to read setting", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

func (s *Store) Get() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

func (s *Store) SetLanguage(ctx context.Context, l Language) error {
	if !l.Valid() {
		return errs.NewValidationError("unsupported language: " + string(l))
	}
	if err := s.kv.Set(ctx, KeyLanguage, string(l)); err != nil {
		return errs.NewDatabaseError("update", "failed to save language", err)
	}
	s.mu.Lock()
	s.current.Language = l
	s.mu.Unlock()
	return nil
}

func (s *Store) SetCurrency(ctx context.Context, c Currency) error {
	if !c.Valid() {
		return errs.NewValidationError("unsupported currency: " + string(c))
	}
	if err := s.kv.Set(ctx, KeyCurrency, string(c)); err != nil {
		return errs.NewDatabaseError("update", "failed to save currency", err)
	}
	s.mu.Lock()
	s.current.Currency = c
	s.mu.Unlock()
	return nil
}

func (s *Store) SetDarkMode(ctx context.Context, on bool) error {
	if err := s.kv.Set(ctx, KeyDarkMode, strconv.FormatBool(on)); err != nil {
		return errs.NewDatabaseError("update", "failed to save dark mode", err)
	}
	s.mu.Lock()
	s.current.DarkMode = on
	s.mu.Unlock()
	return nil
}

// ToggleDarkMode flips dark mode and returns the new value.
func (s *Store) ToggleDarkMode(ctx context.Context) (bool, error) {
	next := !s.Get().DarkMode
	return next, s.SetDarkMode(ctx, next)
}

// Apply validates the whole update before persisting any of it.
func (s *Store) Apply(ctx context.Context, req dto.SettingsUpdate) (Settings, error) {
	if req.Language != nil && !Language(*req.Language).Valid() {
		return s.Get(), errs.NewValidationError("unsupported language: " + *req.Language)
	}
	if req.Currency != nil && !Currency(*req.Currency).Valid() {
		return s.Get(), errs.NewValidationError("unsupported currency: " + *req.Currency)
	}

	if req.Language != nil {
		if err := s.SetLanguage(ctx, Language(*req.Language)); err != nil {
			return s.Get(), err
		}
	}
	if req.Currency != nil {
		if err := s.SetCurrency(ctx, Currency(*req.Currency)); err != nil {
			return s.Get(), err
		}
	}
	if req.DarkMode != nil {
		if err := s.SetDarkMode(ctx, *req.DarkMode); err != nil {
			return s.Get(), err
		}
	}
	return s.Get(), nil
}

// FormatCurrency formats amount in the current currency and language.
func (s *Store) FormatCurrency(amount float64, showSymbol bool) string {
	cur := s.Get()
	return FormatAmount(amount, cur.Currency, cur.Language, showSymbol)
}
