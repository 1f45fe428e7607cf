// Package settings loads the per-user tone and persona file and keeps it in memory.
package settings

import (
	"errors"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"chat-relay-backend/internal/models"
)

// Store is a memoized view of the settings file. Lookups never touch disk;
// the file is read once at load time and again only when Watch sees a change.
type Store struct {
	mu       sync.RWMutex
	path     string
	v        *viper.Viper
	validate *validator.Validate
	byPhone  map[string]models.UserSettings
	ordered  []models.UserSettings
}

type file struct {
	Users []models.UserSettings `mapstructure:"users"`
}

// Load reads the JSON settings file at path. A missing file yields an empty
// store so every phone falls back to the defaults.
func Load(path string) (*Store, error) {
	s := &Store{
		path:     path,
		validate: validator.New(),
		byPhone:  map[string]models.UserSettings{},
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Printf("settings: %s not found, using defaults for every user", path)
		return s, nil
	}

	s.v = viper.New()
	s.v.SetConfigFile(path)
	s.v.SetConfigType("json")

	if err := s.reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) reload() error {
	if err := s.v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}

	var f file
	if err := s.v.Unmarshal(&f); err != nil {
		return fmt.Errorf("failed to parse settings file: %w", err)
	}

	byPhone := make(map[string]models.UserSettings, len(f.Users))
	ordered := make([]models.UserSettings, 0, len(f.Users))
	for i, u := range f.Users {
		if err := s.validate.Struct(u); err != nil {
			log.Printf("settings: skipping user entry %d: %v", i, err)
			continue
		}
		// First entry wins, matching a linear scan of the file.
		if _, dup := byPhone[u.Phone]; dup {
			continue
		}
		byPhone[u.Phone] = u
		ordered = append(ordered, u)
	}

	s.mu.Lock()
	s.byPhone = byPhone
	s.ordered = ordered
	s.mu.Unlock()

	log.Printf("settings: loaded %d users from %s", len(ordered), s.path)
	return nil
}

// Watch re-reads the file whenever it changes. A broken edit keeps the
// previously loaded users.
func (s *Store) Watch() {
	if s.v == nil {
		return
	}
	s.v.OnConfigChange(func(e fsnotify.Event) {
		if err := s.reload(); err != nil {
			log.Printf("settings: reload after %s failed, keeping previous users: %v", e.Op, err)
		}
	})
	s.v.WatchConfig()
}

// Lookup returns the tone and persona for phone, or the defaults.
func (s *Store) Lookup(phone string) (tone, persona string) {
	u, ok := s.Get(phone)
	if !ok {
		return models.DefaultTone, models.DefaultPersona
	}
	tone, persona = u.Tone, u.Persona
	if tone == "" {
		tone = models.DefaultTone
	}
	if persona == "" {
		persona = models.DefaultPersona
	}
	return tone, persona
}

func (s *Store) Get(phone string) (models.UserSettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byPhone[phone]
	return u, ok
}

// Users returns every configured user in file order.
func (s *Store) Users() []models.UserSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.UserSettings, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// ByTelegramChat finds the user linked to a Telegram chat id.
func (s *Store) ByTelegramChat(chatID int64) (models.UserSettings, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.ordered {
		if u.TelegramChatID != 0 && u.TelegramChatID == chatID {
			return u, true
		}
	}
	return models.UserSettings{}, false
}
