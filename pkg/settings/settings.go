package settings

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("settings not found")

// Settings is the per-deployment bot configuration, stored as a singleton
// document. Defaults apply until an admin saves the first version.
type Settings struct {
	Greeting         string    `json:"greeting"`
	FallbackMessage  string    `json:"fallbackMessage"`
	HandoffThreshold int       `json:"handoffThreshold"`
	SystemPrompt     string    `json:"systemPrompt"`
	DefaultProvider  string    `json:"defaultProvider"`
	DefaultModel     string    `json:"defaultModel"`
	AllowedLocales   []string  `json:"allowedLocales"`
	MaxContext       int       `json:"maxContext"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Defaults returns the settings used before an admin saves anything.
func Defaults(defaultProvider, defaultModel string) Settings {
	return Settings{
		Greeting:         "Hi! I'm ThinkThread. Ask me anything.",
		FallbackMessage:  "Sorry, I can't reach the model right now. Please try again in a moment.",
		HandoffThreshold: 2,
		SystemPrompt:     "You are ThinkThread, a helpful and concise assistant.",
		DefaultProvider:  defaultProvider,
		DefaultModel:     defaultModel,
		MaxContext:       20,
	}
}

// LocaleAllowed reports whether a conversation locale passes the allow list.
// An empty list allows any locale.
func (s Settings) LocaleAllowed(locale string) bool {
	if len(s.AllowedLocales) == 0 {
		return true
	}
	for _, l := range s.AllowedLocales {
		if l == locale {
			return true
		}
	}
	return false
}

// Repository is the persistence port for the singleton document.
type Repository interface {
	Get(ctx context.Context) (Settings, error)
	Upsert(ctx context.Context, s Settings) error
}
