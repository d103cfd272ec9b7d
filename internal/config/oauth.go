package config

import (
	"errors"
	"net/http"

	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"go.uber.org/zap"
)

// InitOAuthProviders wires gothic to a cookie session store and registers the
// identity providers that have credentials. Returns false when none is usable.
func InitOAuthProviders(cfg *Config, log *zap.Logger) bool {
	if cfg.SessionSecret == "" {
		log.Warn("SESSION_SECRET missing, OAuth login disabled")
		return false
	}

	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.MaxAge(86400 * 30)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 30,
		HttpOnly: true,
		Secure:   cfg.Env == "production",
		SameSite: http.SameSiteLaxMode,
	}
	gothic.Store = store

	gothic.GetProviderName = func(req *http.Request) (string, error) {
		if provider := req.URL.Query().Get("provider"); provider != "" {
			return provider, nil
		}
		if provider := req.FormValue("provider"); provider != "" {
			return provider, nil
		}
		return "", errors.New("provider not found")
	}

	if cfg.OAuth.GoogleClientID == "" || cfg.OAuth.GoogleClientSecret == "" {
		log.Warn("no OAuth provider configured")
		return false
	}

	goth.UseProviders(google.New(
		cfg.OAuth.GoogleClientID,
		cfg.OAuth.GoogleClientSecret,
		cfg.BaseURL+"/api/auth/google/callback",
		"email", "profile",
	))
	log.Info("Google OAuth enabled")
	return true
}
