package middleware

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	sessionCookieName = "facegate_session"
	labelCookieName   = "label"
	sessionDuration   = 24 * time.Hour
)

// Session represents an authenticated admin session
type Session struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionManager handles session creation and validation. The same HMAC
// secret also signs the enrollment label cookie.
type SessionManager struct {
	secret   []byte
	sessions map[string]*Session
	mu       sync.RWMutex
}

// NewSessionManager creates a new session manager
func NewSessionManager(secret string) *SessionManager {
	// Use a default secret if none provided (for development)
	if secret == "" {
		secret = "facegate-dev-secret-change-in-production"
	}
	return &SessionManager{
		secret:   []byte(secret),
		sessions: make(map[string]*Session),
	}
}

// CreateSession creates a new session for an authenticated user
func (sm *SessionManager) CreateSession(username string) (*Session, error) {
	idBytes := make([]byte, 32)
	if _, err := rand.Read(idBytes); err != nil {
		return nil, err
	}
	sessionID := base64.URLEncoding.EncodeToString(idBytes)

	session := &Session{
		ID:        sessionID,
		Username:  username,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(sessionDuration),
	}

	sm.mu.Lock()
	sm.sessions[sessionID] = session
	sm.mu.Unlock()

	return session, nil
}

// GetSession retrieves a session by ID
func (sm *SessionManager) GetSession(sessionID string) *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, ok := sm.sessions[sessionID]
	if !ok {
		return nil
	}

	if time.Now().After(session.ExpiresAt) {
		go sm.DeleteSession(sessionID)
		return nil
	}

	return session
}

// DeleteSession removes a session
func (sm *SessionManager) DeleteSession(sessionID string) {
	sm.mu.Lock()
	delete(sm.sessions, sessionID)
	sm.mu.Unlock()
}

// SetSessionCookie sets the session cookie on the response
func (sm *SessionManager) SetSessionCookie(w http.ResponseWriter, session *Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    session.ID + "." + sm.Sign(session.ID),
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production with HTTPS
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionDuration.Seconds()),
	})
}

// ClearSessionCookie removes the session cookie
func (sm *SessionManager) ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
}

// GetSessionFromRequest extracts the session from a request
func (sm *SessionManager) GetSessionFromRequest(r *http.Request) *Session {
	// Try cookie first
	cookie, err := r.Cookie(sessionCookieName)
	if err == nil {
		value, signature, ok := strings.Cut(cookie.Value, ".")
		if ok && sm.Verify(value, signature) {
			if session := sm.GetSession(value); session != nil {
				return session
			}
		}
	}

	// Try Authorization header
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		sessionID := strings.TrimPrefix(authHeader, "Bearer ")
		if session := sm.GetSession(sessionID); session != nil {
			return session
		}
	}

	return nil
}

// SetLabelCookie binds the enrollment label to the client with a signed
// cookie, so the harvest stream cannot claim a different identity.
func (sm *SessionManager) SetLabelCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     labelCookieName,
		Value:    base64.URLEncoding.EncodeToString([]byte(name)) + "." + sm.Sign(name),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(sessionDuration.Seconds()),
	})
}

// LabelFromRequest extracts and verifies the enrollment label cookie.
// Returns false when the cookie is absent, malformed, or forged.
func (sm *SessionManager) LabelFromRequest(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(labelCookieName)
	if err != nil {
		return "", false
	}
	encoded, signature, ok := strings.Cut(cookie.Value, ".")
	if !ok {
		return "", false
	}
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	name := string(raw)
	if !sm.Verify(name, signature) {
		return "", false
	}
	return name, true
}

// Sign creates an HMAC signature for data
func (sm *SessionManager) Sign(data string) string {
	h := hmac.New(sha256.New, sm.secret)
	h.Write([]byte(data))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// Verify checks an HMAC signature produced by Sign
func (sm *SessionManager) Verify(data, signature string) bool {
	expected := sm.Sign(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
