// Package middleware содержит HTTP middleware витрины.
package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/dosirak-shop/internal/session"
)

type contextKey string

const sessionKey contextKey = "session"

const sessionCookieName = "dosirak_session"

// SessionMiddleware привязывает запрос к сессии браузера по подписанному cookie.
// Браузер без действительного cookie получает новую анонимную сессию.
type SessionMiddleware struct {
	secretKey []byte
	sessions  *session.Manager
	logger    *zap.Logger
}

// NewSessionMiddleware создаёт middleware сессий. Пустой secret заменяется
// случайным ключом: cookie перестают быть действительными после перезапуска,
// как и сами сессии.
func NewSessionMiddleware(secret string, sessions *session.Manager, logger *zap.Logger) *SessionMiddleware {
	key := []byte(secret)
	if len(key) == 0 {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err == nil {
			key = randomKey
		} else {
			key = []byte("default-secret-key")
		}
	}

	return &SessionMiddleware{
		secretKey: key,
		sessions:  sessions,
		logger:    logger,
	}
}

// Middleware находит или создаёт сессию и кладёт её в контекст запроса.
func (m *SessionMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess *session.Session
		if cookie, err := r.Cookie(sessionCookieName); err == nil {
			if id, ok := m.parseCookie(cookie.Value); ok {
				sess, _ = m.sessions.Get(id)
			}
		}

		if sess == nil {
			sess = m.sessions.Create()
			m.setCookie(w, sess.ID)
			m.logger.Debug("session created", zap.String("session", sess.ID))
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (m *SessionMiddleware) setCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    m.sign(id),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (m *SessionMiddleware) sign(id string) string {
	mac := hmac.New(sha256.New, m.secretKey)
	mac.Write([]byte(id))
	return id + "." + hex.EncodeToString(mac.Sum(nil))
}

func (m *SessionMiddleware) parseCookie(value string) (string, bool) {
	id, signature, ok := strings.Cut(value, ".")
	if !ok || id == "" {
		return "", false
	}

	expected := m.sign(id)
	_, expectedSig, _ := strings.Cut(expected, ".")
	if !hmac.Equal([]byte(signature), []byte(expectedSig)) {
		return "", false
	}
	return id, true
}

// SessionFromContext извлекает сессию из контекста запроса.
func SessionFromContext(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(sessionKey).(*session.Session)
	return s, ok
}

// WithSession кладёт сессию в контекст.
func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// RequireAdmin пропускает только запросы сессии администратора.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := SessionFromContext(r.Context())
		if !ok {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		sess.Lock()
		isAdmin := sess.IsAdmin()
		sess.Unlock()

		if !isAdmin {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
