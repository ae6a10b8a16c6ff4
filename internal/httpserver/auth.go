// internal/httpserver/auth.go
//
// Player authentication for the shell API.
// Responsibilities:
//   - Registration (name/password/confirmation) and login handlers.
//   - bcrypt credential hashing and verification.
//   - Short-lived HS256 player tokens proving a participant authenticated
//     before a session is created.
//   - Guest name suggestions for the registration form.

package httpserver

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/idziarhai/crossword/internal/player"
)

type signupReq struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Confirm  string `json:"confirm"`
}

type loginReq struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

// handleSignup validates input, creates the player, and returns a token.
func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var body signupReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(body.Name)
	if err := validateSignup(name, body.Password); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
		return
	}
	if body.Password != body.Confirm {
		http.Error(w, `{"error":"passwords do not match"}`, http.StatusBadRequest)
		return
	}

	hash, err := hashPassword(body.Password)
	if err != nil {
		http.Error(w, `{"error":"hash_failed"}`, http.StatusInternalServerError)
		return
	}
	p, err := s.players.Create(r.Context(), name, hash)
	if err != nil {
		if errors.Is(err, player.ErrNameTaken) {
			http.Error(w, `{"error":"Username taken"}`, http.StatusConflict)
			return
		}
		http.Error(w, `{"error":"db_error"}`, http.StatusInternalServerError)
		return
	}

	tok, err := s.signToken(p.Name)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"token": tok, "name": p.Name, "createdAt": p.CreatedAt})
}

// handleLogin authenticates an existing player and returns a token.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body loginReq
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, `{"error":"invalid_json"}`, http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" || body.Password == "" {
		http.Error(w, `{"error":"please enter both name and password"}`, http.StatusBadRequest)
		return
	}

	p, err := s.players.FindByName(r.Context(), name)
	if err != nil || !checkPassword(p.PasswordHash, body.Password) {
		http.Error(w, `{"error":"Invalid username or password"}`, http.StatusUnauthorized)
		return
	}

	tok, err := s.signToken(p.Name)
	if err != nil {
		http.Error(w, `{"error":"sign_failed"}`, http.StatusInternalServerError)
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"token": tok, "name": p.Name})
}

// handleGuestName suggests a random guest username for the registration
// form.
func (s *Server) handleGuestName(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]string{"name": generateGuestName()})
}

const guestChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func generateGuestName() string {
	suffix := make([]byte, 4)
	for i := range suffix {
		n, _ := rand.Int(rand.Reader, big.NewInt(int64(len(guestChars))))
		suffix[i] = guestChars[n.Int64()]
	}
	return "Guest_" + string(suffix)
}

// ------------------------- credentials & tokens ------------------------

// hashPassword derives a bcrypt hash from the secret. The original game
// stored unsalted SHA-256 digests; bcrypt is a deliberate strengthening of
// that contract.
func hashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

func checkPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// validateSignup enforces basic username/password rules.
func validateSignup(u, p string) error {
	if u == "" || p == "" {
		return errors.New("please enter both name and password")
	}
	if len(u) < 3 || len(u) > 24 {
		return errors.New("username must be 3-24 chars")
	}
	for _, r := range u {
		if !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return errors.New("username: letters, numbers, underscore only")
		}
	}
	if len(p) < 8 || len(p) > 100 {
		return errors.New("password must be 8-100 chars")
	}
	return nil
}

// signToken creates a short-lived HS256 token naming an authenticated
// player.
func (s *Server) signToken(name string) (string, error) {
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": name,
		"exp":  now.Add(s.tokenTTL).Unix(),
		"iat":  now.Unix(),
	})
	return t.SignedString(s.jwtSecret)
}

// verifyToken validates a player token and returns the player name.
func (s *Server) verifyToken(tokenStr string) (string, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid token")
	}
	name, _ := claims["name"].(string)
	if name == "" {
		return "", errors.New("invalid token")
	}
	return name, nil
}

// bearerToken extracts the Authorization bearer token, if any.
func bearerToken(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	return ""
}

// ctxPlayerKey is the context key type for the authenticated player name.
type ctxPlayerKey struct{}

// requireAuth enforces a valid player token and injects the player name
// into request context.
func (s *Server) requireAuth() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tok := bearerToken(r)
			if tok == "" {
				http.Error(w, `{"error":"Unauthorized"}`, http.StatusUnauthorized)
				return
			}
			name, err := s.verifyToken(tok)
			if err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			// Ensure player still exists
			if _, err := s.players.FindByName(r.Context(), name); err != nil {
				http.Error(w, `{"error":"Invalid token"}`, http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(contextWithPlayer(r, name)))
		})
	}
}
