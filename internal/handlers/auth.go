package handlers

import (
	"crypto/sha512"
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	appmiddleware "github.com/BorisDmv/vignettes/internal/middleware"
)

const tokenTTL = 24 * time.Hour

// Auth issues and checks tokens for the single author account.
type Auth struct {
	secret   []byte
	username string
	password [sha512.Size]byte
	now      func() time.Time
}

func NewAuth(secret, username, password string) *Auth {
	return &Auth{
		secret:   []byte(secret),
		username: username,
		password: sha512.Sum512([]byte(password)),
		now:      time.Now,
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

func (a *Auth) checkCredentials(username, password string) bool {
	hash := sha512.Sum512([]byte(password))
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	passOK := subtle.ConstantTimeCompare(hash[:], a.password[:]) == 1
	return userOK && passOK
}

// Login checks the author's credentials and returns a JWT.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	if len(a.secret) == 0 {
		respondError(w, http.StatusInternalServerError, "JWT secret not set")
		return
	}
	var req LoginRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password required")
		return
	}
	if !a.checkCredentials(req.Username, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": req.Username,
		"exp": a.now().Add(tokenTTL).Unix(),
	})
	tokenString, err := token.SignedString(a.secret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "token error")
		return
	}
	respondJSON(w, http.StatusOK, LoginResponse{Token: tokenString})
}

// JWTAuth only admits requests carrying a token from Login.
func (a *Auth) JWTAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(a.secret) == 0 {
			respondError(w, http.StatusInternalServerError, "server auth misconfigured")
			return
		}
		raw, ok := appmiddleware.BearerToken(r)
		if !ok {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
			return a.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(a.now))
		if err != nil || !token.Valid {
			respondError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
