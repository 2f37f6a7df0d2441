package api

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"platebook/internal/auth"
	"platebook/internal/user"
)

const magicLinkTTL = 15 * time.Minute

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// Signup registers an email/password account and signs the caller in.
func (h *Handler) Signup(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		log.Printf("password hashing error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	u, err := h.UserStore.CreateUser(c.Request.Context(), strings.ToLower(req.Email), &hash)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
			return
		}
		log.Printf("database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.respondWithSession(c, u)
}

// Login signs in an email/password account.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	u, err := h.UserStore.GetUserByEmail(c.Request.Context(), strings.ToLower(req.Email))
	if err != nil {
		log.Printf("database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if u == nil || u.PasswordHash == nil || !auth.CheckPassword(*u.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	h.respondWithSession(c, u)
}

// RequestMagicLink mints a one-time sign-in token for the address. The link
// is written to the server log; there is no mail delivery in this service.
// The response does not reveal whether the address is registered.
func (h *Handler) RequestMagicLink(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	token := uuid.NewString()
	email := strings.ToLower(req.Email)
	err := h.UserStore.CreateMagicLinkToken(c.Request.Context(), email, token, time.Now().Add(magicLinkTTL))
	if err != nil {
		log.Printf("database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	log.Printf("magic link for %s: %s/auth/magic-link/verify?token=%s", email, h.BaseURL, token)

	c.JSON(http.StatusOK, gin.H{"message": "Check your email for the magic link!"})
}

// VerifyMagicLink redeems a one-time token, creating the account if needed,
// and signs the caller in. Tokens work at most once.
func (h *Handler) VerifyMagicLink(c *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}
	_ = c.ShouldBindJSON(&req)
	if req.Token == "" {
		req.Token = c.Query("token")
	}
	if req.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token is required"})
		return
	}

	email, err := h.UserStore.RedeemMagicLinkToken(c.Request.Context(), req.Token)
	if err != nil {
		log.Printf("database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if email == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired magic link"})
		return
	}

	u, err := h.UserStore.GetOrCreateUserByEmail(c.Request.Context(), email)
	if err != nil {
		log.Printf("database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.respondWithSession(c, u)
}

// OAuthStart redirects the caller to the Google consent page.
func (h *Handler) OAuthStart(c *gin.Context) {
	if h.OAuth == nil {
		log.Printf("OAuth sign-in is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "OAuth sign-in not configured"})
		return
	}

	state := uuid.NewString()
	c.SetCookie(oauthStateCookie, state, int(oauthStateTTL.Seconds()), "/", "", false, true)
	c.Redirect(http.StatusFound, h.OAuth.AuthCodeURL(state))
}

// OAuthCallback exchanges the provider code for a session. The state cookie
// set by OAuthStart must round-trip unchanged.
func (h *Handler) OAuthCallback(c *gin.Context) {
	if h.OAuth == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "OAuth sign-in not configured"})
		return
	}

	state, err := c.Cookie(oauthStateCookie)
	if err != nil || state == "" || c.Query("state") != state {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid OAuth state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "missing OAuth code"})
		return
	}

	token, err := h.OAuth.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Printf("OAuth code exchange failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "OAuth sign-in failed"})
		return
	}

	email, err := auth.FetchGoogleEmail(c.Request.Context(), h.OAuth, token)
	if err != nil {
		log.Printf("OAuth userinfo lookup failed: %v", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "OAuth sign-in failed"})
		return
	}

	u, err := h.UserStore.GetOrCreateUserByEmail(c.Request.Context(), strings.ToLower(email))
	if err != nil {
		log.Printf("database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	h.respondWithSession(c, u)
}

// respondWithSession issues a session token for u and returns it alongside
// the account.
func (h *Handler) respondWithSession(c *gin.Context, u *user.User) {
	token, err := auth.GenerateToken(u.ID, h.JWTSecret)
	if err != nil {
		log.Printf("token generation error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "user": u})
}
