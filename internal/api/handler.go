package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"

	"platebook/internal/platform/spoonacular"
	"platebook/internal/recipe"
	"platebook/internal/user"
)

// Extractor defines the interface for the recipe extraction service.
type Extractor interface {
	Extract(ctx context.Context, apiKey, sourceURL string) (*spoonacular.Document, error)
}

// RecipeStore defines the interface for recipe data operations.
type RecipeStore interface {
	InsertRecipe(ctx context.Context, in recipe.CreateInput) (*recipe.Recipe, error)
	GetRecipeByID(ctx context.Context, id, callerID string) (*recipe.Recipe, error)
	ListRecipesByUser(ctx context.Context, userID string) ([]*recipe.Recipe, error)
}

// UserStore defines the interface for user, profile and magic-link data
// operations.
type UserStore interface {
	CreateUser(ctx context.Context, email string, passwordHash *string) (*user.User, error)
	GetUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetUserByID(ctx context.Context, id string) (*user.User, error)
	GetOrCreateUserByEmail(ctx context.Context, email string) (*user.User, error)
	GetProfile(ctx context.Context, userID string) (*user.Profile, error)
	UpsertProfile(ctx context.Context, userID string, displayName, avatarURL *string) (*user.Profile, error)
	CreateMagicLinkToken(ctx context.Context, email, token string, expiresAt time.Time) error
	RedeemMagicLinkToken(ctx context.Context, token string) (string, error)
}

// Handler handles HTTP requests.
type Handler struct {
	Extractor   Extractor
	RecipeStore RecipeStore
	UserStore   UserStore

	// APIKey is the extraction-service credential. It may be empty on a
	// misconfigured deployment; ingestion checks it per request.
	APIKey    string
	JWTSecret []byte

	// OAuth is nil when Google sign-in is not configured.
	OAuth *oauth2.Config

	// BaseURL is the externally visible address, used to build magic links.
	BaseURL string
}

// NewHandler creates a new Handler.
func NewHandler(extractor Extractor, recipeStore RecipeStore, userStore UserStore, apiKey string, jwtSecret []byte) *Handler {
	return &Handler{
		Extractor:   extractor,
		RecipeStore: recipeStore,
		UserStore:   userStore,
		APIKey:      apiKey,
		JWTSecret:   jwtSecret,
	}
}

// IngestRecipe fetches a recipe from a caller-supplied URL via the
// extraction service, normalizes it and stores it for the caller. One row
// per successful call; re-submitting the same URL creates a new row.
func (h *Handler) IngestRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "URL is required"})
		return
	}

	if h.APIKey == "" {
		log.Printf("recipe extraction API key is not configured")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "recipe extraction service not configured"})
		return
	}

	doc, err := h.Extractor.Extract(c.Request.Context(), h.APIKey, req.URL)
	if err != nil {
		var statusErr *spoonacular.StatusError
		switch {
		case errors.As(err, &statusErr):
			// Pass the upstream status through; the body stays in the log.
			log.Printf("extraction service error: status=%d body=%s", statusErr.StatusCode, statusErr.Body)
			c.JSON(statusErr.StatusCode, gin.H{"error": "Failed to fetch recipe from URL"})
		case errors.Is(err, spoonacular.ErrInvalidDocument):
			log.Printf("extraction service returned malformed document: %v", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch recipe from URL"})
		default:
			log.Printf("extraction request failed: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	in := recipe.FromExtracted(doc, userID, req.URL)

	saved, err := h.RecipeStore.InsertRecipe(c.Request.Context(), in)
	if err != nil {
		log.Printf("database insert error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save recipe to database"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe successfully imported",
		"recipe":  saved,
	})
}

// ListRecipes returns the caller's recipes, newest first.
func (h *Handler) ListRecipes(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	recipes, err := h.RecipeStore.ListRecipesByUser(c.Request.Context(), userID)
	if err != nil {
		log.Printf("database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if recipes == nil {
		recipes = []*recipe.Recipe{}
	}

	c.JSON(http.StatusOK, recipes)
}

// GetRecipe returns a single recipe the caller may see: their own rows, or
// anyone's public ones.
func (h *Handler) GetRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	r, err := h.RecipeStore.GetRecipeByID(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		log.Printf("database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if r == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Recipe not found"})
		return
	}

	c.JSON(http.StatusOK, r)
}

// Me returns the caller's identity.
func (h *Handler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	u, err := h.UserStore.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		log.Printf("database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if u == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	c.JSON(http.StatusOK, u)
}

// GetProfile returns the caller's profile, or an empty one if none was
// saved yet.
func (h *Handler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	p, err := h.UserStore.GetProfile(c.Request.Context(), userID)
	if err != nil {
		log.Printf("database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if p == nil {
		p = &user.Profile{UserID: userID}
	}

	c.JSON(http.StatusOK, p)
}

// UpdateProfile upserts the caller's profile row.
func (h *Handler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req struct {
		DisplayName *string `json:"display_name"`
		AvatarURL   *string `json:"avatar_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	p, err := h.UserStore.UpsertProfile(c.Request.Context(), userID, req.DisplayName, req.AvatarURL)
	if err != nil {
		log.Printf("database error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, p)
}
