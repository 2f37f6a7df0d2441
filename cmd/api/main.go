package main

import (
	"encoding/json"
	"fmt"
	"os"

	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"platebook/internal/api"
	"platebook/internal/auth"
	"platebook/internal/platform/spoonacular"
	"platebook/internal/recipe"
	"platebook/internal/user"
)

// Config represents the application configuration.
type Config struct {
	SpoonacularAPIKey  string `json:"spoonacular_api_key"`
	DatabaseURL        string `json:"DATABASE_URL"`
	JWTSecret          string `json:"jwt_secret"`
	Addr               string `json:"addr"`
	BaseURL            string `json:"base_url"`
	AllowedOrigin      string `json:"allowed_origin"`
	GoogleClientID     string `json:"google_client_id"`
	GoogleClientSecret string `json:"google_client_secret"`
}

// applyEnv lets environment variables override config.json for secrets.
func (c *Config) applyEnv() {
	if v := os.Getenv("SPOONACULAR_API_KEY"); v != "" {
		c.SpoonacularAPIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		c.JWTSecret = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_ID"); v != "" {
		c.GoogleClientID = v
	}
	if v := os.Getenv("GOOGLE_CLIENT_SECRET"); v != "" {
		c.GoogleClientSecret = v
	}
}

func main() {
	// Read configuration from config.json
	configData, err := os.ReadFile("config.json")
	if err != nil {
		panic(fmt.Errorf("failed to read config.json: %w", err))
	}

	var config Config
	if err := json.Unmarshal(configData, &config); err != nil {
		panic(fmt.Errorf("failed to unmarshal config.json: %w", err))
	}
	config.applyEnv()

	if config.Addr == "" {
		config.Addr = ":8080"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080"
	}

	db, err := sqlx.Connect("postgres", config.DatabaseURL)
	if err != nil {
		panic(fmt.Errorf("error connecting to database: %w", err))
	}

	recipeStore, err := recipe.NewPostgresStoreWithDB(db)
	if err != nil {
		panic(fmt.Errorf("error creating recipe store: %w", err))
	}

	userStore, err := user.NewPostgresStoreWithDB(db)
	if err != nil {
		panic(fmt.Errorf("error creating user store: %w", err))
	}

	extractor := spoonacular.NewClient()

	handler := api.NewHandler(extractor, recipeStore, userStore, config.SpoonacularAPIKey, []byte(config.JWTSecret))
	handler.BaseURL = config.BaseURL
	if config.GoogleClientID != "" && config.GoogleClientSecret != "" {
		handler.OAuth = auth.NewGoogleOAuthConfig(config.GoogleClientID, config.GoogleClientSecret, config.BaseURL+"/auth/callback")
	}

	r := gin.Default()

	// Configure CORS middleware
	allowedOrigin := config.AllowedOrigin
	if allowedOrigin == "" {
		allowedOrigin = "http://localhost:3000"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{allowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.POST("/auth/signup", handler.Signup)
	r.POST("/auth/login", handler.Login)
	r.POST("/auth/magic-link", handler.RequestMagicLink)
	r.POST("/auth/magic-link/verify", handler.VerifyMagicLink)
	// The emailed link is a GET; clients may also POST the token as JSON.
	r.GET("/auth/magic-link/verify", handler.VerifyMagicLink)
	r.GET("/auth/oauth/google", handler.OAuthStart)
	r.GET("/auth/callback", handler.OAuthCallback)

	authed := r.Group("/", api.RequireUser([]byte(config.JWTSecret)))
	authed.POST("/recipes/ingest", handler.IngestRecipe)
	authed.GET("/recipes", handler.ListRecipes)
	authed.GET("/recipes/:id", handler.GetRecipe)
	authed.GET("/me", handler.Me)
	authed.GET("/profile", handler.GetProfile)
	authed.PUT("/profile", handler.UpdateProfile)

	r.Run(config.Addr)
}
