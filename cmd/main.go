package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	_ "github.com/franciscosanchezn/pizza-storefront/docs" // Import generated docs
	"github.com/franciscosanchezn/pizza-storefront/internal/auth"
	"github.com/franciscosanchezn/pizza-storefront/internal/client"
	"github.com/franciscosanchezn/pizza-storefront/internal/config"
	"github.com/franciscosanchezn/pizza-storefront/internal/controllers"
	"github.com/franciscosanchezn/pizza-storefront/internal/database"
	"github.com/franciscosanchezn/pizza-storefront/internal/middleware"
	"github.com/franciscosanchezn/pizza-storefront/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const serviceName = "pizza-storefront"

var (
	configuration *config.Config
	storefront    *services.Storefront
)

// @title Pizza Storefront API
// @version 1.0
// @description Storefront for building pizzas, managing the cart and placing orders against the pizza backend
// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// Load environment variables
	loadDotenvFile()

	// Initialize logger
	setUpLogger()

	// Load configuration
	configuration = loadConfig()
	applyLogLevel(configuration.LogLevel)

	// Open the token store and restore the previous session
	tokens := setupTokenHolder(configuration)
	setupStorefront(configuration, tokens)

	// Initialize Gin router
	var router *gin.Engine = setupRouter()

	// Start the server
	log.Infof("Starting server on %s:%d", configuration.Host, configuration.Port)
	checkPanicErr(router.Run(fmt.Sprintf("%v:%d", configuration.Host, configuration.Port)))
}

// checkPanicErr checks if an error occurred and panics if it did
func checkPanicErr(err error) {
	if err != nil {
		panic(err)
	}
}

// loadDotenvFile loads environment variables from a .env file
// If the file is not found, it will log a warning and use system environment variables
func loadDotenvFile() {
	if err := godotenv.Load(); err != nil {
		log.Warn("No .env file found, using system environment variables")
	}
}

// setUpLogger initializes the logger with a JSON formatter and sets the log level based on the environment
func setUpLogger() {
	log.SetFormatter(&log.JSONFormatter{})
	log.SetLevel(config.LevelForEnvironment(config.GetEnvWithDefault("APP_ENV", "development")))
}

// applyLogLevel lets LOG_LEVEL override the environment default
func applyLogLevel(level string) {
	if level == "" {
		return
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		log.WithField("log_level", level).Warn("Unknown log level, keeping the environment default")
		return
	}
	log.SetLevel(parsed)
	database.SetLevel(parsed)
}

// loadConfig loads the application configuration from environment variables
// It returns a Config struct or panics if there is an error
func loadConfig() *config.Config {
	conf, err := config.LoadConfig()
	checkPanicErr(err)
	return conf
}

// setupTokenHolder opens the token store and loads the token saved by the previous run
func setupTokenHolder(conf *config.Config) *auth.TokenHolder {
	db, err := database.InitDatabase(database.FromTokenStore(conf.TokenStore))
	checkPanicErr(err)

	tokens, err := auth.NewTokenHolder(context.Background(), auth.NewGormTokenStore(db), log.StandardLogger())
	checkPanicErr(err)
	return tokens
}

// setupStorefront wires the backend client and the services, then restores the session
func setupStorefront(conf *config.Config, tokens *auth.TokenHolder) {
	backend := client.NewBackend(conf.APIBaseURL, tokens,
		client.WithTimeout(conf.APITimeout),
		client.WithLogger(log.StandardLogger()))
	storefront = services.NewStorefront(backend, tokens, 50, log.StandardLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := storefront.Session.Restore(ctx); err != nil {
		log.WithError(err).Warn("Starting without a session")
	}
	if _, err := storefront.Menu.Ingredients(ctx); err != nil {
		log.WithError(err).Warn("Menu not loaded yet, it will be fetched on first use")
	}
}

// setupRouter initializes the Gin router and sets up the routes
// It returns the configured router
func setupRouter() *gin.Engine {
	if configuration.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log.StandardLogger()))

	// Define routes
	setupRoutes(router)

	return router
}

// setupRoutes defines the routes for the Gin router
func setupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", healthCheckHandler)

	controllers.RegisterRoutes(router, storefront)

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// healthCheckHandler handles the health check endpoint
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   serviceName,
		"session":   storefront.Session.State().String(),
	})
}
