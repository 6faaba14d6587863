package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"travelbudget/internal/cache"
	"travelbudget/internal/handlers"
	"travelbudget/internal/logger"
	"travelbudget/internal/middleware"
	"travelbudget/internal/models"
	"travelbudget/internal/services"
	"travelbudget/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Trip{},
		&models.Expense{},
		&models.Report{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)
	statsCache := cache.NewNoop()

	// Services
	userService := services.NewUserService(db)
	tripService := services.NewTripService(db, statsCache)
	expenseService := services.NewExpenseService(db, tripService, services.NewBudgetReconciler(), statsCache)
	reportService := services.NewReportService(db, tripService, statsCache)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	tripHandler := handlers.NewTripHandler(tripService, auditService)
	expenseHandler := handlers.NewExpenseHandler(expenseService, auditService)
	reportHandler := handlers.NewReportHandler(reportService, auditService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	trips := protected.Group("/trips")
	trips.POST("", tripHandler.CreateTrip)
	trips.GET("", tripHandler.GetTrips)
	trips.GET("/:id", tripHandler.GetTrip)
	trips.PUT("/:id", tripHandler.UpdateTrip)
	trips.DELETE("/:id", tripHandler.DeleteTrip)
	trips.GET("/:id/expenses", expenseHandler.GetTripExpenses)
	trips.GET("/:id/statistics", reportHandler.GetStatistics)
	trips.POST("/:id/reports", reportHandler.CreateReport)
	trips.GET("/:id/reports", reportHandler.GetTripReports)

	expenses := protected.Group("/expenses")
	expenses.POST("", expenseHandler.CreateExpense)
	expenses.GET("/:id", expenseHandler.GetExpense)
	expenses.PUT("/:id", expenseHandler.UpdateExpense)
	expenses.DELETE("/:id", expenseHandler.DeleteExpense)

	reports := protected.Group("/reports")
	reports.GET("", reportHandler.GetAllReports)
	reports.POST("/compare", reportHandler.CompareTrips)
	reports.GET("/:id", reportHandler.GetReport)
	reports.DELETE("/:id", reportHandler.DeleteReport)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"name":"Test User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(float64)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// createTrip creates a trip via the API and returns its ID.
func (app *testApp) createTrip(t *testing.T, token, name string, budget float64, start, end string) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"trip_name":%q,"total_budget":%g,"start_date":%q,"end_date":%q}`,
		name, budget, start, end)
	rec := app.request("POST", "/api/v1/trips", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create trip failed: %d %s", rec.Code, rec.Body.String())
	}
	trip := parseJSON(t, rec)["trip"].(map[string]interface{})
	return trip["id"].(float64)
}

// createExpense creates an expense via the API and returns its ID.
func (app *testApp) createExpense(t *testing.T, token string, tripID float64, category string, amount float64, date string) float64 {
	t.Helper()
	body := fmt.Sprintf(`{"trip_id":%d,"category":%q,"amount":%g,"date":%q}`,
		int(tripID), category, amount, date)
	rec := app.request("POST", "/api/v1/expenses", body, token)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create expense failed: %d %s", rec.Code, rec.Body.String())
	}
	expense := parseJSON(t, rec)["expense"].(map[string]interface{})
	return expense["id"].(float64)
}

// getTrip fetches a trip via the API.
func (app *testApp) getTrip(t *testing.T, token string, tripID float64) map[string]interface{} {
	t.Helper()
	rec := app.request("GET", fmt.Sprintf("/api/v1/trips/%d", int(tripID)), "", token)
	if rec.Code != http.StatusOK {
		t.Fatalf("get trip failed: %d %s", rec.Code, rec.Body.String())
	}
	return parseJSON(t, rec)["trip"].(map[string]interface{})
}
