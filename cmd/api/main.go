package main

import (
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go-shop-pos/internal/handler"
	"go-shop-pos/internal/middleware"
	"go-shop-pos/internal/model"
	"go-shop-pos/internal/repository"
	"go-shop-pos/internal/service"
	"go-shop-pos/internal/ws"
	"go-shop-pos/pkg/database"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/gorm"
)

func main() {
	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found")
	}

	// 2. Setup Database
	db := database.ConnectDB()
	db.AutoMigrate(&model.Product{}, &model.Sale{}, &model.SaleItem{}, &model.User{})

	// 3. Seed default admin and demo catalog on first run
	seedDefaults(db)

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	productRepo := repository.NewProductRepo(db)
	saleRepo := repository.NewSaleRepo(db)
	userRepo := repository.NewUserRepo(db)

	saleService := service.NewSaleService(productRepo, saleRepo, db, wsHub, lockTimeout())
	backupService := service.NewBackupService(productRepo, saleRepo, db)
	productService := service.NewProductService(productRepo, wsHub)
	authService := service.NewAuthService(userRepo)
	userService := service.NewUserService(userRepo)
	statsService := service.NewStatsService(productRepo, saleRepo)

	saleHandler := handler.NewSaleHandler(saleService)
	backupHandler := handler.NewBackupHandler(backupService)
	productHandler := handler.NewProductHandler(productService)
	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService)
	statsHandler := handler.NewStatsHandler(statsService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName:   "School Shop POS v1.0",
		BodyLimit: 16 * 1024 * 1024, // backups embed base64 product images
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	api := app.Group("/api")

	// ============ PUBLIC ROUTES ============
	api.Post("/login", authHandler.Login)
	api.Get("/ping", authHandler.Ping)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(userRepo))

	protected.Get("/me", authHandler.Me)

	// Products (reads for every seller, writes admin-only)
	protected.Get("/products", productHandler.GetProducts)
	protected.Post("/products", middleware.RequireAdmin(), productHandler.CreateProduct)
	protected.Put("/products/:id", middleware.RequireAdmin(), productHandler.UpdateProduct)
	protected.Delete("/products/:id", middleware.RequireAdmin(), productHandler.DeleteProduct)
	protected.Post("/products/:id/restock", middleware.RequireAdmin(), productHandler.RestockProduct)

	// Sales
	protected.Get("/sales", saleHandler.GetSales)
	protected.Post("/sales", saleHandler.CreateSale)

	// Stats
	protected.Get("/stats", statsHandler.GetStats)

	// Backup (admin-only)
	protected.Get("/export", middleware.RequireAdmin(), backupHandler.ExportFull)
	protected.Get("/export/products", middleware.RequireAdmin(), backupHandler.ExportProducts)
	protected.Post("/import", middleware.RequireAdmin(), backupHandler.ImportBackup)

	// Users (admin-only except own password change)
	protected.Get("/users", middleware.RequireAdmin(), userHandler.GetUsers)
	protected.Post("/users", middleware.RequireAdmin(), userHandler.CreateUser)
	protected.Delete("/users/:id", middleware.RequireAdmin(), userHandler.DeleteUser)
	protected.Put("/users/:id/password", userHandler.ChangePassword)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		wsHub.Register <- c
		defer func() { wsHub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))

	// 8. Graceful Shutdown
	go func() {
		port := os.Getenv("PORT")
		if port == "" {
			port = "6060"
		}
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

// lockTimeout reads the per-sale row lock wait bound (milliseconds).
func lockTimeout() time.Duration {
	ms, err := strconv.Atoi(os.Getenv("LOCK_TIMEOUT_MS"))
	if err != nil || ms <= 0 {
		ms = 3000
	}
	return time.Duration(ms) * time.Millisecond
}

// seedDefaults creates the admin/admin account and a demo catalog when the
// respective tables are empty.
func seedDefaults(db *gorm.DB) {
	userRepo := repository.NewUserRepo(db)
	productRepo := repository.NewProductRepo(db)

	if count, _ := userRepo.Count(); count == 0 {
		admin := &model.User{Username: "admin", IsAdmin: true}
		if err := admin.SetPassword("admin"); err != nil {
			log.Printf("Warning: Failed to hash admin password: %v", err)
			return
		}
		if err := userRepo.Create(admin); err != nil {
			log.Printf("Warning: Failed to create admin user: %v", err)
		} else {
			log.Println("✅ Admin user created: admin/admin — CHANGE THE PASSWORD after first login!")
		}
	}

	if count, _ := productRepo.Count(); count == 0 {
		demo := []model.Product{
			{Name: "Sandwich", Emoji: "🥪", Price: 300, Stock: 20, Category: "Food"},
			{Name: "Water 0.5l", Emoji: "💧", Price: 200, Stock: 30, Category: "Drinks"},
			{Name: "Juice", Emoji: "🧃", Price: 250, Stock: 25, Category: "Drinks"},
			{Name: "Chocolate bar", Emoji: "🍫", Price: 200, Stock: 15, Category: "Sweets"},
			{Name: "Pastry", Emoji: "🥐", Price: 250, Stock: 10, Category: "Food"},
			{Name: "Crisps", Emoji: "🍟", Price: 350, Stock: 12, Category: "Snacks"},
		}
		if err := db.Create(&demo).Error; err != nil {
			log.Printf("Warning: Failed to seed demo products: %v", err)
		} else {
			log.Println("✅ Demo products added")
		}
	}
}
