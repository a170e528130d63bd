package main

import (
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"elearn/internal/database"
	"elearn/internal/middleware"
	"elearn/internal/modules/access"
	"elearn/internal/modules/auth"
	"elearn/internal/modules/booking"
	"elearn/internal/modules/notes"
	"elearn/internal/modules/payment"
	"elearn/internal/modules/pricing"
	"elearn/internal/pkg/gateway"
	jwtsvc "elearn/internal/pkg/jwt"
	"elearn/internal/repository"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	loggerf := func(format string, args ...interface{}) {
		log.Printf(format, args...)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is empty")
	}
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	gw := gateway.NewRazorpay(
		os.Getenv("RAZORPAY_KEY_ID"),
		os.Getenv("RAZORPAY_KEY_SECRET"),
		os.Getenv("RAZORPAY_WEBHOOK_SECRET"),
	)

	userRepo := repository.NewUserRepository(db)
	productRepo := repository.NewProductRepository(db)
	offerRepo := repository.NewOfferRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	historyRepo := repository.NewPaymentHistoryRepository(db)
	noteRepo := repository.NewNoteRepository(db)
	purchaseRepo := repository.NewNotePurchaseRepository(db)
	accessRepo := repository.NewNoteAccessRepository(db)

	j := jwtsvc.New(secret, 24*time.Hour)

	pricingEngine := pricing.NewEngine(offerRepo)

	authService := auth.NewService(userRepo, j)
	authHandler := auth.NewHandler(authService)

	accessService := access.NewService(accessRepo, noteRepo, loggerf)
	accessHandler := access.NewHandler(accessService)

	bookingService := booking.NewService(bookingRepo, productRepo, userRepo, offerRepo, historyRepo, pricingEngine, frontendURL, loggerf)
	bookingHandler := booking.NewHandler(bookingService, loggerf)

	notesService := notes.NewService(noteRepo, purchaseRepo, bookingRepo, accessService, gw, frontendURL, loggerf)
	notesHandler := notes.NewHandler(notesService, loggerf)

	paymentService := payment.NewService(bookingRepo, historyRepo, gw, bookingService, accessService, notesService, loggerf)
	paymentHandler := payment.NewHandler(paymentService, loggerf)

	r := gin.New()
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS())

	v1 := r.Group("/api/v1")
	{
		// public: auth, payment pages opened from shareable links,
		// gateway webhook
		authHandler.RegisterPublicRoutes(v1)
		paymentHandler.RegisterPublicRoutes(v1)
		notesHandler.RegisterPublicRoutes(v1)

		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))
		{
			authHandler.RegisterProtectedRoutes(protected)
			bookingHandler.RegisterProtectedRoutes(protected)
			notesHandler.RegisterProtectedRoutes(protected)
			accessHandler.RegisterProtectedRoutes(protected)
		}
	}

	addr := ":8080"
	if p := os.Getenv("PORT"); p != "" {
		addr = ":" + p
	}
	log.Infof("listening on %s", addr)
	if err := r.Run(addr); err != nil {
		log.Fatal(err)
	}
}
