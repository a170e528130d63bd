package main

import (
	"log"
	"os"
	"time"

	"elearn/internal/database"
	"elearn/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

// Seeds a local database with demo users, courses, offers and notes.
func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "elearn.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM note_accesses")
	db.Exec("DELETE FROM note_purchases")
	db.Exec("DELETE FROM notes")
	db.Exec("DELETE FROM payment_histories")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM offers")
	db.Exec("DELETE FROM products")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")
	users := []domain.User{
		{Email: "admin@elearn.test", PasswordHash: hash("admin123"), Role: domain.RoleAdmin, FirstName: "Asel", LastName: "Admin"},
		{Email: "seller@elearn.test", PasswordHash: hash("seller123"), Role: domain.RoleSeller, FirstName: "Sam", LastName: "Seller", AllowManualPrice: true},
		{Email: "teacher@elearn.test", PasswordHash: hash("teacher123"), Role: domain.RoleTeacher, FirstName: "Tara", LastName: "Teacher"},
		{Email: "student@elearn.test", PasswordHash: hash("student123"), Role: domain.RoleStudent, FirstName: "Kira", LastName: "K", State: "Karnataka"},
	}
	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			log.Fatal("user seed failed:", err)
		}
	}
	teacher := users[2]

	log.Println("Creating products...")
	discounted := 7999.0
	ninety := 90
	products := []domain.Product{
		{Name: "Go Bootcamp", Slug: "go-bootcamp", Price: 9999, DiscountedPrice: &discounted, DurationDays: &ninety, TotalSeats: 100, IsActive: true},
		{Name: "SQL Mastery", Slug: "sql-mastery", Price: 4999, TotalSeats: 200, IsActive: true},
	}
	for i := range products {
		if err := db.Create(&products[i]).Error; err != nil {
			log.Fatal("product seed failed:", err)
		}
	}

	log.Println("Creating offers...")
	validTo := time.Now().AddDate(0, 1, 0)
	maxUsage := 50
	offers := []domain.Offer{
		{VoucherName: "Launch offer", Code: "SAVE1000", ProductID: products[0].ID, AmountOff: 1000, IsActive: true,
			ValidFrom: time.Now().AddDate(0, 0, -1), ValidTo: &validTo, MaxUsage: &maxUsage},
		{VoucherName: "Evergreen", Code: "WELCOME500", ProductID: products[1].ID, AmountOff: 500, IsActive: true,
			ValidFrom: time.Now().AddDate(0, 0, -1)},
	}
	for i := range offers {
		if err := db.Create(&offers[i]).Error; err != nil {
			log.Fatal("offer seed failed:", err)
		}
	}

	log.Println("Creating notes...")
	notePrice := 299.0
	notes := []domain.Note{
		{Title: "Go Bootcamp - Week 1 Notes", Slug: "go-week-1", CreatorID: teacher.ID,
			NoteType: domain.NoteCourseSpecific, Privacy: domain.NoteLoggedIn, ProductID: &products[0].ID, IsActive: true},
		{Title: "Interview Prep Pack", Slug: "interview-prep", CreatorID: teacher.ID,
			NoteType: domain.NoteIndividual, Privacy: domain.NotePurchaseable,
			Price: 499, DiscountedPrice: &notePrice, AccessDurationDays: 30, IsActive: true},
		{Title: "Free Go Cheatsheet", Slug: "go-cheatsheet", CreatorID: teacher.ID,
			NoteType: domain.NoteIndividual, Privacy: domain.NotePublic, IsActive: true},
	}
	for i := range notes {
		if err := db.Create(&notes[i]).Error; err != nil {
			log.Fatal("note seed failed:", err)
		}
	}

	log.Println("Seed complete.")
}

func hash(pw string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}
	return string(h)
}
