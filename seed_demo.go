package main

import (
	"log"
	"time"

	"repair-match-server/database"
	"repair-match-server/models"
	"repair-match-server/utils"
)

// seedDemoUsers populates a handful of accounts for local development.
// Runs only when SEED_DEMO_DATA=true and the users table is empty.
func seedDemoUsers() error {
	db := database.GetDB()

	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("ℹ️ Users already exist, skipping demo seed")
		return nil
	}

	password, err := utils.HashPassword("Demo1234")
	if err != nil {
		return err
	}

	now := time.Now()
	lat, lng := 14.5995, 120.9842

	users := []models.User{
		{
			Name:         "Demo Customer",
			Email:        "customer@demo.local",
			PasswordHash: password,
			UserType:     models.UserTypeCustomer,
			AvatarEmoji:  "👤",
			IsActive:     true,
		},
		{
			Name:               "Maria Santos",
			Email:              "maria@demo.local",
			PasswordHash:       password,
			UserType:           models.UserTypeTechnician,
			IsAvailable:        true,
			Specialties:        models.StringList{"Laptops", "Desktops"},
			LocationLat:        &lat,
			LocationLng:        &lng,
			LastLocationUpdate: &now,
			AvatarEmoji:        "🔧",
			AvatarColor:        "#eb5436",
			IsActive:           true,
		},
		{
			Name:               "Juan Dela Cruz",
			Email:              "juan@demo.local",
			PasswordHash:       password,
			UserType:           models.UserTypeTechnician,
			IsAvailable:        true,
			Specialties:        models.StringList{"Phones", "Tablets"},
			LocationLat:        &lat,
			LocationLng:        &lng,
			LastLocationUpdate: &now,
			AvatarEmoji:        "🛠️",
			AvatarColor:        "#3b82f6",
			IsActive:           true,
		},
	}

	for i := range users {
		if err := db.Create(&users[i]).Error; err != nil {
			return err
		}
	}

	log.Printf("🌱 Seeded %d demo users", len(users))
	return nil
}
