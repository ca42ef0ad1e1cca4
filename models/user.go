package models

import (
	"time"

	"gorm.io/gorm"
)

type UserType string

const (
	UserTypeCustomer   UserType = "customer"
	UserTypeTechnician UserType = "technician"
)

// User represents a customer or technician account.
// Technician-only fields stay zero-valued for customers.
type User struct {
	ID            uint     `json:"id" gorm:"primaryKey"`
	Name          string   `json:"name" gorm:"size:255;not null"`
	Email         string   `json:"email" gorm:"size:255;uniqueIndex;not null"`
	ContactNumber string   `json:"contactNumber" gorm:"size:30"`
	PasswordHash  string   `json:"-" gorm:"size:255;not null"`
	UserType      UserType `json:"userType" gorm:"type:varchar(20);not null;default:'customer';check:user_type IN ('customer','technician')"`

	// Technician profile fields
	IsAvailable        bool       `json:"isAvailable" gorm:"default:false"`
	Rating             float64    `json:"rating" gorm:"type:decimal(3,2);default:0"`
	NumberOfRatings    int        `json:"numberOfRatings" gorm:"default:0"`
	TotalEarnings      float64    `json:"totalEarnings" gorm:"type:decimal(12,2);default:0"`
	CompletedRepairs   int        `json:"completedRepairs" gorm:"default:0"`
	Specialties        StringList `json:"specialties" gorm:"type:text"`
	Certifications     StringList `json:"certifications" gorm:"type:text"`
	LocationLat        *float64   `json:"locationLat" gorm:"type:decimal(10,8)"`
	LocationLng        *float64   `json:"locationLng" gorm:"type:decimal(11,8)"`
	LastLocationUpdate *time.Time `json:"lastLocationUpdate"`
	AvatarEmoji        string     `json:"avatarEmoji" gorm:"size:10"`
	AvatarColor        string     `json:"avatarColor" gorm:"size:20"`
	LastRatingDate     *time.Time `json:"lastRatingDate"`

	IsActive  bool           `json:"isActive" gorm:"default:true"`
	CreatedAt time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is a GORM hook that runs before creating a user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UserType == "" {
		u.UserType = UserTypeCustomer
	}
	return nil
}

// IsValidUserType checks a user type literal
func IsValidUserType(t UserType) bool {
	switch t {
	case UserTypeCustomer, UserTypeTechnician:
		return true
	default:
		return false
	}
}

// IsTechnician checks if the user is a technician
func (u *User) IsTechnician() bool {
	return u.UserType == UserTypeTechnician
}

// IsCustomer checks if the user is a customer
func (u *User) IsCustomer() bool {
	return u.UserType == UserTypeCustomer
}

// UserUpdateRequest represents the editable profile fields
type UserUpdateRequest struct {
	Name           *string   `json:"name"`
	ContactNumber  *string   `json:"contactNumber"`
	Specialties    *[]string `json:"specialties"`
	Certifications *[]string `json:"certifications"`
	AvatarEmoji    *string   `json:"avatarEmoji"`
	AvatarColor    *string   `json:"avatarColor"`
}

// TechnicianLocationUpdate represents a technician location refresh
type TechnicianLocationUpdate struct {
	Latitude  float64 `json:"latitude" binding:"required"`
	Longitude float64 `json:"longitude" binding:"required"`
}
