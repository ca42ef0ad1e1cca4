package routes

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"repair-match-server/database"
	"repair-match-server/middleware"
	"repair-match-server/models"
	"repair-match-server/utils"
)

// SignUpRequest represents the registration request
type SignUpRequest struct {
	Name          string   `json:"name" binding:"required"`
	Email         string   `json:"email" binding:"required"`
	Password      string   `json:"password" binding:"required"`
	UserType      string   `json:"userType"`
	ContactNumber string   `json:"contactNumber"`
	Specialties   []string `json:"specialties"`
	AvatarEmoji   string   `json:"avatarEmoji"`
	AvatarColor   string   `json:"avatarColor"`
}

// SignInRequest represents the sign in request
type SignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest represents the token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RegisterAuthRoutes registers authentication routes
func RegisterAuthRoutes(router *gin.RouterGroup) {
	router.POST("/signup", signUp)
	router.POST("/signin", signIn)
	router.POST("/register", signUp) // Alias for signup
	router.POST("/login", signIn)    // Alias for signin
	router.POST("/refresh", refreshToken)
	router.POST("/logout", logout)
}

// signUp handles user registration
func signUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	email := utils.NormalizeEmail(req.Email)
	if !utils.ValidateEmail(email) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid email",
			"message": "Please provide a valid email address",
		})
		return
	}

	if ok, problems := middleware.ValidatePasswordStrength(req.Password); !ok {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Weak password",
			"message": strings.Join(problems, "; "),
		})
		return
	}

	userType := models.UserTypeCustomer
	if req.UserType != "" {
		userType = models.UserType(req.UserType)
		if !models.IsValidUserType(userType) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid user type",
				"message": "userType must be customer or technician",
			})
			return
		}
	}

	var existingUser models.User
	if err := database.DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "User already exists",
			"message": "A user with this email already exists",
		})
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Password hashing failed",
			"message": "Failed to process password",
		})
		return
	}

	user := models.User{
		Name:          strings.TrimSpace(req.Name),
		Email:         email,
		ContactNumber: strings.TrimSpace(req.ContactNumber),
		PasswordHash:  hashedPassword,
		UserType:      userType,
		AvatarEmoji:   req.AvatarEmoji,
		AvatarColor:   req.AvatarColor,
		IsActive:      true,
	}

	if userType == models.UserTypeTechnician {
		user.IsAvailable = true
		user.Specialties = req.Specialties
		if user.AvatarEmoji == "" {
			user.AvatarEmoji = "🔧"
		}
	} else if user.AvatarEmoji == "" {
		user.AvatarEmoji = "👤"
	}

	if err := database.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "User creation failed",
			"message": "Failed to create user account",
		})
		return
	}

	tokens, err := jwtService.GenerateTokenPair(&user, c.GetHeader("X-Device-ID"), c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Token generation failed",
			"message": "Failed to generate authentication token",
		})
		return
	}

	log.Printf("✅ New %s registered: %s (ID: %d)", user.UserType, user.Email, user.ID)

	c.JSON(http.StatusCreated, gin.H{
		"message":       "User registered successfully",
		"token":         tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
		"user":          user,
	})
}

// signIn handles user authentication
func signIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": err.Error(),
		})
		return
	}

	email := utils.NormalizeEmail(req.Email)

	var user models.User
	if err := database.DB.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Authentication failed",
			"message": "Invalid email or password",
		})
		return
	}

	if !user.IsActive {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Account deactivated",
			"message": "Your account has been deactivated",
		})
		return
	}

	if !utils.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Authentication failed",
			"message": "Invalid email or password",
		})
		return
	}

	tokens, err := jwtService.GenerateTokenPair(&user, c.GetHeader("X-Device-ID"), c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Token generation failed",
			"message": "Failed to generate authentication token",
		})
		return
	}

	log.Printf("🔑 User signed in: %s (ID: %d)", user.Email, user.ID)

	c.JSON(http.StatusOK, gin.H{
		"message":       "Signed in successfully",
		"token":         tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
		"user":          user,
	})
}

// refreshToken exchanges a refresh token for a new token pair
func refreshToken(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": "refresh_token is required",
		})
		return
	}

	tokens, err := jwtService.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Invalid refresh token",
			"message": "Refresh token is invalid or expired",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":         tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_in":    tokens.ExpiresIn,
	})
}

// logout revokes the presented refresh token
func logout(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"message": "refresh_token is required",
		})
		return
	}

	if err := jwtService.RevokeRefreshToken(req.RefreshToken); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Logout failed",
			"message": "Could not revoke refresh token",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// logoutAll revokes every refresh token of the authenticated user, logging
// them out on all devices
func logoutAll(c *gin.Context) {
	user := currentUser(c)

	if err := jwtService.RevokeAllUserTokens(user.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Logout failed",
			"message": "Could not revoke refresh tokens",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out on all devices"})
}
