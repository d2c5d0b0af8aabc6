package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/spf13/viper"
	"golang.org/x/crypto/argon2"

	"github.com/estatehub/backend/internal/models"
)

type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *ValidationHelper
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2" example:"John Doe"`
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Phone    string `json:"phone" validate:"required,min=10,max=15" example:"+919812345678"`
	Password string `json:"password" validate:"required,min=6" example:"password123"`
	Role     string `json:"role" validate:"required" example:"broker"` // requested role, granted on fee approval
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"user@example.com"`
	Password string `json:"password" validate:"required,min=6" example:"password123"`
}

func NewAuthService(db *sql.DB, redisClient *redis.Client) *AuthService {
	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("jwt.expiry_hours", 24)

	return &AuthService{
		db:        db,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

// Register creates an account awaiting registration-fee approval
// @Summary Register a new account
// @Description Create an account in PENDING_APPROVAL state; the requested role is granted when the registration fee payment is approved
// @Tags auth
// @Accept json
// @Produce json
// @Param registration body RegisterRequest true "Registration data"
// @Success 201 {object} models.Account
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /auth/register [post]
func (as *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	requestedRole, err := models.ParseRole(req.Role)
	if err != nil || requestedRole == models.RoleAdmin {
		SendErrorResponse(w, "Invalid role", http.StatusBadRequest, nil)
		return
	}

	hash, err := as.hashPassword(req.Password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed: %v", err)
		SendErrorResponse(w, "Registration failed", http.StatusInternalServerError, nil)
		return
	}

	account := &models.Account{
		ID:            uuid.NewString(),
		Name:          req.Name,
		Email:         strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:         req.Phone,
		Role:          models.RoleGuest, // upgraded when the registration payment is approved
		RequestedRole: &requestedRole,
		Status:        models.AccountStatusPendingApproval,
		Balance:       0,
		Version:       1,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}

	_, err = as.db.Exec(`
		INSERT INTO accounts (id, name, email, phone, password_hash, role, requested_role, status, balance, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		account.ID, account.Name, account.Email, account.Phone, hash,
		account.Role, account.RequestedRole, account.Status, account.Balance,
		account.Version, account.CreatedAt, account.UpdatedAt)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			SendErrorResponse(w, "Email already registered", http.StatusConflict, nil)
			return
		}
		log.Printf("[AUTH] Account insert failed: %v", err)
		SendErrorResponse(w, "Registration failed", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Account registered: id=%s email=%s requested_role=%s",
		account.ID, account.Email, requestedRole)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"message": "Registered. Submit the registration fee payment proof to activate your account.",
		"account": account,
	})
}

// Login authenticates an account and issues a JWT
// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Login credentials"
// @Success 200 {object} object{token=string,account=models.Account}
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (as *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	r.Body = http.MaxBytesReader(w, r.Body, 1_048_576)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := as.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	account := &models.Account{}
	var requestedRole sql.NullString
	err := as.db.QueryRow(`
		SELECT id, name, email, phone, password_hash, role, requested_role, status, balance, version, created_at, updated_at
		FROM accounts
		WHERE email = $1`, strings.ToLower(strings.TrimSpace(req.Email))).Scan(
		&account.ID, &account.Name, &account.Email, &account.Phone, &account.PasswordHash,
		&account.Role, &requestedRole, &account.Status, &account.Balance, &account.Version,
		&account.CreatedAt, &account.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}
	if err != nil {
		log.Printf("[AUTH] Login query failed: %v", err)
		SendErrorResponse(w, "Login failed", http.StatusInternalServerError, nil)
		return
	}

	if requestedRole.Valid {
		role := models.Role(requestedRole.String)
		account.RequestedRole = &role
	}

	if !as.verifyPassword(req.Password, account.PasswordHash) {
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	if account.Status == models.AccountStatusDisabled {
		SendErrorResponse(w, "Account disabled", http.StatusForbidden, nil)
		return
	}

	token, err := as.issueToken(account)
	if err != nil {
		log.Printf("[AUTH] Token issuance failed for %s: %v", account.ID, err)
		SendErrorResponse(w, "Login failed", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"token":   token,
		"account": account,
	})
}

// Logout revokes the presented token
// @Summary Logout
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} object{message=string}
// @Router /auth/logout [post]
func (as *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	authHeader := r.Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		SendErrorResponse(w, "Authorization header required", http.StatusUnauthorized, nil)
		return
	}

	if as.redis != nil {
		ttl := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
		key := fmt.Sprintf("revoked:%s", parts[1])
		if err := as.redis.Set(context.Background(), key, "1", ttl).Err(); err != nil {
			log.Printf("[AUTH] Failed to revoke token: %v", err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logged out"})
}

func (as *AuthService) issueToken(account *models.Account) (string, error) {
	expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
	claims := jwt.MapClaims{
		"user_id": account.ID,
		"role":    string(account.Role),
		"exp":     time.Now().Add(expiry).Unix(),
		"iat":     time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func (as *AuthService) hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}

	timeCost := uint32(viper.GetInt("argon2.time"))
	memory := uint32(viper.GetInt("argon2.memory"))
	threads := uint8(viper.GetInt("argon2.threads"))
	keyLen := uint32(viper.GetInt("argon2.key_length"))

	hash := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, memory, timeCost, threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash)), nil
}

func (as *AuthService) verifyPassword(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var memory, timeCost uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	hash := argon2.IDKey([]byte(password), salt, timeCost, memory, threads, uint32(len(expected)))
	return subtle.ConstantTimeCompare(hash, expected) == 1
}
