package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sguter90/agrimaestro/pkg/models"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned for an unknown username or a wrong password
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrUserExists is returned when a username is taken
var ErrUserExists = errors.New("username already exists")

const userColumns = `id, username, COALESCE(community_id::text, ''), language, created_at`

// hashPassword creates a SHA-256 hash of the password to handle passwords longer than 72 bytes
func hashPassword(password string) string {
	hash := sha256.Sum256([]byte(password))
	return hex.EncodeToString(hash[:])
}

// bcryptPassword returns the stored form of a password
func bcryptPassword(password string) (string, error) {
	// Pre-hash password with SHA-256 to handle passwords longer than 72 bytes
	hashed, err := bcrypt.GenerateFromPassword([]byte(hashPassword(password)), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	// Mark as new format with prefix
	return "v2:" + string(hashed), nil
}

// CreateUser creates a new user of a community with hashed password
func (dm *DatabaseManager) CreateUser(ctx context.Context, username, password, communityID string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password must not be empty")
	}

	finalHash, err := bcryptPassword(password)
	if err != nil {
		return nil, err
	}

	var community sql.NullString
	if communityID != "" {
		community = sql.NullString{String: communityID, Valid: true}
	}

	query := `
        INSERT INTO users (username, password_hash, community_id)
        VALUES ($1, $2, $3)
        RETURNING ` + userColumns

	var user models.User
	err = dm.QueryRowWithHealthCheck(ctx, query, username, finalHash, community).
		Scan(&user.ID, &user.Username, &user.CommunityID, &user.Language, &user.CreatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		if isForeignKeyViolation(err) {
			return nil, fmt.Errorf("community %s: %w", communityID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// ValidateUser checks username and password
func (dm *DatabaseManager) ValidateUser(ctx context.Context, username, password string) (*models.User, error) {
	query := `
        SELECT ` + userColumns + `, password_hash
        FROM users
        WHERE username = $1
    `

	var user models.User
	var passwordHash string

	err := dm.QueryRowWithHealthCheck(ctx, query, username).
		Scan(&user.ID, &user.Username, &user.CommunityID, &user.Language, &user.CreatedAt, &passwordHash)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	// Check if this is a new format hash (v2) or old format
	var compareErr error
	if actualHash, isNewFormat := strings.CutPrefix(passwordHash, "v2:"); isNewFormat {
		compareErr = bcrypt.CompareHashAndPassword([]byte(actualHash), []byte(hashPassword(password)))
	} else {
		// Old format: direct bcrypt comparison
		compareErr = bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password))

		// If password is correct, migrate to new format
		if compareErr == nil {
			if err := dm.migrateUserPassword(ctx, user.ID, password); err != nil {
				dm.logger.Warn().Err(err).Str("user", user.ID.String()).Msg("Failed to migrate password")
			}
		}
	}

	if compareErr != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// GetUserByID retrieves a user by ID
func (dm *DatabaseManager) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user models.User
	err := dm.QueryRowWithHealthCheck(ctx, query, id).
		Scan(&user.ID, &user.Username, &user.CommunityID, &user.Language, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	return &user, nil
}

// migrateUserPassword updates a user's password to the new format
func (dm *DatabaseManager) migrateUserPassword(ctx context.Context, userID uuid.UUID, password string) error {
	finalHash, err := bcryptPassword(password)
	if err != nil {
		return err
	}

	query := `UPDATE users SET password_hash = $1 WHERE id = $2`
	if _, err := dm.ExecWithHealthCheck(ctx, query, finalHash, userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

// ListUsers returns the users of a community ordered by username.
// An empty communityID lists users without a community.
func (dm *DatabaseManager) ListUsers(ctx context.Context, communityID string) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE COALESCE(community_id::text, '') = $1 ORDER BY username`

	rows, err := dm.QueryWithHealthCheck(ctx, query, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		if err := rows.Scan(&user.ID, &user.Username, &user.CommunityID, &user.Language, &user.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// SetUserLanguage changes the language the assistant answers a user in
func (dm *DatabaseManager) SetUserLanguage(ctx context.Context, username, language string) error {
	result, err := dm.ExecWithHealthCheck(ctx, `UPDATE users SET language = $1 WHERE username = $2`, language, username)
	if err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update language: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", username, ErrNotFound)
	}
	return nil
}
