package store

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"math/big"
	"time"

	"github.com/hearthapp/hearth/internal/model"
)

type SignInCodeStore struct {
	db *sql.DB
}

func NewSignInCodeStore(db *sql.DB) *SignInCodeStore {
	return &SignInCodeStore{db: db}
}

func scanSignInCode(scanner interface{ Scan(...any) error }) (*model.SignInCode, error) {
	var c model.SignInCode
	var householdID sql.NullInt64
	var usedAt sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.Code, &c.Email, &c.Purpose, &householdID,
		&c.ExpiresAt, &usedAt, &c.Attempts, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if householdID.Valid {
		c.HouseholdID = &householdID.Int64
	}
	if usedAt.Valid {
		c.UsedAt = &usedAt.Time
	}
	return &c, nil
}

const signInCodeCols = `id, code, email, purpose, household_id, expires_at, used_at, attempts, created_at`

// generateCode returns a 6-digit numeric code (100000-999999).
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// Create generates a new sign-in code with a 15-minute expiry. Any previous
// pending codes for the same email are invalidated first.
func (s *SignInCodeStore) Create(email, purpose string, householdID *int64) (*model.SignInCode, error) {
	_, err := s.db.Exec(
		`UPDATE sign_in_codes SET used_at = datetime('now') WHERE email = ? AND used_at IS NULL AND expires_at > datetime('now')`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("invalidate previous codes: %w", err)
	}

	code, err := generateCode()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().UTC().Add(15 * time.Minute)

	var hID sql.NullInt64
	if householdID != nil {
		hID = sql.NullInt64{Int64: *householdID, Valid: true}
	}

	result, err := s.db.Exec(
		`INSERT INTO sign_in_codes (code, email, purpose, household_id, expires_at) VALUES (?, ?, ?, ?, ?)`,
		code, email, purpose, hID, expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert sign-in code: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+signInCodeCols+` FROM sign_in_codes WHERE id = ?`, id)
	return scanSignInCode(row)
}

// GetLatestByEmail returns the most recent pending code for the email, or
// nil when none is valid.
func (s *SignInCodeStore) GetLatestByEmail(email string) (*model.SignInCode, error) {
	row := s.db.QueryRow(
		`SELECT `+signInCodeCols+` FROM sign_in_codes
		 WHERE email = ? AND used_at IS NULL AND expires_at > datetime('now')
		 ORDER BY created_at DESC LIMIT 1`,
		email,
	)
	c, err := scanSignInCode(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get latest code: %w", err)
	}
	return c, nil
}

func (s *SignInCodeStore) IncrementAttempts(id int64) (int, error) {
	_, err := s.db.Exec(`UPDATE sign_in_codes SET attempts = attempts + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("increment attempts: %w", err)
	}
	var attempts int
	if err := s.db.QueryRow(`SELECT attempts FROM sign_in_codes WHERE id = ?`, id).Scan(&attempts); err != nil {
		return 0, fmt.Errorf("read attempts: %w", err)
	}
	return attempts, nil
}

func (s *SignInCodeStore) MarkUsed(id int64) error {
	_, err := s.db.Exec(`UPDATE sign_in_codes SET used_at = datetime('now') WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark code used: %w", err)
	}
	return nil
}

func (s *SignInCodeStore) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM sign_in_codes WHERE expires_at <= datetime('now')`)
	if err != nil {
		return 0, fmt.Errorf("delete expired codes: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
