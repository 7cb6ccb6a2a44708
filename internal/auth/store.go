package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists accounts and refresh sessions.
type PostgresStore struct {
	Pool *pgxpool.Pool
}

func (s *PostgresStore) CreateUser(ctx context.Context, name, email, passwordHash string, roles []string) (User, error) {
	if s == nil || s.Pool == nil {
		return User{}, errors.New("auth store not configured")
	}
	var u User
	err := s.Pool.QueryRow(ctx,
		`INSERT INTO users (id, name, email, password_hash, roles)
		 VALUES ($1,$2,$3,$4,$5)
		 RETURNING id, name, email, roles, created_at, updated_at`,
		uuid.New(), name, email, passwordHash, roles).
		Scan(&u.ID, &u.Name, &u.Email, &u.Roles, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrEmailTaken
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (Credential, error) {
	if s == nil || s.Pool == nil {
		return Credential{}, errors.New("auth store not configured")
	}
	var c Credential
	err := s.Pool.QueryRow(ctx,
		`SELECT id, name, email, password_hash, roles, created_at, updated_at FROM users WHERE email = $1`, email).
		Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Roles, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Credential{}, ErrUserNotFound
		}
		return Credential{}, fmt.Errorf("load user: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	if s == nil || s.Pool == nil {
		return User{}, errors.New("auth store not configured")
	}
	var u User
	err := s.Pool.QueryRow(ctx,
		`SELECT id, name, email, roles, created_at, updated_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Roles, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, ErrUserNotFound
		}
		return User{}, fmt.Errorf("load user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) CreateSession(ctx context.Context, session Session) error {
	if s == nil || s.Pool == nil {
		return errors.New("auth store not configured")
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO sessions (id, user_id, refresh_token, user_agent, ip, expires_at, created_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		session.ID, session.UserID, session.RefreshTokenHash,
		nilIfEmpty(session.UserAgent), nilIfEmpty(session.IP), session.ExpiresAt, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetSessionByToken(ctx context.Context, tokenHash string) (Session, error) {
	if s == nil || s.Pool == nil {
		return Session{}, errors.New("auth store not configured")
	}
	var session Session
	err := s.Pool.QueryRow(ctx,
		`SELECT id, user_id, refresh_token, COALESCE(user_agent, ''), COALESCE(ip, ''), expires_at, created_at
		 FROM sessions WHERE refresh_token = $1`, tokenHash).
		Scan(&session.ID, &session.UserID, &session.RefreshTokenHash,
			&session.UserAgent, &session.IP, &session.ExpiresAt, &session.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Session{}, ErrSessionNotFound
		}
		return Session{}, fmt.Errorf("load session: %w", err)
	}
	return session, nil
}

func (s *PostgresStore) RotateSession(ctx context.Context, id uuid.UUID, newHash string, expiresAt time.Time) error {
	if s == nil || s.Pool == nil {
		return errors.New("auth store not configured")
	}
	tag, err := s.Pool.Exec(ctx,
		`UPDATE sessions SET refresh_token = $1, expires_at = $2 WHERE id = $3`, newHash, expiresAt, id)
	if err != nil {
		return fmt.Errorf("rotate session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteSessionByToken(ctx context.Context, tokenHash string) error {
	if s == nil || s.Pool == nil {
		return errors.New("auth store not configured")
	}
	tag, err := s.Pool.Exec(ctx, `DELETE FROM sessions WHERE refresh_token = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (s *PostgresStore) DeleteSessionsByUser(ctx context.Context, userID uuid.UUID) error {
	if s == nil || s.Pool == nil {
		return errors.New("auth store not configured")
	}
	if _, err := s.Pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID); err != nil {
		return fmt.Errorf("delete sessions: %w", err)
	}
	return nil
}

func nilIfEmpty(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
