package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UpdatePermissions(ctx context.Context, id string, role domain.Role, permissions []string) error
	UpdateLastActive(ctx context.Context, id string, at time.Time) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByAccount(ctx context.Context, account string) (*domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
	Search(ctx context.Context, keyword string, limit int) ([]domain.User, error)
	DeleteInactiveVisitors(ctx context.Context, cutoff time.Time) (int64, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, account, password_hash, role, permissions, status, last_active_at,
        profile_email, profile_phone, profile_nickname, profile_bio, profile_gender, profile_avatar,
        created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.Role == "" {
		user.Role = domain.RoleVisitor
	}
	if user.Status == "" {
		user.Status = domain.UserStatusActive
	}
	if len(user.Permissions) == 0 {
		user.Permissions = auth.DefaultPermissionsFor(user.Role)
	}
	if user.LastActiveAt.IsZero() {
		user.LastActiveAt = time.Now()
	}
	if user.Profile.Gender == "" {
		user.Profile.Gender = "other"
	}

	const query = `
        INSERT INTO users (account, password_hash, role, permissions, status, last_active_at,
            profile_email, profile_phone, profile_nickname, profile_bio, profile_gender, profile_avatar)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
        RETURNING id, created_at, updated_at`

	if err := r.pool.QueryRow(ctx, query,
		user.Account,
		user.PasswordHash,
		user.Role,
		user.Permissions,
		user.Status,
		user.LastActiveAt,
		user.Profile.Email,
		user.Profile.Phone,
		user.Profile.Nickname,
		user.Profile.Bio,
		user.Profile.Gender,
		user.Profile.Avatar,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return err
	}

	// Nickname and avatar defaults derive from the generated ID, so they are
	// filled after the insert returns it.
	changed := false
	if user.Profile.Nickname == "" {
		user.Profile.Nickname = defaultNickname(user.Role, user.ID)
		changed = true
	}
	if user.Profile.Avatar == "" {
		user.Profile.Avatar = defaultAvatar(user.Profile.Nickname)
		changed = true
	}
	if changed {
		const fixup = `UPDATE users SET profile_nickname=$1, profile_avatar=$2, updated_at=NOW() WHERE id=$3`
		if _, err := r.pool.Exec(ctx, fixup, user.Profile.Nickname, user.Profile.Avatar, user.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET account=$1, role=$2, status=$3,
            profile_email=$4, profile_phone=$5, profile_nickname=$6, profile_bio=$7,
            profile_gender=$8, profile_avatar=$9, updated_at=NOW()
        WHERE id=$10`

	cmd, err := r.pool.Exec(ctx, query,
		user.Account,
		user.Role,
		user.Status,
		user.Profile.Email,
		user.Profile.Phone,
		user.Profile.Nickname,
		user.Profile.Bio,
		user.Profile.Gender,
		user.Profile.Avatar,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE users SET password_hash=$1, updated_at=NOW() WHERE id=$2`
	cmd, err := r.pool.Exec(ctx, query, passwordHash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdatePermissions(ctx context.Context, id string, role domain.Role, permissions []string) error {
	const query = `UPDATE users SET role=$1, permissions=$2, updated_at=NOW() WHERE id=$3`
	cmd, err := r.pool.Exec(ctx, query, role, permissions, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) UpdateLastActive(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE users SET last_active_at=$1, updated_at=NOW() WHERE id=$2`
	_, err := r.pool.Exec(ctx, query, at, id)
	return err
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id=$1`, userColumns)
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByAccount(ctx context.Context, account string) (*domain.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE account=$1`, userColumns)
	return r.scanUser(r.pool.QueryRow(ctx, query, account))
}

func (r *userRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	const query = `SELECT COUNT(*) FROM users WHERE role=$1`
	var count int64
	if err := r.pool.QueryRow(ctx, query, role).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *userRepository) Search(ctx context.Context, keyword string, limit int) ([]domain.User, error) {
	if limit <= 0 {
		limit = 20
	}
	query := fmt.Sprintf(`
        SELECT %s FROM users
        WHERE account ILIKE '%%' || $1 || '%%' OR profile_nickname ILIKE '%%' || $1 || '%%'
        ORDER BY created_at DESC
        LIMIT $2`, userColumns)

	rows, err := r.pool.Query(ctx, query, keyword, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		user, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = ""
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) DeleteInactiveVisitors(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM users WHERE role=$1 AND last_active_at < $2`
	cmd, err := r.pool.Exec(ctx, query, domain.RoleVisitor, cutoff)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *userRepository) scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Account,
		&user.PasswordHash,
		&user.Role,
		&user.Permissions,
		&user.Status,
		&user.LastActiveAt,
		&user.Profile.Email,
		&user.Profile.Phone,
		&user.Profile.Nickname,
		&user.Profile.Bio,
		&user.Profile.Gender,
		&user.Profile.Avatar,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func defaultNickname(role domain.Role, id string) string {
	suffix := id
	if len(suffix) > 5 {
		suffix = suffix[len(suffix)-5:]
	}
	names := map[domain.Role]string{
		domain.RoleSuperAdmin: "superadmin",
		domain.RoleAdmin:      "admin",
		domain.RoleMember:     "member",
		domain.RoleVisitor:    "visitor",
	}
	name, ok := names[role]
	if !ok {
		name = "user"
	}
	return fmt.Sprintf("%s-%s", name, suffix)
}

func defaultAvatar(nickname string) string {
	return fmt.Sprintf("https://api.dicebear.com/7.x/pixel-art/svg?seed=%s&size=100", nickname)
}
