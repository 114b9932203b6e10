package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/permission"
	"github.com/workshopops/accesscontrol/internal/core/domain/profile"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/db"
)

// ProfileRepository stores profiles. Module and sidebar permissions are JSONB documents
// decoded strictly on read.
type ProfileRepository struct {
	ext    sqlx.ExtContext
	logger *logrus.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(database *db.Database, logger *logrus.Logger) ports.ProfileRepository {
	return &ProfileRepository{ext: database.DB, logger: logger}
}

const profileColumns = `id, workshop_id, name, type, roles, custom_role_ids, module_permissions, sidebar_permissions, created_at, updated_at`

// profileRow is the storage shape of a profile.
type profileRow struct {
	ID                 uuid.UUID      `db:"id"`
	WorkshopID         uuid.NullUUID  `db:"workshop_id"`
	Name               string         `db:"name"`
	Type               string         `db:"type"`
	Roles              pq.StringArray `db:"roles"`
	CustomRoleIDs      pq.StringArray `db:"custom_role_ids"`
	ModulePermissions  []byte         `db:"module_permissions"`
	SidebarPermissions []byte         `db:"sidebar_permissions"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}

func (row *profileRow) toDomain() (*profile.Profile, error) {
	ids, err := parseUUIDs(row.CustomRoleIDs)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", row.ID, err)
	}
	ma, err := profile.DecodeModuleAccess(row.ModulePermissions)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", row.ID, err)
	}
	sb, err := profile.DecodeSidebarAccess(row.SidebarPermissions)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", row.ID, err)
	}
	p := &profile.Profile{
		ID:            row.ID,
		Name:          row.Name,
		Type:          profile.Type(row.Type),
		Roles:         toPermissions(row.Roles),
		CustomRoleIDs: ids,
		ModuleAccess:  ma,
		SidebarAccess: sb,
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
	if row.WorkshopID.Valid {
		ws := row.WorkshopID.UUID
		p.WorkshopID = &ws
	}
	return p, nil
}

func parseUUIDs(raw []string) ([]uuid.UUID, error) {
	out := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("invalid uuid %q: %w", s, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func toPermissions(raw []string) []permission.Permission {
	out := make([]permission.Permission, len(raw))
	for i, s := range raw {
		out[i] = permission.Permission(s)
	}
	return out
}

func permissionStrings(perms []permission.Permission) []string {
	out := make([]string, len(perms))
	for i, p := range perms {
		out[i] = string(p)
	}
	return out
}

func marshalDocuments(p *profile.Profile) ([]byte, []byte, error) {
	ma, err := json.Marshal(p.ModuleAccess)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal module permissions: %w", err)
	}
	sidebar := p.SidebarAccess
	if sidebar == nil {
		sidebar = map[string]permission.SidebarAccess{}
	}
	sb, err := json.Marshal(sidebar)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal sidebar permissions: %w", err)
	}
	return ma, sb, nil
}

func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	ma, sb, err := marshalDocuments(p)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO profiles (` + profileColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.ext.ExecContext(ctx, query,
		p.ID, p.WorkshopID, p.Name, string(p.Type),
		pq.Array(permissionStrings(p.Roles)), pq.Array(uuidStrings(p.CustomRoleIDs)),
		ma, sb, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"profile_id": p.ID}).WithError(err).Error("db: failed to create profile")
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	var row profileRow
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`
	if err := sqlx.GetContext(ctx, r.ext, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", id, ports.ErrNotFound)
		}
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"profile_id": id}).WithError(err).Error("db: failed to get profile")
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p, err := row.toDomain()
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"profile_id": id}).WithError(err).Error("db: stored profile is invalid")
		}
		return nil, err
	}
	return p, nil
}

// List returns global profiles plus those of workshopID, or every profile when it is nil.
func (r *ProfileRepository) List(ctx context.Context, workshopID *uuid.UUID) ([]*profile.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles`
	var args []any
	if workshopID != nil {
		query += ` WHERE workshop_id = $1 OR workshop_id IS NULL`
		args = append(args, *workshopID)
	}
	query += ` ORDER BY name ASC`

	var rows []profileRow
	if err := sqlx.SelectContext(ctx, r.ext, &rows, query, args...); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).Error("db: failed to list profiles")
		}
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	out := make([]*profile.Profile, 0, len(rows))
	for i := range rows {
		p, err := rows[i].toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	ma, sb, err := marshalDocuments(p)
	if err != nil {
		return err
	}
	query := `
		UPDATE profiles
		SET name = $1, type = $2, roles = $3, custom_role_ids = $4,
			module_permissions = $5, sidebar_permissions = $6, updated_at = $7
		WHERE id = $8`
	res, err := r.ext.ExecContext(ctx, query,
		p.Name, string(p.Type), pq.Array(permissionStrings(p.Roles)), pq.Array(uuidStrings(p.CustomRoleIDs)),
		ma, sb, p.UpdatedAt, p.ID)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"profile_id": p.ID}).WithError(err).Error("db: failed to update profile")
		}
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return requireRow(res, fmt.Sprintf("profile %s", p.ID))
}
