package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/workshopops/accesscontrol/internal/core/domain/audit"
	"github.com/workshopops/accesscontrol/internal/core/ports"
	"github.com/workshopops/accesscontrol/internal/infrastructure/db"
)

// auditRepository is insert-only; the table rejects UPDATE and DELETE.
type auditRepository struct {
	ext    sqlx.ExtContext
	logger *logrus.Logger
}

// NewAuditRepository creates a new instance of AuditRepository
func NewAuditRepository(database *db.Database, logger *logrus.Logger) ports.AuditRepository {
	return &auditRepository{ext: database.DB, logger: logger}
}

const auditColumns = `id, timestamp, actor_id, actor_email, action, entity_type, entity_id,
			tenant_id, on_behalf_of_tenant, admin_session_id, details, ip_address, user_agent`

// Append inserts one event
func (r *auditRepository) Append(ctx context.Context, e *audit.Event) error {
	var detailsJSON []byte
	if len(e.Details) > 0 {
		b, err := json.Marshal(e.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal audit details: %w", err)
		}
		detailsJSON = b
	}

	query := `
		INSERT INTO audit_events (` + auditColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.ext.ExecContext(ctx, query,
		e.ID, e.Timestamp, e.ActorID, e.ActorEmail, string(e.Action), string(e.EntityType), e.EntityID,
		e.TenantID, e.OnBehalfOfTenant, e.AdminSessionID, detailsJSON, e.IPAddress, e.UserAgent)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"event_id": e.ID, "action": e.Action}).WithError(err).Error("db: failed to insert audit event")
		}
		return err
	}
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"event_id": e.ID, "action": e.Action, "entity_id": e.EntityID}).Debug("db: audit event inserted")
	}
	return nil
}

// List retrieves events matching filter, newest first
func (r *auditRepository) List(ctx context.Context, filter *audit.Filter) ([]*audit.Event, error) {
	query, args := buildAuditQuery(filter, false)
	if r.logger != nil {
		r.logger.WithFields(logrus.Fields{"query": query, "args": args}).Debug("db: executing audit list query")
	}
	rows, err := r.ext.QueryContext(ctx, query, args...)
	if err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"query": query}).WithError(err).Error("db: failed to execute audit list query")
		}
		return nil, err
	}
	defer rows.Close()

	events := []*audit.Event{}
	for rows.Next() {
		e := &audit.Event{}
		var (
			actorID, tenantID, onBehalf, sessionID uuid.NullUUID
			entityType                             string
			action                                 string
			detailsJSON                            sql.NullString
		)
		if err := rows.Scan(
			&e.ID, &e.Timestamp, &actorID, &e.ActorEmail, &action, &entityType, &e.EntityID,
			&tenantID, &onBehalf, &sessionID, &detailsJSON, &e.IPAddress, &e.UserAgent,
		); err != nil {
			return nil, err
		}
		e.Action = audit.Action(action)
		e.EntityType = audit.EntityType(entityType)
		e.ActorID = nullableUUID(actorID)
		e.TenantID = nullableUUID(tenantID)
		e.OnBehalfOfTenant = nullableUUID(onBehalf)
		e.AdminSessionID = nullableUUID(sessionID)
		if detailsJSON.Valid && detailsJSON.String != "" {
			var details map[string]any
			if err := json.Unmarshal([]byte(detailsJSON.String), &details); err != nil {
				if r.logger != nil {
					r.logger.WithFields(logrus.Fields{"event_id": e.ID}).WithError(err).Warn("db: audit event details are not valid JSON")
				}
			} else {
				e.Details = details
			}
		}
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}

	if err := rows.Err(); err != nil {
		if r.logger != nil {
			r.logger.WithError(err).Error("db: error iterating audit list rows")
		}
		return nil, err
	}
	return events, nil
}

func nullableUUID(n uuid.NullUUID) *uuid.UUID {
	if !n.Valid {
		return nil
	}
	id := n.UUID
	return &id
}

// Count returns the total number of events matching the filter
func (r *auditRepository) Count(ctx context.Context, filter *audit.Filter) (int, error) {
	query, args := buildAuditQuery(filter, true)
	var count int
	if err := sqlx.GetContext(ctx, r.ext, &count, query, args...); err != nil {
		if r.logger != nil {
			r.logger.WithFields(logrus.Fields{"query": query}).WithError(err).Error("db: failed to execute audit count query")
		}
		return 0, err
	}
	return count, nil
}

// LatestTimestamp returns the newest event timestamp of actorID. Inside a
// transaction it first takes an advisory lock on the actor, held until commit,
// so concurrent appenders for the same actor are sequenced.
func (r *auditRepository) LatestTimestamp(ctx context.Context, actorID uuid.UUID) (time.Time, error) {
	if _, err := r.ext.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, actorID.String()); err != nil {
		return time.Time{}, fmt.Errorf("failed to lock audit actor: %w", err)
	}
	var ts sql.NullTime
	query := `SELECT MAX(timestamp) FROM audit_events WHERE actor_id = $1`
	if err := sqlx.GetContext(ctx, r.ext, &ts, query, actorID); err != nil {
		return time.Time{}, fmt.Errorf("failed to read latest audit timestamp: %w", err)
	}
	if !ts.Valid {
		return time.Time{}, nil
	}
	return ts.Time.UTC(), nil
}

// likeEscaper makes free text match literally under ILIKE ... ESCAPE '\'.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildAuditQuery constructs the SQL query and arguments for listing/counting events
func buildAuditQuery(filter *audit.Filter, isCount bool) (string, []interface{}) {
	var selectClause string
	if isCount {
		selectClause = "SELECT COUNT(*)"
	} else {
		selectClause = "SELECT " + auditColumns
	}

	query := selectClause + " FROM audit_events"
	var conditions []string
	var args []interface{}
	argIndex := 1
	next := func(v any) string {
		args = append(args, v)
		p := "$" + strconv.Itoa(argIndex)
		argIndex++
		return p
	}

	if filter != nil {
		if filter.Action != nil {
			conditions = append(conditions, "action = "+next(string(*filter.Action)))
		}
		if filter.EntityType != nil {
			conditions = append(conditions, "entity_type = "+next(string(*filter.EntityType)))
		}
		if filter.ActorID != nil {
			conditions = append(conditions, "actor_id = "+next(*filter.ActorID))
		}
		if filter.TenantID != nil {
			p := next(*filter.TenantID)
			conditions = append(conditions, "(tenant_id = "+p+" OR on_behalf_of_tenant = "+p+")")
		}
		if filter.DateFrom != nil {
			conditions = append(conditions, "timestamp >= "+next(*filter.DateFrom))
		}
		if filter.DateTo != nil {
			conditions = append(conditions, "timestamp <= "+next(*filter.DateTo))
		}
		if q := strings.TrimSpace(filter.FreeText); q != "" {
			p := next("%" + likeEscaper.Replace(q) + "%")
			conditions = append(conditions, "(actor_email ILIKE "+p+" ESCAPE '\\' OR entity_id ILIKE "+p+" ESCAPE '\\' OR COALESCE(details::text, '') ILIKE "+p+" ESCAPE '\\')")
		}
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	if !isCount {
		query += " ORDER BY timestamp DESC, id DESC"
		if filter != nil {
			if filter.Limit > 0 {
				query += " LIMIT " + next(filter.Limit)
			}
			if filter.Offset > 0 {
				query += " OFFSET " + next(filter.Offset)
			}
		}
	}
	return query, args
}
