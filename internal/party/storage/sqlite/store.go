// Package sqlite provides the SQLite-backed party store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/CryptaEcto/Discordcakebot/internal/party/domain"
	"github.com/CryptaEcto/Discordcakebot/internal/party/storage"
	"github.com/CryptaEcto/Discordcakebot/internal/party/storage/sqlite/migrations"
	sqlitemigrate "github.com/CryptaEcto/Discordcakebot/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for party state.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a party SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=foreign_keys(ON)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := ensureForeignKeysEnabled(sqlDB); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	store := &Store{sqlDB: sqlDB}
	if err := store.runMigrations(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) runMigrations() error {
	return sqlitemigrate.ApplyMigrations(s.sqlDB, migrations.FS)
}

func ensureForeignKeysEnabled(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("sqlite db is required")
	}
	var enabled int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled); err != nil {
		return fmt.Errorf("check sqlite foreign key pragma: %w", err)
	}
	if enabled != 1 {
		return fmt.Errorf("sqlite foreign keys are disabled")
	}
	return nil
}

func (s *Store) ensureDB() error {
	if s == nil || s.sqlDB == nil {
		return errors.New("party store is not configured")
	}
	return nil
}

// CreateParty replaces any party for the same (guild, channel) key, then
// inserts the new party and its assignment rows in one transaction.
func (s *Store) CreateParty(ctx context.Context, party domain.Party) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureDB(); err != nil {
		return err
	}
	if strings.TrimSpace(party.ID) == "" {
		return fmt.Errorf("party id is required")
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create party: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM parties WHERE guild_id = ? AND channel_id = ?`,
		party.GuildID, party.ChannelID,
	); err != nil {
		return fmt.Errorf("replace existing party: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO parties (id, guild_id, channel_id, message_ref, cake_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		party.ID, party.GuildID, party.ChannelID, party.DisplayMessageRef,
		party.CakeCount, toMillis(party.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert party: %w", err)
	}

	assignedAt := toMillis(party.CreatedAt)
	for roleID, members := range party.Assignments {
		for _, member := range members {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO role_assignments (party_id, user_id, display_name, role_id, assigned_at)
				VALUES (?, ?, ?, ?, ?)`,
				party.ID, member.UserID, member.DisplayName, string(roleID), assignedAt,
			); err != nil {
				return fmt.Errorf("insert assignment: %w", err)
			}
			assignedAt++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create party: %w", err)
	}
	return nil
}

// FetchParty reconstructs a party and its role-assignment map.
func (s *Store) FetchParty(ctx context.Context, guildID, channelID string) (domain.Party, error) {
	if err := ctx.Err(); err != nil {
		return domain.Party{}, err
	}
	if err := s.ensureDB(); err != nil {
		return domain.Party{}, err
	}

	var party domain.Party
	var createdAt int64
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT id, guild_id, channel_id, message_ref, cake_count, created_at
		FROM parties WHERE guild_id = ? AND channel_id = ?`,
		guildID, channelID,
	).Scan(&party.ID, &party.GuildID, &party.ChannelID, &party.DisplayMessageRef,
		&party.CakeCount, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Party{}, storage.ErrNotFound
		}
		return domain.Party{}, fmt.Errorf("fetch party: %w", err)
	}
	party.CreatedAt = fromMillis(createdAt)
	party.Assignments = make(map[domain.RoleID][]domain.Member)

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT role_id, user_id, display_name
		FROM role_assignments WHERE party_id = ?
		ORDER BY assigned_at, rowid`,
		party.ID,
	)
	if err != nil {
		return domain.Party{}, fmt.Errorf("fetch assignments: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var roleID string
		var member domain.Member
		if err := rows.Scan(&roleID, &member.UserID, &member.DisplayName); err != nil {
			return domain.Party{}, fmt.Errorf("scan assignment: %w", err)
		}
		party.Assignments[domain.RoleID(roleID)] = append(party.Assignments[domain.RoleID(roleID)], member)
	}
	if err := rows.Err(); err != nil {
		return domain.Party{}, fmt.Errorf("iterate assignments: %w", err)
	}

	return party, nil
}

// DeleteParty removes a party; assignment rows cascade.
func (s *Store) DeleteParty(ctx context.Context, guildID, channelID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureDB(); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`DELETE FROM parties WHERE guild_id = ? AND channel_id = ?`,
		guildID, channelID,
	)
	if err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	return nil
}

// SetDisplayMessageRef stores the rendered-message reference for a party.
func (s *Store) SetDisplayMessageRef(ctx context.Context, partyID, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureDB(); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE parties SET message_ref = ? WHERE id = ?`,
		ref, partyID,
	)
	if err != nil {
		return fmt.Errorf("set message ref: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set message ref result: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// ReplaceUserRole clears the user's assignments (keeping exceptRoleID when
// set) and inserts one row for roleID, atomically.
func (s *Store) ReplaceUserRole(ctx context.Context, partyID string, member domain.Member, roleID domain.RoleID, exceptRoleID domain.RoleID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureDB(); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace role: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := clearUserRolesTx(ctx, tx, partyID, member.UserID, exceptRoleID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO role_assignments (party_id, user_id, display_name, role_id, assigned_at)
		VALUES (?, ?, ?, ?, ?)`,
		partyID, member.UserID, member.DisplayName, string(roleID), time.Now().UTC().UnixMilli(),
	); err != nil {
		return fmt.Errorf("insert assignment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace role: %w", err)
	}
	return nil
}

// ClearUserRoles removes the user's assignment rows, keeping exceptRoleID's
// row when set.
func (s *Store) ClearUserRoles(ctx context.Context, partyID, userID string, exceptRoleID domain.RoleID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureDB(); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin clear roles: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := clearUserRolesTx(ctx, tx, partyID, userID, exceptRoleID); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit clear roles: %w", err)
	}
	return nil
}

func clearUserRolesTx(ctx context.Context, tx *sql.Tx, partyID, userID string, exceptRoleID domain.RoleID) error {
	var err error
	if exceptRoleID == "" {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM role_assignments WHERE party_id = ? AND user_id = ?`,
			partyID, userID,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`DELETE FROM role_assignments WHERE party_id = ? AND user_id = ? AND role_id != ?`,
			partyID, userID, string(exceptRoleID),
		)
	}
	if err != nil {
		return fmt.Errorf("clear assignments: %w", err)
	}
	return nil
}

var _ storage.PartyStore = (*Store)(nil)
