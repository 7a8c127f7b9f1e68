package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/hiersearch/helper"
	"github.com/siherrmann/hiersearch/model"
	loadSql "github.com/siherrmann/hiersearch/sql"
)

// EntriesDBHandlerFunctions defines the interface for Entries database operations.
type EntriesDBHandlerFunctions interface {
	UpsertEntry(ctx context.Context, entry *model.Entry) error
	SelectEntry(ctx context.Context, rid uuid.UUID) (*model.Entry, error)
	SelectEntryByOriginalHash(ctx context.Context, originalHash string) (*model.Entry, error)
	SelectAllEntries(ctx context.Context, lastCreatedAt *time.Time, limit int) ([]*model.Entry, error)
	DeleteEntry(ctx context.Context, rid uuid.UUID) error
}

// EntriesDBHandler handles entry-related database operations
type EntriesDBHandler struct {
	db *helper.Database
}

// NewEntriesDBHandler creates a new entries database handler.
// It initializes the database connection and loads entry-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewEntriesDBHandler(db *helper.Database, force bool) (*EntriesDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	entriesDbHandler := &EntriesDBHandler{
		db: db,
	}

	err := loadSql.LoadEntriesSql(entriesDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load entries sql", err)
	}

	err = entriesDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized EntriesDBHandler")

	return entriesDbHandler, nil
}

// CreateTable creates the 'entries' table in the database.
// If the table already exists, it does not create it again.
func (h *EntriesDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_entries();`)
	if err != nil {
		log.Panicf("error initializing entries table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table entries")

	return nil
}

// UpsertEntry inserts an entry or updates the entry with the same original hash.
// ID, RID and the timestamps are set from the stored row.
func (h *EntriesDBHandler) UpsertEntry(ctx context.Context, entry *model.Entry) error {
	if entry.OriginalHash == "" {
		return helper.NewError("entry validation", fmt.Errorf("original hash is empty"))
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM upsert_entry($1, $2, $3, $4, $5, $6, $7)`,
		entry.OriginalHash,
		entry.Path,
		entry.Title,
		string(entry.Type),
		entry.Language,
		timeOrNil(entry.FirstSeenDate),
		entry.ChunkCount,
	)

	stored, err := scanEntry(row)
	if err != nil {
		return helper.NewError("scan", err)
	}
	*entry = *stored

	return nil
}

// SelectEntry retrieves an entry by RID
func (h *EntriesDBHandler) SelectEntry(ctx context.Context, rid uuid.UUID) (*model.Entry, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_entry($1)`,
		rid,
	)

	entry, err := scanEntry(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entry, nil
}

// SelectEntryByOriginalHash retrieves an entry by the hash of its path and content
func (h *EntriesDBHandler) SelectEntryByOriginalHash(ctx context.Context, originalHash string) (*model.Entry, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_entry_by_original_hash($1)`,
		originalHash,
	)

	entry, err := scanEntry(row)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return entry, nil
}

// SelectAllEntries retrieves entries created after lastCreatedAt, oldest first.
// A nil lastCreatedAt starts from the first entry.
func (h *EntriesDBHandler) SelectAllEntries(ctx context.Context, lastCreatedAt *time.Time, limit int) ([]*model.Entry, error) {
	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_all_entries($1, $2)`,
		lastCreatedAt,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var entries []*model.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		entries = append(entries, entry)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return entries, nil
}

// DeleteEntry deletes an entry by RID
func (h *EntriesDBHandler) DeleteEntry(ctx context.Context, rid uuid.UUID) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_entry($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanEntry(row rowScanner) (*model.Entry, error) {
	entry := &model.Entry{}

	var entryType string
	var firstSeenDate sql.NullTime
	err := row.Scan(
		&entry.ID,
		&entry.RID,
		&entry.OriginalHash,
		&entry.Path,
		&entry.Title,
		&entryType,
		&entry.Language,
		&firstSeenDate,
		&entry.ChunkCount,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Type = model.EntryType(entryType)
	if firstSeenDate.Valid {
		entry.FirstSeenDate = firstSeenDate.Time
	}

	return entry, nil
}
