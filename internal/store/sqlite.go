package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/rcliao/misoul/internal/annotate"
	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/model"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db       *sql.DB
	logger   *zap.Logger
	validate *validator.Validate

	mu      sync.Mutex
	entropy *rand.Rand
	lastTS  int64
}

// NewSQLiteStore opens or creates a SQLite database at the given path.
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &SQLiteStore{
		db:       db,
		logger:   logger.With(zap.String("component", "store")),
		validate: validator.New(),
		entropy:  rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// newIDAndTimestamp returns a fresh id and a strictly increasing nanosecond timestamp.
func (s *SQLiteStore) newIDAndTimestamp() (string, int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := time.Now().UnixNano()
	if ts <= s.lastTS {
		ts = s.lastTS + 1
	}
	s.lastTS = ts
	return ulid.MustNew(ulid.Timestamp(time.Unix(0, ts)), s.entropy).String(), ts
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS memories (
		id          TEXT PRIMARY KEY,
		owner       TEXT NOT NULL,
		kind        TEXT NOT NULL,
		text        TEXT,
		data        BLOB,
		description TEXT,
		mood        TEXT,
		summary     TEXT,
		timestamp   INTEGER NOT NULL,
		updated_at  INTEGER
	);
	CREATE INDEX IF NOT EXISTS idx_memories_owner_ts ON memories(owner, timestamp);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) SaveMemory(ctx context.Context, owner string, content model.Content, contentType model.Kind) (model.Memory, error) {
	if err := s.validate.Struct(saveParams{Owner: owner, ContentType: contentType}); err != nil {
		return model.Memory{}, errs.NewDomain(describe(err))
	}
	if content == nil || content.Kind() != contentType {
		return model.Memory{}, errs.NewDomain("content does not match content type")
	}
	if t, ok := content.(model.Text); ok && strings.TrimSpace(t.Body()) == "" {
		return model.Memory{}, errs.NewDomain("memory text cannot be empty")
	}

	id, ts := s.newIDAndTimestamp()
	mood, summary := annotate.Annotate(content)
	mem := model.Memory{
		ID:          id,
		Owner:       owner,
		Content:     content,
		ContentType: contentType,
		Mood:        mood,
		Summary:     summary,
		Timestamp:   ts,
	}

	text, data, desc := columns(content)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO memories (id, owner, kind, text, data, description, mood, summary, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, owner, string(contentType), text, data, desc, nullable(string(mood)), nullable(summary), ts)
	if err != nil {
		return model.Memory{}, fmt.Errorf("insert memory: %w", err)
	}

	s.logger.Debug("memory saved", zap.String("id", id), zap.String("owner", owner), zap.String("kind", string(contentType)))
	return mem, nil
}

func (s *SQLiteStore) EditMemory(ctx context.Context, id, text string, contentType model.Kind) error {
	if err := s.validate.Struct(editParams{ID: id, ContentType: contentType}); err != nil {
		return errs.NewDomain(describe(err))
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	current, err := scanMemory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.NewDomain("memory not found: " + id)
	}
	if err != nil {
		return fmt.Errorf("load memory: %w", err)
	}

	var next model.Content
	switch {
	case contentType == model.KindText:
		if strings.TrimSpace(text) == "" {
			return errs.NewDomain("memory text cannot be empty")
		}
		next = model.NewText(text)
	case contentType == current.ContentType:
		media := current.Content.(model.Media)
		next, err = media.WithDescription(text)
		if err != nil {
			return errs.NewDomain("a description is required")
		}
	default:
		return errs.NewDomain(fmt.Sprintf("cannot change a %s memory to %s without new content", current.ContentType, contentType))
	}

	mood, summary := annotate.Annotate(next)
	textCol, data, desc := columns(next)
	_, err = tx.ExecContext(ctx,
		`UPDATE memories SET kind = ?, text = ?, data = ?, description = ?, mood = ?, summary = ?, updated_at = ?
		 WHERE id = ?`,
		string(contentType), textCol, data, desc, nullable(string(mood)), nullable(summary), time.Now().UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update memory: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Debug("memory edited", zap.String("id", id), zap.String("kind", string(contentType)))
	return nil
}

func (s *SQLiteStore) DeleteMemory(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete memory: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.NewDomain("memory not found: " + id)
	}
	s.logger.Debug("memory deleted", zap.String("id", id))
	return nil
}

func (s *SQLiteStore) GetMemoriesByUser(ctx context.Context, owner string) ([]model.Memory, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+memoryColumns+` FROM memories WHERE owner = ? ORDER BY timestamp ASC, id ASC`, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	memories := []model.Memory{}
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const memoryColumns = `id, owner, kind, text, data, description, mood, summary, timestamp`

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row scanner) (model.Memory, error) {
	var m model.Memory
	var kind string
	var text, description, mood, summary sql.NullString
	var data []byte

	err := row.Scan(&m.ID, &m.Owner, &kind, &text, &data, &description, &mood, &summary, &m.Timestamp)
	if err != nil {
		return m, err
	}

	m.ContentType = model.Kind(kind)
	if m.ContentType == model.KindText {
		m.Content = model.NewText(text.String)
	} else {
		media, err := model.NewMedia(m.ContentType, data, description.String)
		if err != nil {
			return m, fmt.Errorf("memory %s: %w", m.ID, err)
		}
		m.Content = media
	}
	if mood.Valid {
		m.Mood = model.NormalizeMood(mood.String)
	}
	if summary.Valid {
		m.Summary = summary.String
	}
	return m, nil
}

func columns(c model.Content) (text, data, desc interface{}) {
	switch v := c.(type) {
	case model.Text:
		return v.Body(), nil, nil
	case model.Media:
		b := v.Data()
		if b == nil {
			b = []byte{}
		}
		return nil, b, v.Description()
	}
	return nil, nil, nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msgs := make([]string, 0, len(ve))
	for _, fe := range ve {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, strings.ToLower(fe.Field())+" is required")
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", strings.ToLower(fe.Field()), fe.Param()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of: %s", strings.ToLower(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, strings.ToLower(fe.Field())+" is invalid")
		}
	}
	return strings.Join(msgs, "; ")
}
