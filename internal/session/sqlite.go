package session

import (
	"context"
	"errors"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/petasbytes/datachat/internal/provider"
	"github.com/petasbytes/datachat/memory"
)

type sessionRecord struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"uniqueIndex"`
	SessionID    string
	Summary      string
	Folded       int
	InputTokens  int64
	OutputTokens int64
	TokensSaved  int64
	Summaries    int
	SavedAt      time.Time // state's own UpdatedAt; not gorm-managed
	Messages     []messageRecord `gorm:"foreignKey:SessionRecordID;constraint:OnDelete:CASCADE"`
}

func (sessionRecord) TableName() string { return "sessions" }

type messageRecord struct {
	ID              uint `gorm:"primaryKey"`
	SessionRecordID uint `gorm:"index"`
	Seq             int
	Role            string
	Text            string
	SentAt          time.Time
	Folded          bool
}

func (messageRecord) TableName() string { return "messages" }

// SQLiteStore keeps sessions in a SQLite database, one row per named session
// and one row per message. Folded messages carry folded=1.
type SQLiteStore struct {
	DB   *gorm.DB
	Path string
	Name string
}

// NewSQLiteStore opens (or creates) the database at path and migrates the schema.
func NewSQLiteStore(path, name string) (*SQLiteStore, error) {
	if name == "" {
		name = "default"
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, &Error{Op: "open", Path: path, Err: err}
	}
	if err := db.Exec("PRAGMA foreign_keys = ON;").Error; err != nil {
		return nil, &Error{Op: "open", Path: path, Err: err}
	}
	if err := db.AutoMigrate(&sessionRecord{}, &messageRecord{}); err != nil {
		return nil, &Error{Op: "migrate", Path: path, Err: err}
	}
	return &SQLiteStore{DB: db, Path: path, Name: name}, nil
}

// Load returns the named session; an unknown name yields an empty state.
func (s *SQLiteStore) Load(ctx context.Context) (memory.State, error) {
	var rec sessionRecord
	err := s.DB.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("name = ?", s.Name).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return memory.State{}, nil
		}
		return memory.State{}, &Error{Op: "load", Path: s.Path, Err: err}
	}

	st := memory.State{
		ID:      rec.SessionID,
		Summary: rec.Summary,
		Folded:  rec.Folded,
		Counters: memory.Counters{
			InputTokens:          rec.InputTokens,
			OutputTokens:         rec.OutputTokens,
			EstimatedTokensSaved: rec.TokensSaved,
			Summaries:            rec.Summaries,
		},
		UpdatedAt: rec.SavedAt,
	}
	if len(rec.Messages) > 0 {
		st.Messages = make([]memory.Message, len(rec.Messages))
		for i, m := range rec.Messages {
			st.Messages[i] = memory.Message{Role: provider.Role(m.Role), Text: m.Text, Time: m.SentAt}
		}
	}
	if err := validated(st); err != nil {
		return memory.State{}, &Error{Op: "load", Path: s.Path, Err: err}
	}
	return st, nil
}

// Save replaces the named session and all its messages in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, st memory.State) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec := sessionRecord{Name: s.Name}
		if err := tx.Where("name = ?", s.Name).FirstOrCreate(&rec).Error; err != nil {
			return err
		}
		rec.SessionID = st.ID
		rec.Summary = st.Summary
		rec.Folded = st.Folded
		rec.InputTokens = st.Counters.InputTokens
		rec.OutputTokens = st.Counters.OutputTokens
		rec.TokensSaved = st.Counters.EstimatedTokensSaved
		rec.Summaries = st.Counters.Summaries
		rec.SavedAt = st.UpdatedAt
		if err := tx.Omit("Messages").Save(&rec).Error; err != nil {
			return err
		}
		if err := tx.Where("session_record_id = ?", rec.ID).Delete(&messageRecord{}).Error; err != nil {
			return err
		}
		if len(st.Messages) == 0 {
			return nil
		}
		rows := make([]messageRecord, len(st.Messages))
		for i, m := range st.Messages {
			rows[i] = messageRecord{
				SessionRecordID: rec.ID,
				Seq:             i,
				Role:            string(m.Role),
				Text:            m.Text,
				SentAt:          m.Time,
				Folded:          i < st.Folded,
			}
		}
		return tx.CreateInBatches(rows, 200).Error
	})
	if err != nil {
		return &Error{Op: "save", Path: s.Path, Err: err}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
