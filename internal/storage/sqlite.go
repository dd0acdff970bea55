package storage

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/mentorlink/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection serializes writers, so compare-and-increment never sees SQLITE_BUSY,
	// and an in-memory database stays a single database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL DEFAULT '',
		email TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL,
		companies TEXT NOT NULL DEFAULT '[]',
		domain TEXT NOT NULL DEFAULT '',
		special_tags TEXT NOT NULL DEFAULT '[]',
		milestones TEXT NOT NULL DEFAULT '[]',
		expertise TEXT NOT NULL DEFAULT '[]',
		bio TEXT NOT NULL DEFAULT '',
		institution TEXT NOT NULL DEFAULT '',
		field TEXT NOT NULL DEFAULT '',
		college_tier TEXT NOT NULL DEFAULT '',
		rating REAL NOT NULL DEFAULT 0,
		response_rate REAL NOT NULL DEFAULT 0,
		last_active INTEGER NOT NULL DEFAULT 0,
		successful_matches INTEGER NOT NULL DEFAULT 0,
		current_load INTEGER NOT NULL DEFAULT 0 CHECK (current_load >= 0),
		max_load INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_users_role_active ON users(role, last_active);

	CREATE TABLE IF NOT EXISTS questions (
		id TEXT PRIMARY KEY,
		asker_id TEXT NOT NULL,
		text TEXT NOT NULL,
		keywords TEXT NOT NULL DEFAULT '[]',
		status TEXT NOT NULL,
		mentor_id TEXT NOT NULL DEFAULT '',
		answer_card_id TEXT NOT NULL DEFAULT '',
		parent_question_id TEXT NOT NULL DEFAULT '',
		match_method TEXT NOT NULL,
		match_score REAL NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_questions_status ON questions(status);
	CREATE INDEX IF NOT EXISTS idx_questions_parent ON questions(parent_question_id);

	CREATE TABLE IF NOT EXISTS answer_cards (
		id TEXT PRIMARY KEY,
		question_id TEXT NOT NULL UNIQUE,
		mentor_id TEXT NOT NULL,
		content TEXT NOT NULL,
		embedding BLOB,
		follow_ups TEXT NOT NULL DEFAULT '[]',
		feedback TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (question_id) REFERENCES questions(id)
	);

	CREATE INDEX IF NOT EXISTS idx_cards_embedding_null ON answer_cards(id) WHERE embedding IS NULL;
	`
	_, err := db.Exec(schema)
	return err
}

// Users

const userColumns = `id, name, email, role, companies, domain, special_tags, milestones, expertise, bio,
	institution, field, college_tier, rating, response_rate, last_active, successful_matches,
	current_load, max_load`

// UpsertUser inserts or replaces a user profile.
func (s *SQLiteStorage) UpsertUser(ctx context.Context, u *models.MentorProfile) error {
	lists := make([]string, 0, 4)
	for _, l := range [][]string{u.Companies, u.SpecialTags, u.Milestones, u.Expertise} {
		b, err := marshalList(l)
		if err != nil {
			return err
		}
		lists = append(lists, b)
	}
	var lastActive int64
	if !u.LastActive.IsZero() {
		lastActive = u.LastActive.Unix()
	}
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			name = excluded.name, email = excluded.email, role = excluded.role,
			companies = excluded.companies, domain = excluded.domain,
			special_tags = excluded.special_tags, milestones = excluded.milestones,
			expertise = excluded.expertise, bio = excluded.bio, institution = excluded.institution,
			field = excluded.field, college_tier = excluded.college_tier, rating = excluded.rating,
			response_rate = excluded.response_rate, last_active = excluded.last_active,
			successful_matches = excluded.successful_matches, current_load = excluded.current_load,
			max_load = excluded.max_load, updated_at = excluded.updated_at`,
		u.ID, u.Name, u.Email, string(u.Role), lists[0], string(u.Domain), lists[1], lists[2], lists[3], u.Bio,
		u.Education.Institution, u.Education.Field, u.Education.CollegeTier, u.Rating, u.ResponseRate,
		lastActive, u.SuccessfulMatches, u.CurrentLoad, u.MaxLoad, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser returns a user by ID.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*models.MentorProfile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, err
}

// FindByIDs returns the users with the given IDs in one query. Missing IDs are skipped.
func (s *SQLiteStorage) FindByIDs(ctx context.Context, ids []string) ([]*models.MentorProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// FindEligible returns mentors whose load is below cap + slack and who were active recently.
func (s *SQLiteStorage) FindEligible(ctx context.Context, c EligibilityCriteria) ([]*models.MentorProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE role = ? AND current_load < max_load + ? AND last_active >= ? AND id != ?
		 ORDER BY id`,
		string(models.RoleMentor), c.LoadSlack, c.ActiveSince.Unix(), c.ExcludeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanUsers(rows)
}

// ListCompanies returns every company declared by a mentor.
func (s *SQLiteStorage) ListCompanies(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT companies FROM users WHERE role = ?`, string(models.RoleMentor))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seen := make(map[string]struct{})
	var out []string
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		for _, c := range unmarshalList(raw) {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.MentorProfile, error) {
	var u models.MentorProfile
	var role, domain, companies, tags, milestones, expertise string
	var lastActive int64
	err := row.Scan(&u.ID, &u.Name, &u.Email, &role, &companies, &domain, &tags, &milestones, &expertise,
		&u.Bio, &u.Education.Institution, &u.Education.Field, &u.Education.CollegeTier, &u.Rating,
		&u.ResponseRate, &lastActive, &u.SuccessfulMatches, &u.CurrentLoad, &u.MaxLoad)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.Domain = models.Domain(domain)
	u.Companies = unmarshalList(companies)
	u.SpecialTags = unmarshalList(tags)
	u.Milestones = unmarshalList(milestones)
	u.Expertise = unmarshalList(expertise)
	if lastActive > 0 {
		u.LastActive = time.Unix(lastActive, 0).UTC()
	}
	return &u, nil
}

func scanUsers(rows *sql.Rows) ([]*models.MentorProfile, error) {
	var out []*models.MentorProfile
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// Questions

const questionColumns = `id, asker_id, text, keywords, status, mentor_id, answer_card_id,
	parent_question_id, match_method, match_score, created_at, updated_at`

// CreateQuestion inserts a question.
func (s *SQLiteStorage) CreateQuestion(ctx context.Context, q *models.Question) error {
	return insertQuestion(ctx, s.db, q)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertQuestion(ctx context.Context, db execer, q *models.Question) error {
	keywords, err := marshalList(q.Keywords)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	q.CreatedAt = now
	q.UpdatedAt = now
	_, err = db.ExecContext(ctx,
		`INSERT INTO questions (`+questionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.AskerID, q.Text, keywords, string(q.Status), q.MentorID, q.AnswerCardID,
		q.ParentQuestionID, string(q.MatchMethod), q.MatchScore, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert question: %w", err)
	}
	return nil
}

// GetQuestion returns a question by ID.
func (s *SQLiteStorage) GetQuestion(ctx context.Context, id string) (*models.Question, error) {
	var q models.Question
	var keywords, status, method string
	err := s.db.QueryRowContext(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ?`, id,
	).Scan(&q.ID, &q.AskerID, &q.Text, &keywords, &status, &q.MentorID, &q.AnswerCardID,
		&q.ParentQuestionID, &method, &q.MatchScore, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	q.Keywords = unmarshalList(keywords)
	q.Status = models.QuestionStatus(status)
	q.MatchMethod = models.MatchMethod(method)
	return &q, nil
}

// UpdateQuestionStatus moves a question to status to, only if its current status is one of from.
func (s *SQLiteStorage) UpdateQuestionStatus(ctx context.Context, id string, from []models.QuestionStatus, to models.QuestionStatus) error {
	return updateStatus(ctx, s.db, id, from, to)
}

func updateStatus(ctx context.Context, db execer, id string, from []models.QuestionStatus, to models.QuestionStatus) error {
	args := []any{string(to), time.Now().UTC(), id}
	for _, f := range from {
		args = append(args, string(f))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	res, err := db.ExecContext(ctx,
		`UPDATE questions SET status = ?, updated_at = ? WHERE id = ? AND status IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return fmt.Errorf("failed to update question status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("question %s: %w", id, ErrStateChanged)
	}
	return nil
}

// AssignQuestion performs the compare-and-increment on the mentor's load and inserts q
// in one transaction.
func (s *SQLiteStorage) AssignQuestion(ctx context.Context, q *models.Question, mentorID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE users SET current_load = current_load + 1, updated_at = ?
		 WHERE id = ? AND role = ? AND current_load < max_load`,
		time.Now().UTC(), mentorID, string(models.RoleMentor),
	)
	if err != nil {
		return fmt.Errorf("failed to increment load: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mentor %s: %w", mentorID, ErrLoadContention)
	}
	q.MentorID = mentorID
	if err := insertQuestion(ctx, tx, q); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateFollowUp inserts q only while cardID has fewer than limit follow-ups that are
// open or answered. Follow-ups hang off any question answered by the card, so the
// count spans every asker who reused it; closed follow-ups free their slot.
func (s *SQLiteStorage) CreateFollowUp(ctx context.Context, q *models.Question, cardID string, limit int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM questions
		 WHERE status != ?
		   AND parent_question_id IN (SELECT id FROM questions WHERE answer_card_id = ?)`,
		string(models.StatusClosed), cardID,
	).Scan(&count); err != nil {
		return err
	}
	if count >= limit {
		return fmt.Errorf("card %s follow-ups: %w", cardID, ErrLimitReached)
	}
	if err := insertQuestion(ctx, tx, q); err != nil {
		return err
	}
	return tx.Commit()
}

// CloseAssignment closes an open assignment and releases the mentor's load slot.
func (s *SQLiteStorage) CloseAssignment(ctx context.Context, q *models.Question) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateStatus(ctx, tx, q.ID,
		[]models.QuestionStatus{models.StatusMentorAssigned, models.StatusAwaitingExperience},
		models.StatusClosed); err != nil {
		return err
	}
	if err := decrementLoad(ctx, tx, q.MentorID, false); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	q.Status = models.StatusClosed
	return nil
}

func decrementLoad(ctx context.Context, db execer, mentorID string, matched bool) error {
	inc := 0
	if matched {
		inc = 1
	}
	res, err := db.ExecContext(ctx,
		`UPDATE users SET current_load = current_load - 1, successful_matches = successful_matches + ?,
		 updated_at = ? WHERE id = ? AND current_load > 0`,
		inc, time.Now().UTC(), mentorID,
	)
	if err != nil {
		return fmt.Errorf("failed to decrement load: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("mentor %s: %w", mentorID, ErrLoadUnderflow)
	}
	return nil
}

// Cards

const cardColumns = `id, question_id, mentor_id, content, embedding, follow_ups, feedback, created_at, updated_at`

// CompleteWithCard inserts card, moves q to experience_submitted linked to it, and
// releases the mentor's load slot, in one transaction.
func (s *SQLiteStorage) CompleteWithCard(ctx context.Context, q *models.Question, card *models.AnswerCard) error {
	content, err := json.Marshal(card.Content)
	if err != nil {
		return fmt.Errorf("failed to marshal content: %w", err)
	}
	if card.FollowUps == nil {
		card.FollowUps = []models.FollowUp{}
	}
	followUps, err := json.Marshal(card.FollowUps)
	if err != nil {
		return fmt.Errorf("failed to marshal follow-ups: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	card.CreatedAt = now
	card.UpdatedAt = now
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO answer_cards (`+cardColumns+`) VALUES (?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		card.ID, card.QuestionID, card.MentorID, string(content), encodeVector(card.Embedding),
		string(followUps), card.CreatedAt, card.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to insert card: %w", err)
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE questions SET status = ?, answer_card_id = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?) AND answer_card_id = ''`,
		string(models.StatusExperienceSubmitted), card.ID, now, q.ID,
		string(models.StatusMentorAssigned), string(models.StatusAwaitingExperience),
	)
	if err != nil {
		return fmt.Errorf("failed to link card: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("question %s: %w", q.ID, ErrStateChanged)
	}
	if err := decrementLoad(ctx, tx, card.MentorID, true); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	q.Status = models.StatusExperienceSubmitted
	q.AnswerCardID = card.ID
	return nil
}

// GetCard returns a card by ID.
func (s *SQLiteStorage) GetCard(ctx context.Context, id string) (*models.AnswerCard, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+cardColumns+` FROM answer_cards WHERE id = ?`, id)
	card, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("card %s: %w", id, ErrNotFound)
	}
	return card, err
}

// AppendFollowUp appends fu to the card while it has fewer than limit follow-ups and
// delivers the follow-up question.
func (s *SQLiteStorage) AppendFollowUp(ctx context.Context, cardID string, fu models.FollowUp, limit int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT follow_ups FROM answer_cards WHERE id = ?`, cardID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	var list []models.FollowUp
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return fmt.Errorf("failed to unmarshal follow-ups: %w", err)
	}
	if len(list) >= limit {
		return fmt.Errorf("card %s follow-ups: %w", cardID, ErrLimitReached)
	}
	list = append(list, fu)
	b, err := json.Marshal(list)
	if err != nil {
		return fmt.Errorf("failed to marshal follow-ups: %w", err)
	}
	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx,
		`UPDATE answer_cards SET follow_ups = ?, updated_at = ? WHERE id = ?`, string(b), now, cardID,
	); err != nil {
		return fmt.Errorf("failed to update follow-ups: %w", err)
	}
	if err := updateStatus(ctx, tx, fu.QuestionID,
		[]models.QuestionStatus{models.StatusMentorAssigned, models.StatusAwaitingExperience},
		models.StatusDelivered); err != nil {
		return err
	}
	return tx.Commit()
}

// SetCardEmbedding stores the card's embedding.
func (s *SQLiteStorage) SetCardEmbedding(ctx context.Context, cardID string, embedding []float32) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE answer_cards SET embedding = ?, updated_at = ? WHERE id = ?`,
		encodeVector(embedding), time.Now().UTC(), cardID,
	)
	if err != nil {
		return fmt.Errorf("failed to store embedding: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}
	return nil
}

// SetFeedback stores the asker's feedback on a card.
func (s *SQLiteStorage) SetFeedback(ctx context.Context, cardID string, fb models.Feedback) error {
	b, err := json.Marshal(fb)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE answer_cards SET feedback = ?, updated_at = ? WHERE id = ?`,
		string(b), time.Now().UTC(), cardID,
	)
	if err != nil {
		return fmt.Errorf("failed to store feedback: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("card %s: %w", cardID, ErrNotFound)
	}
	return nil
}

// ListUnvectorizedCards returns up to limit cards without an embedding, oldest first.
func (s *SQLiteStorage) ListUnvectorizedCards(ctx context.Context, limit int) ([]*models.AnswerCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM answer_cards WHERE embedding IS NULL ORDER BY created_at LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCards(rows)
}

// ListVectorizedCards returns every card that has an embedding.
func (s *SQLiteStorage) ListVectorizedCards(ctx context.Context) ([]*models.AnswerCard, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM answer_cards WHERE embedding IS NOT NULL ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanCards(rows)
}

func scanCard(row scanner) (*models.AnswerCard, error) {
	var c models.AnswerCard
	var content, followUps string
	var embedding []byte
	var feedback sql.NullString
	if err := row.Scan(&c.ID, &c.QuestionID, &c.MentorID, &content, &embedding, &followUps, &feedback,
		&c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(content), &c.Content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content: %w", err)
	}
	if err := json.Unmarshal([]byte(followUps), &c.FollowUps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal follow-ups: %w", err)
	}
	if feedback.Valid && feedback.String != "" {
		var fb models.Feedback
		if err := json.Unmarshal([]byte(feedback.String), &fb); err != nil {
			return nil, fmt.Errorf("failed to unmarshal feedback: %w", err)
		}
		c.Feedback = &fb
	}
	c.Embedding = decodeVector(embedding)
	return &c, nil
}

func scanCards(rows *sql.Rows) ([]*models.AnswerCard, error) {
	var out []*models.AnswerCard
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Stats

// Stats returns record counts.
func (s *SQLiteStorage) Stats(ctx context.Context) (*Stats, error) {
	st := &Stats{QuestionsByState: make(map[models.QuestionStatus]int64)}
	counts := []struct {
		query string
		args  []any
		dest  *int64
	}{
		{`SELECT COUNT(*) FROM users WHERE role = ?`, []any{string(models.RoleMentor)}, &st.Mentors},
		{`SELECT COUNT(*) FROM users WHERE role = ?`, []any{string(models.RoleStudent)}, &st.Students},
		{`SELECT COUNT(*) FROM questions`, nil, &st.Questions},
		{`SELECT COUNT(*) FROM answer_cards`, nil, &st.Cards},
		{`SELECT COUNT(*) FROM answer_cards WHERE embedding IS NOT NULL`, nil, &st.VectorizedCards},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, err
		}
	}
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM questions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		st.QuestionsByState[models.QuestionStatus(status)] = n
	}
	return st, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func marshalList(l []string) (string, error) {
	if l == nil {
		l = []string{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("failed to marshal list: %w", err)
	}
	return string(b), nil
}

func unmarshalList(raw string) []string {
	var out []string
	if raw == "" || json.Unmarshal([]byte(raw), &out) != nil || out == nil {
		return []string{}
	}
	return out
}

func encodeVector(v []float32) []byte {
	if len(v) == 0 {
		return nil
	}
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

func decodeVector(b []byte) []float32 {
	if len(b) == 0 {
		return nil
	}
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
