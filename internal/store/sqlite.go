package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Registers the "sqlite" driver (pure Go).
	_ "modernc.org/sqlite"

	"github.com/ykvlv/coach-bot/internal/domain"
)

// SQLiteRepo implements Repo using an embedded SQLite database.
type SQLiteRepo struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (or creates) the SQLite database at the given path,
// applies PRAGMAs, runs SQL migrations, and returns a repository.
func OpenSQLite(ctx context.Context, path string) (*SQLiteRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// SQLite is a single-writer engine; one connection serialises writes
	// and keeps the version check in UpdateProfile atomic.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := applyPragmas(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	return &SQLiteRepo{db: db, now: time.Now}, nil
}

func applyPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database resources.
func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepo) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// GetProfile returns the profile of userID or ErrNotFound.
func (r *SQLiteRepo) GetProfile(ctx context.Context, userID int64) (*domain.UserProfile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM users WHERE user_id = ?`, userID)
	p, err := scanProfile(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %d: %w", userID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListActive returns all active profiles ordered by user id.
func (r *SQLiteRepo) ListActive(ctx context.Context) ([]domain.UserProfile, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+profileColumns+` FROM users WHERE active = 1 ORDER BY user_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.UserProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *p)
	}
	return res, rows.Err()
}

// UpsertProfile inserts the profile or overwrites an existing one
// unconditionally. p.Version is set to the stored version.
func (r *SQLiteRepo) UpsertProfile(ctx context.Context, p *domain.UserProfile) error {
	if p == nil {
		return errors.New("nil profile")
	}

	now := r.now().UTC().Unix()
	created := p.CreatedAt.UTC().Unix()
	if p.CreatedAt.IsZero() {
		created = now
	}

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (`+profileColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			chat_id         = excluded.chat_id,
			active          = excluded.active,
			goal            = excluded.goal,
			gender          = excluded.gender,
			age             = excluded.age,
			height_cm       = excluded.height_cm,
			activity        = excluded.activity,
			current_weight  = excluded.current_weight,
			target_weight   = excluded.target_weight,
			daily_calories  = excluded.daily_calories,
			daily_protein   = excluded.daily_protein,
			daily_fats      = excluded.daily_fats,
			daily_carbs     = excluded.daily_carbs,
			base_calories   = excluded.base_calories,
			base_protein    = excluded.base_protein,
			base_fats       = excluded.base_fats,
			base_carbs      = excluded.base_carbs,
			timezone        = excluded.timezone,
			morning_time    = excluded.morning_time,
			evening_time    = excluded.evening_time,
			water_reminders = excluded.water_reminders,
			all_disabled    = excluded.all_disabled,
			reminder_style  = excluded.reminder_style,
			version         = users.version + 1,
			updated_at      = excluded.updated_at
		RETURNING version`,
		p.UserID, p.ChatID, boolToInt(p.Active), string(p.Goal),
		string(p.Body.Gender), p.Body.Age, p.Body.HeightCM, string(p.Body.Activity),
		p.CurrentWeight, p.TargetWeight,
		p.Targets.Calories, p.Targets.Protein, p.Targets.Fats, p.Targets.Carbs,
		p.Baseline.Calories, p.Baseline.Protein, p.Baseline.Fats, p.Baseline.Carbs,
		p.Timezone, p.Reminders.MorningTime, p.Reminders.EveningTime,
		boolToInt(p.Reminders.WaterReminders), boolToInt(p.Reminders.AllDisabled),
		string(p.ReminderStyle), created, now,
	).Scan(&p.Version)
	if err != nil {
		return err
	}
	p.CreatedAt = time.Unix(created, 0).UTC()
	p.UpdatedAt = time.Unix(now, 0).UTC()
	return nil
}

// UpdateProfile writes p only if the stored version still equals p.Version.
func (r *SQLiteRepo) UpdateProfile(ctx context.Context, p *domain.UserProfile) error {
	if p == nil {
		return errors.New("nil profile")
	}
	now := r.now().UTC().Unix()

	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET
			chat_id = ?, active = ?, goal = ?,
			gender = ?, age = ?, height_cm = ?, activity = ?,
			current_weight = ?, target_weight = ?,
			daily_calories = ?, daily_protein = ?, daily_fats = ?, daily_carbs = ?,
			base_calories = ?, base_protein = ?, base_fats = ?, base_carbs = ?,
			timezone = ?, morning_time = ?, evening_time = ?,
			water_reminders = ?, all_disabled = ?, reminder_style = ?,
			version = version + 1, updated_at = ?
		WHERE user_id = ? AND version = ?`,
		p.ChatID, boolToInt(p.Active), string(p.Goal),
		string(p.Body.Gender), p.Body.Age, p.Body.HeightCM, string(p.Body.Activity),
		p.CurrentWeight, p.TargetWeight,
		p.Targets.Calories, p.Targets.Protein, p.Targets.Fats, p.Targets.Carbs,
		p.Baseline.Calories, p.Baseline.Protein, p.Baseline.Fats, p.Baseline.Carbs,
		p.Timezone, p.Reminders.MorningTime, p.Reminders.EveningTime,
		boolToInt(p.Reminders.WaterReminders), boolToInt(p.Reminders.AllDisabled),
		string(p.ReminderStyle), now,
		p.UserID, p.Version,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM users WHERE user_id = ?`, p.UserID).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return fmt.Errorf("profile %d: %w", p.UserID, ErrNotFound)
		}
		return fmt.Errorf("profile %d version %d: %w", p.UserID, p.Version, ErrConflict)
	}
	p.Version++
	p.UpdatedAt = time.Unix(now, 0).UTC()
	return nil
}

// GetRecentCheckIns returns the user's check-ins dated on or after since,
// oldest first.
func (r *SQLiteRepo) GetRecentCheckIns(ctx context.Context, userID int64, since time.Time) ([]domain.CheckIn, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+checkInColumns+`
		FROM check_ins
		WHERE user_id = ? AND date >= ?
		ORDER BY date ASC`,
		userID, since.Format(dateLayout),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var res []domain.CheckIn
	for rows.Next() {
		c, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, c)
	}
	return res, rows.Err()
}

// UpsertCheckIn creates the check-in for c.Date or merges into the existing
// one: recorded metrics in c replace stored ones, unset metrics keep theirs.
func (r *SQLiteRepo) UpsertCheckIn(ctx context.Context, c *domain.CheckIn) error {
	if c == nil {
		return errors.New("nil check-in")
	}
	now := r.now().UTC().Unix()

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO check_ins (`+checkInColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, date) DO UPDATE SET
			weight      = COALESCE(excluded.weight, check_ins.weight),
			sleep_hours = COALESCE(excluded.sleep_hours, check_ins.sleep_hours),
			mood        = CASE WHEN excluded.mood <> '' THEN excluded.mood ELSE check_ins.mood END,
			steps       = COALESCE(excluded.steps, check_ins.steps),
			water_ml    = COALESCE(excluded.water_ml, check_ins.water_ml),
			notes       = CASE WHEN excluded.notes <> '' THEN excluded.notes ELSE check_ins.notes END,
			weight_at   = COALESCE(excluded.weight_at, check_ins.weight_at),
			steps_at    = COALESCE(excluded.steps_at, check_ins.steps_at),
			updated_at  = excluded.updated_at`,
		c.UserID, c.Date.Format(dateLayout),
		toNullFloat(c.Weight), toNullFloat(c.SleepHours), string(c.Mood),
		toNullCount(c.Steps), toNullCount(c.WaterML), c.Notes,
		toNullInt64(c.WeightAt), toNullInt64(c.StepsAt),
		now, now,
	)
	return err
}
