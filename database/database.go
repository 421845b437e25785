package database

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"meal-analyze-service/models"
)

// Database wraps the SQLite store for meals and settings.
type Database struct {
	db *sql.DB
}

// NewDatabase opens (or creates) the SQLite database at path and prepares
// the schema. Use ":memory:" for tests.
func NewDatabase(path string) (*Database, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	d := &Database{db: db}
	if err := d.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return d, nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// GetDB exposes the underlying handle for ad-hoc queries.
func (d *Database) GetDB() *sql.DB {
	return d.db
}

func (d *Database) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS meals (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		calories REAL NOT NULL DEFAULT 0,
		carbs REAL NOT NULL DEFAULT 0,
		protein REAL NOT NULL DEFAULT 0,
		fat REAL NOT NULL DEFAULT 0,
		fiber REAL NOT NULL DEFAULT 0,
		net_carbs REAL NOT NULL DEFAULT 0,
		serving_size REAL NOT NULL DEFAULT 100,
		unit TEXT NOT NULL DEFAULT 'g',
		source TEXT NOT NULL,
		logged_date TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_meals_logged_date ON meals(logged_date);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := d.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// SaveMeal persists one meal record.
func (d *Database) SaveMeal(m *models.MealRecord) error {
	query := `
	INSERT INTO meals (id, name, calories, carbs, protein, fat, fiber, net_carbs,
		serving_size, unit, source, logged_date, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := d.db.Exec(query,
		m.ID, m.Name, m.Calories, m.Carbs, m.Protein, m.Fat, m.Fiber, m.NetCarbs,
		m.ServingSize, m.Unit, string(m.Source), m.LoggedDate, m.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert meal: %w", err)
	}
	return nil
}

// ListMealsByDate returns all meals logged on the given date (YYYY-MM-DD),
// oldest first.
func (d *Database) ListMealsByDate(date string) ([]models.MealRecord, error) {
	return d.listMeals(`SELECT id, name, calories, carbs, protein, fat, fiber, net_carbs,
		serving_size, unit, source, logged_date, created_at
		FROM meals WHERE logged_date = ? ORDER BY created_at`, date)
}

// ListMealsBetween returns all meals with logged_date in [start, end],
// inclusive, oldest first.
func (d *Database) ListMealsBetween(start, end string) ([]models.MealRecord, error) {
	return d.listMeals(`SELECT id, name, calories, carbs, protein, fat, fiber, net_carbs,
		serving_size, unit, source, logged_date, created_at
		FROM meals WHERE logged_date >= ? AND logged_date <= ? ORDER BY logged_date, created_at`, start, end)
}

func (d *Database) listMeals(query string, args ...any) ([]models.MealRecord, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query meals: %w", err)
	}
	defer rows.Close()

	var meals []models.MealRecord
	for rows.Next() {
		var m models.MealRecord
		var source string
		var createdAt time.Time
		if err := rows.Scan(&m.ID, &m.Name, &m.Calories, &m.Carbs, &m.Protein, &m.Fat,
			&m.Fiber, &m.NetCarbs, &m.ServingSize, &m.Unit, &source, &m.LoggedDate, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan meal: %w", err)
		}
		m.Source = models.MealSource(source)
		m.CreatedAt = createdAt
		meals = append(meals, m)
	}
	return meals, rows.Err()
}

// DeleteMeal removes a meal by id. Returns sql.ErrNoRows when nothing
// matched.
func (d *Database) DeleteMeal(id string) error {
	res, err := d.db.Exec(`DELETE FROM meals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete meal: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// GetSetting returns the stored value for key, or "" when unset.
func (d *Database) GetSetting(key string) (string, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return value, nil
}

// SetSetting upserts a settings value.
func (d *Database) SetSetting(key, value string) error {
	_, err := d.db.Exec(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}
