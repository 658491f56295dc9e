// Package store keeps a local SQLite snapshot of listings and profiles so
// listings can be browsed and scored without reaching the backend.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/spigell/roomeo/internal/housing"
)

var ErrNotFound = housing.ErrNotFound

type SQLiteStore struct {
	db *sql.DB
}

// Filter narrows ListListings. Zero values disable the corresponding condition.
type Filter struct {
	Location string
	MinPrice float64
	MaxPrice float64
	RoomType housing.RoomType
	Limit    int
	Offset   int
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS profiles (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL DEFAULT '',
  email TEXT NOT NULL DEFAULT '',
  university TEXT NOT NULL DEFAULT '',
  program TEXT NOT NULL DEFAULT '',
  year INTEGER NOT NULL DEFAULT 0,
  bio TEXT NOT NULL DEFAULT '',
  cleanliness INTEGER NOT NULL DEFAULT 0,
  sleep_schedule TEXT NOT NULL DEFAULT '',
  gender_preference TEXT NOT NULL DEFAULT '',
  budget_min REAL NOT NULL DEFAULT 0,
  budget_max REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS listings (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL DEFAULT '',
  title TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  price REAL NOT NULL DEFAULT 0,
  start_date TEXT NOT NULL DEFAULT '',
  end_date TEXT NOT NULL DEFAULT '',
  room_type TEXT NOT NULL DEFAULT '',
  amenities_json TEXT NOT NULL DEFAULT '[]',
  description TEXT NOT NULL DEFAULT '',
  photo_urls_json TEXT NOT NULL DEFAULT '[]',
  created_at TEXT NOT NULL DEFAULT '',
  lister_profile_json TEXT NOT NULL DEFAULT ''
);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	for _, idx := range []string{
		`CREATE INDEX IF NOT EXISTS idx_listings_location ON listings(location);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_price ON listings(price);`,
		`CREATE INDEX IF NOT EXISTS idx_listings_created_at ON listings(created_at);`,
	} {
		if _, err := s.db.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) CountListings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM listings`).Scan(&n)
	return n, err
}

// UpsertListings replaces stored listings sharing an ID with the given ones.
func (s *SQLiteStore) UpsertListings(ctx context.Context, listings *housing.Listings) (int, error) {
	if listings == nil || listings.Len() == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO listings
(id, user_id, title, location, price, start_date, end_date, room_type, amenities_json, description, photo_urls_json, created_at, lister_profile_json)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, l := range listings.Items {
		if l == nil || l.ID == "" {
			continue
		}

		amenities, _ := json.Marshal(nonNilStrings(l.Amenities))
		photos, _ := json.Marshal(nonNilStrings(l.PhotoURLs))
		lister := ""
		if l.ListerProfile != nil {
			b, err := json.Marshal(l.ListerProfile)
			if err != nil {
				return n, fmt.Errorf("marshal lister profile of %s: %w", l.ID, err)
			}
			lister = string(b)
		}

		if _, err := stmt.ExecContext(ctx,
			l.ID, l.UserID, l.Title, l.Location, l.Price, l.StartDate, l.EndDate, string(l.RoomType),
			string(amenities), l.Description, string(photos), l.CreatedAt, lister,
		); err != nil {
			return n, fmt.Errorf("upsert listing %s: %w", l.ID, err)
		}
		n++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

const listingColumns = `id, user_id, title, location, price, start_date, end_date, room_type, amenities_json, description, photo_urls_json, created_at, lister_profile_json`

type scanner interface {
	Scan(dest ...any) error
}

func scanListing(row scanner) (*housing.Listing, error) {
	var (
		l                            housing.Listing
		roomType                     string
		amenities, photos, listerRaw string
	)
	if err := row.Scan(
		&l.ID, &l.UserID, &l.Title, &l.Location, &l.Price, &l.StartDate, &l.EndDate, &roomType,
		&amenities, &l.Description, &photos, &l.CreatedAt, &listerRaw,
	); err != nil {
		return nil, err
	}

	l.RoomType = housing.RoomType(roomType)
	if err := decodeColumn(amenities, &l.Amenities); err != nil {
		return nil, fmt.Errorf("listing %s amenities: %w", l.ID, err)
	}
	if err := decodeColumn(photos, &l.PhotoURLs); err != nil {
		return nil, fmt.Errorf("listing %s photo urls: %w", l.ID, err)
	}

	// Only an empty column means the listing has no lister.
	if strings.TrimSpace(listerRaw) != "" {
		var p housing.Profile
		if err := json.Unmarshal([]byte(listerRaw), &p); err != nil {
			return nil, fmt.Errorf("listing %s lister profile: %w", l.ID, err)
		}
		l.ListerProfile = &p
	}

	return &l, nil
}

func decodeColumn(raw string, target any) error {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

func (s *SQLiteStore) GetListing(ctx context.Context, id string) (*housing.Listing, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+listingColumns+` FROM listings WHERE id = ?`, id)
	l, err := scanListing(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

// ListListings returns stored listings matching the filter, newest first.
func (s *SQLiteStore) ListListings(ctx context.Context, f Filter) (*housing.Listings, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 6)

	if loc := strings.TrimSpace(f.Location); loc != "" {
		where = append(where, "LOWER(location) LIKE ?")
		args = append(args, "%"+strings.ToLower(loc)+"%")
	}
	if f.MinPrice > 0 {
		where = append(where, "price >= ?")
		args = append(args, f.MinPrice)
	}
	if f.MaxPrice > 0 {
		where = append(where, "price <= ?")
		args = append(args, f.MaxPrice)
	}
	if f.RoomType != "" {
		where = append(where, "room_type = ?")
		args = append(args, string(f.RoomType))
	}

	query := `SELECT ` + listingColumns + ` FROM listings`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"

	if f.Limit > 0 {
		offset := max(f.Offset, 0)
		query += " LIMIT ? OFFSET ?"
		args = append(args, f.Limit, offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	listings := &housing.Listings{}
	for rows.Next() {
		l, err := scanListing(rows)
		if err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings.Items = append(listings.Items, l)
	}

	return listings, rows.Err()
}

func (s *SQLiteStore) UpsertProfile(ctx context.Context, p *housing.Profile) error {
	if p == nil || p.ID == "" {
		return errors.New("profile id is required")
	}

	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO profiles
(id, name, email, university, program, year, bio, cleanliness, sleep_schedule, gender_preference, budget_min, budget_max)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`,
		p.ID, p.Name, p.Email, p.University, p.Program, p.Year, p.Bio, p.Cleanliness,
		string(p.SleepSchedule), p.GenderPreference, p.BudgetMin, p.BudgetMax,
	)
	if err != nil {
		return fmt.Errorf("upsert profile %s: %w", p.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, id string) (*housing.Profile, error) {
	var (
		p     housing.Profile
		sleep string
	)

	err := s.db.QueryRowContext(ctx, `
SELECT id, name, email, university, program, year, bio, cleanliness, sleep_schedule, gender_preference, budget_min, budget_max
FROM profiles WHERE id = ?
`, id).Scan(
		&p.ID, &p.Name, &p.Email, &p.University, &p.Program, &p.Year, &p.Bio, &p.Cleanliness,
		&sleep, &p.GenderPreference, &p.BudgetMin, &p.BudgetMax,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	p.SleepSchedule = housing.SleepSchedule(sleep)
	return &p, nil
}

func nonNilStrings(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

// Snapshot is a read-only view of the store shaped like the backend client,
// used when running offline.
type Snapshot struct {
	store *SQLiteStore
}

func (s *SQLiteStore) Snapshot() Snapshot {
	return Snapshot{store: s}
}

func (s Snapshot) GetProfile(ctx context.Context, id string) (*housing.Profile, error) {
	return s.store.GetProfile(ctx, id)
}

func (s Snapshot) GetListing(ctx context.Context, id string) (*housing.Listing, error) {
	return s.store.GetListing(ctx, id)
}

func (s Snapshot) ListListings(ctx context.Context) (*housing.Listings, error) {
	return s.store.ListListings(ctx, Filter{})
}
