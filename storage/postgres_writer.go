package storage

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/mmcloughlin/geohash"

	"estate-scraper/models"
)

const listingColumnCount = 21

// PostgresWriter mirrors collected listings to PostgreSQL. The TSV dataset
// stays the source of truth.
type PostgresWriter struct {
	db    *sql.DB
	runID uuid.UUID
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter tagging rows with runID.
func NewPostgresWriter(dsn string, runID uuid.UUID) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 5; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db, runID: runID}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS listings (
			pk              SERIAL PRIMARY KEY,
			run_id          UUID         NOT NULL,
			listing_id      TEXT         NOT NULL,
			link            TEXT         UNIQUE NOT NULL,
			source          TEXT         NOT NULL,
			address         TEXT,
			collected_at    TIMESTAMP    NOT NULL,
			lon             TEXT         NOT NULL DEFAULT '',
			lat             TEXT         NOT NULL DEFAULT '',
			geohash         VARCHAR(12)  NOT NULL DEFAULT '',
			square_meters   NUMERIC,
			floor           NUMERIC,
			building_floors NUMERIC,
			furniture       BOOLEAN,
			height          NUMERIC,
			renovation      TEXT,
			rooms           NUMERIC,
			bathroom        NUMERIC,
			price           NUMERIC,
			price_per_meter NUMERIC,
			type            VARCHAR(16)  NOT NULL,
			rent_or_sale    VARCHAR(8)   NOT NULL,
			created_at      TIMESTAMPTZ  NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_listings_price   ON listings(price);
		CREATE INDEX IF NOT EXISTS idx_listings_source  ON listings(source);
		CREATE INDEX IF NOT EXISTS idx_listings_geohash ON listings(geohash);
		CREATE INDEX IF NOT EXISTS idx_listings_run     ON listings(run_id);
	`)
	return err
}

// Write batch-inserts listings. Links already mirrored are left untouched.
func (pw *PostgresWriter) Write(listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	const batchSize = 50
	for i := 0; i < len(listings); i += batchSize {
		end := i + batchSize
		if end > len(listings) {
			end = len(listings)
		}
		if err := pw.insertBatch(listings[i:end]); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.Listing) error {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*listingColumnCount)

	for idx, l := range batch {
		base := idx * listingColumnCount
		placeholders := make([]string, listingColumnCount)
		for j := range placeholders {
			placeholders[j] = "$" + strconv.Itoa(base+j+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			pw.runID.String(), l.ID, l.Link, l.Source, l.Address, l.Date,
			l.Location.X, l.Location.Y, Geohash(l.Location),
			l.SquareMeters, l.Floor, l.BuildingFloor, l.Furniture, l.Height, l.Renovation,
			l.Rooms, l.Bathroom, l.Price, l.PricePerMeter,
			string(l.Type), string(l.RentOrSale),
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO listings (run_id, listing_id, link, source, address, collected_at,
			lon, lat, geohash, square_meters, floor, building_floors, furniture, height,
			renovation, rooms, bathroom, price, price_per_meter, type, rent_or_sale)
		VALUES %s
		ON CONFLICT (link) DO NOTHING
	`, strings.Join(valueStrings, ","))

	_, err := pw.db.Exec(query, valueArgs...)
	return err
}

// FetchLinks returns every mirrored link. Used to seed the processed set.
func (pw *PostgresWriter) FetchLinks() ([]string, error) {
	rows, err := pw.db.Query(`SELECT link FROM listings ORDER BY pk`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch links: %w", err)
	}
	defer rows.Close()

	var links []string
	for rows.Next() {
		var link string
		if err := rows.Scan(&link); err != nil {
			return nil, fmt.Errorf("postgres: scan link: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// Geohash encodes a listing location at full precision. Locations without
// parseable coordinates yield an empty string.
func Geohash(loc models.Location) string {
	lon, err := strconv.ParseFloat(loc.X, 64)
	if err != nil {
		return ""
	}
	lat, err := strconv.ParseFloat(loc.Y, 64)
	if err != nil {
		return ""
	}
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return ""
	}
	return geohash.Encode(lat, lon)
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}
