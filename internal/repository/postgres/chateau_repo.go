package postgres

import (
	"context"
	"fmt"

	"github.com/NordCoder/Chateaux/internal/domain/chateau"
	"github.com/jackc/pgx/v5"
)

var _ chateau.Repo = (*ChateauRepo)(nil)

type ChateauRepo struct {
	db *DB
}

func NewChateauRepo(db *DB) *ChateauRepo { return &ChateauRepo{db: db} }

const (
	chateauColumns = `id, chateau_name, short_description, long_description, address, latitude, longitude,
    chateau_website, opening_hours_info, spoken_languages, on_site_activities, off_site_activities,
    things_to_know, additional_info, price_range, breakfast_included, overall_capacity, theme,
    host_name, host_address, host_phone_number, host_email, host_social_media_links,
    room_descriptions, image_urls`

	qChateauInsert = `
INSERT INTO chateaus (chateau_name, short_description, long_description, address, latitude, longitude,
    chateau_website, opening_hours_info, spoken_languages, on_site_activities, off_site_activities,
    things_to_know, additional_info, price_range, breakfast_included, overall_capacity, theme,
    host_name, host_address, host_phone_number, host_email, host_social_media_links,
    room_descriptions, image_urls)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24)
RETURNING ` + chateauColumns + `;`

	qChateauByID = `
SELECT ` + chateauColumns + `
FROM chateaus
WHERE id = $1;`

	qChateauList = `
SELECT ` + chateauColumns + `
FROM chateaus
ORDER BY id;`

	qChateauByTheme = `
SELECT ` + chateauColumns + `
FROM chateaus
WHERE lower(theme) = lower($1)
ORDER BY id;`

	qChateauUpdate = `
UPDATE chateaus
SET chateau_name            = $2,
    short_description       = $3,
    long_description        = $4,
    address                 = $5,
    latitude                = $6,
    longitude               = $7,
    chateau_website         = $8,
    opening_hours_info      = $9,
    spoken_languages        = $10,
    on_site_activities      = $11,
    off_site_activities     = $12,
    things_to_know          = $13,
    additional_info         = $14,
    price_range             = $15,
    breakfast_included      = $16,
    overall_capacity        = $17,
    theme                   = $18,
    host_name               = $19,
    host_address            = $20,
    host_phone_number       = $21,
    host_email              = $22,
    host_social_media_links = $23,
    room_descriptions       = $24,
    image_urls              = $25,
    updated_at              = NOW()
WHERE id = $1
RETURNING ` + chateauColumns + `;`

	qChateauDelete = `DELETE FROM chateaus WHERE id = $1;`
)

func (r *ChateauRepo) Create(ctx context.Context, c *chateau.Chateau) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	c.Normalize()
	row := r.db.execQueryer(ctx).QueryRow(ctx, qChateauInsert, chateauArgs(c)...)
	if err := scanChateau(row, c); err != nil {
		return fmt.Errorf("chateau insert: %w", err)
	}
	return nil
}

func (r *ChateauRepo) GetByID(ctx context.Context, id int64) (*chateau.Chateau, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	var c chateau.Chateau
	if err := scanChateau(r.db.execQueryer(ctx).QueryRow(ctx, qChateauByID, id), &c); err != nil {
		if isNoRows(err) {
			return nil, chateau.ErrNotFound
		}
		return nil, fmt.Errorf("chateau by id: %w", err)
	}
	return &c, nil
}

func (r *ChateauRepo) List(ctx context.Context) ([]*chateau.Chateau, error) {
	return r.list(ctx, qChateauList)
}

func (r *ChateauRepo) ListByTheme(ctx context.Context, theme string) ([]*chateau.Chateau, error) {
	return r.list(ctx, qChateauByTheme, theme)
}

func (r *ChateauRepo) Update(ctx context.Context, c *chateau.Chateau) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	c.Normalize()
	args := append([]any{c.ID}, chateauArgs(c)...)
	if err := scanChateau(r.db.execQueryer(ctx).QueryRow(ctx, qChateauUpdate, args...), c); err != nil {
		if isNoRows(err) {
			return chateau.ErrNotFound
		}
		return fmt.Errorf("chateau update: %w", err)
	}
	return nil
}

func (r *ChateauRepo) Delete(ctx context.Context, id int64) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	tag, err := r.db.execQueryer(ctx).Exec(ctx, qChateauDelete, id)
	if err != nil {
		return fmt.Errorf("chateau delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return chateau.ErrNotFound
	}
	return nil
}

func (r *ChateauRepo) list(ctx context.Context, q string, args ...any) ([]*chateau.Chateau, error) {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.execQueryer(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("chateau list: %w", err)
	}
	defer rows.Close()

	out := make([]*chateau.Chateau, 0)
	for rows.Next() {
		var c chateau.Chateau
		if err := scanChateau(rows, &c); err != nil {
			return nil, fmt.Errorf("chateau scan: %w", err)
		}
		out = append(out, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("chateau rows: %w", err)
	}
	return out, nil
}

func chateauArgs(c *chateau.Chateau) []any {
	return []any{
		c.ChateauName, c.ShortDescription, c.LongDescription, c.Address, c.Latitude, c.Longitude,
		c.ChateauWebsite, c.OpeningHoursInfo, c.SpokenLanguages, c.OnSiteActivities, c.OffSiteActivities,
		c.ThingsToKnow, c.AdditionalInfo, c.PriceRange, c.BreakfastIncluded, c.OverallCapacity, c.Theme,
		c.HostName, c.HostAddress, c.HostPhoneNumber, c.HostEmail, c.HostSocialMediaLinks,
		c.RoomDescriptions, c.ImageURLs,
	}
}

func scanChateau(row pgx.Row, c *chateau.Chateau) error {
	return row.Scan(
		&c.ID, &c.ChateauName, &c.ShortDescription, &c.LongDescription, &c.Address, &c.Latitude, &c.Longitude,
		&c.ChateauWebsite, &c.OpeningHoursInfo, &c.SpokenLanguages, &c.OnSiteActivities, &c.OffSiteActivities,
		&c.ThingsToKnow, &c.AdditionalInfo, &c.PriceRange, &c.BreakfastIncluded, &c.OverallCapacity, &c.Theme,
		&c.HostName, &c.HostAddress, &c.HostPhoneNumber, &c.HostEmail, &c.HostSocialMediaLinks,
		&c.RoomDescriptions, &c.ImageURLs,
	)
}
