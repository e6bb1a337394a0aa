package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"dating_bot/internal/model"
	"dating_bot/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// recommendCooldown is how long a pair is hidden from each other after an
// attempt was created.
const recommendCooldown = 4 * time.Hour

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetUser returns a profile by chat id, or ErrNotFound.
func (s *SQLite) GetUser(ctx context.Context, id int64) (*model.UserProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, gender, gender_filter, about, active, graduation_year,
		        grade_up_filter, grade_down_filter, subjects, subjects_filter,
		        dating_purpose, city, location_filter, last_activity
		 FROM users WHERE id = ?`, id,
	)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

// UpsertUser applies a partial profile update: nil fields keep their stored
// values, a missing row is created. The merge runs in a transaction so a
// concurrent deactivation cannot be lost.
func (s *SQLite) UpsertUser(ctx context.Context, upd *model.ProfileUpdate) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	row := tx.QueryRowContext(ctx,
		`SELECT id, name, gender, gender_filter, about, active, graduation_year,
		        grade_up_filter, grade_down_filter, subjects, subjects_filter,
		        dating_purpose, city, location_filter, last_activity
		 FROM users WHERE id = ?`, upd.ID,
	)
	u, err := scanUser(row)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		u = &model.UserProfile{
			ID:              upd.ID,
			Active:          true,
			GenderFilter:    model.FilterAny,
			LocationFilter:  model.LocationCountry,
			GradeUpFilter:   1,
			GradeDownFilter: 1,
		}
	case err != nil:
		return err
	}

	mergeUpdate(u, upd)
	u.LastActivity = s.now().UTC()

	_, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO users
		   (id, name, gender, gender_filter, about, active, graduation_year,
		    grade_up_filter, grade_down_filter, subjects, subjects_filter,
		    dating_purpose, city, location_filter, last_activity)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, string(u.Gender), string(u.GenderFilter), u.About,
		boolToInt(u.Active), int(u.GraduationYear), u.GradeUpFilter,
		u.GradeDownFilter, int32(u.Subjects), int32(u.SubjectsFilter),
		int16(u.DatingPurpose), u.City, string(u.LocationFilter),
		u.LastActivity.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return tx.Commit()
}

func mergeUpdate(u *model.UserProfile, upd *model.ProfileUpdate) {
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Gender != nil {
		u.Gender = *upd.Gender
	}
	if upd.GenderFilter != nil {
		u.GenderFilter = *upd.GenderFilter
	}
	if upd.About != nil {
		u.About = *upd.About
	}
	if upd.Active != nil {
		u.Active = *upd.Active
	}
	if upd.GraduationYear != nil {
		u.GraduationYear = *upd.GraduationYear
	}
	if upd.GradeUpFilter != nil {
		u.GradeUpFilter = *upd.GradeUpFilter
	}
	if upd.GradeDownFilter != nil {
		u.GradeDownFilter = *upd.GradeDownFilter
	}
	if upd.Subjects != nil {
		u.Subjects = *upd.Subjects
	}
	if upd.SubjectsFilter != nil {
		u.SubjectsFilter = *upd.SubjectsFilter
	}
	if upd.DatingPurpose != nil {
		u.DatingPurpose = *upd.DatingPurpose
	}
	if upd.CitySet {
		u.City = upd.City
	}
	if upd.LocationFilter != nil {
		u.LocationFilter = *upd.LocationFilter
	}
}

// CreateImage attaches a photo or video file reference to a profile.
func (s *SQLite) CreateImage(ctx context.Context, userID int64, fileID string, kind model.ImageKind) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO images (user_id, file_id, kind, created_at) VALUES (?, ?, ?, ?)`,
		userID, fileID, string(kind), s.now().UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert image: %w", err)
	}
	return nil
}

// CleanImages removes every attachment of a profile.
func (s *SQLite) CleanImages(ctx context.Context, userID int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM images WHERE user_id = ?`, userID)
	if err != nil {
		return fmt.Errorf("clean images: %w", err)
	}
	return nil
}

// GetImages returns the profile's attachments in upload order.
func (s *SQLite) GetImages(ctx context.Context, userID int64) ([]model.Image, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, file_id, kind FROM images WHERE user_id = ? ORDER BY id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query images: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var images []model.Image
	for rows.Next() {
		var img model.Image
		var kind string
		if err := rows.Scan(&img.UserID, &img.FileID, &kind); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		img.Kind = model.ImageKind(kind)
		images = append(images, img)
	}
	return images, rows.Err()
}

// GetPartner picks one eligible candidate for the requester and records a
// fresh pending dating attempt. Candidates must pass both gender filters,
// the graduation-year window, the location constraint, the subjects filter,
// and the pair must not have been introduced in either direction within the
// cool-down.
func (s *SQLite) GetPartner(ctx context.Context, req *model.UserProfile) (*model.DatingAttempt, *model.UserProfile, error) {
	query := `SELECT id, name, gender, gender_filter, about, active, graduation_year,
	                 grade_up_filter, grade_down_filter, subjects, subjects_filter,
	                 dating_purpose, city, location_filter, last_activity
	          FROM users u
	          WHERE u.active = 1
	            AND u.id != ?
	            AND (? = 'any' OR u.gender = ?)
	            AND (u.gender_filter = 'any' OR u.gender_filter = ?)
	            AND u.graduation_year BETWEEN ? AND ?
	            AND (? = 0 OR (u.subjects & ?) != 0)
	            AND NOT EXISTS (
	                SELECT 1 FROM datings d
	                WHERE ((d.initiator_id = ? AND d.partner_id = u.id)
	                       OR (d.initiator_id = u.id AND d.partner_id = ?))
	                  AND d.created_at > ?
	            )`

	cooldown := s.now().UTC().Add(-recommendCooldown).Format(timeLayout)
	args := []any{
		req.ID,
		string(req.GenderFilter), string(req.GenderFilter),
		string(req.Gender),
		int(req.GraduationYear) - req.GradeUpFilter, int(req.GraduationYear) + req.GradeDownFilter,
		int32(req.SubjectsFilter), int32(req.SubjectsFilter),
		req.ID, req.ID, cooldown,
	}

	// A requester without a city always searches country-wide.
	if req.City != nil {
		switch req.LocationFilter {
		case model.LocationCity:
			query += ` AND u.city = ?`
			args = append(args, *req.City)
		case model.LocationSubject:
			query += ` AND u.city IS NOT NULL AND (u.city >> 8) = ?`
			args = append(args, *req.City>>8)
		case model.LocationCounty:
			query += ` AND u.city IS NOT NULL AND (u.city >> 16) = ?`
			args = append(args, *req.City>>16)
		}
	}

	query += ` ORDER BY RANDOM() LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, args...)
	partner, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNoCandidates
	}
	if err != nil {
		return nil, nil, err
	}

	now := s.now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO datings (initiator_id, partner_id, created_at) VALUES (?, ?, ?)`,
		req.ID, partner.ID, now.Format(timeLayout),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("insert dating: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("last insert id: %w", err)
	}

	attempt := &model.DatingAttempt{
		ID:          id,
		InitiatorID: req.ID,
		PartnerID:   partner.ID,
		CreatedAt:   now,
	}
	return attempt, partner, nil
}

// GetDating returns a dating attempt by id, or ErrNotFound.
func (s *SQLite) GetDating(ctx context.Context, id int64) (*model.DatingAttempt, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, initiator_id, partner_id, initiator_reaction, partner_reaction,
		        initiator_msg_id, created_at
		 FROM datings WHERE id = ?`, id,
	)

	var d model.DatingAttempt
	var initiatorReaction, partnerReaction, msgID sql.NullInt64
	var created string
	err := row.Scan(&d.ID, &d.InitiatorID, &d.PartnerID,
		&initiatorReaction, &partnerReaction, &msgID, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan dating: %w", err)
	}
	if initiatorReaction.Valid {
		v := initiatorReaction.Int64 == 1
		d.InitiatorReaction = &v
	}
	if partnerReaction.Valid {
		v := partnerReaction.Int64 == 1
		d.PartnerReaction = &v
	}
	if msgID.Valid {
		v := int(msgID.Int64)
		d.InitiatorMsgID = &v
	}
	d.CreatedAt, _ = time.Parse(timeLayout, created)
	return &d, nil
}

// SetInitiatorReaction records the initiator's reaction exactly once.
// Returns ErrReactionAlreadySet when a reaction exists: the check and the
// write are one statement, so concurrent taps cannot both win.
func (s *SQLite) SetInitiatorReaction(ctx context.Context, id int64, reaction bool) error {
	return s.setReaction(ctx, id, "initiator_reaction", reaction)
}

// SetPartnerReaction records the partner's reaction exactly once.
func (s *SQLite) SetPartnerReaction(ctx context.Context, id int64, reaction bool) error {
	return s.setReaction(ctx, id, "partner_reaction", reaction)
}

func (s *SQLite) setReaction(ctx context.Context, id int64, column string, reaction bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE datings SET `+column+` = ? WHERE id = ? AND `+column+` IS NULL`,
		boolToInt(reaction), id,
	)
	if err != nil {
		return fmt.Errorf("set %s: %w", column, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		if _, err := s.GetDating(ctx, id); err != nil {
			return err
		}
		return ErrReactionAlreadySet
	}
	return nil
}

// SetDatingMsgID remembers the recommendation message so its buttons can be
// cleared later.
func (s *SQLite) SetDatingMsgID(ctx context.Context, id int64, msgID int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE datings SET initiator_msg_id = ? WHERE id = ?`, msgID, id,
	)
	if err != nil {
		return fmt.Errorf("set dating msg id: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanUser(row scannable) (*model.UserProfile, error) {
	var u model.UserProfile
	var gender, genderFilter, locationFilter, lastActivity string
	var active int
	var city sql.NullInt64
	var subjects, subjectsFilter int32
	var purpose int16
	var year int

	err := row.Scan(&u.ID, &u.Name, &gender, &genderFilter, &u.About, &active,
		&year, &u.GradeUpFilter, &u.GradeDownFilter, &subjects,
		&subjectsFilter, &purpose, &city, &locationFilter, &lastActivity)
	if err != nil {
		return nil, err
	}

	u.Gender = model.Gender(gender)
	u.GenderFilter = model.GenderFilter(genderFilter)
	u.Active = active == 1
	u.GraduationYear = model.GraduationYear(year)
	u.Subjects = model.Subjects(subjects)
	u.SubjectsFilter = model.Subjects(subjectsFilter)
	u.DatingPurpose = model.DatingPurpose(purpose)
	if city.Valid {
		v := int32(city.Int64)
		u.City = &v
	}
	u.LocationFilter = model.LocationFilter(locationFilter)
	u.LastActivity, _ = time.Parse(timeLayout, lastActivity)
	return &u, nil
}
