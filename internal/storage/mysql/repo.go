// Package mysql is the MySQL implementation of domain.Store.
package mysql

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	driver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"smartstay/internal/domain"
	"smartstay/internal/storage/gate"
)

//go:embed schema.sql
var schemaSQL string

const errDuplicateEntry = 1062

func valJSON(v []string) string {
	if v == nil {
		return "[]"
	}
	b, _ := json.Marshal(v)
	return string(b)
}

func orEmpty(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func scanJSON(b []byte) []string {
	out := []string{}
	if len(b) > 0 {
		_ = json.Unmarshal(b, &out)
	}
	return out
}

type Repo struct {
	db       *sql.DB
	migrated atomic.Bool
	stop     context.CancelFunc
	done     chan struct{}
	now      func() time.Time
}

func New(db *sql.DB) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }}
}

type Options struct {
	DSN      string
	Interval time.Duration
	Budget   time.Duration
	Health   time.Duration
}

// Open returns immediately and reports connection progress through g.
// The schema is applied the first time the server answers.
func Open(o Options, g *gate.Gate) (*Repo, error) {
	db, err := sql.Open("mysql", o.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql open: %w", err)
	}
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	r := New(db)
	r.done = make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	r.stop = cancel
	conn := &gate.Connector{Gate: g, Ping: r.ping, Interval: o.Interval, Budget: o.Budget, Health: o.Health}
	go func() {
		defer close(r.done)
		conn.Run(ctx)
	}()
	return r, nil
}

func (r *Repo) ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return err
	}
	if r.migrated.Load() {
		return nil
	}
	if err := r.Migrate(ctx); err != nil {
		return err
	}
	r.migrated.Store(true)
	return nil
}

// Migrate applies the embedded schema one statement at a time.
func (r *Repo) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	log.Debug().Msg("mysql schema applied")
	return nil
}

func (r *Repo) Close(context.Context) error {
	if r.stop != nil {
		r.stop()
		<-r.done
	}
	return r.db.Close()
}

func isDuplicate(err error) bool {
	var me *driver.MySQLError
	return errors.As(err, &me) && me.Number == errDuplicateEntry
}

func noRows(err error, kind, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return err
}

func affected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return nil
}

// ---- users ----

func (r *Repo) GetUser(ctx context.Context, id string) (domain.User, error) {
	var u domain.User
	var role string
	var cities []byte
	err := r.db.QueryRowContext(ctx, getUserSQL, id).Scan(
		&u.ID, &u.Email, &u.Username, &u.Image, &role, &cities, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return domain.User{}, noRows(err, "user", id)
	}
	u.Role = domain.Role(role)
	u.RecentSearchedCities = scanJSON(cities)
	return u, nil
}

func (r *Repo) UpsertUser(ctx context.Context, u domain.User) error {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	now := r.now()
	_, err := r.db.ExecContext(ctx, upsertUserSQL,
		u.ID, u.Email, u.Username, u.Image, string(role), valJSON(u.RecentSearchedCities), now, now,
	)
	return err
}

func (r *Repo) SetRole(ctx context.Context, id string, role domain.Role) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET role = ?, updated_at = ? WHERE id = ?`, string(role), r.now(), id)
	if err != nil {
		return err
	}
	return affected(res, "user", id)
}

func (r *Repo) SetRecentCities(ctx context.Context, id string, cities []string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET recent_searched_cities = ?, updated_at = ? WHERE id = ?`,
		valJSON(cities), r.now(), id)
	if err != nil {
		return err
	}
	return affected(res, "user", id)
}

// ---- hotels ----

func (r *Repo) CreateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	h.ID = uuid.NewString()
	h.CreatedAt = r.now()
	_, err := r.db.ExecContext(ctx, insertHotelSQL, h.ID, h.Name, h.Address, h.Contact, h.City, h.Owner, h.CreatedAt)
	if err != nil {
		if isDuplicate(err) {
			return domain.Hotel{}, fmt.Errorf("owner %s: %w", h.Owner, domain.ErrConflict)
		}
		return domain.Hotel{}, err
	}
	return h, nil
}

type scanner interface{ Scan(dest ...any) error }

func scanHotel(s scanner) (domain.Hotel, error) {
	var h domain.Hotel
	err := s.Scan(&h.ID, &h.Name, &h.Address, &h.Contact, &h.City, &h.Owner, &h.CreatedAt)
	return h, err
}

func (r *Repo) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE id = ?`, id))
	if err != nil {
		return domain.Hotel{}, noRows(err, "hotel", id)
	}
	return h, nil
}

func (r *Repo) GetHotelByOwner(ctx context.Context, owner string) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, `SELECT `+hotelColumns+` FROM hotels WHERE owner = ?`, owner))
	if err != nil {
		return domain.Hotel{}, noRows(err, "hotel of", owner)
	}
	return h, nil
}

func (r *Repo) GetHotels(ctx context.Context, ids []string) (map[string]domain.Hotel, error) {
	out := make(map[string]domain.Hotel, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	q := `SELECT ` + hotelColumns + ` FROM hotels WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out[h.ID] = h
	}
	return out, rows.Err()
}

// ---- rooms ----

func scanRoom(s scanner) (domain.Room, error) {
	var rm domain.Room
	var amen, imgs []byte
	err := s.Scan(&rm.ID, &rm.Hotel, &rm.RoomType, &rm.PricePerNight, &amen, &imgs, &rm.IsAvailable, &rm.CreatedAt, &rm.UpdatedAt)
	rm.Amenities = scanJSON(amen)
	rm.Images = scanJSON(imgs)
	return rm, err
}

func (r *Repo) CreateRoom(ctx context.Context, rm domain.Room) (domain.Room, error) {
	rm.ID = uuid.NewString()
	rm.CreatedAt = r.now()
	rm.UpdatedAt = rm.CreatedAt
	_, err := r.db.ExecContext(ctx, insertRoomSQL,
		rm.ID, rm.Hotel, rm.RoomType, rm.PricePerNight,
		valJSON(rm.Amenities), valJSON(rm.Images), rm.IsAvailable, rm.CreatedAt, rm.UpdatedAt,
	)
	if err != nil {
		return domain.Room{}, err
	}
	rm.Amenities, rm.Images = orEmpty(rm.Amenities), orEmpty(rm.Images)
	return rm, nil
}

func (r *Repo) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	rm, err := scanRoom(r.db.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, id))
	if err != nil {
		return domain.Room{}, noRows(err, "room", id)
	}
	return rm, nil
}

func (r *Repo) UpdateRoom(ctx context.Context, rm domain.Room) error {
	res, err := r.db.ExecContext(ctx, updateRoomSQL,
		rm.Hotel, rm.RoomType, rm.PricePerNight,
		valJSON(rm.Amenities), valJSON(rm.Images), rm.IsAvailable, r.now(), rm.ID,
	)
	if err != nil {
		return err
	}
	// MySQL reports 0 affected rows for a no-op update, so confirm the row exists.
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetRoom(ctx, rm.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repo) listRooms(ctx context.Context, where string, args ...any) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+roomColumns+` FROM rooms WHERE `+where+` ORDER BY created_at DESC, id DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Room{}
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rm)
	}
	return out, rows.Err()
}

func (r *Repo) ListAvailableRooms(ctx context.Context) ([]domain.Room, error) {
	return r.listRooms(ctx, `is_available = TRUE`)
}

func (r *Repo) ListRoomsByHotel(ctx context.Context, hotelID string) ([]domain.Room, error) {
	return r.listRooms(ctx, `hotel = ?`, hotelID)
}

// ---- bookings ----

func (r *Repo) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	b.ID = uuid.NewString()
	b.CreatedAt = r.now()
	_, err := r.db.ExecContext(ctx, insertBookingSQL,
		b.ID, b.User, b.Room, b.Hotel, b.CheckInDate.UTC(), b.CheckOutDate.UTC(),
		b.TotalPrice, b.Guests, string(b.Status), b.PaymentMethod, b.IsPaid, b.CreatedAt,
	)
	if err != nil {
		return domain.Booking{}, err
	}
	return b, nil
}

func (r *Repo) CountOverlapping(ctx context.Context, room string, in, out time.Time) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, countOverlappingSQL, room, out.UTC(), in.UTC()).Scan(&n)
	return n, err
}

func (r *Repo) listBookings(ctx context.Context, where string, arg string) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE `+where+` = ? ORDER BY created_at DESC, id DESC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []domain.Booking{}
	for rows.Next() {
		var b domain.Booking
		var status string
		if err := rows.Scan(&b.ID, &b.User, &b.Room, &b.Hotel, &b.CheckInDate, &b.CheckOutDate,
			&b.TotalPrice, &b.Guests, &status, &b.PaymentMethod, &b.IsPaid, &b.CreatedAt); err != nil {
			return nil, err
		}
		b.Status = domain.BookingStatus(status)
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repo) ListBookingsByUser(ctx context.Context, user string) ([]domain.Booking, error) {
	return r.listBookings(ctx, "`user`", user)
}

func (r *Repo) ListBookingsByHotel(ctx context.Context, hotel string) ([]domain.Booking, error) {
	return r.listBookings(ctx, "hotel", hotel)
}

var _ domain.Store = (*Repo)(nil)
