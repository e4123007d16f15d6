package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/artist-site/internal/model"
)

type BookingRepo struct{ DB *sql.DB }

func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{DB: db} }

const bookingCols = `id,event_type,event_date,event_time,event_name,venue_name,venue_address,event_attire,
client_name,email,phone,package_type,requires_custom_arrangement,
equip_drum_set,equip_microphones,equip_visual_displays,equip_sound_system,equip_voice_over,
travel_arrangements,payment_method,total_amount,deposit_amount,deposit_paid,status,created_at`

func scanBooking(s rowScanner) (model.Booking, error) {
	var b model.Booking
	var travel sql.NullString
	err := s.Scan(&b.ID, &b.EventType, &b.EventDate, &b.EventTime, &b.EventName, &b.VenueName,
		&b.VenueAddress, &b.EventAttire, &b.ClientName, &b.Email, &b.Phone, &b.PackageType,
		&b.RequiresCustomArrangement, &b.Equipment.DrumSet, &b.Equipment.Microphones,
		&b.Equipment.VisualDisplays, &b.Equipment.SoundSystem, &b.Equipment.IsVoiceOverRequest,
		&travel, &b.PaymentMethod, &b.TotalAmount, &b.DepositAmount, &b.DepositPaid, &b.Status, &b.CreatedAt)
	b.TravelArrangements = travel.String
	return b, err
}

// Create inserts b and returns its id.
func (r *BookingRepo) Create(ctx context.Context, b model.Booking) (uint64, error) {
	var travel sql.NullString
	if b.TravelArrangements != "" {
		travel = sql.NullString{String: b.TravelArrangements, Valid: true}
	}
	res, err := r.DB.ExecContext(ctx, `INSERT INTO bookings
		(event_type,event_date,event_time,event_name,venue_name,venue_address,event_attire,
		 client_name,email,phone,package_type,requires_custom_arrangement,
		 equip_drum_set,equip_microphones,equip_visual_displays,equip_sound_system,equip_voice_over,
		 travel_arrangements,payment_method,total_amount,deposit_amount,deposit_paid,status)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		b.EventType, b.EventDate, b.EventTime, b.EventName, b.VenueName, b.VenueAddress, b.EventAttire,
		b.ClientName, b.Email, b.Phone, b.PackageType, b.RequiresCustomArrangement,
		b.Equipment.DrumSet, b.Equipment.Microphones, b.Equipment.VisualDisplays,
		b.Equipment.SoundSystem, b.Equipment.IsVoiceOverRequest,
		travel, b.PaymentMethod, b.TotalAmount, b.DepositAmount, b.DepositPaid, b.Status)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (model.Booking, error) {
	b, err := scanBooking(r.DB.QueryRowContext(ctx,
		"SELECT "+bookingCols+" FROM bookings WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return b, ErrNotFound
	}
	return b, err
}

// List returns the newest bookings first, optionally filtered by status.
func (r *BookingRepo) List(ctx context.Context, status string, limit int) ([]model.Booking, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := "SELECT " + bookingCols + " FROM bookings"
	args := []any{}
	if status != "" {
		q += " WHERE status=?"
		args = append(args, status)
	}
	q += " ORDER BY created_at DESC, id DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// UpdateStatus moves a booking from one status to another. It returns
// ErrConflict when the booking is no longer in the from status.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, from, to string, depositPaid bool) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE bookings SET status=?, deposit_paid=(deposit_paid OR ?) WHERE id=? AND status=?",
		to, depositPaid, id, from)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return ErrConflict
	}
	return nil
}
