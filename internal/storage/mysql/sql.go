package mysql

// Upsert keeps role and recent cities of existing rows.
const upsertUserSQL = `
INSERT INTO users
  (id, email, username, image, role, recent_searched_cities, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  email      = VALUES(email),
  username   = VALUES(username),
  image      = VALUES(image),
  updated_at = VALUES(updated_at)
`

const getUserSQL = `
SELECT id, email, username, image, role, recent_searched_cities, created_at, updated_at
FROM users WHERE id = ?
`

const insertHotelSQL = `
INSERT INTO hotels (id, name, address, contact, city, owner, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`

const hotelColumns = `id, name, address, contact, city, owner, created_at`

const insertRoomSQL = `
INSERT INTO rooms
  (id, hotel, room_type, price_per_night, amenities, images, is_available, created_at, updated_at)
VALUES
  (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const updateRoomSQL = `
UPDATE rooms SET
  hotel           = ?,
  room_type       = ?,
  price_per_night = ?,
  amenities       = ?,
  images          = ?,
  is_available    = ?,
  updated_at      = ?
WHERE id = ?
`

const roomColumns = `id, hotel, room_type, price_per_night, amenities, images, is_available, created_at, updated_at`

const insertBookingSQL = "INSERT INTO bookings\n" +
	"  (id, `user`, room, hotel, check_in_date, check_out_date, total_price, guests, status, payment_method, is_paid, created_at)\n" +
	"VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"

// `user` is reserved in some modes; keep it quoted.
const bookingColumns = "id, `user`, room, hotel, check_in_date, check_out_date, total_price, guests, status, payment_method, is_paid, created_at"

// Half-open intervals: a stay ending on a check-in day does not overlap.
const countOverlappingSQL = `
SELECT COUNT(*) FROM bookings
WHERE room = ? AND status <> 'cancelled' AND check_in_date < ? AND check_out_date > ?
`
