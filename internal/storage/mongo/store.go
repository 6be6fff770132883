// Package mongo is the MongoDB implementation of domain.Store.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	mgo "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"smartstay/internal/domain"
	"smartstay/internal/storage/gate"
)

const (
	usersColl    = "users"
	hotelsColl   = "hotels"
	roomsColl    = "rooms"
	bookingsColl = "bookings"
)

type Options struct {
	URI      string
	Database string
	Interval time.Duration // ping interval while connecting
	Budget   time.Duration // connect budget before the gate reports disconnected
	Health   time.Duration // ping interval once connected
}

type Store struct {
	client   *mgo.Client
	db       *mgo.Database
	indexed  atomic.Bool
	stop     context.CancelFunc
	done     chan struct{}
	now      func() time.Time
	users    *mgo.Collection
	hotels   *mgo.Collection
	rooms    *mgo.Collection
	bookings *mgo.Collection
}

// Open creates the client and returns immediately; connection progress is
// reported through g while a background connector pings the server.
func Open(ctx context.Context, o Options, g *gate.Gate) (*Store, error) {
	if o.Interval <= 0 {
		o.Interval = 500 * time.Millisecond
	}
	client, err := mgo.Connect(ctx, options.Client().
		ApplyURI(o.URI).
		SetServerSelectionTimeout(o.Interval*4).
		SetAppName("smartstay"))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	db := client.Database(o.Database)
	s := &Store{
		client:   client,
		db:       db,
		done:     make(chan struct{}),
		now:      func() time.Time { return time.Now().UTC() },
		users:    db.Collection(usersColl),
		hotels:   db.Collection(hotelsColl),
		rooms:    db.Collection(roomsColl),
		bookings: db.Collection(bookingsColl),
	}
	runCtx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	conn := &gate.Connector{Gate: g, Ping: s.ping, Interval: o.Interval, Budget: o.Budget, Health: o.Health}
	go func() {
		defer close(s.done)
		conn.Run(runCtx)
	}()
	return s, nil
}

// ping also creates indexes the first time the server answers.
func (s *Store) ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	if s.indexed.Load() {
		return nil
	}
	if err := s.ensureIndexes(ctx); err != nil {
		return fmt.Errorf("mongo indexes: %w", err)
	}
	s.indexed.Store(true)
	return nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	specs := map[*mgo.Collection][]mgo.IndexModel{
		s.hotels: {
			{Keys: bson.D{{Key: "owner", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.rooms: {
			{Keys: bson.D{{Key: "isAvailable", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "hotel", Value: 1}}},
		},
		s.bookings: {
			{Keys: bson.D{{Key: "room", Value: 1}, {Key: "checkInDate", Value: 1}}},
			{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "hotel", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for c, models := range specs {
		if _, err := c.Indexes().CreateMany(ctx, models); err != nil {
			return err
		}
	}
	log.Debug().Str("db", s.db.Name()).Msg("mongo indexes ensured")
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	s.stop()
	<-s.done
	return s.client.Disconnect(ctx)
}

func oid(kind, id string) (primitive.ObjectID, error) {
	o, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return o, nil
}

func notFound(err error, kind, id string) error {
	if errors.Is(err, mgo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", kind, id, domain.ErrNotFound)
	}
	return err
}

// ---- users ----

func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	var d userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		return domain.User{}, notFound(err, "user", id)
	}
	return d.toDomain(), nil
}

func (s *Store) UpsertUser(ctx context.Context, u domain.User) error {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	now := s.now()
	update := bson.M{
		"$set": bson.M{
			"email":     u.Email,
			"username":  u.Username,
			"image":     u.Image,
			"updatedAt": now,
		},
		"$setOnInsert": bson.M{
			"role":                 string(role),
			"recentSearchedCities": strs(u.RecentSearchedCities),
			"createdAt":            now,
		},
	}
	_, err := s.users.UpdateOne(ctx, bson.M{"_id": u.ID}, update, options.Update().SetUpsert(true))
	return err
}

func (s *Store) setUser(ctx context.Context, id string, fields bson.M) error {
	fields["updatedAt"] = s.now()
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) SetRole(ctx context.Context, id string, role domain.Role) error {
	return s.setUser(ctx, id, bson.M{"role": string(role)})
}

func (s *Store) SetRecentCities(ctx context.Context, id string, cities []string) error {
	return s.setUser(ctx, id, bson.M{"recentSearchedCities": strs(cities)})
}

// ---- hotels ----

func (s *Store) CreateHotel(ctx context.Context, h domain.Hotel) (domain.Hotel, error) {
	d := hotelDoc{
		ID:        primitive.NewObjectID(),
		Name:      h.Name,
		Address:   h.Address,
		Contact:   h.Contact,
		City:      h.City,
		Owner:     h.Owner,
		CreatedAt: s.now(),
	}
	if _, err := s.hotels.InsertOne(ctx, d); err != nil {
		if mgo.IsDuplicateKeyError(err) {
			return domain.Hotel{}, fmt.Errorf("owner %s: %w", h.Owner, domain.ErrConflict)
		}
		return domain.Hotel{}, err
	}
	return d.toDomain(), nil
}

func (s *Store) GetHotel(ctx context.Context, id string) (domain.Hotel, error) {
	o, err := oid("hotel", id)
	if err != nil {
		return domain.Hotel{}, err
	}
	var d hotelDoc
	if err := s.hotels.FindOne(ctx, bson.M{"_id": o}).Decode(&d); err != nil {
		return domain.Hotel{}, notFound(err, "hotel", id)
	}
	return d.toDomain(), nil
}

func (s *Store) GetHotelByOwner(ctx context.Context, owner string) (domain.Hotel, error) {
	var d hotelDoc
	if err := s.hotels.FindOne(ctx, bson.M{"owner": owner}).Decode(&d); err != nil {
		return domain.Hotel{}, notFound(err, "hotel of", owner)
	}
	return d.toDomain(), nil
}

func (s *Store) GetHotels(ctx context.Context, ids []string) (map[string]domain.Hotel, error) {
	out := make(map[string]domain.Hotel, len(ids))
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if o, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, o)
		}
	}
	if len(oids) == 0 {
		return out, nil
	}
	cur, err := s.hotels.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var docs []hotelDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		h := d.toDomain()
		out[h.ID] = h
	}
	return out, nil
}

// ---- rooms ----

func (s *Store) CreateRoom(ctx context.Context, r domain.Room) (domain.Room, error) {
	now := s.now()
	r.CreatedAt, r.UpdatedAt = now, now
	d := fromRoom(r, primitive.NewObjectID())
	if _, err := s.rooms.InsertOne(ctx, d); err != nil {
		return domain.Room{}, err
	}
	return d.toDomain(), nil
}

func (s *Store) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	o, err := oid("room", id)
	if err != nil {
		return domain.Room{}, err
	}
	var d roomDoc
	if err := s.rooms.FindOne(ctx, bson.M{"_id": o}).Decode(&d); err != nil {
		return domain.Room{}, notFound(err, "room", id)
	}
	return d.toDomain(), nil
}

func (s *Store) UpdateRoom(ctx context.Context, r domain.Room) error {
	o, err := oid("room", r.ID)
	if err != nil {
		return err
	}
	res, err := s.rooms.UpdateOne(ctx, bson.M{"_id": o}, bson.M{"$set": bson.M{
		"hotel":         r.Hotel,
		"roomType":      r.RoomType,
		"pricePerNight": r.PricePerNight,
		"amenities":     strs(r.Amenities),
		"images":        strs(r.Images),
		"isAvailable":   r.IsAvailable,
		"updatedAt":     s.now(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("room %s: %w", r.ID, domain.ErrNotFound)
	}
	return nil
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})

func (s *Store) findRooms(ctx context.Context, filter bson.M) ([]domain.Room, error) {
	cur, err := s.rooms.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, err
	}
	var docs []roomDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Room, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *Store) ListAvailableRooms(ctx context.Context) ([]domain.Room, error) {
	return s.findRooms(ctx, bson.M{"isAvailable": true})
}

func (s *Store) ListRoomsByHotel(ctx context.Context, hotelID string) ([]domain.Room, error) {
	return s.findRooms(ctx, bson.M{"hotel": hotelID})
}

// ---- bookings ----

func (s *Store) CreateBooking(ctx context.Context, b domain.Booking) (domain.Booking, error) {
	d := bookingDoc{
		ID:            primitive.NewObjectID(),
		User:          b.User,
		Room:          b.Room,
		Hotel:         b.Hotel,
		CheckInDate:   b.CheckInDate,
		CheckOutDate:  b.CheckOutDate,
		TotalPrice:    b.TotalPrice,
		Guests:        b.Guests,
		Status:        string(b.Status),
		PaymentMethod: b.PaymentMethod,
		IsPaid:        b.IsPaid,
		CreatedAt:     s.now(),
	}
	if _, err := s.bookings.InsertOne(ctx, d); err != nil {
		return domain.Booking{}, err
	}
	return d.toDomain(), nil
}

func (s *Store) CountOverlapping(ctx context.Context, room string, in, out time.Time) (int, error) {
	n, err := s.bookings.CountDocuments(ctx, bson.M{
		"room":         room,
		"status":       bson.M{"$ne": string(domain.BookingCancelled)},
		"checkInDate":  bson.M{"$lt": out},
		"checkOutDate": bson.M{"$gt": in},
	})
	return int(n), err
}

func (s *Store) findBookings(ctx context.Context, filter bson.M) ([]domain.Booking, error) {
	cur, err := s.bookings.Find(ctx, filter, newestFirst)
	if err != nil {
		return nil, err
	}
	var docs []bookingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domain.Booking, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (s *Store) ListBookingsByUser(ctx context.Context, user string) ([]domain.Booking, error) {
	return s.findBookings(ctx, bson.M{"user": user})
}

func (s *Store) ListBookingsByHotel(ctx context.Context, hotel string) ([]domain.Booking, error) {
	return s.findBookings(ctx, bson.M{"hotel": hotel})
}

var _ domain.Store = (*Store)(nil)
