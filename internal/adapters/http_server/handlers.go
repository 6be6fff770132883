// internal/adapters/http_server/handlers.go
package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"smartstay/internal/app"
	"smartstay/internal/domain"
	"smartstay/internal/storage/gate"
)

// WebhookVerifier authenticates identity-provider webhook deliveries.
type WebhookVerifier interface {
	Verify(h http.Header, body []byte) error
}

type Handlers struct {
	Users    *app.UserService
	Hotels   *app.HotelService
	Rooms    *app.RoomService
	Bookings *app.BookingService
	Gate     *gate.Gate
	Tokens   TokenVerifier
	Webhooks WebhookVerifier
}

type envelope map[string]any

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("API is Working")) })
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/readyz", h.ready)

	s.mux.Route("/api", func(r chi.Router) {
		r.Use(RequireDB(h.Gate))

		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(requestTimeout), BodyLimit(jsonMaxBody))

			r.Post("/clerk", h.webhook)
			r.Get("/rooms", h.listRooms)
			r.Post("/bookings/check-availability", h.checkAvailability)

			r.Group(func(r chi.Router) {
				r.Use(Auth(h.Tokens))
				r.Get("/user", h.getUser)
				r.Post("/user/store-recent-search", h.storeRecentSearch)
				r.Post("/hotels", h.registerHotel)
				r.Get("/rooms/owner", h.ownerRooms)
				r.Post("/rooms/toggle-availability", h.toggleAvailability)
				r.Post("/bookings/book", h.createBooking)
				r.Get("/bookings/user", h.userBookings)
				r.Get("/bookings/hotel", h.hotelDashboard)
			})
		})

		// multipart uploads
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(uploadTimeout), BodyLimit(uploadMaxBody), Auth(h.Tokens))
			r.Post("/rooms", h.createRoom)
			r.Put("/rooms/{id}", h.updateRoom)
		})
	})
}

// ---- responses ----

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func writeOK(w http.ResponseWriter, body envelope) {
	if body == nil {
		body = envelope{}
	}
	body["success"] = true
	writeJSON(w, http.StatusOK, body)
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{"success": false, "message": msg})
}

// writeError maps domain errors to status codes. Unknown errors are logged and
// answered with a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("route", routeOf(r)).Msg("request failed")
		writeFail(w, status, "Something went wrong")
		return
	}
	if status == http.StatusGatewayTimeout {
		writeFail(w, status, "Request timed out")
		return
	}
	if errors.Is(err, domain.ErrDatabaseNotReady) {
		w.Header().Set("Retry-After", "3")
		writeFail(w, status, dbConnectingMessage)
		return
	}
	writeFail(w, status, err.Error())
}

func statusOf(err error) int {
	var mbe *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrInvalid):
		return http.StatusBadRequest
	case errors.As(err, &mbe):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return fmt.Errorf("malformed JSON body: %w", domain.ErrInvalid)
	}
	return nil
}

// ---- health ----

func (h *Handlers) ready(w http.ResponseWriter, r *http.Request) {
	st := h.Gate.State()
	body := envelope{"database": st.String()}
	if st != gate.Connected {
		if err := h.Gate.Err(); err != nil {
			body["error"] = err.Error()
		}
		body["success"] = false
		writeJSON(w, http.StatusServiceUnavailable, body)
		return
	}
	writeOK(w, body)
}

// ---- webhook ----

func (h *Handlers) webhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if h.Webhooks == nil {
		writeFail(w, http.StatusUnauthorized, "webhook verification is not configured")
		return
	}
	if err := h.Webhooks.Verify(r.Header, body); err != nil {
		log.Warn().Err(err).Msg("webhook rejected")
		writeFail(w, http.StatusUnauthorized, "invalid webhook signature")
		return
	}
	var evt app.WebhookEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		writeFail(w, http.StatusBadRequest, "malformed webhook payload")
		return
	}
	if err := h.Users.HandleWebhook(r.Context(), evt); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"message": "Webhook Received"})
}

// ---- users ----

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Users.Current(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"role": u.Role, "recentSearchedCities": u.RecentSearchedCities})
}

func (h *Handlers) storeRecentSearch(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RecentSearchedCity string `json:"recentSearchedCity"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	cities, err := h.Users.StoreRecentSearch(r.Context(), principalFrom(r.Context()), in.RecentSearchedCity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"message": "City added", "recentSearchedCities": cities})
}

// ---- hotels ----

func (h *Handlers) registerHotel(w http.ResponseWriter, r *http.Request) {
	var in domain.HotelInput
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	hotel, err := h.Hotels.Register(r.Context(), principalFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"message": "Hotel Registered Successfully", "hotel": hotel})
}

// ---- rooms ----

func (h *Handlers) listRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"rooms": rooms})
}

func (h *Handlers) ownerRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.Rooms.OwnerRooms(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"rooms": rooms})
}

func (h *Handlers) createRoom(w http.ResponseWriter, r *http.Request) {
	in, err := roomForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.Rooms.Create(r.Context(), principalFrom(r.Context()), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"message": "Room created successfully", "room": room})
}

func (h *Handlers) updateRoom(w http.ResponseWriter, r *http.Request) {
	in, err := roomForm(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	room, err := h.Rooms.Update(r.Context(), principalFrom(r.Context()), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"message": "Room updated successfully", "room": room})
}

func (h *Handlers) toggleAvailability(w http.ResponseWriter, r *http.Request) {
	var in struct {
		RoomID string `json:"roomId"`
	}
	if err := decode(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if in.RoomID == "" {
		writeFail(w, http.StatusBadRequest, "roomId is required")
		return
	}
	room, err := h.Rooms.ToggleAvailability(r.Context(), principalFrom(r.Context()), in.RoomID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"message": "Room availability Updated", "room": room})
}

const maxMemory = 8 << 20

// roomForm reads the multipart room form. amenities is a JSON array of strings.
func roomForm(r *http.Request) (domain.RoomInput, error) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return domain.RoomInput{}, err
		}
		return domain.RoomInput{}, fmt.Errorf("expected multipart form: %w", domain.ErrInvalid)
	}
	in := domain.RoomInput{RoomType: strings.TrimSpace(r.FormValue("roomType"))}
	if p := strings.TrimSpace(r.FormValue("pricePerNight")); p != "" {
		price, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return domain.RoomInput{}, fmt.Errorf("pricePerNight must be a number: %w", domain.ErrInvalid)
		}
		in.PricePerNight = price
	}
	if a := strings.TrimSpace(r.FormValue("amenities")); a != "" {
		if err := json.Unmarshal([]byte(a), &in.Amenities); err != nil {
			return domain.RoomInput{}, fmt.Errorf("amenities must be a JSON array of strings: %w", domain.ErrInvalid)
		}
	}
	for _, fh := range r.MultipartForm.File["images"] {
		up, err := readUpload(fh)
		if err != nil {
			return domain.RoomInput{}, err
		}
		in.Images = append(in.Images, up)
	}
	return in, nil
}

func readUpload(fh *multipart.FileHeader) (domain.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return domain.Upload{}, fmt.Errorf("open %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return domain.Upload{}, fmt.Errorf("read %s: %w", fh.Filename, err)
	}
	return domain.Upload{Name: fh.Filename, Data: data}, nil
}

// ---- bookings ----

// bookingDates accepts both RFC 3339 timestamps and plain dates (2006-01-02).
type bookingDates struct {
	Room         string `json:"room"`
	CheckInDate  string `json:"checkInDate"`
	CheckOutDate string `json:"checkOutDate"`
	Guests       int    `json:"guests"`
}

func parseDate(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, fmt.Errorf("%s is required: %w", field, domain.ErrInvalid)
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a date: %w", field, domain.ErrInvalid)
	}
	return t, nil
}

func (d bookingDates) parse() (in, out time.Time, err error) {
	if in, err = parseDate("checkInDate", d.CheckInDate); err != nil {
		return
	}
	out, err = parseDate("checkOutDate", d.CheckOutDate)
	return
}

func (h *Handlers) checkAvailability(w http.ResponseWriter, r *http.Request) {
	var body bookingDates
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	in, out, err := body.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}
	ok, err := h.Bookings.CheckAvailability(r.Context(), domain.AvailabilityQuery{Room: body.Room, CheckInDate: in, CheckOutDate: out})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"isAvailable": ok})
}

func (h *Handlers) createBooking(w http.ResponseWriter, r *http.Request) {
	var body bookingDates
	if err := decode(r, &body); err != nil {
		writeError(w, r, err)
		return
	}
	in, out, err := body.parse()
	if err != nil {
		writeError(w, r, err)
		return
	}
	b, err := h.Bookings.Create(r.Context(), principalFrom(r.Context()), domain.BookingInput{
		Room: body.Room, CheckInDate: in, CheckOutDate: out, Guests: body.Guests,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"message": "Booking created successfully", "booking": b})
}

func (h *Handlers) userBookings(w http.ResponseWriter, r *http.Request) {
	bs, err := h.Bookings.UserBookings(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"bookings": bs})
}

func (h *Handlers) hotelDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.Bookings.HotelDashboard(r.Context(), principalFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, envelope{"dashboardData": d})
}
