package apiclient_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"smartstay/internal/adapters/apiclient"
)

func TestRooms(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"rooms":[{"_id":"r1","roomType":"Suite","hotel":{"_id":"h1","city":"Dubai"}}]}`))
	}))
	defer ts.Close()

	rooms, err := apiclient.New(ts.URL).Rooms(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(rooms) != 1 || rooms[0].Hotel.City != "Dubai" {
		t.Fatalf("unexpected rooms: %+v", rooms)
	}
}

func TestErrorsAreTyped(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"unavailable", 503, `{"success":false,"message":"Database is connecting"}`, func(err error) bool {
			var se *apiclient.StatusError
			return errors.As(err, &se) && se.Code == 503
		}},
		{"not found", 404, `{"success":false,"message":"user user_1: not found"}`, func(err error) bool {
			return errors.Is(err, apiclient.ErrUserNotFound)
		}},
		{"failure in 200", 200, `{"success":false,"message":"boom"}`, func(err error) bool {
			var se *apiclient.StatusError
			return errors.As(err, &se) && se.Code == 200 && !errors.Is(err, apiclient.ErrUserNotFound)
		}},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		}))
		cl := apiclient.New(ts.URL, apiclient.WithToken(func(context.Context) (string, error) { return "t", nil }))
		_, err := cl.User(context.Background())
		ts.Close()
		if !tc.check(err) {
			t.Fatalf("%s: unexpected err %v", tc.name, err)
		}
	}
}

func TestUser_SendsBearer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer abc" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"success":true,"role":"hotelOwner","recentSearchedCities":["Rome"]}`))
	}))
	defer ts.Close()

	u, err := apiclient.New(ts.URL, apiclient.WithToken(func(context.Context) (string, error) { return "abc", nil })).User(context.Background())
	if err != nil || !u.IsOwner() || u.RecentSearchedCities[0] != "Rome" {
		t.Fatalf("unexpected user %+v %v", u, err)
	}
	if _, err := apiclient.New(ts.URL).User(context.Background()); !errors.Is(err, apiclient.ErrNoToken) {
		t.Fatalf("expected ErrNoToken, got %v", err)
	}
}

func TestNetworkError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := apiclient.New(url).Rooms(context.Background())
	var ne *apiclient.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("expected NetworkError, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := apiclient.New(url).Rooms(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
