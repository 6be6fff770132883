package appstate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"smartstay/internal/adapters/apiclient"
	"smartstay/internal/domain"
)

// slowServer never answers within the client's timeout.
func slowServer(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		select {
		case <-time.After(200 * time.Millisecond):
		case <-r.Context().Done():
		}
		_, _ = w.Write([]byte(`{"success":true}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func timeoutClient(url string) *apiclient.Client {
	return apiclient.New(url,
		apiclient.WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}),
		apiclient.WithToken(func(context.Context) (string, error) { return "tok", nil }),
	)
}

func TestLoadRooms_ClientTimeoutsExhaustNetworkRule(t *testing.T) {
	srv, hits := slowServer(t)
	rec := &recorder{}
	s := New(timeoutClient(srv.URL), rec, WithTiming(fast))
	s.state.Rooms = []domain.RoomView{{ID: "stale"}}

	s.LoadRooms(context.Background())

	if n := atomic.LoadInt32(hits); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
	st := s.Snapshot()
	if len(st.Rooms) != 0 || st.RoomsLoading {
		t.Fatalf("timeouts must reset rooms: %+v", st)
	}
	if got := rec.all(); len(got) != 1 || got[0] != MsgCannotConnect {
		t.Fatalf("expected %q, got %v", MsgCannotConnect, got)
	}
}

func TestLoadUser_ClientTimeoutsFallBackToDefaults(t *testing.T) {
	srv, hits := slowServer(t)
	rec := &recorder{}
	s := New(timeoutClient(srv.URL), rec, WithTiming(fast))
	s.state.IsOwner = true
	s.state.SearchedCities = []string{"Rome"}

	s.LoadUser(context.Background())

	if n := atomic.LoadInt32(hits); n != 3 {
		t.Fatalf("expected 3 attempts, got %d", n)
	}
	st := s.Snapshot()
	if st.IsOwner || len(st.SearchedCities) != 0 || st.UserLoading {
		t.Fatalf("timeouts must reset the user state: %+v", st)
	}
	if got := rec.all(); len(got) != 1 || got[0] != MsgUserDefaults {
		t.Fatalf("expected %q, got %v", MsgUserDefaults, got)
	}
}
