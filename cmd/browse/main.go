package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"smartstay/internal/adapters/apiclient"
	"smartstay/internal/adapters/observability"
	"smartstay/internal/appstate"
	"smartstay/internal/shared"
)

type stderrNotifier struct{}

func (stderrNotifier) Notify(level appstate.Level, msg string) {
	prefix := "note"
	if level == appstate.LevelError {
		prefix = "error"
	}
	fmt.Fprintf(os.Stderr, "%s: %s\n", prefix, msg)
}

// browse loads the room list and the caller's profile the way the web client does.
func main() {
	cfg := shared.Load()
	base := flag.String("api", cfg.APIBaseURL, "API base URL")
	token := flag.String("token", os.Getenv("SMARTSTAY_TOKEN"), "session token; empty browses signed out")
	flag.Parse()

	log.Logger = observability.NewLogger(cfg.AppEnv, "browse")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := apiclient.New(*base, apiclient.WithToken(func(context.Context) (string, error) { return *token, nil }))
	st := appstate.New(client, stderrNotifier{})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); st.LoadRooms(ctx) }()
	go func() { defer wg.Done(); st.LoadUser(ctx) }()
	wg.Wait()

	s := st.Snapshot()
	role := "guest"
	if s.IsOwner {
		role = "hotel owner"
	}
	fmt.Printf("signed in as: %s\n", role)
	if len(s.SearchedCities) > 0 {
		fmt.Printf("recent searches: %s\n", strings.Join(s.SearchedCities, ", "))
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "HOTEL\tCITY\tROOM\tPRICE/NIGHT\tAMENITIES")
	for _, r := range s.Rooms {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\n", r.Hotel.Name, r.Hotel.City, r.RoomType, r.PricePerNight, strings.Join(r.Amenities, ", "))
	}
	_ = tw.Flush()
	if len(s.Rooms) == 0 {
		fmt.Println("no rooms available")
	}
}
