package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/humanbelnik/storypoker/internal/client/gateway"
	"github.com/humanbelnik/storypoker/internal/client/session"
	"github.com/humanbelnik/storypoker/internal/client/state"
	"github.com/humanbelnik/storypoker/internal/model"
)

func endpoints() (gatewayURL, relayURL string) {
	switch os.Getenv("ENV") {
	case "CI":
		return "http://gateway:8080", "http://relay:3001"
	}
	return "http://localhost:8080", "http://localhost:3001"
}

const eventTimeout = 10 * time.Second

func main() {
	fmt.Println("Starting E2E tests for Story Poker...")

	gatewayURL, relayURL := endpoints()
	if !waitForService(gatewayURL+"/api/v1/rooms/none", relayURL+"/token") {
		os.Exit(1)
	}

	if err := run(gatewayURL, relayURL); err != nil {
		fmt.Printf("E2E failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n All E2E tests passed!")
}

func waitForService(urls ...string) bool {
	fmt.Println(" Waiting for services to be ready...")

	client := &http.Client{Timeout: 5 * time.Second}
	maxRetries := 5
	for i := 0; i < maxRetries; i++ {
		ready := true
		for _, url := range urls {
			resp, err := client.Post(url, "application/json", nil)
			if err != nil {
				ready = false
				break
			}
			resp.Body.Close()
		}
		if ready {
			fmt.Println(" Services are ready!")
			return true
		}

		if i < maxRetries-1 {
			fmt.Printf(" Services not ready yet (attempt %d/%d)...\n", i+1, maxRetries)
			time.Sleep(2 * time.Second)
		}
	}

	fmt.Println(" Services didn't start in time")
	return false
}

func run(gatewayURL, relayURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fmt.Println("\n Step 1: Creating room...")
	alice := gateway.New(gatewayURL)
	created, err := alice.CreateRoom(ctx, "E2E", "Alice", []model.StoryDraft{{Title: "Login page"}})
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	storyID := created.Stories[0].ID
	fmt.Printf(" Room created. ID: %s\n", created.Room.ID)

	fmt.Println("\n Step 2: Joining as a second member...")
	bob := gateway.New(gatewayURL)
	joined, err := bob.JoinRoom(ctx, created.Room.ID, "Bob")
	if err != nil {
		return fmt.Errorf("join room: %w", err)
	}

	fmt.Println("\n Step 3: Opening Bob's event stream...")
	events, err := stream(ctx, relayURL, joined.Credential)
	if err != nil {
		return err
	}

	fmt.Println("\n Step 4: Alice votes, Bob must not see the value...")
	if err := alice.Vote(ctx, storyID, model.IntPtr(5)); err != nil {
		return fmt.Errorf("vote: %w", err)
	}
	e, err := await(events, func(e state.Event) bool {
		voted, ok := e.(state.UserVoted)
		return ok && voted.StoryID == storyID && voted.MemberID == created.Member.ID
	})
	if err != nil {
		return fmt.Errorf("waiting for user_voted: %w", err)
	}
	fmt.Printf(" Got %T\n", e)

	fmt.Println("\n Step 5: Bob reveals the story...")
	if err := bob.CompleteStory(ctx, storyID); err != nil {
		return fmt.Errorf("complete story: %w", err)
	}
	e, err = await(events, func(e state.Event) bool {
		reveal, ok := e.(state.RevealStory)
		return ok && reveal.StoryID == storyID
	})
	if err != nil {
		return fmt.Errorf("waiting for reveal_story: %w", err)
	}
	votes := e.(state.RevealStory).Votes
	if len(votes) != 1 || votes[0].Value == nil || *votes[0].Value != 5 {
		return fmt.Errorf("reveal carried %+v, want one vote of 5", votes)
	}
	fmt.Println(" Revealed votes match")

	return nil
}

func stream(ctx context.Context, relayURL, credential string) (<-chan state.Event, error) {
	conn, err := session.New(session.Options{RelayURL: relayURL, Credential: credential})
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	live := make(chan struct{})
	conn.OnStatus(func(s session.Status) {
		if s == session.StatusLive {
			select {
			case <-live:
			default:
				close(live)
			}
		}
	})

	events := make(chan state.Event, 16)
	go func() {
		_ = conn.Run(ctx, func(e state.Event) { events <- e })
	}()

	select {
	case <-live:
		return events, nil
	case <-time.After(eventTimeout):
		return nil, errors.New("event stream did not open")
	}
}

func await(events <-chan state.Event, match func(state.Event) bool) (state.Event, error) {
	deadline := time.After(eventTimeout)
	for {
		select {
		case e := <-events:
			if match(e) {
				return e, nil
			}
		case <-deadline:
			return nil, errors.New("timed out")
		}
	}
}
