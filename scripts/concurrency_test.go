//go:build ignore
// +build ignore

// Package main provides a manual concurrency stress test for the duplicate-review rule.
//
// Usage:
//
//	go run ./scripts/concurrency_test.go <book_id> <access_token> [n]
//
// Or use the convenience environment variables:
//
//	BOOK_ID=<uuid> ACCESS_TOKEN=<jwt> N=20 go run ./scripts/concurrency_test.go
//
// What it does:
//  1. Fires N goroutines simultaneously, all POSTing a review for the same book
//     as the same user.
//  2. Counts how many got 201 Created vs. 400 (only one review allowed).
//  3. Exactly one creation must succeed; more than one means the transactional
//     check-then-insert (and the unique index behind it) is broken.
//
// Prerequisites:
//   - Server must be running and migrated.
//   - The book must exist; the token must belong to a user with no review on it yet.
package main

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"
)

const defaultServerAddr = "http://localhost:8080"

type submitResult struct {
	Index      int
	StatusCode int
	Err        error
}

func main() {
	serverAddr := os.Getenv("SERVER_ADDR")
	if serverAddr == "" {
		serverAddr = defaultServerAddr
	}

	bookID := os.Getenv("BOOK_ID")
	token := os.Getenv("ACCESS_TOKEN")
	n := 10
	if v := os.Getenv("N"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			n = parsed
		}
	}

	args := os.Args[1:]
	if len(args) >= 1 {
		bookID = args[0]
	}
	if len(args) >= 2 {
		token = args[1]
	}
	if len(args) >= 3 {
		if parsed, err := strconv.Atoi(args[2]); err == nil {
			n = parsed
		}
	}

	if bookID == "" || token == "" {
		log.Fatal("Usage: BOOK_ID=<uuid> ACCESS_TOKEN=<jwt> [N=10] go run ./scripts/concurrency_test.go\n" +
			"  or: go run ./scripts/concurrency_test.go <book_id> <access_token> [n]")
	}

	fmt.Printf("=== Duplicate Review Concurrency Test ===\n")
	fmt.Printf("Server  : %s\n", serverAddr)
	fmt.Printf("Book    : %s\n", bookID)
	fmt.Printf("Requests: %d\n\n", n)

	results := make([]submitResult, n)
	var wg sync.WaitGroup

	// Fire all goroutines simultaneously using a barrier.
	start := make(chan struct{})

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			<-start // wait for the barrier
			results[idx] = attemptReview(serverAddr, bookID, token, idx)
		}(i)
	}

	fmt.Println("Firing all requests simultaneously...")
	close(start)

	wg.Wait()
	fmt.Println("All requests completed.")

	var created, rejected, failures int
	for _, r := range results {
		switch {
		case r.Err != nil:
			failures++
			fmt.Printf("  [ERR ] request=%-3d err=%v\n", r.Index, r.Err)
		case r.StatusCode == http.StatusCreated:
			created++
			fmt.Printf("  [CRTD] request=%-3d status=%d\n", r.Index, r.StatusCode)
		case r.StatusCode == http.StatusBadRequest:
			rejected++
			fmt.Printf("  [DUPE] request=%-3d status=%d\n", r.Index, r.StatusCode)
		default:
			failures++
			fmt.Printf("  [FAIL] request=%-3d status=%d unexpected response\n", r.Index, r.StatusCode)
		}
	}

	fmt.Printf("\n--- Summary ---\n")
	fmt.Printf("Created  : %d\n", created)
	fmt.Printf("Rejected : %d\n", rejected)
	fmt.Printf("Failures : %d\n", failures)
	fmt.Printf("Total    : %d\n\n", n)

	fmt.Println("--- Invariant Check ---")
	fmt.Println("The transactional check-then-insert plus the unique index")
	fmt.Println("(uniq_review_book_author) must allow exactly one creation.")

	if created != 1 {
		fmt.Printf("\n[FAILURE] expected exactly 1 created review, got %d\n", created)
		os.Exit(1)
	}
	if failures > 0 {
		fmt.Printf("\n[WARNING] %d request(s) failed, check server logs for details.\n", failures)
		os.Exit(1)
	}
	fmt.Println("\n[OK] exactly one review created")
}

// attemptReview sends POST /api/v1/books/{bookID}/reviews with the given token.
func attemptReview(serverAddr, bookID, token string, idx int) submitResult {
	url := fmt.Sprintf("%s/api/v1/books/%s/reviews", serverAddr, bookID)
	body := fmt.Sprintf(`{"text":"stress review %d","score":4}`, idx)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return submitResult{Index: idx, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return submitResult{Index: idx, Err: err}
	}
	defer resp.Body.Close()

	return submitResult{Index: idx, StatusCode: resp.StatusCode}
}
