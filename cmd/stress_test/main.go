package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBaseURL = "http://localhost:8080"
	uniqueKeys     = 20
	totalRequests  = 50
)

type createRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
}

// Fires concurrent creates that share idempotency keys against a running
// server started with REDIS_ADDR set. Each key must produce exactly one item.
func main() {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	client := &http.Client{Timeout: 10 * time.Second}

	before, err := countItems(client, baseURL)
	if err != nil {
		log.Fatalf("failed to list items: %v", err)
	}

	keys := make([]string, uniqueKeys)
	for i := range keys {
		keys[i] = uuid.NewString()
	}

	// Counters
	var createdCount atomic.Int32
	var conflictCount atomic.Int32
	var errorCount atomic.Int32

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			status, err := create(client, baseURL, keys[n%uniqueKeys], createRequest{
				Name:        fmt.Sprintf("stress-item-%d", n%uniqueKeys),
				Description: "created by stress test",
				Price:       float64(n%uniqueKeys + 1),
			})
			switch {
			case err != nil:
				log.Printf("request %d failed: %v", n, err)
				errorCount.Add(1)
			case status == http.StatusCreated:
				createdCount.Add(1)
			case status == http.StatusConflict:
				conflictCount.Add(1)
			default:
				log.Printf("request %d: unexpected status %d", n, status)
				errorCount.Add(1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	created := createdCount.Load()
	conflicts := conflictCount.Load()
	failed := errorCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Unique Keys:      %d\n", uniqueKeys)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Created:          %d\n", created)
	fmt.Printf("Conflicts:        %d\n", conflicts)
	fmt.Printf("Errors:           %d\n", failed)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	// Assertions
	if created == uniqueKeys && conflicts == totalRequests-uniqueKeys && failed == 0 {
		fmt.Printf("PASS: Exactly %d items created, %d duplicates rejected\n", uniqueKeys, totalRequests-uniqueKeys)
	} else {
		fmt.Printf("FAIL: Expected %d created/%d conflicts, got %d/%d (%d errors)\n",
			uniqueKeys, totalRequests-uniqueKeys, created, conflicts, failed)
	}

	// Verify stored item count
	after, err := countItems(client, baseURL)
	if err != nil {
		log.Fatalf("failed to list items: %v", err)
	}
	fmt.Printf("Items Stored:     %d\n", after-before)

	if after-before == uniqueKeys {
		fmt.Println("PASS: One item stored per key")
	} else {
		fmt.Printf("FAIL: Expected %d new items, got %d\n", uniqueKeys, after-before)
	}
}

func create(client *http.Client, baseURL, key string, body createRequest) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/inventory", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", key)

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return resp.StatusCode, nil
}

func countItems(client *http.Client, baseURL string) (int, error) {
	resp, err := client.Get(baseURL + "/api/inventory")
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var items []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return 0, err
	}
	return len(items), nil
}
