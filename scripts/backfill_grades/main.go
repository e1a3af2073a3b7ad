// Command backfill_grades replays an exported grade sheet against a running
// engine. Rows are read from a JSON file, chunked, and posted to the bulk
// import endpoint; the exit code reflects whether every chunk was accepted.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"
)

type importRequest struct {
	Rows []map[string]string `json:"rows"`
}

type importReport struct {
	Processed   int            `json:"processed"`
	Succeeded   int            `json:"succeeded"`
	Failed      int            `json:"failed"`
	Skipped     int            `json:"skipped"`
	FailedKeys  []string       `json:"failed_keys"`
	SkippedRows map[string]int `json:"skipped_rows"`
}

type envelope struct {
	Data  importReport `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func main() {
	var (
		base      string
		token     string
		rowsPath  string
		chunkSize int
		timeout   time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "Engine base URL including API prefix")
	flag.StringVar(&token, "token", "", "Admin bearer token")
	flag.StringVar(&rowsPath, "rows", "rows.json", "Path to JSON file with an array of row objects")
	flag.IntVar(&chunkSize, "chunk", 1000, "Rows per request")
	flag.DurationVar(&timeout, "timeout", 60*time.Second, "HTTP client timeout")
	flag.Parse()

	if token == "" {
		log.Fatal("-token is required")
	}

	rows, err := loadRows(rowsPath)
	if err != nil {
		log.Fatalf("failed to load rows: %v", err)
	}

	client := &http.Client{Timeout: timeout}
	var total importReport

	for start := 0; start < len(rows); start += chunkSize {
		end := start + chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		report, err := postChunk(client, base, token, rows[start:end])
		if err != nil {
			log.Fatalf("chunk %d-%d failed: %v", start, end, err)
		}
		total.Processed += report.Processed
		total.Succeeded += report.Succeeded
		total.Failed += report.Failed
		total.Skipped += report.Skipped
		total.FailedKeys = append(total.FailedKeys, report.FailedKeys...)
		for reason, n := range report.SkippedRows {
			if total.SkippedRows == nil {
				total.SkippedRows = make(map[string]int)
			}
			total.SkippedRows[reason] += n
		}
		fmt.Printf("chunk %d-%d: %d ok, %d failed, %d skipped\n", start, end, report.Succeeded, report.Failed, report.Skipped)
	}

	fmt.Printf("total: processed=%d succeeded=%d failed=%d skipped=%d\n",
		total.Processed, total.Succeeded, total.Failed, total.Skipped)
	for reason, n := range total.SkippedRows {
		fmt.Printf("  skipped %s: %d\n", reason, n)
	}
	if total.Failed > 0 {
		os.Exit(1)
	}
}

func loadRows(path string) ([]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []map[string]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("no rows in %s", path)
	}
	return rows, nil
}

func postChunk(client *http.Client, base, token string, rows []map[string]string) (*importReport, error) {
	payload, err := json.Marshal(importRequest{Rows: rows})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, base+"/imports/grades", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unexpected response (%d): %s", resp.StatusCode, body)
	}
	if resp.StatusCode != http.StatusOK {
		if env.Error != nil {
			return nil, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
		}
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	return &env.Data, nil
}
