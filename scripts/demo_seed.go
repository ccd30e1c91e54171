package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/xycloo/multiuser-logging-service/pkg/client"
)

type userSeed struct {
	ID       int64
	Compress bool
}

func main() {
	baseURL := flag.String("base-url", "http://localhost:8082", "API base URL")
	flag.Parse()

	users := []userSeed{
		{ID: 1},
		{ID: 2},
		{ID: 3, Compress: true},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, u := range users {
		if err := seedUser(ctx, *baseURL, u); err != nil {
			log.Printf("seed user %d failed: %v", u.ID, err)
		}
	}
}

func seedUser(ctx context.Context, baseURL string, user userSeed) error {
	var opts []client.Option
	if user.Compress {
		opts = append(opts, client.WithCompression())
	}
	c := client.New(baseURL, opts...)

	// The first write creates the group; capture can only be enabled afterwards.
	if err := c.SendLog(ctx, user.ID, client.Log{Level: client.Debug, Text: "bootstrap"}); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	if err := c.EnableCapture(ctx, user.ID); err != nil {
		return fmt.Errorf("enable capture: %w", err)
	}

	batch := []client.Log{
		{Level: client.Error, Text: fmt.Sprintf("user %d: contract call failed", user.ID), Blob: []byte{0xde, 0xad}},
		{Level: client.Warning, Text: fmt.Sprintf("user %d: fee above threshold", user.ID)},
	}
	if _, err := c.SendBatch(ctx, user.ID, batch); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	if err := c.SendSerialized(ctx, user.ID, client.Log{Level: client.Debug, Text: fmt.Sprintf("user %d: ledger closed", user.ID)}); err != nil {
		return fmt.Errorf("send serialized: %w", err)
	}

	entries, err := c.ReadUnified(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("read back: %w", err)
	}
	log.Printf("user %d seeded with %d logs", user.ID, len(entries))
	return nil
}
