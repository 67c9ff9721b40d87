package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"timeclock/internal/attendance"
	"timeclock/internal/config"
	"timeclock/internal/dayclock"
	"timeclock/internal/metrics"
	"timeclock/internal/queue"
	"timeclock/internal/store"
)

// Worker consumes queue messages to keep the Redis last-seen cache and
// per-day tallies current, and backfills absent records once a day
// closes.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	clock, err := dayclock.New(cfg.Timezone)
	if err != nil {
		log.Fatalf("timezone load failed: %v", err)
	}

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "timeclock:work")
	}

	repo := attendance.NewRepository(db.Client)
	go runDayClose(ctx, clock, repo)

	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for messages...")
	for msg := range messages {
		var rec attendance.Record
		if err := json.Unmarshal(msg.Body, &rec); err != nil {
			log.Printf("skip malformed %s message: %v", msg.Kind, err)
			continue
		}

		switch msg.Kind {
		case queue.KindCheckIn, queue.KindCheckOut:
		default:
			continue
		}

		checkIn := msg.Kind == queue.KindCheckIn
		if err := redisClient.RecordActivity(ctx, rec.EmployeeID, rec.Day, checkIn); err != nil {
			log.Printf("redis update for %s failed: %v", rec.EmployeeID, err)
			continue
		}
		if checkIn {
			if n, err := redisClient.CheckInTally(ctx, rec.Day); err == nil {
				log.Printf("day %s check-ins so far: %d", rec.Day.Format("2006-01-02"), n)
			}
		}
	}

	log.Println("worker stopped")
}

// runDayClose sleeps until each day boundary, then marks active
// employees with no record for the closed day as absent. The insert
// rides the per-day unique constraint, so a real check-in always wins.
func runDayClose(ctx context.Context, clock *dayclock.Clock, repo *attendance.Repository) {
	for {
		wait := time.Until(clock.NextBoundary())
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		closed := clock.Today().AddDate(0, 0, -1)
		n, err := repo.MarkAbsentees(ctx, closed)
		if err != nil {
			log.Printf("absence backfill for %s failed: %v", closed.Format("2006-01-02"), err)
			continue
		}
		if n > 0 {
			metrics.AbsenteesMarked.Add(float64(n))
		}
		log.Printf("day %s closed, %d absentees marked", closed.Format("2006-01-02"), n)
	}
}
