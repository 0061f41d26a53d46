package archive

import (
	"log"
	"sync"
	"time"
)

// RetentionConfig holds configuration for the retention cleaner.
type RetentionConfig struct {
	RetentionMinutes int
}

// RetentionCleaner periodically deletes entries older than the configured
// retention window.
type RetentionCleaner struct {
	store            *Store
	retentionMinutes int
	done             chan struct{}
	wg               sync.WaitGroup
	tickWg           sync.WaitGroup
	stopOnce         sync.Once
}

// NewRetentionCleaner creates a retention cleaner that deletes expired entries.
// Returns nil when retention is 0 (disabled).
func NewRetentionCleaner(store *Store, conf ...RetentionConfig) *RetentionCleaner {
	minutes := 0
	if len(conf) > 0 {
		minutes = conf[0].RetentionMinutes
	}
	if minutes <= 0 {
		return nil
	}

	rc := &RetentionCleaner{
		store:            store,
		retentionMinutes: minutes,
		done:             make(chan struct{}),
	}

	// Startup cleanup to catch up after downtime.
	rc.cleanup()

	rc.wg.Add(1)
	rc.tickWg.Add(1)
	go rc.tickLoop()

	return rc
}

func (rc *RetentionCleaner) tickLoop() {
	defer rc.wg.Done()
	defer rc.tickWg.Done()
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.cleanup()
		case <-rc.done:
			return
		}
	}
}

func (rc *RetentionCleaner) cleanup() {
	cutoff := time.Now().Add(-time.Duration(rc.retentionMinutes) * time.Minute)

	rows, err := rc.store.DeleteBefore(cutoff)
	if err != nil {
		log.Printf("archive: retention cleanup error: %v", err)
		return
	}
	if rows > 0 {
		log.Printf("archive: retention cleanup deleted %d expired entries (older than %d minutes)", rows, rc.retentionMinutes)
	}
}

// Stop signals the cleaner to stop and waits for it to finish.
func (rc *RetentionCleaner) Stop() {
	rc.stopOnce.Do(func() {
		close(rc.done)
		rc.tickWg.Wait()
		rc.wg.Wait()
	})
}
