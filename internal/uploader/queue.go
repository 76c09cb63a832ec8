package uploader

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/diancan-pos/api/internal/enum"
)

const defaultMaxAttempts = 5

// Host uploads a payload and returns a durable URL.
// Satisfied by *imghost.Client.
type Host interface {
	Upload(ctx context.Context, filename string, payload []byte) (string, error)
}

// Recorder marks a local image record as uploaded.
// Satisfied by *imagecache.Cache.
type Recorder interface {
	MarkUploaded(dishID, cloudURL string) error
}

// MenuPatcher points a dish at its cloud image and pushes the menu.
// Satisfied by *service.MenuService.
type MenuPatcher interface {
	SetDishImage(ctx context.Context, dishID, url string) error
}

// Job is one queued upload.
type Job struct {
	DishID   string `json:"dish_id"`
	Filename string `json:"filename"`
	Payload  []byte `json:"-"`
	Status   string `json:"status"`
	Attempts int    `json:"attempts"`
}

// Queue serializes image uploads to the external host so the device stays
// responsive while photos trickle out. Exactly one upload is in flight at
// a time; a failed job is retried after a fixed delay, and between jobs
// the worker yields briefly instead of looping tight.
//
// Retries are capped: a job that keeps failing goes terminal rather than
// retrying forever, and stays visible through Jobs until the cache is the
// user's problem again.
type Queue struct {
	host  Host
	cache Recorder
	menu  MenuPatcher

	retryDelay    time.Duration
	interJobDelay time.Duration
	maxAttempts   int

	mu     sync.Mutex
	jobs   []*Job
	failed []*Job
	busy   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates an idle queue. Processing starts on the first Enqueue.
func New(host Host, cache Recorder, menu MenuPatcher) *Queue {
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		host:          host,
		cache:         cache,
		menu:          menu,
		retryDelay:    3 * time.Second,
		interJobDelay: 500 * time.Millisecond,
		maxAttempts:   defaultMaxAttempts,
		ctx:           ctx,
		cancel:        cancel,
	}
}

// SetDelays overrides the retry and inter-job delays.
func (q *Queue) SetDelays(retry, interJob time.Duration) {
	q.retryDelay = retry
	q.interJobDelay = interJob
}

// SetMaxAttempts overrides the per-job attempt cap.
func (q *Queue) SetMaxAttempts(n int) {
	q.maxAttempts = n
}

// Enqueue appends an upload job and wakes the worker if it is idle.
// Enqueues while busy simply extend the queue.
func (q *Queue) Enqueue(dishID, filename string, payload []byte) {
	q.mu.Lock()
	q.jobs = append(q.jobs, &Job{
		DishID:   dishID,
		Filename: filename,
		Payload:  payload,
		Status:   enum.UploadStatusPending,
	})
	start := !q.busy
	if start {
		q.busy = true
		q.wg.Add(1)
	}
	q.mu.Unlock()

	if start {
		go q.process()
	}
}

// Jobs returns a snapshot of queued jobs followed by terminal failures.
func (q *Queue) Jobs() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Job, 0, len(q.jobs)+len(q.failed))
	for _, j := range q.jobs {
		out = append(out, *j)
	}
	for _, j := range q.failed {
		out = append(out, *j)
	}
	return out
}

// Stop abandons in-flight work and waits for the worker to exit.
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
}

// process is the single worker loop. It owns the head job until the job
// either succeeds, goes terminal, or the queue shuts down.
func (q *Queue) process() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		if len(q.jobs) == 0 {
			q.busy = false
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		job.Status = enum.UploadStatusUploading
		q.mu.Unlock()

		url, err := q.host.Upload(q.ctx, job.Filename, job.Payload)
		if err != nil {
			if q.ctx.Err() != nil {
				return
			}
			if !q.retry(job) {
				return
			}
			continue
		}

		q.finish(job, url)

		q.mu.Lock()
		q.jobs = q.jobs[1:]
		empty := len(q.jobs) == 0
		if empty {
			q.busy = false
		}
		q.mu.Unlock()
		if empty {
			return
		}
		if !q.sleep(q.interJobDelay) {
			return
		}
	}
}

// retry re-queues the head job after the retry delay, or moves it to the
// terminal failed list once it runs out of attempts. Returns false when
// the queue is shutting down.
func (q *Queue) retry(job *Job) bool {
	q.mu.Lock()
	job.Attempts++
	if job.Attempts >= q.maxAttempts {
		job.Status = enum.UploadStatusFailed
		q.jobs = q.jobs[1:]
		q.failed = append(q.failed, job)
		empty := len(q.jobs) == 0
		if empty {
			q.busy = false
		}
		q.mu.Unlock()
		log.Printf("ERROR: upload for dish %s failed %d times, giving up", job.DishID, job.Attempts)
		if empty {
			return false
		}
		return q.sleep(q.interJobDelay)
	}
	job.Status = enum.UploadStatusPending
	q.mu.Unlock()

	log.Printf("upload for dish %s failed (attempt %d), retrying", job.DishID, job.Attempts)
	return q.sleep(q.retryDelay)
}

// finish applies a successful upload: record the cloud copy locally, patch
// the dish's image reference, and let the menu push carry it to the bin.
func (q *Queue) finish(job *Job, url string) {
	job.Status = enum.UploadStatusSuccess
	if err := q.cache.MarkUploaded(job.DishID, url); err != nil {
		log.Printf("ERROR: mark image uploaded for dish %s: %v", job.DishID, err)
	}
	if err := q.menu.SetDishImage(q.ctx, job.DishID, url); err != nil {
		log.Printf("ERROR: patch dish %s image: %v", job.DishID, err)
	}
}

// sleep waits d or until shutdown; false means shutdown.
func (q *Queue) sleep(d time.Duration) bool {
	select {
	case <-time.After(d):
		return true
	case <-q.ctx.Done():
		return false
	}
}
