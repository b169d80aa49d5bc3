package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"nutrition-insights/internal/pkg/common"

	"go.uber.org/zap"
)

var (
	// ErrQueueFull 隊列已滿
	ErrQueueFull = errors.New("ingest queue is full")
	// ErrQueueClosed 隊列已關閉
	ErrQueueClosed = errors.New("ingest queue is closed")
)

// Runner 執行單一匯入任務
type Runner func(ctx context.Context, rawName string) (*Report, error)

// Job 隊列中的匯入任務
type Job struct {
	ID         string
	RawName    string
	EnqueuedAt time.Time
}

// JobResult 最近一次任務的結果
type JobResult struct {
	ID         string    `json:"id"`
	RawName    string    `json:"rawName"`
	Rows       int       `json:"rows"`
	Error      string    `json:"error,omitempty"`
	FinishedAt time.Time `json:"finishedAt"`
}

// Status 隊列狀態
type Status struct {
	QueueLength    int        `json:"queue_length"`
	ProcessedCount int        `json:"processed_count"`
	FailedCount    int        `json:"failed_count"`
	MaxQueueSize   int        `json:"max_queue_size"`
	Workers        int        `json:"workers"`
	LastJob        *JobResult `json:"last_job,omitempty"`
}

// Queue 匯入任務隊列：有界 channel 加固定數量 worker
type Queue struct {
	run     Runner
	workers int
	maxSize int
	queue   chan *Job

	mu        sync.RWMutex
	closed    bool
	lastJob   *JobResult
	processed int64
	failed    int64
	wg        sync.WaitGroup
}

// NewQueue 創建匯入隊列
func NewQueue(run Runner, workers, maxSize int) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Queue{
		run:     run,
		workers: workers,
		maxSize: maxSize,
		queue:   make(chan *Job, maxSize),
	}
}

// Start 啟動 worker
func (q *Queue) Start(ctx context.Context) {
	for i := 0; i < q.workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx, i)
	}
	common.LogInfo("Ingest queue started",
		zap.Int("workers", q.workers),
		zap.Int("max_queue_size", q.maxSize),
	)
}

// Enqueue 將任務加入隊列，回傳任務 ID
func (q *Queue) Enqueue(rawName string) (string, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return "", ErrQueueClosed
	}

	job := &Job{
		ID:         common.GenerateUUID(),
		RawName:    rawName,
		EnqueuedAt: time.Now(),
	}

	select {
	case q.queue <- job:
		common.LogInfo("Ingest job enqueued",
			zap.String("job_id", job.ID),
			zap.String("raw_name", rawName),
			zap.Int("queue_length", len(q.queue)),
		)
		return job.ID, nil
	default:
		return "", ErrQueueFull
	}
}

func (q *Queue) worker(ctx context.Context, id int) {
	defer q.wg.Done()
	for job := range q.queue {
		q.process(ctx, id, job)
	}
}

func (q *Queue) process(ctx context.Context, workerID int, job *Job) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddInt64(&q.failed, 1)
			common.LogError("Ingest job panic recovered",
				zap.String("job_id", job.ID),
				zap.Any("error", r),
			)
		}
	}()

	report, err := q.run(ctx, job.RawName)

	result := &JobResult{
		ID:         job.ID,
		RawName:    job.RawName,
		FinishedAt: time.Now(),
	}
	if err != nil {
		atomic.AddInt64(&q.failed, 1)
		result.Error = err.Error()
		common.LogError("Ingest job failed",
			zap.String("job_id", job.ID),
			zap.Int("worker", workerID),
			zap.Error(err),
		)
	} else {
		atomic.AddInt64(&q.processed, 1)
		result.Rows = report.Rows
	}

	q.mu.Lock()
	q.lastJob = result
	q.mu.Unlock()
}

// Status 取得隊列狀態
func (q *Queue) Status() *Status {
	q.mu.RLock()
	defer q.mu.RUnlock()

	return &Status{
		QueueLength:    len(q.queue),
		ProcessedCount: int(atomic.LoadInt64(&q.processed)),
		FailedCount:    int(atomic.LoadInt64(&q.failed)),
		MaxQueueSize:   q.maxSize,
		Workers:        q.workers,
		LastJob:        q.lastJob,
	}
}

// Close 停止接收新任務並等待已排隊的任務完成
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	close(q.queue)
	q.mu.Unlock()

	q.wg.Wait()
	common.LogInfo("Ingest queue closed",
		zap.Int64("processed", atomic.LoadInt64(&q.processed)),
		zap.Int64("failed", atomic.LoadInt64(&q.failed)),
	)
}
