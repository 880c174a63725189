package worker

import (
	"sync"

	"go.uber.org/zap"
)

// Pool 有界队列的并发任务池，评分任务的执行载体。
// panic 会被捕获，不会带崩整个进程。
type Pool struct {
	tasks    chan func()
	wg       sync.WaitGroup
	workers  int
	logger   *zap.Logger
	stopOnce sync.Once
}

func NewPool(workers, queueSize int, logger *zap.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < workers {
		queueSize = workers * 10
	}
	return &Pool{
		tasks:   make(chan func(), queueSize),
		workers: workers,
		logger:  logger,
	}
}

func (p *Pool) Start() {
	p.logger.Info("starting worker pool", zap.Int("workers", p.workers))
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop 关闭队列并等待在途任务完成
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		close(p.tasks)
	})
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// Submit 非阻塞入队，队列满时返回 false
func (p *Pool) Submit(task func()) bool {
	select {
	case p.tasks <- task:
		return true
	default:
		p.logger.Warn("worker pool queue full, task rejected")
		return false
	}
}

func (p *Pool) QueueLength() int {
	return len(p.tasks)
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for task := range p.tasks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Error("worker recovered from panic",
						zap.Int("worker_id", id),
						zap.Any("panic", r),
					)
				}
			}()
			task()
		}()
	}
}
