package video

import (
	"context"
	"sync"
)

// Task фоновая генерация одной сессии. Done закрывается, когда сессия
// перешла в конечный статус.
type Task struct {
	ID   string
	done chan struct{}
}

// Done возвращает канал завершения задачи.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Runner запускает и отслеживает фоновые задачи генерации.
// Число одновременных задач не ограничено, повторов и отмены нет.
type Runner struct {
	mu    sync.Mutex
	tasks map[string]*Task
	wg    sync.WaitGroup
}

// NewRunner создаёт пустой Runner.
func NewRunner() *Runner {
	return &Runner{tasks: make(map[string]*Task)}
}

// Start запускает fn в отдельной горутине под идентификатором id.
func (r *Runner) Start(id string, fn func()) *Task {
	task := &Task{ID: id, done: make(chan struct{})}

	r.mu.Lock()
	r.tasks[id] = task
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			r.mu.Lock()
			delete(r.tasks, id)
			r.mu.Unlock()
			close(task.done)
		}()
		fn()
	}()
	return task
}

// Wait возвращает выполняющуюся задачу. ok равен false, если задачи с таким
// идентификатором нет: она уже завершилась или не запускалась этим процессом.
func (r *Runner) Wait(id string) (task *Task, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok = r.tasks[id]
	return task, ok
}

// InFlight возвращает число выполняющихся задач.
func (r *Runner) InFlight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// Shutdown ждёт завершения всех задач или отмены ctx.
func (r *Runner) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
