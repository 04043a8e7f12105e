package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdwayB/dtqs/pkg/broker"
	"github.com/AdwayB/dtqs/pkg/scheduler"
	"github.com/AdwayB/dtqs/pkg/store"
	"github.com/AdwayB/dtqs/pkg/types"
)

// recordingStore is an in-memory store.Store that records every write and
// can be told to fail or panic on demand.
type recordingStore struct {
	mu sync.Mutex

	progress     map[string][]int
	statuses     map[string][]types.TaskStatus
	runningOrder []string
	completions  map[string]int
	attempts     map[string]int
	logs         []string
	nodes        []*types.WorkerNode

	progressErr error
	statusErr   error
	completeErr error
	bumpErr     error
	appendErr   error

	panicOnProgress bool
}

var _ store.Store = (*recordingStore)(nil)

func newRecordingStore() *recordingStore {
	return &recordingStore{
		progress:    make(map[string][]int),
		statuses:    make(map[string][]types.TaskStatus),
		completions: make(map[string]int),
		attempts:    make(map[string]int),
	}
}

func (r *recordingStore) CreateTask(ctx context.Context, task *types.Task) error { return nil }

func (r *recordingStore) GetTask(ctx context.Context, id string) (*types.Task, error) {
	return nil, store.ErrNotFound
}

func (r *recordingStore) SetTaskProgress(ctx context.Context, id string, progress int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.panicOnProgress {
		panic("store blew up")
	}
	if r.progressErr != nil {
		return r.progressErr
	}
	r.progress[id] = append(r.progress[id], progress)
	return nil
}

func (r *recordingStore) SetTaskStatus(ctx context.Context, id string, status types.TaskStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.statusErr != nil {
		return r.statusErr
	}
	r.statuses[id] = append(r.statuses[id], status)
	if status == types.TaskStatusRunning {
		r.runningOrder = append(r.runningOrder, id)
	}
	return nil
}

func (r *recordingStore) CompleteTask(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.completeErr != nil {
		return r.completeErr
	}
	r.completions[id]++
	return nil
}

func (r *recordingStore) BumpTaskAttempts(ctx context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.bumpErr != nil {
		return 0, r.bumpErr
	}
	r.attempts[id]++
	return r.attempts[id], nil
}

func (r *recordingStore) AppendLog(ctx context.Context, workerID, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendErr != nil {
		return r.appendErr
	}
	r.logs = append(r.logs, message)
	return nil
}

func (r *recordingStore) TailLogs(ctx context.Context, limit int) ([]*types.LogEntry, error) {
	return nil, nil
}

func (r *recordingStore) UpsertWorkerNode(ctx context.Context, node *types.WorkerNode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *node
	r.nodes = append(r.nodes, &copied)
	return nil
}

func (r *recordingStore) ListWorkerNodes(ctx context.Context) ([]*types.WorkerSummary, error) {
	return nil, nil
}

func (r *recordingStore) ListPendingTasks(ctx context.Context, limit int) ([]*types.Task, error) {
	return nil, nil
}

func (r *recordingStore) Ping(ctx context.Context) error { return nil }

func (r *recordingStore) Close() {}

func (r *recordingStore) progressFor(id string) []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.progress[id]...)
}

func (r *recordingStore) statusesFor(id string) []types.TaskStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]types.TaskStatus(nil), r.statuses[id]...)
}

func (r *recordingStore) logLines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.logs...)
}

func (r *recordingStore) attemptsFor(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.attempts[id]
}

func (r *recordingStore) completionsFor(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.completions[id]
}

// recordedDelivery is a broker.Delivery that counts its settlements.
type recordedDelivery struct {
	mu    sync.Mutex
	body  []byte
	acks  int
	nacks int
}

var _ broker.Delivery = (*recordedDelivery)(nil)

func (d *recordedDelivery) Body() []byte { return d.body }

func (d *recordedDelivery) Ack() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.acks++
	return nil
}

func (d *recordedDelivery) Nack() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nacks++
	return nil
}

func (d *recordedDelivery) settled() (acks, nacks int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.acks, d.nacks
}

func instantSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestSupervisor(st *recordingStore) *Supervisor {
	registry := NewRegistry(st, "worker-1")
	registry.sleep = instantSleep
	return NewSupervisor(st, registry, "worker-1")
}

func emailMessage(t *testing.T) (*types.TaskMessage, string) {
	t.Helper()
	id := uuid.NewString()
	return &types.TaskMessage{TaskID: id, TaskType: types.TaskTypeEmail, Priority: 5}, id
}

// runExecution drives one execution unit synchronously, the way dispatch
// would: permit held, waitgroup entry registered.
func runExecution(t *testing.T, s *Supervisor, st *scheduler.ScheduledTask) {
	t.Helper()
	require.NoError(t, s.gate.Acquire(context.Background(), 1))
	s.running.Add(1)
	s.execute(context.Background(), st)
}

func TestExecuteSuccess(t *testing.T) {
	st := newRecordingStore()
	sup := newTestSupervisor(st)
	msg, id := emailMessage(t)
	d := &recordedDelivery{}

	runExecution(t, sup, &scheduler.ScheduledTask{Priority: 5, Delivery: d, Message: msg})

	acks, nacks := d.settled()
	assert.Equal(t, 1, acks)
	assert.Equal(t, 0, nacks)
	assert.Equal(t, []types.TaskStatus{types.TaskStatusRunning}, st.statusesFor(id))
	assert.Equal(t, 1, st.completionsFor(id))
	assert.Equal(t, []int{20, 40, 60, 80, 100, 100}, st.progressFor(id))
	assert.Equal(t, 0, st.attemptsFor(id))

	// Permit fully released.
	assert.True(t, sup.gate.TryAcquire(types.Concurrency))
}

func TestExecuteHandlerFailureRetries(t *testing.T) {
	st := newRecordingStore()
	st.progressErr = errors.New("connection reset")
	sup := newTestSupervisor(st)
	msg, id := emailMessage(t)
	d := &recordedDelivery{}

	runExecution(t, sup, &scheduler.ScheduledTask{Priority: 5, Delivery: d, Message: msg})

	acks, nacks := d.settled()
	assert.Equal(t, 0, acks)
	assert.Equal(t, 1, nacks)
	assert.Equal(t, 1, st.attemptsFor(id))
	assert.Equal(t, 0, st.completionsFor(id))
	// Still running in the store; the redelivered attempt overwrites it.
	assert.Equal(t, []types.TaskStatus{types.TaskStatusRunning}, st.statusesFor(id))
}

func TestExecuteMaxAttemptsMarksFailed(t *testing.T) {
	st := newRecordingStore()
	st.progressErr = errors.New("connection reset")
	sup := newTestSupervisor(st)
	msg, id := emailMessage(t)
	st.attempts[id] = types.MaxAttempts - 1
	d := &recordedDelivery{}

	runExecution(t, sup, &scheduler.ScheduledTask{Priority: 5, Delivery: d, Message: msg})

	acks, nacks := d.settled()
	assert.Equal(t, 1, acks, "exhausted tasks must be acked to stop redelivery")
	assert.Equal(t, 0, nacks)
	assert.Equal(t, types.MaxAttempts, st.attemptsFor(id))
	assert.Equal(t, []types.TaskStatus{types.TaskStatusRunning, types.TaskStatusFailed}, st.statusesFor(id))
}

func TestExecuteRetryUntilFailed(t *testing.T) {
	st := newRecordingStore()
	st.progressErr = errors.New("always failing")
	sup := newTestSupervisor(st)
	msg, id := emailMessage(t)
	d := &recordedDelivery{}

	// Five redelivery cycles for the same task.
	for i := 0; i < types.MaxAttempts; i++ {
		runExecution(t, sup, &scheduler.ScheduledTask{Priority: 5, Delivery: d, Message: msg})
	}

	acks, nacks := d.settled()
	assert.Equal(t, types.MaxAttempts-1, nacks)
	assert.Equal(t, 1, acks)
	assert.Equal(t, types.MaxAttempts, st.attemptsFor(id))

	statuses := st.statusesFor(id)
	require.NotEmpty(t, statuses)
	assert.Equal(t, types.TaskStatusFailed, statuses[len(statuses)-1])
}

func TestExecuteBumpErrorNacks(t *testing.T) {
	st := newRecordingStore()
	st.progressErr = errors.New("connection reset")
	st.bumpErr = errors.New("bump unavailable")
	sup := newTestSupervisor(st)
	msg, id := emailMessage(t)
	d := &recordedDelivery{}

	runExecution(t, sup, &scheduler.ScheduledTask{Priority: 5, Delivery: d, Message: msg})

	acks, nacks := d.settled()
	assert.Equal(t, 0, acks)
	assert.Equal(t, 1, nacks)
	assert.NotContains(t, st.statusesFor(id), types.TaskStatusFailed)
}

func TestExecuteUnknownTypeCountsAsFailure(t *testing.T) {
	st := newRecordingStore()
	sup := newTestSupervisor(st)
	id := uuid.NewString()
	msg := &types.TaskMessage{TaskID: id, TaskType: "audio", Priority: 5}
	d := &recordedDelivery{}

	runExecution(t, sup, &scheduler.ScheduledTask{Priority: 5, Delivery: d, Message: msg})

	acks, nacks := d.settled()
	assert.Equal(t, 0, acks)
	assert.Equal(t, 1, nacks)
	assert.Equal(t, 1, st.attemptsFor(id))
	// An unresolvable tag must not flip the task to running.
	assert.Empty(t, st.statusesFor(id))
}

func TestExecuteCompletionWriteFailureNacks(t *testing.T) {
	st := newRecordingStore()
	st.completeErr = errors.New("write timeout")
	sup := newTestSupervisor(st)
	msg, id := emailMessage(t)
	d := &recordedDelivery{}

	runExecution(t, sup, &scheduler.ScheduledTask{Priority: 5, Delivery: d, Message: msg})

	acks, nacks := d.settled()
	assert.Equal(t, 0, acks)
	assert.Equal(t, 1, nacks)
	assert.Equal(t, 0, st.attemptsFor(id))
}

func TestExecutePanicSettlesDelivery(t *testing.T) {
	st := newRecordingStore()
	st.panicOnProgress = true
	sup := newTestSupervisor(st)
	msg, _ := emailMessage(t)
	d := &recordedDelivery{}

	runExecution(t, sup, &scheduler.ScheduledTask{Priority: 5, Delivery: d, Message: msg})

	acks, nacks := d.settled()
	assert.Equal(t, 0, acks)
	assert.Equal(t, 1, nacks)
	assert.True(t, sup.gate.TryAcquire(types.Concurrency), "permit leaked through panic")
}

func TestIngestPoisonPillAckedAndDropped(t *testing.T) {
	st := newRecordingStore()
	sup := newTestSupervisor(st)

	ctx, cancel := context.WithCancel(context.Background())
	poison := &recordedDelivery{body: []byte("not json at all")}

	deliveries := make(chan broker.Delivery, 1)
	deliveries <- poison
	close(deliveries)

	sup.ingest(ctx, deliveries)
	cancel()

	acks, nacks := poison.settled()
	assert.Equal(t, 1, acks)
	assert.Equal(t, 0, nacks)
	assert.Equal(t, 0, sup.sched.Len())
}

func TestIngestOffersDecodedMessages(t *testing.T) {
	st := newRecordingStore()
	sup := newTestSupervisor(st)

	body := []byte(`{"task_id":"abc","task_type":"email","payload":{},"priority":9}`)
	deliveries := make(chan broker.Delivery, 1)
	deliveries <- &recordedDelivery{body: body}
	close(deliveries)

	sup.ingest(context.Background(), deliveries)

	require.Equal(t, 1, sup.sched.Len())
	scheduled := sup.sched.Poll()
	require.NotNil(t, scheduled)
	assert.Equal(t, 9, scheduled.Priority)
	assert.Equal(t, "abc", scheduled.Message.TaskID)
	assert.Equal(t, types.TaskTypeEmail, scheduled.Message.TaskType)
}

func TestDispatchPriorityOrder(t *testing.T) {
	st := newRecordingStore()
	sup := newTestSupervisor(st)

	lowMsg := &types.TaskMessage{TaskID: uuid.NewString(), TaskType: types.TaskTypeImage, Priority: 1}
	highMsg := &types.TaskMessage{TaskID: uuid.NewString(), TaskType: types.TaskTypeVideo, Priority: 9}
	lowD, highD := &recordedDelivery{}, &recordedDelivery{}

	sup.sched.Offer(&scheduler.ScheduledTask{Priority: 1, Delivery: lowD, Message: lowMsg})
	sup.sched.Offer(&scheduler.ScheduledTask{Priority: 9, Delivery: highD, Message: highMsg})

	// Leave a single permit free so the two executions serialize and the
	// dispatch order is observable in the store.
	require.True(t, sup.gate.TryAcquire(types.Concurrency-1))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sup.dispatch(ctx)
	}()

	assert.Eventually(t, func() bool {
		lowAcks, _ := lowD.settled()
		highAcks, _ := highD.settled()
		return lowAcks == 1 && highAcks == 1
	}, 5*time.Second, 5*time.Millisecond)

	cancel()
	<-done
	sup.running.Wait()

	st.mu.Lock()
	order := append([]string(nil), st.runningOrder...)
	st.mu.Unlock()
	require.Len(t, order, 2)
	assert.Equal(t, highMsg.TaskID, order[0], "higher priority must dispatch first")
	assert.Equal(t, lowMsg.TaskID, order[1])
}

func TestRunEndToEndRespectsConcurrencyCap(t *testing.T) {
	st := newRecordingStore()
	registry := NewRegistry(st, "worker-1")

	var mu sync.Mutex
	inFlight, highWater := 0, 0
	registry.sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		inFlight++
		if inFlight > highWater {
			highWater = inFlight
		}
		mu.Unlock()

		time.Sleep(2 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return nil
	}
	sup := NewSupervisor(st, registry, "worker-1")

	const total = 12
	deliveries := make(chan broker.Delivery, total)
	all := make([]*recordedDelivery, 0, total)
	for i := 0; i < total; i++ {
		msg := &types.TaskMessage{TaskID: uuid.NewString(), TaskType: types.TaskTypeImage, Priority: i % 10}
		body, err := msg.Encode()
		require.NoError(t, err)
		d := &recordedDelivery{body: body}
		all = append(all, d)
		deliveries <- d
	}

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		defer close(runDone)
		sup.Run(ctx, deliveries)
	}()

	assert.Eventually(t, func() bool {
		for _, d := range all {
			if acks, _ := d.settled(); acks != 1 {
				return false
			}
		}
		return true
	}, 10*time.Second, 5*time.Millisecond)

	cancel()
	<-runDone

	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, highWater, types.Concurrency)
	assert.Positive(t, highWater)
}

func TestRunShutdownNacksBufferedDeliveries(t *testing.T) {
	st := newRecordingStore()
	sup := newTestSupervisor(st)

	// A registry miss is irrelevant here; the delivery never dispatches
	// because the context is already cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	buffered := &recordedDelivery{}
	sup.sched.Offer(&scheduler.ScheduledTask{
		Priority: 5,
		Delivery: buffered,
		Message:  &types.TaskMessage{TaskID: uuid.NewString(), TaskType: types.TaskTypeEmail},
	})

	deliveries := make(chan broker.Delivery)
	close(deliveries)
	sup.Run(ctx, deliveries)

	_, nacks := buffered.settled()
	assert.Equal(t, 1, nacks, "buffered deliveries must return to the queue on shutdown")
}
