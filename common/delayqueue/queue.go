/**
 * @projectName: event-platform
 * @package: delayqueue
 * @className: queue
 * @description: 基于 Redis ZSET 的延迟任务队列
 * @version: 1.0
 */

package delayqueue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"event-platform/common/constants"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/redis"
	"github.com/zeromicro/go-zero/core/threading"
)

// ==================== 延迟队列 ====================
//
// 数据结构：
//   - {prefix}:ready       ZSET  member=任务ID score=执行时间(ms)
//   - {prefix}:processing  ZSET  member=任务ID score=租约截止时间(ms)
//   - {prefix}:payload     HASH  field=任务ID value=任务信封(JSON)
//
// 语义：
//   - 同 ID 入队即覆盖（执行时间和数据都以最后一次为准）
//   - 至少执行一次：进程崩溃后租约过期，任务回到 ready
//   - 失败按指数退避重试，超过 MaxAttempts 丢弃并记录日志

var ErrHandlerNotSet = errors.New("delayqueue: handler not set")

// Config 延迟队列配置
type Config struct {
	Prefix       string        `json:",default=event:jobs"`
	Workers      int           `json:",default=4"`
	PollInterval time.Duration `json:",default=1s"`
	BatchSize    int           `json:",default=32"`
	Lease        time.Duration `json:",default=1m"`
	MaxAttempts  int           `json:",default=3"`
	BackoffBase  time.Duration `json:",default=2s"`
}

// Job 交给处理函数的任务
type Job struct {
	ID      string
	Payload []byte
	// Attempt 从 1 开始
	Attempt int
}

// Handler 任务处理函数，返回 error 触发重试
type Handler func(ctx context.Context, job Job) error

type envelope struct {
	ID      string          `json:"id"`
	Token   string          `json:"token"`
	Payload json.RawMessage `json:"payload"`
	Attempt int             `json:"attempt"`
}

type claimed struct {
	raw string
	env envelope
}

// Queue Redis 延迟队列
type Queue struct {
	rds     *redis.Redis
	config  Config
	handler Handler
	now     func() time.Time

	readyKey      string
	processingKey string
	payloadKey    string

	jobs   chan claimed
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewQueue 创建延迟队列
func NewQueue(rds *redis.Redis, config Config) *Queue {
	if config.Prefix == "" {
		config.Prefix = constants.DelayQueuePrefix
	}
	if config.Workers <= 0 {
		config.Workers = 4
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}
	if config.Lease <= 0 {
		config.Lease = time.Minute
	}
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 3
	}
	if config.BackoffBase <= 0 {
		config.BackoffBase = 2 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		rds:           rds,
		config:        config,
		now:           time.Now,
		readyKey:      config.Prefix + ":ready",
		processingKey: config.Prefix + ":processing",
		payloadKey:    config.Prefix + ":payload",
		jobs:          make(chan claimed, config.BatchSize),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// WithClock 替换时钟（测试用）
func (q *Queue) WithClock(now func() time.Time) *Queue {
	q.now = now
	return q
}

// OnExecute 注册任务处理函数
func (q *Queue) OnExecute(handler Handler) {
	q.handler = handler
}

// Enqueue 入队（同 ID 覆盖），delay<=0 表示立即可执行
func (q *Queue) Enqueue(ctx context.Context, id string, payload []byte, delay time.Duration) error {
	return q.EnqueueAt(ctx, id, payload, q.now().Add(delay))
}

// EnqueueAt 在指定时间执行
func (q *Queue) EnqueueAt(ctx context.Context, id string, payload []byte, runAt time.Time) error {
	raw, err := json.Marshal(envelope{
		ID:      id,
		Token:   uuid.NewString(),
		Payload: payload,
		Attempt: 0,
	})
	if err != nil {
		return fmt.Errorf("序列化任务失败: %w", err)
	}

	_, err = q.rds.ScriptRunCtx(ctx, enqueueScript,
		[]string{q.payloadKey, q.readyKey, q.processingKey},
		id, string(raw), strconv.FormatInt(runAt.UnixMilli(), 10))
	if err != nil {
		return fmt.Errorf("任务入队失败: id=%s, err=%w", id, err)
	}
	return nil
}

// Remove 删除任务（不存在的 ID 忽略）
func (q *Queue) Remove(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	_, err := q.rds.ScriptRunCtx(ctx, removeScript,
		[]string{q.payloadKey, q.readyKey, q.processingKey}, args...)
	if err != nil {
		return fmt.Errorf("删除任务失败: %w", err)
	}
	return nil
}

// ScheduledAt 返回任务计划执行时间，任务不在 ready 中时 ok=false
func (q *Queue) ScheduledAt(ctx context.Context, id string) (time.Time, bool, error) {
	score, err := q.rds.ZscoreCtx(ctx, q.readyKey, id)
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return time.UnixMilli(score), true, nil
}

// Len 返回等待执行的任务数
func (q *Queue) Len(ctx context.Context) (int, error) {
	return q.rds.ZcardCtx(ctx, q.readyKey)
}

// Start 启动拉取协程和工作协程（非阻塞）
// 未注册处理函数时不启动，任务留在队列中
func (q *Queue) Start() {
	if q.handler == nil {
		logx.Errorf("[DelayQueue] %v，不启动: prefix=%s", ErrHandlerNotSet, q.config.Prefix)
		return
	}

	for i := 0; i < q.config.Workers; i++ {
		q.wg.Add(1)
		id := i
		threading.GoSafe(func() {
			defer q.wg.Done()
			q.worker(id)
		})
	}

	q.wg.Add(1)
	threading.GoSafe(func() {
		defer q.wg.Done()
		q.poller()
	})

	logx.Infof("[DelayQueue] 启动成功: prefix=%s, workers=%d", q.config.Prefix, q.config.Workers)
}

// Stop 停止队列，等待执行中的任务完成
func (q *Queue) Stop() {
	q.cancel()
	q.wg.Wait()
	logx.Infof("[DelayQueue] 已停止: prefix=%s", q.config.Prefix)
}

// RunOnce 同步执行一轮：回收过期租约、取出到期任务并逐个执行
// 返回本轮执行的任务数
func (q *Queue) RunOnce(ctx context.Context) (int, error) {
	if q.handler == nil {
		return 0, ErrHandlerNotSet
	}
	batch, err := q.claim(ctx)
	if err != nil {
		return 0, err
	}
	for _, c := range batch {
		q.process(ctx, c)
	}
	return len(batch), nil
}

func (q *Queue) poller() {
	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			batch, err := q.claim(q.ctx)
			if err != nil {
				logx.Errorf("[DelayQueue] 拉取任务失败: %v", err)
				continue
			}
			for _, c := range batch {
				select {
				case q.jobs <- c:
				case <-q.ctx.Done():
					// 未执行的任务留在 processing，租约过期后回到 ready
					return
				}
			}
		}
	}
}

func (q *Queue) worker(id int) {
	logx.Debugf("[DelayQueue] worker %d 启动", id)
	for {
		select {
		case <-q.ctx.Done():
			return
		case c := <-q.jobs:
			q.process(q.ctx, c)
		}
	}
}

func (q *Queue) claim(ctx context.Context) ([]claimed, error) {
	now := q.now()
	nowMs := strconv.FormatInt(now.UnixMilli(), 10)

	if _, err := q.rds.ScriptRunCtx(ctx, requeueScript,
		[]string{q.processingKey, q.readyKey, q.payloadKey}, nowMs); err != nil {
		return nil, fmt.Errorf("回收过期租约失败: %w", err)
	}

	res, err := q.rds.ScriptRunCtx(ctx, claimScript,
		[]string{q.readyKey, q.processingKey, q.payloadKey},
		nowMs,
		strconv.FormatInt(now.Add(q.config.Lease).UnixMilli(), 10),
		strconv.Itoa(q.config.BatchSize))
	if err != nil {
		return nil, fmt.Errorf("取出到期任务失败: %w", err)
	}

	items, _ := res.([]any)
	batch := make([]claimed, 0, len(items)/2)
	for i := 0; i+1 < len(items); i += 2 {
		raw, _ := items[i+1].(string)
		var env envelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			logx.Errorf("[DelayQueue] 任务信封损坏，丢弃: id=%v, err=%v", items[i], err)
			q.ack(ctx, fmt.Sprint(items[i]), raw)
			continue
		}
		batch = append(batch, claimed{raw: raw, env: env})
	}
	return batch, nil
}

func (q *Queue) process(ctx context.Context, c claimed) {
	attempt := c.env.Attempt + 1
	start := time.Now()
	err := q.safeHandle(ctx, Job{ID: c.env.ID, Payload: c.env.Payload, Attempt: attempt})
	jobDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		jobsTotal.WithLabelValues("success").Inc()
		q.ack(ctx, c.env.ID, c.raw)
		return
	}

	if attempt >= q.config.MaxAttempts {
		jobsTotal.WithLabelValues("dropped").Inc()
		logx.Errorf("[DelayQueue] 任务重试耗尽，丢弃: id=%s, attempts=%d, err=%v", c.env.ID, attempt, err)
		q.ack(ctx, c.env.ID, c.raw)
		return
	}

	jobsTotal.WithLabelValues("retry").Inc()
	backoff := q.config.BackoffBase * time.Duration(1<<(attempt-1))
	logx.Errorf("[DelayQueue] 任务执行失败 (重试 %d/%d): id=%s, backoff=%v, err=%v",
		attempt, q.config.MaxAttempts, c.env.ID, backoff, err)

	next := c.env
	next.Attempt = attempt
	raw, mErr := json.Marshal(next)
	if mErr != nil {
		logx.Errorf("[DelayQueue] 序列化重试任务失败: id=%s, err=%v", c.env.ID, mErr)
		return
	}
	res, rErr := q.rds.ScriptRunCtx(ctx, retryScript,
		[]string{q.payloadKey, q.readyKey, q.processingKey},
		c.env.ID, c.raw, string(raw), strconv.FormatInt(q.now().Add(backoff).UnixMilli(), 10))
	if rErr != nil {
		logx.Errorf("[DelayQueue] 重试入队失败: id=%s, err=%v", c.env.ID, rErr)
		return
	}
	if n, _ := res.(int64); n == 0 {
		logx.Infof("[DelayQueue] 任务已被覆盖或删除，放弃重试: id=%s", c.env.ID)
	}
}

func (q *Queue) safeHandle(ctx context.Context, job Job) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return q.handler(ctx, job)
}

func (q *Queue) ack(ctx context.Context, id, raw string) {
	if _, err := q.rds.ScriptRunCtx(ctx, ackScript,
		[]string{q.payloadKey, q.processingKey}, id, raw); err != nil {
		logx.Errorf("[DelayQueue] 确认任务失败: id=%s, err=%v", id, err)
	}
}
