package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BerniceZTT/smartcrm/config"
	"github.com/BerniceZTT/smartcrm/metrics"
	"github.com/BerniceZTT/smartcrm/models"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/utils"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
)

const sweepLockKey = "smartcrm:followup-sweep"

// SweepLock 防止多个扫描同时执行
type SweepLock interface {
	// TryLock 未获取到锁时 ok 为 false
	TryLock(ctx context.Context) (release func(), ok bool, err error)
}

type localLock struct {
	mu sync.Mutex
}

// NewLocalLock 进程内锁
func NewLocalLock() SweepLock {
	return &localLock{}
}

func (l *localLock) TryLock(context.Context) (func(), bool, error) {
	if !l.mu.TryLock() {
		return nil, false, nil
	}
	return l.mu.Unlock, true, nil
}

type redisLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLock 多实例部署时通过 Redis SET NX 互斥
func NewRedisLock(client *redis.Client, ttl time.Duration) SweepLock {
	return &redisLock{client: client, key: sweepLockKey, ttl: ttl}
}

func (l *redisLock) TryLock(ctx context.Context) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil || !ok {
		return nil, false, err
	}
	release := func() {
		// 只释放自己持有的锁
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if current, err := l.client.Get(releaseCtx, l.key).Result(); err == nil && current == token {
			l.client.Del(releaseCtx, l.key)
		}
	}
	return release, true, nil
}

// SweepResult 单次扫描统计
type SweepResult struct {
	Candidates int   `json:"candidates"`
	Notified   int64 `json:"notified"`
	Skipped    int64 `json:"skipped"`
	Failed     int64 `json:"failed"`
	Locked     bool  `json:"locked"`
}

// Sweeper 跟进提醒扫描
type Sweeper struct {
	followUps repository.Collection
	contacts  repository.Collection
	notifier  Notifier
	lock      SweepLock
	pool      *ants.Pool
	window    time.Duration
	now       func() time.Time
}

// NewSweeper 创建扫描器，提醒通过协程池并发发送
func NewSweeper(db repository.Database, notifier Notifier, lock SweepLock, cfg config.SchedulerConfig) (*Sweeper, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(p interface{}) {
		utils.Logger.Error().Interface("panic", p).Msg("提醒任务异常")
	}))
	if err != nil {
		return nil, fmt.Errorf("创建协程池失败: %w", err)
	}
	if lock == nil {
		lock = NewLocalLock()
	}

	return &Sweeper{
		followUps: db.Collection(repository.FollowUpsCollection),
		contacts:  db.Collection(repository.ContactsCollection),
		notifier:  notifier,
		lock:      lock,
		pool:      pool,
		window:    cfg.AlertWindow,
		now:       time.Now,
	}, nil
}

// Close 释放协程池
func (s *Sweeper) Close() {
	if err := s.pool.ReleaseTimeout(5 * time.Second); err != nil {
		utils.Logger.Warn().Err(err).Msg("协程池释放超时")
	}
}

// Sweep 查找即将到期且未提醒的跟进并发送提醒，每条只标记一次
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	release, ok, err := s.lock.TryLock(ctx)
	if err != nil {
		metrics.IncSweep("error")
		return result, fmt.Errorf("获取扫描锁失败: %w", err)
	}
	if !ok {
		result.Locked = true
		metrics.IncSweep("locked")
		utils.Logger.Info().Msg("已有扫描在执行，跳过")
		return result, nil
	}
	defer release()

	filter := bson.M{
		"status":         models.FollowUpPending,
		"notified":       false,
		"follow_up_date": bson.M{"$lte": s.now().UTC().Add(s.window)},
	}
	followUps := []models.FollowUp{}
	if err := s.followUps.Find(ctx, filter, nil, &followUps); err != nil {
		metrics.IncSweep("error")
		return result, fmt.Errorf("查询待提醒跟进失败: %w", err)
	}
	result.Candidates = len(followUps)

	var notified, skipped, failed atomic.Int64
	var wg sync.WaitGroup
	for i := range followUps {
		followUp := followUps[i]
		wg.Add(1)
		err := s.pool.Submit(func() {
			defer wg.Done()
			switch s.notifyOne(ctx, followUp) {
			case outcomeNotified:
				notified.Add(1)
			case outcomeSkipped:
				skipped.Add(1)
			default:
				failed.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			failed.Add(1)
			utils.LogError(err, map[string]interface{}{"followUpId": followUp.ID}, "提交提醒任务失败")
		}
	}
	wg.Wait()

	result.Notified = notified.Load()
	result.Skipped = skipped.Load()
	result.Failed = failed.Load()
	metrics.IncSweep("ok")

	utils.LogInfo(map[string]interface{}{
		"candidates": result.Candidates,
		"notified":   result.Notified,
		"skipped":    result.Skipped,
		"failed":     result.Failed,
	}, "跟进提醒扫描完成")
	return result, nil
}

type sweepOutcome int

const (
	outcomeNotified sweepOutcome = iota
	outcomeSkipped
	outcomeFailed
)

// notifyOne 发送失败也会标记已提醒，不重复发送
func (s *Sweeper) notifyOne(ctx context.Context, followUp models.FollowUp) sweepOutcome {
	var contact models.Contact
	if err := s.contacts.FindOne(ctx, bson.M{"_id": followUp.ContactID}, &contact); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return outcomeSkipped
		}
		utils.LogError(err, map[string]interface{}{"followUpId": followUp.ID}, "查询联系人失败")
		return outcomeFailed
	}

	subject, body := reminderMessage(&contact, followUp)
	outcome := outcomeNotified
	if err := s.notifier.Send(ctx, followUp.UserEmail, subject, body); err != nil {
		outcome = outcomeFailed
		metrics.IncNotification("failed")
		utils.LogError(err, map[string]interface{}{"followUpId": followUp.ID, "to": followUp.UserEmail}, "发送跟进提醒失败")
	} else {
		metrics.IncNotification("sent")
	}

	matched, err := s.followUps.UpdateOne(ctx,
		bson.M{"_id": followUp.ID, "notified": false},
		bson.M{"notified": true})
	if err != nil {
		utils.LogError(err, map[string]interface{}{"followUpId": followUp.ID}, "标记已提醒失败")
		return outcomeFailed
	}
	if matched == 0 && outcome == outcomeNotified {
		return outcomeSkipped
	}

	utils.Logger.Info().Str("contact", displayName(&contact)).Msg("已发送跟进提醒")
	return outcome
}

func reminderMessage(contact *models.Contact, followUp models.FollowUp) (string, string) {
	name := displayName(contact)
	notes := "N/A"
	if followUp.Notes != nil && *followUp.Notes != "" {
		notes = *followUp.Notes
	}

	subject := "Follow-up Reminder: " + name
	body := fmt.Sprintf(`Hello,

This is a reminder for your follow-up with:

Contact: %s
Phone: %s
Scheduled: %s
Notes: %s

Best regards,
SmartCRM`, name, contact.Phone, followUp.FollowUpDate.UTC().Format(time.RFC3339), notes)
	return subject, body
}

// Scheduler 按固定间隔执行任务，随 context 取消而退出
type Scheduler struct {
	interval time.Duration
	task     func(ctx context.Context)
	cancel   context.CancelFunc
	done     chan struct{}
}

// NewScheduler 创建定时任务
func NewScheduler(interval time.Duration, task func(ctx context.Context)) *Scheduler {
	return &Scheduler{interval: interval, task: task}
}

// Start 启动定时任务
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		utils.Logger.Info().Dur("interval", s.interval).Msg("定时任务已启动")
		for {
			select {
			case <-ctx.Done():
				utils.Logger.Info().Msg("定时任务已停止")
				return
			case <-ticker.C:
				s.run(ctx)
			}
		}
	}()
}

// Stop 停止定时任务并等待当前执行结束
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			utils.Logger.Error().Interface("panic", r).Msg("定时任务异常")
		}
	}()
	s.task(ctx)
}

// SweepTask 将扫描包装为定时任务，错误只记录
func SweepTask(sweeper *Sweeper) func(ctx context.Context) {
	return func(ctx context.Context) {
		if _, err := sweeper.Sweep(ctx); err != nil {
			utils.LogError(err, nil, "跟进提醒扫描失败")
		}
	}
}
