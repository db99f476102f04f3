package gateway

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"warden/app/core/queue"
	"warden/app/pkg/types"
)

type QueueOptions struct {
	Enabled        bool
	EnqueueTimeout time.Duration
	AttemptTimeout time.Duration
}

// ActivationHandler consumes control activations forwarded by the channels.
type ActivationHandler interface {
	HandleActivation(ctx context.Context, act types.Activation)
}

// Gateway fans incoming messages from all registered channels into the bot
// and delivers its replies back over the channel they arrived on. Control
// activations bypass the bot and go straight to the activation handler.
type Gateway struct {
	bot         types.Bot
	activations ActivationHandler
	channels    map[string]types.Channel
	mu          sync.RWMutex
	tracer      TraceRecorder

	dispatchQueue *queue.Queue
	queueOptions  QueueOptions

	processedMessages uint64
	deliveredReplies  uint64
	lastMessageUnix   atomic.Int64
	startedUnix       atomic.Int64
}

type HealthStatus struct {
	Started            bool
	StartedAt          time.Time
	RegisteredChannels []string
	BotName            string
	ProcessedMessages  uint64
	DeliveredReplies   uint64
	LastMessageAt      time.Time
	QueueEnabled       bool
	Queue              queue.Stats
}

func New(bot types.Bot, activations ActivationHandler) *Gateway {
	return &Gateway{
		bot:         bot,
		activations: activations,
		channels:    make(map[string]types.Channel),
	}
}

func (g *Gateway) RegisterChannel(c types.Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[c.ID()] = c
	log.Printf("[Gateway] Registered channel: %s", c.ID())
}

func (g *Gateway) SetTraceRecorder(tracer TraceRecorder) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.tracer = tracer
}

func (g *Gateway) SetDispatchQueue(q *queue.Queue, opts QueueOptions) {
	if opts.EnqueueTimeout < 0 {
		opts.EnqueueTimeout = 0
	}
	if opts.AttemptTimeout < 0 {
		opts.AttemptTimeout = 0
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.dispatchQueue = q
	g.queueOptions = opts
}

// Start launches every registered channel and blocks until all of them have
// returned, which normally happens when ctx is canceled.
func (g *Gateway) Start(ctx context.Context) error {
	var wg sync.WaitGroup
	g.startedUnix.Store(time.Now().Unix())

	g.mu.RLock()
	for _, c := range g.channels {
		ch := c
		onMessage := func(msg types.ChatMessage) {
			atomic.AddUint64(&g.processedMessages, 1)
			g.lastMessageUnix.Store(time.Now().Unix())
			g.trace(msg.ID, ch.ID(), msg.Author.ID, "inbound_received", "ok", "")

			if g.queueEnabled() {
				g.dispatchWithQueue(ctx, ch, msg)
				return
			}
			g.processAndReply(ctx, ch, msg)
		}
		onActivation := func(act types.Activation) {
			g.lastMessageUnix.Store(time.Now().Unix())
			g.trace(act.OriginID, ch.ID(), act.Actor.ID, "control_activated", "ok", "")
			g.activations.HandleActivation(ctx, act)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := ch.Start(ctx, onMessage, onActivation); err != nil {
				log.Printf("[Gateway] Channel %s error: %v", ch.ID(), err)
				if ctx.Err() == nil {
					g.trace("", ch.ID(), "", "channel_disconnected", "error", err.Error())
				}
			}
		}()
	}
	g.mu.RUnlock()

	log.Println("[Gateway] Started all channels")
	wg.Wait()
	return nil
}

func (g *Gateway) queueEnabled() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.queueOptions.Enabled && g.dispatchQueue != nil
}

// dispatchWithQueue hands the message to the worker pool. A failed or
// timed-out job is not retried; the bot's silence is the failure mode.
func (g *Gateway) dispatchWithQueue(ctx context.Context, ch types.Channel, msg types.ChatMessage) {
	g.mu.RLock()
	q := g.dispatchQueue
	opts := g.queueOptions
	g.mu.RUnlock()

	job := queue.Job{
		ID:             msg.ID,
		AttemptTimeout: opts.AttemptTimeout,
		Run: func(runCtx context.Context) error {
			g.processAndReply(runCtx, ch, msg)
			return nil
		},
	}

	enqueueCtx := ctx
	cancel := func() {}
	if opts.EnqueueTimeout > 0 {
		enqueueCtx, cancel = context.WithTimeout(ctx, opts.EnqueueTimeout)
	}
	defer cancel()

	if _, err := q.EnqueueContext(enqueueCtx, job); err != nil {
		log.Printf("[Gateway] Queue enqueue failed for message %s: %v", msg.ID, err)
		g.trace(msg.ID, ch.ID(), msg.Author.ID, "queue_enqueue", "error", err.Error())
		return
	}
	g.trace(msg.ID, ch.ID(), msg.Author.ID, "queue_enqueue", "ok", "")
}

func (g *Gateway) processAndReply(ctx context.Context, ch types.Channel, msg types.ChatMessage) {
	out, ok := g.bot.Process(ctx, msg)
	if !ok {
		g.trace(msg.ID, ch.ID(), msg.Author.ID, "bot_process", "ok", "silent")
		return
	}
	g.trace(msg.ID, ch.ID(), msg.Author.ID, "bot_process", "ok", "")

	if out.ChannelID == "" {
		out.ChannelID = msg.ChannelID
	}
	if err := ch.Send(ctx, out); err != nil {
		log.Printf("[Gateway] Reply delivery failed for message %s: %v", msg.ID, err)
		g.trace(msg.ID, ch.ID(), msg.Author.ID, "deliver_reply", "error", err.Error())
		return
	}
	atomic.AddUint64(&g.deliveredReplies, 1)
	g.trace(msg.ID, ch.ID(), msg.Author.ID, "deliver_reply", "ok", "")
}

func (g *Gateway) trace(messageID, channelID, userID, event, status, detail string) {
	g.mu.RLock()
	tracer := g.tracer
	g.mu.RUnlock()
	if tracer == nil {
		return
	}

	if err := tracer.Record(TraceEvent{
		MessageID: messageID,
		ChannelID: channelID,
		UserID:    userID,
		Event:     event,
		Status:    status,
		Detail:    detail,
	}); err != nil {
		log.Printf("[Gateway] Trace write failed: %v", err)
	}
}

func (g *Gateway) HealthStatus() HealthStatus {
	g.mu.RLock()
	channels := make([]string, 0, len(g.channels))
	for id := range g.channels {
		channels = append(channels, id)
	}
	queueEnabled := g.queueOptions.Enabled && g.dispatchQueue != nil
	var queueStats queue.Stats
	if queueEnabled {
		queueStats = g.dispatchQueue.Stats()
	}
	g.mu.RUnlock()
	sort.Strings(channels)

	status := HealthStatus{
		RegisteredChannels: channels,
		BotName:            g.bot.Name(),
		ProcessedMessages:  atomic.LoadUint64(&g.processedMessages),
		DeliveredReplies:   atomic.LoadUint64(&g.deliveredReplies),
		QueueEnabled:       queueEnabled,
		Queue:              queueStats,
	}

	if started := g.startedUnix.Load(); started > 0 {
		status.Started = true
		status.StartedAt = time.Unix(started, 0).UTC()
	}
	if last := g.lastMessageUnix.Load(); last > 0 {
		status.LastMessageAt = time.Unix(last, 0).UTC()
	}

	return status
}
