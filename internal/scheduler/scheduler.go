package scheduler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"PatternScreener/internal/model"
	"PatternScreener/internal/notifier"
	"PatternScreener/internal/screener"

	"github.com/robfig/cron/v3"
)

// Runner executes a screening run.
type Runner interface {
	Run(ctx context.Context, req screener.Request) (*screener.Report, error)
}

// Scheduler manages the cron task and the Telegram command surface.
type Scheduler struct {
	Cron     *cron.Cron
	Runner   Runner
	Notifier *notifier.TelegramNotifier
	Defaults screener.Request
	Ctx      context.Context
}

// NewScheduler creates a new Scheduler. defaults is the request used by the
// cron task and the starting point for command overrides.
func NewScheduler(ctx context.Context, runner Runner, tn *notifier.TelegramNotifier, defaults screener.Request) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds()),
		Runner:   runner,
		Notifier: tn,
		Defaults: defaults,
		Ctx:      ctx,
	}
}

// RegisterAll registers the periodic screening task.
func (s *Scheduler) RegisterAll(screenCron string) error {
	if _, err := s.Cron.AddFunc(screenCron, s.screenTask); err != nil {
		return fmt.Errorf("register screen task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	log.Println("[INFO] scheduler started")
}

// Stop stops the cron scheduler gracefully.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Println("[INFO] scheduler stopped")
}

// RunScreenNow executes the screening task immediately (for RUN_ON_START).
func (s *Scheduler) RunScreenNow() {
	s.screenTask()
}

func (s *Scheduler) screenTask() {
	log.Println("[INFO] running scheduled screen")
	msg, err := s.screen(s.Defaults)
	if err != nil {
		log.Printf("[ERROR] scheduled screen: %v", err)
		s.trySend(fmt.Sprintf("❌ Screening run failed: %v", err))
		return
	}
	s.trySend(msg)
}

func (s *Scheduler) screen(req screener.Request) (string, error) {
	rep, err := s.Runner.Run(s.Ctx, req)
	if err != nil {
		return "", err
	}
	return notifier.FormatScreenReport(&rep.Run, rep.Ranked, req.Limit), nil
}

// HandleCommand processes a user command and returns a reply.
//
//	/screen [pattern] [min_score]
//	/reversal [min_score]
//	/breakout [min_score]
//	/signals SYMBOL
func (s *Scheduler) HandleCommand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return helpText
	}
	// Commands may arrive as /screen@BotName in group chats.
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	args := fields[1:]

	req := s.Defaults
	switch name {
	case "/screen":
		if len(args) > 0 {
			req.Pattern = model.PatternType(strings.ToLower(args[0]))
			args = args[1:]
		}
	case "/reversal":
		req.Pattern = model.PatternReversal
	case "/breakout":
		req.Pattern = model.PatternBreakout
	case "/signals":
		if len(args) != 1 {
			return "Usage: /signals SYMBOL"
		}
		return s.signals(strings.ToUpper(args[0]))
	default:
		return helpText
	}

	if !req.Pattern.Valid() {
		return fmt.Sprintf("Unknown pattern %q. Use reversal, breakout or both.", req.Pattern)
	}
	if len(args) > 0 {
		v, err := strconv.ParseFloat(args[0], 64)
		if err != nil || v < 0 || v > 100 {
			return fmt.Sprintf("Invalid min score %q, expected a number in [0, 100].", args[0])
		}
		req.MinScore = v
	}

	msg, err := s.screen(req)
	if err != nil {
		log.Printf("[ERROR] command %s: %v", name, err)
		return fmt.Sprintf("❌ Screening run failed: %v", err)
	}
	return msg
}

func (s *Scheduler) signals(symbol string) string {
	rep, err := s.Runner.Run(s.Ctx, screener.Request{
		Pattern:   model.PatternBoth,
		Symbols:   []string{symbol},
		Ephemeral: true,
	})
	if err != nil {
		return fmt.Sprintf("❌ %s: %v", symbol, err)
	}
	for _, r := range append(rep.Run.Matched, rep.Run.Unmatched...) {
		if r.Symbol == symbol {
			return notifier.FormatSignals(&r)
		}
	}
	for _, f := range rep.Run.Failed {
		if f.Symbol == symbol {
			return fmt.Sprintf("❌ %s failed at %s: %s", symbol, f.Stage, f.Error)
		}
	}
	return fmt.Sprintf("No data for %s.", symbol)
}

const helpText = "Available commands:\n" +
	"• /screen [reversal|breakout|both] [min_score]\n" +
	"• /reversal [min_score]\n" +
	"• /breakout [min_score]\n" +
	"• /signals SYMBOL"

func (s *Scheduler) trySend(text string) {
	if !s.Notifier.Enabled() {
		log.Printf("[INFO] notifier disabled, report not sent")
		return
	}
	if err := s.Notifier.SendWithRetry(s.Ctx, text, 3); err != nil {
		log.Printf("[ERROR] send notification: %v", err)
	}
}
