package telegram

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ykvlv/coach-bot/internal/domain"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	fail bool
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return tgbotapi.Message{}, errors.New("too many requests: retry after 5")
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func TestDispatcher_DeliversInOrder(t *testing.T) {
	bot := &fakeSender{}
	d := NewDispatcher(bot, zap.NewNop(), nil, 8)

	d.Fire(domain.Reminder{UserID: 1, ChatID: 10, Kind: domain.KindMorning, Tone: domain.StyleFriendly})
	d.PublishAdaptation(context.Background(), domain.AdaptationEvent{
		UserID: 1, ChatID: 10,
		Verdict: domain.PlateauVerdict{IsPlateau: true, PlateauDays: 8, WeightRange: 0.3},
		Before:  domain.Targets{Calories: 2000},
		After:   domain.Targets{Calories: 1900},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return bot.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	assert.Equal(t, int64(10), bot.sent[0].ChatID)
	assert.Contains(t, bot.sent[0].Text, "log your weight")
	assert.Contains(t, bot.sent[1].Text, "2000 → 1900 kcal")
	assert.Contains(t, bot.sent[1].Text, "8 days")
}

func TestDispatcher_FireNeverBlocks(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, zap.NewNop(), nil, 2)
	r := domain.Reminder{UserID: 1, ChatID: 10, Kind: domain.KindEvening, Tone: domain.StyleStrict}

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			d.Fire(r)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Fire blocked on a full queue")
	}
	assert.Len(t, d.queue, 2)
}

func TestDispatcher_SendFailureIsSwallowed(t *testing.T) {
	bot := &fakeSender{fail: true}
	d := NewDispatcher(bot, zap.NewNop(), nil, 4)
	d.Fire(domain.Reminder{UserID: 1, ChatID: 10, Kind: domain.KindMorning})
	d.Fire(domain.Reminder{UserID: 1, ChatID: 0, Kind: domain.KindMorning})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return len(d.queue) == 0 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done
	assert.Zero(t, bot.count())
}

func TestReminderText(t *testing.T) {
	for _, kind := range domain.Kinds {
		for _, tone := range []domain.ReminderStyle{domain.StyleFriendly, domain.StyleMotivational, domain.StyleStrict} {
			text := ReminderText(domain.Reminder{Kind: kind, Tone: tone, WaterML: 500, WaterGoal: 2000})
			assert.NotEmpty(t, text, "%s/%s", kind, tone)
		}
	}

	got := ReminderText(domain.Reminder{Kind: domain.KindHydration, Tone: domain.StyleStrict, WaterML: 500, WaterGoal: 2000})
	assert.Equal(t, "💧 Drink water now. 0.5 L logged, 1.5 L remaining.", got)

	fallback := ReminderText(domain.Reminder{Kind: domain.KindEvening, Tone: "sarcastic"})
	assert.Equal(t, reminderTexts[domain.KindEvening][domain.StyleFriendly], fallback)
}

func TestAdaptationText(t *testing.T) {
	text := AdaptationText(domain.AdaptationEvent{
		Verdict: domain.PlateauVerdict{IsPlateau: true, PlateauDays: 21, WeightRange: 0.4},
		Result: domain.AdaptationResult{
			ActivityChanges: []string{"Add 2 cardio sessions"},
			DietBreak:       true,
			Rationale:       "Plateau for 21 days.",
		},
		Before: domain.Targets{Calories: 2000},
		After:  domain.Targets{Calories: 1800, Protein: 160, Fats: 60, Carbs: 190},
	})
	assert.Contains(t, text, "0.4 kg for 21 days")
	assert.Contains(t, text, "• Add 2 cardio sessions")
	assert.Contains(t, text, "diet break")
	assert.Contains(t, text, "Protein: 160 g")
}
