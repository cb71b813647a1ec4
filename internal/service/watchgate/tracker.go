// Package watchgate содержит правила просмотра обучающих видео:
// порог завершения, запрет перемотки вперед, контрольную точку внимания и выбор следующего шага.
package watchgate

import (
	"math"
	"time"
)

// Config задает параметры правил просмотра
type Config struct {
	// CompletionThreshold: доля длительности (0..1), после которой видео считается просмотренным
	CompletionThreshold float64 `json:"completion_threshold"`
	// SeekTolerance: допуск в секундах для ручной перемотки
	SeekTolerance float64 `json:"seek_tolerance"`
	// PlaybackTolerance: допуск в секундах для скачка позиции между событиями воспроизведения
	PlaybackTolerance float64 `json:"playback_tolerance"`
	// MaxPlaybackRate: максимальная скорость, с которой позиция может расти между отчетами
	MaxPlaybackRate float64 `json:"max_playback_rate"`
	// CheckpointSeconds: позиция, на которой один раз спрашивается "вы еще здесь?". 0 отключает.
	CheckpointSeconds float64 `json:"checkpoint_seconds"`
}

// DefaultConfig возвращает значения по умолчанию
func DefaultConfig() Config {
	return Config{
		CompletionThreshold: 0.60,
		SeekTolerance:       1,
		PlaybackTolerance:   2,
		MaxPlaybackRate:     2,
		CheckpointSeconds:   300,
	}
}

// Event: результат применения правил к одному событию плеера
type Event struct {
	// Position: позиция после применения правил (при отклонении равна furthest)
	Position float64 `json:"position"`
	// Clamped: прыжок вперед был отклонен
	Clamped bool `json:"clamped"`
	// Completed: порог завершения пересечен именно этим событием
	Completed bool `json:"completed"`
	// Checkpoint: нужно поставить видео на паузу и спросить пользователя
	Checkpoint bool `json:"checkpoint"`
}

// State: сохраняемое состояние трекера
type State struct {
	Furthest       float64 `json:"furthest"`
	Position       float64 `json:"position"`
	Completed      bool    `json:"completed"`
	CheckpointDone bool    `json:"checkpoint_done"`
}

// Tracker применяет правила просмотра к одному видео. Не потокобезопасен.
type Tracker struct {
	cfg      Config
	duration float64
	state    State
}

// NewTracker создает трекер для видео длительностью duration секунд
func NewTracker(cfg Config, duration float64) *Tracker {
	return &Tracker{cfg: cfg, duration: duration}
}

// Restore восстанавливает трекер из сохраненного состояния
func Restore(cfg Config, duration float64, state State) *Tracker {
	return &Tracker{cfg: cfg, duration: duration, state: state}
}

// State возвращает текущее состояние
func (t *Tracker) State() State {
	return t.state
}

// Furthest возвращает самую дальнюю достигнутую позицию
func (t *Tracker) Furthest() float64 {
	return t.state.Furthest
}

// Completed возвращает true, если порог завершения уже достигнут.
// После этого перемотка не ограничивается.
func (t *Tracker) Completed() bool {
	return t.state.Completed
}

// Progress обрабатывает обычное событие воспроизведения (timeupdate)
func (t *Tracker) Progress(pos float64) Event {
	return t.advance(pos, t.cfg.PlaybackTolerance)
}

// ProgressAfter обрабатывает отчет о позиции, пришедший через elapsed после предыдущего.
// Допуск расширяется на время, которое видео могло честно проиграть.
func (t *Tracker) ProgressAfter(pos float64, elapsed time.Duration) Event {
	allowance := t.cfg.PlaybackTolerance
	if elapsed > 0 {
		rate := t.cfg.MaxPlaybackRate
		if rate < 1 {
			rate = 1
		}
		allowance += elapsed.Seconds() * rate
	}
	return t.advance(pos, allowance)
}

// Seek обрабатывает ручную перемотку. Назад можно всегда, вперед только до furthest + SeekTolerance.
func (t *Tracker) Seek(target float64) Event {
	target = t.clampToDuration(target)
	if !t.state.Completed && target > t.state.Furthest+t.cfg.SeekTolerance {
		t.state.Position = t.state.Furthest
		return Event{Position: t.state.Furthest, Clamped: true}
	}
	t.state.Position = target
	return Event{Position: target}
}

func (t *Tracker) advance(pos, allowance float64) Event {
	pos = t.clampToDuration(pos)
	if !t.state.Completed && pos > t.state.Furthest+allowance {
		t.state.Position = t.state.Furthest
		return Event{Position: t.state.Furthest, Clamped: true}
	}

	ev := Event{Position: pos}
	prev := t.state.Position
	t.state.Position = pos
	if pos > t.state.Furthest {
		t.state.Furthest = pos
	}

	c := t.cfg.CheckpointSeconds
	if c > 0 && !t.state.CheckpointDone && t.duration > c && prev < c && pos >= c {
		t.state.CheckpointDone = true
		ev.Checkpoint = true
	}

	if !t.state.Completed && ThresholdReached(pos, t.duration, t.cfg.CompletionThreshold) {
		t.state.Completed = true
		ev.Completed = true
	}
	return ev
}

func (t *Tracker) clampToDuration(pos float64) float64 {
	if pos < 0 || math.IsNaN(pos) {
		return 0
	}
	if t.duration > 0 && pos > t.duration {
		return t.duration
	}
	return pos
}

// ThresholdReached проверяет, что позиция достигла доли threshold от длительности.
// Для неизвестной длительности (<= 0) порог не достигается.
func ThresholdReached(pos, duration, threshold float64) bool {
	if duration <= 0 {
		return false
	}
	return pos/duration >= threshold
}
