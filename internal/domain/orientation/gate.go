// Package orientation классифицирует наклон устройства перед съёмкой.
package orientation

import (
	"fmt"
	"math"

	"artifact-sifter/internal/domain/entity"
)

const (
	// DefaultAlpha коэффициент сглаживания низкочастотного фильтра
	DefaultAlpha = 0.2

	// UprightPitch pitch устройства, которое держат вертикально
	UprightPitch = 90.0

	AlignedTilt       = 5.0  // до этого наклона включительно — выровнено
	AlmostAlignedTilt = 12.0 // до этого включительно — почти выровнено
	HintThreshold     = 6.0  // с какого отклонения по оси показываем подсказку
)

// Gate сглаживает отсчёты датчика и определяет готовность к съёмке.
// Не потокобезопасен: синхронизацию обеспечивает владелец.
type Gate struct {
	alpha       float64
	filter      entity.FilterState
	state       entity.Readiness
	unavailable bool
}

// Option настройка Gate
type Option func(*Gate)

// WithAlpha задаёт коэффициент сглаживания (0, 1].
func WithAlpha(alpha float64) Option {
	return func(g *Gate) {
		if alpha > 0 && alpha <= 1 {
			g.alpha = alpha
		}
	}
}

// NewGate создаёт фильтр в состоянии Unknown.
func NewGate(opts ...Option) *Gate {
	g := &Gate{alpha: DefaultAlpha}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Update учитывает очередной отсчёт и возвращает новое состояние.
func (g *Gate) Update(sample entity.OrientationSample) entity.Readiness {
	// Нет значения по оси — доверяем визуальному выравниванию.
	if !sample.Complete() {
		g.state = entity.ReadinessAligned
		return g.state
	}

	pitch, roll := *sample.Pitch, *sample.Roll
	if !g.filter.Seeded() {
		g.filter = entity.FilterState{Pitch: &pitch, Roll: &roll}
	} else {
		fp := *g.filter.Pitch + g.alpha*(pitch-*g.filter.Pitch)
		fr := *g.filter.Roll + g.alpha*(roll-*g.filter.Roll)
		g.filter = entity.FilterState{Pitch: &fp, Roll: &fr}
	}

	g.state = Classify(g.Tilt())
	return g.state
}

// MarkUnavailable переводит фильтр в режим без датчика: всегда Aligned.
func (g *Gate) MarkUnavailable() {
	g.unavailable = true
	g.state = entity.ReadinessAligned
}

// Reset сбрасывает состояние фильтра по окончании сессии.
func (g *Gate) Reset() {
	g.filter = entity.FilterState{}
	g.state = entity.ReadinessUnknown
	g.unavailable = false
}

// State возвращает последнее вычисленное состояние.
func (g *Gate) State() entity.Readiness {
	return g.state
}

// Unavailable сообщает, что датчика нет.
func (g *Gate) Unavailable() bool {
	return g.unavailable
}

// Filter возвращает копию состояния фильтра.
func (g *Gate) Filter() entity.FilterState {
	var out entity.FilterState
	if g.filter.Pitch != nil {
		p := *g.filter.Pitch
		out.Pitch = &p
	}
	if g.filter.Roll != nil {
		r := *g.filter.Roll
		out.Roll = &r
	}
	return out
}

// Errors возвращает отклонение pitch от вертикали и roll после фильтра.
func (g *Gate) Errors() (pitchError, roll float64, ok bool) {
	if !g.filter.Seeded() {
		return 0, 0, false
	}
	return *g.filter.Pitch - UprightPitch, *g.filter.Roll, true
}

// Tilt возвращает суммарный наклон в градусах, 0 если отсчётов не было.
func (g *Gate) Tilt() float64 {
	pitchError, roll, ok := g.Errors()
	if !ok {
		return 0
	}
	return math.Hypot(pitchError, roll)
}

// Hints возвращает подсказки по каждой оси независимо.
func (g *Gate) Hints() []entity.Hint {
	pitchError, roll, ok := g.Errors()
	if !ok || g.unavailable {
		return nil
	}

	var hints []entity.Hint
	switch {
	case roll > HintThreshold:
		hints = append(hints, entity.HintTiltLeft)
	case roll < -HintThreshold:
		hints = append(hints, entity.HintTiltRight)
	}
	switch {
	case pitchError > HintThreshold:
		hints = append(hints, entity.HintTiltToward)
	case pitchError < -HintThreshold:
		hints = append(hints, entity.HintTiltAway)
	}
	return hints
}

// Classify переводит наклон в состояние готовности.
func Classify(tilt float64) entity.Readiness {
	switch {
	case tilt <= AlignedTilt:
		return entity.ReadinessAligned
	case tilt <= AlmostAlignedTilt:
		return entity.ReadinessAlmostAligned
	default:
		return entity.ReadinessMisaligned
	}
}

// Policy правило, разрешающее съёмку
type Policy string

const (
	PolicyLenient Policy = "lenient" // Aligned и AlmostAligned
	PolicyStrict  Policy = "strict"  // только Aligned
)

// ParsePolicy разбирает значение из конфигурации.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyLenient, PolicyStrict:
		return Policy(s), nil
	case "":
		return PolicyLenient, nil
	default:
		return "", fmt.Errorf("unknown capture policy %q", s)
	}
}

// Permits сообщает, разрешена ли съёмка в данном состоянии.
func (p Policy) Permits(r entity.Readiness) bool {
	switch r {
	case entity.ReadinessAligned:
		return true
	case entity.ReadinessAlmostAligned:
		return p != PolicyStrict
	default:
		return false
	}
}
