package entity

// OrientationSample сырой отсчёт датчика ориентации в градусах.
// nil означает, что датчик не сообщил значение по этой оси.
type OrientationSample struct {
	Pitch *float64 `json:"pitch"`
	Roll  *float64 `json:"roll"`
}

// NewOrientationSample создаёт отсчёт с обоими значениями.
func NewOrientationSample(pitch, roll float64) OrientationSample {
	return OrientationSample{Pitch: &pitch, Roll: &roll}
}

// Complete сообщает, что заданы обе оси.
func (s OrientationSample) Complete() bool {
	return s.Pitch != nil && s.Roll != nil
}

// FilterState состояние низкочастотного фильтра. nil до первого отсчёта.
type FilterState struct {
	Pitch *float64
	Roll  *float64
}

// Seeded сообщает, что фильтр получил первый отсчёт.
func (f FilterState) Seeded() bool {
	return f.Pitch != nil && f.Roll != nil
}

// Readiness готовность устройства к съёмке
type Readiness int

const (
	ReadinessUnknown       Readiness = iota // отсчётов ещё не было
	ReadinessAligned                        // выровнено
	ReadinessAlmostAligned                  // почти выровнено
	ReadinessMisaligned                     // наклон слишком большой
)

func (r Readiness) String() string {
	switch r {
	case ReadinessAligned:
		return "aligned"
	case ReadinessAlmostAligned:
		return "almost_aligned"
	case ReadinessMisaligned:
		return "misaligned"
	default:
		return "unknown"
	}
}

// Hint подсказка, куда наклонить устройство
type Hint string

const (
	HintTiltLeft   Hint = "tilt_left"
	HintTiltRight  Hint = "tilt_right"
	HintTiltToward Hint = "tilt_toward"
	HintTiltAway   Hint = "tilt_away"
)
