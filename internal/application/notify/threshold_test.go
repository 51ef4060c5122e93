package notify_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/tu-usuario/vaxtrack/internal/application/notify"
)

func TestThresholds_NextEligeElMenorQueCubre(t *testing.T) {
	th := notify.NewThresholds(30, 14, 7, 2, 0)

	cases := []struct {
		days float64
		want int
	}{
		{29.5, 30},
		{14, 14},
		{7, 7},
		{5, 7},   // entre 2 y 7: aplica el 7
		{1.5, 2},
		{0.2, 2}, // la ventana de 0 es [-1, 0]; 0.2 cae en la de 2
		{0, 0},
		{-2, 0},  // objetivo ya pasado: el menor umbral
		{100, 30}, // fuera de todos: el mayor
	}
	for _, c := range cases {
		assert.Equal(t, c.want, th.Next(c.days), "Next(%v)", c.days)
	}
}

func TestThresholds_NewOrdenaAscendente(t *testing.T) {
	th := notify.NewThresholds(7, 30, 0, 14, 2)
	assert.Equal(t, notify.Thresholds{0, 2, 7, 14, 30}, th)
}

// La ventana de armado es el día que termina exactamente en el umbral:
// t-1 <= d <= t. Una sola ventana por cruce, corra el motor cuando corra.
func TestDue_VentanaDeArmado(t *testing.T) {
	assert.True(t, notify.Due(7, 7), "el borde superior está dentro")
	assert.True(t, notify.Due(6.5, 7))
	assert.True(t, notify.Due(6, 7), "el borde inferior está dentro")
	assert.False(t, notify.Due(5.9, 7), "pasada la ventana del 7 ya toca la del 2")
	assert.False(t, notify.Due(7.1, 7), "todavía no cruza el umbral")

	assert.True(t, notify.Due(0, 0))
	assert.True(t, notify.Due(-0.5, 0), "el día siguiente al objetivo sigue en la ventana del 0")
	assert.False(t, notify.Due(-1.1, 0))
}

func TestDaysUntil_FraccionalConSigno(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.InDelta(t, 2.5, notify.DaysUntil(now.Add(60*time.Hour), now), 1e-9)
	assert.InDelta(t, -1, notify.DaysUntil(now.Add(-24*time.Hour), now), 1e-9)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "D-7", notify.Label(7))
	assert.Equal(t, "D-0", notify.Label(0))
}
