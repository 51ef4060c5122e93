package notify

import (
	"fmt"
	"sort"
	"time"
)

// Thresholds lista ascendente de umbrales en días antes del instante objetivo
// (p.ej. [30, 14, 7, 2, 0] para vencimiento de lotes).
type Thresholds []int

// NewThresholds normaliza (ordena ascendente) la lista de umbrales.
func NewThresholds(days ...int) Thresholds {
	t := make(Thresholds, len(days))
	copy(t, days)
	sort.Ints(t)
	return t
}

// Next devuelve el umbral que aplica para d días restantes (fraccionales,
// con signo): el menor t_i con d <= t_i. Si d supera todos los umbrales
// devuelve el mayor; si d < 0 (objetivo ya pasado) devuelve el menor.
func (t Thresholds) Next(d float64) int {
	if len(t) == 0 {
		return 0
	}
	if d < 0 {
		return t[0]
	}
	for _, th := range t {
		if d <= float64(th) {
			return th
		}
	}
	return t[len(t)-1]
}

// Due indica si d está dentro de la ventana de armado del umbral: las 24
// horas que terminan exactamente en el umbral (t-1 <= d <= t). Garantiza una
// única ventana por cruce de umbral sin importar con qué frecuencia corra el
// motor, siempre que corra al menos una vez cada 24 horas.
func Due(d float64, threshold int) bool {
	return d <= float64(threshold) && d >= float64(threshold)-1
}

// DaysUntil días restantes (fraccionales, con signo) hasta el objetivo.
func DaysUntil(target, now time.Time) float64 {
	return target.Sub(now).Hours() / 24
}

// Label etiqueta estable del umbral, parte de la clave de deduplicación en
// notification_records ("D-7", "D-0", ...).
func Label(threshold int) string {
	return fmt.Sprintf("D-%d", threshold)
}
