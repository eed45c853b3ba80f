package scheduling

import (
	"fmt"

	"github.com/google/uuid"
)

// Fixed-date Argentine national holidays, used by the bulk importer. Movable
// holidays (carnival, Easter) shift every year and are entered manually.
var argentineFixedHolidays = []struct {
	Month, Day int
	Name       string
}{
	{1, 1, "Año Nuevo"},
	{3, 24, "Día Nacional de la Memoria por la Verdad y la Justicia"},
	{4, 2, "Día del Veterano y de los Caídos en la Guerra de Malvinas"},
	{5, 1, "Día del Trabajador"},
	{5, 25, "Día de la Revolución de Mayo"},
	{6, 20, "Paso a la Inmortalidad del General Manuel Belgrano"},
	{7, 9, "Día de la Independencia"},
	{12, 8, "Inmaculada Concepción de María"},
	{12, 25, "Navidad"},
}

// ArgentineHolidays returns the fixed national holidays for one year, shaped
// as importable rows. clinicID may be nil to apply to every clinic.
func ArgentineHolidays(year int, clinicID *uuid.UUID) []Holiday {
	hs := make([]Holiday, 0, len(argentineFixedHolidays))
	for _, h := range argentineFixedHolidays {
		hs = append(hs, Holiday{
			ClinicID: clinicID,
			Date:     fmt.Sprintf("%04d-%02d-%02d", year, h.Month, h.Day),
			Name:     h.Name,
		})
	}
	return hs
}
