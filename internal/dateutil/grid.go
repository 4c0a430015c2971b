package dateutil

import "time"

// DayCell is one cell of a calendar month grid.
type DayCell struct {
	Date           Date `json:"date"`
	IsCurrentMonth bool `json:"is_current_month"`
	IsToday        bool `json:"is_today"`
	IsPast         bool `json:"is_past"`
}

// MonthGrid builds a calendar grid for the given month: full weeks of 7
// cells starting on Sunday, covering every day of the month plus the
// leading and trailing days of the adjacent months needed to square off
// the first and last weeks. The number of rows is minimal (4-6 depending
// on the month).
func MonthGrid(year int, month time.Month, today Date) [][]DayCell {
	first := NewDate(year, month, 1)
	last := NewDate(year, month, DaysInMonth(year, month))

	start := first.AddDays(-int(first.Weekday()))
	end := last.AddDays(6 - int(last.Weekday()))

	var grid [][]DayCell
	for d := start; !d.After(end); d = d.AddDays(7) {
		row := make([]DayCell, 7)
		for i := 0; i < 7; i++ {
			cell := d.AddDays(i)
			row[i] = DayCell{
				Date:           cell,
				IsCurrentMonth: cell.Month == month && cell.Year == year,
				IsToday:        cell == today,
				IsPast:         cell.Before(today),
			}
		}
		grid = append(grid, row)
	}
	return grid
}
