package domain

import (
	"testing"
	"time"
)

func TestWorkingHoursValidate(t *testing.T) {
	cases := []struct {
		name    string
		wh      WorkingHours
		wantErr bool
	}{
		{name: "ok", wh: WorkingHours{DayOfWeek: 1, StartTime: "08:00", EndTime: "17:00"}},
		{name: "start after end", wh: WorkingHours{DayOfWeek: 1, StartTime: "17:00", EndTime: "08:00"}, wantErr: true},
		{name: "equal", wh: WorkingHours{DayOfWeek: 1, StartTime: "08:00", EndTime: "08:00"}, wantErr: true},
		{name: "bad clock", wh: WorkingHours{DayOfWeek: 1, StartTime: "8:00", EndTime: "17:00"}, wantErr: true},
		{name: "bad day", wh: WorkingHours{DayOfWeek: 7, StartTime: "08:00", EndTime: "17:00"}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.wh.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestWorkingHoursCoversHalfOpen(t *testing.T) {
	wh := WorkingHours{StartTime: "08:00", EndTime: "17:00", IsAvailable: true}
	if !wh.Covers(8 * 60) {
		t.Fatal("start is inside")
	}
	if !wh.Covers(16*60 + 59) {
		t.Fatal("16:59 is inside")
	}
	if wh.Covers(17 * 60) {
		t.Fatal("end is outside")
	}
	wh.IsAvailable = false
	if wh.Covers(10 * 60) {
		t.Fatal("unavailable record covers nothing")
	}
}

func TestSlotInUsesLocation(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	// 2026-03-17 02:30 UTC is Monday 22:30 in New York.
	slot := SlotIn(time.Date(2026, 3, 17, 2, 30, 0, 0, time.UTC), loc)
	if slot.DayOfWeek != int(time.Monday) {
		t.Fatalf("expected Monday, got %d", slot.DayOfWeek)
	}
	if slot.MinuteOfDay != 22*60+30 {
		t.Fatalf("expected 22:30, got %d", slot.MinuteOfDay)
	}
	if slot.Date.Format(DateLayout) != "2026-03-16" {
		t.Fatalf("expected local date 2026-03-16, got %s", slot.Date.Format(DateLayout))
	}
}
