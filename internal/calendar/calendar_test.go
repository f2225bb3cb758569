package calendar

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const holidayICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//holidays//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:1@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240208\r\n" +
	"DTEND;VALUE=DATE:20240211\r\n" +
	"SUMMARY:Lunar New Year\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:2@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240217\r\n" +
	"SUMMARY:补班\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:3@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART:20240404T020000Z\r\n" +
	"DTEND:20240404T030000Z\r\n" +
	"SUMMARY:Children's Day\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:4@test\r\n" +
	"DTSTAMP:20240101T000000Z\r\n" +
	"DTSTART;VALUE=DATE:20240210\r\n" +
	"SUMMARY:Makeup Workday\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParse(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*3600)
	got, err := Parse(strings.NewReader(holidayICS), loc)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := Dates{
		Holidays: []string{"2024-02-08", "2024-02-09", "2024-04-04"},
		Workdays: []string{"2024-02-10", "2024-02-17"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("dates mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.ics")
	if err := os.WriteFile(path, []byte(holidayICS), 0644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(context.Background(), path, time.UTC)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Holidays) != 3 || len(got.Workdays) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(context.Background(), filepath.Join(t.TempDir(), "missing.ics"), time.UTC); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsWorkdaySummary(t *testing.T) {
	for _, s := range []string{"Makeup WORKDAY", "春节补班", "補班日", "調整上班"} {
		if !isWorkdaySummary(s) {
			t.Errorf("isWorkdaySummary(%q) = false", s)
		}
	}
	for _, s := range []string{"", "Dragon Boat Festival", "清明节"} {
		if isWorkdaySummary(s) {
			t.Errorf("isWorkdaySummary(%q) = true", s)
		}
	}
}
