package model

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestParseRunDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "00:10:22.111", want: 10*time.Minute + 22*time.Second + 111*time.Millisecond},
		{in: "00:00:00", want: 0},
		{in: "01:00:00", want: time.Hour},
		{in: "100:59:59.999", want: 100*time.Hour + 59*time.Minute + 59*time.Second + 999*time.Millisecond},
		{in: "00:00:01.5", want: time.Second + 500*time.Millisecond},
		{in: "00:10:22", want: 10*time.Minute + 22*time.Second},
		{in: "2562047:00:00", want: 2562047 * time.Hour},
		{in: "2562047:59:59.999", wantErr: true},
		{in: "3000000:00:00", wantErr: true},
		{in: "00:60:00", wantErr: true},
		{in: "00:00:60", wantErr: true},
		{in: "-1:00:00", wantErr: true},
		{in: "00:00", wantErr: true},
		{in: "ten minutes", wantErr: true},
		{in: "00:00:00.", wantErr: true},
		{in: "00:00:00.1234567890", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRunDuration(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRunDuration(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRunDuration(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRunDuration(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseRunDuration_ScenarioMilliseconds(t *testing.T) {
	d, err := ParseRunDuration("00:10:22.111")
	if err != nil {
		t.Fatalf("ParseRunDuration() error = %v", err)
	}
	if got := d.Milliseconds(); got != 622111 {
		t.Errorf("milliseconds = %d, want 622111", got)
	}
}

func TestFormatRunDuration_RoundTrip(t *testing.T) {
	for _, in := range []string{"00:10:22.111", "01:00:00.000", "99:59:59.001"} {
		d, err := ParseRunDuration(in)
		if err != nil {
			t.Fatalf("ParseRunDuration(%q) error = %v", in, err)
		}
		if got := FormatRunDuration(d); got != in {
			t.Errorf("FormatRunDuration(%v) = %q, want %q", d, got, in)
		}
	}
}

func TestNewRunView_Timed(t *testing.T) {
	cat := &Category{ID: "cat1", RunType: RunTypeTime}
	run := &Run{
		ID:          "run1",
		CategoryID:  "cat1",
		UserID:      "user1",
		PlayedOn:    NewDate(2025, time.January, 1),
		TimeOrScore: int64(10*time.Minute + 22*time.Second + 111*time.Millisecond),
	}

	view := NewRunView(run, cat)

	if view.RunType != RunTypeTime {
		t.Errorf("RunType = %q, want %q", view.RunType, RunTypeTime)
	}
	if view.Time != "00:10:22.111" {
		t.Errorf("Time = %q, want %q", view.Time, "00:10:22.111")
	}
	if view.Score != nil {
		t.Errorf("Score = %v, want nil on a timed view", *view.Score)
	}
	if view.Duration() != time.Duration(run.TimeOrScore) {
		t.Errorf("Duration() = %v, want %v", view.Duration(), time.Duration(run.TimeOrScore))
	}
}

func TestNewRunView_Scored(t *testing.T) {
	cat := &Category{ID: "cat1", RunType: RunTypeScore}
	run := &Run{ID: "run1", CategoryID: "cat1", TimeOrScore: 9001}

	view := NewRunView(run, cat)

	if view.Score == nil || *view.Score != 9001 {
		t.Fatalf("Score = %v, want 9001", view.Score)
	}
	if view.Time != "" {
		t.Errorf("Time = %q, want empty on a scored view", view.Time)
	}
}

func TestNewRunView_NilCategoryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewRunView(nil category) should panic")
		}
	}()
	NewRunView(&Run{ID: "run1", CategoryID: "cat1"}, nil)
}

func TestNewRunView_ForeignCategoryPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("NewRunView with a foreign category should panic")
		}
	}()
	NewRunView(&Run{ID: "run1", CategoryID: "cat1"}, &Category{ID: "other"})
}

func TestRunView_JSONShape(t *testing.T) {
	cat := &Category{ID: "cat1", RunType: RunTypeScore}
	run := &Run{ID: "run1", CategoryID: "cat1", UserID: "u1", TimeOrScore: 5}

	data, err := json.Marshal(NewRunView(run, cat))
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if strings.Contains(string(data), `"time"`) {
		t.Errorf("scored view should omit the time field: %s", data)
	}
	if !strings.Contains(string(data), `"score":5`) {
		t.Errorf("scored view should include the score: %s", data)
	}
}

func TestDate_JSONRoundTrip(t *testing.T) {
	d := NewDate(2025, time.January, 1)

	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `"2025-01-01"` {
		t.Errorf("Marshal() = %s, want %q", data, `"2025-01-01"`)
	}

	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if back.String() != d.String() {
		t.Errorf("round trip = %s, want %s", back, d)
	}
}

func TestDate_UnmarshalRejectsGarbage(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"January 1st"`), &d); err == nil {
		t.Fatal("Unmarshal should reject a non-ISO date")
	}
}

func TestRole_CanSubmitRuns(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleRegistered, false},
		{RoleConfirmed, true},
		{RoleAdministrator, true},
		{RoleBanned, false},
	}
	for _, tt := range tests {
		if got := tt.role.CanSubmitRuns(); got != tt.want {
			t.Errorf("%s.CanSubmitRuns() = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestParseRunType(t *testing.T) {
	if rt, err := ParseRunType("Time"); err != nil || rt != RunTypeTime {
		t.Errorf("ParseRunType(Time) = %v, %v", rt, err)
	}
	if rt, err := ParseRunType(" SCORE "); err != nil || rt != RunTypeScore {
		t.Errorf("ParseRunType( SCORE ) = %v, %v", rt, err)
	}
	if _, err := ParseRunType("distance"); err == nil {
		t.Error("ParseRunType(distance) should error")
	}
}
