package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Run is a single submitted attempt at a category.
//
// TimeOrScore is the raw stored value: nanoseconds of elapsed duration for a
// timed category, a plain score for a scored one. The run itself does not
// know which — interpretation belongs to the owning category's RunType and
// happens in NewRunView. Runs are never hard-deleted; DeletedAt marks them
// soft-deleted while keeping them queryable on request.
type Run struct {
	ID          string     `json:"id"          db:"id"`
	CategoryID  string     `json:"categoryId"  db:"category_id"`
	UserID      string     `json:"userId"      db:"user_id"`
	Info        string     `json:"info"        db:"info"` // free text, never null, "" by default
	PlayedOn    Date       `json:"playedOn"    db:"played_on"`
	TimeOrScore int64      `json:"-"           db:"time_or_score"`
	CreatedAt   time.Time  `json:"createdAt"   db:"created_at"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
}

// Deleted reports whether the run has been soft-deleted.
func (r *Run) Deleted() bool {
	return r.DeletedAt != nil
}

// RunView is the wire representation of a run, with the stored value
// presented under the field matching the category's run type: Time for timed
// categories (formatted "HH:MM:SS.mmm"), Score for scored ones.
type RunView struct {
	ID         string     `json:"id"`
	CategoryID string     `json:"categoryId"`
	UserID     string     `json:"userId"`
	Info       string     `json:"info"`
	PlayedOn   Date       `json:"playedOn"`
	RunType    RunType    `json:"runType"`
	Time       string     `json:"time,omitempty"`
	Score      *int64     `json:"score,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// Duration returns the timed value of the view. Zero for scored runs.
func (v RunView) Duration() time.Duration {
	if v.RunType != RunTypeTime {
		return 0
	}
	d, err := ParseRunDuration(v.Time)
	if err != nil {
		return 0
	}
	return d
}

// NewRunView maps a run to its typed view using the resolved category.
//
// The category must already be loaded and must be the run's owner. Passing a
// nil or foreign category is a bug in the caller, not a user-facing
// condition, so this panics rather than returning an error.
func NewRunView(run *Run, category *Category) RunView {
	if category == nil {
		panic("model: NewRunView called with nil category")
	}
	if category.ID != run.CategoryID {
		panic(fmt.Sprintf("model: NewRunView called with category %s for run owned by %s",
			category.ID, run.CategoryID))
	}

	view := RunView{
		ID:         run.ID,
		CategoryID: run.CategoryID,
		UserID:     run.UserID,
		Info:       run.Info,
		PlayedOn:   run.PlayedOn,
		RunType:    category.RunType,
		CreatedAt:  run.CreatedAt,
		DeletedAt:  run.DeletedAt,
	}

	switch category.RunType {
	case RunTypeScore:
		score := run.TimeOrScore
		view.Score = &score
	default:
		view.Time = FormatRunDuration(time.Duration(run.TimeOrScore))
	}

	return view
}

// ParseRunDuration parses the wire duration format "HH:MM:SS" or
// "HH:MM:SS.fff" into a time.Duration. Minutes and seconds must be below 60;
// the fractional part may carry up to nanosecond precision.
func ParseRunDuration(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("model: duration %q must be in HH:MM:SS.fff form", s)
	}

	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 {
		return 0, fmt.Errorf("model: duration %q has invalid hours", s)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("model: duration %q has invalid minutes", s)
	}

	secPart := parts[2]
	fracNanos := int64(0)
	if dot := strings.IndexByte(secPart, '.'); dot >= 0 {
		frac := secPart[dot+1:]
		secPart = secPart[:dot]
		if frac == "" || len(frac) > 9 {
			return 0, fmt.Errorf("model: duration %q has invalid fraction", s)
		}
		n, err := strconv.Atoi(frac)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("model: duration %q has invalid fraction", s)
		}
		// Right-pad to nanoseconds: ".111" means 111ms, not 111ns.
		fracNanos = int64(n)
		for i := len(frac); i < 9; i++ {
			fracNanos *= 10
		}
	}

	seconds, err := strconv.Atoi(secPart)
	if err != nil || seconds < 0 || seconds > 59 {
		return 0, fmt.Errorf("model: duration %q has invalid seconds", s)
	}

	// The sub-hour part is under one hour in nanoseconds, so the total
	// overflows int64 only through the hours term.
	rest := int64(minutes)*int64(time.Minute) +
		int64(seconds)*int64(time.Second) +
		fracNanos
	if int64(hours) > (math.MaxInt64-rest)/int64(time.Hour) {
		return 0, fmt.Errorf("model: duration %q is out of range", s)
	}

	return time.Duration(int64(hours)*int64(time.Hour) + rest), nil
}

// FormatRunDuration renders a duration in the wire form "HH:MM:SS.mmm".
func FormatRunDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	d -= minutes * time.Minute
	seconds := d / time.Second
	d -= seconds * time.Second
	millis := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}
