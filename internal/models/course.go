package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SectionType enumerates the kinds of meetings a course offers.
type SectionType string

const (
	SectionLecture  SectionType = "LECTURE"
	SectionLab      SectionType = "LAB"
	SectionPractice SectionType = "PRACTICE"
)

// SectionTypes lists section types in quota order (lectures/labs/practices).
var SectionTypes = []SectionType{SectionLecture, SectionLab, SectionPractice}

var sectionTypeAliases = map[string]SectionType{
	"lecture":      SectionLecture,
	"lec":          SectionLecture,
	"л":            SectionLecture,
	"лекция":       SectionLecture,
	"lab":          SectionLab,
	"laboratory":   SectionLab,
	"лаб":          SectionLab,
	"лабораторная": SectionLab,
	"practice":     SectionPractice,
	"п":            SectionPractice,
	"практика":     SectionPractice,
}

// ParseSectionType maps portal and API spellings onto a SectionType.
func ParseSectionType(raw string) (SectionType, error) {
	if t, ok := sectionTypeAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return t, nil
	}
	return "", fmt.Errorf("unknown section type %q", raw)
}

// Valid reports whether t is one of the known section types.
func (t SectionType) Valid() bool {
	switch t {
	case SectionLecture, SectionLab, SectionPractice:
		return true
	}
	return false
}

// DefaultDuration is the number of hours a section of this type usually occupies.
func (t SectionType) DefaultDuration() int {
	if t == SectionLab {
		return 2
	}
	return 1
}

// Weekday is a day of the teaching week.
type Weekday string

const (
	Monday    Weekday = "MON"
	Tuesday   Weekday = "TUE"
	Wednesday Weekday = "WED"
	Thursday  Weekday = "THU"
	Friday    Weekday = "FRI"
	Saturday  Weekday = "SAT"
	Sunday    Weekday = "SUN"
)

// Week lists weekdays in calendar order starting on Monday.
var Week = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var weekdayLabels = map[Weekday]string{
	Monday:    "Пн",
	Tuesday:   "Вт",
	Wednesday: "Ср",
	Thursday:  "Чт",
	Friday:    "Пт",
	Saturday:  "Сб",
	Sunday:    "Вс",
}

var weekdayAliases = map[string]Weekday{
	"mon": Monday, "monday": Monday, "пн": Monday,
	"tue": Tuesday, "tuesday": Tuesday, "вт": Tuesday,
	"wed": Wednesday, "wednesday": Wednesday, "ср": Wednesday,
	"thu": Thursday, "thursday": Thursday, "чт": Thursday,
	"fri": Friday, "friday": Friday, "пт": Friday,
	"sat": Saturday, "saturday": Saturday, "сб": Saturday,
	"sun": Sunday, "sunday": Sunday, "вс": Sunday,
}

// ParseWeekday accepts English and localized day names.
func ParseWeekday(raw string) (Weekday, error) {
	if d, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unknown day %q", raw)
}

// Index returns the zero-based position of the day in the week, or -1.
func (d Weekday) Index() int {
	for i, day := range Week {
		if day == d {
			return i
		}
	}
	return -1
}

// Label returns the localized short label shown to students.
func (d Weekday) Label() string {
	if label, ok := weekdayLabels[d]; ok {
		return label
	}
	return string(d)
}

// VacantTeacher marks sections without an assigned teacher.
const VacantTeacher = "vacant"

// Section is one weekly meeting of a course.
type Section struct {
	ID       int64       `db:"id" json:"id"`
	CourseID int64       `db:"course_id" json:"-"`
	Type     SectionType `db:"type" json:"type"`
	Day      Weekday     `db:"day" json:"day"`
	Time     string      `db:"time" json:"time"`
	Duration int         `db:"duration" json:"duration"`
	Teacher  string      `db:"teacher" json:"teacher"`
	Room     string      `db:"room" json:"room"`
	RawText  string      `db:"raw_text" json:"raw_text,omitempty"`
}

// StartHour parses the leading hour of the "HH:00" start time.
func (s Section) StartHour() int {
	return ParseHour(s.Time)
}

// EndHour is the exclusive end of the occupied interval.
func (s Section) EndHour() int {
	return s.StartHour() + s.Duration
}

// ParseHour reads the hour part of an "HH:MM" string; malformed input yields 0.
func ParseHour(raw string) int {
	head, _, _ := strings.Cut(strings.TrimSpace(raw), ":")
	hour, err := strconv.Atoi(head)
	if err != nil {
		return 0
	}
	return hour
}

// FormatHour renders an hour as zero-padded "HH:00".
func FormatHour(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// Course is a catalog entry owning its sections.
type Course struct {
	ID        int64     `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	Name      string    `db:"name" json:"name"`
	Credits   int       `db:"credits" json:"credits"`
	Formula   string    `db:"formula" json:"formula"`
	Sections  []Section `db:"-" json:"sections"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseSummary is the lightweight catalog listing row.
type CourseSummary struct {
	Code    string `db:"code" json:"code"`
	Name    string `db:"name" json:"name"`
	Credits int    `db:"credits" json:"credits"`
}

// EnrichedSection is a section tagged with its owning course identity.
type EnrichedSection struct {
	Section
	CourseCode string `json:"course_code"`
	CourseName string `json:"course_name"`
}

// Limits caps how many sections of each type a student may pick for a course.
type Limits struct {
	MaxLectures  int `json:"max_lectures"`
	MaxLabs      int `json:"max_labs"`
	MaxPractices int `json:"max_practices"`
}

// Max returns the cap for the given section type.
func (l Limits) Max(t SectionType) int {
	switch t {
	case SectionLecture:
		return l.MaxLectures
	case SectionLab:
		return l.MaxLabs
	case SectionPractice:
		return l.MaxPractices
	}
	return 0
}

// Total sums the caps across all types.
func (l Limits) Total() int {
	return l.MaxLectures + l.MaxLabs + l.MaxPractices
}

// Counts tallies selected sections per type for one course.
type Counts struct {
	Lectures  int `json:"lectures"`
	Labs      int `json:"labs"`
	Practices int `json:"practices"`
}

// Of returns the count for the given section type.
func (c Counts) Of(t SectionType) int {
	switch t {
	case SectionLecture:
		return c.Lectures
	case SectionLab:
		return c.Labs
	case SectionPractice:
		return c.Practices
	}
	return 0
}

// Total sums counts across all types.
func (c Counts) Total() int {
	return c.Lectures + c.Labs + c.Practices
}
