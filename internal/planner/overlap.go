package planner

import (
	"fmt"

	"github.com/noah-isme/schedule-builder-api/internal/models"
)

// OverlapPair is two sections whose meeting intervals intersect on the same day.
// First precedes Second in the input order.
type OverlapPair struct {
	Day    models.Weekday
	First  models.EnrichedSection
	Second models.EnrichedSection
}

// Key identifies the pair independently of argument order.
func (p OverlapPair) Key() string {
	lo, hi := p.First.ID, p.Second.ID
	if lo > hi {
		lo, hi = hi, lo
	}
	return fmt.Sprintf("%s_conflict_%d_%d", p.Day, lo, hi)
}

// IDs returns both section ids, first member first.
func (p OverlapPair) IDs() []int64 {
	return []int64{p.First.ID, p.Second.ID}
}

// Overlaps reports whether the half-open hour intervals of a and b intersect on the same day.
// A section never overlaps itself.
func Overlaps(a, b models.EnrichedSection) bool {
	if a.ID == b.ID || a.Day != b.Day {
		return false
	}
	return a.StartHour() < b.EndHour() && b.StartHour() < a.EndHour()
}

// FindOverlaps returns every overlapping pair once. Sections are partitioned by day and each
// day is scanned pairwise; days are visited in week order, then sections in input order.
func FindOverlaps(sections []models.EnrichedSection) []OverlapPair {
	byDay := make(map[models.Weekday][]models.EnrichedSection)
	var extraDays []models.Weekday
	for _, s := range sections {
		if _, seen := byDay[s.Day]; !seen && s.Day.Index() < 0 {
			extraDays = append(extraDays, s.Day)
		}
		byDay[s.Day] = append(byDay[s.Day], s)
	}

	days := append(append([]models.Weekday{}, models.Week...), extraDays...)
	seen := make(map[string]struct{})
	var pairs []OverlapPair
	for _, day := range days {
		daySections := byDay[day]
		for i := 0; i < len(daySections); i++ {
			for j := i + 1; j < len(daySections); j++ {
				if !Overlaps(daySections[i], daySections[j]) {
					continue
				}
				pair := OverlapPair{Day: day, First: daySections[i], Second: daySections[j]}
				key := pair.Key()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				pairs = append(pairs, pair)
			}
		}
	}
	return pairs
}

// OverlappingWith returns the sections in pool that overlap candidate.
func OverlappingWith(candidate models.EnrichedSection, pool []models.EnrichedSection) []models.EnrichedSection {
	var out []models.EnrichedSection
	for _, s := range pool {
		if Overlaps(candidate, s) {
			out = append(out, s)
		}
	}
	return out
}
