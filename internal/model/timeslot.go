package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeSlot is one of the three handoff windows within a day. Slots carry no
// clock-time duration; they only order pickups and returns within a date.
type TimeSlot string

const (
	SlotMorning   TimeSlot = "morning"
	SlotAfternoon TimeSlot = "afternoon"
	SlotEvening   TimeSlot = "evening"
)

var slotRanks = map[TimeSlot]int{
	SlotMorning:   0,
	SlotAfternoon: 1,
	SlotEvening:   2,
}

// Rank returns the slot position within a day (morning < afternoon <
// evening), or -1 for an unknown slot.
func (s TimeSlot) Rank() int {
	if r, ok := slotRanks[s]; ok {
		return r
	}
	return -1
}

func (s TimeSlot) Valid() bool { return s.Rank() >= 0 }

func (s TimeSlot) Before(o TimeSlot) bool { return s.Rank() < o.Rank() }

// ParseTimeSlot normalizes and validates a slot name from client input.
func ParseTimeSlot(s string) (TimeSlot, error) {
	slot := TimeSlot(strings.ToLower(strings.TrimSpace(s)))
	if !slot.Valid() {
		return "", fmt.Errorf("unknown time slot %q (want morning, afternoon or evening)", s)
	}
	return slot, nil
}

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// DateOnly normalizes t to its calendar date at UTC midnight. All dates the
// store holds go through this, so date comparisons are exact.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	return t, nil
}

// SlotTime is a point on the booking timeline: a calendar date plus a slot.
// Points are totally ordered by date first, then slot rank.
type SlotTime struct {
	Date time.Time `json:"date"`
	Slot TimeSlot  `json:"slot"`
}

func NewSlotTime(date time.Time, slot TimeSlot) SlotTime {
	return SlotTime{Date: DateOnly(date), Slot: slot}
}

// Compare returns -1, 0 or 1 ordering p against o by date, then slot.
func (p SlotTime) Compare(o SlotTime) int {
	switch {
	case p.Date.Before(o.Date):
		return -1
	case p.Date.After(o.Date):
		return 1
	case p.Slot.Rank() < o.Slot.Rank():
		return -1
	case p.Slot.Rank() > o.Slot.Rank():
		return 1
	default:
		return 0
	}
}

func (p SlotTime) Before(o SlotTime) bool { return p.Compare(o) < 0 }

func (p SlotTime) After(o SlotTime) bool { return p.Compare(o) > 0 }

func (p SlotTime) Equal(o SlotTime) bool { return p.Compare(o) == 0 }

func (p SlotTime) String() string {
	return fmt.Sprintf("%s %s", p.Date.Format(DateLayout), p.Slot)
}
