// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package stv

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
)

// Event names
const (
	EventInvalidBallot = "invalidBallot"
	EventTally         = "tally"
	EventTallyComplete = "tallyComplete"
	EventQuota         = "quota"
	EventMetQuota      = "metQuota"
	EventNotMetQuota   = "notMetQuota"
	EventElimination   = "elimination"
	EventDistribution  = "distribution"
	EventElected       = "elected"
	EventCountComplete = "countComplete"
	EventComplete      = "complete"
)

// Distribution sources
const (
	SourceElimination = "elimination"
	SourceSurplus     = "surplus"
)

// Event is a single step of the count.
type Event struct {
	Name string `json:"event"`
	Data any    `json:"data"`
}

type InvalidBallotData struct{}

type TallyData struct {
	Invalid   bool   `json:"invalid"`
	Candidate string `json:"candidate"`
	Ballot    Ballot `json:"ballot"`
}

type TallyCompleteData struct {
	Tallies map[string]int `json:"tallies"`
}

type QuotaData struct {
	Quota int `json:"quota"`
}

// CandidatesData is the payload of metQuota and notMetQuota.
type CandidatesData struct {
	Candidates []string `json:"candidates"`
}

type EliminationData struct {
	Candidate string `json:"candidate"`
}

type DistributionData struct {
	Source  string         `json:"source"`
	Changes map[string]int `json:"changes"`
	Tallies map[string]int `json:"tallies"`
}

type ElectedData struct {
	Candidate   string   `json:"candidate"`
	Tally       int      `json:"tally"`
	SeatsFilled []string `json:"seatsFilled"`
	Surplus     int      `json:"surplus"`
}

type CountCompleteData struct {
	Number int   `json:"number"`
	Count  Round `json:"count"`
}

type CompleteData struct {
	Seats   []string       `json:"seats"`
	Tallies map[string]int `json:"tallies"`
}

// UnmarshalJSON decodes the payload into the type matching the event name.
func (ev *Event) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name string          `json:"event"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	var data any
	switch raw.Name {
	case EventInvalidBallot:
		data = &InvalidBallotData{}
	case EventTally:
		data = &TallyData{}
	case EventTallyComplete:
		data = &TallyCompleteData{}
	case EventQuota:
		data = &QuotaData{}
	case EventMetQuota, EventNotMetQuota:
		data = &CandidatesData{}
	case EventElimination:
		data = &EliminationData{}
	case EventDistribution:
		data = &DistributionData{}
	case EventElected:
		data = &ElectedData{}
	case EventCountComplete:
		data = &CountCompleteData{}
	case EventComplete:
		data = &CompleteData{}
	default:
		return fmt.Errorf("unknown event %q", raw.Name)
	}

	if len(raw.Data) > 0 && string(raw.Data) != "null" {
		if err := json.Unmarshal(raw.Data, data); err != nil {
			return fmt.Errorf("failed to decode %s payload: %w", raw.Name, err)
		}
	}

	ev.Name = raw.Name
	// Store values, not pointers, so decoded events compare equal to emitted ones
	switch d := data.(type) {
	case *InvalidBallotData:
		ev.Data = *d
	case *TallyData:
		ev.Data = *d
	case *TallyCompleteData:
		ev.Data = *d
	case *QuotaData:
		ev.Data = *d
	case *CandidatesData:
		ev.Data = *d
	case *EliminationData:
		ev.Data = *d
	case *DistributionData:
		ev.Data = *d
	case *ElectedData:
		ev.Data = *d
	case *CountCompleteData:
		ev.Data = *d
	case *CompleteData:
		ev.Data = *d
	}
	return nil
}

func newEvent(name string, data any) Event {
	return Event{Name: name, Data: data}
}

// copyTallies and copyNames detach event payloads from the live election state.
func copyTallies(t map[string]int) map[string]int {
	return maps.Clone(t)
}

func copyNames(names []string) []string {
	if names == nil {
		return []string{}
	}
	return slices.Clone(names)
}
