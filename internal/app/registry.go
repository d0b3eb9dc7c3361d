package app

import (
	"fmt"
	"time"

	"github.com/example/cadence/internal/config"
	"github.com/example/cadence/internal/core/schedule"
	"github.com/example/cadence/internal/core/streak"
)

// AgentSchedule is one agent's resolved schedule: timezone loaded,
// drop time parsed.
type AgentSchedule struct {
	ID                string
	Location          *time.Location
	DropTime          schedule.DropTime
	Cadence           string
	PracticeStartDate string
}

// ScheduleRegistry resolves agent IDs to their schedules. Built once
// from configuration at startup; read-only afterwards.
type ScheduleRegistry struct {
	agents map[string]*AgentSchedule
	order  []string
}

// NewScheduleRegistry validates every configured agent and builds the
// registry. An invalid agent is fatal for that agent only: it is left
// out of the registry and reported in the returned error map, keyed by
// agent ID.
func NewScheduleRegistry(cfg *config.Config) (*ScheduleRegistry, map[string]error) {
	reg := &ScheduleRegistry{agents: make(map[string]*AgentSchedule)}
	invalid := make(map[string]error)

	for _, a := range cfg.Agents {
		sched, err := resolveAgent(a)
		if err != nil {
			key := a.ID
			if key == "" {
				key = "(missing id)"
			}
			invalid[key] = err
			continue
		}
		if _, exists := reg.agents[sched.ID]; exists {
			invalid[sched.ID] = fmt.Errorf("agent %s configured twice", sched.ID)
			continue
		}
		reg.agents[sched.ID] = sched
		reg.order = append(reg.order, sched.ID)
	}

	return reg, invalid
}

func resolveAgent(a config.AgentConfig) (*AgentSchedule, error) {
	if a.ID == "" {
		return nil, fmt.Errorf("agent entry missing id")
	}
	if a.Timezone == "" {
		return nil, fmt.Errorf("agent %s: missing timezone", a.ID)
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("agent %s: invalid timezone %q: %w", a.ID, a.Timezone, err)
	}
	dropTime, err := schedule.ParseDropTime(a.DropTime)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", a.ID, err)
	}
	if a.Cadence != config.CadenceDaily {
		return nil, fmt.Errorf("agent %s: unsupported cadence %q", a.ID, a.Cadence)
	}
	if a.PracticeStartDate != "" {
		if _, err := time.Parse(streak.DayFormat, a.PracticeStartDate); err != nil {
			return nil, fmt.Errorf("agent %s: invalid practice_start_date %q", a.ID, a.PracticeStartDate)
		}
	}
	return &AgentSchedule{
		ID:                a.ID,
		Location:          loc,
		DropTime:          dropTime,
		Cadence:           a.Cadence,
		PracticeStartDate: a.PracticeStartDate,
	}, nil
}

// Get returns the schedule for an agent.
func (r *ScheduleRegistry) Get(agentID string) (*AgentSchedule, error) {
	sched, ok := r.agents[agentID]
	if !ok {
		return nil, fmt.Errorf("agent %s is not registered", agentID)
	}
	return sched, nil
}

// All returns every registered schedule in configuration order.
func (r *ScheduleRegistry) All() []*AgentSchedule {
	out := make([]*AgentSchedule, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.agents[id])
	}
	return out
}

// NextFire returns the next local-fire instant for an agent after now.
func (r *ScheduleRegistry) NextFire(agentID string, now time.Time) (time.Time, error) {
	sched, err := r.Get(agentID)
	if err != nil {
		return time.Time{}, err
	}
	return schedule.NextFire(now, sched.Location, sched.DropTime), nil
}
