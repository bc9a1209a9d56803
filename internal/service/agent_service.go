package service

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"artx/internal/models"
	"artx/internal/store"
)

// AgentService owns agent profiles and credit balances.
type AgentService struct {
	*deps
	agents store.AgentStore
}

// Get returns the agent with id. An absent agent is created with the
// configured defaults when createIfAbsent is set.
func (s *AgentService) Get(ctx context.Context, id string, createIfAbsent bool) (models.Agent, error) {
	if err := validateAgentID(id); err != nil {
		return models.Agent{}, err
	}
	agent, err := s.load(ctx, id)
	if err == nil {
		return agent, nil
	}
	if !IsKind(err, KindNotFound) || !createIfAbsent {
		return models.Agent{}, err
	}

	unlock, err := s.lock(ctx, agentLockKey(id))
	if err != nil {
		return models.Agent{}, err
	}
	defer unlock()

	// A concurrent first contact may have won the race.
	agent, err = s.load(ctx, id)
	if err == nil {
		return agent, nil
	}
	if !IsKind(err, KindNotFound) {
		return models.Agent{}, err
	}

	agent = models.NewAgent(id, s.policy.GuestName, s.policy.InitialCredits, s.clock())
	if err := s.agents.PutAgent(ctx, &agent); err != nil {
		return models.Agent{}, storeFailure(err)
	}
	s.log().Info("agent created", "agent", id, "credits", agent.Credits)
	return agent, nil
}

// Save replaces the editable parts of a profile: name and collections.
// Collections are append-only; a save that drops slots or reorders the stored
// names is rejected.
// Credits and creation time are always carried over from the stored record.
func (s *AgentService) Save(ctx context.Context, agent models.Agent, callerID string) (models.Agent, error) {
	if err := validateAgentID(agent.ID); err != nil {
		return models.Agent{}, err
	}
	if callerID != agent.ID {
		s.log().Debug("agent save rejected", "agent", agent.ID, "caller", callerID)
		return models.Agent{}, unauthorized(fmt.Errorf("caller %q may not modify agent %q", callerID, agent.ID))
	}

	next := agent.Clone()
	name, err := normalizeName("name", next.Name)
	if err != nil {
		return models.Agent{}, err
	}
	next.Name = name
	if len(next.Collections) == 0 {
		return models.Agent{}, validation(fmt.Errorf("agent must have at least one collection"))
	}
	for i := range next.Collections {
		collName, err := normalizeName(fmt.Sprintf("collection %d name", i), next.Collections[i].Name)
		if err != nil {
			return models.Agent{}, err
		}
		next.Collections[i].Name = collName
	}

	unlock, err := s.lock(ctx, agentLockKey(agent.ID))
	if err != nil {
		return models.Agent{}, err
	}
	defer unlock()

	stored, err := s.load(ctx, agent.ID)
	switch {
	case err == nil:
		if len(next.Collections) < len(stored.Collections) {
			return models.Agent{}, validationCode(
				fmt.Errorf("collections are append-only: have %d, got %d", len(stored.Collections), len(next.Collections)),
				ErrCodeCollectionsShrunk,
			)
		}
		if reorderedSlots(stored.Collections, next.Collections) {
			return models.Agent{}, validationCode(
				fmt.Errorf("collections keep their slots: existing names were reordered"),
				ErrCodeCollectionsMoved,
			)
		}
		next.Credits = stored.Credits
		next.CreatedAt = stored.CreatedAt
	case IsKind(err, KindNotFound):
		next.Credits = s.policy.InitialCredits
		next.CreatedAt = s.clock()
	default:
		return models.Agent{}, err
	}
	next.UpdatedAt = s.clock()

	if err := s.agents.PutAgent(ctx, &next); err != nil {
		return models.Agent{}, storeFailure(err)
	}
	return next, nil
}

// Rename changes the display name of the caller's own profile.
func (s *AgentService) Rename(ctx context.Context, id, callerID, name string) (models.Agent, error) {
	agent, err := s.Get(ctx, id, false)
	if err != nil {
		return models.Agent{}, err
	}
	agent.Name = name
	return s.Save(ctx, agent, callerID)
}

// AddCollection appends a collection and returns the updated agent and the new slot.
func (s *AgentService) AddCollection(ctx context.Context, id, callerID, name, defaultTitle string) (models.Agent, int, error) {
	agent, err := s.Get(ctx, id, callerID == id)
	if err != nil {
		return models.Agent{}, 0, err
	}
	agent.Collections = append(agent.Collections, models.Collection{Name: name, DefaultTitle: defaultTitle})
	saved, err := s.Save(ctx, agent, callerID)
	if err != nil {
		return models.Agent{}, 0, err
	}
	return saved, len(saved.Collections) - 1, nil
}

// ListAll scans every agent record. Unreadable records are skipped.
func (s *AgentService) ListAll(ctx context.Context) ([]models.Agent, error) {
	ids, err := s.agents.ListAgentIDs(ctx)
	if err != nil {
		return nil, storeFailure(err)
	}
	out := make([]models.Agent, 0, len(ids))
	for _, id := range ids {
		agent, err := s.agents.GetAgent(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			if errors.Is(err, store.ErrCorrupt) {
				s.log().Warn("skipping unreadable agent", "agent", id, "error", err)
				continue
			}
			return nil, storeFailure(err)
		}
		out = append(out, *agent)
	}
	return out, nil
}

// GrantCredits adds platform credits to an agent, creating it if needed.
func (s *AgentService) GrantCredits(ctx context.Context, id string, amount int64) (models.Agent, error) {
	if amount <= 0 {
		return models.Agent{}, validation(fmt.Errorf("grant amount must be positive"))
	}
	if _, err := s.Get(ctx, id, true); err != nil {
		return models.Agent{}, err
	}
	agent, err := s.adjustCredits(ctx, id, amount)
	if err != nil {
		return models.Agent{}, err
	}
	s.log().Info("credits granted", "agent", id, "amount", amount, "balance", agent.Credits)
	return agent, nil
}

// charge deducts cost from the agent's balance or fails without mutating it.
func (s *AgentService) charge(ctx context.Context, id string, cost int64) error {
	if cost <= 0 {
		return nil
	}
	_, err := s.adjustCredits(ctx, id, -cost)
	return err
}

// refund returns credits after a charged operation failed to persist.
func (s *AgentService) refund(ctx context.Context, id string, cost int64) {
	if cost <= 0 {
		return
	}
	if _, err := s.adjustCredits(ctx, id, cost); err != nil {
		s.log().Warn("credit refund failed", "agent", id, "amount", cost, "error", err)
	}
}

func (s *AgentService) adjustCredits(ctx context.Context, id string, delta int64) (models.Agent, error) {
	unlock, err := s.lock(ctx, agentLockKey(id))
	if err != nil {
		return models.Agent{}, err
	}
	defer unlock()

	agent, err := s.load(ctx, id)
	if err != nil {
		return models.Agent{}, err
	}
	if agent.Credits+delta < 0 {
		return models.Agent{}, validationCode(
			fmt.Errorf("insufficient credits: balance %d, need %d", agent.Credits, -delta),
			ErrCodeInsufficientCredit,
		)
	}
	agent.Credits += delta
	agent.UpdatedAt = s.clock()
	if err := s.agents.PutAgent(ctx, &agent); err != nil {
		return models.Agent{}, storeFailure(err)
	}
	return agent, nil
}

func (s *AgentService) load(ctx context.Context, id string) (models.Agent, error) {
	agent, err := s.agents.GetAgent(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return models.Agent{}, agentNotFound(id)
	}
	if err != nil {
		return models.Agent{}, storeFailure(err)
	}
	return *agent, nil
}

// reorderedSlots reports whether the leading slots of next carry exactly the
// stored names in a different order. Renames in place are not reorders.
func reorderedSlots(stored, next []models.Collection) bool {
	if len(stored) < 2 || len(next) < len(stored) {
		return false
	}
	have := make([]string, len(stored))
	want := make([]string, len(stored))
	same := true
	for i := range stored {
		have[i] = stored[i].Name
		want[i] = next[i].Name
		if have[i] != want[i] {
			same = false
		}
	}
	if same {
		return false
	}
	slices.Sort(have)
	slices.Sort(want)
	return slices.Equal(have, want)
}
