package statemachine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/threemeal/threemeal-backend/internal/app/model"
)

// ErrInvalidTransition is returned for any edge outside the table below.
var ErrInvalidTransition = errors.New("invalid order status transition")

// Actor is the role on whose behalf a transition is requested.
type Actor string

const (
	ActorCustomer Actor = "customer"
	ActorChef     Actor = "chef"
	ActorAdmin    Actor = "admin"
	ActorSystem   Actor = "system"
)

// Transition is one allowed edge and the actor permitted to take it.
type Transition struct {
	From  model.OrderStatus
	To    model.OrderStatus
	Actor Actor
}

var validTransitions = []Transition{
	// chef accepts
	{From: model.OrderStatusUnhandled, To: model.OrderStatusHandled, Actor: ActorChef},
	{From: model.OrderStatusUnhandled, To: model.OrderStatusHandled, Actor: ActorAdmin},
	// cancel before handling
	{From: model.OrderStatusUnhandled, To: model.OrderStatusCanceled, Actor: ActorChef},
	{From: model.OrderStatusUnhandled, To: model.OrderStatusCanceled, Actor: ActorCustomer},
	{From: model.OrderStatusUnhandled, To: model.OrderStatusCanceled, Actor: ActorAdmin},
	// receipt confirmed
	{From: model.OrderStatusHandled, To: model.OrderStatusCompleted, Actor: ActorCustomer},
	{From: model.OrderStatusHandled, To: model.OrderStatusCompleted, Actor: ActorAdmin},
	{From: model.OrderStatusHandled, To: model.OrderStatusCompleted, Actor: ActorSystem},
}

var transitionMap = func() map[Transition]bool {
	m := make(map[Transition]bool, len(validTransitions))
	for _, t := range validTransitions {
		m[t] = true
	}
	return m
}()

// CanTransition reports whether actor may move an order from one status to another.
func CanTransition(from, to model.OrderStatus, actor Actor) error {
	if transitionMap[Transition{From: from, To: to, Actor: actor}] {
		return nil
	}
	return fmt.Errorf("%w: %s -> %s by %s (allowed from %s: %s)",
		ErrInvalidTransition, from, to, actor, from, describeValidFrom(from))
}

// ValidTransitionsFrom returns the distinct next statuses reachable from status.
func ValidTransitionsFrom(status model.OrderStatus) []model.OrderStatus {
	var nexts []model.OrderStatus
	seen := map[model.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// IsTerminal reports whether no transition leaves status.
func IsTerminal(status model.OrderStatus) bool {
	return len(ValidTransitionsFrom(status)) == 0
}

// AllTransitions returns a copy of the transition table.
func AllTransitions() []Transition {
	out := make([]Transition, len(validTransitions))
	copy(out, validTransitions)
	return out
}

func describeValidFrom(status model.OrderStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none"
	}
	parts := make([]string, len(nexts))
	for i, s := range nexts {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
