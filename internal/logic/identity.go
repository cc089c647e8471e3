package logic

import (
	"errors"
	"slices"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

var (
	ErrSelfLink         = errors.New("alias and primary must be different players")
	ErrPrimaryIsAlias   = errors.New("primary is already an alias of another player")
	ErrAliasHasChildren = errors.New("alias already has aliases of its own")
)

// Aliases is a request-scoped snapshot of the alias relation. The relation is
// a forest of depth one: every alias points at a primary that is not itself
// an alias. A nil *Aliases behaves as an empty relation.
type Aliases struct {
	primaryOf map[string]string
	aliasesOf map[string][]string
}

// NewAliases builds a snapshot from stored edges.
func NewAliases(edges []models.AliasEdge) *Aliases {
	a := &Aliases{
		primaryOf: make(map[string]string, len(edges)),
		aliasesOf: make(map[string][]string),
	}
	for _, e := range edges {
		a.put(e.AliasID, e.PrimaryID)
	}
	return a
}

// Resolve returns the primary id for an alias, or id itself.
func (a *Aliases) Resolve(id string) string {
	if a == nil {
		return id
	}
	if primary, ok := a.primaryOf[id]; ok {
		return primary
	}
	return id
}

// Expand returns the primary followed by all of its aliases in sorted order.
func (a *Aliases) Expand(primaryID string) []string {
	ids := []string{primaryID}
	if a == nil {
		return ids
	}
	return append(ids, a.aliasesOf[primaryID]...)
}

// AliasesOf returns the aliases pointing at primaryID.
func (a *Aliases) AliasesOf(primaryID string) []string {
	if a == nil {
		return nil
	}
	return slices.Clone(a.aliasesOf[primaryID])
}

// PrimaryOf returns the primary an alias points at.
func (a *Aliases) PrimaryOf(aliasID string) (string, bool) {
	if a == nil {
		return "", false
	}
	primary, ok := a.primaryOf[aliasID]
	return primary, ok
}

// Link points aliasID at primaryID. Re-pointing an existing alias is allowed;
// chains and merges of two existing groups are rejected without mutation.
func (a *Aliases) Link(aliasID, primaryID string) error {
	if aliasID == primaryID {
		return ErrSelfLink
	}
	if _, isAlias := a.primaryOf[primaryID]; isAlias {
		return ErrPrimaryIsAlias
	}
	if len(a.aliasesOf[aliasID]) > 0 {
		return ErrAliasHasChildren
	}
	a.Unlink(aliasID)
	a.put(aliasID, primaryID)
	return nil
}

// Unlink removes the edge for aliasID. Absent edges are ignored.
func (a *Aliases) Unlink(aliasID string) {
	primary, ok := a.primaryOf[aliasID]
	if !ok {
		return
	}
	delete(a.primaryOf, aliasID)
	remaining := slices.DeleteFunc(a.aliasesOf[primary], func(id string) bool { return id == aliasID })
	if len(remaining) == 0 {
		delete(a.aliasesOf, primary)
	} else {
		a.aliasesOf[primary] = remaining
	}
}

func (a *Aliases) put(aliasID, primaryID string) {
	a.primaryOf[aliasID] = primaryID
	children := append(a.aliasesOf[primaryID], aliasID)
	slices.Sort(children)
	a.aliasesOf[primaryID] = children
}
