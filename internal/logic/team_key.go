package logic

import (
	"slices"
	"strings"
)

// TeamKeySeparator joins resolved player ids into a team key.
const TeamKeySeparator = ","

// BuildTeamKey resolves each raw id to its primary, then sorts and
// deduplicates. Rosters that differ only in listing order or alias usage
// produce the same key. Empty ids are ignored.
func BuildTeamKey(rawIDs []string, aliases *Aliases) (string, []string) {
	resolved := make([]string, 0, len(rawIDs))
	for _, id := range rawIDs {
		if id == "" {
			continue
		}
		resolved = append(resolved, aliases.Resolve(id))
	}
	slices.Sort(resolved)
	resolved = slices.Compact(resolved)
	return strings.Join(resolved, TeamKeySeparator), resolved
}

// ParseTeamID builds the team key for a comma separated id list as supplied
// by a client.
func ParseTeamID(teamID string, aliases *Aliases) (string, []string) {
	parts := strings.Split(teamID, TeamKeySeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return BuildTeamKey(parts, aliases)
}

// Member is one resolved identity on a roster.
type Member struct {
	PrimaryID string
	RawID     string
	Nick      string
}

// teamMembers returns the resolved roster of a game, sorted by primary id,
// keeping the first raw entry seen for each identity.
func teamMembers(fact *GameFact, aliases *Aliases) []Member {
	members := make([]Member, 0, len(fact.Players))
	seen := make(map[string]bool, len(fact.Players))
	for _, p := range fact.Players {
		if p.ID == "" {
			continue
		}
		primary := aliases.Resolve(p.ID)
		if seen[primary] {
			continue
		}
		seen[primary] = true
		members = append(members, Member{PrimaryID: primary, RawID: p.ID, Nick: p.Nick})
	}
	slices.SortFunc(members, func(a, b Member) int { return strings.Compare(a.PrimaryID, b.PrimaryID) })
	return members
}
