package logic

import (
	"strings"

	"github.com/bullseye-tracker/stats-api/internal/models"
)

const unknownPlayerName = "Unknown"

// ResolveDisplayName picks a player's display name. Every rollup uses this
// order: payload nick, directory entry for the primary, directory entry for
// the raw id, the raw id itself, "Unknown".
func ResolveDisplayName(rawID, primaryID, nick string, directory map[string]string) string {
	if nick != "" {
		return nick
	}
	if name := directory[primaryID]; name != "" {
		return name
	}
	if name := directory[rawID]; name != "" {
		return name
	}
	if rawID != "" {
		return rawID
	}
	return unknownPlayerName
}

// learnNames overlays the nicks found in payloads onto the stored directory.
// Facts are visited in storage order so the most recent nick wins.
func learnNames(directory map[string]string, facts []GameFact) map[string]string {
	names := make(map[string]string, len(directory))
	for id, name := range directory {
		names[id] = name
	}
	for i := range facts {
		for _, p := range facts[i].Players {
			if p.ID != "" && p.Nick != "" {
				names[p.ID] = p.Nick
			}
		}
	}
	return names
}

func memberInfos(members []Member, directory map[string]string) []models.PlayerInfo {
	infos := make([]models.PlayerInfo, 0, len(members))
	for _, m := range members {
		infos = append(infos, models.PlayerInfo{
			ID:   m.PrimaryID,
			Name: ResolveDisplayName(m.RawID, m.PrimaryID, m.Nick, directory),
		})
	}
	return infos
}

// rosterInfos renders a game's roster with raw ids, as listed in the payload.
func rosterInfos(fact *GameFact, aliases *Aliases, directory map[string]string) []models.PlayerInfo {
	infos := make([]models.PlayerInfo, 0, len(fact.Players))
	for _, p := range fact.Players {
		infos = append(infos, models.PlayerInfo{
			ID:   p.ID,
			Name: ResolveDisplayName(p.ID, aliases.Resolve(p.ID), p.Nick, directory),
		})
	}
	return infos
}

func teamName(members []models.PlayerInfo) string {
	names := make([]string, 0, len(members))
	for _, m := range members {
		names = append(names, m.Name)
	}
	return strings.Join(names, ", ")
}
