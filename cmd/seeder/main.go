package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

var countries = []string{"fr", "de", "br", "jp", "us", "au", "za", "ca", "it", "es", "se", "nz"}

type player struct {
	ID      string  `json:"playerId"`
	Nick    string  `json:"nick"`
	Guesses []guess `json:"guesses"`
}

type guess struct {
	Score struct {
		Points int `json:"points"`
	} `json:"score"`
}

type round struct {
	RoundNumber int `json:"roundNumber"`
	Panorama    struct {
		CountryCode string `json:"countryCode"`
	} `json:"panorama"`
	Score struct {
		Points int `json:"points"`
	} `json:"score"`
}

func main() {
	apiURL := pflag.StringP("url", "u", "http://localhost:3000/api/submit-game", "submit endpoint")
	apiKey := pflag.StringP("api-key", "k", os.Getenv("API_KEY"), "shared secret sent as bearer token")
	players := pflag.StringSliceP("players", "p", []string{"seed-alice:Alice", "seed-bob:Bob"}, "id:nick pairs")
	mapName := pflag.StringP("map", "m", "A Diverse World", "map name")
	rounds := pflag.IntP("rounds", "r", 5, "rounds per game")
	games := pflag.IntP("games", "n", 1, "games to submit")
	abandon := pflag.Bool("abandon", false, "submit unfinished games")
	pflag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	for i := 0; i < *games; i++ {
		payload, err := json.Marshal(buildGame(*players, *mapName, *rounds, *abandon))
		if err != nil {
			log.Fatalf("Failed to marshal game: %v", err)
		}
		if err := submit(client, *apiURL, *apiKey, payload); err != nil {
			log.Fatalf("Game %d: %v", i+1, err)
		}
	}
}

func buildGame(rawPlayers []string, mapName string, roundCount int, abandon bool) map[string]interface{} {
	roster := []player{}
	for _, p := range rawPlayers {
		id, nick, _ := strings.Cut(p, ":")
		if nick == "" {
			nick = id
		}
		roster = append(roster, player{ID: id, Nick: nick})
	}

	if len(roster) == 0 {
		roster = append(roster, player{ID: "seed-solo", Nick: "Solo"})
	}

	played := roundCount
	if abandon && played > 1 {
		played = rand.IntN(roundCount-1) + 1
	}

	rounds := make([]round, 0, played)
	for r := 1; r <= played; r++ {
		var rd round
		rd.RoundNumber = r
		rd.Panorama.CountryCode = strings.ToUpper(countries[rand.IntN(len(countries))])
		best := 0
		for i := range roster {
			var g guess
			g.Score.Points = rand.IntN(5001)
			roster[i].Guesses = append(roster[i].Guesses, g)
			best = max(best, g.Score.Points)
		}
		rd.Score.Points = best
		rounds = append(rounds, rd)
	}

	status := "finished"
	if played < roundCount {
		status = "playing"
	}
	gameID := uuid.NewString()

	return map[string]interface{}{
		"code":          gameID[:8],
		"gameId":        gameID,
		"timestamp":     time.Now().UTC().Format(time.RFC3339),
		"totalDuration": played * 90,
		"bullseye": map[string]interface{}{
			"state": map[string]interface{}{
				"gameId":             gameID,
				"status":             status,
				"currentRoundNumber": played,
				"rounds":             rounds,
				"players":            roster,
				"hostPlayerId":       roster[0].ID,
				"mapName":            mapName,
				"options": map[string]interface{}{
					"roundCount": roundCount,
					"roundTime":  120,
				},
			},
		},
	}
}

func submit(client *http.Client, apiURL, apiKey string, payload []byte) error {
	req, err := http.NewRequest(http.MethodPost, apiURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	fmt.Printf("Status: %s\n", resp.Status)
	fmt.Printf("Response: %s\n", string(body))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
