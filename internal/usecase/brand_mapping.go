package usecase

import (
	"fmt"
	"os"
	"strings"

	"github.com/bytedance/sonic"
)

// BrandMapping tells which feed brands belong to which canonical team.
// A product whose brand is absent is ignored by the feed import.
//
//	{"leagues":[{"leagueId":"league-epl","leagueName":"Premier League",
//	  "brands":[{"brand":"Wolves","teamId":"team-wolves","teamName":"Wolves"}]}]}
type BrandMapping struct {
	byBrand map[string][]BrandTeam
}

// BrandTeam is one team a brand stands for, within its league.
type BrandTeam struct {
	TeamID     string
	TeamName   string
	LeagueID   string
	LeagueName string
}

type brandMappingFile struct {
	Leagues []struct {
		LeagueID   string `json:"leagueId"`
		LeagueName string `json:"leagueName"`
		Brands     []struct {
			Brand    string `json:"brand"`
			TeamID   string `json:"teamId"`
			TeamName string `json:"teamName"`
		} `json:"brands"`
	} `json:"leagues"`
}

func LoadBrandMappingFile(path string) (BrandMapping, error) {
	if strings.TrimSpace(path) == "" {
		return BrandMapping{}, fmt.Errorf("%w: brand mapping file is required", ErrInvalidInput)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return BrandMapping{}, fmt.Errorf("read brand mapping file: %w", err)
	}
	return ParseBrandMapping(raw)
}

func ParseBrandMapping(raw []byte) (BrandMapping, error) {
	var file brandMappingFile
	if err := sonic.Unmarshal(raw, &file); err != nil {
		return BrandMapping{}, fmt.Errorf("decode brand mapping: %w", err)
	}

	out := BrandMapping{byBrand: make(map[string][]BrandTeam)}
	for _, lg := range file.Leagues {
		leagueID := strings.TrimSpace(lg.LeagueID)
		if leagueID == "" {
			return BrandMapping{}, fmt.Errorf("brand mapping: league %q has no leagueId", lg.LeagueName)
		}
		for _, b := range lg.Brands {
			brand := strings.TrimSpace(b.Brand)
			teamID := strings.TrimSpace(b.TeamID)
			if brand == "" || teamID == "" {
				return BrandMapping{}, fmt.Errorf("brand mapping %s: brand and teamId are required", leagueID)
			}
			out.byBrand[brand] = append(out.byBrand[brand], BrandTeam{
				TeamID:     teamID,
				TeamName:   strings.TrimSpace(b.TeamName),
				LeagueID:   leagueID,
				LeagueName: strings.TrimSpace(lg.LeagueName),
			})
		}
	}
	return out, nil
}

// Allowed reports whether brand is mapped. Brands match exactly as the feed
// spells them.
func (m BrandMapping) Allowed(brand string) bool {
	_, ok := m.byBrand[strings.TrimSpace(brand)]
	return ok
}

func (m BrandMapping) Teams(brand string) []BrandTeam {
	return m.byBrand[strings.TrimSpace(brand)]
}

func (m BrandMapping) Len() int {
	return len(m.byBrand)
}
