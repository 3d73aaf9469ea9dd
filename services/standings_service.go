package services

import (
	"sort"

	"courtside/courtside/database"
	"courtside/courtside/models"
)

// TeamStanding is one row of a sport's league table.
type TeamStanding struct {
	Rank          int    `json:"rank"`
	Team          string `json:"team"`
	Played        int    `json:"played"`
	Wins          int    `json:"wins"`
	Draws         int    `json:"draws"`
	Losses        int    `json:"losses"`
	PointsFor     int    `json:"points_for"`
	PointsAgainst int    `json:"points_against"`
	PointDiff     int    `json:"point_diff"`
	Points        int    `json:"points"`
}

type StandingsServiceInterface interface {
	GetStandings(db *database.Database, sport models.Sport) ([]TeamStanding, error)
}

type StandingsService struct{}

func NewStandingsService() *StandingsService {
	return &StandingsService{}
}

// GetStandings builds a league table for a sport from its completed events.
// A win is worth 3 points and a draw 1. Ties on points are broken by point
// difference, then alphabetically so the ordering is stable.
func (s *StandingsService) GetStandings(db *database.Database, sport models.Sport) ([]TeamStanding, error) {
	if !sport.Valid() {
		return nil, ErrInvalidInput
	}

	var events []models.Event
	err := db.DB.
		Where("sport = ? AND status = ?", sport, models.StatusCompleted).
		Find(&events).Error
	if err != nil {
		return nil, err
	}

	table := make(map[string]*TeamStanding)
	row := func(team string) *TeamStanding {
		if r, ok := table[team]; ok {
			return r
		}
		r := &TeamStanding{Team: team}
		table[team] = r
		return r
	}

	for _, event := range events {
		home := row(event.Team1.Name)
		away := row(event.Team2.Name)

		home.Played++
		away.Played++
		home.PointsFor += event.Team1.Score
		home.PointsAgainst += event.Team2.Score
		away.PointsFor += event.Team2.Score
		away.PointsAgainst += event.Team1.Score

		switch {
		case event.Team1.Score > event.Team2.Score:
			home.Wins++
			away.Losses++
		case event.Team2.Score > event.Team1.Score:
			away.Wins++
			home.Losses++
		default:
			home.Draws++
			away.Draws++
		}
	}

	standings := make([]TeamStanding, 0, len(table))
	for _, r := range table {
		r.PointDiff = r.PointsFor - r.PointsAgainst
		r.Points = r.Wins*3 + r.Draws
		standings = append(standings, *r)
	}

	sort.Slice(standings, func(i, j int) bool {
		if standings[i].Points != standings[j].Points {
			return standings[i].Points > standings[j].Points
		}
		if standings[i].PointDiff != standings[j].PointDiff {
			return standings[i].PointDiff > standings[j].PointDiff
		}
		return standings[i].Team < standings[j].Team
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}

	return standings, nil
}

var StandingsServiceInstance StandingsServiceInterface = NewStandingsService()
