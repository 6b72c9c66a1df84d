package services

import (
	"testing"

	"github.com/Alex1231123112/manager/models"
	"github.com/stretchr/testify/assert"
)

func TestAverages(t *testing.T) {
	stats := []*models.MatchPlayerStat{
		{Points: 10, Rebounds: 5, Assists: 2, Minutes: ptr(30)},
		{Points: 15, Rebounds: 4, Assists: 3},
		{Points: 8, Rebounds: 7, Assists: 1, Minutes: ptr(25)},
	}

	avg := averages(stats)
	assert.Equal(t, 3, avg.Games)
	assert.Equal(t, 11.0, avg.PointsAvg)
	assert.Equal(t, 5.3, avg.ReboundsAvg)
	assert.Equal(t, 2.0, avg.AssistsAvg)
	assert.Equal(t, 27.5, avg.MinutesAvg)
}

func TestAveragesEmpty(t *testing.T) {
	avg := averages(nil)
	assert.Equal(t, &models.SeasonAverages{}, avg)
}
