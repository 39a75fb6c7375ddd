package testrows

import (
	"context"
	"crypto/rand"
	"math/big"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/snagasawa/kpisync/internal/domain/model"
	"github.com/snagasawa/kpisync/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	activityDivisor    = 4
)

// Constants for call-count generation ranges.
const (
	typicalCallsMin   = 40
	typicalCallsRange = 60
	heavyCallsMin     = 100
	heavyCallsRange   = 80
	lightCallsMin     = 5
	lightCallsRange   = 35
	idleCallsMax      = 5

	prPerCallRate   = 0.2
	appoPerPRRate   = 0.25
	hoursPerDayMin  = 1.0
	hoursPerDayVary = 6.0
)

// Constants for activity profile cases.
const (
	caseTypicalDay = 0
	caseHeavyDay   = 1
	caseLightDay   = 2
	caseIdleDay    = 3
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

func getRandomInt(n int64) int64 {
	v, _ := rand.Int(rand.Reader, big.NewInt(n))
	return v.Int64()
}

// generateRows creates the configured number of activity rows over a pool of
// generated members and projects. Rows are in sheet shape: member, project,
// date, hours, calls, pr, appo, feedback.
func generateRows(ctx context.Context, config *Config, stats *Stats) [][]model.Cell {
	logger.Get().Info(ctx, "generating activity rows",
		logger.Int("rows", config.NumRows),
		logger.Int("members", config.Members),
		logger.Int("projects", config.Projects))

	memberCount := config.Members
	if memberCount < 1 {
		memberCount = 1
	}
	projectCount := config.Projects
	if projectCount < 1 {
		projectCount = 1
	}

	members := make([]string, memberCount)
	for i := range members {
		members[i] = "member_" + uuid.New().String()[:8]
	}
	projects := make([]string, projectCount)
	for i := range projects {
		projects[i] = "project_" + strconv.Itoa(i+1)
	}

	days := config.Days
	if days < 1 {
		days = 1
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	rows := make([][]model.Cell, 0, config.NumRows)
	for i := 0; i < config.NumRows; i++ {
		member := members[getRandomInt(int64(len(members)))]
		project := projects[getRandomInt(int64(len(projects)))]
		date := today.AddDate(0, 0, -int(getRandomInt(int64(days))))

		calls := generateVariedCalls()
		pr := int(float64(calls) * prPerCallRate * getRandomFloat())
		appo := int(float64(pr) * appoPerPRRate * getRandomFloat())
		hours := hoursPerDayMin + getRandomFloat()*hoursPerDayVary

		rows = append(rows, []model.Cell{
			model.StringCell(member),
			model.StringCell(project),
			model.StringCell(date.Format(model.DateLayout)),
			model.NumberCell(hours),
			model.NumberCell(float64(calls)),
			model.NumberCell(float64(pr)),
			model.NumberCell(float64(appo)),
			model.EmptyCell(),
		})
	}

	stats.RowsGenerated = len(rows)
	logger.Get().Info(ctx, "generated rows successfully", logger.Int("count", len(rows)))

	return rows
}

// generateVariedCalls creates a call count with a varied daily profile.
func generateVariedCalls() int {
	switch getRandomInt(activityDivisor) {
	case caseTypicalDay:
		// Typical day (40 - 100 calls) - most common
		return typicalCallsMin + int(getRandomFloat()*typicalCallsRange)
	case caseHeavyDay:
		// Heavy day (100 - 180 calls)
		return heavyCallsMin + int(getRandomFloat()*heavyCallsRange)
	case caseLightDay:
		// Light day (5 - 40 calls)
		return lightCallsMin + int(getRandomFloat()*lightCallsRange)
	case caseIdleDay:
		// Near-idle day (0 - 5 calls)
		return int(getRandomFloat() * idleCallsMax)
	default:
		return typicalCallsMin + int(getRandomFloat()*typicalCallsRange)
	}
}
