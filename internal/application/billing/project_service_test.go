package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/renovate/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================
// Project Setup Tests
// ============================================

func TestCreateProject(t *testing.T) {
	env := newTestEnv(t)
	contractorID := uuid.New()
	homeownerID := uuid.New()

	project, err := env.projectSvc.CreateProject(context.Background(),
		"Deck Build", "3 Elm Ct", homeownerID, contractorID,
		decimal.NewFromInt(40000), []MilestoneInput{
			{Percentage: 50, Description: "Framing", DueInDays: 14},
			{Percentage: 100, Description: "Finish", AmountDue: decimal.NewFromInt(25000)},
		})
	require.NoError(t, err)

	require.Len(t, project.Milestones, 2)
	assert.True(t, project.Milestones[0].AmountDue.Equal(decimal.NewFromInt(20000)), "derived from budget share")
	assert.NotNil(t, project.Milestones[0].DueDate)
	assert.True(t, project.Milestones[1].AmountDue.Equal(decimal.NewFromInt(25000)), "explicit amount wins")
	assert.Nil(t, project.Milestones[1].DueDate)

	stored, err := env.projectSvc.GetProject(context.Background(), project.ID)
	require.NoError(t, err)
	assert.Equal(t, project.ID, stored.ID)
	assert.Len(t, stored.Milestones, 2)
}

func TestCreateProject_InvalidSchedule(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.projectSvc.CreateProject(context.Background(),
		"Deck Build", "3 Elm Ct", uuid.New(), uuid.New(),
		decimal.NewFromInt(40000), []MilestoneInput{
			{Percentage: 50, Description: "Framing"},
			{Percentage: 50, Description: "Framing again"},
		})
	assert.Error(t, err)
}

func TestGetProject_NotFound(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.projectSvc.GetProject(context.Background(), uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestListByContractor(t *testing.T) {
	env := newTestEnv(t)
	contractorID := uuid.New()

	for i := 0; i < 2; i++ {
		_, err := env.projectSvc.CreateProject(context.Background(),
			"Project", "Addr", uuid.New(), contractorID,
			decimal.NewFromInt(10000), nil)
		require.NoError(t, err)
	}
	env.createProjectWithSchedule(t, 50)

	projects, err := env.projectSvc.ListByContractor(context.Background(), contractorID)
	require.NoError(t, err)
	assert.Len(t, projects, 2)

	none, err := env.projectSvc.ListByContractor(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}
