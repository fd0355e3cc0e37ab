package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSLADueDate(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		priority TicketPriority
		want     time.Duration
	}{
		{TicketPriorityCritical, 2 * time.Hour},
		{TicketPriorityHigh, 8 * time.Hour},
		{TicketPriorityMedium, 24 * time.Hour},
		{TicketPriorityLow, 72 * time.Hour},
		{TicketPriority("UNKNOWN"), 24 * time.Hour},
	}
	for _, tc := range cases {
		assert.Equal(t, now.Add(tc.want), SLADueDate(tc.priority, now), "priority %s", tc.priority)
	}
}

func TestDeriveRisk(t *testing.T) {
	assert.Equal(t, RiskHigh, DeriveRisk(TicketPriorityCritical, ServiceTypeGeneral))
	assert.Equal(t, RiskHigh, DeriveRisk(TicketPriorityLow, ServiceTypeMaintenance))
	assert.Equal(t, RiskMedium, DeriveRisk(TicketPriorityHigh, ServiceTypeCleaning))
	assert.Equal(t, RiskLow, DeriveRisk(TicketPriorityMedium, ServiceTypeRoomService))
	assert.Equal(t, RiskLow, DeriveRisk(TicketPriorityLow, ServiceTypeGeneral))
}

func TestDeriveImpact(t *testing.T) {
	assert.Equal(t, ImpactCritical, DeriveImpact(TicketPriorityCritical, ServiceTypeCleaning))
	assert.Equal(t, ImpactHigh, DeriveImpact(TicketPriorityHigh, ServiceTypeGeneral))
	assert.Equal(t, ImpactHigh, DeriveImpact(TicketPriorityLow, ServiceTypeMaintenance))
	assert.Equal(t, ImpactMedium, DeriveImpact(TicketPriorityMedium, ServiceTypeCleaning))
	assert.Equal(t, ImpactLow, DeriveImpact(TicketPriorityLow, ServiceTypeRoomService))
}

func TestValidators(t *testing.T) {
	assert.True(t, ValidStatus(TicketStatusInProgress))
	assert.False(t, ValidStatus(TicketStatus("REOPENED")))

	assert.True(t, ValidPriority(TicketPriorityCritical))
	assert.False(t, ValidPriority(TicketPriority("URGENT")))

	assert.True(t, ValidServiceType(ServiceTypeRoomService))
	assert.False(t, ValidServiceType(ServiceType("SPA")))

	assert.True(t, ValidCategory(CategoryChange))
	assert.False(t, ValidCategory(TicketCategory("QUESTION")))

	assert.True(t, IsStaffRole(RoleReception))
	assert.True(t, IsStaffRole(RoleCleaningStaff))
	assert.True(t, IsStaffRole(RoleAdmin))
	assert.False(t, IsStaffRole(RoleUser))
}
