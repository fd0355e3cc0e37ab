package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhub/service-desk/internal/domain"
	"github.com/stayhub/service-desk/internal/service"
)

func captureListQuery(t *testing.T, target string) service.TicketListInput {
	t.Helper()
	app := fiber.New()
	var captured service.TicketListInput
	app.Get("/tickets", func(c *fiber.Ctx) error {
		captured = parseTicketListQuery(c)
		return c.SendStatus(http.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return captured
}

func TestListQueryDefaultsToNewestFirst(t *testing.T) {
	input := captureListQuery(t, "/tickets")

	assert.True(t, input.SortDesc)
	assert.Equal(t, 1, input.Page)
	assert.Equal(t, 20, input.PageSize)
	assert.Nil(t, input.Status)
	assert.Nil(t, input.Search)
}

func TestListQueryOrderParam(t *testing.T) {
	assert.False(t, captureListQuery(t, "/tickets?order=asc").SortDesc)
	assert.True(t, captureListQuery(t, "/tickets?order=desc").SortDesc)
}

func TestListQueryFilters(t *testing.T) {
	input := captureListQuery(t,
		"/tickets?status=OPEN&priority=HIGH&search=leak&sort_by=due_date&page=2&page_size=5")

	require.NotNil(t, input.Status)
	assert.Equal(t, domain.TicketStatusOpen, *input.Status)
	require.NotNil(t, input.Priority)
	assert.Equal(t, domain.TicketPriorityHigh, *input.Priority)
	require.NotNil(t, input.Search)
	assert.Equal(t, "leak", *input.Search)
	assert.Equal(t, "due_date", input.SortBy)
	assert.Equal(t, 2, input.Page)
	assert.Equal(t, 5, input.PageSize)
}
