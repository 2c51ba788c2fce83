package portal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/logging"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portalsim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *portal.Client {
	t.Helper()
	c, err := portal.NewClient(
		portal.DefaultEndpoints(baseURL),
		portal.WithLogger(logging.Discard("portal")),
		portal.WithTimeout(5*time.Second),
	)
	require.NoError(t, err)
	return c
}

func loggedInClient(t *testing.T, opts ...portalsim.Option) (*portal.Client, *portalsim.Portal) {
	t.Helper()
	sim, srv := portalsim.NewServer(opts...)
	t.Cleanup(srv.Close)

	c := newTestClient(t, srv.URL)
	ok, err := c.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)
	require.True(t, ok)
	return c, sim
}

func TestNewClientRejectsInvalidBaseURL(t *testing.T) {
	_, err := portal.NewClient(portal.DefaultEndpoints("not a url"))
	assert.Error(t, err)

	_, err = portal.NewClient(portal.Endpoints{})
	assert.Error(t, err)
}

func TestClientLogin(t *testing.T) {
	sim, srv := portalsim.NewServer()
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	assert.False(t, c.IsAuthenticated())

	ok, err := c.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, c.IsAuthenticated())
	assert.Equal(t, "admin", c.Username())
	assert.Equal(t, 1, sim.ActiveSessions())

	// Entry page, logon post, redirect back to the entry page, verification
	assert.Equal(t, []string{
		"GET /",
		"POST /Account/LogOn",
		"GET /",
		"GET /",
	}, sim.Requests())
}

func TestClientLoginWrongCredentials(t *testing.T) {
	_, srv := portalsim.NewServer()
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ok, err := c.Login(context.Background(), "admin", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, c.IsAuthenticated())
	assert.Empty(t, c.Username())
}

func TestClientReloginWithWrongCredentialsLogsOut(t *testing.T) {
	c, _ := loggedInClient(t)

	ok, err := c.Login(context.Background(), "admin", "wrong")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, c.IsAuthenticated())
}

func TestClientLoginEntryPageWithoutToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body>Wartungsarbeiten</body></html>`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ok, err := c.Login(context.Background(), "admin", "admin")
	assert.ErrorIs(t, err, portal.ErrTokenNotFound)
	assert.False(t, ok)
	assert.False(t, c.IsAuthenticated())
}

func TestClientLoginEntryPageError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	ok, err := c.Login(context.Background(), "admin", "admin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.False(t, ok)
}

func TestClientLoginUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := newTestClient(t, url)
	ok, err := c.Login(context.Background(), "admin", "admin")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestClientListItemsRequiresLogin(t *testing.T) {
	sim, srv := portalsim.NewServer()
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.ListItems(context.Background())
	assert.ErrorIs(t, err, portal.ErrNotAuthenticated)

	_, err = c.ConfirmItem(context.Background(), 1)
	assert.ErrorIs(t, err, portal.ErrNotAuthenticated)

	// Nothing reached the portal
	assert.Empty(t, sim.Requests())
}

func TestClientListItems(t *testing.T) {
	c, _ := loggedInClient(t)

	items, err := c.ListItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, portal.DefaultMemoryItems(), items)
}

func TestClientListItemsEmpty(t *testing.T) {
	c, _ := loggedInClient(t, portalsim.WithItems(nil))

	items, err := c.ListItems(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClientConfirmItem(t *testing.T) {
	c, sim := loggedInClient(t)

	ok, err := c.ConfirmItem(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, ok)

	items := sim.Items()
	assert.Equal(t, portal.StatusConfirmed, items[1].Status)
	assert.Equal(t, portal.StatusPending, items[0].Status)

	reqs := sim.Requests()
	assert.Equal(t, []string{
		"GET /Einsatzberichte/Status/2",
		"POST /Einsatzberichte/SaveStatus/2",
	}, reqs[len(reqs)-2:])
}

func TestClientConfirmItemTwice(t *testing.T) {
	c, _ := loggedInClient(t)
	ctx := context.Background()

	ok, err := c.ConfirmItem(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)

	// The portal refuses to reopen a captured report
	ok, err = c.ConfirmItem(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClientConfirmItemUnknownID(t *testing.T) {
	c, sim := loggedInClient(t)

	ok, err := c.ConfirmItem(context.Background(), 999)
	require.NoError(t, err)
	assert.False(t, ok)

	// Commit never runs when prepare fails
	for _, r := range sim.Requests() {
		assert.NotContains(t, r, "SaveStatus")
	}
}

func TestClientConfirmItemStatusPageRefused(t *testing.T) {
	c, _ := loggedInClient(t, portalsim.WithStatusPageCode(3, http.StatusForbidden))

	ok, err := c.ConfirmItem(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClientConfirmItemMissingToken(t *testing.T) {
	c, sim := loggedInClient(t, portalsim.WithoutToken(4))

	ok, err := c.ConfirmItem(context.Background(), 4)
	assert.ErrorIs(t, err, portal.ErrTokenNotFound)
	assert.False(t, ok)
	assert.Equal(t, portal.StatusPending, sim.Items()[3].Status)
}

func TestClientConfirmItemMissingOrganisation(t *testing.T) {
	c, sim := loggedInClient(t, portalsim.WithoutOrganisation(5))

	ok, err := c.ConfirmItem(context.Background(), 5)
	assert.ErrorIs(t, err, portal.ErrPatternNotFound)
	assert.False(t, ok)
	assert.Equal(t, portal.StatusPending, sim.Items()[4].Status)
}

func TestClientConfirmItemSaveRejected(t *testing.T) {
	c, sim := loggedInClient(t, portalsim.WithSaveCode(1, http.StatusInternalServerError))

	ok, err := c.ConfirmItem(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, portal.StatusPending, sim.Items()[0].Status)
}

func TestClientConfirmItemCustomOrganisation(t *testing.T) {
	c, sim := loggedInClient(t, portalsim.WithOrganisationID("815"))

	ok, err := c.ConfirmItem(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, portal.StatusConfirmed, sim.Items()[0].Status)
}

func TestClientConfirmItemCancelled(t *testing.T) {
	c, _ := loggedInClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ok, err := c.ConfirmItem(ctx, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, ok)
}

func TestClientLogout(t *testing.T) {
	c, sim := loggedInClient(t)
	require.Equal(t, 1, sim.ActiveSessions())

	c.Logout(context.Background())
	assert.False(t, c.IsAuthenticated())
	assert.Empty(t, c.Username())
	assert.Equal(t, 0, sim.ActiveSessions())

	_, err := c.ListItems(context.Background())
	assert.ErrorIs(t, err, portal.ErrNotAuthenticated)
}

func TestClientLogoutWhenPortalUnreachable(t *testing.T) {
	_, srv := portalsim.NewServer()
	c := newTestClient(t, srv.URL)
	ok, err := c.Login(context.Background(), "admin", "admin")
	require.NoError(t, err)
	require.True(t, ok)

	srv.Close()

	c.Logout(context.Background())
	assert.False(t, c.IsAuthenticated())
	assert.Empty(t, c.Username())
}

func TestClientLogoutWithoutLogin(t *testing.T) {
	_, srv := portalsim.NewServer()
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.Logout(context.Background())
	assert.False(t, c.IsAuthenticated())
}
