// Package session owns the authenticated user, the selected team, and the
// team roster. It is the single owner of that state: created once at startup,
// cleared on logout, and consulted (via AuthHeaders) by every scoped request.
package session

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"

	"github.com/oyako-li/inventoria/internal/gateway"
	"github.com/oyako-li/inventoria/internal/model"
)

// State describes where the context is in its lifecycle.
type State int

const (
	StateUnauthenticated State = iota
	StateLoading
	StateAuthenticated // logged in, no team selected
	StateTeamSelected
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateTeamSelected:
		return "team-selected"
	default:
		return "unknown"
	}
}

// Context holds the session state. All mutations run on the caller's
// goroutine; the surrounding application is event-driven and single-threaded.
type Context struct {
	gw    *gateway.Client
	store *TokenStore

	token   string
	user    *model.User
	team    *model.Team
	teams   []model.Team
	loading bool

	onTeamChanged []func(*model.Team)
}

func NewContext(gw *gateway.Client, store *TokenStore) *Context {
	return &Context{gw: gw, store: store}
}

// State derives the lifecycle state from what is currently held.
func (s *Context) State() State {
	switch {
	case s.loading:
		return StateLoading
	case s.user == nil:
		return StateUnauthenticated
	case s.team == nil:
		return StateAuthenticated
	default:
		return StateTeamSelected
	}
}

func (s *Context) IsAuthenticated() bool { return s.user != nil }
func (s *Context) User() *model.User     { return s.user }
func (s *Context) Team() *model.Team     { return s.team }
func (s *Context) Teams() []model.Team   { return s.teams }

// OnTeamChanged registers an explicit subscription fired whenever the selected
// team changes, including the automatic selection after login.
func (s *Context) OnTeamChanged(fn func(*model.Team)) {
	s.onTeamChanged = append(s.onTeamChanged, fn)
}

type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// Bootstrap validates a stored credential against the backend. An absent,
// locally expired, or rejected token leaves the context unauthenticated with
// the stale token discarded; it is not an error.
func (s *Context) Bootstrap(ctx context.Context) error {
	s.loading = true
	defer func() { s.loading = false }()

	token, err := s.store.Load()
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}
	if tokenExpired(token) {
		log.Info().Msg("stored token expired, discarding")
		return s.store.Clear()
	}

	resp, err := s.gw.Get(ctx, "/api/auth/me", map[string]string{"Authorization": "Bearer " + token})
	if err != nil {
		return err
	}
	if !resp.OK() {
		// 401 already fired the logout callback; just make sure the
		// credential is gone.
		return s.store.Clear()
	}

	var user model.User
	if err := resp.Decode(&user); err != nil {
		return err
	}
	s.token = token
	s.user = &user
	return s.RefreshTeams(ctx)
}

// Login exchanges credentials for a bearer token, stores it, and loads teams.
func (s *Context) Login(ctx context.Context, email, password string) error {
	return s.authenticate(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account; a successful registration logs in directly.
func (s *Context) Register(ctx context.Context, name, email, password string) error {
	return s.authenticate(ctx, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

func (s *Context) authenticate(ctx context.Context, endpoint string, body map[string]string) error {
	s.loading = true
	defer func() { s.loading = false }()

	resp, err := s.gw.Post(ctx, endpoint, body, nil)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

	var auth authResponse
	if err := resp.Decode(&auth); err != nil {
		return err
	}
	if err := s.store.Save(auth.Token); err != nil {
		return err
	}
	s.token = auth.Token
	s.user = &auth.User
	log.Info().Str("user", auth.User.Email).Msg("authenticated")
	return s.RefreshTeams(ctx)
}

// Logout clears credential, user, team, and roster. Safe to call repeatedly;
// it is the gateway's registered 401 callback.
func (s *Context) Logout() {
	if err := s.store.Clear(); err != nil {
		log.Warn().Err(err).Msg("could not clear stored token")
	}
	s.token = ""
	s.user = nil
	s.team = nil
	s.teams = nil
}

// RefreshTeams reloads the roster and auto-selects the first team (backend
// order) when none is selected yet.
func (s *Context) RefreshTeams(ctx context.Context) error {
	resp, err := s.gw.Get(ctx, "/api/teams/my", s.AuthHeaders())
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}

	var payload struct {
		Teams []model.Team `json:"teams"`
	}
	if err := resp.Decode(&payload); err != nil {
		return err
	}
	s.teams = payload.Teams
	if s.team == nil && len(s.teams) > 0 {
		s.SelectTeam(&s.teams[0])
	}
	return nil
}

// SelectTeam switches the scope and notifies subscribers. Selecting nil
// deselects without notifying.
func (s *Context) SelectTeam(team *model.Team) {
	s.team = team
	if team == nil {
		return
	}
	log.Info().Str("team", team.Name).Msg("team selected")
	for _, fn := range s.onTeamChanged {
		fn(team)
	}
}

// CreateTeam creates a team and reloads the roster.
func (s *Context) CreateTeam(ctx context.Context, name, description string) error {
	resp, err := s.gw.Post(ctx, "/api/teams/create", map[string]string{
		"name":        name,
		"description": description,
	}, s.AuthHeaders())
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	return s.RefreshTeams(ctx)
}

// InviteMember invites an account by email into the given team.
func (s *Context) InviteMember(ctx context.Context, teamID int64, email, role string) error {
	endpoint := fmt.Sprintf("/api/teams/%d/invite", teamID)
	resp, err := s.gw.Post(ctx, endpoint, map[string]string{
		"email": email,
		"role":  role,
	}, s.AuthHeaders())
	if err != nil {
		return err
	}
	return resp.Err()
}

// TeamMembers lists the roster of the given team.
func (s *Context) TeamMembers(ctx context.Context, teamID int64) ([]model.TeamMember, error) {
	endpoint := fmt.Sprintf("/api/teams/%d/members", teamID)
	resp, err := s.gw.Get(ctx, endpoint, s.AuthHeaders())
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}
	var payload struct {
		Members []model.TeamMember `json:"members"`
	}
	if err := resp.Decode(&payload); err != nil {
		return nil, err
	}
	return payload.Members, nil
}

// AuthHeaders is a pure function of current state: bearer token when present,
// X-Team-ID of the selected team (first team as fallback, omitted when there
// are no teams).
func (s *Context) AuthHeaders() map[string]string {
	headers := map[string]string{}
	if s.token != "" {
		headers["Authorization"] = "Bearer " + s.token
	}
	switch {
	case s.team != nil:
		headers["X-Team-ID"] = strconv.FormatInt(s.team.ID, 10)
	case len(s.teams) > 0:
		headers["X-Team-ID"] = strconv.FormatInt(s.teams[0].ID, 10)
	}
	return headers
}

// tokenExpired inspects the exp claim without verifying the signature — the
// backend remains the authority; this only skips a round trip for tokens that
// are certainly dead. Unparseable tokens are left for the backend to judge.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
