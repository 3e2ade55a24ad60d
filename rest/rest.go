package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/Seklfreak/Pebble/cache"
	"github.com/Seklfreak/Pebble/models"
	"github.com/Seklfreak/Pebble/modules/plugins/autoresponder"
	"github.com/Seklfreak/Pebble/modules/plugins/levels"
	"github.com/Seklfreak/Pebble/modules/plugins/reactionroles"
	"github.com/Seklfreak/Pebble/version"
	"github.com/emicklei/go-restful"
	"github.com/pkg/errors"
)

const (
	defaultRankingLimit = 100
	maxRankingLimit     = 1000
)

// API serves read only views of the engines.
type API struct {
	Levels         *levels.Engine
	ReactionRoles  *reactionroles.Engine
	Autoresponders *autoresponder.Engine
	LastSave       func() time.Time
	Started        time.Time
}

func (a *API) NewRestServices() []*restful.WebService {
	services := make([]*restful.WebService, 0)

	service := new(restful.WebService)
	service.
		Path("/rankings").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	service.Route(service.GET("/{guild-id}").To(a.GetRankings))
	service.Route(service.GET("/user/{user-id}/{guild-id}").To(a.GetUserRanking))
	services = append(services, service)

	service = new(restful.WebService)
	service.
		Path("/guild").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	service.Route(service.GET("/{guild-id}/reactionroles").To(a.GetReactionRoles))
	service.Route(service.GET("/{guild-id}/autoresponders").To(a.GetAutoresponders))
	services = append(services, service)

	service = new(restful.WebService)
	service.
		Path("/status").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	service.Route(service.GET("").To(a.GetStatus))
	services = append(services, service)

	return services
}

// NewContainer returns all services behind a request logging and CORS filter.
func (a *API) NewContainer(allowedOrigins []string) *restful.Container {
	wsContainer := restful.NewContainer()

	for _, service := range a.NewRestServices() {
		wsContainer.Add(service)
	}
	wsContainer.Filter(func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		if origin := req.Request.Header.Get("Origin"); origin != "" {
			for _, allowedOrigin := range allowedOrigins {
				if allowedOrigin == origin {
					resp.AddHeader("Access-Control-Allow-Origin", origin)
					resp.AddHeader("Access-Control-Allow-Methods", "GET, OPTIONS")
					resp.AddHeader("Access-Control-Max-Age", "1000")
					resp.AddHeader("Access-Control-Allow-Headers", "origin, content-type, accept")
				}
			}
		}
		now := time.Now()
		chain.ProcessFilter(req, resp)
		cache.GetLogger().WithField("module", "rest").Debugf("received api request: %s %s (took %v)",
			req.Request.Method, req.Request.URL, time.Since(now))
	})
	wsContainer.Filter(wsContainer.OPTIONSFilter)

	return wsContainer
}

func (a *API) GetRankings(request *restful.Request, response *restful.Response) {
	guildID := request.PathParameter("guild-id")

	page, err := queryInt(request, "page", 1)
	if err != nil || page < 1 {
		response.WriteError(http.StatusBadRequest, errors.New("invalid page"))
		return
	}
	limit, err := queryInt(request, "limit", defaultRankingLimit)
	if err != nil || limit < 1 || limit > maxRankingLimit {
		response.WriteError(http.StatusBadRequest, errors.New("invalid limit"))
		return
	}

	standings := a.Levels.Leaderboard(guildID)
	if len(standings) == 0 {
		response.WriteError(http.StatusNotFound, errors.New("Guild not found"))
		return
	}

	result := &models.Rest_Ranking{
		GuildID: guildID,
		Page:    page,
		Pages:   (len(standings) + limit - 1) / limit,
		Ranks:   make([]models.Rest_Ranking_Rank_Item, 0),
	}
	for i := (page - 1) * limit; i < len(standings) && i < page*limit; i++ {
		result.Ranks = append(result.Ranks, models.Rest_Ranking_Rank_Item{
			UserID:  standings[i].UserID,
			EXP:     standings[i].Record.XP,
			Level:   standings[i].Record.Level,
			Ranking: standings[i].Position,
		})
	}

	response.WriteEntity(result)
}

func (a *API) GetUserRanking(request *restful.Request, response *restful.Response) {
	userID := request.PathParameter("user-id")
	guildID := request.PathParameter("guild-id")

	info, ok := a.Levels.Rank(guildID, userID)
	if !ok {
		response.WriteError(http.StatusNotFound, errors.New("User not found"))
		return
	}

	result := &models.Rest_User_Ranking{
		UserID:          userID,
		GuildID:         guildID,
		EXP:             info.XP,
		Level:           info.Level,
		ExpCurrentLevel: info.XPForCurrentLevel,
		ExpNextLevel:    info.XPForNextLevel,
		Progress:        info.Progress,
	}
	for _, standing := range a.Levels.Leaderboard(guildID) {
		if standing.UserID == userID {
			result.Ranking = standing.Position
			break
		}
	}

	response.WriteEntity(result)
}

func (a *API) GetReactionRoles(request *restful.Request, response *restful.Response) {
	guildID := request.PathParameter("guild-id")

	result := make([]models.Rest_Reaction_Role, 0)
	for _, binding := range a.ReactionRoles.List(guildID) {
		result = append(result, models.Rest_Reaction_Role{
			MessageID: binding.MessageID,
			ChannelID: binding.ChannelID,
			Emoji:     binding.Emoji,
			RoleID:    binding.RoleID,
		})
	}

	response.WriteEntity(result)
}

func (a *API) GetAutoresponders(request *restful.Request, response *restful.Response) {
	guildID := request.PathParameter("guild-id")

	result := make([]models.Rest_Autoresponder, 0)
	for _, rule := range a.Autoresponders.Rules(guildID) {
		result = append(result, models.Rest_Autoresponder{
			Trigger: rule.Trigger,
			Kind:    string(rule.Kind),
			Reply:   rule.Reply,
			Emojis:  rule.Emojis,
		})
	}

	response.WriteEntity(result)
}

func (a *API) GetStatus(request *restful.Request, response *restful.Response) {
	status := &models.Rest_Status{
		Version: version.BOT_VERSION,
		Uptime:  a.Started,
	}
	if a.LastSave != nil {
		status.LastSave = a.LastSave()
	}

	response.WriteEntity(status)
}

func queryInt(request *restful.Request, name string, fallback int) (int, error) {
	text := request.QueryParameter(name)
	if text == "" {
		return fallback, nil
	}
	return strconv.Atoi(text)
}
