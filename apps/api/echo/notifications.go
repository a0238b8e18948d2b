package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	notifysvc "github.com/trezcool/aula/services/notify"
)

func registerNotificationAPI(g *echo.Group, jwt echo.MiddlewareFunc, history *notifysvc.History) {
	g.GET("/notifications", func(ctx echo.Context) error {
		limit, _ := strconv.Atoi(ctx.QueryParam("limit"))
		return ctx.JSON(http.StatusOK, history.Recent(limit))
	}, jwt, adminMiddleware())
}
