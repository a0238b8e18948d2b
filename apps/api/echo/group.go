package echoapi

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/aula/core/group"
)

type groupApi struct {
	workspaces *group.Workspaces
	validate   *validator.Validate
}

func registerGroupAPI(g *echo.Group, jwt echo.MiddlewareFunc, workspaces *group.Workspaces, validate *validator.Validate) {
	api := groupApi{
		workspaces: workspaces,
		validate:   validate,
	}

	gg := g.Group("/groups/:id/assignment", jwt, adminMiddleware())
	gg.POST("", api.load)
	gg.GET("", api.view)
	gg.DELETE("", api.close)
	gg.POST("/toggle", api.toggle)
	gg.POST("/remove", api.removeSelected)
	gg.POST("/add", api.addSelected)
}

// workspace returns the workspace of the context user for the group in the path.
func (api *groupApi) workspace(ctx echo.Context) (*group.Reconciler, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "getting context claims")
	}
	r, ok := api.workspaces.Get(claims.Subject, ctx.Param("id"))
	if !ok {
		return nil, group.ErrNotReady
	}
	return r, nil
}

func bindView(ctx echo.Context, r *group.Reconciler) group.View {
	filter := group.QueryFilter{
		SearchAssigned:  ctx.QueryParam("search_assigned"),
		SearchAvailable: ctx.QueryParam("search_available"),
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx, studentOrderingFields...)
	return r.View(filter, ordering.Orderings)
}

// Handlers

func (api *groupApi) load(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	r := api.workspaces.Open(claims.Subject, ctx.Param("id"))
	if err = r.Load(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "loading group")
	}
	return ctx.JSON(http.StatusOK, bindView(ctx, r))
}

func (api *groupApi) view(ctx echo.Context) error {
	r, err := api.workspace(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, bindView(ctx, r))
}

func (api *groupApi) close(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	api.workspaces.Close(claims.Subject, ctx.Param("id"))
	return ctx.NoContent(http.StatusNoContent)
}

func (api *groupApi) toggle(ctx echo.Context) error {
	var data ToggleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	r, err := api.workspace(ctx)
	if err != nil {
		return err
	}
	if err = r.Toggle(data.StudentID, data.Which); err != nil {
		return errors.Wrap(err, "toggling selection")
	}
	return ctx.JSON(http.StatusOK, bindView(ctx, r))
}

func (api *groupApi) removeSelected(ctx echo.Context) error {
	return api.submit(ctx, (*group.Reconciler).RemoveSelected)
}

func (api *groupApi) addSelected(ctx echo.Context) error {
	return api.submit(ctx, (*group.Reconciler).AddSelected)
}

func (api *groupApi) submit(ctx echo.Context, fn submitFunc) error {
	r, err := api.workspace(ctx)
	if err != nil {
		return err
	}
	out, err := fn(r, ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "submitting selection")
	}
	return ctx.JSON(http.StatusOK, SubmitResponse{Outcome: out, View: bindView(ctx, r)})
}

type (
	submitFunc = func(r *group.Reconciler, ctx context.Context) (group.Outcome, error)

	ToggleRequest struct {
		StudentID string          `json:"student_id" validate:"required"`
		Which     group.Selection `json:"which" validate:"required,selection"`
	}

	// SubmitResponse carries the outcome of a batch and the resulting view.
	// Partial failures are reported in the outcome, not as an error status.
	SubmitResponse struct {
		Outcome group.Outcome `json:"outcome"`
		View    group.View    `json:"view"`
	}
)
