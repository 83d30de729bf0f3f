package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"

	"github.com/ozzi82/method-flow-command-center/domain"
)

// Register wires up all sync adapter routes on the provided Echo instance.
func Register(e *echo.Echo, syncer Syncer, auth Authenticator, guard Guard, logger *log.Logger) {
	e.POST("/api/method-sync", postMethodSync(syncer, auth, guard, logger))
	e.GET("/api/method-sync/status", getSyncStatus(syncer, auth))
	e.GET("/healthz", healthz())
}

func healthz() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}
}

func postMethodSync(syncer Syncer, auth Authenticator, guard Guard, logger *log.Logger) echo.HandlerFunc {
	return func(c echo.Context) (err error) {
		ctx := c.Request().Context()
		metrics, spanCtx := newSyncRequestMetrics(ctx, logger)
		if spanCtx != nil {
			req := c.Request().WithContext(spanCtx)
			c.SetRequest(req)
			ctx = spanCtx
		}
		defer func() {
			metrics.Log(c.Response().Status, err)
		}()

		authStart := time.Now()
		_, authErr := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		metrics.ObserveAuth(time.Since(authStart))
		if authErr != nil {
			metrics.SetErrorStage("auth")
			err = c.JSON(http.StatusUnauthorized, newErrorResponse("Unauthorized", authErr.Error()))
			return err
		}

		decodeStart := time.Now()
		lr := io.LimitReader(c.Request().Body, syncRequestMaxSize)
		dec := sonic.ConfigStd.NewDecoder(lr)
		dec.DisallowUnknownFields()
		var req syncRequest
		decodeErr := dec.Decode(&req)
		metrics.ObserveDecode(time.Since(decodeStart))
		if decodeErr != nil {
			metrics.SetErrorStage("decode")
			err = c.JSON(http.StatusBadRequest, newErrorResponse("Invalid request body", decodeErr.Error()))
			return err
		}
		metrics.SetAction(req.Action)

		if req.UserID == "" {
			metrics.SetErrorStage("missing_user_id")
			err = c.JSON(http.StatusBadRequest, newErrorResponse("User ID is required", ""))
			return err
		}

		actionStart := time.Now()
		switch req.Action {
		case actionSyncContacts:
			err = handleSyncContacts(c, ctx, syncer, guard, metrics, req.UserID)
		case actionCreateActivity:
			err = handleCreateActivity(c, ctx, syncer, metrics, req)
		case actionSyncTasks:
			err = c.JSON(http.StatusOK, syncResponse{
				Success: true,
				Message: "Task sync from Method CRM not yet implemented",
			})
		case actionCreateContact:
			if len(req.Data) == 0 {
				metrics.SetErrorStage("missing_data")
				err = c.JSON(http.StatusBadRequest, newErrorResponse("Contact data is required", ""))
				break
			}
			err = c.JSON(http.StatusOK, syncResponse{
				Success: true,
				Message: "Contact creation not yet implemented",
			})
		default:
			metrics.SetErrorStage("unknown_action")
			err = c.JSON(http.StatusBadRequest, newErrorResponse(fmt.Sprintf("Unknown action: %s", req.Action), ""))
		}
		metrics.ObserveAction(time.Since(actionStart))
		return err
	}
}

func handleSyncContacts(c echo.Context, ctx context.Context, syncer Syncer, guard Guard, metrics *syncRequestMetrics, userID string) error {
	if guard != nil {
		ok, guardErr := guard.Acquire(ctx, userID)
		if guardErr != nil {
			metrics.SetErrorStage("guard")
			c.Logger().Error(guardErr)
			return c.JSON(http.StatusInternalServerError, newErrorResponse("Failed to sync contacts", guardErr.Error()))
		}
		if !ok {
			metrics.SetErrorStage("sync_in_flight")
			return c.JSON(http.StatusConflict, newErrorResponse("Contact sync already in progress", ""))
		}
		defer func() {
			if relErr := guard.Release(ctx, userID); relErr != nil {
				c.Logger().Error(relErr)
			}
		}()
	}

	count, err := syncer.SyncContacts(ctx, userID)
	if err != nil {
		metrics.SetErrorStage("crm")
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, newErrorResponse("Failed to sync contacts", err.Error()))
	}
	resp := syncResponse{Success: true, Count: &count}
	if count == 0 {
		resp.Message = "No contacts to sync"
	}
	return c.JSON(http.StatusOK, resp)
}

func handleCreateActivity(c echo.Context, ctx context.Context, syncer Syncer, metrics *syncRequestMetrics, req syncRequest) error {
	if len(req.Data) == 0 {
		metrics.SetErrorStage("missing_data")
		return c.JSON(http.StatusBadRequest, newErrorResponse("Task data is required", ""))
	}

	var task domain.Task
	if err := sonic.Unmarshal(req.Data, &task); err != nil {
		metrics.SetErrorStage("decode_task")
		return c.JSON(http.StatusBadRequest, newErrorResponse("Invalid task data", err.Error()))
	}

	methodID, err := syncer.CreateActivity(ctx, task, req.UserID)
	if err != nil {
		// The board still holds the task locally, so a CRM failure is
		// reported inside a 200 envelope rather than as a request error.
		metrics.SetErrorStage("crm")
		c.Logger().Error(err)
		return c.JSON(http.StatusOK, syncResponse{Success: false, Error: err.Error()})
	}
	return c.JSON(http.StatusOK, syncResponse{Success: true, MethodID: methodID})
}

func getSyncStatus(syncer Syncer, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()
		userID, err := auth.UserIDFromAuthHeader(c.Request().Header.Get("Authorization"))
		if err != nil {
			return c.JSON(http.StatusUnauthorized, newErrorResponse("Unauthorized", err.Error()))
		}
		records, err := syncer.SyncStatus(ctx, userID)
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, newErrorResponse("Failed to fetch sync status", err.Error()))
		}
		if records == nil {
			records = []domain.SyncRecord{}
		}
		return c.JSON(http.StatusOK, records)
	}
}
